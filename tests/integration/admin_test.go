//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/bissquit/bloomshop/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type adminList struct {
	envelope
	Admins []struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"admins"`
}

func listAdmins(t *testing.T, client *testutil.Client) adminList {
	t.Helper()
	resp, err := client.GET("/api/admin/users")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result adminList
	testutil.DecodeJSON(t, resp, &result)
	return result
}

func TestAdmin_CreateListDelete(t *testing.T) {
	admin := newTestClient(t)
	loginAsAdmin(t, admin)
	email := testutil.RandomEmail("admin")

	resp, err := admin.POST("/api/admin/create-admin", map[string]string{
		"name":     "Segunda Admin",
		"email":    email,
		"password": "admin-password",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var created userResponse
	testutil.DecodeJSON(t, resp, &created)
	assert.Equal(t, "admin", created.User.Role)

	list := listAdmins(t, admin)
	emails := make([]string, 0, len(list.Admins))
	for _, a := range list.Admins {
		emails = append(emails, a.Email)
	}
	assert.Contains(t, emails, email)
	assert.Contains(t, emails, adminEmail)

	// The new admin can log in and has the admin role.
	second := newTestClient(t)
	second.LoginAs(t, email, "admin-password")
	assert.Equal(t, "admin", getSession(t, second).Role)

	resp, err = admin.DELETE("/api/admin/users/" + created.User.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	// Role revalidation: the deleted admin's session no longer grants access.
	resp, err = second.GET("/api/admin/users")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = admin.DELETE("/api/admin/users/" + created.User.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestAdmin_CannotDeleteSelf(t *testing.T) {
	admin := newTestClient(t)
	loginAsAdmin(t, admin)
	status := getSession(t, admin)

	resp, err := admin.DELETE("/api/admin/users/" + status.UserID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestAdmin_CannotDeleteCustomer(t *testing.T) {
	customer := newTestClient(t)
	customerID, _ := registerAndLogin(t, customer, "notadmin")

	admin := newTestClient(t)
	loginAsAdmin(t, admin)

	resp, err := admin.DELETE("/api/admin/users/" + customerID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestAdmin_CustomerForbidden(t *testing.T) {
	customer := newTestClient(t)
	registerAndLogin(t, customer, "curious")

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"list admins", http.MethodGet, "/api/admin/users"},
		{"create admin", http.MethodPost, "/api/admin/create-admin"},
		{"delete admin", http.MethodDelete, "/api/admin/users/any"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := customer.WithoutValidation()
			var (
				resp *http.Response
				err  error
			)
			switch tt.method {
			case http.MethodGet:
				resp, err = client.GET(tt.path)
			case http.MethodPost:
				resp, err = client.POST(tt.path, map[string]string{"name": "x", "email": "x@example.com", "password": "x"})
			default:
				resp, err = client.DELETE(tt.path)
			}
			require.NoError(t, err)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
			_ = resp.Body.Close()
		})
	}
}

func TestAdmin_PageRedirectsNonAdmins(t *testing.T) {
	client := newTestClientWithoutValidation()

	resp, err := client.GET("/admin")
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	_ = resp.Body.Close()

	loginAsAdmin(t, client)

	resp, err = client.GET("/admin")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, testutil.ReadBody(t, resp), "<html")
}
