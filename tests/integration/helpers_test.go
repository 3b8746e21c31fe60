//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/bissquit/bloomshop/internal/testutil"
	"github.com/stretchr/testify/require"
)

// envelope is the common response shape.
type envelope struct {
	OK  bool   `json:"ok"`
	Msg string `json:"msg"`
}

type userResponse struct {
	envelope
	User struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
}

type product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image_url"`
}

type productResponse struct {
	envelope
	Product product `json:"product"`
}

type productPage struct {
	envelope
	Products []product `json:"products"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
	Pages    int       `json:"pages"`
	HasNext  bool      `json:"has_next"`
	HasPrev  bool      `json:"has_prev"`
}

// pngBytes is a minimal PNG header; the server checks names, not content.
var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// registerAndLogin creates a customer and logs the client in. Returns the user ID.
func registerAndLogin(t *testing.T, client *testutil.Client, prefix string) (id, email string) {
	t.Helper()

	email = testutil.RandomEmail(prefix)
	client.Register(t, "Cliente "+prefix, email, "password123")

	resp, err := client.POST("/login", map[string]string{
		"email":    email,
		"password": "password123",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result userResponse
	testutil.DecodeJSON(t, resp, &result)
	return result.User.ID, email
}

// loginAsAdmin logs the client in as the bootstrap admin.
func loginAsAdmin(t *testing.T, client *testutil.Client) {
	t.Helper()
	client.LoginAs(t, adminEmail, adminPassword)
}

// createProduct creates a product through the API as the given admin client.
func createProduct(t *testing.T, admin *testutil.Client, name string) product {
	t.Helper()

	file := &testutil.FormFile{Field: "image", Filename: "flor.png", Content: pngBytes}
	resp, err := admin.Multipart(http.MethodPost, "/api/products", map[string]string{
		"name":        name,
		"price":       "1500",
		"description": "Descripción de prueba",
	}, file)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result productResponse
	testutil.DecodeJSON(t, resp, &result)
	require.True(t, result.OK)
	require.NotEmpty(t, result.Product.ID)
	return result.Product
}
