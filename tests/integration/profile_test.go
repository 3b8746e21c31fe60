//go:build integration

package integration

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/bissquit/bloomshop/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfile_UpdateOwn(t *testing.T) {
	client := newTestClient(t)
	id, _ := registerAndLogin(t, client, "profile")
	newEmail := testutil.RandomEmail("renamed")

	resp, err := client.PUT("/api/profile", map[string]string{
		"name":  "Nombre Nuevo",
		"email": strings.ToUpper(newEmail),
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	var name, email string
	err = testDB.QueryRow(context.Background(),
		`SELECT name, email FROM users WHERE id = $1`, id).Scan(&name, &email)
	require.NoError(t, err)
	assert.Equal(t, "Nombre Nuevo", name)
	assert.Equal(t, newEmail, email)

	// The new address works for login.
	other := newTestClient(t)
	other.LoginAs(t, newEmail, "password123")
}

func TestProfile_CustomerCannotUpdateOthers(t *testing.T) {
	victim := newTestClient(t)
	victimID, _ := registerAndLogin(t, victim, "victim")

	attacker := newTestClient(t)
	registerAndLogin(t, attacker, "attacker")

	resp, err := attacker.PUT("/api/profile", map[string]string{
		"_id":   victimID,
		"name":  "Hacked",
		"email": testutil.RandomEmail("hacked"),
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestProfile_AdminUpdatesAnyUser(t *testing.T) {
	customer := newTestClient(t)
	customerID, _ := registerAndLogin(t, customer, "managed")

	admin := newTestClient(t)
	loginAsAdmin(t, admin)

	resp, err := admin.PUT("/api/profile", map[string]string{
		"_id":   customerID,
		"name":  "Editado por admin",
		"email": testutil.RandomEmail("edited"),
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestProfile_EmailTaken(t *testing.T) {
	first := newTestClient(t)
	_, takenEmail := registerAndLogin(t, first, "taken")

	second := newTestClient(t)
	registerAndLogin(t, second, "taker")

	resp, err := second.PUT("/api/profile", map[string]string{
		"name":  "Taker",
		"email": takenEmail,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestProfile_RequiresSession(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.PUT("/api/profile", map[string]string{
		"name":  "Anon",
		"email": testutil.RandomEmail("anon"),
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}
