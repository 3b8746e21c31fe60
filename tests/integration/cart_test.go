//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/bissquit/bloomshop/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cartResponse struct {
	envelope
	Items []map[string]interface{} `json:"items"`
}

func getCart(t *testing.T, client *testutil.Client) cartResponse {
	t.Helper()
	resp, err := client.GET("/api/cart")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result cartResponse
	testutil.DecodeJSON(t, resp, &result)
	return result
}

func saveCart(t *testing.T, client *testutil.Client, items []map[string]interface{}) {
	t.Helper()
	resp, err := client.POST("/api/cart", map[string]interface{}{"items": items})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestCart_EmptyForNewUser(t *testing.T) {
	client := newTestClient(t)
	registerAndLogin(t, client, "emptycart")

	result := getCart(t, client)
	assert.True(t, result.OK)
	assert.NotNil(t, result.Items)
	assert.Empty(t, result.Items)
}

func TestCart_SaveReplacesItems(t *testing.T) {
	client := newTestClient(t)
	registerAndLogin(t, client, "cart")

	saveCart(t, client, []map[string]interface{}{
		{"product_id": "p1", "name": "Compresas Suaves", "price": 1000, "quantity": 2},
		{"product_id": "p2", "name": "Copas Menstruales", "price": 1000, "quantity": 1,
			"options": map[string]interface{}{"size": "M"}},
	})

	result := getCart(t, client)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "p1", result.Items[0]["product_id"])
	assert.EqualValues(t, 2, result.Items[0]["quantity"])
	assert.Equal(t, map[string]interface{}{"size": "M"}, result.Items[1]["options"])

	saveCart(t, client, []map[string]interface{}{
		{"product_id": "p3", "quantity": 5},
	})

	result = getCart(t, client)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "p3", result.Items[0]["product_id"])

	saveCart(t, client, []map[string]interface{}{})
	assert.Empty(t, getCart(t, client).Items)
}

func TestCart_IsolatedPerUser(t *testing.T) {
	alice := newTestClient(t)
	registerAndLogin(t, alice, "alice")
	bob := newTestClient(t)
	registerAndLogin(t, bob, "bob")

	saveCart(t, alice, []map[string]interface{}{{"product_id": "a", "quantity": 1}})

	assert.Empty(t, getCart(t, bob).Items)
	assert.Len(t, getCart(t, alice).Items, 1)
}

func TestCart_RequiresSession(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.GET("/api/cart")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = client.POST("/api/cart", map[string]interface{}{"items": []interface{}{}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestCart_InvalidBody(t *testing.T) {
	client := newTestClient(t)
	registerAndLogin(t, client, "badcart")

	resp, err := client.POST("/api/cart", map[string]interface{}{"items": "not-a-list"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}
