package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bissquit/bloomshop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRepository implements Repository for testing.
type mockRepository struct {
	mu      sync.Mutex
	carts   map[string]domain.Cart
	saveErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{carts: make(map[string]domain.Cart)}
}

func (m *mockRepository) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.carts[userID]
	if !ok {
		return nil, ErrCartNotFound
	}
	return &c, nil
}

func (m *mockRepository) SaveCart(_ context.Context, c *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}
	m.carts[c.UserID] = *c
	return nil
}

func TestGet_NoCartReturnsEmptyList(t *testing.T) {
	service := NewService(newMockRepository())

	items, err := service.Get(context.Background(), "user-1")

	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestSave_ThenGet(t *testing.T) {
	// Arrange
	repo := newMockRepository()
	service := NewService(repo)
	ctx := context.Background()

	// Act
	err := service.Save(ctx, "user-1", []domain.CartItem{{"product": "A", "qty": 2}})
	require.NoError(t, err)
	items, err := service.Get(ctx, "user-1")

	// Assert
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "A", items[0]["product"])
	assert.Equal(t, 2, items[0]["qty"])
	assert.False(t, repo.carts["user-1"].UpdatedAt.IsZero())
}

func TestSave_ReplacesWholeCart(t *testing.T) {
	service := NewService(newMockRepository())
	ctx := context.Background()
	require.NoError(t, service.Save(ctx, "user-1", []domain.CartItem{{"product": "A"}, {"product": "B"}}))

	require.NoError(t, service.Save(ctx, "user-1", []domain.CartItem{}))

	items, err := service.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSave_NilItemsStoresEmptyCart(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)

	require.NoError(t, service.Save(context.Background(), "user-1", nil))

	assert.NotNil(t, repo.carts["user-1"].Items)
}

func TestCartsAreIsolatedPerUser(t *testing.T) {
	service := NewService(newMockRepository())
	ctx := context.Background()
	require.NoError(t, service.Save(ctx, "user-1", []domain.CartItem{{"product": "A"}}))

	items, err := service.Get(ctx, "user-2")

	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRequiresUser(t *testing.T) {
	service := NewService(newMockRepository())

	_, err := service.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoUser)

	err = service.Save(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrNoUser)
}

func TestSave_RepositoryError(t *testing.T) {
	repo := newMockRepository()
	repo.saveErr = errors.New("disk full")
	service := NewService(repo)

	err := service.Save(context.Background(), "user-1", nil)

	assert.ErrorIs(t, err, repo.saveErr)
}
