package cart

import (
	"context"

	"github.com/bissquit/bloomshop/internal/domain"
)

// Repository defines the interface for cart persistence. A user has at most one cart.
type Repository interface {
	// GetCart returns ErrCartNotFound when the user never saved a cart.
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	// SaveCart inserts or fully replaces the user's cart.
	SaveCart(ctx context.Context, cart *domain.Cart) error
}
