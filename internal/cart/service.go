// Package cart stores one free-form item list per user.
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bissquit/bloomshop/internal/domain"
)

// Errors returned by the cart module.
var (
	ErrCartNotFound = errors.New("cart not found")
	ErrNoUser       = errors.New("authentication required")
)

// Service implements cart business logic.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new cart service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Get returns the user's items, or an empty list when no cart exists.
func (s *Service) Get(ctx context.Context, userID string) ([]domain.CartItem, error) {
	if userID == "" {
		return nil, ErrNoUser
	}

	c, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			return []domain.CartItem{}, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if c.Items == nil {
		return []domain.CartItem{}, nil
	}
	return c.Items, nil
}

// Save replaces the user's whole cart. Items are stored as given.
func (s *Service) Save(ctx context.Context, userID string, items []domain.CartItem) error {
	if userID == "" {
		return ErrNoUser
	}
	if items == nil {
		items = []domain.CartItem{}
	}

	if err := s.repo.SaveCart(ctx, &domain.Cart{
		UserID:    userID,
		Items:     items,
		UpdatedAt: s.now(),
	}); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}
