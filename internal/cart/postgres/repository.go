// Package postgres provides PostgreSQL implementation of the cart repository.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bissquit/bloomshop/internal/cart"
	"github.com/bissquit/bloomshop/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements the cart.Repository interface using PostgreSQL.
// Items are kept verbatim in a JSONB column.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetCart returns the user's cart.
func (r *Repository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, cart.ErrCartNotFound
	}

	var (
		c   = domain.Cart{UserID: userID}
		raw []byte
	)
	err = r.db.QueryRow(ctx, `SELECT items, updated_at FROM carts WHERE user_id = $1`, uid).Scan(&raw, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrCartNotFound
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	if err := json.Unmarshal(raw, &c.Items); err != nil {
		return nil, fmt.Errorf("decode cart items: %w", err)
	}
	return &c, nil
}

// SaveCart upserts the user's cart, replacing all items.
func (r *Repository) SaveCart(ctx context.Context, c *domain.Cart) error {
	uid, err := uuid.Parse(c.UserID)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", c.UserID, err)
	}

	items, err := json.Marshal(c.Items)
	if err != nil {
		return fmt.Errorf("encode cart items: %w", err)
	}

	query := `
		INSERT INTO carts (user_id, items, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET items = EXCLUDED.items, updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.Exec(ctx, query, uid, items, c.UpdatedAt); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}
