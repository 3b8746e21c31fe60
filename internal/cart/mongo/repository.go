// Package mongo provides MongoDB implementation of the cart repository.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bissquit/bloomshop/internal/cart"
	"github.com/bissquit/bloomshop/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "carts"

type cartDocument struct {
	UserID    string    `bson:"user_id"`
	Items     []bson.M  `bson:"items"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Repository implements the cart.Repository interface using MongoDB.
type Repository struct {
	carts *mongo.Collection
}

// NewRepository creates a new MongoDB repository.
// Nested item documents decode as maps so they render back as JSON objects.
func NewRepository(db *mongo.Database) *Repository {
	opts := options.Collection().SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})
	return &Repository{carts: db.Collection(collectionName, opts)}
}

// EnsureIndexes creates the unique user_id index that keeps one cart per user.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.carts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("carts_user_id_unique"),
	})
	if err != nil {
		return fmt.Errorf("create carts user_id index: %w", err)
	}
	return nil
}

// GetCart returns the user's cart.
func (r *Repository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var doc cartDocument
	if err := r.carts.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, cart.ErrCartNotFound
		}
		return nil, fmt.Errorf("find cart: %w", err)
	}

	items := make([]domain.CartItem, 0, len(doc.Items))
	for _, item := range doc.Items {
		items = append(items, domain.CartItem(item))
	}
	return &domain.Cart{UserID: doc.UserID, Items: items, UpdatedAt: doc.UpdatedAt}, nil
}

// SaveCart upserts the user's cart, replacing all items.
func (r *Repository) SaveCart(ctx context.Context, c *domain.Cart) error {
	items := make([]bson.M, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, bson.M(item))
	}

	_, err := r.carts.ReplaceOne(ctx,
		bson.M{"user_id": c.UserID},
		cartDocument{UserID: c.UserID, Items: items, UpdatedAt: c.UpdatedAt},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}
