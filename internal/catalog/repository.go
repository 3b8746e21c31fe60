package catalog

import (
	"context"
	"time"

	"github.com/bissquit/bloomshop/internal/domain"
)

// ListFilter selects one page of products.
type ListFilter struct {
	Search string // case-insensitive substring of the name, empty matches all
	Offset int
	Limit  int
}

// ProductUpdate holds the fields written by an update. Nil pointers leave the
// stored value unchanged.
type ProductUpdate struct {
	Name        string
	Price       float64
	Description *string
	ImageURL    *string
	UpdatedAt   time.Time
}

// Repository defines the interface for product data operations.
// Products are listed in insertion order.
type Repository interface {
	ListProducts(ctx context.Context, filter ListFilter) ([]domain.Product, int, error)
	// SeedIfEmpty inserts products only when the collection holds none and
	// reports whether it did.
	SeedIfEmpty(ctx context.Context, products []domain.Product) (bool, error)
	CreateProduct(ctx context.Context, product *domain.Product) error
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, update ProductUpdate) error
	DeleteProduct(ctx context.Context, id string) error
}
