// Package postgres provides PostgreSQL implementation of the catalog repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bissquit/bloomshop/internal/catalog"
	"github.com/bissquit/bloomshop/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SeedLockKey is the advisory lock serialising first-boot seeding across
// connections and instances.
const SeedLockKey int64 = 0x626c6f6f6d // "bloom"

// Repository implements the catalog.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ListProducts returns one page of products ordered by ID (insertion order,
// IDs are UUIDv7) and the number of products matching the filter.
func (r *Repository) ListProducts(ctx context.Context, filter catalog.ListFilter) ([]domain.Product, int, error) {
	where := ""
	args := []interface{}{}
	if filter.Search != "" {
		where = ` WHERE name ILIKE $1`
		args = append(args, "%"+escapeLike(filter.Search)+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := `
		SELECT id, name, description, price, image_url, created_at, updated_at
		FROM products` + where + fmt.Sprintf(`
		ORDER BY id
		LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, filter.Limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate products: %w", err)
	}

	return products, total, nil
}

// SeedIfEmpty inserts products in one transaction that holds an advisory lock,
// so concurrent first requests seed exactly once. A non-empty table is
// detected without the lock.
func (r *Repository) SeedIfEmpty(ctx context.Context, products []domain.Product) (bool, error) {
	exists, err := r.hasProducts(ctx, r.db)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, SeedLockKey); err != nil {
		return false, fmt.Errorf("acquire seed lock: %w", err)
	}

	// another instance may have seeded while we waited
	exists, err = r.hasProducts(ctx, tx)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	for i := range products {
		if err := insertProduct(ctx, tx, &products[i]); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}
	return true, nil
}

func (r *Repository) hasProducts(ctx context.Context, db execer) (bool, error) {
	var exists bool
	if err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products)`).Scan(&exists); err != nil {
		return false, fmt.Errorf("check products: %w", err)
	}
	return exists, nil
}

// CreateProduct inserts the product and assigns its ID.
func (r *Repository) CreateProduct(ctx context.Context, product *domain.Product) error {
	return insertProduct(ctx, r.db, product)
}

type execer interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func insertProduct(ctx context.Context, db execer, product *domain.Product) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate product id: %w", err)
	}

	query := `
		INSERT INTO products (id, name, description, price, image_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err = db.QueryRow(ctx, query,
		id,
		product.Name,
		product.Description,
		product.Price,
		product.ImageURL,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	product.ID = id.String()
	return nil
}

// GetProductByID retrieves a product by ID. Malformed IDs are reported as not found.
func (r *Repository) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, catalog.ErrProductNotFound
	}

	query := `
		SELECT id, name, description, price, image_url, created_at, updated_at
		FROM products
		WHERE id = $1
	`
	p, err := scanProduct(r.db.QueryRow(ctx, query, uid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

// UpdateProduct writes name and price, and description and image URL when set.
func (r *Repository) UpdateProduct(ctx context.Context, id string, update catalog.ProductUpdate) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return catalog.ErrProductNotFound
	}

	query := `
		UPDATE products
		SET name = $2,
		    price = $3,
		    description = COALESCE($4, description),
		    image_url = COALESCE($5, image_url),
		    updated_at = $6
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query,
		uid,
		update.Name,
		update.Price,
		update.Description,
		update.ImageURL,
		update.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if result.RowsAffected() == 0 {
		return catalog.ErrProductNotFound
	}
	return nil
}

// DeleteProduct removes a product.
func (r *Repository) DeleteProduct(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return catalog.ErrProductNotFound
	}

	result, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, uid)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if result.RowsAffected() == 0 {
		return catalog.ErrProductNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p  domain.Product
		id uuid.UUID
	)
	err := row.Scan(&id, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	p.ID = id.String()
	return &p, nil
}

// escapeLike escapes LIKE wildcards so search text matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
