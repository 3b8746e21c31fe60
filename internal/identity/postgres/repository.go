// Package postgres provides PostgreSQL implementation of the identity repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bissquit/bloomshop/internal/domain"
	"github.com/bissquit/bloomshop/internal/identity"
	pgutil "github.com/bissquit/bloomshop/internal/pkg/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements the identity.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateUser inserts the user and assigns its ID.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate user id: %w", err)
	}

	query := `
		INSERT INTO users (id, name, email, password_hash, role, registered_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.Exec(ctx, query,
		id,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.RegisteredAt,
		user.UpdatedAt,
	)
	if err != nil {
		if pgutil.IsUniqueViolation(err) {
			return identity.ErrEmailExists
		}
		return fmt.Errorf("insert user: %w", err)
	}

	user.ID = id.String()
	return nil
}

// GetUserByID retrieves a user by ID. Malformed IDs are reported as not found.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, identity.ErrUserNotFound
	}

	query := `
		SELECT id, name, email, password_hash, role, registered_at, updated_at
		FROM users
		WHERE id = $1
	`
	return r.getUser(ctx, query, uid)
}

// GetUserByEmail retrieves a user by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, name, email, password_hash, role, registered_at, updated_at
		FROM users
		WHERE email = $1
	`
	return r.getUser(ctx, query, email)
}

func (r *Repository) getUser(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	var (
		user domain.User
		id   uuid.UUID
	)
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&id,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.RegisteredAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, identity.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	user.ID = id.String()
	return &user, nil
}

// UpdateProfile sets name and email of the user.
func (r *Repository) UpdateProfile(ctx context.Context, id, name, email string, updatedAt time.Time) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return identity.ErrUserNotFound
	}

	query := `
		UPDATE users
		SET name = $2, email = $3, updated_at = $4
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query, uid, name, email, updatedAt)
	if err != nil {
		if pgutil.IsUniqueViolation(err) {
			return identity.ErrEmailExists
		}
		return fmt.Errorf("update user profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return identity.ErrUserNotFound
	}
	return nil
}

// ListUsersByRole returns users holding role in registration order.
func (r *Repository) ListUsersByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	query := `
		SELECT id, name, email, role, registered_at, updated_at
		FROM users
		WHERE role = $1
		ORDER BY registered_at, id
	`
	rows, err := r.db.Query(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var (
			user domain.User
			id   uuid.UUID
		)
		if err := rows.Scan(&id, &user.Name, &user.Email, &user.Role, &user.RegisteredAt, &user.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		user.ID = id.String()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// DeleteUserWithRole deletes the user when it holds role.
func (r *Repository) DeleteUserWithRole(ctx context.Context, id string, role domain.Role) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return identity.ErrUserNotFound
	}

	result, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1 AND role = $2`, uid, role)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return identity.ErrUserNotFound
	}
	return nil
}
