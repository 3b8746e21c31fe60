package identity

import (
	"context"
	"time"

	"github.com/bissquit/bloomshop/internal/domain"
)

// Repository defines the interface for user data access.
// Email uniqueness is enforced by storage: writes that collide return ErrEmailExists.
type Repository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id, name, email string, updatedAt time.Time) error
	ListUsersByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	// DeleteUserWithRole deletes the user only when it holds role.
	// Returns ErrUserNotFound when nothing matched.
	DeleteUserWithRole(ctx context.Context, id string, role domain.Role) error
}
