package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bissquit/bloomshop/internal/domain"
	"github.com/bissquit/bloomshop/internal/pkg/ctxlog"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBootstrapAdminEmail self-registers with the admin role.
const DefaultBootstrapAdminEmail = "admin@bloomcare.com"

// ServiceConfig contains identity service settings.
type ServiceConfig struct {
	BootstrapAdminEmail string
	BcryptCost          int
}

// Service implements identity business logic.
type Service struct {
	repo   Repository
	config ServiceConfig
	now    func() time.Time
}

// NewService creates a new identity service.
func NewService(repo Repository, config ServiceConfig) *Service {
	if config.BootstrapAdminEmail == "" {
		config.BootstrapAdminEmail = DefaultBootstrapAdminEmail
	}
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:   repo,
		config: config,
		now:    time.Now,
	}
}

// RegisterInput contains data for user registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates a new account. The bootstrap email gets the admin role,
// everybody else is a customer. No session is established.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	role := domain.RoleCustomer
	if normalizeEmail(input.Email) == normalizeEmail(s.config.BootstrapAdminEmail) {
		role = domain.RoleAdmin
	}
	return s.createUser(ctx, input, role)
}

// CreateAdmin provisions an admin account on behalf of an admin actor.
func (s *Service) CreateAdmin(ctx context.Context, actor domain.Actor, input RegisterInput) (*domain.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	user, err := s.createUser(ctx, input, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("admin created", "user_id", user.ID, "created_by", actor.UserID)
	return user, nil
}

func (s *Service) createUser(ctx context.Context, input RegisterInput, role domain.Role) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.config.BcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, ErrPasswordTooLong
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        normalizeEmail(input.Email),
		PasswordHash: string(hash),
		Role:         role,
		RegisteredAt: now,
		UpdatedAt:    now,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// LoginInput contains data for user login.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and returns the user.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, input LoginInput) (*domain.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUserByID returns user by ID.
func (s *Service) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// LookupRole returns the stored role of the user; ok is false when the user is gone.
func (s *Service) LookupRole(ctx context.Context, userID string) (domain.Role, bool, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return user.Role, true, nil
}

// UpdateProfileInput contains the editable profile fields.
// An empty UserID targets the actor's own profile.
type UpdateProfileInput struct {
	UserID string
	Name   string
	Email  string
}

// UpdateProfile changes name and email. Only admins may edit someone else's profile.
func (s *Service) UpdateProfile(ctx context.Context, actor domain.Actor, input UpdateProfileInput) error {
	target := input.UserID
	if target == "" {
		target = actor.UserID
	}
	if target == "" {
		return ErrMissingUserID
	}
	if target != actor.UserID && !actor.IsAdmin() {
		return ErrForbidden
	}

	err := s.repo.UpdateProfile(ctx, target, strings.TrimSpace(input.Name), normalizeEmail(input.Email), s.now())
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrEmailExists) {
			return err
		}
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// ListAdmins returns all users holding the admin role.
func (s *Service) ListAdmins(ctx context.Context, actor domain.Actor) ([]domain.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	users, err := s.repo.ListUsersByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return users, nil
}

// DeleteAdmin removes another admin account. Customers cannot be removed this way.
func (s *Service) DeleteAdmin(ctx context.Context, actor domain.Actor, id string) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if id == "" {
		return ErrMissingUserID
	}
	if id == actor.UserID {
		return ErrSelfDelete
	}

	if err := s.repo.DeleteUserWithRole(ctx, id, domain.RoleAdmin); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete admin: %w", err)
	}

	ctxlog.FromContext(ctx).Info("admin deleted", "user_id", id, "deleted_by", actor.UserID)
	return nil
}

// EnsureBootstrapAdmin provisions the bootstrap admin account when it does not exist.
// It reports whether an account was created.
func (s *Service) EnsureBootstrapAdmin(ctx context.Context, name, password string) (bool, error) {
	if password == "" {
		return false, nil
	}

	_, err := s.repo.GetUserByEmail(ctx, normalizeEmail(s.config.BootstrapAdminEmail))
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return false, fmt.Errorf("get bootstrap admin: %w", err)
	}

	_, err = s.createUser(ctx, RegisterInput{
		Name:     name,
		Email:    s.config.BootstrapAdminEmail,
		Password: password,
	}, domain.RoleAdmin)
	if errors.Is(err, ErrEmailExists) {
		// Another instance won the race.
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
