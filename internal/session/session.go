// Package session manages server-held browser sessions addressed by a signed cookie.
//
// A session expires after a sliding idle window: every request that carries a
// valid cookie moves the window forward. There is no absolute lifetime cap.
package session

import (
	"context"
	"errors"

	"github.com/bissquit/bloomshop/internal/domain"
)

// Errors returned by the session layer.
var (
	ErrNotFound  = errors.New("session not found")
	ErrNoSession = errors.New("authentication required")
	ErrForbidden = errors.New("insufficient permissions")
)

// Store persists sessions. Implementations must be safe for concurrent use and
// return ErrNotFound for unknown ids.
type Store interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, s *domain.Session) error
	// Update replaces an existing session and returns ErrNotFound when it is gone.
	// Renewals use it so that a concurrent Delete is never undone.
	Update(ctx context.Context, s *domain.Session) error
	Delete(ctx context.Context, id string) error
}

// RoleLookup resolves the current role of a user. ok is false when the user no longer exists.
type RoleLookup interface {
	LookupRole(ctx context.Context, userID string) (role domain.Role, ok bool, err error)
}

type ctxKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *domain.Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session attached by Middleware, or nil.
func FromContext(ctx context.Context) *domain.Session {
	s, _ := ctx.Value(ctxKey{}).(*domain.Session)
	return s
}

// IsAuthenticated reports whether the request session carries a user id.
func IsAuthenticated(ctx context.Context) bool {
	return FromContext(ctx).Authenticated()
}

// CurrentUserID returns the session user id or "".
func CurrentUserID(ctx context.Context) string {
	if s := FromContext(ctx); s != nil {
		return s.UserID
	}
	return ""
}

// CurrentRole returns the session role or "".
func CurrentRole(ctx context.Context) domain.Role {
	if s := FromContext(ctx); s != nil {
		return s.Role
	}
	return ""
}

// Actor returns the caller identity held by the session.
func Actor(ctx context.Context) domain.Actor {
	return domain.Actor{UserID: CurrentUserID(ctx), Role: CurrentRole(ctx)}
}
