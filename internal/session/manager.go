package session

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bissquit/bloomshop/internal/domain"
	"github.com/bissquit/bloomshop/internal/pkg/ctxlog"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultIdleTimeout is the inactivity window after which a session expires.
const DefaultIdleTimeout = 30 * time.Minute

// Config contains session manager settings.
type Config struct {
	CookieName     string
	IdleTimeout    time.Duration
	SecretKey      string // empty: a random key is generated, so a restart invalidates all sessions
	Secure         bool
	Domain         string
	RevalidateRole bool
}

// Manager issues, renews and invalidates sessions.
type Manager struct {
	config Config
	key    []byte
	store  Store
	roles  RoleLookup
	now    func() time.Time
}

// Option customises a Manager.
type Option func(*Manager)

// WithClock replaces time.Now, used by tests to simulate idle time.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithRoleLookup enables re-reading the user's role on privileged checks
// when Config.RevalidateRole is set.
func WithRoleLookup(roles RoleLookup) Option {
	return func(m *Manager) { m.roles = roles }
}

// NewManager creates a session manager.
func NewManager(config Config, store Store, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, errors.New("session: store is required")
	}
	if config.CookieName == "" {
		config.CookieName = "session"
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = DefaultIdleTimeout
	}

	key := []byte(config.SecretKey)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("session: generate signing key: %w", err)
		}
	}

	m := &Manager{
		config: config,
		key:    key,
		store:  store,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// IdleTimeout returns the sliding expiry window.
func (m *Manager) IdleTimeout() time.Duration {
	return m.config.IdleTimeout
}

// Establish starts a new authenticated session for the user and sets the cookie.
// Any session the request already carried is destroyed first.
func (m *Manager) Establish(w http.ResponseWriter, r *http.Request, userID string, role domain.Role) (*domain.Session, error) {
	ctx := r.Context()
	if current := m.sessionID(r); current != "" {
		if err := m.store.Delete(ctx, current); err != nil && !errors.Is(err, ErrNotFound) {
			ctxlog.FromContext(ctx).Warn("failed to delete previous session", "error", err)
		}
	}

	now := m.now()
	s := &domain.Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		Role:         role,
		CreatedAt:    now,
		LastActivity: now,
	}
	if err := m.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	token, err := m.sign(s.ID, now)
	if err != nil {
		return nil, err
	}
	m.setCookie(w, token)

	return s, nil
}

// Destroy removes the whole session and clears the cookie. It is idempotent.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) error {
	var err error
	if id := m.sessionID(r); id != "" {
		if delErr := m.store.Delete(r.Context(), id); delErr != nil && !errors.Is(delErr, ErrNotFound) {
			err = fmt.Errorf("delete session: %w", delErr)
		}
	}
	if s := FromContext(r.Context()); s != nil {
		*s = domain.Session{}
	}
	m.clearCookie(w)
	return err
}

// Middleware attaches the request's session to the context, dropping it when
// idle for longer than the configured window and renewing it otherwise.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := m.resume(w, r)
		if s == nil {
			// Anonymous requests carry an empty session.
			s = &domain.Session{}
		}
		ctx := WithSession(r.Context(), s)
		if s.Authenticated() {
			ctx = ctxlog.With(ctx, "user_id", s.UserID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Manager) resume(w http.ResponseWriter, r *http.Request) *domain.Session {
	cookie, err := r.Cookie(m.config.CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	ctx := r.Context()
	logger := ctxlog.FromContext(ctx)

	id, err := m.parse(cookie.Value)
	if err != nil {
		logger.Debug("rejected session cookie", "error", err)
		m.clearCookie(w)
		return nil
	}

	s, err := m.store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Error("failed to load session", "error", err)
			return nil
		}
		m.clearCookie(w)
		return nil
	}

	now := m.now()
	if s.IdleExpired(now, m.config.IdleTimeout) {
		if err := m.store.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
			logger.Warn("failed to delete expired session", "error", err)
		}
		m.clearCookie(w)
		return nil
	}

	s.LastActivity = now
	if err := m.store.Update(ctx, s); err != nil {
		if errors.Is(err, ErrNotFound) {
			// destroyed by a concurrent request
			m.clearCookie(w)
			return nil
		}
		logger.Warn("failed to renew session", "error", err)
	}
	m.setCookie(w, cookie.Value)

	return s
}

// currentRole returns the role a privileged check must use. With revalidation
// enabled the role is read from storage and the session updated when it changed.
// ok is false when the session's user no longer exists.
func (m *Manager) currentRole(ctx context.Context, s *domain.Session) (domain.Role, bool, error) {
	if !m.config.RevalidateRole || m.roles == nil {
		return s.Role, true, nil
	}

	role, ok, err := m.roles.LookupRole(ctx, s.UserID)
	if err != nil || !ok {
		return "", ok, err
	}

	if role != s.Role {
		ctxlog.FromContext(ctx).Info("session role changed", "user_id", s.UserID, "from", s.Role, "to", role)
		s.Role = role
		if err := m.store.Update(ctx, s); err != nil && !errors.Is(err, ErrNotFound) {
			ctxlog.FromContext(ctx).Warn("failed to persist session role", "error", err)
		}
	}
	return role, true, nil
}

type claims struct {
	jwt.RegisteredClaims
}

func (m *Manager) sign(id string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       id,
			IssuedAt: jwt.NewNumericDate(now),
		},
	})
	signed, err := token.SignedString(m.key)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

func (m *Manager) parse(raw string) (string, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (interface{}, error) {
		return m.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil {
		return "", err
	}
	if c.ID == "" {
		return "", errors.New("session token without id")
	}
	return c.ID, nil
}

// sessionID returns the id behind the request cookie, or "" when absent or invalid.
func (m *Manager) sessionID(r *http.Request) string {
	cookie, err := r.Cookie(m.config.CookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	id, err := m.parse(cookie.Value)
	if err != nil {
		return ""
	}
	return id
}

func (m *Manager) setCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    value,
		Path:     "/",
		Domain:   m.config.Domain,
		MaxAge:   int(m.config.IdleTimeout.Seconds()),
		HttpOnly: true,
		Secure:   m.config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   m.config.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
