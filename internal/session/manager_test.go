package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bissquit/bloomshop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type mockRoleLookup struct {
	roles map[string]domain.Role
	err   error
}

func (m *mockRoleLookup) LookupRole(_ context.Context, userID string) (domain.Role, bool, error) {
	if m.err != nil {
		return "", false, m.err
	}
	role, ok := m.roles[userID]
	return role, ok, nil
}

func newTestManager(t *testing.T, clock *fakeClock, opts ...Option) (*Manager, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	m, err := NewManager(Config{
		CookieName:  "sid",
		IdleTimeout: 30 * time.Minute,
	}, store, opts...)
	require.NoError(t, err)
	return m, store
}

// login establishes a session and returns the cookie the browser would keep.
func login(t *testing.T, m *Manager, userID string, role domain.Role) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)

	m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := m.Establish(w, r, userID, role)
		require.NoError(t, err)
	})).ServeHTTP(rec, req)

	return findCookie(t, rec, "sid")
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// visit sends a request with cookie and returns the session seen by the handler.
func visit(m *Manager, cookie *http.Cookie) (*domain.Session, *httptest.ResponseRecorder) {
	var seen domain.Session
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}

	m.Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = *FromContext(r.Context())
	})).ServeHTTP(rec, req)

	return &seen, rec
}

func TestManager_EstablishAndResume(t *testing.T) {
	clock := newFakeClock()
	m, store := newTestManager(t, clock)

	cookie := login(t, m, "user-1", domain.RoleCustomer)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 1800, cookie.MaxAge)
	assert.Equal(t, 1, store.Len())

	s, _ := visit(m, cookie)
	assert.True(t, s.Authenticated())
	assert.Equal(t, "user-1", s.UserID)
	assert.Equal(t, domain.RoleCustomer, s.Role)
}

func TestManager_IdleExpiry(t *testing.T) {
	clock := newFakeClock()
	m, store := newTestManager(t, clock)
	cookie := login(t, m, "user-1", domain.RoleCustomer)

	clock.Advance(31 * time.Minute)

	s, rec := visit(m, cookie)
	assert.False(t, s.Authenticated())
	assert.Equal(t, 0, store.Len(), "expired session is deleted")

	cleared := findCookie(t, rec, "sid")
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)

	// The old cookie does not come back to life.
	clock.Advance(time.Minute)
	s, _ = visit(m, cookie)
	assert.False(t, s.Authenticated())
}

func TestManager_SlidingWindow(t *testing.T) {
	clock := newFakeClock()
	m, _ := newTestManager(t, clock)
	cookie := login(t, m, "user-1", domain.RoleCustomer)

	for i := 0; i < 4; i++ {
		clock.Advance(25 * time.Minute)
		s, _ := visit(m, cookie)
		require.True(t, s.Authenticated(), "request %d inside the window keeps the session", i)
	}
}

func TestManager_ExactlyAtTimeoutStillValid(t *testing.T) {
	clock := newFakeClock()
	m, _ := newTestManager(t, clock)
	cookie := login(t, m, "user-1", domain.RoleCustomer)

	clock.Advance(30 * time.Minute)
	s, _ := visit(m, cookie)
	assert.True(t, s.Authenticated())
}

func TestManager_TamperedCookie(t *testing.T) {
	clock := newFakeClock()
	m, _ := newTestManager(t, clock)
	cookie := login(t, m, "user-1", domain.RoleAdmin)

	tampered := *cookie
	suffix := "AAAA"
	if strings.HasSuffix(cookie.Value, suffix) {
		suffix = "BBBB"
	}
	tampered.Value = cookie.Value[:len(cookie.Value)-4] + suffix

	s, rec := visit(m, &tampered)
	assert.False(t, s.Authenticated())
	require.NotNil(t, findCookie(t, rec, "sid"))
}

func TestManager_RestartInvalidatesSessions(t *testing.T) {
	clock := newFakeClock()
	m, store := newTestManager(t, clock)
	cookie := login(t, m, "user-1", domain.RoleCustomer)

	// Same store, new random key.
	restarted, err := NewManager(Config{CookieName: "sid", IdleTimeout: 30 * time.Minute}, store, WithClock(clock.Now))
	require.NoError(t, err)

	s, _ := visit(restarted, cookie)
	assert.False(t, s.Authenticated())
}

func TestManager_ConfiguredKeySurvivesRestart(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore()
	cfg := Config{CookieName: "sid", IdleTimeout: 30 * time.Minute, SecretKey: "shared-secret"}

	m, err := NewManager(cfg, store, WithClock(clock.Now))
	require.NoError(t, err)
	cookie := login(t, m, "user-1", domain.RoleCustomer)

	restarted, err := NewManager(cfg, store, WithClock(clock.Now))
	require.NoError(t, err)

	s, _ := visit(restarted, cookie)
	assert.True(t, s.Authenticated())
}

func TestManager_EstablishRotatesSession(t *testing.T) {
	clock := newFakeClock()
	m, store := newTestManager(t, clock)
	first := login(t, m, "user-1", domain.RoleCustomer)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.AddCookie(first)
	m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := m.Establish(w, r, "user-2", domain.RoleAdmin)
		require.NoError(t, err)
	})).ServeHTTP(rec, req)

	second := findCookie(t, rec, "sid")
	require.NotNil(t, second)
	assert.NotEqual(t, first.Value, second.Value)
	assert.Equal(t, 1, store.Len(), "previous session is dropped")

	s, _ := visit(m, first)
	assert.False(t, s.Authenticated())
	s, _ = visit(m, second)
	assert.Equal(t, "user-2", s.UserID)
}

func TestManager_DestroyIsIdempotent(t *testing.T) {
	clock := newFakeClock()
	m, store := newTestManager(t, clock)
	cookie := login(t, m, "user-1", domain.RoleCustomer)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/logout", nil)
		req.AddCookie(cookie)
		m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(t, m.Destroy(w, r))
			assert.False(t, IsAuthenticated(r.Context()))
		})).ServeHTTP(rec, req)

		cleared := findCookie(t, rec, "sid")
		require.NotNil(t, cleared)
		assert.Equal(t, -1, cleared.MaxAge)
	}

	assert.Equal(t, 0, store.Len())
}

func TestManager_AnonymousRequest(t *testing.T) {
	clock := newFakeClock()
	m, _ := newTestManager(t, clock)

	s, rec := visit(m, nil)
	assert.False(t, s.Authenticated())
	assert.Nil(t, findCookie(t, rec, "sid"), "no cookie is issued to anonymous visitors")
}

// logoutRaceStore deletes every session right after it is read, standing in
// for a logout that lands between the load and the renewal of a request.
type logoutRaceStore struct {
	*MemoryStore
}

func (s logoutRaceStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	sess, err := s.MemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	_ = s.MemoryStore.Delete(ctx, id)
	return sess, nil
}

func TestManager_RenewalDoesNotResurrectDestroyedSession(t *testing.T) {
	clock := newFakeClock()
	memory := NewMemoryStore()
	m, err := NewManager(Config{CookieName: "sid", IdleTimeout: 30 * time.Minute},
		logoutRaceStore{memory}, WithClock(clock.Now))
	require.NoError(t, err)
	cookie := login(t, m, "user-1", domain.RoleCustomer)
	require.Equal(t, 1, memory.Len())

	s, rec := visit(m, cookie)

	assert.False(t, s.Authenticated())
	assert.Equal(t, 0, memory.Len())
	cleared := findCookie(t, rec, "sid")
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)
}
