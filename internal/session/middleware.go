package session

import (
	"net/http"

	"github.com/bissquit/bloomshop/internal/domain"
	"github.com/bissquit/bloomshop/internal/pkg/ctxlog"
	"github.com/bissquit/bloomshop/internal/pkg/httputil"
)

// RequireAuth rejects requests without an authenticated session with 401.
func (m *Manager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := FromContext(r.Context())
		if !s.Authenticated() {
			httputil.Error(w, http.StatusUnauthorized, ErrNoSession.Error())
			return
		}

		_, ok, err := m.currentRole(r.Context(), s)
		if err != nil {
			ctxlog.FromContext(r.Context()).Error("failed to resolve session role", "error", err)
			httputil.Error(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !ok {
			_ = m.Destroy(w, r)
			httputil.Error(w, http.StatusUnauthorized, ErrNoSession.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects callers whose session role does not satisfy role with 403.
// Anonymous callers are rejected with 403 as well.
func (m *Manager) RequireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := FromContext(r.Context())
			if !s.Authenticated() {
				httputil.Error(w, http.StatusForbidden, ErrForbidden.Error())
				return
			}

			current, ok, err := m.currentRole(r.Context(), s)
			if err != nil {
				ctxlog.FromContext(r.Context()).Error("failed to resolve session role", "error", err)
				httputil.Error(w, http.StatusInternalServerError, "internal error")
				return
			}
			if !ok {
				_ = m.Destroy(w, r)
				httputil.Error(w, http.StatusForbidden, ErrForbidden.Error())
				return
			}
			if !current.HasPermission(role) {
				httputil.Error(w, http.StatusForbidden, ErrForbidden.Error())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// HasRole reports whether the request session satisfies role, revalidating it
// when configured. Used by page handlers that redirect instead of failing.
func (m *Manager) HasRole(r *http.Request, role domain.Role) bool {
	s := FromContext(r.Context())
	if !s.Authenticated() {
		return false
	}
	current, ok, err := m.currentRole(r.Context(), s)
	if err != nil || !ok {
		return false
	}
	return current.HasPermission(role)
}
