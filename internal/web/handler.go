package web

import (
	"net/http"

	"github.com/bissquit/bloomshop/internal/domain"
	"github.com/bissquit/bloomshop/internal/pkg/ctxlog"
	"github.com/bissquit/bloomshop/internal/session"
	"github.com/go-chi/chi/v5"
)

// PageData is passed to every page template.
type PageData struct {
	Page          string
	Authenticated bool
	UserID        string
	Role          domain.Role
	IsAdmin       bool
}

// Handler serves HTML pages.
type Handler struct {
	renderer *Renderer
	sessions *session.Manager
}

// NewHandler creates a new page handler.
func NewHandler(renderer *Renderer, sessions *session.Manager) *Handler {
	return &Handler{renderer: renderer, sessions: sessions}
}

// RegisterRoutes registers page routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Home)
	r.Get("/profile", h.Profile)
	r.Get("/admin", h.Admin)
}

// Home handles GET /.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, PageHome)
}

// Profile handles GET /profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, PageProfile)
}

// Admin handles GET /admin. Non-admins are sent to the home page.
func (h *Handler) Admin(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.HasRole(r, domain.RoleAdmin) {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	h.render(w, r, PageAdmin)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, page string) {
	s := session.FromContext(r.Context())
	data := PageData{Page: page}
	if s.Authenticated() {
		data.Authenticated = true
		data.UserID = s.UserID
		data.Role = s.Role
		data.IsAdmin = s.Role == domain.RoleAdmin
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.Render(w, page, data); err != nil {
		ctxlog.FromContext(r.Context()).Error("failed to render page", "page", page, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
