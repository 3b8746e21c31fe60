package identity

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/bissquit/bloomshop/internal/domain"
	"github.com/bissquit/bloomshop/internal/pkg/ctxlog"
	"github.com/bissquit/bloomshop/internal/pkg/httputil"
	"github.com/bissquit/bloomshop/internal/pkg/metrics"
	"github.com/bissquit/bloomshop/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Handler handles HTTP requests for the identity module.
type Handler struct {
	service   *Service
	sessions  *session.Manager
	validator *validator.Validate
}

// NewHandler creates a new identity handler.
func NewHandler(service *Service, sessions *session.Manager) *Handler {
	return &Handler{
		service:   service,
		sessions:  sessions,
		validator: validator.New(),
	}
}

// RegisterRoutes registers identity routes. limit wraps the credential
// endpoints (registration and login); nil disables limiting.
func (h *Handler) RegisterRoutes(r chi.Router, limit func(http.Handler) http.Handler) {
	credentials := r
	if limit != nil {
		credentials = r.With(limit)
	}
	credentials.Post("/registro", h.Register)
	credentials.Post("/login", h.Login)

	r.Get("/logout", h.Logout)
	r.Get("/api/session", h.SessionStatus)
	r.With(h.sessions.RequireAuth).Put("/api/profile", h.UpdateProfile)

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(h.sessions.RequireRole(domain.RoleAdmin))
		r.Post("/create-admin", h.CreateAdmin)
		r.Get("/users", h.ListAdmins)
		r.Delete("/users/{id}", h.DeleteAdmin)
	})
}

// RegisterRequest represents registration request body.
type RegisterRequest struct {
	Name     string `json:"name" validate:"max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=72"`
}

// CreateAdminRequest represents admin provisioning request body.
type CreateAdminRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=72"`
}

// LoginRequest represents login request body.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest represents profile update request body.
type UpdateProfileRequest struct {
	ID    string `json:"_id"`
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"required,email,max=255"`
}

// UserSummary is the public view of a user.
type UserSummary struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role,omitempty"`
}

func summarize(u *domain.User) UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// Register handles POST /registro. Accepts JSON or form bodies.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeForm(r, &req, func(get func(string) string) {
		req = RegisterRequest{Name: get("name"), Email: get("email"), Password: get("password")}
	}); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	user, err := h.service.Register(r.Context(), RegisterInput(req))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.OK(w, http.StatusOK, "user registered", httputil.Payload{"user": summarize(user)})
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeForm(r, &req, func(get func(string) string) {
		req = LoginRequest{Email: get("email"), Password: get("password")}
	}); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	user, err := h.service.Login(r.Context(), LoginInput(req))
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			metrics.AuthLogins.WithLabelValues("invalid_credentials").Inc()
		} else {
			metrics.AuthLogins.WithLabelValues("error").Inc()
		}
		h.handleServiceError(w, r, err)
		return
	}

	if _, err := h.sessions.Establish(w, r, user.ID, user.Role); err != nil {
		metrics.AuthLogins.WithLabelValues("error").Inc()
		h.handleServiceError(w, r, err)
		return
	}
	metrics.AuthLogins.WithLabelValues("success").Inc()

	httputil.OK(w, http.StatusOK, "", httputil.Payload{"user": summarize(user)})
}

// Logout handles GET /logout. It always succeeds.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(w, r); err != nil {
		ctxlog.FromContext(r.Context()).Warn("logout error", "error", err)
	}
	httputil.OK(w, http.StatusOK, "", nil)
}

// SessionStatus handles GET /api/session.
func (h *Handler) SessionStatus(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	if !s.Authenticated() {
		httputil.JSON(w, http.StatusOK, httputil.Payload{"ok": false})
		return
	}
	httputil.OK(w, http.StatusOK, "", httputil.Payload{
		"user_id": s.UserID,
		"role":    s.Role,
	})
}

// UpdateProfile handles PUT /api/profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	err := h.service.UpdateProfile(r.Context(), session.Actor(r.Context()), UpdateProfileInput{
		UserID: req.ID,
		Name:   req.Name,
		Email:  req.Email,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.OK(w, http.StatusOK, "profile updated", nil)
}

// CreateAdmin handles POST /api/admin/create-admin.
func (h *Handler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req CreateAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	user, err := h.service.CreateAdmin(r.Context(), session.Actor(r.Context()), RegisterInput(req))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.OK(w, http.StatusOK, "admin created", httputil.Payload{"user": summarize(user)})
}

// ListAdmins handles GET /api/admin/users.
func (h *Handler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListAdmins(r.Context(), session.Actor(r.Context()))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	admins := make([]UserSummary, 0, len(users))
	for i := range users {
		s := summarize(&users[i])
		s.Role = ""
		admins = append(admins, s)
	}

	httputil.OK(w, http.StatusOK, "", httputil.Payload{"admins": admins})
}

// DeleteAdmin handles DELETE /api/admin/users/{id}.
func (h *Handler) DeleteAdmin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteAdmin(r.Context(), session.Actor(r.Context()), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.OK(w, http.StatusOK, "admin deleted", nil)
}

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrUserNotFound, Status: http.StatusNotFound},
	{Error: ErrEmailExists, Status: http.StatusBadRequest},
	{Error: ErrInvalidCredentials, Status: http.StatusUnauthorized},
	{Error: ErrForbidden, Status: http.StatusForbidden},
	{Error: ErrSelfDelete, Status: http.StatusBadRequest},
	{Error: ErrMissingUserID, Status: http.StatusBadRequest},
	{Error: ErrPasswordTooLong, Status: http.StatusBadRequest},
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	httputil.HandleError(r.Context(), w, err, errorMappings)
}

// decodeForm decodes a JSON body into dst, or calls fromForm with a form
// accessor for urlencoded and multipart bodies.
func decodeForm(r *http.Request, dst interface{}, fromForm func(get func(string) string)) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		return json.NewDecoder(r.Body).Decode(dst)
	}

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			return err
		}
	} else if err := r.ParseForm(); err != nil {
		return err
	}
	fromForm(r.PostForm.Get)
	return nil
}
