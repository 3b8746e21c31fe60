package cart

import (
	"encoding/json"
	"net/http"

	"github.com/bissquit/bloomshop/internal/domain"
	"github.com/bissquit/bloomshop/internal/pkg/httputil"
	"github.com/bissquit/bloomshop/internal/session"
	"github.com/go-chi/chi/v5"
)

// Handler handles HTTP requests for the cart module.
type Handler struct {
	service *Service
}

// NewHandler creates a new cart handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers cart routes behind requireAuth.
func (h *Handler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.With(requireAuth).Get("/api/cart", h.GetCart)
	r.With(requireAuth).Post("/api/cart", h.SaveCart)
}

// SaveCartRequest represents cart replacement body.
type SaveCartRequest struct {
	Items []domain.CartItem `json:"items"`
}

// GetCart handles GET /api/cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Get(r.Context(), session.CurrentUserID(r.Context()))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.OK(w, http.StatusOK, "", httputil.Payload{"items": items})
}

// SaveCart handles POST /api/cart.
func (h *Handler) SaveCart(w http.ResponseWriter, r *http.Request) {
	var req SaveCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.service.Save(r.Context(), session.CurrentUserID(r.Context()), req.Items); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.OK(w, http.StatusOK, "cart saved", nil)
}

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrNoUser, Status: http.StatusUnauthorized},
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	httputil.HandleError(r.Context(), w, err, errorMappings)
}
