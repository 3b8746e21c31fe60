package catalog

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/bissquit/bloomshop/internal/pkg/httputil"
	"github.com/bissquit/bloomshop/internal/session"
	"github.com/go-chi/chi/v5"
)

// DefaultMaxUploadBytes caps product form bodies when no limit is configured.
const DefaultMaxUploadBytes = 10 << 20

// Handler handles HTTP requests for the catalog module.
type Handler struct {
	service  *Service
	maxBytes int64
}

// NewHandler creates a new catalog handler.
func NewHandler(service *Service, maxBytes int64) *Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &Handler{
		service:  service,
		maxBytes: maxBytes,
	}
}

// RegisterRoutes registers product routes. Listing and reading are public,
// mutations are wrapped with requireAdmin.
func (h *Handler) RegisterRoutes(r chi.Router, requireAdmin func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/{id}", h.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Post("/", h.CreateProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
		})
	})
}

// ListProducts handles GET /api/products.
// Non-numeric page or limit values fall back to the defaults.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	result, err := h.service.List(r.Context(), ListInput{
		Page:   page,
		Limit:  limit,
		Search: q.Get("search"),
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.OK(w, http.StatusOK, "", httputil.Payload{
		"products": result.Products,
		"total":    result.Total,
		"page":     result.Page,
		"limit":    result.Limit,
		"pages":    result.Pages,
		"has_next": result.HasNext,
		"has_prev": result.HasPrev,
	})
}

// GetProduct handles GET /api/products/{id}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.OK(w, http.StatusOK, "", httputil.Payload{"product": product})
}

// CreateProduct handles POST /api/products (multipart form).
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	form, err := h.parseForm(w, r)
	if err != nil {
		h.handleFormError(w, r, err)
		return
	}
	defer form.close()

	product, err := h.service.Create(r.Context(), session.Actor(r.Context()), CreateInput{
		Name:        form.value("name"),
		Description: form.value("description"),
		Price:       form.value("price"),
		Image:       form.image,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.OK(w, http.StatusOK, "product created", httputil.Payload{"product": product})
}

// UpdateProduct handles PUT /api/products/{id} (multipart or urlencoded form).
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	form, err := h.parseForm(w, r)
	if err != nil {
		h.handleFormError(w, r, err)
		return
	}
	defer form.close()

	input := UpdateInput{
		Name:  form.value("name"),
		Price: form.value("price"),
		Image: form.image,
	}
	if v, ok := form.lookup("description"); ok {
		input.Description = Some(v)
	}

	product, err := h.service.Update(r.Context(), session.Actor(r.Context()), chi.URLParam(r, "id"), input)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.OK(w, http.StatusOK, "product updated", httputil.Payload{"product": product})
}

// DeleteProduct handles DELETE /api/products/{id}.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), session.Actor(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.OK(w, http.StatusOK, "product deleted", nil)
}

type productForm struct {
	values map[string][]string
	image  *ImageUpload
	file   multipart.File
}

func (f *productForm) lookup(key string) (string, bool) {
	v, ok := f.values[key]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

func (f *productForm) value(key string) string {
	v, _ := f.lookup(key)
	return v
}

func (f *productForm) close() {
	if f.file != nil {
		_ = f.file.Close()
	}
}

var errMalformedForm = errors.New("malformed form body")

// parseForm reads a multipart or urlencoded body capped at maxBytes.
// The "image" file part is optional.
func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) (*productForm, error) {
	if r.ContentLength > h.maxBytes {
		return nil, &http.MaxBytesError{Limit: h.maxBytes}
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	err := r.ParseMultipartForm(h.maxBytes)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, err
		}
		return nil, errMalformedForm
	}

	form := &productForm{values: r.PostForm}
	if r.MultipartForm == nil {
		return form, nil
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return form, nil
		}
		return nil, errMalformedForm
	}
	if header.Filename == "" {
		_ = file.Close()
		return form, nil
	}

	form.file = file
	form.image = &ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	}
	return form, nil
}

func (h *Handler) handleFormError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errMalformedForm) {
		httputil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	httputil.HandleError(r.Context(), w, err, nil)
}

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrProductNotFound, Status: http.StatusNotFound},
	{Error: ErrNameRequired, Status: http.StatusBadRequest},
	{Error: ErrNameTooLong, Status: http.StatusBadRequest},
	{Error: ErrPriceRequired, Status: http.StatusBadRequest},
	{Error: ErrInvalidPrice, Status: http.StatusBadRequest},
	{Error: ErrImageRequired, Status: http.StatusBadRequest},
	{Error: ErrInvalidImageType, Status: http.StatusBadRequest},
	{Error: ErrForbidden, Status: http.StatusForbidden},
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	httputil.HandleError(r.Context(), w, err, errorMappings)
}
