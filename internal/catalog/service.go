// Package catalog provides the product catalog: paginated listing and search,
// seeding of the default catalog and admin maintenance with image lifecycle.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bissquit/bloomshop/internal/domain"
	"github.com/bissquit/bloomshop/internal/pkg/ctxlog"
	"github.com/bissquit/bloomshop/internal/pkg/metrics"
)

// Pagination defaults.
const (
	DefaultLimit = 3
	MaxLimit     = 100
)

// ServiceConfig contains catalog settings.
type ServiceConfig struct {
	DefaultLimit int
	MaxLimit     int
	Seed         []domain.Product
}

// Service implements catalog business logic.
type Service struct {
	repo   Repository
	images ImageStore
	config ServiceConfig
	now    func() time.Time
}

// NewService creates a new catalog service. A nil config.Seed uses domain.SeedProducts.
func NewService(repo Repository, images ImageStore, config ServiceConfig) *Service {
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = DefaultLimit
	}
	if config.MaxLimit <= 0 {
		config.MaxLimit = MaxLimit
	}
	if config.Seed == nil {
		config.Seed = domain.SeedProducts()
	}
	return &Service{
		repo:   repo,
		images: images,
		config: config,
		now:    time.Now,
	}
}

// ListInput holds raw paging parameters. Zero values select the defaults.
type ListInput struct {
	Page   int
	Limit  int
	Search string
}

// ProductPage is one page of the catalog.
type ProductPage struct {
	Products []domain.Product
	Total    int
	Page     int
	Limit    int
	Pages    int
	HasNext  bool
	HasPrev  bool
}

// List returns a page of products, seeding the default catalog first when empty.
func (s *Service) List(ctx context.Context, input ListInput) (*ProductPage, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	if limit < 1 {
		limit = s.config.DefaultLimit
	}
	if limit > s.config.MaxLimit {
		limit = s.config.MaxLimit
	}
	// keep offset+limit within int
	if maxPage := math.MaxInt/limit - 1; page > maxPage {
		page = maxPage
	}

	seed := append([]domain.Product(nil), s.config.Seed...)
	seeded, err := s.repo.SeedIfEmpty(ctx, seed)
	if err != nil {
		return nil, fmt.Errorf("seed catalog: %w", err)
	}
	if seeded {
		ctxlog.FromContext(ctx).Info("catalog seeded", "products", len(s.config.Seed))
	}

	offset := (page - 1) * limit
	products, total, err := s.repo.ListProducts(ctx, ListFilter{
		Search: strings.TrimSpace(input.Search),
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	return &ProductPage{
		Products: products,
		Total:    total,
		Page:     page,
		Limit:    limit,
		Pages:    (total + limit - 1) / limit,
		HasNext:  offset+limit < total,
		HasPrev:  page > 1,
	}, nil
}

// GetProduct returns a product by ID.
func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetProductByID(ctx, id)
}

// CreateInput contains data for product creation. Price is the raw form value.
type CreateInput struct {
	Name        string
	Description string
	Price       string
	Image       *ImageUpload
}

// Create stores the image and inserts the product.
func (s *Service) Create(ctx context.Context, actor domain.Actor, input CreateInput) (*domain.Product, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	name, err := productName(input.Name)
	if err != nil {
		return nil, err
	}
	price, err := parsePrice(input.Price)
	if err != nil {
		return nil, err
	}
	if input.Image == nil {
		return nil, ErrImageRequired
	}
	if err := ValidateImageName(input.Image.Filename); err != nil {
		return nil, err
	}

	url, err := s.storeImage(ctx, input.Image)
	if err != nil {
		return nil, err
	}

	now := s.now()
	product := &domain.Product{
		Name:        name,
		Description: input.Description,
		Price:       price,
		ImageURL:    url,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		s.discardImage(ctx, url)
		return nil, fmt.Errorf("create product: %w", err)
	}

	ctxlog.FromContext(ctx).Info("product created", "product_id", product.ID, "by", actor.UserID)
	return product, nil
}

// UpdateInput contains data for product update. Name and price are always
// written; description and image only when supplied.
type UpdateInput struct {
	Name        string
	Price       string
	Description OptionalString
	Image       *ImageUpload
}

// Update modifies the product. A replaced managed image is removed after the
// update is stored; cleanup failures are logged and never fail the update.
func (s *Service) Update(ctx context.Context, actor domain.Actor, id string, input UpdateInput) (*domain.Product, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	name, err := productName(input.Name)
	if err != nil {
		return nil, err
	}
	price, err := parsePrice(input.Price)
	if err != nil {
		return nil, err
	}
	if input.Image != nil {
		if err := ValidateImageName(input.Image.Filename); err != nil {
			return nil, err
		}
	}

	current, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	update := ProductUpdate{
		Name:        name,
		Price:       price,
		Description: input.Description.Ptr(),
		UpdatedAt:   s.now(),
	}

	var newURL string
	if input.Image != nil {
		newURL, err = s.storeImage(ctx, input.Image)
		if err != nil {
			return nil, err
		}
		update.ImageURL = &newURL
	}

	if err := s.repo.UpdateProduct(ctx, id, update); err != nil {
		if newURL != "" {
			s.discardImage(ctx, newURL)
		}
		if errors.Is(err, ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	updated := *current
	updated.Name = update.Name
	updated.Price = update.Price
	updated.UpdatedAt = update.UpdatedAt
	if update.Description != nil {
		updated.Description = *update.Description
	}
	if newURL != "" {
		updated.ImageURL = newURL
		if current.ImageURL != newURL && s.images.Manages(current.ImageURL) {
			s.discardImage(ctx, current.ImageURL)
		}
	}

	return &updated, nil
}

// Delete removes the product and, when managed by the image store, its image.
func (s *Service) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}

	current, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return err
		}
		return fmt.Errorf("delete product: %w", err)
	}

	if s.images.Manages(current.ImageURL) {
		s.discardImage(ctx, current.ImageURL)
	}

	ctxlog.FromContext(ctx).Info("product deleted", "product_id", id, "by", actor.UserID)
	return nil
}

func (s *Service) storeImage(ctx context.Context, img *ImageUpload) (string, error) {
	name, err := StoredImageName(img.Filename)
	if err != nil {
		return "", err
	}
	url, err := s.images.Save(ctx, name, img.Content, img.Size, img.ContentType)
	if err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return url, nil
}

func (s *Service) discardImage(ctx context.Context, url string) {
	if err := s.images.Delete(ctx, url); err != nil {
		metrics.CatalogImageCleanupFailures.Inc()
		ctxlog.FromContext(ctx).Warn("failed to delete product image", "url", url, "error", err)
	}
}

// maxNameLength matches the products.name column width, counted in characters.
const maxNameLength = 255

func productName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", ErrNameRequired
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", ErrNameTooLong
	}
	return name, nil
}

func parsePrice(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrPriceRequired
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, ErrInvalidPrice
	}
	return price, nil
}
