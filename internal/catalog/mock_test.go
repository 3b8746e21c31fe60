package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/bissquit/bloomshop/internal/domain"
)

// mockRepository implements Repository in memory, keeping insertion order.
type mockRepository struct {
	mu        sync.Mutex
	products  []domain.Product
	nextID    int
	seedCalls int
	updateErr error

	lastFilter ListFilter
}

func newMockRepository() *mockRepository {
	return &mockRepository{}
}

func (m *mockRepository) add(names ...string) {
	for _, name := range names {
		p := domain.Product{Name: name, Price: 1}
		_ = m.CreateProduct(context.Background(), &p)
	}
}

func (m *mockRepository) ListProducts(_ context.Context, filter ListFilter) ([]domain.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastFilter = filter
	var matched []domain.Product
	for _, p := range m.products {
		if filter.Search == "" || strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			matched = append(matched, p)
		}
	}

	start := filter.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return append([]domain.Product{}, matched[start:end]...), len(matched), nil
}

func (m *mockRepository) SeedIfEmpty(_ context.Context, products []domain.Product) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seedCalls++
	if len(m.products) > 0 {
		return false, nil
	}
	for _, p := range products {
		m.nextID++
		p.ID = fmt.Sprintf("p%d", m.nextID)
		m.products = append(m.products, p)
	}
	return true, nil
}

func (m *mockRepository) CreateProduct(_ context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	product.ID = fmt.Sprintf("p%d", m.nextID)
	m.products = append(m.products, *product)
	return nil
}

func (m *mockRepository) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.products {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, ErrProductNotFound
}

func (m *mockRepository) UpdateProduct(_ context.Context, id string, update ProductUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateErr != nil {
		return m.updateErr
	}
	for i := range m.products {
		if m.products[i].ID != id {
			continue
		}
		p := &m.products[i]
		p.Name = update.Name
		p.Price = update.Price
		p.UpdatedAt = update.UpdatedAt
		if update.Description != nil {
			p.Description = *update.Description
		}
		if update.ImageURL != nil {
			p.ImageURL = *update.ImageURL
		}
		return nil
	}
	return ErrProductNotFound
}

func (m *mockRepository) DeleteProduct(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, p := range m.products {
		if p.ID == id {
			m.products = append(m.products[:i], m.products[i+1:]...)
			return nil
		}
	}
	return ErrProductNotFound
}

const managedPrefix = "/static/uploads/"

// mockImageStore implements ImageStore, recording calls.
type mockImageStore struct {
	mu        sync.Mutex
	files     map[string][]byte
	deleted   []string
	deleteErr error
}

func newMockImageStore() *mockImageStore {
	return &mockImageStore{files: make(map[string][]byte)}
}

func (m *mockImageStore) Save(_ context.Context, name string, r io.Reader, _ int64, _ string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	url := managedPrefix + name
	m.files[url] = data
	return url, nil
}

func (m *mockImageStore) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, url)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.files[url]; !ok {
		return errors.New("no such file")
	}
	delete(m.files, url)
	return nil
}

func (m *mockImageStore) Manages(url string) bool {
	return strings.HasPrefix(url, managedPrefix)
}

func (m *mockImageStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}
