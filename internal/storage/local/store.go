// Package local stores product images in a directory served as static content.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bissquit/bloomshop/internal/pkg/metrics"
)

// Store writes images to Dir and exposes them under URLPrefix.
type Store struct {
	dir       string
	urlPrefix string
}

// NewStore creates dir if absent. urlPrefix is the public path dir is served
// under, for example "/static/uploads".
func NewStore(dir, urlPrefix string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &Store{
		dir:       dir,
		urlPrefix: strings.TrimSuffix(urlPrefix, "/"),
	}, nil
}

// Dir returns the upload directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes r to a new file called name. Existing files are never overwritten.
func (s *Store) Save(_ context.Context, name string, r io.Reader, _ int64, _ string) (string, error) {
	if !validName(name) {
		return "", fmt.Errorf("invalid image name %q", name)
	}

	full := filepath.Join(s.dir, name)
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return "", fmt.Errorf("write image file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(full)
		return "", fmt.Errorf("close image file: %w", err)
	}

	metrics.CatalogImageUploads.WithLabelValues("local").Inc()
	return s.urlPrefix + "/" + name, nil
}

// Delete removes the file behind url. Missing files are not an error.
func (s *Store) Delete(_ context.Context, url string) error {
	if !s.Manages(url) {
		return fmt.Errorf("image %q is not managed by this store", url)
	}

	name := strings.TrimPrefix(url, s.urlPrefix+"/")
	if !validName(name) {
		return fmt.Errorf("invalid image url %q", url)
	}

	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove image file: %w", err)
	}
	return nil
}

// Manages reports whether url points into the upload directory.
func (s *Store) Manages(url string) bool {
	return strings.HasPrefix(url, s.urlPrefix+"/")
}

// validName accepts a single path element that does not climb out of the directory.
func validName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		path.Base(name) == name && !strings.ContainsAny(name, `/\`)
}
