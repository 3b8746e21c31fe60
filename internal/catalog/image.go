package catalog

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bissquit/bloomshop/internal/pkg/filename"
	"github.com/google/uuid"
)

// AllowedImageExtensions lists accepted upload extensions, lower case.
var AllowedImageExtensions = []string{"png", "jpg", "jpeg", "gif"}

// ImageStore stores uploaded product images and removes them again.
type ImageStore interface {
	// Save stores the content under name and returns the public URL.
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
	// Delete removes the image behind url.
	Delete(ctx context.Context, url string) error
	// Manages reports whether url points into this store. External URLs are never deleted.
	Manages(url string) bool
}

// ImageUpload is an image file received from a client.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// ValidateImageName checks the extension after the last "." against AllowedImageExtensions.
func ValidateImageName(name string) error {
	ext := filename.Ext(name)
	for _, allowed := range AllowedImageExtensions {
		if ext == allowed {
			return nil
		}
	}
	return ErrInvalidImageType
}

// StoredImageName returns a collision free, filesystem safe name for an upload:
// a time ordered UUIDv7 prefix, the sanitised stem and the lower-cased extension.
func StoredImageName(original string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate image id: %w", err)
	}

	ext := filename.Ext(original)
	stem := original
	if i := strings.LastIndex(original, "."); i >= 0 {
		stem = original[:i]
	}
	stem = filename.Sanitize(stem)
	if stem == "" {
		stem = "image"
	}

	return id.String() + "_" + stem + "." + ext, nil
}
