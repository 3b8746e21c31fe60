// Package s3 stores product images in an S3 compatible bucket (MinIO).
package s3

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bissquit/bloomshop/internal/pkg/ctxlog"
	"github.com/bissquit/bloomshop/internal/pkg/metrics"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const keyPrefix = "products/"

// Config contains bucket connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Store implements the catalog image store on top of a MinIO client.
type Store struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewStore connects to the endpoint and creates the bucket when missing.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client for %s: %w", cfg.Endpoint, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("make bucket %s: %w", cfg.Bucket, err)
		}
		ctxlog.FromContext(ctx).Info("image bucket created", "bucket", cfg.Bucket)
	}

	return &Store{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: fmt.Sprintf("%s/%s/", client.EndpointURL().String(), cfg.Bucket),
	}, nil
}

// Save uploads the image and returns <endpoint>/<bucket>/products/<name>.
func (s *Store) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	key := keyPrefix + name
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload object %s: %w", key, err)
	}

	metrics.CatalogImageUploads.WithLabelValues("s3").Inc()
	return s.baseURL + key, nil
}

// Delete removes the object behind url.
func (s *Store) Delete(ctx context.Context, url string) error {
	if !s.Manages(url) {
		return fmt.Errorf("image %q is not managed by this store", url)
	}

	key := strings.TrimPrefix(url, s.baseURL)
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}

// Manages reports whether url points into the bucket's product prefix.
func (s *Store) Manages(url string) bool {
	return strings.HasPrefix(url, s.baseURL+keyPrefix)
}

// Ping checks that the bucket is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.bucket); err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	return nil
}
