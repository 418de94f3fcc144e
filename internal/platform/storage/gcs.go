package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gcs "cloud.google.com/go/storage"
)

const gcsPublicHost = "https://storage.googleapis.com"

// GCSStore keeps objects in a Cloud Storage bucket.
type GCSStore struct {
	client *gcs.Client
	bucket string
	opts   options
}

// NewGCSStore creates a Cloud Storage client using application default credentials.
func NewGCSStore(ctx context.Context, bucket string, opts ...Option) (*GCSStore, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage: create gcs client: %w", err)
	}
	store, err := NewGCSStoreWithClient(client, bucket, opts...)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return store, nil
}

// NewGCSStoreWithClient wraps an existing client.
func NewGCSStoreWithClient(client *gcs.Client, bucket string, opts ...Option) (*GCSStore, error) {
	if client == nil {
		return nil, errors.New("storage: gcs client is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("storage: bucket name is required")
	}
	return &GCSStore{client: client, bucket: bucket, opts: buildOptions(opts)}, nil
}

// Upload streams data into the bucket.
func (s *GCSStore) Upload(ctx context.Context, name, contentType string, data []byte) error {
	name, err := ValidateObjectName(name)
	if err != nil {
		return err
	}
	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = s.opts.cacheControl
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("storage: write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("storage: finalize %s: %w", name, err)
	}
	return nil
}

// Delete removes name from the bucket.
func (s *GCSStore) Delete(ctx context.Context, name string) error {
	name, err := ValidateObjectName(name)
	if err != nil {
		return err
	}
	if err := s.client.Bucket(s.bucket).Object(name).Delete(ctx); err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("storage: delete %s: %w", name, err)
	}
	return nil
}

// PublicURL points at the bucket's public endpoint unless a base URL is configured.
func (s *GCSStore) PublicURL(name string) string {
	return gcsPublicURL(s.opts.publicBaseURL, s.bucket, name)
}

// Ping reads the bucket attributes.
func (s *GCSStore) Ping(ctx context.Context) error {
	if _, err := s.client.Bucket(s.bucket).Attrs(ctx); err != nil {
		return fmt.Errorf("storage: gcs bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

func gcsPublicURL(base, bucket, name string) string {
	if base == "" {
		base = gcsPublicHost + "/" + bucket
	}
	return joinURL(base, name)
}
