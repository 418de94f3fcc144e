// Package storage keeps uploaded site images in an object store and issues
// the public URLs the pages link to.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/config"
)

var (
	// ErrNotFound is returned when deleting or reading an object that does not exist.
	ErrNotFound = errors.New("storage: object not found")
	// ErrInvalidObject is returned for empty or path-like object names.
	ErrInvalidObject = errors.New("storage: invalid object name")
)

// ObjectStore is the file half of the data gateway.
type ObjectStore interface {
	// Upload writes data under name, replacing any existing object.
	Upload(ctx context.Context, name, contentType string, data []byte) error
	Delete(ctx context.Context, name string) error
	// PublicURL returns the address browsers use to fetch name.
	PublicURL(name string) string
	Ping(ctx context.Context) error
}

// Open builds the object store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (ObjectStore, error) {
	switch cfg.Driver {
	case config.StorageGCS:
		return NewGCSStore(ctx, cfg.Bucket, WithPublicBaseURL(cfg.PublicBaseURL))
	case config.StorageS3:
		return NewS3Store(ctx, cfg.Bucket, cfg.S3Region, cfg.S3Endpoint, WithPublicBaseURL(cfg.PublicBaseURL))
	case config.StorageMemory, "":
		return NewMemoryStore(cfg.MediaPrefix, WithPublicBaseURL(cfg.PublicBaseURL)), nil
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q", cfg.Driver)
	}
}

type options struct {
	publicBaseURL string
	cacheControl  string
}

// Option customises a store.
type Option func(*options)

// WithPublicBaseURL serves objects from a CDN or custom domain instead of
// the driver's default address.
func WithPublicBaseURL(base string) Option {
	return func(o *options) {
		o.publicBaseURL = strings.TrimRight(strings.TrimSpace(base), "/")
	}
}

// WithCacheControl overrides the Cache-Control metadata set on upload.
func WithCacheControl(value string) Option {
	return func(o *options) {
		if value = strings.TrimSpace(value); value != "" {
			o.cacheControl = value
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{cacheControl: "public, max-age=31536000"}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// ValidateObjectName rejects names that would escape the bucket root.
func ValidateObjectName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalidObject)
	}
	if strings.ContainsAny(name, "/\\") {
		return "", fmt.Errorf("%w: %q contains path characters", ErrInvalidObject, name)
	}
	if strings.Contains(name, "..") {
		return "", fmt.Errorf("%w: %q contains a traversal sequence", ErrInvalidObject, name)
	}
	return name, nil
}

// ObjectNameFromURL recovers the object name from a public URL: the last path
// segment, without query or fragment.
func ObjectNameFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if parsed, err := url.Parse(raw); err == nil && parsed.Path != "" {
		raw = parsed.Path
	}
	name := path.Base(raw)
	if name == "." || name == "/" {
		return ""
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return name
}

func joinURL(base, name string) string {
	return base + "/" + url.PathEscape(name)
}
