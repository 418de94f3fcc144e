package repositories

import (
	"context"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/domain"
)

// RepositoryError exposes backend-agnostic classification of storage failures.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// ListFilter narrows service and gallery listings.
type ListFilter struct {
	ActiveOnly bool
}

// SiteContentRepository stores the singleton section rows.
type SiteContentRepository interface {
	// List returns every section ordered by section key.
	List(ctx context.Context) ([]domain.SiteContent, error)
	FindBySection(ctx context.Context, section domain.SectionKey) (domain.SiteContent, error)
	Insert(ctx context.Context, content domain.SiteContent) (domain.SiteContent, error)
	Update(ctx context.Context, content domain.SiteContent) error
	Count(ctx context.Context) (int, error)
}

// ServiceRepository stores service cards.
type ServiceRepository interface {
	// List returns services ordered by sort_order ascending.
	List(ctx context.Context, filter ListFilter) ([]domain.Service, error)
	Insert(ctx context.Context, service domain.Service) (domain.Service, error)
	Update(ctx context.Context, service domain.Service) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// GalleryRepository stores gallery images.
type GalleryRepository interface {
	// List returns images ordered by sort_order ascending.
	List(ctx context.Context, filter ListFilter) ([]domain.GalleryImage, error)
	Insert(ctx context.Context, image domain.GalleryImage) (domain.GalleryImage, error)
	Update(ctx context.Context, image domain.GalleryImage) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// ContactMessageRepository stores visitor submissions. Messages are never
// edited; the only admin mutations are MarkRead and Delete.
type ContactMessageRepository interface {
	// List returns messages ordered by created_at descending.
	List(ctx context.Context) ([]domain.ContactMessage, error)
	Insert(ctx context.Context, message domain.ContactMessage) (domain.ContactMessage, error)
	MarkRead(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// UserRepository stores dashboard accounts for the local identity provider.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	Insert(ctx context.Context, user domain.User) (domain.User, error)
}

// Registry bundles the repositories of one backend.
type Registry struct {
	SiteContent SiteContentRepository
	Services    ServiceRepository
	Gallery     GalleryRepository
	Messages    ContactMessageRepository
	// Users is nil when accounts live with an external identity provider.
	Users UserRepository
	// Ping probes the backend for readiness checks.
	Ping  func(ctx context.Context) error
	Close func(ctx context.Context) error
}
