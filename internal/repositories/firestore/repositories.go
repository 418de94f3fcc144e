// Package firestore implements the repository interfaces on Cloud Firestore.
// Collections are named after the record kinds: site_content, services,
// gallery_images and contact_messages.
package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/oklog/ulid/v2"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/domain"
	pfirestore "github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/firestore"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/repositories"
)

const (
	siteContentCollection = "site_content"
	servicesCollection    = "services"
	galleryCollection     = "gallery_images"
	messagesCollection    = "contact_messages"
)

// Option customises the Firestore repositories.
type Option func(*options)

type options struct {
	clock func() time.Time
	newID func() string
}

// WithClock overrides the clock used for timestamps.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithIDGenerator overrides ulid document ids.
func WithIDGenerator(gen func() string) Option {
	return func(o *options) {
		if gen != nil {
			o.newID = gen
		}
	}
}

// NewRegistry builds every repository on top of provider. Dashboard users
// are left nil: Firestore deployments authenticate through Firebase.
func NewRegistry(provider *pfirestore.Provider, opts ...Option) (repositories.Registry, error) {
	if provider == nil {
		return repositories.Registry{}, errors.New("firestore registry: provider is required")
	}
	o := options{
		clock: time.Now,
		newID: func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	now := func() time.Time { return o.clock().UTC() }

	return repositories.Registry{
		SiteContent: &SiteContentRepository{
			coll: pfirestore.NewCollection(provider, siteContentCollection, func(c *domain.SiteContent, id string) { c.ID = id }),
			now:  now,
		},
		Services: &ServiceRepository{
			coll:  pfirestore.NewCollection(provider, servicesCollection, func(s *domain.Service, id string) { s.ID = id }),
			now:   now,
			newID: o.newID,
		},
		Gallery: &GalleryRepository{
			coll:  pfirestore.NewCollection(provider, galleryCollection, func(g *domain.GalleryImage, id string) { g.ID = id }),
			now:   now,
			newID: o.newID,
		},
		Messages: &ContactMessageRepository{
			coll:  pfirestore.NewCollection(provider, messagesCollection, func(m *domain.ContactMessage, id string) { m.ID = id }),
			now:   now,
			newID: o.newID,
		},
		Ping:  provider.Ping,
		Close: provider.Close,
	}, nil
}

// SiteContentRepository keys each document by its section so the one-row-per-section
// rule is enforced by document identity.
type SiteContentRepository struct {
	coll *pfirestore.Collection[domain.SiteContent]
	now  func() time.Time
}

func (r *SiteContentRepository) List(ctx context.Context) ([]domain.SiteContent, error) {
	return r.coll.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("section", firestore.Asc)
	})
}

func (r *SiteContentRepository) FindBySection(ctx context.Context, section domain.SectionKey) (domain.SiteContent, error) {
	return r.coll.Get(ctx, string(section))
}

func (r *SiteContentRepository) Insert(ctx context.Context, content domain.SiteContent) (domain.SiteContent, error) {
	content.ID = string(content.Section)
	content.UpdatedAt = r.now()
	if err := r.coll.Create(ctx, content.ID, content); err != nil {
		return domain.SiteContent{}, err
	}
	return content, nil
}

func (r *SiteContentRepository) Update(ctx context.Context, content domain.SiteContent) error {
	return r.coll.Update(ctx, content.ID, []firestore.Update{
		{Path: "title_ar", Value: content.TitleAR},
		{Path: "title_en", Value: content.TitleEN},
		{Path: "content_ar", Value: content.ContentAR},
		{Path: "content_en", Value: content.ContentEN},
		{Path: "image_url", Value: content.ImageURL},
		{Path: "updated_at", Value: r.now()},
	})
}

func (r *SiteContentRepository) Count(ctx context.Context) (int, error) {
	return r.coll.Count(ctx)
}

// ServiceRepository stores service cards.
type ServiceRepository struct {
	coll  *pfirestore.Collection[domain.Service]
	now   func() time.Time
	newID func() string
}

func (r *ServiceRepository) List(ctx context.Context, filter repositories.ListFilter) ([]domain.Service, error) {
	return r.coll.Query(ctx, func(q firestore.Query) firestore.Query {
		if filter.ActiveOnly {
			q = q.Where("is_active", "==", true)
		}
		return q.OrderBy("sort_order", firestore.Asc)
	})
}

func (r *ServiceRepository) Insert(ctx context.Context, service domain.Service) (domain.Service, error) {
	service.ID = r.newID()
	service.CreatedAt = r.now()
	service.UpdatedAt = service.CreatedAt
	if err := r.coll.Create(ctx, service.ID, service); err != nil {
		return domain.Service{}, err
	}
	return service, nil
}

func (r *ServiceRepository) Update(ctx context.Context, service domain.Service) error {
	return r.coll.Update(ctx, service.ID, []firestore.Update{
		{Path: "title_ar", Value: service.TitleAR},
		{Path: "title_en", Value: service.TitleEN},
		{Path: "description_ar", Value: service.DescriptionAR},
		{Path: "description_en", Value: service.DescriptionEN},
		{Path: "icon_name", Value: service.IconName},
		{Path: "image_url", Value: service.ImageURL},
		{Path: "sort_order", Value: service.SortOrder},
		{Path: "is_active", Value: service.IsActive},
		{Path: "updated_at", Value: r.now()},
	})
}

func (r *ServiceRepository) Delete(ctx context.Context, id string) error {
	return r.coll.Delete(ctx, id)
}

func (r *ServiceRepository) Count(ctx context.Context) (int, error) {
	return r.coll.Count(ctx)
}

// GalleryRepository stores gallery images.
type GalleryRepository struct {
	coll  *pfirestore.Collection[domain.GalleryImage]
	now   func() time.Time
	newID func() string
}

func (r *GalleryRepository) List(ctx context.Context, filter repositories.ListFilter) ([]domain.GalleryImage, error) {
	return r.coll.Query(ctx, func(q firestore.Query) firestore.Query {
		if filter.ActiveOnly {
			q = q.Where("is_active", "==", true)
		}
		return q.OrderBy("sort_order", firestore.Asc)
	})
}

func (r *GalleryRepository) Insert(ctx context.Context, image domain.GalleryImage) (domain.GalleryImage, error) {
	image.ID = r.newID()
	image.CreatedAt = r.now()
	if err := r.coll.Create(ctx, image.ID, image); err != nil {
		return domain.GalleryImage{}, err
	}
	return image, nil
}

func (r *GalleryRepository) Update(ctx context.Context, image domain.GalleryImage) error {
	return r.coll.Update(ctx, image.ID, []firestore.Update{
		{Path: "title_ar", Value: image.TitleAR},
		{Path: "image_url", Value: image.ImageURL},
		{Path: "thumbnail_url", Value: image.ThumbnailURL},
		{Path: "alt_text_ar", Value: image.AltTextAR},
		{Path: "sort_order", Value: image.SortOrder},
		{Path: "is_active", Value: image.IsActive},
	})
}

func (r *GalleryRepository) Delete(ctx context.Context, id string) error {
	return r.coll.Delete(ctx, id)
}

func (r *GalleryRepository) Count(ctx context.Context) (int, error) {
	return r.coll.Count(ctx)
}

// ContactMessageRepository stores visitor submissions.
type ContactMessageRepository struct {
	coll  *pfirestore.Collection[domain.ContactMessage]
	now   func() time.Time
	newID func() string
}

func (r *ContactMessageRepository) List(ctx context.Context) ([]domain.ContactMessage, error) {
	return r.coll.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("created_at", firestore.Desc)
	})
}

func (r *ContactMessageRepository) Insert(ctx context.Context, message domain.ContactMessage) (domain.ContactMessage, error) {
	message.ID = r.newID()
	message.IsRead = false
	message.CreatedAt = r.now()
	if err := r.coll.Create(ctx, message.ID, message); err != nil {
		return domain.ContactMessage{}, err
	}
	return message, nil
}

func (r *ContactMessageRepository) MarkRead(ctx context.Context, id string) error {
	return r.coll.Update(ctx, id, []firestore.Update{{Path: "is_read", Value: true}})
}

func (r *ContactMessageRepository) Delete(ctx context.Context, id string) error {
	return r.coll.Delete(ctx, id)
}

func (r *ContactMessageRepository) Count(ctx context.Context) (int, error) {
	return r.coll.Count(ctx)
}
