// Package memory keeps every record kind in process memory. It backs local
// development and the handler tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/domain"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/repositories"
)

// Option customises the in-memory store.
type Option func(*Store)

// WithClock overrides the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides ulid-based identifiers.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// Store holds all four record kinds plus dashboard users.
type Store struct {
	mu       sync.RWMutex
	now      func() time.Time
	newID    func() string
	sections map[string]domain.SiteContent
	services map[string]domain.Service
	gallery  map[string]domain.GalleryImage
	messages map[string]domain.ContactMessage
	users    map[string]domain.User
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		now:      time.Now,
		newID:    func() string { return ulid.Make().String() },
		sections: make(map[string]domain.SiteContent),
		services: make(map[string]domain.Service),
		gallery:  make(map[string]domain.GalleryImage),
		messages: make(map[string]domain.ContactMessage),
		users:    make(map[string]domain.User),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry exposes the store through the repository interfaces.
func (s *Store) Registry() repositories.Registry {
	return repositories.Registry{
		SiteContent: sectionRepo{s},
		Services:    serviceRepo{s},
		Gallery:     galleryRepo{s},
		Messages:    messageRepo{s},
		Users:       userRepo{s},
		Ping:        func(context.Context) error { return nil },
		Close:       func(context.Context) error { return nil },
	}
}

func (s *Store) timestamp() time.Time { return s.now().UTC() }

type sectionRepo struct{ s *Store }

func (r sectionRepo) List(_ context.Context) ([]domain.SiteContent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.SiteContent, 0, len(r.s.sections))
	for _, item := range r.s.sections {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Section < out[j].Section })
	return out, nil
}

func (r sectionRepo) FindBySection(_ context.Context, section domain.SectionKey) (domain.SiteContent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, item := range r.s.sections {
		if item.Section == section {
			return item, nil
		}
	}
	return domain.SiteContent{}, repositories.NotFound("site_content.find")
}

func (r sectionRepo) Insert(_ context.Context, content domain.SiteContent) (domain.SiteContent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, item := range r.s.sections {
		if item.Section == content.Section {
			return domain.SiteContent{}, repositories.Conflict("site_content.insert", fmt.Errorf("section %s exists", content.Section))
		}
	}
	content.ID = r.s.newID()
	content.UpdatedAt = r.s.timestamp()
	r.s.sections[content.ID] = content
	return content, nil
}

func (r sectionRepo) Update(_ context.Context, content domain.SiteContent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.sections[content.ID]
	if !ok {
		return repositories.NotFound("site_content.update")
	}
	content.Section = current.Section
	content.UpdatedAt = r.s.timestamp()
	r.s.sections[content.ID] = content
	return nil
}

func (r sectionRepo) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.sections), nil
}

type serviceRepo struct{ s *Store }

func (r serviceRepo) List(_ context.Context, filter repositories.ListFilter) ([]domain.Service, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.Service, 0, len(r.s.services))
	for _, item := range r.s.services {
		if filter.ActiveOnly && !item.IsActive {
			continue
		}
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r serviceRepo) Insert(_ context.Context, service domain.Service) (domain.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	service.ID = r.s.newID()
	service.CreatedAt = r.s.timestamp()
	service.UpdatedAt = service.CreatedAt
	r.s.services[service.ID] = service
	return service, nil
}

func (r serviceRepo) Update(_ context.Context, service domain.Service) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.services[service.ID]
	if !ok {
		return repositories.NotFound("services.update")
	}
	service.CreatedAt = current.CreatedAt
	service.UpdatedAt = r.s.timestamp()
	r.s.services[service.ID] = service
	return nil
}

func (r serviceRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.services[id]; !ok {
		return repositories.NotFound("services.delete")
	}
	delete(r.s.services, id)
	return nil
}

func (r serviceRepo) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.services), nil
}

type galleryRepo struct{ s *Store }

func (r galleryRepo) List(_ context.Context, filter repositories.ListFilter) ([]domain.GalleryImage, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.GalleryImage, 0, len(r.s.gallery))
	for _, item := range r.s.gallery {
		if filter.ActiveOnly && !item.IsActive {
			continue
		}
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r galleryRepo) Insert(_ context.Context, image domain.GalleryImage) (domain.GalleryImage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	image.ID = r.s.newID()
	image.CreatedAt = r.s.timestamp()
	r.s.gallery[image.ID] = image
	return image, nil
}

func (r galleryRepo) Update(_ context.Context, image domain.GalleryImage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.gallery[image.ID]
	if !ok {
		return repositories.NotFound("gallery_images.update")
	}
	image.CreatedAt = current.CreatedAt
	r.s.gallery[image.ID] = image
	return nil
}

func (r galleryRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.gallery[id]; !ok {
		return repositories.NotFound("gallery_images.delete")
	}
	delete(r.s.gallery, id)
	return nil
}

func (r galleryRepo) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.gallery), nil
}

type messageRepo struct{ s *Store }

func (r messageRepo) List(_ context.Context) ([]domain.ContactMessage, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.ContactMessage, 0, len(r.s.messages))
	for _, item := range r.s.messages {
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r messageRepo) Insert(_ context.Context, message domain.ContactMessage) (domain.ContactMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	message.ID = r.s.newID()
	message.IsRead = false
	message.CreatedAt = r.s.timestamp()
	r.s.messages[message.ID] = message
	return message, nil
}

func (r messageRepo) MarkRead(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	message, ok := r.s.messages[id]
	if !ok {
		return repositories.NotFound("contact_messages.mark_read")
	}
	message.IsRead = true
	r.s.messages[id] = message
	return nil
}

func (r messageRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.messages[id]; !ok {
		return repositories.NotFound("contact_messages.delete")
	}
	delete(r.s.messages, id)
	return nil
}

func (r messageRepo) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.messages), nil
}

type userRepo struct{ s *Store }

func (r userRepo) FindByEmail(_ context.Context, email string) (domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	user, ok := r.s.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return domain.User{}, repositories.NotFound("users.find")
	}
	return user, nil
}

func (r userRepo) Insert(_ context.Context, user domain.User) (domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := strings.ToLower(strings.TrimSpace(user.Email))
	if _, exists := r.s.users[key]; exists {
		return domain.User{}, repositories.Conflict("users.insert", fmt.Errorf("email %s already registered", key))
	}
	user.ID = r.s.newID()
	user.Email = key
	user.CreatedAt = r.s.timestamp()
	r.s.users[key] = user
	return user, nil
}
