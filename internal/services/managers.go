package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/domain"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/editor"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/repositories"
)

// Dashboard confirmations.
const (
	ConfirmDeleteService = "هل أنت متأكد من حذف هذه الخدمة؟"
	ConfirmDeleteImage   = "هل أنت متأكد من حذف هذه الصورة؟"
	ConfirmDeleteMessage = "هل أنت متأكد من حذف هذه الرسالة؟"
)

// Notices of the image flows that bypass the workbench commit.
const (
	SectionImageTitle   = "تم رفع الصورة بنجاح"
	SectionImageBody    = "تم تحديث صورة القسم"
	GalleryUploadTitle  = "تم رفع الصور بنجاح"
	GalleryUploadFailed = "خطأ في رفع الصور"
)

var (
	contentMessages = editor.Messages{
		LoadError: "خطأ في جلب المحتوى",
		SaveTitle: "تم الحفظ بنجاح",
		SaveBody:  "تم تحديث المحتوى بنجاح",
		SaveError: "خطأ في الحفظ",
	}
	serviceMessages = editor.Messages{
		LoadError:   "خطأ في جلب الخدمات",
		SaveTitle:   "تم الحفظ بنجاح",
		SaveBody:    "تم تحديث الخدمة بنجاح",
		SaveError:   "خطأ في الحفظ",
		DeleteTitle: "تم الحذف بنجاح",
		DeleteBody:  "تم حذف الخدمة بنجاح",
		DeleteError: "خطأ في الحذف",
	}
	galleryMessages = editor.Messages{
		LoadError:   "خطأ في جلب الصور",
		SaveTitle:   "تم التحديث",
		SaveBody:    "تم تحديث عنوان الصورة",
		SaveError:   "خطأ في التحديث",
		DeleteTitle: "تم الحذف بنجاح",
		DeleteBody:  "تم حذف الصورة بنجاح",
		DeleteError: "خطأ في الحذف",
	}
	messageMessages = editor.Messages{
		LoadError:   "خطأ في جلب الرسائل",
		SaveTitle:   "تم تحديد الرسالة كمقروءة",
		SaveError:   "خطأ في تحديث الرسالة",
		DeleteTitle: "تم حذف الرسالة بنجاح",
		DeleteError: "خطأ في حذف الرسالة",
	}
)

// SectionLabel is the dashboard heading of a content section.
func SectionLabel(key domain.SectionKey) string {
	switch key {
	case domain.SectionHero:
		return "القسم الرئيسي (Hero)"
	case domain.SectionAbout:
		return "قسم من نحن"
	case domain.SectionContact:
		return "قسم التواصل"
	case domain.SectionFooter:
		return "تذييل الموقع"
	default:
		return string(key)
	}
}

// ManagerSet holds one workbench per record kind for a dashboard session.
// Notices from every manager collect in a shared inbox.
type ManagerSet struct {
	Content  *editor.Workbench[domain.SiteContent]
	Services *editor.Workbench[domain.Service]
	Gallery  *editor.Workbench[domain.GalleryImage]
	Messages *editor.Workbench[domain.ContactMessage]

	inbox    *editor.Inbox
	registry repositories.Registry
	uploader *Uploader
	logger   Logger
	now      func() time.Time
}

// ManagerDeps groups what a ManagerSet needs.
type ManagerDeps struct {
	Registry repositories.Registry
	Uploader *Uploader
	Clock    func() time.Time
	Logger   Logger
}

// NewManagerSet builds the four workbenches over the registry.
func NewManagerSet(deps ManagerDeps) (*ManagerSet, error) {
	reg := deps.Registry
	if reg.SiteContent == nil || reg.Services == nil || reg.Gallery == nil || reg.Messages == nil {
		return nil, ErrRepositoryMissing
	}
	if deps.Uploader == nil {
		return nil, errors.New("manager set: uploader is required")
	}
	m := &ManagerSet{
		inbox:    &editor.Inbox{},
		registry: reg,
		uploader: deps.Uploader,
		logger:   orNop(deps.Logger),
		now:      utcClock(deps.Clock),
	}
	log := editor.Logger(m.logger)

	var err error
	if m.Content, err = editor.New[domain.SiteContent](contentStore{repo: reg.SiteContent, now: m.now}, editor.Schema[domain.SiteContent]{
		ID:       func(c domain.SiteContent) string { return c.ID },
		SetID:    func(c *domain.SiteContent, id string) { c.ID = id },
		Set:      setContentField,
		Messages: contentMessages,
	}, m.inbox, editor.WithLogger[domain.SiteContent](log)); err != nil {
		return nil, err
	}
	if m.Services, err = editor.New[domain.Service](serviceStore{repo: reg.Services}, editor.Schema[domain.Service]{
		ID:       func(s domain.Service) string { return s.ID },
		SetID:    func(s *domain.Service, id string) { s.ID = id },
		Set:      setServiceField,
		Validate: domain.Service.Validate,
		Messages: serviceMessages,
	}, m.inbox, editor.WithLogger[domain.Service](log)); err != nil {
		return nil, err
	}
	if m.Gallery, err = editor.New[domain.GalleryImage](galleryStore{repo: reg.Gallery}, editor.Schema[domain.GalleryImage]{
		ID:    func(g domain.GalleryImage) string { return g.ID },
		SetID: func(g *domain.GalleryImage, id string) { g.ID = id },
		Set:   setGalleryField,
		Cleanup: func(ctx context.Context, g domain.GalleryImage) error {
			return m.uploader.Remove(ctx, g.ImageURL)
		},
		Messages: galleryMessages,
	}, m.inbox, editor.WithLogger[domain.GalleryImage](log)); err != nil {
		return nil, err
	}
	if m.Messages, err = editor.New[domain.ContactMessage](messageStore{repo: reg.Messages}, editor.Schema[domain.ContactMessage]{
		ID:       func(c domain.ContactMessage) string { return c.ID },
		SetID:    func(c *domain.ContactMessage, id string) { c.ID = id },
		Set:      setMessageField,
		Messages: messageMessages,
	}, m.inbox, editor.WithLogger[domain.ContactMessage](log)); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadAll loads every manager. Each failure is also queued as a notice.
func (m *ManagerSet) LoadAll(ctx context.Context) error {
	return errors.Join(
		m.Content.Load(ctx),
		m.Services.Load(ctx),
		m.Gallery.Load(ctx),
		m.Messages.Load(ctx),
	)
}

// Reload refetches the manager behind a dashboard tab. The stats tab has no
// manager of its own; messages are refetched for the unread badge.
func (m *ManagerSet) Reload(ctx context.Context, tab string) error {
	switch tab {
	case "content":
		return m.Content.Load(ctx)
	case "services":
		return m.Services.Load(ctx)
	case "gallery":
		return m.Gallery.Load(ctx)
	case "messages", "stats":
		return m.Messages.Load(ctx)
	}
	return fmt.Errorf("manager set: unknown tab %q", tab)
}

// Notices drains the pending notifications.
func (m *ManagerSet) Notices() []editor.Notice { return m.inbox.Drain() }

// Notify queues a notice, e.g. for sign-in messages shown on the dashboard.
func (m *ManagerSet) Notify(ctx context.Context, n editor.Notice) { m.inbox.Notify(ctx, n) }

// NewServiceDraft opens the draft service card, active and placed last.
func (m *ManagerSet) NewServiceDraft() domain.Service {
	return m.Services.CreateDraft(domain.Service{
		SortOrder: m.Services.Len() + 1,
		IsActive:  true,
	})
}

// UnreadMessages counts the messages not yet marked read.
func (m *ManagerSet) UnreadMessages() int {
	n := 0
	for _, msg := range m.Messages.Values() {
		if !msg.IsRead {
			n++
		}
	}
	return n
}

// MarkRead marks one message as read.
func (m *ManagerSet) MarkRead(ctx context.Context, id string) error {
	if err := m.Messages.EditField(id, "is_read", "true"); err != nil {
		return err
	}
	return m.Messages.Commit(ctx, id)
}

// RenameImage changes a gallery image title and saves it.
func (m *ManagerSet) RenameImage(ctx context.Context, id, title string) error {
	if err := m.Gallery.EditField(id, "title_ar", title); err != nil {
		return err
	}
	return m.Gallery.Commit(ctx, id)
}

// UploadSectionImage stores a section image and saves its URL on the row.
func (m *ManagerSet) UploadSectionImage(ctx context.Context, id string, file ImageFile) error {
	row, ok := m.Content.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", editor.ErrRowNotFound, id)
	}
	img, err := m.uploader.Upload(ctx, id, file)
	if err != nil {
		m.notifyUploadError(ctx, err)
		return err
	}
	updated := row.Value
	updated.ImageURL = img.URL
	updated.UpdatedAt = m.now()
	if err := m.registry.SiteContent.Update(ctx, updated); err != nil {
		m.inbox.Notify(ctx, editor.Failure(UploadFailedTitle, err))
		return err
	}
	if err := m.Content.EditField(id, "image_url", img.URL); err != nil {
		return err
	}
	m.inbox.Notify(ctx, editor.Success(SectionImageTitle, SectionImageBody))
	return nil
}

// UploadServiceImage stores a service image and sets its URL on the local
// card; the card is saved with the rest of its fields.
func (m *ManagerSet) UploadServiceImage(ctx context.Context, id string, file ImageFile) (string, error) {
	if _, ok := m.Services.Get(id); !ok {
		return "", fmt.Errorf("%w: %s", editor.ErrRowNotFound, id)
	}
	img, err := m.uploader.Upload(ctx, "service", file)
	if err != nil {
		m.notifyUploadError(ctx, err)
		return "", err
	}
	if err := m.Services.EditField(id, "image_url", img.URL); err != nil {
		return "", err
	}
	return img.URL, nil
}

// UploadGallery uploads files one by one and inserts a gallery row for each
// stored object. It returns the number of rows added.
func (m *ManagerSet) UploadGallery(ctx context.Context, files []ImageFile) int {
	existing := m.Gallery.Len()
	added := 0
	for _, res := range m.uploader.UploadAll(ctx, "gallery", files) {
		if res.Err != nil {
			m.notifyUploadError(ctx, res.Err)
			continue
		}
		_, err := m.registry.Gallery.Insert(ctx, domain.GalleryImage{
			TitleAR:      baseName(res.Image.Source),
			ImageURL:     res.Image.URL,
			ThumbnailURL: res.Image.URL,
			SortOrder:    existing + added + 1,
			IsActive:     true,
		})
		if err != nil {
			m.logger(ctx, "gallery.insert.failed", map[string]any{"object": res.Image.Object, "error": err.Error()})
			if rmErr := m.uploader.Remove(ctx, res.Image.URL); rmErr != nil {
				m.logger(ctx, "gallery.cleanup.failed", map[string]any{"object": res.Image.Object, "error": rmErr.Error()})
			}
			m.inbox.Notify(ctx, editor.Failure(GalleryUploadFailed, err))
			continue
		}
		added++
	}
	if added > 0 {
		m.inbox.Notify(ctx, editor.Success(GalleryUploadTitle, fmt.Sprintf("تم رفع %d صورة بنجاح", added)))
		_ = m.Gallery.Load(ctx)
	}
	return added
}

func (m *ManagerSet) notifyUploadError(ctx context.Context, err error) {
	var upErr *UploadError
	if errors.As(err, &upErr) {
		m.inbox.Notify(ctx, editor.Notice{Level: editor.LevelError, Title: upErr.Title, Body: upErr.Body})
		return
	}
	m.inbox.Notify(ctx, editor.Failure(UploadFailedTitle, err))
}

func setContentField(c *domain.SiteContent, field, value string) error {
	switch field {
	case "title_ar":
		c.TitleAR = value
	case "title_en":
		c.TitleEN = value
	case "content_ar":
		c.ContentAR = value
	case "content_en":
		c.ContentEN = value
	case "image_url":
		c.ImageURL = strings.TrimSpace(value)
	default:
		return fmt.Errorf("%w: %s", editor.ErrUnknownField, field)
	}
	return nil
}

func setServiceField(s *domain.Service, field, value string) error {
	switch field {
	case "title_ar":
		s.TitleAR = value
	case "title_en":
		s.TitleEN = value
	case "description_ar":
		s.DescriptionAR = value
	case "description_en":
		s.DescriptionEN = value
	case "icon_name":
		s.IconName = strings.TrimSpace(value)
	case "image_url":
		s.ImageURL = strings.TrimSpace(value)
	case "is_active":
		s.IsActive = parseFlag(value)
	case "sort_order":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("sort_order: %w", err)
		}
		s.SortOrder = n
	default:
		return fmt.Errorf("%w: %s", editor.ErrUnknownField, field)
	}
	return nil
}

func setGalleryField(g *domain.GalleryImage, field, value string) error {
	switch field {
	case "title_ar":
		g.TitleAR = value
	case "alt_text_ar":
		g.AltTextAR = value
	case "is_active":
		g.IsActive = parseFlag(value)
	case "sort_order":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("sort_order: %w", err)
		}
		g.SortOrder = n
	default:
		return fmt.Errorf("%w: %s", editor.ErrUnknownField, field)
	}
	return nil
}

func setMessageField(m *domain.ContactMessage, field, value string) error {
	if field != "is_read" {
		return fmt.Errorf("%w: %s", editor.ErrUnknownField, field)
	}
	m.IsRead = parseFlag(value)
	return nil
}

func parseFlag(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// ErrSectionsFixed is returned when deleting a content section.
var ErrSectionsFixed = errors.New("content sections cannot be deleted")

// ErrMessagesReadOnly is returned when a message is created from the dashboard.
var ErrMessagesReadOnly = errors.New("contact messages are created by visitors only")

type contentStore struct {
	repo repositories.SiteContentRepository
	now  func() time.Time
}

func (s contentStore) List(ctx context.Context) ([]domain.SiteContent, error) {
	return s.repo.List(ctx)
}

func (s contentStore) Insert(ctx context.Context, c domain.SiteContent) (domain.SiteContent, error) {
	return s.repo.Insert(ctx, c)
}

func (s contentStore) Update(ctx context.Context, c domain.SiteContent) error {
	c.UpdatedAt = s.now()
	return s.repo.Update(ctx, c)
}

func (contentStore) Delete(context.Context, string) error { return ErrSectionsFixed }

type serviceStore struct {
	repo repositories.ServiceRepository
}

func (s serviceStore) List(ctx context.Context) ([]domain.Service, error) {
	return s.repo.List(ctx, repositories.ListFilter{})
}

// Insert places the new card after every stored one and activates it.
func (s serviceStore) Insert(ctx context.Context, svc domain.Service) (domain.Service, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return domain.Service{}, err
	}
	svc.ID = ""
	svc.SortOrder = n + 1
	svc.IsActive = true
	return s.repo.Insert(ctx, svc)
}

func (s serviceStore) Update(ctx context.Context, svc domain.Service) error {
	return s.repo.Update(ctx, svc)
}

func (s serviceStore) Delete(ctx context.Context, id string) error { return s.repo.Delete(ctx, id) }

type galleryStore struct {
	repo repositories.GalleryRepository
}

func (s galleryStore) List(ctx context.Context) ([]domain.GalleryImage, error) {
	return s.repo.List(ctx, repositories.ListFilter{})
}

func (s galleryStore) Insert(ctx context.Context, img domain.GalleryImage) (domain.GalleryImage, error) {
	img.ID = ""
	return s.repo.Insert(ctx, img)
}

func (s galleryStore) Update(ctx context.Context, img domain.GalleryImage) error {
	return s.repo.Update(ctx, img)
}

func (s galleryStore) Delete(ctx context.Context, id string) error { return s.repo.Delete(ctx, id) }

type messageStore struct {
	repo repositories.ContactMessageRepository
}

func (s messageStore) List(ctx context.Context) ([]domain.ContactMessage, error) {
	return s.repo.List(ctx)
}

func (messageStore) Insert(context.Context, domain.ContactMessage) (domain.ContactMessage, error) {
	return domain.ContactMessage{}, ErrMessagesReadOnly
}

// Update can only mark a message read; other fields are never written.
func (s messageStore) Update(ctx context.Context, msg domain.ContactMessage) error {
	if !msg.IsRead {
		return nil
	}
	return s.repo.MarkRead(ctx, msg.ID)
}

func (s messageStore) Delete(ctx context.Context, id string) error { return s.repo.Delete(ctx, id) }

// ManagerRegistry keeps one ManagerSet per dashboard session.
type ManagerRegistry struct {
	deps ManagerDeps
	now  func() time.Time

	mu   sync.Mutex
	sets map[string]*registeredSet
}

type registeredSet struct {
	set      *ManagerSet
	loaded   sync.Once
	lastUsed time.Time
}

// NewManagerRegistry constructs an empty registry.
func NewManagerRegistry(deps ManagerDeps) *ManagerRegistry {
	return &ManagerRegistry{deps: deps, now: utcClock(deps.Clock), sets: make(map[string]*registeredSet)}
}

// Get returns the managers of sessionID, building them on first use.
// Concurrent first requests of a session wait for the initial load.
func (r *ManagerRegistry) Get(ctx context.Context, sessionID string) (*ManagerSet, error) {
	if sessionID == "" {
		return nil, errors.New("manager registry: session id is required")
	}
	r.mu.Lock()
	entry, ok := r.sets[sessionID]
	if !ok {
		set, err := NewManagerSet(r.deps)
		if err != nil {
			r.mu.Unlock()
			return nil, err
		}
		entry = &registeredSet{set: set}
		r.sets[sessionID] = entry
	}
	entry.lastUsed = r.now()
	r.mu.Unlock()

	// Load failures are already queued as notices; the set keeps empty lists.
	entry.loaded.Do(func() { _ = entry.set.LoadAll(ctx) })
	return entry.set, nil
}

// Drop forgets the managers of sessionID.
func (r *ManagerRegistry) Drop(sessionID string) {
	r.mu.Lock()
	delete(r.sets, sessionID)
	r.mu.Unlock()
}

// Evict drops sets unused for longer than idle and returns how many were removed.
func (r *ManagerRegistry) Evict(idle time.Duration) int {
	cutoff := r.now().Add(-idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, entry := range r.sets {
		if entry.lastUsed.Before(cutoff) {
			delete(r.sets, id)
			removed++
		}
	}
	return removed
}

// Len is the number of live sessions with managers.
func (r *ManagerRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sets)
}
