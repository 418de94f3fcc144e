package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/cms"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/domain"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/editor"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/storage"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/repositories"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/repositories/memory"
)

var fixedNow = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func newRegistry() repositories.Registry {
	return memory.NewStore(memory.WithClock(fixedClock)).Registry()
}

type recordingLogger struct {
	mu     sync.Mutex
	events []string
}

func (l *recordingLogger) log(_ context.Context, event string, _ map[string]any) {
	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()
}

func (l *recordingLogger) has(event string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.events {
		if e == event {
			return true
		}
	}
	return false
}

type failingSections struct {
	repositories.SiteContentRepository
	err error
}

func (f failingSections) FindBySection(context.Context, domain.SectionKey) (domain.SiteContent, error) {
	return domain.SiteContent{}, f.err
}

func (f failingSections) Count(context.Context) (int, error) { return 0, f.err }

func TestSectionFallsBackPerField(t *testing.T) {
	reg := newRegistry()
	defaults := cms.MustLoad()
	ctx := context.Background()
	if _, err := reg.SiteContent.Insert(ctx, domain.SiteContent{Section: domain.SectionHero, TitleAR: "عنوان مخزن"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	svc, err := NewSectionService(SectionServiceDeps{SiteContent: reg.SiteContent, Services: reg.Services, Gallery: reg.Gallery, Defaults: defaults})
	if err != nil {
		t.Fatalf("new section service: %v", err)
	}

	hero := svc.Hero(ctx, "ar")
	if hero.Title != "عنوان مخزن" || !hero.Stored {
		t.Fatalf("expected stored title, got %+v", hero)
	}
	if hero.Content != defaults.Hero.Content.AR {
		t.Fatalf("expected default content, got %q", hero.Content)
	}

	about := svc.About(ctx, "en")
	if about.Stored || about.Title != defaults.About.Title.EN {
		t.Fatalf("expected english default about, got %+v", about)
	}
}

func TestSectionErrorsAreLoggedAndReplaced(t *testing.T) {
	reg := newRegistry()
	logger := &recordingLogger{}
	svc, err := NewSectionService(SectionServiceDeps{
		SiteContent: failingSections{SiteContentRepository: reg.SiteContent, err: errors.New("connection refused")},
		Services:    reg.Services,
		Gallery:     reg.Gallery,
		Logger:      logger.log,
	})
	if err != nil {
		t.Fatalf("new section service: %v", err)
	}
	contact := svc.Contact(context.Background(), "ar")
	if contact.Stored || contact.Title == "" {
		t.Fatalf("expected default contact heading, got %+v", contact)
	}
	if !logger.has("sections.fetch.failed") {
		t.Fatalf("expected fetch failure logged, got %v", logger.events)
	}
}

func TestServicesFallBackToDefaultCards(t *testing.T) {
	reg := newRegistry()
	ctx := context.Background()
	svc, _ := NewSectionService(SectionServiceDeps{SiteContent: reg.SiteContent, Services: reg.Services, Gallery: reg.Gallery})

	cards, fallback := svc.Services(ctx)
	if !fallback || len(cards) != 6 {
		t.Fatalf("expected six default cards, got %d fallback=%v", len(cards), fallback)
	}

	_, _ = reg.Services.Insert(ctx, domain.Service{TitleAR: "ب", DescriptionAR: "x", SortOrder: 2, IsActive: true})
	_, _ = reg.Services.Insert(ctx, domain.Service{TitleAR: "أ", DescriptionAR: "x", SortOrder: 1, IsActive: true})
	_, _ = reg.Services.Insert(ctx, domain.Service{TitleAR: "مخفي", DescriptionAR: "x", SortOrder: 0, IsActive: false})
	cards, fallback = svc.Services(ctx)
	if fallback || len(cards) != 2 || cards[0].TitleAR != "أ" {
		t.Fatalf("expected two active stored cards in order, got %+v", cards)
	}
	if got := svc.Gallery(ctx); len(got) != 0 {
		t.Fatalf("expected empty gallery, got %d", len(got))
	}
}

type fakePublisher struct {
	calls int
	err   error
}

func (p *fakePublisher) PublishContactSubmitted(context.Context, domain.ContactMessage) (string, error) {
	p.calls++
	return "msg-1", p.err
}

type fakeMailer struct {
	sent []domain.ContactMessage
	err  error
}

func (m *fakeMailer) NotifyContact(_ context.Context, msg domain.ContactMessage) error {
	m.sent = append(m.sent, msg)
	return m.err
}

func TestContactSubmitStoresUnreadMessage(t *testing.T) {
	reg := newRegistry()
	publisher := &fakePublisher{err: errors.New("topic missing")}
	mailer := &fakeMailer{}
	logger := &recordingLogger{}
	svc, err := NewContactService(ContactServiceDeps{Messages: reg.Messages, Publisher: publisher, Mailer: mailer, Logger: logger.log})
	if err != nil {
		t.Fatalf("new contact service: %v", err)
	}
	ctx := context.Background()

	msg, err := svc.Submit(ctx, ContactForm{Name: "Ali", Message: "Hello"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if msg.IsRead || msg.Phone != "" || msg.Email != "" {
		t.Fatalf("unexpected stored message %+v", msg)
	}
	all, _ := reg.Messages.List(ctx)
	if len(all) != 1 || all[0].Name != "Ali" || all[0].Message != "Hello" || all[0].IsRead {
		t.Fatalf("expected one unread message, got %+v", all)
	}
	if publisher.calls != 1 || len(mailer.sent) != 1 {
		t.Fatalf("expected publish and mail, got %d/%d", publisher.calls, len(mailer.sent))
	}
	if !logger.has("contact.publish.failed") {
		t.Fatalf("expected publish failure logged")
	}
	notice := ContactNotice(err)
	if notice.Level != editor.LevelSuccess || notice.Title != ContactSentTitle {
		t.Fatalf("unexpected notice %+v", notice)
	}
}

func TestContactMissingFieldsNeverStored(t *testing.T) {
	reg := newRegistry()
	publisher := &fakePublisher{}
	svc, _ := NewContactService(ContactServiceDeps{Messages: reg.Messages, Publisher: publisher})
	ctx := context.Background()

	_, err := svc.Submit(ctx, ContactForm{Name: "  ", Phone: "0500000000", Message: "Hi"})
	if !errors.Is(err, domain.ErrMissingFields) {
		t.Fatalf("expected missing fields, got %v", err)
	}
	if n, _ := reg.Messages.Count(ctx); n != 0 || publisher.calls != 0 {
		t.Fatalf("nothing should be stored or published")
	}
	notice := ContactNotice(err)
	if notice.Title != ContactInvalidTitle || notice.Body != ContactInvalidBody {
		t.Fatalf("unexpected notice %+v", notice)
	}
}

type failingMessages struct {
	repositories.ContactMessageRepository
}

func (failingMessages) Insert(context.Context, domain.ContactMessage) (domain.ContactMessage, error) {
	return domain.ContactMessage{}, repositories.Unavailable("contact_messages.insert", errors.New("timeout"))
}

func (failingMessages) Count(context.Context) (int, error) {
	return 0, errors.New("timeout")
}

func TestContactInsertFailureNotice(t *testing.T) {
	reg := newRegistry()
	svc, _ := NewContactService(ContactServiceDeps{Messages: failingMessages{reg.Messages}})
	_, err := svc.Submit(context.Background(), ContactForm{Name: "Ali", Message: "Hello"})
	if !errors.Is(err, ErrContactNotStored) {
		t.Fatalf("expected not stored, got %v", err)
	}
	if notice := ContactNotice(err); notice.Title != ContactFailedTitle || notice.Body != ContactFailedBody {
		t.Fatalf("unexpected notice %+v", notice)
	}
}

func TestStatsAllOrNothing(t *testing.T) {
	reg := newRegistry()
	ctx := context.Background()
	_, _ = reg.Services.Insert(ctx, domain.Service{TitleAR: "x", DescriptionAR: "y"})
	_, _ = reg.Gallery.Insert(ctx, domain.GalleryImage{ImageURL: "https://img/1.png"})
	_, _ = reg.Gallery.Insert(ctx, domain.GalleryImage{ImageURL: "https://img/2.png"})

	stats, err := NewStatsService(reg, nil)
	if err != nil {
		t.Fatalf("new stats: %v", err)
	}
	got := stats.Counts(ctx)
	if got != (domain.Stats{Services: 1, GalleryImages: 2}) {
		t.Fatalf("unexpected counts %+v", got)
	}

	reg.Messages = failingMessages{reg.Messages}
	logger := &recordingLogger{}
	stats, _ = NewStatsService(reg, logger.log)
	if got := stats.Counts(ctx); got != (domain.Stats{}) {
		t.Fatalf("expected all zeros on failure, got %+v", got)
	}
	if !logger.has("stats.count.failed") {
		t.Fatalf("expected failure logged")
	}
	cards := stats.Cards(ctx)
	if len(cards) != 4 || cards[0].Title != "رسائل التواصل" || cards[3].Description != "أقسام المحتوى" {
		t.Fatalf("unexpected cards %+v", cards)
	}
}

type countingStore struct {
	*storage.MemoryStore
	uploads   int
	deleteErr error
}

func (s *countingStore) Upload(ctx context.Context, name, contentType string, data []byte) error {
	s.uploads++
	return s.MemoryStore.Upload(ctx, name, contentType, data)
}

func (s *countingStore) Delete(ctx context.Context, name string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.MemoryStore.Delete(ctx, name)
}

func newCountingStore() *countingStore {
	return &countingStore{MemoryStore: storage.NewMemoryStore("/media")}
}

func png(size int) []byte {
	data := make([]byte, size)
	copy(data, []byte("\x89PNG\r\n\x1a\n"))
	return data
}

func TestUploaderRejectsOversizedImageBeforeUpload(t *testing.T) {
	store := newCountingStore()
	up, _ := NewUploader(store, fixedClock)

	_, err := up.Upload(context.Background(), "gallery", ImageFile{Filename: "big.png", ContentType: "image/png", Data: png(6 << 20)})
	var upErr *UploadError
	if !errors.As(err, &upErr) || !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("expected too large upload error, got %v", err)
	}
	if !strings.Contains(upErr.Body, "big.png") || !strings.Contains(upErr.Body, "5") {
		t.Fatalf("message should name the file and the limit: %q", upErr.Body)
	}
	if upErr.Title != UploadTooLargeTitle || store.uploads != 0 {
		t.Fatalf("unexpected title %q or uploads %d", upErr.Title, store.uploads)
	}

	_, err = up.Upload(context.Background(), "gallery", ImageFile{Filename: "notes.txt", ContentType: "text/plain", Data: []byte("hi")})
	if !errors.Is(err, ErrNotImage) || store.uploads != 0 {
		t.Fatalf("expected not image before upload, got %v", err)
	}
}

func TestUploaderNamesObjectsSequentially(t *testing.T) {
	store := newCountingStore()
	up, _ := NewUploader(store, fixedClock)
	results := up.UploadAll(context.Background(), "gallery", []ImageFile{
		{Filename: "a.PNG", ContentType: "image/png", Data: png(64)},
		{Filename: "b.txt", ContentType: "text/plain", Data: []byte("x")},
		{Filename: "c.jpg", ContentType: "image/jpeg", Data: png(64)},
	})
	if len(results) != 3 || results[1].Err == nil {
		t.Fatalf("expected the middle file to fail, got %+v", results)
	}
	ms := fixedNow.UnixMilli()
	want0 := "gallery-" + strconv.FormatInt(ms, 10) + "-0.png"
	want2 := "gallery-" + strconv.FormatInt(ms, 10) + "-1.jpg"
	if results[0].Image.Object != want0 || results[2].Image.Object != want2 {
		t.Fatalf("unexpected names %q %q", results[0].Image.Object, results[2].Image.Object)
	}
	if results[0].Image.URL != "/media/"+want0 {
		t.Fatalf("unexpected url %q", results[0].Image.URL)
	}
	if store.Len() != 2 {
		t.Fatalf("expected two stored objects, got %d", store.Len())
	}
}
