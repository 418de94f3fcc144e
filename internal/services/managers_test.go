package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/cms"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/domain"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/editor"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/repositories"
)

func newManagers(t *testing.T, reg repositories.Registry, store *countingStore) *ManagerSet {
	t.Helper()
	up, err := NewUploader(store, fixedClock)
	if err != nil {
		t.Fatalf("uploader: %v", err)
	}
	set, err := NewManagerSet(ManagerDeps{Registry: reg, Uploader: up, Clock: fixedClock})
	if err != nil {
		t.Fatalf("manager set: %v", err)
	}
	if err := set.LoadAll(context.Background()); err != nil {
		t.Fatalf("load all: %v", err)
	}
	return set
}

func findNotice(notices []editor.Notice, title string) (editor.Notice, bool) {
	for _, n := range notices {
		if n.Title == title {
			return n, true
		}
	}
	return editor.Notice{}, false
}

func TestServiceDraftCommitAppendsActiveCard(t *testing.T) {
	reg := newRegistry()
	ctx := context.Background()
	_, _ = reg.Services.Insert(ctx, domain.Service{TitleAR: "قديم", DescriptionAR: "وصف", SortOrder: 1, IsActive: true})
	set := newManagers(t, reg, newCountingStore())

	draft := set.NewServiceDraft()
	if draft.ID != editor.NewID || draft.SortOrder != 2 {
		t.Fatalf("unexpected draft %+v", draft)
	}
	if err := set.Services.Commit(ctx, editor.NewID); err == nil {
		t.Fatalf("expected validation error for empty draft")
	}
	_ = set.Services.EditField(editor.NewID, "title_ar", "جديد")
	_ = set.Services.EditField(editor.NewID, "description_ar", "وصف جديد")
	_ = set.Services.EditField(editor.NewID, "icon_name", "Camera")
	if err := set.Services.Commit(ctx, editor.NewID); err != nil {
		t.Fatalf("commit: %v", err)
	}

	stored, _ := reg.Services.List(ctx, repositories.ListFilter{})
	if len(stored) != 2 || stored[1].TitleAR != "جديد" || stored[1].SortOrder != 2 || !stored[1].IsActive {
		t.Fatalf("unexpected stored services %+v", stored)
	}
	if set.Services.HasDraft() || set.Services.Len() != 2 {
		t.Fatalf("expected reloaded list without draft")
	}
	notices := set.Notices()
	if _, ok := findNotice(notices, "خطأ في الحفظ"); !ok {
		t.Fatalf("expected validation notice in %+v", notices)
	}
	if n, ok := findNotice(notices, "تم الحفظ بنجاح"); !ok || n.Body != "تم تحديث الخدمة بنجاح" {
		t.Fatalf("expected save notice in %+v", notices)
	}
}

func TestGalleryUploadInsertsRowsAndReportsEachFailure(t *testing.T) {
	reg := newRegistry()
	ctx := context.Background()
	_, _ = reg.Gallery.Insert(ctx, domain.GalleryImage{ImageURL: "/media/old.png", SortOrder: 1, IsActive: true})
	store := newCountingStore()
	set := newManagers(t, reg, store)

	added := set.UploadGallery(ctx, []ImageFile{
		{Filename: "team.photo.png", ContentType: "image/png", Data: png(128)},
		{Filename: "readme.pdf", ContentType: "application/pdf", Data: []byte("%PDF")},
		{Filename: "huge.jpg", ContentType: "image/jpeg", Data: png(MaxImageBytes + 1)},
		{Filename: "office.jpg", ContentType: "image/jpeg", Data: png(128)},
	})
	if added != 2 {
		t.Fatalf("expected two uploads, got %d", added)
	}
	rows := set.Gallery.Values()
	if len(rows) != 3 {
		t.Fatalf("expected reloaded gallery with three rows, got %d", len(rows))
	}
	if rows[1].TitleAR != "team" || rows[1].SortOrder != 2 || rows[1].ThumbnailURL != rows[1].ImageURL {
		t.Fatalf("unexpected first upload %+v", rows[1])
	}
	if rows[2].TitleAR != "office" || rows[2].SortOrder != 3 {
		t.Fatalf("unexpected second upload %+v", rows[2])
	}

	notices := set.Notices()
	if n, ok := findNotice(notices, UploadWrongTypeTitle); !ok || n.Body != "الملف readme.pdf ليس صورة صالحة" {
		t.Fatalf("expected type notice in %+v", notices)
	}
	if n, ok := findNotice(notices, UploadTooLargeTitle); !ok || n.Body != "الصورة huge.jpg حجمها أكبر من 5 ميجابايت" {
		t.Fatalf("expected size notice in %+v", notices)
	}
	if n, ok := findNotice(notices, GalleryUploadTitle); !ok || n.Body != "تم رفع 2 صورة بنجاح" {
		t.Fatalf("expected success notice in %+v", notices)
	}
}

func TestGalleryDeleteSurvivesStorageFailure(t *testing.T) {
	reg := newRegistry()
	ctx := context.Background()
	store := newCountingStore()
	store.deleteErr = errors.New("permission denied")
	set := newManagers(t, reg, store)
	set.UploadGallery(ctx, []ImageFile{{Filename: "a.png", ContentType: "image/png", Data: png(32)}})
	set.Notices()

	id := set.Gallery.Values()[0].ID
	if err := set.Gallery.Remove(ctx, id, false); !errors.Is(err, editor.ErrNotConfirmed) {
		t.Fatalf("expected confirmation required, got %v", err)
	}
	if err := set.Gallery.Remove(ctx, id, true); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if n, _ := reg.Gallery.Count(ctx); n != 0 {
		t.Fatalf("expected row deleted, %d left", n)
	}
	if n, ok := findNotice(set.Notices(), "تم الحذف بنجاح"); !ok || n.Body != "تم حذف الصورة بنجاح" {
		t.Fatalf("expected delete notice")
	}
}

func TestRenameImageAndMarkRead(t *testing.T) {
	reg := newRegistry()
	ctx := context.Background()
	img, _ := reg.Gallery.Insert(ctx, domain.GalleryImage{ImageURL: "/media/x.png", IsActive: true})
	msg, _ := reg.Messages.Insert(ctx, domain.ContactMessage{Name: "Ali", Message: "Hello"})
	_, _ = reg.Messages.Insert(ctx, domain.ContactMessage{Name: "Sara", Message: "Hi"})
	set := newManagers(t, reg, newCountingStore())

	if set.UnreadMessages() != 2 {
		t.Fatalf("expected two unread messages")
	}
	if err := set.MarkRead(ctx, msg.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if set.UnreadMessages() != 1 {
		t.Fatalf("expected one unread message")
	}
	all, _ := reg.Messages.List(ctx)
	for _, m := range all {
		if m.ID == msg.ID && !m.IsRead {
			t.Fatalf("message not marked read in store")
		}
	}

	if err := set.RenameImage(ctx, img.ID, "عنوان جديد"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	images, _ := reg.Gallery.List(ctx, repositories.ListFilter{})
	if images[0].TitleAR != "عنوان جديد" {
		t.Fatalf("title not saved: %+v", images[0])
	}
	notices := set.Notices()
	if _, ok := findNotice(notices, "تم تحديد الرسالة كمقروءة"); !ok {
		t.Fatalf("expected mark read notice in %+v", notices)
	}
	if n, ok := findNotice(notices, "تم التحديث"); !ok || n.Body != "تم تحديث عنوان الصورة" {
		t.Fatalf("expected rename notice in %+v", notices)
	}
}

func TestSectionImageUploadSavesURL(t *testing.T) {
	reg := newRegistry()
	ctx := context.Background()
	row, _ := reg.SiteContent.Insert(ctx, domain.SiteContent{Section: domain.SectionHero, TitleAR: "مرحبا"})
	set := newManagers(t, reg, newCountingStore())

	if err := set.UploadSectionImage(ctx, row.ID, ImageFile{Filename: "hero.webp", ContentType: "image/webp", Data: png(32)}); err != nil {
		t.Fatalf("upload: %v", err)
	}
	stored, _ := reg.SiteContent.FindBySection(ctx, domain.SectionHero)
	if stored.ImageURL == "" || stored.TitleAR != "مرحبا" {
		t.Fatalf("unexpected stored row %+v", stored)
	}
	if local, _ := set.Content.Get(row.ID); local.Value.ImageURL != stored.ImageURL {
		t.Fatalf("local row not updated")
	}
	if n, ok := findNotice(set.Notices(), SectionImageTitle); !ok || n.Body != SectionImageBody {
		t.Fatalf("expected image notice")
	}
	if err := set.Content.Remove(ctx, row.ID, true); !errors.Is(err, ErrSectionsFixed) {
		t.Fatalf("sections must not be deletable, got %v", err)
	}
}

func TestManagerRegistryPerSession(t *testing.T) {
	reg := newRegistry()
	up, _ := NewUploader(newCountingStore(), fixedClock)
	now := fixedNow
	registry := NewManagerRegistry(ManagerDeps{Registry: reg, Uploader: up, Clock: func() time.Time { return now }})
	ctx := context.Background()

	a1, err := registry.Get(ctx, "session-a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	a2, _ := registry.Get(ctx, "session-a")
	b, _ := registry.Get(ctx, "session-b")
	if a1 != a2 || a1 == b {
		t.Fatalf("expected one set per session")
	}
	now = now.Add(2 * time.Hour)
	_, _ = registry.Get(ctx, "session-b")
	if removed := registry.Evict(time.Hour); removed != 1 || registry.Len() != 1 {
		t.Fatalf("expected idle session evicted, removed=%d len=%d", removed, registry.Len())
	}
	registry.Drop("session-b")
	if registry.Len() != 0 {
		t.Fatalf("expected empty registry")
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	reg := newRegistry()
	ctx := context.Background()
	report, err := Seed(ctx, reg, cms.MustLoad())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if report.Sections != 4 || report.Services != 6 {
		t.Fatalf("unexpected report %+v", report)
	}
	report, err = Seed(ctx, reg, nil)
	if err != nil || report != (SeedReport{}) {
		t.Fatalf("second seed should do nothing, got %+v %v", report, err)
	}
	footer, _ := reg.SiteContent.FindBySection(ctx, domain.SectionFooter)
	if footer.ContentAR == "" {
		t.Fatalf("footer blurb not seeded")
	}
}

func TestReloadPicksUpNewMessages(t *testing.T) {
	reg := newRegistry()
	ctx := context.Background()
	set := newManagers(t, reg, newCountingStore())
	if set.Messages.Len() != 0 {
		t.Fatalf("expected no messages yet")
	}

	_, _ = reg.Messages.Insert(ctx, domain.ContactMessage{Name: "Ali", Message: "Hello"})
	if err := set.Reload(ctx, "stats"); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if set.Messages.Len() != 1 || set.UnreadMessages() != 1 {
		t.Fatalf("expected the new message after reload, got %d", set.Messages.Len())
	}
	if err := set.Reload(ctx, "orders"); err == nil {
		t.Fatalf("expected unknown tab error")
	}
}

func TestManagerRegistryFirstGetsWaitForLoad(t *testing.T) {
	reg := newRegistry()
	ctx := context.Background()
	_, _ = reg.Services.Insert(ctx, domain.Service{TitleAR: "خدمة", DescriptionAR: "وصف", SortOrder: 1, IsActive: true})
	up, _ := NewUploader(newCountingStore(), fixedClock)
	registry := NewManagerRegistry(ManagerDeps{Registry: reg, Uploader: up, Clock: fixedClock})

	var wg sync.WaitGroup
	lens := make([]int, 8)
	for i := range lens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			set, err := registry.Get(ctx, "session-a")
			if err != nil {
				return
			}
			lens[i] = set.Services.Len()
		}(i)
	}
	wg.Wait()
	for i, n := range lens {
		if n != 1 {
			t.Fatalf("request %d saw %d services before the load finished", i, n)
		}
	}
}
