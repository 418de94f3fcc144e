package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/domain"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/repositories"
)

func newTestStore() *Store {
	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	seq := 0
	return NewStore(
		WithClock(func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Minute)
		}),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%02d", seq)
		}),
	)
}

func TestServicesOrderedAndFiltered(t *testing.T) {
	reg := newTestStore().Registry()
	ctx := context.Background()
	for _, svc := range []domain.Service{
		{TitleAR: "ب", SortOrder: 2, IsActive: true},
		{TitleAR: "أ", SortOrder: 1, IsActive: true},
		{TitleAR: "ج", SortOrder: 3, IsActive: false},
	} {
		if _, err := reg.Services.Insert(ctx, svc); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	all, err := reg.Services.List(ctx, repositories.ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].TitleAR != "أ" || all[2].TitleAR != "ج" {
		t.Fatalf("unexpected order %+v", all)
	}
	active, _ := reg.Services.List(ctx, repositories.ListFilter{ActiveOnly: true})
	if len(active) != 2 {
		t.Fatalf("expected 2 active services, got %d", len(active))
	}
}

func TestMessagesNewestFirstAndMarkRead(t *testing.T) {
	reg := newTestStore().Registry()
	ctx := context.Background()
	first, _ := reg.Messages.Insert(ctx, domain.ContactMessage{Name: "Ali", Message: "Hello", IsRead: true})
	second, _ := reg.Messages.Insert(ctx, domain.ContactMessage{Name: "Sara", Message: "Hi"})
	if first.IsRead {
		t.Fatalf("new messages must start unread")
	}
	list, _ := reg.Messages.List(ctx)
	if list[0].ID != second.ID {
		t.Fatalf("expected newest first, got %+v", list)
	}
	if err := reg.Messages.MarkRead(ctx, first.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if err := reg.Messages.MarkRead(ctx, "missing"); !repositories.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSectionsUniqueAndUpdateKeepsKey(t *testing.T) {
	reg := newTestStore().Registry()
	ctx := context.Background()
	hero, err := reg.SiteContent.Insert(ctx, domain.SiteContent{Section: domain.SectionHero, TitleAR: "مرحبا"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := reg.SiteContent.Insert(ctx, domain.SiteContent{Section: domain.SectionHero}); !repositories.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	hero.Section = domain.SectionAbout
	hero.TitleAR = "أهلا"
	if err := reg.SiteContent.Update(ctx, hero); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := reg.SiteContent.FindBySection(ctx, domain.SectionHero)
	if err != nil || got.TitleAR != "أهلا" {
		t.Fatalf("unexpected section %+v err=%v", got, err)
	}
}

func TestUsersCaseInsensitiveEmail(t *testing.T) {
	reg := newTestStore().Registry()
	ctx := context.Background()
	if _, err := reg.Users.Insert(ctx, domain.User{Email: "Admin@Example.com"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := reg.Users.Insert(ctx, domain.User{Email: "admin@example.com"}); !repositories.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := reg.Users.FindByEmail(ctx, "ADMIN@example.com"); err != nil {
		t.Fatalf("find: %v", err)
	}
}
