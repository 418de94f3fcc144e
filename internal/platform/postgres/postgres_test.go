package postgres

import (
	"io/fs"
	"strings"
	"testing"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	if len(ups) == 0 {
		t.Fatalf("expected embedded migrations")
	}
	for version := range ups {
		if !downs[version] {
			t.Fatalf("migration %s has no down file", version)
		}
	}
}

func TestInitialMigrationKeepsWireColumns(t *testing.T) {
	data, err := fs.ReadFile(migrationsFS, "migrations/000001_init.up.sql")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, column := range []string{"section", "title_ar", "content_en", "image_url", "icon_name", "thumbnail_url", "alt_text_ar", "sort_order", "is_active", "is_read", "created_at"} {
		if !strings.Contains(string(data), column) {
			t.Fatalf("expected column %s in schema", column)
		}
	}
}

func TestMigrateRejectsUnknownDirection(t *testing.T) {
	if err := Migrate(nil, Direction("sideways")); err == nil {
		t.Fatalf("expected error")
	}
}
