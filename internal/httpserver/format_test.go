package httpserver

import (
	"testing"
	"time"
)

func TestFormatArabicDate(t *testing.T) {
	got := formatArabicDate(time.Date(2025, 3, 1, 21, 5, 0, 0, time.UTC), time.UTC)
	if got != "١ مارس ٢٠٢٥، ٠٩:٠٥ م" {
		t.Fatalf("unexpected date %q", got)
	}
	if formatArabicDate(time.Time{}, nil) != "" {
		t.Fatalf("zero time should render empty")
	}
	if got := formatArabicDate(time.Date(2024, 12, 31, 0, 30, 0, 0, time.UTC), time.UTC); got != "٣١ ديسمبر ٢٠٢٤، ١٢:٣٠ ص" {
		t.Fatalf("unexpected midnight formatting %q", got)
	}
}
