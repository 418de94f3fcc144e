package testutil

import (
	"bytes"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

// ParseHTML parses a page or fragment for selector assertions.
func ParseHTML(t testing.TB, body []byte) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

// Texts returns the trimmed text of every node in sel.
func Texts(sel *goquery.Selection) []string {
	var out []string
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, strings.TrimSpace(s.Text()))
	})
	return out
}

// Toasts returns the titles of the notifications rendered in a response,
// including out-of-band ones.
func (r Response) Toasts(t testing.TB) []string {
	t.Helper()
	return Texts(r.Doc(t).Find(".toast .toast-title"))
}
