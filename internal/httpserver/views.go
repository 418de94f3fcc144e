package httpserver

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"time"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/cms"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/domain"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/editor"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/i18n"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/services"
	appsession "github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/session"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// toast is one notification rendered in the toast region.
type toast struct {
	Level string
	Title string
	Body  string
}

func toastsFromNotices(notices []editor.Notice) []toast {
	out := make([]toast, 0, len(notices))
	for _, n := range notices {
		out = append(out, toast{Level: string(n.Level), Title: n.Title, Body: n.Body})
	}
	return out
}

func toastsFromFlashes(flashes []appsession.Flash) []toast {
	out := make([]toast, 0, len(flashes))
	for _, f := range flashes {
		out = append(out, toast{Level: f.Level, Title: f.Title, Body: f.Body})
	}
	return out
}

func flashFromNotice(n editor.Notice) appsession.Flash {
	return appsession.Flash{Level: string(n.Level), Title: n.Title, Body: n.Body}
}

var glyphs = map[string]string{
	"users":     "👥",
	"trophy":    "🏆",
	"star":      "⭐",
	"check":     "✔",
	"phone":     "📞",
	"email":     "✉",
	"address":   "📍",
	"hours":     "🕘",
	"facebook":  "f",
	"twitter":   "𝕏",
	"instagram": "◎",
	"linkedin":  "in",
}

// glyph renders the decorative icons named in the content defaults.
func glyph(name string) string {
	if g, ok := glyphs[name]; ok {
		return g
	}
	return "•"
}

// pageData is what the layout renders around a page body.
type pageData struct {
	Lang      string
	Dir       string
	Title     string
	CSRFToken string
	Toasts    []toast
	User      *appsession.User
	Body      any
}

type views struct {
	base  *template.Template
	pages map[string]*template.Template
}

func newViews(bundle *i18n.Bundle, renderer *cms.Renderer, loc *time.Location) (*views, error) {
	funcs := template.FuncMap{
		"t":            bundle.T,
		"tf":           bundle.Tf,
		"dir":          i18n.Dir,
		"markdown":     renderer.Markdown,
		"icon":         domain.ParseIcon,
		"icons":        domain.Icons,
		"glyph":        glyph,
		"sectionLabel": services.SectionLabel,
		"arabicDate":   func(t time.Time) string { return formatArabicDate(t, loc) },
		"arabicDigits": func(n int) string { return arabicDigitsOf(fmt.Sprint(n)) },
		"add":          func(a, b int) int { return a + b },
	}

	base, err := template.New("site").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl", "templates/partials/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	pageFiles, err := fs.Glob(templateFS, "templates/pages/*.tmpl")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template, len(pageFiles))
	for _, file := range pageFiles {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := clone.ParseFS(templateFS, file); err != nil {
			return nil, fmt.Errorf("parse page %s: %w", file, err)
		}
		pages[path.Base(file)] = clone
	}
	return &views{base: base, pages: pages}, nil
}

// page renders a full document through the layout.
func (v *views) page(w http.ResponseWriter, status int, name string, data pageData) error {
	tmpl, ok := v.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %s", name)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return err
	}
	return writeHTML(w, status, buf.Bytes())
}

// fragment renders one partial, followed by any toasts swapped out of band.
func (v *views) fragment(w http.ResponseWriter, status int, name string, data any, toasts []toast) error {
	var buf bytes.Buffer
	if err := v.base.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	if len(toasts) > 0 {
		if err := v.base.ExecuteTemplate(&buf, "toasts-oob", toasts); err != nil {
			return err
		}
	}
	return writeHTML(w, status, buf.Bytes())
}

func writeHTML(w http.ResponseWriter, status int, body []byte) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := w.Write(body)
	return err
}
