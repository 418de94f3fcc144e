// Package i18n serves the interface strings of the site in Arabic and
// English and negotiates which one a visitor sees.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

//go:embed locales/*.json
var embedded embed.FS

// Bundle holds one dictionary per supported language.
type Bundle struct {
	dict      map[string]map[string]string
	fallback  string
	supported []string
	matcher   language.Matcher
}

// Default loads the embedded Arabic and English catalogues with Arabic as fallback.
func Default() (*Bundle, error) {
	return Load(embedded, "locales", "ar", []string{"ar", "en"})
}

// Load reads <dir>/<lang>.json from fsys for each supported language. Only
// the fallback catalogue is mandatory.
func Load(fsys fs.FS, dir, fallback string, supported []string) (*Bundle, error) {
	if len(supported) == 0 {
		supported = []string{fallback}
	}
	b := &Bundle{dict: map[string]map[string]string{}, fallback: fallback}
	// The fallback goes first so the matcher prefers it on ties.
	ordered := []string{fallback}
	for _, l := range supported {
		if l != fallback {
			ordered = append(ordered, l)
		}
	}
	tags := make([]language.Tag, 0, len(ordered))
	for _, l := range ordered {
		raw, err := fs.ReadFile(fsys, path.Join(dir, l+".json"))
		if err != nil {
			if l == fallback {
				return nil, fmt.Errorf("load locale %s: %w", l, err)
			}
			continue
		}
		var m map[string]string
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", l, err)
		}
		b.dict[l] = m
		b.supported = append(b.supported, l)
		tags = append(tags, language.Make(l))
	}
	b.matcher = language.NewMatcher(tags)
	return b, nil
}

// Supported lists the loaded languages, sorted.
func (b *Bundle) Supported() []string {
	out := append([]string(nil), b.supported...)
	sort.Strings(out)
	return out
}

// Fallback returns the configured fallback language.
func (b *Bundle) Fallback() string { return b.fallback }

// IsSupported reports whether lang has a loaded catalogue.
func (b *Bundle) IsSupported(lang string) bool {
	_, ok := b.dict[lang]
	return ok
}

// T returns translation for key in lang, falling back to default and finally key.
func (b *Bundle) T(lang, key string) string {
	if m, ok := b.dict[lang]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if m, ok := b.dict[b.fallback]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return key
}

// Tf formats the translation of key with args.
func (b *Bundle) Tf(lang, key string, args ...any) string {
	return fmt.Sprintf(b.T(lang, key), args...)
}

// Resolve chooses the best supported language for an Accept-Language header.
func (b *Bundle) Resolve(acceptLang string) string {
	acceptLang = strings.TrimSpace(acceptLang)
	if acceptLang == "" {
		return b.fallback
	}
	prefs, _, err := language.ParseAcceptLanguage(acceptLang)
	if err != nil || len(prefs) == 0 {
		return b.fallback
	}
	_, idx, conf := b.matcher.Match(prefs...)
	if conf == language.No || idx < 0 || idx >= len(b.supported) {
		return b.fallback
	}
	return b.supported[idx]
}

// Dir returns the text direction for lang.
func Dir(lang string) string {
	if lang == "ar" {
		return "rtl"
	}
	return "ltr"
}
