package cms

import (
	"bytes"
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Renderer turns stored section bodies into safe HTML.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	strict *bluemonday.Policy
}

// NewRenderer builds a markdown renderer with a UGC sanitising policy.
func NewRenderer() *Renderer {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("dir").OnElements("p", "span", "div")
	policy.AllowAttrs("loading").OnElements("img")
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)

	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
			goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
		),
		policy: policy,
		strict: bluemonday.StrictPolicy(),
	}
}

// Markdown renders source and sanitises the result. Bodies that fail to
// render fall back to escaped plain text.
func (r *Renderer) Markdown(source string) template.HTML {
	source = strings.TrimSpace(source)
	if source == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes()))
}

// PlainText strips every tag from visitor input. Entities are decoded again
// since templates escape on output.
func (r *Renderer) PlainText(input string) string {
	return strings.TrimSpace(html.UnescapeString(r.strict.Sanitize(input)))
}
