// Package cms supplies the built-in copy the public page falls back to when
// a section has no stored content, and renders stored section bodies.
package cms

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/domain"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Text is a pair of parallel translations.
type Text struct {
	AR string `yaml:"ar"`
	EN string `yaml:"en"`
}

// In picks the translation for lang, falling back to Arabic.
func (t Text) In(lang string) string {
	if lang == "en" && strings.TrimSpace(t.EN) != "" {
		return t.EN
	}
	return t.AR
}

// Stat is one figure in the about section.
type Stat struct {
	Value string `yaml:"value"`
	Icon  string `yaml:"icon"`
	Label Text   `yaml:"label"`
}

// Feature is one highlight card in the about section.
type Feature struct {
	Icon        string `yaml:"icon"`
	Title       Text   `yaml:"title"`
	Description Text   `yaml:"description"`
}

// ContactInfo is one card of contact details.
type ContactInfo struct {
	Kind    string `yaml:"kind"`
	Title   Text   `yaml:"title"`
	Details []Text `yaml:"details"`
}

// SocialLink is one footer social network.
type SocialLink struct {
	Icon  string `yaml:"icon"`
	Href  string `yaml:"href"`
	Label Text   `yaml:"label"`
}

// Section holds the title and body every content section defaults to.
type Section struct {
	Title   Text `yaml:"title"`
	Content Text `yaml:"content"`
}

// About extends Section with the fixed figures and features.
type About struct {
	Section  `yaml:",inline"`
	Stats    []Stat    `yaml:"stats"`
	Features []Feature `yaml:"features"`
}

// Contact extends Section with the contact cards.
type Contact struct {
	Section `yaml:",inline"`
	Info    []ContactInfo `yaml:"info"`
}

// Footer holds the footer copy.
type Footer struct {
	Blurb   Text         `yaml:"blurb"`
	Company Text         `yaml:"company"`
	Social  []SocialLink `yaml:"social"`
}

// ServiceDefault is one built-in service card.
type ServiceDefault struct {
	TitleAR       string `yaml:"title_ar"`
	TitleEN       string `yaml:"title_en"`
	DescriptionAR string `yaml:"description_ar"`
	DescriptionEN string `yaml:"description_en"`
	IconName      string `yaml:"icon_name"`
}

// Defaults is the whole built-in copy.
type Defaults struct {
	Hero         Section          `yaml:"hero"`
	About        About            `yaml:"about"`
	Contact      Contact          `yaml:"contact"`
	Footer       Footer           `yaml:"footer"`
	ServiceCards []ServiceDefault `yaml:"services"`
}

// Parse decodes defaults from YAML and checks every section has Arabic copy.
func Parse(data []byte) (*Defaults, error) {
	var d Defaults
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("cms: decode defaults: %w", err)
	}
	var missing []string
	for name, sec := range map[string]Section{"hero": d.Hero, "about": d.About.Section, "contact": d.Contact.Section} {
		if sec.Title.AR == "" || sec.Content.AR == "" {
			missing = append(missing, name)
		}
	}
	if d.Footer.Blurb.AR == "" {
		missing = append(missing, "footer")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("cms: defaults missing arabic copy for %s", strings.Join(missing, ", "))
	}
	return &d, nil
}

var (
	loadOnce sync.Once
	loaded   *Defaults
	loadErr  error
)

// Load returns the embedded defaults, decoding them once.
func Load() (*Defaults, error) {
	loadOnce.Do(func() {
		loaded, loadErr = Parse(defaultsYAML)
	})
	return loaded, loadErr
}

// MustLoad is Load for program start-up.
func MustLoad() *Defaults {
	d, err := Load()
	if err != nil {
		panic(err)
	}
	return d
}

// SectionFor returns the defaults for a content section key.
func (d *Defaults) SectionFor(key domain.SectionKey) Section {
	switch key {
	case domain.SectionHero:
		return d.Hero
	case domain.SectionAbout:
		return d.About.Section
	case domain.SectionContact:
		return d.Contact.Section
	case domain.SectionFooter:
		return Section{Content: d.Footer.Blurb}
	default:
		return Section{}
	}
}

// Services returns the default service cards as active records in display order.
func (d *Defaults) Services() []domain.Service {
	out := make([]domain.Service, 0, len(d.ServiceCards))
	for i, s := range d.ServiceCards {
		out = append(out, domain.Service{
			ID:            fmt.Sprintf("default-%d", i+1),
			TitleAR:       s.TitleAR,
			TitleEN:       s.TitleEN,
			DescriptionAR: s.DescriptionAR,
			DescriptionEN: s.DescriptionEN,
			IconName:      s.IconName,
			SortOrder:     i + 1,
			IsActive:      true,
		})
	}
	return out
}
