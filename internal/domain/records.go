// Package domain holds the four record kinds the site persists and the
// small value types shared between the public page and the dashboard.
package domain

import (
	"errors"
	"strings"
	"time"
)

// SectionKey names one singleton block of public-site content.
type SectionKey string

const (
	SectionHero    SectionKey = "hero"
	SectionAbout   SectionKey = "about"
	SectionContact SectionKey = "contact"
	SectionFooter  SectionKey = "footer"
)

// SectionKeys lists every editable section in display order.
var SectionKeys = []SectionKey{SectionHero, SectionAbout, SectionContact, SectionFooter}

// Valid reports whether k is one of the fixed section keys.
func (k SectionKey) Valid() bool {
	for _, key := range SectionKeys {
		if key == k {
			return true
		}
	}
	return false
}

// SiteContent is the row behind one section. Empty strings mean "not set"
// and make the public page fall back to its defaults.
type SiteContent struct {
	ID        string     `json:"id" firestore:"-"`
	Section   SectionKey `json:"section" firestore:"section"`
	TitleAR   string     `json:"title_ar" firestore:"title_ar"`
	TitleEN   string     `json:"title_en" firestore:"title_en"`
	ContentAR string     `json:"content_ar" firestore:"content_ar"`
	ContentEN string     `json:"content_en" firestore:"content_en"`
	ImageURL  string     `json:"image_url" firestore:"image_url"`
	UpdatedAt time.Time  `json:"updated_at" firestore:"updated_at"`
}

// Title returns the title in lang, falling back to Arabic.
func (c SiteContent) Title(lang string) string { return pick(lang, c.TitleAR, c.TitleEN) }

// Content returns the body in lang, falling back to Arabic.
func (c SiteContent) Content(lang string) string { return pick(lang, c.ContentAR, c.ContentEN) }

// Service is one offering shown in the services grid.
type Service struct {
	ID            string    `json:"id" firestore:"-"`
	TitleAR       string    `json:"title_ar" firestore:"title_ar"`
	TitleEN       string    `json:"title_en" firestore:"title_en"`
	DescriptionAR string    `json:"description_ar" firestore:"description_ar"`
	DescriptionEN string    `json:"description_en" firestore:"description_en"`
	IconName      string    `json:"icon_name" firestore:"icon_name"`
	ImageURL      string    `json:"image_url" firestore:"image_url"`
	SortOrder     int       `json:"sort_order" firestore:"sort_order"`
	IsActive      bool      `json:"is_active" firestore:"is_active"`
	CreatedAt     time.Time `json:"created_at" firestore:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" firestore:"updated_at"`
}

// Title returns the title in lang, falling back to Arabic.
func (s Service) Title(lang string) string { return pick(lang, s.TitleAR, s.TitleEN) }

// Description returns the description in lang, falling back to Arabic.
func (s Service) Description(lang string) string {
	return pick(lang, s.DescriptionAR, s.DescriptionEN)
}

// Icon resolves IconName to a known symbol.
func (s Service) Icon() Icon { return ParseIcon(s.IconName) }

// Validate checks the required Arabic fields.
func (s Service) Validate() error {
	var missing []string
	if strings.TrimSpace(s.TitleAR) == "" {
		missing = append(missing, "title_ar")
	}
	if strings.TrimSpace(s.DescriptionAR) == "" {
		missing = append(missing, "description_ar")
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

// GalleryImage is one picture in the public gallery.
type GalleryImage struct {
	ID           string    `json:"id" firestore:"-"`
	TitleAR      string    `json:"title_ar" firestore:"title_ar"`
	ImageURL     string    `json:"image_url" firestore:"image_url"`
	ThumbnailURL string    `json:"thumbnail_url" firestore:"thumbnail_url"`
	AltTextAR    string    `json:"alt_text_ar" firestore:"alt_text_ar"`
	SortOrder    int       `json:"sort_order" firestore:"sort_order"`
	IsActive     bool      `json:"is_active" firestore:"is_active"`
	CreatedAt    time.Time `json:"created_at" firestore:"created_at"`
}

// Thumbnail returns the grid image, which defaults to the full image.
func (g GalleryImage) Thumbnail() string {
	if strings.TrimSpace(g.ThumbnailURL) != "" {
		return g.ThumbnailURL
	}
	return g.ImageURL
}

// Alt returns the alternative text, falling back to the title and then to
// the generic gallery label.
func (g GalleryImage) Alt() string {
	switch {
	case strings.TrimSpace(g.AltTextAR) != "":
		return g.AltTextAR
	case strings.TrimSpace(g.TitleAR) != "":
		return g.TitleAR
	default:
		return DefaultGalleryAlt
	}
}

// DefaultGalleryAlt labels images that carry no text of their own.
const DefaultGalleryAlt = "صورة من المعرض"

// Validate checks the image has a URL.
func (g GalleryImage) Validate() error {
	if strings.TrimSpace(g.ImageURL) == "" {
		return &MissingFieldsError{Fields: []string{"image_url"}}
	}
	return nil
}

// ContactMessage is a visitor submission from the contact form.
type ContactMessage struct {
	ID        string    `json:"id" firestore:"-"`
	Name      string    `json:"name" firestore:"name"`
	Phone     string    `json:"phone" firestore:"phone"`
	Email     string    `json:"email" firestore:"email"`
	Message   string    `json:"message" firestore:"message"`
	IsRead    bool      `json:"is_read" firestore:"is_read"`
	CreatedAt time.Time `json:"created_at" firestore:"created_at"`
}

// Validate checks the required name and message.
func (m ContactMessage) Validate() error {
	var missing []string
	if strings.TrimSpace(m.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(m.Message) == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

// User is a dashboard account managed by the local identity provider.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Stats are the four dashboard counters.
type Stats struct {
	ContactMessages int
	GalleryImages   int
	Services        int
	SiteContent     int
}

// ErrMissingFields is matched by every MissingFieldsError.
var ErrMissingFields = errors.New("required fields missing")

// MissingFieldsError lists the required wire fields that were empty.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// Is makes errors.Is(err, ErrMissingFields) true.
func (e *MissingFieldsError) Is(target error) bool { return target == ErrMissingFields }

func pick(lang, ar, en string) string {
	if lang == "en" && strings.TrimSpace(en) != "" {
		return en
	}
	if strings.TrimSpace(ar) != "" {
		return ar
	}
	return en
}
