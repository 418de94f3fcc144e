package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/cms"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/domain"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/repositories"
)

const defaultSectionTimeout = 5 * time.Second

// SectionServiceDeps groups constructor parameters for the section service.
type SectionServiceDeps struct {
	SiteContent repositories.SiteContentRepository
	Services    repositories.ServiceRepository
	Gallery     repositories.GalleryRepository
	Defaults    *cms.Defaults
	// Timeout bounds each repository call. Zero means five seconds.
	Timeout time.Duration
	Logger  Logger
}

// SectionService fetches the data of each public section. Every call is
// independent and never fails: errors are logged and the built-in copy is
// returned instead.
type SectionService struct {
	content  repositories.SiteContentRepository
	services repositories.ServiceRepository
	gallery  repositories.GalleryRepository
	defaults *cms.Defaults
	timeout  time.Duration
	logger   Logger
}

// SectionView is a content section resolved for one page language.
type SectionView struct {
	Key      domain.SectionKey
	Title    string
	Content  string
	ImageURL string
	// Stored is true when a stored row supplied at least one field.
	Stored bool
}

// NewSectionService constructs the section service.
func NewSectionService(deps SectionServiceDeps) (*SectionService, error) {
	if deps.SiteContent == nil || deps.Services == nil || deps.Gallery == nil {
		return nil, ErrRepositoryMissing
	}
	defaults := deps.Defaults
	if defaults == nil {
		var err error
		if defaults, err = cms.Load(); err != nil {
			return nil, fmt.Errorf("section service: %w", err)
		}
	}
	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = defaultSectionTimeout
	}
	return &SectionService{
		content:  deps.SiteContent,
		services: deps.Services,
		gallery:  deps.Gallery,
		defaults: defaults,
		timeout:  timeout,
		logger:   orNop(deps.Logger),
	}, nil
}

// Defaults exposes the built-in copy used for fallbacks.
func (s *SectionService) Defaults() *cms.Defaults { return s.defaults }

// Hero returns the hero section.
func (s *SectionService) Hero(ctx context.Context, lang string) SectionView {
	return s.Section(ctx, domain.SectionHero, lang)
}

// About returns the about section.
func (s *SectionService) About(ctx context.Context, lang string) SectionView {
	return s.Section(ctx, domain.SectionAbout, lang)
}

// Contact returns the heading of the contact section.
func (s *SectionService) Contact(ctx context.Context, lang string) SectionView {
	return s.Section(ctx, domain.SectionContact, lang)
}

// Footer returns the footer blurb as Content.
func (s *SectionService) Footer(ctx context.Context, lang string) SectionView {
	return s.Section(ctx, domain.SectionFooter, lang)
}

// Section fetches one content row and fills each empty field from the defaults.
func (s *SectionService) Section(ctx context.Context, key domain.SectionKey, lang string) SectionView {
	fallback := s.defaults.SectionFor(key)
	view := SectionView{
		Key:     key,
		Title:   fallback.Title.In(lang),
		Content: fallback.Content.In(lang),
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	row, err := s.content.FindBySection(ctx, key)
	if err != nil {
		if !repositories.IsNotFound(err) {
			s.logger(ctx, "sections.fetch.failed", map[string]any{"section": string(key), "error": err.Error()})
		}
		return view
	}
	if title := row.Title(lang); title != "" {
		view.Title, view.Stored = title, true
	}
	if content := row.Content(lang); content != "" {
		view.Content, view.Stored = content, true
	}
	if row.ImageURL != "" {
		view.ImageURL, view.Stored = row.ImageURL, true
	}
	return view
}

// Services returns the active services in display order, or the built-in
// cards when none are stored or the fetch fails. The flag reports the fallback.
func (s *SectionService) Services(ctx context.Context) ([]domain.Service, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	rows, err := s.services.List(ctx, repositories.ListFilter{ActiveOnly: true})
	if err != nil {
		s.logger(ctx, "sections.fetch.failed", map[string]any{"section": "services", "error": err.Error()})
	}
	if len(rows) == 0 {
		return s.defaults.Services(), true
	}
	return rows, false
}

// Gallery returns the active images in display order. An empty result lets
// the gallery viewer substitute its placeholders.
func (s *SectionService) Gallery(ctx context.Context) []domain.GalleryImage {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	rows, err := s.gallery.List(ctx, repositories.ListFilter{ActiveOnly: true})
	if err != nil {
		s.logger(ctx, "sections.fetch.failed", map[string]any{"section": "gallery", "error": err.Error()})
		return nil
	}
	return rows
}
