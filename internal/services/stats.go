package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/domain"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/repositories"
)

// StatCard is one dashboard counter with its labels.
type StatCard struct {
	Key         string
	Title       string
	Description string
	Value       int
}

// StatsService counts the four record kinds for the dashboard.
type StatsService struct {
	registry repositories.Registry
	logger   Logger
}

// NewStatsService constructs the stats service.
func NewStatsService(registry repositories.Registry, logger Logger) (*StatsService, error) {
	if registry.SiteContent == nil || registry.Services == nil || registry.Gallery == nil || registry.Messages == nil {
		return nil, ErrRepositoryMissing
	}
	return &StatsService{registry: registry, logger: orNop(logger)}, nil
}

// Counts runs the four counts concurrently. If any of them fails every
// counter is reported as zero.
func (s *StatsService) Counts(ctx context.Context) domain.Stats {
	var stats domain.Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.ContactMessages, err = s.registry.Messages.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.GalleryImages, err = s.registry.Gallery.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Services, err = s.registry.Services.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.SiteContent, err = s.registry.SiteContent.Count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger(ctx, "stats.count.failed", map[string]any{"error": err.Error()})
		return domain.Stats{}
	}
	return stats
}

// Cards labels the counters in dashboard order.
func (s *StatsService) Cards(ctx context.Context) []StatCard {
	stats := s.Counts(ctx)
	return []StatCard{
		{Key: "messages", Title: "رسائل التواصل", Description: "إجمالي الرسائل المستلمة", Value: stats.ContactMessages},
		{Key: "gallery", Title: "صور المعرض", Description: "إجمالي الصور في المعرض", Value: stats.GalleryImages},
		{Key: "services", Title: "الخدمات", Description: "إجمالي الخدمات المتاحة", Value: stats.Services},
		{Key: "content", Title: "محتوى الموقع", Description: "أقسام المحتوى", Value: stats.SiteContent},
	}
}
