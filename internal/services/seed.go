package services

import (
	"context"
	"fmt"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/cms"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/domain"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/repositories"
)

// SeedReport counts the rows a seed run created.
type SeedReport struct {
	Sections int
	Services int
}

// Seed writes the default content sections that are missing and, when no
// service exists yet, the default service cards.
func Seed(ctx context.Context, reg repositories.Registry, defaults *cms.Defaults) (SeedReport, error) {
	var report SeedReport
	if reg.SiteContent == nil || reg.Services == nil {
		return report, ErrRepositoryMissing
	}
	if defaults == nil {
		var err error
		if defaults, err = cms.Load(); err != nil {
			return report, err
		}
	}

	for _, key := range domain.SectionKeys {
		_, err := reg.SiteContent.FindBySection(ctx, key)
		if err == nil {
			continue
		}
		if !repositories.IsNotFound(err) {
			return report, fmt.Errorf("seed: find section %s: %w", key, err)
		}
		sec := defaults.SectionFor(key)
		if _, err := reg.SiteContent.Insert(ctx, domain.SiteContent{
			Section:   key,
			TitleAR:   sec.Title.AR,
			TitleEN:   sec.Title.EN,
			ContentAR: sec.Content.AR,
			ContentEN: sec.Content.EN,
		}); err != nil {
			return report, fmt.Errorf("seed: insert section %s: %w", key, err)
		}
		report.Sections++
	}

	n, err := reg.Services.Count(ctx)
	if err != nil {
		return report, fmt.Errorf("seed: count services: %w", err)
	}
	if n > 0 {
		return report, nil
	}
	for _, svc := range defaults.Services() {
		svc.ID = ""
		if _, err := reg.Services.Insert(ctx, svc); err != nil {
			return report, fmt.Errorf("seed: insert service %q: %w", svc.TitleAR, err)
		}
		report.Services++
	}
	return report, nil
}
