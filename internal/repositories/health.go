package repositories

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/domain"
)

const defaultDependencyTimeout = 1500 * time.Millisecond

// DependencyCheck describes one readiness probe.
type DependencyCheck struct {
	Name    string
	Timeout time.Duration
	Check   func(context.Context) error
}

// HealthChecker runs dependency checks concurrently.
type HealthChecker struct {
	checks []DependencyCheck
	now    func() time.Time
}

// NewHealthChecker builds a checker. Checks with no name or function are dropped.
func NewHealthChecker(checks []DependencyCheck, now func() time.Time) *HealthChecker {
	if now == nil {
		now = time.Now
	}
	kept := make([]DependencyCheck, 0, len(checks))
	for _, check := range checks {
		if check.Name != "" && check.Check != nil {
			kept = append(kept, check)
		}
	}
	return &HealthChecker{checks: kept, now: now}
}

// Collect runs every check with its own timeout. Timeouts and cancellations
// mark the report as error, other failures as degraded.
func (h *HealthChecker) Collect(ctx context.Context) domain.HealthReport {
	results := make(map[string]domain.HealthCheck, len(h.checks))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, check := range h.checks {
		wg.Add(1)
		go func(check DependencyCheck) {
			defer wg.Done()
			timeout := check.Timeout
			if timeout <= 0 {
				timeout = defaultDependencyTimeout
			}
			checkCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := h.now()
			err := check.Check(checkCtx)
			end := h.now()

			result := domain.HealthCheck{Status: domain.HealthStatusOK, Latency: end.Sub(start), CheckedAt: end}
			switch {
			case err == nil:
			case errors.Is(err, context.DeadlineExceeded):
				result.Status, result.Detail = domain.HealthStatusError, "timeout"
			case errors.Is(err, context.Canceled):
				result.Status, result.Detail = domain.HealthStatusError, "cancelled"
			default:
				result.Status, result.Detail = domain.HealthStatusDegraded, err.Error()
			}
			mu.Lock()
			results[check.Name] = result
			mu.Unlock()
		}(check)
	}
	wg.Wait()

	status := domain.HealthStatusOK
	for _, result := range results {
		if result.Status == domain.HealthStatusError {
			status = domain.HealthStatusError
			break
		}
		if result.Status == domain.HealthStatusDegraded {
			status = domain.HealthStatusDegraded
		}
	}
	return domain.HealthReport{Status: status, Checks: results, GeneratedAt: h.now()}
}
