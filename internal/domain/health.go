package domain

import "time"

// HealthStatus summarises a dependency probe.
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "ok"
	HealthStatusDegraded HealthStatus = "degraded"
	HealthStatusError    HealthStatus = "error"
)

// HealthCheck is the outcome of one dependency probe.
type HealthCheck struct {
	Status    HealthStatus  `json:"status"`
	Detail    string        `json:"detail,omitempty"`
	Latency   time.Duration `json:"latency_ns"`
	CheckedAt time.Time     `json:"checked_at"`
}

// HealthReport aggregates every probe for /readyz.
type HealthReport struct {
	Status      HealthStatus           `json:"status"`
	Checks      map[string]HealthCheck `json:"checks"`
	GeneratedAt time.Time              `json:"generated_at"`
}
