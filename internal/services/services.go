// Package services holds the use cases behind the public page and the
// dashboard: section fetching, contact intake, stats, uploads, sign-in and
// the per-session record managers.
package services

import (
	"context"
	"errors"
	"time"
)

// Logger is the logging callback services accept. cmd/site wires it to zap.
type Logger func(ctx context.Context, event string, fields map[string]any)

func nopLogger(context.Context, string, map[string]any) {}

func orNop(l Logger) Logger {
	if l == nil {
		return nopLogger
	}
	return l
}

func utcClock(clock func() time.Time) func() time.Time {
	if clock == nil {
		clock = time.Now
	}
	return func() time.Time { return clock().UTC() }
}

// ErrRepositoryMissing is returned by constructors when a required repository is nil.
var ErrRepositoryMissing = errors.New("services: repository is not configured")
