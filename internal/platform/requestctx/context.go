// Package requestctx carries per-request values (logger, trace, signed-in
// actor, page language) from middleware down to handlers and services.
package requestctx

import (
	"context"

	"go.uber.org/zap"
)

type key int

const (
	loggerKey key = iota
	traceKey
	actorKey
	langKey
)

const defaultLang = "ar"

var noopLogger = zap.NewNop()

type TraceInfo struct {
	TraceID   string
	SpanID    string
	Sampled   bool
	ProjectID string
}

// Actor is the dashboard user bound to the request's session.
type Actor struct {
	UserID    string
	Email     string
	SessionID string
}

func with(ctx context.Context, k key, v any) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, k, v)
}

func value[T any](ctx context.Context, k key) (T, bool) {
	var zero T
	if ctx == nil {
		return zero, false
	}
	v, ok := ctx.Value(k).(T)
	return v, ok
}

func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if logger == nil {
		logger = noopLogger
	}
	return with(ctx, loggerKey, logger)
}

// Logger never returns nil.
func Logger(ctx context.Context) *zap.Logger {
	if logger, ok := value[*zap.Logger](ctx, loggerKey); ok && logger != nil {
		return logger
	}
	return noopLogger
}

func NoopLogger() *zap.Logger { return noopLogger }

func WithTrace(ctx context.Context, info TraceInfo) context.Context {
	return with(ctx, traceKey, info)
}

func Trace(ctx context.Context) (TraceInfo, bool) {
	return value[TraceInfo](ctx, traceKey)
}

func TraceID(ctx context.Context) string {
	info, _ := Trace(ctx)
	return info.TraceID
}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return with(ctx, actorKey, actor)
}

// ActorFrom reports false for anonymous visitors.
func ActorFrom(ctx context.Context) (Actor, bool) {
	actor, ok := value[Actor](ctx, actorKey)
	if !ok || actor.UserID == "" {
		return Actor{}, false
	}
	return actor, true
}

func UserID(ctx context.Context) string {
	actor, _ := ActorFrom(ctx)
	return actor.UserID
}

// WithLang stores the negotiated page language, "ar" or "en".
func WithLang(ctx context.Context, lang string) context.Context {
	return with(ctx, langKey, lang)
}

func Lang(ctx context.Context) string {
	if lang, ok := value[string](ctx, langKey); ok && lang != "" {
		return lang
	}
	return defaultLang
}
