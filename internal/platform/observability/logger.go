package observability

import (
	"context"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/requestctx"
)

const defaultLogLevel = "info"

// NewLogger builds the JSON logger shared by every command. An empty level
// falls back to LOG_LEVEL and then to info.
func NewLogger(level string) (*zap.Logger, error) {
	if strings.TrimSpace(level) == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	atomic := zap.NewAtomicLevel()
	if err := atomic.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		_ = atomic.UnmarshalText([]byte(defaultLogLevel))
	}

	encoderCfg := zapcore.EncoderConfig{
		MessageKey: "message",
		TimeKey:    "timestamp",
		LevelKey:   "severity",
		NameKey:    "logger",
		EncodeTime: zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(strings.ToUpper(level.String()))
		},
		EncodeName:    zapcore.FullNameEncoder,
		CallerKey:     "caller",
		EncodeCaller:  zapcore.ShortCallerEncoder,
		StacktraceKey: "stacktrace",
	}

	cfg := zap.Config{
		Level:             atomic,
		Encoding:          "json",
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: true,
	}
	return cfg.Build()
}

// FromContext retrieves the request logger, defaulting to a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	return requestctx.Logger(ctx)
}

// ServiceLogger is the callback signature services accept so they stay free
// of a logging dependency.
type ServiceLogger func(ctx context.Context, event string, fields map[string]any)

// NewServiceLogger adapts zap to ServiceLogger. Events whose name ends in
// ".failed" or ".error" are logged at warn, everything else at debug.
func NewServiceLogger(base *zap.Logger, name string) ServiceLogger {
	if base == nil {
		base = zap.NewNop()
	}
	named := base.Named(name)
	return func(ctx context.Context, event string, fields map[string]any) {
		logger := named
		if reqLogger := requestctx.Logger(ctx); reqLogger != requestctx.NoopLogger() {
			logger = reqLogger.Named(name)
		}
		zapFields := make([]zap.Field, 0, len(fields)+1)
		zapFields = append(zapFields, zap.String("event", event))
		keys := make([]string, 0, len(fields))
		for key := range fields {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			zapFields = append(zapFields, zap.Any(key, fields[key]))
		}
		if strings.HasSuffix(event, ".failed") || strings.HasSuffix(event, ".error") {
			logger.Warn(name+" event", zapFields...)
			return
		}
		logger.Debug(name+" event", zapFields...)
	}
}
