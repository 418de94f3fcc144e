package config

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	defaultEnvFile         = ".env"
	defaultPort            = "8080"
	defaultEnvironment     = "local"
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultBucket          = "site-images"
	defaultMediaPrefix     = "/media"
	defaultSessionCookie   = "site_session"
	defaultSessionTTL      = 12 * time.Hour
	defaultSMTPPort        = 587
	defaultNATSSubject     = "site.sessions"
	defaultMaxOpenConns    = 10
)

// Backend selectors.
const (
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
	BackendPostgres  = "postgres"

	StorageMemory = "memory"
	StorageGCS    = "gcs"
	StorageS3     = "s3"

	AuthLocal    = "local"
	AuthFirebase = "firebase"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	Backend     string
	Firestore   FirestoreConfig
	Postgres    PostgresConfig
	Storage     StorageConfig
	Auth        AuthConfig
	Mail        MailConfig
	Events      EventsConfig
	PubSub      PubSubConfig
	Secrets     SecretsConfig
	Tracing     TracingConfig
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port            string
	BaseURL         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// FirestoreConfig configures the document backend.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// PostgresConfig configures the relational backend.
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
}

// StorageConfig selects where uploaded images live and how their public URLs are built.
type StorageConfig struct {
	Driver        string
	Bucket        string
	PublicBaseURL string
	MediaPrefix   string
	S3Region      string
	S3Endpoint    string
}

// AuthConfig configures dashboard sign-in and the session cookie.
type AuthConfig struct {
	Driver            string
	FirebaseProjectID string
	FirebaseAPIKey    string
	SessionCookieName string
	SessionHashKey    string
	SessionBlockKey   string
	SessionTTL        time.Duration
	SecureCookie      bool
}

// MailConfig configures contact notifications by e-mail. An empty Host disables mail.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// EventsConfig configures the optional NATS bridge for session events.
type EventsConfig struct {
	NATSURL string
	Subject string
}

// PubSubConfig configures publishing of new contact messages.
type PubSubConfig struct {
	ProjectID    string
	ContactTopic string
}

// SecretsConfig configures Secret Manager lookups for secret:// references.
type SecretsConfig struct {
	ProjectID    string
	FallbackFile string
}

// TracingConfig configures trace correlation in logs.
type TracingConfig struct {
	ProjectID string
}

// SecretResolver resolves secret:// references.
type SecretResolver interface {
	ResolveSecret(ctx context.Context, ref string) (string, error)
}

// SecretResolverFunc adapts ordinary functions to SecretResolver.
type SecretResolverFunc func(context.Context, string) (string, error)

// ResolveSecret calls f.
func (f SecretResolverFunc) ResolveSecret(ctx context.Context, ref string) (string, error) {
	return f(ctx, ref)
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile         string
	envMap          map[string]string
	useSystemEnv    bool
	secret          SecretResolver
	requiredSecrets []string
}

func newLoaderOptions(opts []Option) loaderOptions {
	options := loaderOptions{envFile: defaultEnvFile, useSystemEnv: true}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// WithEnvFile overrides the .env path. An empty path disables the file.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) { o.envFile = path }
}

// WithEnvMap injects explicit values which take precedence over the OS environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) { o.envMap = values }
}

// WithoutSystemEnv stops the loader from reading os.Environ.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) { o.useSystemEnv = false }
}

// WithSecretResolver sets the resolver used for secret:// and sm:// values.
func WithSecretResolver(resolver SecretResolver) Option {
	return func(o *loaderOptions) { o.secret = resolver }
}

// WithRequiredSecrets marks secret fields (e.g. "Auth.SessionHashKey") as mandatory.
func WithRequiredSecrets(names ...string) Option {
	return func(o *loaderOptions) { o.requiredSecrets = append(o.requiredSecrets, names...) }
}

// EnvironmentValues returns the merged environment (dotenv < OS < explicit map)
// so callers can build the secret fetcher before calling Load.
func EnvironmentValues(opts ...Option) (map[string]string, error) {
	options := newLoaderOptions(opts)
	values, err := loadDotEnv(options.envFile)
	if err != nil {
		return nil, err
	}
	if values == nil {
		values = make(map[string]string)
	}
	if options.useSystemEnv {
		for key, value := range systemEnv() {
			values[key] = value
		}
	}
	for key, value := range options.envMap {
		values[key] = value
	}
	return values, nil
}

// Load assembles the configuration from defaults, the .env file, the
// environment and Secret Manager.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	options := newLoaderOptions(opts)
	values, err := EnvironmentValues(opts...)
	if err != nil {
		return Config{}, err
	}
	var env lookupFunc = func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}

	cfg := Config{
		Environment: strings.ToLower(env.str("SITE_ENV", defaultEnvironment)),
		LogLevel:    env.str("SITE_LOG_LEVEL", env.str("LOG_LEVEL", "")),
		Server: ServerConfig{
			Port:            env.str("SITE_PORT", env.str("PORT", defaultPort)),
			BaseURL:         strings.TrimRight(env.str("SITE_BASE_URL", ""), "/"),
			ReadTimeout:     env.duration("SITE_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:    env.duration("SITE_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:     env.duration("SITE_IDLE_TIMEOUT", defaultIdleTimeout),
			ShutdownTimeout: env.duration("SITE_SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		},
		Backend: strings.ToLower(env.str("SITE_BACKEND", BackendMemory)),
		Firestore: FirestoreConfig{
			ProjectID:    env.str("SITE_FIRESTORE_PROJECT_ID", env.str("GOOGLE_CLOUD_PROJECT", "")),
			EmulatorHost: env.str("FIRESTORE_EMULATOR_HOST", ""),
		},
		Postgres: PostgresConfig{
			DSN:          env.str("SITE_POSTGRES_DSN", ""),
			MaxOpenConns: env.integer("SITE_POSTGRES_MAX_OPEN_CONNS", defaultMaxOpenConns),
		},
		Storage: StorageConfig{
			Driver:        strings.ToLower(env.str("SITE_STORAGE_DRIVER", StorageMemory)),
			Bucket:        env.str("SITE_STORAGE_BUCKET", defaultBucket),
			PublicBaseURL: strings.TrimRight(env.str("SITE_STORAGE_PUBLIC_BASE_URL", ""), "/"),
			MediaPrefix:   "/" + strings.Trim(env.str("SITE_STORAGE_MEDIA_PREFIX", defaultMediaPrefix), "/"),
			S3Region:      env.str("SITE_S3_REGION", env.str("AWS_REGION", "")),
			S3Endpoint:    env.str("SITE_S3_ENDPOINT", ""),
		},
		Auth: AuthConfig{
			Driver:            strings.ToLower(env.str("SITE_AUTH_DRIVER", AuthLocal)),
			FirebaseProjectID: env.str("SITE_FIREBASE_PROJECT_ID", ""),
			FirebaseAPIKey:    env.str("SITE_FIREBASE_API_KEY", ""),
			SessionCookieName: env.str("SITE_SESSION_COOKIE_NAME", defaultSessionCookie),
			SessionHashKey:    env.str("SITE_SESSION_HASH_KEY", ""),
			SessionBlockKey:   env.str("SITE_SESSION_BLOCK_KEY", ""),
			SessionTTL:        env.duration("SITE_SESSION_TTL", defaultSessionTTL),
			SecureCookie:      env.boolean("SITE_SESSION_SECURE_COOKIE", false),
		},
		Mail: MailConfig{
			Host:     env.str("SITE_SMTP_HOST", ""),
			Port:     env.integer("SITE_SMTP_PORT", defaultSMTPPort),
			Username: env.str("SITE_SMTP_USERNAME", ""),
			Password: env.str("SITE_SMTP_PASSWORD", ""),
			From:     env.str("SITE_MAIL_FROM", ""),
			To:       env.csv("SITE_MAIL_TO"),
		},
		Events: EventsConfig{
			NATSURL: env.str("SITE_NATS_URL", ""),
			Subject: env.str("SITE_NATS_SUBJECT", defaultNATSSubject),
		},
		PubSub: PubSubConfig{
			ProjectID:    env.str("SITE_PUBSUB_PROJECT_ID", ""),
			ContactTopic: env.str("SITE_PUBSUB_CONTACT_TOPIC", ""),
		},
		Secrets: SecretsConfig{
			ProjectID:    env.str("SITE_SECRETS_PROJECT_ID", ""),
			FallbackFile: env.str("SITE_SECRETS_FALLBACK_FILE", ""),
		},
		Tracing: TracingConfig{
			ProjectID: env.str("SITE_TRACE_PROJECT_ID", ""),
		},
	}
	if cfg.PubSub.ProjectID == "" {
		cfg.PubSub.ProjectID = cfg.Firestore.ProjectID
	}
	if cfg.Auth.FirebaseProjectID == "" {
		cfg.Auth.FirebaseProjectID = cfg.Firestore.ProjectID
	}

	resolved := make(map[string]string)
	secretFields := []struct {
		name  string
		field *string
	}{
		{"Postgres.DSN", &cfg.Postgres.DSN},
		{"Auth.FirebaseAPIKey", &cfg.Auth.FirebaseAPIKey},
		{"Auth.SessionHashKey", &cfg.Auth.SessionHashKey},
		{"Auth.SessionBlockKey", &cfg.Auth.SessionBlockKey},
		{"Mail.Password", &cfg.Mail.Password},
	}
	for _, target := range secretFields {
		value, err := resolveSecret(ctx, *target.field, options.secret)
		if err != nil {
			return Config{}, fmt.Errorf("config: resolve %s: %w", target.name, err)
		}
		*target.field = value
		resolved[target.name] = value
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	if missing := findMissingSecrets(options.requiredSecrets, resolved); missing != nil {
		return Config{}, missing
	}
	return cfg, nil
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

// IsLocal reports whether the process runs in local development mode.
func (c Config) IsLocal() bool {
	return c.Environment == defaultEnvironment
}

func resolveSecret(ctx context.Context, value string, resolver SecretResolver) (string, error) {
	if !isSecretReference(value) {
		return value, nil
	}
	ref := normalizeSecretReference(value)
	if resolver == nil {
		return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
	}
	secret, err := resolver.ResolveSecret(ctx, ref)
	if err != nil {
		return "", &SecretError{Ref: ref, Err: err}
	}
	return secret, nil
}

func isSecretReference(value string) bool {
	trimmed := strings.TrimSpace(value)
	return strings.HasPrefix(trimmed, "secret://") || strings.HasPrefix(trimmed, "sm://")
}

func normalizeSecretReference(value string) string {
	trimmed := strings.TrimSpace(value)
	if rest, ok := strings.CutPrefix(trimmed, "sm://"); ok {
		return "secret://" + rest
	}
	return trimmed
}

func validateConfig(cfg Config) error {
	var invalid []string
	add := func(field string) { invalid = append(invalid, field) }

	if strings.TrimSpace(cfg.Server.Port) == "" {
		add("Server.Port")
	}
	switch cfg.Backend {
	case BackendMemory:
	case BackendFirestore:
		if cfg.Firestore.ProjectID == "" {
			add("Firestore.ProjectID")
		}
	case BackendPostgres:
		if cfg.Postgres.DSN == "" {
			add("Postgres.DSN")
		}
	default:
		add("Backend")
	}
	switch cfg.Storage.Driver {
	case StorageMemory:
	case StorageGCS:
		if cfg.Storage.Bucket == "" {
			add("Storage.Bucket")
		}
	case StorageS3:
		if cfg.Storage.Bucket == "" {
			add("Storage.Bucket")
		}
		if cfg.Storage.S3Region == "" {
			add("Storage.S3Region")
		}
	default:
		add("Storage.Driver")
	}
	switch cfg.Auth.Driver {
	case AuthLocal:
		// local accounts are kept in the relational or in-memory user store
		if cfg.Backend == BackendFirestore {
			add("Auth.Driver")
		}
	case AuthFirebase:
		if cfg.Auth.FirebaseProjectID == "" {
			add("Auth.FirebaseProjectID")
		}
		if cfg.Auth.FirebaseAPIKey == "" {
			add("Auth.FirebaseAPIKey")
		}
	default:
		add("Auth.Driver")
	}
	if cfg.Auth.SessionTTL <= 0 {
		add("Auth.SessionTTL")
	}
	if !cfg.IsLocal() && len(cfg.Auth.SessionHashKey) < 32 {
		add("Auth.SessionHashKey")
	}
	if cfg.Mail.Host != "" {
		if cfg.Mail.From == "" {
			add("Mail.From")
		}
		if len(cfg.Mail.To) == 0 {
			add("Mail.To")
		}
	}
	if cfg.PubSub.ContactTopic != "" && cfg.PubSub.ProjectID == "" {
		add("PubSub.ProjectID")
	}

	if len(invalid) > 0 {
		return &ValidationError{fields: invalid}
	}
	return nil
}
