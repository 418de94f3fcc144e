package secrets

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultFallbackPath = ".secrets.local"
	defaultCacheTTL     = 10 * time.Minute
	meterName           = "github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/secrets"
)

// ErrNotFound is returned when neither Secret Manager nor the fallback file has the secret.
var ErrNotFound = errors.New("secrets: secret not found")

var newSecretManagerClient = func(ctx context.Context, opts ...option.ClientOption) (accessClient, error) {
	return secretmanager.NewClient(ctx, opts...)
}

type accessClient interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

// Fetcher resolves secret://name?version=&project= references against
// Secret Manager, caching values and falling back to a local file when the
// remote is unreachable or no project is configured.
type Fetcher struct {
	client     accessClient
	ownsClient bool
	logger     *zap.Logger
	projectID  string
	ttl        time.Duration
	now        func() time.Time

	fallbackPath string
	fallbackOnce sync.Once
	fallback     map[string]string

	mu    sync.Mutex
	cache map[string]cached

	latency metric.Float64Histogram
}

type cached struct {
	value   string
	expires time.Time
}

type options struct {
	logger       *zap.Logger
	projectID    string
	fallbackPath string
	ttl          time.Duration
	client       accessClient
	clientOpts   []option.ClientOption
	now          func() time.Time
}

// Option customises Fetcher construction.
type Option func(*options)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithProject sets the project used for references without ?project=.
func WithProject(projectID string) Option {
	return func(o *options) { o.projectID = strings.TrimSpace(projectID) }
}

// WithFallbackFile overrides the local fallback file path.
func WithFallbackFile(path string) Option {
	return func(o *options) {
		if strings.TrimSpace(path) != "" {
			o.fallbackPath = strings.TrimSpace(path)
		}
	}
}

// WithCacheTTL sets how long resolved values are reused.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

// WithClient injects a Secret Manager client.
func WithClient(client accessClient) Option {
	return func(o *options) { o.client = client }
}

// WithClientOptions forwards options to the Secret Manager client constructor.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(o *options) { o.clientOpts = append(o.clientOpts, opts...) }
}

// WithClock overrides the clock, used by tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewFetcher constructs a Fetcher. A Secret Manager client is only created
// when a project is configured; otherwise the fetcher works from the
// fallback file alone.
func NewFetcher(ctx context.Context, opts ...Option) (*Fetcher, error) {
	cfg := options{
		logger:       zap.NewNop(),
		fallbackPath: defaultFallbackPath,
		ttl:          defaultCacheTTL,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	latency, err := otel.GetMeterProvider().Meter(meterName).Float64Histogram(
		"secrets.fetch.latency",
		metric.WithUnit("ms"),
		metric.WithDescription("Latency of secret resolution"),
	)
	if err != nil {
		cfg.logger.Warn("secrets: latency metric unavailable", zap.Error(err))
	}

	f := &Fetcher{
		client:       cfg.client,
		logger:       cfg.logger,
		projectID:    cfg.projectID,
		ttl:          cfg.ttl,
		now:          cfg.now,
		fallbackPath: cfg.fallbackPath,
		cache:        make(map[string]cached),
		latency:      latency,
	}
	if f.client == nil && f.projectID != "" {
		client, err := newSecretManagerClient(ctx, cfg.clientOpts...)
		if err != nil {
			cfg.logger.Warn("secrets: secret manager unavailable, using fallback file only", zap.Error(err))
		} else {
			f.client = client
			f.ownsClient = true
		}
	}
	return f, nil
}

// Close releases the Secret Manager client when the fetcher created it.
func (f *Fetcher) Close() error {
	if f.ownsClient && f.client != nil {
		return f.client.Close()
	}
	return nil
}

// Resolve returns the secret value for ref.
func (f *Fetcher) Resolve(ctx context.Context, ref string) (string, error) {
	start := f.now()
	parsed, err := parseReference(ref)
	if err != nil {
		return "", err
	}
	key := parsed.key()

	f.mu.Lock()
	entry, ok := f.cache[key]
	f.mu.Unlock()
	if ok && f.now().Before(entry.expires) {
		f.record(ctx, start, "cache")
		return entry.value, nil
	}

	project := parsed.project
	if project == "" {
		project = f.projectID
	}
	if project != "" && f.client != nil {
		name := fmt.Sprintf("projects/%s/secrets/%s/versions/%s", project, parsed.name, parsed.version)
		resp, err := f.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
		switch {
		case err == nil:
			value := string(resp.GetPayload().GetData())
			f.store(key, value)
			f.record(ctx, start, "remote")
			return value, nil
		case !fallbackAllowed(err):
			f.record(ctx, start, "error")
			return "", fmt.Errorf("secrets: access %s: %w", parsed.name, err)
		default:
			f.logger.Debug("secrets: remote unavailable, using fallback", zap.String("secret", parsed.name), zap.Error(err))
		}
	}

	value, ok := f.lookupFallback(parsed)
	if !ok {
		f.record(ctx, start, "error")
		return "", fmt.Errorf("%w: %s", ErrNotFound, parsed.name)
	}
	f.store(key, value)
	f.record(ctx, start, "fallback")
	return value, nil
}

func (f *Fetcher) store(key, value string) {
	f.mu.Lock()
	f.cache[key] = cached{value: value, expires: f.now().Add(f.ttl)}
	f.mu.Unlock()
}

func (f *Fetcher) record(ctx context.Context, start time.Time, source string) {
	if f.latency == nil {
		return
	}
	elapsed := f.now().Sub(start)
	f.latency.Record(ctx, float64(elapsed)/float64(time.Millisecond), metric.WithAttributes(attribute.String("source", source)))
}

// lookupFallback reads lines of the form secret://name=value (or
// secret://name?version=2=value) from the fallback file.
func (f *Fetcher) lookupFallback(ref reference) (string, bool) {
	f.fallbackOnce.Do(func() {
		f.fallback = map[string]string{}
		file, err := os.Open(f.fallbackPath)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				f.logger.Warn("secrets: cannot open fallback file", zap.String("path", f.fallbackPath), zap.Error(err))
			}
			return
		}
		defer file.Close()
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			idx := strings.LastIndex(line, "=")
			if idx <= 0 {
				continue
			}
			rawRef := strings.TrimSpace(line[:idx])
			if rest, ok := strings.CutPrefix(rawRef, "sm://"); ok {
				rawRef = "secret://" + rest
			}
			parsed, err := parseReference(rawRef)
			if err != nil {
				continue
			}
			f.fallback[parsed.key()] = strings.TrimSpace(line[idx+1:])
		}
	})
	if value, ok := f.fallback[ref.key()]; ok {
		return value, true
	}
	latest := ref
	latest.version = "latest"
	value, ok := f.fallback[latest.key()]
	return value, ok
}

type reference struct {
	name    string
	version string
	project string
}

func (r reference) key() string {
	return r.project + "/" + r.name + "#" + r.version
}

func parseReference(ref string) (reference, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return reference{}, fmt.Errorf("secrets: invalid reference %q: %w", ref, err)
	}
	if u.Scheme != "secret" {
		return reference{}, fmt.Errorf("secrets: unsupported scheme %q", u.Scheme)
	}
	name := strings.Trim(u.Host+u.Path, "/")
	if name == "" {
		return reference{}, fmt.Errorf("secrets: missing secret name in %q", ref)
	}
	// Secret Manager ids cannot contain slashes.
	name = strings.ReplaceAll(name, "/", "-")
	version := strings.TrimSpace(u.Query().Get("version"))
	if version == "" {
		version = "latest"
	}
	return reference{name: name, version: version, project: strings.TrimSpace(u.Query().Get("project"))}, nil
}

func fallbackAllowed(err error) bool {
	switch status.Code(err) {
	case codes.PermissionDenied, codes.Unauthenticated, codes.Unavailable, codes.DeadlineExceeded:
		return true
	}
	return false
}
