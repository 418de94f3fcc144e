package testutil

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/crypto/bcrypt"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/cms"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/domain"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/httpserver"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/i18n"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/events"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/storage"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/repositories"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/repositories/memory"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/services"
	appsession "github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/session"
)

// Clock is a settable clock shared by every component of a test site.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Site is a running site over in-memory backends.
type Site struct {
	Server   *httptest.Server
	Store    *memory.Store
	Registry repositories.Registry
	Media    *storage.MemoryStore
	Broker   *events.Broker
	Sweeper  *appsession.Sweeper
	Managers *services.ManagerRegistry
	Clock    *Clock
}

// SiteOption customises the server configuration for tests.
type SiteOption func(*siteOptions)

type siteOptions struct {
	seed   bool
	budget time.Duration
	config func(*httpserver.Config)
}

// WithSeed writes the default sections and services before serving.
func WithSeed() SiteOption {
	return func(o *siteOptions) { o.seed = true }
}

// WithSectionBudget overrides how long the home page waits for sections.
func WithSectionBudget(d time.Duration) SiteOption {
	return func(o *siteOptions) { o.budget = d }
}

// WithConfig edits the server configuration before the handler is built.
func WithConfig(fn func(*httpserver.Config)) SiteOption {
	return func(o *siteOptions) { o.config = fn }
}

// NewServer constructs an httptest server running the site stack on the
// memory backend with sensible defaults.
func NewServer(t testing.TB, opts ...SiteOption) *Site {
	t.Helper()

	o := siteOptions{budget: time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	clock := &Clock{now: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)}
	store := memory.NewStore(memory.WithClock(clock.Now))
	reg := store.Registry()
	media := storage.NewMemoryStore("/media")
	broker := events.NewBroker(events.WithBrokerClock(clock.Now))
	t.Cleanup(func() { _ = broker.Close() })

	defaults := cms.MustLoad()
	if o.seed {
		if _, err := services.Seed(context.Background(), reg, defaults); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	bundle, err := i18n.Default()
	if err != nil {
		t.Fatalf("i18n: %v", err)
	}
	renderer := cms.NewRenderer()
	sections, err := services.NewSectionService(services.SectionServiceDeps{
		SiteContent: reg.SiteContent,
		Services:    reg.Services,
		Gallery:     reg.Gallery,
		Defaults:    defaults,
	})
	if err != nil {
		t.Fatalf("sections: %v", err)
	}
	contact, err := services.NewContactService(services.ContactServiceDeps{Messages: reg.Messages, Renderer: renderer})
	if err != nil {
		t.Fatalf("contact: %v", err)
	}
	provider, err := services.NewLocalIdentityProvider(reg.Users, bcrypt.MinCost, clock.Now)
	if err != nil {
		t.Fatalf("identity: %v", err)
	}
	auth, err := services.NewAuthService(provider, nil)
	if err != nil {
		t.Fatalf("auth: %v", err)
	}
	stats, err := services.NewStatsService(reg, nil)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	uploader, err := services.NewUploader(media, clock.Now)
	if err != nil {
		t.Fatalf("uploader: %v", err)
	}
	managers := services.NewManagerRegistry(services.ManagerDeps{Registry: reg, Uploader: uploader, Clock: clock.Now})
	sessions, err := appsession.NewManager(appsession.Config{
		HashKey:  []byte("0123456789abcdef0123456789abcdef"),
		Lifetime: 2 * time.Hour,
		Now:      clock.Now,
	})
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	sweeper := appsession.NewSweeper(broker, clock.Now, managers.Drop)
	health := repositories.NewHealthChecker([]repositories.DependencyCheck{
		{Name: "backend", Check: reg.Ping},
		{Name: "storage", Check: media.Ping},
	}, clock.Now)

	cfg := httpserver.Config{
		Address:       ":0",
		Bundle:        bundle,
		Renderer:      renderer,
		Sessions:      sessions,
		Sweeper:       sweeper,
		Broker:        broker,
		Sections:      sections,
		Contact:       contact,
		Auth:          auth,
		Stats:         stats,
		Managers:      managers,
		Health:        health,
		Media:         media,
		MediaPrefix:   media.Prefix(),
		SectionBudget: o.budget,
		Now:           clock.Now,
	}
	if o.config != nil {
		o.config(&cfg)
	}
	handler, err := httpserver.NewHandler(cfg)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	return &Site{
		Server:   ts,
		Store:    store,
		Registry: reg,
		Media:    media,
		Broker:   broker,
		Sweeper:  sweeper,
		Managers: managers,
		Clock:    clock,
	}
}

// AddUser registers a dashboard account with the given password.
func (s *Site) AddUser(t testing.TB, email, password, fullName string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if _, err := s.Registry.Users.Insert(context.Background(), domain.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
	}); err != nil {
		t.Fatalf("insert user: %v", err)
	}
}

// Browser is an HTTP client with a cookie jar that does not follow redirects.
type Browser struct {
	t      testing.TB
	base   string
	Client *http.Client
}

// NewBrowser returns a client for the site.
func (s *Site) NewBrowser(t testing.TB) *Browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &Browser{
		t:    t,
		base: s.Server.URL,
		Client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Response is a fully read response.
type Response struct {
	*http.Response
	Body []byte
}

// Doc parses the body as HTML.
func (r Response) Doc(t testing.TB) *goquery.Document {
	t.Helper()
	return ParseHTML(t, r.Body)
}

// Get issues a GET. htmx marks the request as coming from htmx.
func (b *Browser) Get(path string, htmx bool) Response {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodGet, b.base+path, nil)
	if err != nil {
		b.t.Fatalf("new request: %v", err)
	}
	return b.do(req, htmx)
}

// PostForm posts form values with the session's CSRF token.
func (b *Browser) PostForm(path string, values url.Values, htmx bool) Response {
	b.t.Helper()
	if values == nil {
		values = url.Values{}
	}
	if values.Get("csrf_token") == "" {
		values.Set("csrf_token", b.CSRFToken())
	}
	req, err := http.NewRequest(http.MethodPost, b.base+path, strings.NewReader(values.Encode()))
	if err != nil {
		b.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req, htmx)
}

// Post sends body with a content type and the CSRF header.
func (b *Browser) Post(path, contentType string, body io.Reader, htmx bool) Response {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodPost, b.base+path, body)
	if err != nil {
		b.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-CSRF-Token", b.CSRFToken())
	return b.do(req, htmx)
}

// CSRFToken loads the sign-in page and reads the token of this session.
func (b *Browser) CSRFToken() string {
	b.t.Helper()
	resp := b.Get("/auth", false)
	token, _ := resp.Doc(b.t).Find(`meta[name="csrf-token"]`).Attr("content")
	if token == "" {
		// Signed-in sessions are redirected away from /auth.
		resp = b.Get("/", false)
		token, _ = resp.Doc(b.t).Find(`meta[name="csrf-token"]`).Attr("content")
	}
	if token == "" {
		b.t.Fatalf("no csrf token found")
	}
	return token
}

// SignIn signs the browser in through the form.
func (b *Browser) SignIn(email, password string) Response {
	b.t.Helper()
	return b.PostForm("/auth/signin", url.Values{"email": {email}, "password": {password}}, false)
}

func (b *Browser) do(req *http.Request, htmx bool) Response {
	b.t.Helper()
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	resp, err := b.Client.Do(req)
	if err != nil {
		b.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		b.t.Fatalf("read body: %v", err)
	}
	return Response{Response: resp, Body: body}
}
