// Package httpserver serves the public site, the sign-in page and the
// dashboard as server-rendered HTML with htmx fragments.
package httpserver

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/cms"
	custommw "github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/httpserver/middleware"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/i18n"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/events"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/observability"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/repositories"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/services"
	appsession "github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/session"
)

// DefaultSectionBudget is how long the home page waits for section data
// before sending skeletons for the sections still loading.
const DefaultSectionBudget = 250 * time.Millisecond

// Broker publishes session events and feeds the dashboard streams.
type Broker interface {
	Publish(ctx context.Context, event events.Event) error
	Subscribe(userID string) (<-chan events.Event, func())
}

// Config holds runtime options and dependencies of the site server.
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	Logger    *zap.Logger
	ProjectID string

	Bundle   *i18n.Bundle
	Renderer *cms.Renderer
	Sessions *appsession.Manager
	Sweeper  *appsession.Sweeper
	Broker   Broker

	Sections *services.SectionService
	Contact  *services.ContactService
	Auth     *services.AuthService
	Stats    *services.StatsService
	Managers *services.ManagerRegistry
	Health   *repositories.HealthChecker

	// Media serves uploaded objects when the store is local.
	Media       http.Handler
	MediaPrefix string

	SectionBudget time.Duration
	SecureCookies bool
	Location      *time.Location
	Now           func() time.Time
}

// New constructs the HTTP server with its middleware stack and embedded assets.
func New(cfg Config) (*http.Server, error) {
	handler, err := NewHandler(cfg)
	if err != nil {
		return nil, err
	}
	readTimeout := orDefault(cfg.ReadTimeout, 15*time.Second)
	return &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      orDefault(cfg.WriteTimeout, 30*time.Second),
		IdleTimeout:       orDefault(cfg.IdleTimeout, 60*time.Second),
	}, nil
}

// NewHandler builds the router. It is separate from New so tests can drive
// it with httptest.
func NewHandler(cfg Config) (http.Handler, error) {
	switch {
	case cfg.Bundle == nil:
		return nil, errors.New("httpserver: i18n bundle is required")
	case cfg.Sessions == nil:
		return nil, errors.New("httpserver: session manager is required")
	case cfg.Sections == nil || cfg.Contact == nil:
		return nil, errors.New("httpserver: section and contact services are required")
	case cfg.Auth == nil || cfg.Stats == nil || cfg.Managers == nil:
		return nil, errors.New("httpserver: dashboard services are required")
	case cfg.Broker == nil:
		return nil, errors.New("httpserver: event broker is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	renderer := cfg.Renderer
	if renderer == nil {
		renderer = cms.NewRenderer()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	budget := cfg.SectionBudget
	if budget == 0 {
		budget = DefaultSectionBudget
	}

	v, err := newViews(cfg.Bundle, renderer, loc)
	if err != nil {
		return nil, err
	}
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, err
	}

	var tracker sessionTracker
	if cfg.Sweeper != nil {
		tracker = cfg.Sweeper
	}

	public := &publicHandlers{sections: cfg.Sections, contact: cfg.Contact, bundle: cfg.Bundle, views: v, budget: budget, now: now}
	auth := &authHandlers{auth: cfg.Auth, managers: cfg.Managers, tracker: tracker, events: cfg.Broker, bundle: cfg.Bundle, views: v, now: now}
	dash := &dashboardHandlers{managers: cfg.Managers, stats: cfg.Stats, bundle: cfg.Bundle, views: v}
	stream := &eventHandlers{broker: cfg.Broker}
	health := &healthHandlers{checker: cfg.Health, started: now(), now: now}

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(observability.InjectLoggerMiddleware(logger))
	router.Use(observability.TraceMiddleware(cfg.ProjectID))
	router.Use(observability.RequestLoggerMiddleware(cfg.ProjectID))
	router.Use(observability.RecoveryMiddleware(logger))

	router.Get("/healthz", health.Live)
	router.Get("/readyz", health.Ready)
	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	if cfg.Media != nil {
		prefix := "/" + strings.Trim(orString(cfg.MediaPrefix, "/media"), "/")
		router.Handle(prefix+"/*", cfg.Media)
	}

	onExpired := expiredSessionHook(cfg.Broker, cfg.Managers, tracker)

	router.Group(func(r chi.Router) {
		r.Use(custommw.HTMX())
		r.Use(custommw.Session(cfg.Sessions, onExpired))
		r.Use(custommw.Locale(cfg.Bundle, cfg.SecureCookies))
		r.Use(custommw.CSRF())

		r.Get("/", public.Home)
		r.Get("/sections/{name}", public.Section)
		r.Post("/contact", public.Contact)

		r.Get(loginPath, auth.Page)
		r.Post(loginPath+"/signin", auth.SignIn)
		r.Post(loginPath+"/signup", auth.SignUp)
		r.Post(loginPath+"/signout", auth.SignOut)

		r.Route(dashboardPath, func(r chi.Router) {
			r.Use(custommw.NoStore())
			r.Use(custommw.Auth(loginPath))
			r.Use(trackSessions(tracker))

			r.Get("/", dash.Page)
			r.Get("/events", stream.Stream)
			r.Post("/services/new", dash.NewService)
			r.Post("/gallery/upload", dash.UploadGallery)
			r.Post("/gallery/{id}/rename", dash.RenameImage)
			r.Post("/messages/{id}/read", dash.MarkRead)
			r.Post("/content/{id}/image", dash.UploadSectionImage)
			r.Post("/services/{id}/image", dash.UploadServiceImage)
			r.Post("/{kind}/{id}/field", dash.EditField)
			r.Post("/{kind}/{id}/save", dash.Save)
			r.Post("/{kind}/{id}/delete", dash.Delete)
		})
	})

	return router, nil
}

// expiredSessionHook announces a signed-in session that expired between
// requests and drops its dashboard state.
func expiredSessionHook(publisher eventPublisher, managers *services.ManagerRegistry, tracker sessionTracker) custommw.ExpiredFunc {
	return func(ctx context.Context, expired *appsession.Session) {
		if !expired.Authenticated() {
			return
		}
		managers.Drop(expired.ID())
		if tracker != nil {
			tracker.Forget(expired.ID())
		}
		event := events.Event{
			Type:      events.TypeSessionEnded,
			UserID:    expired.User().UID,
			SessionID: expired.ID(),
			Reason:    appsession.ReasonExpired,
		}
		if err := publisher.Publish(ctx, event); err != nil {
			observability.FromContext(ctx).Warn("publish session expiry", zap.Error(err))
		}
	}
}

// trackSessions keeps the sweeper aware of every live dashboard session,
// including ones signed in before a restart.
func trackSessions(tracker sessionTracker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if tracker == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sess, ok := custommw.SessionFromContext(r.Context()); ok && sess.Authenticated() {
				tracker.Track(sess.ID(), sess.User().UID, sess.ExpiresAt())
			}
			next.ServeHTTP(w, r)
		})
	}
}

func orDefault(value, fallback time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return fallback
}

func orString(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}
