package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/cms"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/httpserver"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/i18n"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/config"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/events"
	pfirestore "github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/firestore"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/jobs"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/mail"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/observability"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/postgres"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/secrets"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/storage"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/repositories"
	firestoreRepo "github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/repositories/firestore"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/repositories/memory"
	postgresRepo "github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/repositories/postgres"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/services"
	appsession "github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/session"
)

const (
	sweepInterval   = time.Minute
	managerIdleTTL  = 2 * time.Hour
	dependencyCheck = 3 * time.Second
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var envFile string
	root := &cobra.Command{
		Use:           "site",
		Short:         "Bilingual marketing site with its content dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withRuntime(cmd.Context(), envFile, "site", serve)
			},
		},
		&cobra.Command{
			Use:       "migrate [up|down]",
			Short:     "Apply or roll back the postgres schema",
			Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
			ValidArgs: []string{string(postgres.Up), string(postgres.Down)},
			RunE: func(cmd *cobra.Command, args []string) error {
				return withRuntime(cmd.Context(), envFile, "migrate", func(ctx context.Context, rt *runtime) error {
					return migrate(ctx, rt, postgres.Direction(args[0]))
				})
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Write the default sections and services",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withRuntime(cmd.Context(), envFile, "seed", seed)
			},
		},
	)
	return root
}

// runtime is what every command shares once configuration is loaded.
type runtime struct {
	cfg    config.Config
	logger *zap.Logger
}

func withRuntime(ctx context.Context, envFile, name string, run func(context.Context, *runtime) error) error {
	envValues, err := config.EnvironmentValues(config.WithEnvFile(envFile))
	if err != nil {
		return fmt.Errorf("read environment: %w", err)
	}

	baseLogger, err := observability.NewLogger(firstNonEmpty(envValues["SITE_LOG_LEVEL"], envValues["LOG_LEVEL"]))
	if err != nil {
		return fmt.Errorf("initialise logger: %w", err)
	}
	defer func() { _ = baseLogger.Sync() }()
	logger := baseLogger.Named(name)

	fetcher, err := secrets.NewFetcher(ctx,
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithProject(firstNonEmpty(envValues["SITE_SECRETS_PROJECT_ID"], envValues["GOOGLE_CLOUD_PROJECT"])),
		secrets.WithFallbackFile(envValues["SITE_SECRETS_FALLBACK_FILE"]),
	)
	if err != nil {
		return fmt.Errorf("initialise secret fetcher: %w", err)
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("secret fetcher close error", zap.Error(err))
		}
	}()

	var required []string
	if !strings.EqualFold(firstNonEmpty(envValues["SITE_ENV"], "local"), "local") {
		required = append(required, "Auth.SessionHashKey")
	}
	cfg, err := config.Load(ctx,
		config.WithEnvFile(envFile),
		config.WithSecretResolver(config.SecretResolverFunc(fetcher.Resolve)),
		config.WithRequiredSecrets(required...),
	)
	if err != nil {
		var missing *config.MissingSecretsError
		if errors.As(err, &missing) {
			logger.Error("missing required secrets", zap.Strings("secrets", missing.RedactedNames()))
		}
		return fmt.Errorf("load configuration: %w", err)
	}
	return run(ctx, &runtime{cfg: cfg, logger: logger})
}

// backend is an opened repository registry and how to release it.
type backend struct {
	registry repositories.Registry
	close    func()
}

func openBackend(ctx context.Context, rt *runtime) (*backend, error) {
	cfg := rt.cfg
	switch cfg.Backend {
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxOpenConns)
		if err != nil {
			return nil, err
		}
		reg := postgresRepo.New(db).Registry()
		return &backend{registry: reg, close: func() {
			if err := db.Close(); err != nil {
				rt.logger.Warn("postgres close error", zap.Error(err))
			}
		}}, nil
	case config.BackendFirestore:
		var opts []pfirestore.ProviderOption
		if cfg.Firestore.EmulatorHost != "" {
			opts = append(opts, pfirestore.WithEmulatorHost(cfg.Firestore.EmulatorHost))
		}
		provider := pfirestore.NewProvider(cfg.Firestore.ProjectID, opts...)
		reg, err := firestoreRepo.NewRegistry(provider)
		if err != nil {
			return nil, err
		}
		return &backend{registry: reg, close: func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := provider.Close(closeCtx); err != nil {
				rt.logger.Warn("firestore close error", zap.Error(err))
			}
		}}, nil
	default:
		rt.logger.Warn("using in-memory backend; content is lost on restart")
		return &backend{registry: memory.NewStore().Registry(), close: func() {}}, nil
	}
}

func migrate(ctx context.Context, rt *runtime, direction postgres.Direction) error {
	if rt.cfg.Backend != config.BackendPostgres {
		return fmt.Errorf("migrate needs SITE_BACKEND=%s, got %q", config.BackendPostgres, rt.cfg.Backend)
	}
	db, err := postgres.Open(ctx, rt.cfg.Postgres.DSN, 1)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.Migrate(db, direction); err != nil {
		return err
	}
	rt.logger.Info("migrations applied", zap.String("direction", string(direction)))
	return nil
}

func seed(ctx context.Context, rt *runtime) error {
	be, err := openBackend(ctx, rt)
	if err != nil {
		return err
	}
	defer be.close()
	report, err := services.Seed(ctx, be.registry, cms.MustLoad())
	if err != nil {
		return err
	}
	rt.logger.Info("seed complete", zap.Int("sections", report.Sections), zap.Int("services", report.Services))
	return nil
}

func serve(ctx context.Context, rt *runtime) error {
	cfg, logger := rt.cfg, rt.logger
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	be, err := openBackend(ctx, rt)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	defer be.close()
	reg := be.registry

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open object store: %w", err)
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				logger.Warn("object store close error", zap.Error(err))
			}
		}()
	}

	defaults, err := cms.Load()
	if err != nil {
		return fmt.Errorf("load default content: %w", err)
	}
	bundle, err := i18n.Default()
	if err != nil {
		return fmt.Errorf("load translations: %w", err)
	}
	renderer := cms.NewRenderer()

	broker := events.NewBroker()
	defer func() { _ = broker.Close() }()
	var healthChecks []repositories.DependencyCheck
	if cfg.Events.NATSURL != "" {
		bridge, err := events.ConnectNATS(cfg.Events.NATSURL, cfg.Events.Subject, broker,
			events.WithErrorHandler(func(err error) { logger.Warn("nats bridge error", zap.Error(err)) }))
		if err != nil {
			return err
		}
		healthChecks = append(healthChecks, repositories.DependencyCheck{Name: "nats", Timeout: dependencyCheck, Check: bridge.Ping})
		logger.Info("session events bridged over nats", zap.String("subject", cfg.Events.Subject))
	}

	sections, err := services.NewSectionService(services.SectionServiceDeps{
		SiteContent: reg.SiteContent,
		Services:    reg.Services,
		Gallery:     reg.Gallery,
		Defaults:    defaults,
		Logger:      services.Logger(observability.NewServiceLogger(logger, "sections")),
	})
	if err != nil {
		return err
	}

	contactDeps := services.ContactServiceDeps{
		Messages: reg.Messages,
		Renderer: renderer,
		Logger:   services.Logger(observability.NewServiceLogger(logger, "contact")),
	}
	if cfg.PubSub.ProjectID != "" && cfg.PubSub.ContactTopic != "" {
		publisher, err := jobs.DialPubSubContactPublisher(ctx, cfg.PubSub.ProjectID, cfg.PubSub.ContactTopic)
		if err != nil {
			return fmt.Errorf("dial contact topic: %w", err)
		}
		defer func() { _ = publisher.Close() }()
		contactDeps.Publisher = publisher
	}
	notifier, err := mail.NewNotifier(cfg.Mail)
	if err != nil {
		return err
	}
	if notifier != nil {
		contactDeps.Mailer = notifier
	}
	contact, err := services.NewContactService(contactDeps)
	if err != nil {
		return err
	}

	provider, err := identityProvider(ctx, cfg, reg)
	if err != nil {
		return err
	}
	auth, err := services.NewAuthService(provider, services.Logger(observability.NewServiceLogger(logger, "auth")))
	if err != nil {
		return err
	}
	stats, err := services.NewStatsService(reg, services.Logger(observability.NewServiceLogger(logger, "stats")))
	if err != nil {
		return err
	}
	uploader, err := services.NewUploader(store, nil)
	if err != nil {
		return err
	}
	managers := services.NewManagerRegistry(services.ManagerDeps{
		Registry: reg,
		Uploader: uploader,
		Logger:   services.Logger(observability.NewServiceLogger(logger, "dashboard")),
	})

	hashKey := []byte(cfg.Auth.SessionHashKey)
	if len(hashKey) == 0 {
		logger.Warn("SITE_SESSION_HASH_KEY is empty; sessions will not survive a restart")
		hashKey = securecookie.GenerateRandomKey(32)
	}
	sessions, err := appsession.NewManager(appsession.Config{
		CookieName:     cfg.Auth.SessionCookieName,
		HashKey:        hashKey,
		BlockKey:       []byte(cfg.Auth.SessionBlockKey),
		CookieSecure:   cfg.Auth.SecureCookie,
		CookieSameSite: http.SameSiteLaxMode,
		Lifetime:       cfg.Auth.SessionTTL,
	})
	if err != nil {
		return err
	}
	sweeper := appsession.NewSweeper(broker, nil, managers.Drop)

	healthChecks = append(healthChecks,
		repositories.DependencyCheck{Name: "backend", Timeout: dependencyCheck, Check: reg.Ping},
		repositories.DependencyCheck{Name: "storage", Timeout: dependencyCheck, Check: store.Ping},
	)

	serverCfg := httpserver.Config{
		Address:       cfg.Server.Addr(),
		ReadTimeout:   cfg.Server.ReadTimeout,
		WriteTimeout:  cfg.Server.WriteTimeout,
		IdleTimeout:   cfg.Server.IdleTimeout,
		Logger:        logger,
		ProjectID:     cfg.Tracing.ProjectID,
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
		Health:        repositories.NewHealthChecker(healthChecks, nil),
		MediaPrefix:   cfg.Storage.MediaPrefix,
		SecureCookies: cfg.Auth.SecureCookie,
		Location:      time.Local,
	}
	if media, ok := store.(*storage.MemoryStore); ok {
		serverCfg.Media = media
		serverCfg.MediaPrefix = media.Prefix()
	}
	srv, err := httpserver.New(serverCfg)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", srv.Addr), zap.String("backend", cfg.Backend), zap.String("storage", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		sweeper.Run(gctx, sweepInterval, func(err error) {
			logger.Warn("session sweep error", zap.Error(err))
		})
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n := managers.Evict(managerIdleTTL); n > 0 {
					logger.Debug("evicted idle dashboard state", zap.Int("count", n))
				}
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		// Open event streams never finish on their own.
		_ = broker.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func identityProvider(ctx context.Context, cfg config.Config, reg repositories.Registry) (services.IdentityProvider, error) {
	if cfg.Auth.Driver == config.AuthFirebase {
		return services.NewFirebaseIdentityProvider(ctx, cfg.Auth.FirebaseProjectID, cfg.Auth.FirebaseAPIKey)
	}
	return services.NewLocalIdentityProvider(reg.Users, bcrypt.DefaultCost, nil)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
