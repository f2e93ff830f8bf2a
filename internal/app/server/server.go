package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"feedback360/internal/domain/audit"
	"feedback360/internal/domain/auth"
	"feedback360/internal/domain/catalog"
	"feedback360/internal/domain/directory"
	"feedback360/internal/domain/feedback"
	"feedback360/internal/domain/notifications"
	"feedback360/internal/domain/reports"
	"feedback360/internal/domain/review"
	"feedback360/internal/platform/config"
	"feedback360/internal/platform/crypto"
	"feedback360/internal/platform/db"
	"feedback360/internal/platform/email"
	"feedback360/internal/platform/jobs"
	"feedback360/internal/platform/metrics"
	"feedback360/internal/transport/http/api"
	audithandler "feedback360/internal/transport/http/handlers/audit"
	authhandler "feedback360/internal/transport/http/handlers/auth"
	cataloghandler "feedback360/internal/transport/http/handlers/catalog"
	directoryhandler "feedback360/internal/transport/http/handlers/directory"
	feedbackhandler "feedback360/internal/transport/http/handlers/feedback"
	notificationshandler "feedback360/internal/transport/http/handlers/notifications"
	reportshandler "feedback360/internal/transport/http/handlers/reports"
	reviewhandler "feedback360/internal/transport/http/handlers/review"
	"feedback360/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	DB      *db.Pool
	Router  http.Handler
	Jobs    *jobs.Service
	Metrics *metrics.Collector

	stopJobs context.CancelFunc
}

// New connects to the database, prepares the schema and wires every handler.
// Background jobs run until Close.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	sealer, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("encryption key: %w", err)
	}

	perms := auth.NewRolePermissionStore()
	auditSvc := audit.New(pool)
	collector := metrics.New()

	authSvc := auth.NewService(auth.NewStore(pool), sealer, cfg.JWTSecret, cfg.TokenTTL)
	directorySvc := directory.NewService(directory.NewStore(pool))
	catalogSvc := catalog.NewService(catalog.NewStore(pool))
	reviewSvc := review.NewService(review.NewStore(pool), directorySvc)
	feedbackSvc := feedback.NewService(feedback.NewStore(pool))
	reportsSvc := reports.NewService(reports.NewStore(pool), directorySvc, catalogSvc)

	mailer := email.New(cfg)
	if !email.Enabled(mailer) {
		slog.Info("email delivery disabled, notifications stay in-app")
	}
	notifier := notifications.New(notifications.NewStore(pool), mailer)
	notifier.DefaultFrom = cfg.EmailFrom

	jobSvc := jobs.New(pool, reviewSvc, cfg.CycleStatusInterval)
	jobCtx, stopJobs := context.WithCancel(context.Background())
	jobSvc.Start(jobCtx)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.Logger(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret, authSvc))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authSvc, directorySvc, auditSvc, perms).RegisterRoutes(r)
		directoryhandler.NewHandler(directorySvc, auditSvc, perms).RegisterRoutes(r)
		cataloghandler.NewHandler(catalogSvc, perms).RegisterRoutes(r)

		reviewHandler := reviewhandler.NewHandler(reviewSvc, auditSvc, perms)
		reviewHandler.Idempotency = middleware.NewIdempotencyStore(pool)
		reviewHandler.Jobs = jobSvc
		reviewHandler.Notifier = notifier
		reviewHandler.Metrics = collector
		reviewHandler.RegisterRoutes(r)

		feedbackHandler := feedbackhandler.NewHandler(feedbackSvc, auditSvc, perms)
		feedbackHandler.Metrics = collector
		feedbackHandler.RegisterRoutes(r)

		reportshandler.NewHandler(reportsSvc, perms).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc, perms).RegisterRoutes(r)
		notificationshandler.NewHandler(notifier, perms).RegisterRoutes(r)

		if cfg.MetricsEnabled {
			r.With(middleware.RequirePermission(auth.PermSystemMetrics, perms)).Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
				api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
			})
		}
	})

	router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})

	return &App{
		Config:   cfg,
		DB:       pool,
		Router:   router,
		Jobs:     jobSvc,
		Metrics:  collector,
		stopJobs: stopJobs,
	}, nil
}

func (a *App) Close() {
	if a.stopJobs != nil {
		a.stopJobs()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

// Run serves until SIGINT or SIGTERM, then drains in-flight requests.
func (a *App) Run() error {
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("feedback360 server listening", "addr", a.Config.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, r.URL.Path)
	_, err := os.Stat(path)
	if err == nil {
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
		return
	}

	if os.IsNotExist(err) {
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	}

	http.NotFound(w, r)
}
