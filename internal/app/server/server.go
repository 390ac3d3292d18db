package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"crewplan/internal/domain/audit"
	"crewplan/internal/domain/auth"
	"crewplan/internal/domain/certificates"
	"crewplan/internal/domain/core"
	"crewplan/internal/domain/invoicing"
	"crewplan/internal/domain/preferences"
	"crewplan/internal/domain/timeline"
	"crewplan/internal/domain/timesheets"
	"crewplan/internal/platform/cache"
	"crewplan/internal/platform/config"
	"crewplan/internal/platform/db"
	"crewplan/internal/platform/jobs"
	"crewplan/internal/platform/logging"
	"crewplan/internal/platform/metrics"
	"crewplan/internal/platform/storage"
	"crewplan/internal/transport/http/api"
	audithandler "crewplan/internal/transport/http/handlers/audit"
	authhandler "crewplan/internal/transport/http/handlers/auth"
	certificateshandler "crewplan/internal/transport/http/handlers/certificates"
	corehandler "crewplan/internal/transport/http/handlers/core"
	invoicinghandler "crewplan/internal/transport/http/handlers/invoicing"
	preferenceshandler "crewplan/internal/transport/http/handlers/preferences"
	timelinehandler "crewplan/internal/transport/http/handlers/timeline"
	timesheetshandler "crewplan/internal/transport/http/handlers/timesheets"
	"crewplan/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	DB      *db.Pool
	Router  http.Handler
	Jobs    *jobs.Service
	Metrics *metrics.Collector

	redis    *redis.Client
	stopJobs context.CancelFunc
}

// New connects the backing services, prepares the schema and builds the router.
// Background jobs are running when it returns.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, DB: pool, Metrics: metrics.New()}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			app.Close()
			return nil, err
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			app.Close()
			return nil, err
		}
	}

	var dataCache cache.Cache = cache.NewMemory()
	if cfg.RedisAddr != "" {
		client, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			slog.Warn("redis unavailable, using in-process cache", "addr", cfg.RedisAddr, "err", err)
		} else {
			app.redis = client
			dataCache = cache.NewRedisCache(client, "crewplan:")
		}
	}

	files, err := storage.NewLocal(cfg.StorageDir)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Jobs = jobs.New(pool, 0)
	app.Jobs.OnDone(func(jobType string, err error) {
		if jobType != invoicing.JobRenderPDF {
			return
		}
		if err != nil {
			app.Metrics.Inc(metrics.InvoicePDFsFailed)
			return
		}
		app.Metrics.Inc(metrics.InvoicePDFsRendered)
	})
	app.Jobs.OnDrop(func(string) {
		app.Metrics.Inc(metrics.JobsDropped)
	})
	jobCtx, cancel := context.WithCancel(context.Background())
	app.stopJobs = cancel
	app.Jobs.Start(jobCtx)

	app.Router = app.routes(dataCache, files)
	return app, nil
}

func (a *App) routes(dataCache cache.Cache, files *storage.Local) http.Handler {
	cfg := a.Config
	auditService := audit.New(a.DB)

	authService := auth.NewService(auth.NewStore(a.DB), cfg.JWTSecret, cfg.TokenTTL)
	coreService := core.NewService(core.NewStore(a.DB))
	timesheetService := timesheets.NewService(timesheets.NewStore(a.DB))
	invoiceService := invoicing.NewService(
		invoicing.NewStore(a.DB),
		coreService,
		timesheetService,
		files,
		a.Jobs,
		invoicing.Options{VATRate: cfg.VATRate, DomesticCountry: cfg.DomesticCountry},
	)
	timelineService := timeline.NewService(coreService, dataCache, cfg.CacheTTL)
	preferenceService := preferences.NewService(preferences.NewStore(a.DB))
	certificateService := certificates.NewService(certificates.NewStore(a.DB), files)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Logger(a.Metrics))
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Acting-As-Worker", middleware.HeaderIdempotencyKey},
		ExposedHeaders:   []string{"X-Request-ID", "X-Total-Count", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes, cfg.MaxUploadBytes))
	router.Use(middleware.Auth(authService))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.InvalidateOnWrite(dataCache))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.DB.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(authService, auditService)
		authHandler.RegisterPublicRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			authHandler.RegisterRoutes(r)

			corehandler.NewHandler(coreService, auditService).RegisterRoutes(r)
			timesheetshandler.NewHandler(timesheetService, coreService, auditService, a.Metrics).RegisterRoutes(r)
			invoicinghandler.NewHandler(invoiceService, auditService, a.Metrics, middleware.NewIdempotencyStore(a.DB)).RegisterRoutes(r)
			timelinehandler.NewHandler(timelineService, preferenceService, a.Metrics).RegisterRoutes(r)
			certificateshandler.NewHandler(certificateService, auditService, a.Metrics).RegisterRoutes(r)
			preferenceshandler.NewHandler(preferenceService).RegisterRoutes(r)
			audithandler.NewHandler(auditService).RegisterRoutes(r)

			if cfg.MetricsEnabled {
				r.With(middleware.RequireRole(auth.RoleAdmin)).Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
					api.Success(w, a.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
				})
			}
		})
	})
	return router
}

// Close stops the job worker and releases connections.
func (a *App) Close() {
	if a.stopJobs != nil {
		a.stopJobs()
		a.Jobs.Wait()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			slog.Warn("redis close failed", "err", err)
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

func Run() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("server shutdown failed", "err", err)
		}
	}()

	slog.Info("crewplan server listening", "addr", cfg.Addr, "env", cfg.Environment)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "err", err)
	}
}
