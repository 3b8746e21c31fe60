// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/bissquit/bloomshop/internal/cart"
	"github.com/bissquit/bloomshop/internal/catalog"
	"github.com/bissquit/bloomshop/internal/config"
	"github.com/bissquit/bloomshop/internal/domain"
	"github.com/bissquit/bloomshop/internal/identity"
	"github.com/bissquit/bloomshop/internal/pkg/ctxlog"
	"github.com/bissquit/bloomshop/internal/pkg/httputil"
	"github.com/bissquit/bloomshop/internal/pkg/metrics"
	"github.com/bissquit/bloomshop/internal/session"
	"github.com/bissquit/bloomshop/internal/storage/local"
	"github.com/bissquit/bloomshop/internal/storage/s3"
	"github.com/bissquit/bloomshop/internal/version"
	"github.com/bissquit/bloomshop/internal/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	backend       *backend
	sessionStore  session.Store
	server        *http.Server
	metricsServer *http.Server
	cancel        context.CancelFunc
	workers       sync.WaitGroup
	closers       []func()
	pools         map[string]metrics.PoolSampler
}

// New creates a new application instance: it connects to the configured
// stores, applies migrations, provisions the bootstrap admin and builds the router.
func New(cfg *config.Config) (*App, error) {
	logger := initLogger(cfg.Log)
	slog.SetDefault(logger)

	connectCtx, connectCancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer connectCancel()
	connectCtx = ctxlog.WithLogger(connectCtx, logger)

	bgCtx, cancel := context.WithCancel(ctxlog.WithLogger(context.Background(), logger))

	app := &App{
		config: cfg,
		logger: logger,
		cancel: cancel,
		pools:  make(map[string]metrics.PoolSampler),
	}

	if err := app.init(connectCtx, bgCtx); err != nil {
		cancel()
		app.closeAll()
		return nil, err
	}

	return app, nil
}

func (a *App) init(ctx, bgCtx context.Context) error {
	be, err := openBackend(ctx, a.config.Database)
	if err != nil {
		return err
	}
	a.backend = be
	a.closers = append(a.closers, be.close)

	if be.pool != nil {
		a.pools["postgres"] = metrics.PgxPool(be.pool)
	}

	store, err := a.openSessionStore(ctx, bgCtx)
	if err != nil {
		return err
	}
	a.sessionStore = store

	if len(a.pools) > 0 {
		a.goBackground(func() { a.collectPoolMetrics(bgCtx) })
	}

	images, err := a.openImageStore(ctx)
	if err != nil {
		return err
	}

	router, err := a.setupRouter(ctx, images)
	if err != nil {
		return fmt.Errorf("setup router: %w", err)
	}

	a.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", a.config.Server.Host, a.config.Server.Port),
		Handler:           router,
		ReadTimeout:       a.config.Server.ReadTimeout,
		ReadHeaderTimeout: a.config.Server.ReadHeaderTimeout,
		WriteTimeout:      a.config.Server.WriteTimeout,
		IdleTimeout:       a.config.Server.IdleTimeout,
	}

	// Metrics server on separate port
	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	a.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", a.config.Server.Host, a.config.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return nil
}

// Run starts the HTTP servers.
func (a *App) Run() error {
	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
		"database", a.config.Database.Driver,
		"session_store", a.config.Session.Store,
		"uploads", a.config.Uploads.Driver,
	)

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	var wg sync.WaitGroup
	var errs []error
	var mu sync.Mutex

	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := a.server.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown server: %w", err))
			mu.Unlock()
		}
	}()

	go func() {
		defer wg.Done()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown metrics server: %w", err))
			mu.Unlock()
		}
	}()

	wg.Wait()

	a.cancel()
	a.workers.Wait()
	a.closeAll()

	return errors.Join(errs...)
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

// SessionStore returns the active session store. Used in tests to inspect
// server-side session state.
func (a *App) SessionStore() session.Store {
	return a.sessionStore
}

func (a *App) goBackground(fn func()) {
	a.workers.Add(1)
	go func() {
		defer a.workers.Done()
		fn()
	}()
}

// closeAll releases resources in reverse order of acquisition.
func (a *App) closeAll() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) collectPoolMetrics(ctx context.Context) {
	record := func() {
		for name, sample := range a.pools {
			metrics.RecordPoolStats(name, sample())
		}
	}
	record()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			record()
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) openImageStore(ctx context.Context) (catalog.ImageStore, error) {
	cfg := a.config.Uploads
	switch cfg.Driver {
	case config.DriverS3:
		store, err := s3.NewStore(ctx, s3.Config{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("open s3 image store: %w", err)
		}
		return store, nil
	default:
		store, err := local.NewStore(
			filepath.Join(cfg.StaticDir, cfg.Subdir),
			path.Join(cfg.URLPrefix, cfg.Subdir),
		)
		if err != nil {
			return nil, fmt.Errorf("open local image store: %w", err)
		}
		return store, nil
	}
}

func (a *App) setupRouter(ctx context.Context, images catalog.ImageStore) (*chi.Mux, error) {
	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)

	// CORS must be early to handle preflight requests before other middleware
	r.Use(httputil.CORSMiddleware(a.config.CORS.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(httputil.ClientIPMiddleware(a.config.Server.TrustProxy))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", a.healthzHandler)
	r.Get("/readyz", a.readyzHandler)
	r.Get("/version", a.versionHandler)

	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-yaml")
		http.ServeFile(w, r, "api/openapi/openapi.yaml")
	})

	staticPrefix := path.Clean(a.config.Uploads.URLPrefix)
	r.Handle(staticPrefix+"/*", http.StripPrefix(staticPrefix, http.FileServer(http.Dir(a.config.Uploads.StaticDir))))

	identityService := identity.NewService(a.backend.users, identity.ServiceConfig{
		BootstrapAdminEmail: a.config.Auth.BootstrapAdminEmail,
		BcryptCost:          a.config.Auth.BcryptCost,
	})

	created, err := identityService.EnsureBootstrapAdmin(ctx, a.config.Auth.BootstrapAdminName, a.config.Auth.BootstrapAdminPassword)
	if err != nil {
		return nil, fmt.Errorf("provision bootstrap admin: %w", err)
	}
	if created {
		a.logger.Info("bootstrap admin created", "email", a.config.Auth.BootstrapAdminEmail)
	}

	sessions, err := session.NewManager(session.Config{
		CookieName:     a.config.Session.CookieName,
		IdleTimeout:    a.config.Session.IdleTimeout,
		SecretKey:      a.config.Session.SecretKey,
		Secure:         a.config.Session.CookieSecure,
		Domain:         a.config.Session.CookieDomain,
		RevalidateRole: a.config.Session.RevalidateRole,
	}, a.sessionStore, session.WithRoleLookup(identityService))
	if err != nil {
		return nil, fmt.Errorf("create session manager: %w", err)
	}
	if a.config.Session.SecretKey == "" {
		a.logger.Warn("session.secret_key is not set: sessions will not survive a restart")
	}

	catalogService := catalog.NewService(a.backend.products, images, catalog.ServiceConfig{
		DefaultLimit: a.config.Catalog.DefaultLimit,
		MaxLimit:     a.config.Catalog.MaxLimit,
	})
	cartService := cart.NewService(a.backend.carts)

	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("create page renderer: %w", err)
	}

	identityHandler := identity.NewHandler(identityService, sessions)
	catalogHandler := catalog.NewHandler(catalogService, a.config.Uploads.MaxBytes)
	cartHandler := cart.NewHandler(cartService)
	webHandler := web.NewHandler(renderer, sessions)

	authLimiter := httputil.NewRateLimiter(a.config.RateLimit.AuthRPS, a.config.RateLimit.AuthBurst)

	r.Group(func(r chi.Router) {
		r.Use(sessions.Middleware)

		webHandler.RegisterRoutes(r)
		identityHandler.RegisterRoutes(r, authLimiter.Middleware)
		catalogHandler.RegisterRoutes(r, sessions.RequireRole(domain.RoleAdmin))
		cartHandler.RegisterRoutes(r, sessions.RequireAuth)
	})

	return r, nil
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.backend.ping(ctx); err != nil {
		ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
		httputil.Text(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{
		"version":    version.Version,
		"commit":     version.GitCommit,
		"build_date": version.BuildDate,
	})
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
