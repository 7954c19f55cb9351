// Package app wires the application together: configuration, logging,
// storage, the license engine, and the HTTP server with its middleware
// chain and routes.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"ngclicense/internal/config"
	"ngclicense/internal/database"
	"ngclicense/internal/infrastructure"
	"ngclicense/internal/license"
	custommw "ngclicense/internal/middleware"
	"ngclicense/internal/services"
	handlers "ngclicense/internal/transport/http"
)

// Version identifies the build in health responses and startup logs.
const Version = "1.0.0"

// Application is the assembled server.
type Application struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *database.DB
	Router *chi.Mux
	Server *http.Server

	closeLog func() error
}

// New loads configuration and constructs the full application.
func New() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := infrastructure.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("version", Version),
		slog.Int("port", cfg.Server.Port),
		slog.String("database", cfg.Database.Path),
	)
	if !cfg.Admin.Enabled() {
		logger.Warn("admin API key not configured; /generate and /stats are disabled")
	}

	db, err := database.New(cfg.Database.Path, logger)
	if err != nil {
		closeLog()
		return nil, err
	}

	app := &Application{
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		closeLog: closeLog,
	}
	app.setupRouter()
	app.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return app, nil
}

func (a *Application) setupRouter() {
	licenses := database.NewLicenseRepo(a.DB)
	logs := database.NewValidationLogRepo(a.DB)
	engine := license.NewEngine(licenses, logs, a.Logger)
	admin := services.NewAdminService(licenses, logs, a.Logger)

	licenseHandler := handlers.NewLicenseHandler(engine, a.Logger)
	adminHandler := handlers.NewAdminHandler(engine, admin, a.Logger)
	healthHandler := handlers.NewHealthHandler(a.DB, Version, a.Logger)

	r := chi.NewRouter()
	r.Use(custommw.RequestID)
	r.Use(custommw.RealIP)
	r.Use(custommw.StructuredLogger(a.Logger))
	r.Use(custommw.Recoverer(a.Logger))
	r.Use(custommw.SecurityHeaders)
	r.Use(chimiddleware.Timeout(a.Config.Server.RequestTimeout))
	if a.Config.Security.RateLimit.Enabled {
		limiter := custommw.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		)
		r.Use(limiter.Handler)
	}

	r.Get("/", handlers.Home)
	r.Get("/healthz", healthHandler.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/validate", licenseHandler.Validate)
	r.Post("/activate", licenseHandler.Activate)
	r.Get("/check/{license_key}", licenseHandler.Check)

	r.Group(func(r chi.Router) {
		r.Use(custommw.AdminAuth(a.Config.Admin, a.Logger))
		r.Post("/generate", adminHandler.Generate)
		r.Get("/stats", adminHandler.Stats)
	})

	a.Router = r
}

// Run serves until the context is canceled or a termination signal arrives,
// then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info("server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		a.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()
		return a.Server.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if closeErr := a.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// Close releases the database and the log file.
func (a *Application) Close() error {
	var firstErr error
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			firstErr = err
		}
	}
	if a.closeLog != nil {
		if err := a.closeLog(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
