package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/futurisys/attrition/internal/adapters/http/api"
	"github.com/futurisys/attrition/internal/adapters/http/swagger"
	"github.com/futurisys/attrition/internal/adapters/repository"
	app "github.com/futurisys/attrition/internal/app"
	"github.com/futurisys/attrition/internal/config"
	"github.com/futurisys/attrition/internal/domain/model"
	"github.com/futurisys/attrition/pkg/logger"
	"github.com/futurisys/attrition/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Initialize logging before anything else can fail.
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to sync logger: " + err.Error() + "\n")
		}
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Database pool and stores.
	db, err := repository.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error(ctx, "failed to connect to database", logger.Error(err))
		return
	}
	defer db.Close()

	logStore := repository.NewLogStore(db, repository.WithLogSchema(cfg.LogSchema))
	featureStore := repository.NewFeatureStore(db, repository.WithMartSchema(cfg.MartSchema))

	// Prediction engine; preload so the first request does not pay for the
	// artifact load (and a missing artifact is visible at startup).
	engine := model.New(
		model.WithPath(cfg.ModelPath),
		model.WithFetchURL(cfg.ModelURL),
	)
	if err := engine.Load(ctx); err != nil {
		log.Warn(ctx, "model preload failed; will retry lazily", logger.Error(err))
	} else {
		metrics.RecordModelLoad()
		log.Info(ctx, "model artifact loaded", logger.String("path", cfg.ModelPath))
	}

	// The orchestrator, with every collaborator injected.
	svc := app.New(
		app.WithLogger(log),
		app.WithPredictor(engine),
		app.WithLogStore(logStore),
		app.WithFeatureStore(featureStore),
	)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, cfg.APIKey).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}
