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
	"time"

	"github.com/alex-user-go/hotelsearch/internal/catalog"
	"github.com/alex-user-go/hotelsearch/internal/config"
	"github.com/alex-user-go/hotelsearch/internal/handler"
	"github.com/alex-user-go/hotelsearch/internal/middleware"
	"github.com/alex-user-go/hotelsearch/internal/obs"
	"github.com/alex-user-go/hotelsearch/internal/search"
	"github.com/alex-user-go/hotelsearch/internal/search/ratelimit"
	"github.com/alex-user-go/hotelsearch/internal/search/session"
	"github.com/prometheus/client_golang/prometheus"
)

// tokenSubject identifies the gateway in minted catalog tokens.
const tokenSubject = "hotelsearch-gateway"

// Run initializes and runs the application.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	h, cleanup, err := New(cfg, logger, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer cleanup()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      h,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "catalog", cfg.Catalog.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
		return err
	}

	logger.Info("server stopped")
	return nil
}

// New wires the gateway and returns its root handler together with a
// cleanup function that stops the background goroutines.
func New(cfg *config.Config, logger *slog.Logger, reg *prometheus.Registry) (http.Handler, func(), error) {
	metrics := obs.NewMetrics(reg)

	client, err := newCatalogClient(cfg.Catalog, logger)
	if err != nil {
		return nil, nil, err
	}

	sessions := session.NewRegistry(cfg.Session.TTL, session.WithSizeObserver(metrics.SetSessions))
	limiter := ratelimit.New(cfg.Submit.Rate, cfg.Submit.Window, ratelimit.WithDropObserver(func(string) {
		metrics.IncRateLimitDrops()
	}))

	h := handler.New(client, sessions, limiter, logger, search.WithMetrics(metrics))

	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /healthz", obs.HealthHandler(logger))
	mux.Handle("GET /metrics", metrics.Handler())

	root := middleware.Logging(logger)(middleware.Metrics(metrics)(mux))

	cleanup := func() {
		limiter.Close()
		sessions.Close()
	}
	return root, cleanup, nil
}

func newCatalogClient(cfg config.CatalogConfig, logger *slog.Logger) (*catalog.HTTPClient, error) {
	var creds catalog.CredentialProvider
	switch {
	case cfg.Token != "":
		creds = catalog.StaticToken(cfg.Token)
	case cfg.JWTSecret != "":
		signed, err := catalog.NewSignedToken(cfg.JWTSecret, tokenSubject, 0)
		if err != nil {
			return nil, fmt.Errorf("catalog credentials: %w", err)
		}
		creds = signed
	}

	var transport http.RoundTripper
	if cfg.MaxRetries > 0 {
		transport = catalog.NewRetryTransport(nil, catalog.DefaultRetryConfig(cfg.MaxRetries), logger)
	}

	client, err := catalog.NewHTTPClient(catalog.Config{
		BaseURL:     cfg.BaseURL,
		Timeout:     cfg.Timeout,
		Credentials: creds,
		Transport:   transport,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("catalog client: %w", err)
	}
	return client, nil
}
