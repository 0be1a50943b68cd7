// Command catalog serves a mock hotel catalog for local development.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"
)

func main() {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "9001")
	v.SetDefault("CATALOG_MODE", "static")
	v.SetDefault("CATALOG_TOKEN", "")
	v.SetDefault("CATALOG_JWT_SECRET", "")

	port := v.GetString("PORT")
	mode := v.GetString("CATALOG_MODE")

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	b, ok := behaviors[mode]
	if !ok {
		logger.Error("unknown catalog mode", "mode", mode)
		os.Exit(1)
	}
	s := newServer(b, v.GetString("CATALOG_TOKEN"), logger)
	if secret := v.GetString("CATALOG_JWT_SECRET"); secret != "" {
		s.jwtSecret = []byte(secret)
	}

	addr := ":" + port
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("catalog listening", "addr", addr, "mode", mode, "auth", s.token != "" || len(s.jwtSecret) > 0)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
