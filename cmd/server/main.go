package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/tendant/chi-demo/app"

	"github.com/tendant/simple-storefront/pkg/storefront/config"
)

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	rt, err := cfg.Build(ctx, slog.Default())
	if err != nil {
		slog.Error("Failed to build storefront", "err", err)
		os.Exit(1)
	}

	handler, err := rt.Handler()
	if err != nil {
		slog.Error("Failed to create HTTP handler", "err", err)
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(rt.Metrics.InstrumentHandler)

	app.RoutesHealthz(r)
	app.RoutesHealthzReady(r)
	r.Method(http.MethodGet, "/metrics", rt.Metrics.Handler())
	r.Mount("/", handler.Routes())

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Storefront server starting",
			"port", cfg.Port,
			"env", cfg.Environment,
			"database", cfg.Database.Type,
			"media", cfg.Media.Type)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "err", err)
	}
	if err := rt.Close(shutdownCtx); err != nil {
		slog.Error("Failed to close connections", "err", err)
	}

	slog.Info("Server exiting")
}
