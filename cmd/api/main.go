package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"insight-backend/internal/bootstrap"
	"insight-backend/internal/shared/config"
	"insight-backend/internal/shared/storage/db"
	"insight-backend/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		telemetry.Error("startup.failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer app.Close()

	if app.DB != nil {
		if err := db.RunMigrations(ctx, app.DB); err != nil {
			telemetry.Error("migrate.failed", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
	}

	srv := &http.Server{
		Addr:              app.Addr(),
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		telemetry.Info("server.listening", map[string]any{"addr": srv.Addr, "env": cfg.Env})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			telemetry.Error("server.failed", map[string]any{"error": err.Error()})
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		telemetry.Error("server.shutdown_failed", map[string]any{"error": err.Error()})
	}
	telemetry.Info("server.stopped", nil)
}
