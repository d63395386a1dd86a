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

	"datareduce/internal/api"
	"datareduce/internal/app"
	"datareduce/internal/config"
	"datareduce/internal/db"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	// SQLite wants a single writer; reads get their own pool.
	writeDB, err := db.OpenSQLite(cfg.MetaDBPath, "write", 1)
	if err != nil {
		return err
	}
	defer writeDB.Close() //nolint:errcheck

	readDB, err := db.OpenSQLite(cfg.MetaDBPath, "read", 4)
	if err != nil {
		return err
	}
	defer readDB.Close() //nolint:errcheck

	if err := db.RunMigrations(writeDB); err != nil {
		return err
	}

	application, err := app.New(app.Deps{
		Cfg:     cfg,
		WriteDB: writeDB,
		ReadDB:  readDB,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	if err := application.Janitor.Start(cfg.CleanupSchedule); err != nil {
		return err
	}
	defer application.Janitor.Stop()

	handler := api.NewHandler(application.Datasets, application.Reduce, application.Analysis, logger)
	srv := &http.Server{
		Addr: cfg.ListenAddr,
		Handler: handler.Router(api.RouterConfig{
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
			RateLimitRPS:       cfg.RateLimitRPS,
			RateLimitBurst:     cfg.RateLimitBurst,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
