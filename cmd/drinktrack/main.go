package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"drinktrack/internal/cli"
	apphttp "drinktrack/internal/http"
	applog "drinktrack/internal/log"
	"drinktrack/internal/services"
	"drinktrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting drinktrack server")

	cfg := cli.LoadAndValidateConfig(logger)
	sqliteRepo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	svc := services.NewDrinkService(sqliteRepo, cli.InitAMQP(logger, cfg))
	defer svc.Close()

	if err := svc.SeedDefaults(context.Background()); err != nil {
		logger.Error("Failed to seed default drinks", "error", err)
	}

	cli.ApplyRetentionOverride(logger, svc, cfg.RetentionDays)

	httpLogger := applog.New(applog.Config{Component: applog.ComponentHTTP})
	srv := apphttp.NewServer(":"+cfg.Port, svc, httpLogger)
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	retention := worker.NewRetentionWorker(svc, cfg.PurgeInterval)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := retention.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
