package main

import (
	"context"
	"errors"
	"time"

	"drinktrack/internal/cli"
	"drinktrack/internal/services"
	"drinktrack/internal/worker"
)

// Standalone retention purger, for deployments that run the API server with
// a long purge interval or none at all.
func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting retention-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	sqliteRepo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	svc := services.NewDrinkService(sqliteRepo, nil)
	defer svc.Close()

	cli.ApplyRetentionOverride(logger, svc, cfg.RetentionDays)

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, nil)

	retention := worker.NewRetentionWorker(svc, cfg.PurgeInterval)
	if err := retention.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Retention worker error", "error", err)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Retention worker stopped")
}
