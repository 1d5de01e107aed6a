package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"mercabridge/internal/app"
	"mercabridge/internal/config"
	"mercabridge/internal/logger"
	"mercabridge/internal/refresh"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(os.Stderr, logger.Options{})
		bootLog.Fatal().Err(err).Msg("loading config")
	}
	log := logger.New(os.Stderr, logger.Options{Production: cfg.IsProduction(), Level: cfg.LogLevel})
	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("MERCABRIDGE_DATABASE_URL is required for refresh")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer a.Close()

	job := refresh.New(a.Snapshots, a.Supplier, a.Recorder, cfg.RefreshWorkers, log.With().Str("component", "refresh").Logger())
	res, err := job.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("refresh aborted")
		a.Close()
		os.Exit(1)
	}
	if res.Failed > 0 {
		log.Warn().Int("failed", res.Failed).Msg("some products could not be refreshed")
	}
}
