package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mercabridge/internal/api"
	"mercabridge/internal/app"
	"mercabridge/internal/config"
	"mercabridge/internal/logger"
	"mercabridge/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(os.Stderr, logger.Options{})
		bootLog.Fatal().Err(err).Msg("loading config")
	}
	log := logger.New(os.Stderr, logger.Options{Production: cfg.IsProduction(), Level: cfg.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer a.Close()

	srv := &http.Server{
		Addr: cfg.ListenAddr,
		Handler: api.NewRouter(a.Service, log.With().Str("component", "api").Logger(), api.Options{
			ExposeDetails: cfg.ExposeDetails,
			Metrics:       observability.Handler(),
		}),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Supplier.Timeout + 15*time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("addr", cfg.ListenAddr).Msg("mercabridge server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server stopped")
		return
	}
	log.Info().Msg("server stopped")
}
