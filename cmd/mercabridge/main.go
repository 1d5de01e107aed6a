package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"mercabridge/internal/app"
	"mercabridge/internal/cli"
	"mercabridge/internal/config"
	"mercabridge/internal/envelope"
	"mercabridge/internal/logger"
)

func main() {
	os.Exit(run())
}

func run() (code int) {
	defer func() {
		if v := recover(); v != nil {
			fmt.Fprintln(os.Stderr, "fatal:", v)
			fmt.Println(string(envelope.Failure(envelope.GenericFailure, "").MarshalIndent()))
			code = 1
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		fmt.Println(failureJSON(err, config.DefaultExposeDetails))
		return 1
	}
	log := logger.New(os.Stderr, logger.Options{Production: cfg.IsProduction(), Level: cfg.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("startup failed")
		fmt.Println(failureJSON(err, cfg.ExposeDetails))
		return 1
	}
	defer a.Close()

	cmd := cli.NewRootCommand(a.Service, os.Stdout, cli.Options{
		DefaultPostcode: cfg.DefaultPostcode,
		DefaultLimit:    cfg.DefaultLimit,
		ExposeDetails:   cfg.ExposeDetails,
	})
	cmd.SetErr(os.Stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		// usage errors; cobra already reported them on stderr
		return 2
	}
	return 0
}

func failureJSON(err error, exposeDetails bool) string {
	return string(envelope.FromError(err).Public(exposeDetails).MarshalIndent())
}
