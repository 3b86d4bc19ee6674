// Package main runs the cloud economics HTTP API configured from the environment.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/santoshpalla27/cloud-economics/internal/app"
	"github.com/santoshpalla27/cloud-economics/pkg/platform"
)

var version = "0.1.0"

func main() {
	if err := platform.LoadDotEnv(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load .env")
	}

	cfg := app.LoadConfigFromEnv()
	cfg.Version = version
	logger := platform.InitLogger(cfg.LogLevel, cfg.Development())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		platform.LogFatal(logger, "Failed to build application", err)
	}
	defer a.Close()

	if err := a.Server().Run(ctx); err != nil {
		logger.Error().Err(err).Msg("Server failed")
		a.Close()
		os.Exit(1)
	}
	logger.Info().Msg("Server stopped")
}
