package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zonebourse-go/internal/app"
	"zonebourse-go/internal/config"
	"zonebourse-go/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Configure(logger.Config{Pretty: true})
		logger.Fatal().Err(err).Msg("config error")
	}
	logger.Configure(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	ctx := context.Background()
	builder := app.NewBuilder(&cfg)
	application, err := builder.Build(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("app build error")
	}

	if err := application.Start(); err != nil {
		logger.Fatal().Err(err).Msg("app start error")
	}

	waitForShutdown(application)
}

func waitForShutdown(application *app.App) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := application.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
}
