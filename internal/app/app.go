package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"

	"zonebourse-go/internal/apiclient"
	"zonebourse-go/internal/config"
	"zonebourse-go/internal/logger"
	"zonebourse-go/internal/repositories"
	"zonebourse-go/internal/scheduler"
	"zonebourse-go/internal/services/catalog"
)

type App struct {
	Config    *config.Config
	Pool      *pgxpool.Pool
	Redis     *redis.Client
	Sessions  repositories.SessionRepository
	API       *apiclient.Client
	Notifier  catalog.Notifier
	Catalog   *catalog.Service
	Scheduler *scheduler.Scheduler
	Server    *http.Server

	ownsPool  bool
	ownsRedis bool
}

func (a *App) Start() error {
	if err := a.Scheduler.Start(); err != nil {
		return err
	}

	go func() {
		logger.Info().Str("addr", a.Server.Addr).Str("backend", a.API.BaseURL()).Msg("http server listening")
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	return nil
}

// Shutdown stops the server and releases every resource even when the
// server does not drain in time. The server error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	a.Scheduler.Stop()
	serverErr := a.Server.Shutdown(ctx)
	if serverErr != nil {
		logger.Error().Err(serverErr).Msg("http server shutdown")
	}
	if closer, ok := a.Notifier.(interface{ Close() }); ok {
		closer.Close()
	}
	if a.ownsRedis && a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logger.Warn().Err(err).Msg("close redis")
		}
	}
	if a.ownsPool && a.Pool != nil {
		a.Pool.Close()
	}
	return serverErr
}
