package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"

	"zonebourse-go/internal/apiclient"
	"zonebourse-go/internal/config"
	"zonebourse-go/internal/db"
	"zonebourse-go/internal/httpapi"
	"zonebourse-go/internal/render"
	"zonebourse-go/internal/repositories"
	"zonebourse-go/internal/repositories/memory"
	"zonebourse-go/internal/repositories/postgres"
	"zonebourse-go/internal/repositories/redisstore"
	"zonebourse-go/internal/scheduler"
	"zonebourse-go/internal/services/catalog"
	"zonebourse-go/internal/telegram"
)

type Builder struct {
	cfg          *config.Config
	basePath     string
	ensureSchema bool

	pool     *pgxpool.Pool
	redis    *redis.Client
	sessions repositories.SessionRepository
	notifier catalog.Notifier
	client   *http.Client

	scheduler *scheduler.Scheduler
	server    *http.Server
}

type BuilderOption func(*Builder)

func NewBuilder(cfg *config.Config, options ...BuilderOption) *Builder {
	builder := &Builder{
		cfg:          cfg,
		ensureSchema: true,
	}
	for _, option := range options {
		option(builder)
	}
	return builder
}

func WithBasePath(basePath string) BuilderOption {
	return func(b *Builder) {
		b.basePath = basePath
	}
}

func WithEnsureSchema(enabled bool) BuilderOption {
	return func(b *Builder) {
		b.ensureSchema = enabled
	}
}

func WithDBPool(pool *pgxpool.Pool) BuilderOption {
	return func(b *Builder) {
		b.pool = pool
	}
}

func WithRedisClient(client *redis.Client) BuilderOption {
	return func(b *Builder) {
		b.redis = client
	}
}

func WithSessionRepository(repo repositories.SessionRepository) BuilderOption {
	return func(b *Builder) {
		b.sessions = repo
	}
}

func WithNotifier(notifier catalog.Notifier) BuilderOption {
	return func(b *Builder) {
		b.notifier = notifier
	}
}

// WithHTTPClient sets the client used for backend API calls.
func WithHTTPClient(client *http.Client) BuilderOption {
	return func(b *Builder) {
		b.client = client
	}
}

func WithScheduler(scheduler *scheduler.Scheduler) BuilderOption {
	return func(b *Builder) {
		b.scheduler = scheduler
	}
}

func WithHTTPServer(server *http.Server) BuilderOption {
	return func(b *Builder) {
		b.server = server
	}
}

func (b *Builder) Build(ctx context.Context) (*App, error) {
	if b.cfg == nil {
		return nil, errors.New("config is required")
	}

	app := &App{Config: b.cfg}
	if err := b.buildSessions(ctx, app); err != nil {
		return nil, err
	}

	options := []apiclient.Option{
		apiclient.WithTimeout(b.cfg.APITimeout),
		apiclient.WithGetRetries(b.cfg.APIGetRetries, 300*time.Millisecond),
	}
	if b.client != nil {
		options = append(options, apiclient.WithHTTPClient(b.client))
	}
	api, err := apiclient.New(b.cfg.APIBaseURL, options...)
	if err != nil {
		return nil, err
	}
	app.API = api

	if b.notifier == nil {
		if b.cfg.TelegramEnabled() {
			b.notifier = telegram.NewSender(b.cfg.TelegramToken, b.cfg.TelegramChat, b.cfg.TelegramThreadID)
		} else {
			b.notifier = catalog.NopNotifier{}
		}
	}
	app.Notifier = b.notifier
	app.Catalog = catalog.NewService(app.API, app.Notifier)

	if b.scheduler == nil {
		b.scheduler = scheduler.New(b.cfg.SessionSweepSpec, app.Sessions)
	}
	app.Scheduler = b.scheduler

	if b.server == nil {
		renderer, err := render.New()
		if err != nil {
			return nil, err
		}
		handler := httpapi.NewHandler(httpapi.Deps{
			Catalog:      app.Catalog,
			Accounts:     app.API,
			Sessions:     app.Sessions,
			Renderer:     renderer,
			CSRFSecret:   b.cfg.SessionSecret,
			CookieSecure: b.cfg.CookieSecure,
			SessionTTL:   b.cfg.SessionTTL,
			MaxUpload:    b.cfg.MaxUploadBytes(),
			Pprof:        b.cfg.DebugPprof,
		})
		b.server = &http.Server{
			Addr:              ":" + b.cfg.HTTPPort,
			Handler:           handler.Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	app.Server = b.server

	return app, nil
}

func (b *Builder) buildSessions(ctx context.Context, app *App) error {
	if b.sessions != nil {
		app.Sessions = b.sessions
		return nil
	}

	switch b.cfg.SessionStore {
	case config.SessionStoreRedis:
		if b.redis == nil {
			client, err := redisstore.NewClient(ctx, b.cfg.RedisAddr, b.cfg.RedisPassword, b.cfg.RedisDB)
			if err != nil {
				return err
			}
			b.redis = client
			app.ownsRedis = true
		}
		app.Redis = b.redis
		b.sessions = redisstore.NewSessionRepository(b.redis, b.cfg.SessionTTL)

	case config.SessionStorePostgres:
		if b.pool == nil {
			pool, err := db.NewPool(ctx, b.cfg.PostgresDSN())
			if err != nil {
				return err
			}
			b.pool = pool
			app.ownsPool = true
		}
		app.Pool = b.pool

		if b.ensureSchema {
			basePath := b.basePath
			if basePath == "" {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				basePath = wd
			}
			path, err := filepath.Abs(basePath)
			if err != nil {
				return err
			}
			if err := db.EnsureSchema(ctx, b.pool, path); err != nil {
				return err
			}
		}
		b.sessions = postgres.NewSessionRepository(b.pool, b.cfg.SessionTTL)

	case config.SessionStoreMemory, "":
		b.sessions = memory.NewSessionRepository(b.cfg.SessionTTL)

	default:
		return fmt.Errorf("unknown session store %q", b.cfg.SessionStore)
	}

	app.Sessions = b.sessions
	return nil
}
