package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/thenoetrevino/tablero/internal/cache"
	"github.com/thenoetrevino/tablero/internal/config"
	"github.com/thenoetrevino/tablero/internal/crypto"
	"github.com/thenoetrevino/tablero/internal/database"
	"github.com/thenoetrevino/tablero/internal/events"
	"github.com/thenoetrevino/tablero/internal/janitor"
	"github.com/thenoetrevino/tablero/internal/models"
	"github.com/thenoetrevino/tablero/internal/permission"
	"github.com/thenoetrevino/tablero/internal/ratelimit"
	"github.com/thenoetrevino/tablero/internal/realtime"
	boardservice "github.com/thenoetrevino/tablero/internal/services/board"
	cardservice "github.com/thenoetrevino/tablero/internal/services/card"
	chatservice "github.com/thenoetrevino/tablero/internal/services/chat"
	columnservice "github.com/thenoetrevino/tablero/internal/services/column"
)

// App holds all application services and provides dependency injection.
// This is the main application container that manages service lifecycles.
type App struct {
	// Repository layer (direct database access)
	repo *database.Repository

	// Shared infrastructure
	Gate      *permission.Gate
	Hub       *realtime.Hub
	Relay     *realtime.RedisRelay // nil unless realtime.relay is enabled with redis
	Publisher events.Publisher
	Messages  cache.MessageCache
	Guard     ratelimit.Guard
	Janitor   *janitor.Janitor

	// Service layer (business logic)
	BoardService  boardservice.Service
	ColumnService columnservice.Service
	CardService   cardservice.Service
	ChatService   chatservice.Service

	cfg         *config.Config
	logger      *slog.Logger
	redis       *redis.Client
	ownsRedis   bool
	stopRelay   context.CancelFunc
	relayExited chan struct{}
}

// New creates a new App with all services initialized.
// This is the single entry point for creating the application container.
func New(ctx context.Context, repo *database.Repository, cfg *config.Config, opts ...Option) (*App, error) {
	ac := &appConfig{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(ac)
	}

	cipher, err := crypto.NewCipherFromSecret(cfg.Chat.Secret)
	if err != nil {
		return nil, fmt.Errorf("chat cipher: %w", err)
	}

	a := &App{
		repo:   repo,
		cfg:    cfg,
		logger: ac.logger,
		redis:  ac.redisClient,
	}

	if a.redis == nil && cfg.Redis.URL != "" {
		client, err := dialRedis(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		a.redis = client
		a.ownsRedis = true
	}

	cacheOpts := cache.Options{
		Capacity:  cfg.Chat.CacheSize,
		TTL:       cfg.Chat.CacheTTL,
		MaxBoards: cfg.Chat.CacheBoards,
		Now:       ac.now,
	}
	guardOpts := ratelimit.Options{
		Window: cfg.RateLimit.Window,
		Limits: ratelimit.LimitsFromConfig(cfg.RateLimit.Limits),
		Now:    ac.now,
	}

	if a.redis != nil {
		a.Messages = cache.NewRedisCache(a.redis, cacheOpts)
		a.Guard = ratelimit.NewRedisGuard(a.redis, guardOpts)
	} else {
		mc, err := cache.NewMemoryCache(cacheOpts)
		if err != nil {
			a.closeRedis()
			return nil, err
		}
		a.Messages = mc
		a.Guard = ratelimit.NewMemoryGuard(guardOpts)
	}

	a.Gate = permission.NewGate(repo.Boards)

	metrics := realtime.NewMetrics()
	hubOpts := []realtime.HubOption{realtime.WithMetrics(metrics)}
	if cfg.Realtime.RequireMembershipOnJoin {
		hubOpts = append(hubOpts, realtime.WithJoinAuthorizer(a.Gate))
	}
	a.Hub = realtime.NewHub(hubOpts...)
	a.Publisher = a.Hub

	switch {
	case cfg.Realtime.Relay && a.redis != nil:
		a.Relay = realtime.NewRedisRelay(a.redis, a.Hub, metrics)
		a.Publisher = a.Relay
	case cfg.Realtime.Relay:
		a.logger.Warn("realtime relay requested without redis, events stay in-process")
	}

	a.Janitor = janitor.New(cfg.Janitor.Interval, map[string]janitor.Sweeper{
		"message_cache": a.Messages,
		"ratelimit":     a.Guard,
	})

	locks := database.NewBoardLocks()
	a.BoardService = boardservice.NewService(repo, a.Gate, locks, a.Publisher, a.Messages)
	a.ColumnService = columnservice.NewService(repo, a.Gate, locks, a.Publisher)
	a.CardService = cardservice.NewService(repo, a.Gate, locks, a.Publisher)
	a.ChatService = chatservice.NewService(repo.Messages, a.Gate, cipher, a.Messages, a.Publisher,
		chatservice.WithGuard(a.Guard),
		chatservice.WithHistory(cfg.Chat.CacheSize),
		chatservice.WithMaxLength(cfg.Chat.MaxLength),
	)

	a.logger.Info("app initialised",
		"dialect", repo.Dialect(),
		"shared_backends", a.redis != nil,
		"relay", a.Relay != nil,
		"join_requires_membership", cfg.Realtime.RequireMembershipOnJoin)

	return a, nil
}

func dialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid redis url: %v", models.ErrInternal, err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	return client, nil
}

// Start launches background work: the janitor and, when enabled, the relay subscriber.
// The relay is subscribed before Start returns.
func (a *App) Start(ctx context.Context) error {
	if err := a.Janitor.Start(); err != nil {
		return err
	}
	if a.Relay == nil {
		return nil
	}

	relayCtx, cancel := context.WithCancel(ctx)
	a.stopRelay = cancel
	a.relayExited = make(chan struct{})
	errCh := make(chan error, 1)

	go func() {
		defer close(a.relayExited)
		if err := a.Relay.Run(relayCtx); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-a.Relay.Ready():
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Repo returns the underlying repository for direct database access
func (a *App) Repo() *database.Repository {
	return a.repo
}

// Config returns the configuration the app was built from
func (a *App) Config() *config.Config {
	return a.cfg
}

// Close stops background work and releases the redis client when the app dialled it
func (a *App) Close() error {
	a.Janitor.Stop()
	if a.stopRelay != nil {
		a.stopRelay()
		<-a.relayExited
	}
	return a.closeRedis()
}

func (a *App) closeRedis() error {
	if a.redis == nil || !a.ownsRedis {
		return nil
	}
	if err := a.redis.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	return nil
}
