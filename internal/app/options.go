package app

import (
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Option is a functional option for configuring App initialization
type Option func(*appConfig)

// appConfig holds the configuration for App initialization
type appConfig struct {
	redisClient *redis.Client
	logger      *slog.Logger
	now         func() time.Time
}

// WithRedisClient uses an existing client instead of dialing redis.url.
// The caller keeps ownership of the client.
func WithRedisClient(client *redis.Client) Option {
	return func(cfg *appConfig) {
		cfg.redisClient = client
	}
}

// WithLogger sets the logger for the application
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *appConfig) {
		cfg.logger = logger
	}
}

// WithClock overrides the clock used by the message cache and the rate guard
func WithClock(now func() time.Time) Option {
	return func(cfg *appConfig) {
		cfg.now = now
	}
}
