package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "tablero:rl:"

// incrScript starts the window on the first hit and counts every hit.
// KEYS[1] window key; ARGV[1] window in ms.
var incrScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

// RedisGuard is a fixed-window Guard shared across processes
type RedisGuard struct {
	client *redis.Client
	opts   Options
}

var _ Guard = (*RedisGuard)(nil)

// NewRedisGuard creates a guard on an existing client
func NewRedisGuard(client *redis.Client, opts Options) *RedisGuard {
	opts.applyDefaults()
	return &RedisGuard{client: client, opts: opts}
}

// Allow counts one event and reports whether it is within the limit
func (g *RedisGuard) Allow(ctx context.Context, identity string, kind Kind) (bool, error) {
	limit, ok := g.opts.Limits[kind]
	if !ok || limit <= 0 {
		return true, nil
	}

	key := keyPrefix + string(kind) + ":" + identity
	n, err := incrScript.Run(ctx, g.client, []string{key}, g.opts.Window.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit for %s: %w", identity, err)
	}
	return n <= limit, nil
}

// Sweep is a no-op; redis expires windows itself
func (g *RedisGuard) Sweep(context.Context) int {
	return 0
}
