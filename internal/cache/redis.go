package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/thenoetrevino/tablero/internal/models"
	"github.com/thenoetrevino/tablero/internal/types"
)

const keyPrefix = "tablero:chat:"

// appendScript pushes onto an existing list only, then trims and refreshes the TTL.
// KEYS[1] list key; ARGV[1] encoded message, ARGV[2] capacity, ARGV[3] ttl in ms.
var appendScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('RPUSH', KEYS[1], ARGV[1])
redis.call('LTRIM', KEYS[1], -tonumber(ARGV[2]), -1)
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

// RedisCache is a MessageCache shared by every process pointed at the same redis.
// Each board is a list of JSON messages; redis handles expiry.
// An empty board cannot be represented by a list, so it always reads as a miss.
type RedisCache struct {
	client *redis.Client
	opts   Options
}

var _ MessageCache = (*RedisCache)(nil)

// NewRedisCache creates a cache on an existing client
func NewRedisCache(client *redis.Client, opts Options) *RedisCache {
	opts.applyDefaults()
	return &RedisCache{client: client, opts: opts}
}

func boardKey(boardID types.BoardID) string {
	return keyPrefix + boardID.String()
}

// Get returns the board's messages
func (c *RedisCache) Get(ctx context.Context, boardID types.BoardID) ([]models.ChatMessage, bool, error) {
	raw, err := c.client.LRange(ctx, boardKey(boardID), 0, -1).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached messages for board %d: %w", boardID, err)
	}
	if len(raw) == 0 {
		return nil, false, nil
	}

	msgs := make([]models.ChatMessage, 0, len(raw))
	for _, item := range raw {
		var m models.ChatMessage
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, false, fmt.Errorf("failed to decode cached message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, true, nil
}

// Set replaces the board's list in one transaction
func (c *RedisCache) Set(ctx context.Context, boardID types.BoardID, msgs []models.ChatMessage) error {
	msgs = newest(msgs, c.opts.Capacity)
	values := make([]any, 0, len(msgs))
	for _, m := range msgs {
		b, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
		values = append(values, b)
	}

	key := boardKey(boardID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			pipe.RPush(ctx, key, values...)
			pipe.PExpire(ctx, key, c.opts.TTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to cache messages for board %d: %w", boardID, err)
	}
	return nil
}

// Append pushes onto a live list
func (c *RedisCache) Append(ctx context.Context, boardID types.BoardID, msg models.ChatMessage) (bool, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return false, fmt.Errorf("failed to encode message: %w", err)
	}

	n, err := appendScript.Run(ctx, c.client, []string{boardKey(boardID)},
		b, c.opts.Capacity, c.opts.TTL.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to append cached message for board %d: %w", boardID, err)
	}
	return n == 1, nil
}

// Invalidate drops the board's list
func (c *RedisCache) Invalidate(ctx context.Context, boardID types.BoardID) error {
	if err := c.client.Del(ctx, boardKey(boardID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate board %d: %w", boardID, err)
	}
	return nil
}

// Sweep is a no-op; redis expires keys itself
func (c *RedisCache) Sweep(context.Context) int {
	return 0
}
