package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/thenoetrevino/tablero/internal/events"
	"github.com/thenoetrevino/tablero/internal/types"
)

const (
	channelPrefix  = "tablero:board:"
	channelPattern = channelPrefix + "*"
)

// BoardChannel returns the redis channel carrying a board's events
func BoardChannel(boardID types.BoardID) string {
	return channelPrefix + boardID.String()
}

type relayEnvelope struct {
	Origin string       `json:"origin"`
	Event  events.Event `json:"event"`
}

// RedisRelay bridges board events between processes sharing a redis.
// Local events go to the local hub first and are then published to redis;
// events from other instances are forwarded into the local hub.
// Delivery across processes is at-most-once and unordered relative to local events.
type RedisRelay struct {
	client   *redis.Client
	local    events.Publisher
	instance string
	metrics  *Metrics
	ready    chan struct{}
}

var _ events.Publisher = (*RedisRelay)(nil)

// NewRedisRelay wraps the local publisher
func NewRedisRelay(client *redis.Client, local events.Publisher, metrics *Metrics) *RedisRelay {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &RedisRelay{
		client:   client,
		local:    local,
		instance: uuid.NewString(),
		metrics:  metrics,
		ready:    make(chan struct{}),
	}
}

// Instance returns the id stamped on events this process publishes
func (r *RedisRelay) Instance() string {
	return r.instance
}

// Ready is closed once the pattern subscription is confirmed
func (r *RedisRelay) Ready() <-chan struct{} {
	return r.ready
}

// Publish delivers locally, then fans out to other instances
func (r *RedisRelay) Publish(ctx context.Context, event events.Event) error {
	if err := r.local.Publish(ctx, event); err != nil {
		return err
	}

	payload, err := json.Marshal(relayEnvelope{Origin: r.instance, Event: event})
	if err != nil {
		return fmt.Errorf("failed to encode relay envelope: %w", err)
	}
	if err := r.client.Publish(ctx, BoardChannel(event.BoardID), payload).Err(); err != nil {
		return fmt.Errorf("failed to relay %s event for board %d: %w", event.Kind, event.BoardID, err)
	}
	return nil
}

// Run forwards events from other instances until ctx is cancelled
func (r *RedisRelay) Run(ctx context.Context) error {
	pubsub := r.client.PSubscribe(ctx, channelPattern)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to board channels: %w", err)
	}
	close(r.ready)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.forward(ctx, msg)
		}
	}
}

func (r *RedisRelay) forward(ctx context.Context, msg *redis.Message) {
	var env relayEnvelope
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		slog.Warn("dropping malformed relay message", "channel", msg.Channel, "error", err)
		return
	}
	if env.Origin == r.instance {
		return
	}

	// the channel name is authoritative for the board
	if id, err := strconv.Atoi(strings.TrimPrefix(msg.Channel, channelPrefix)); err == nil {
		env.Event.BoardID = types.BoardID(id)
	}

	r.metrics.RelayReceived.Add(1)
	if err := r.local.Publish(ctx, env.Event); err != nil {
		slog.Warn("failed to deliver relayed event",
			"board_id", env.Event.BoardID,
			"kind", env.Event.Kind,
			"error", err)
	}
}
