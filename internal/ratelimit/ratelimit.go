// Package ratelimit throttles abusive identities with a fixed-window counter.
package ratelimit

import (
	"context"
	"time"
)

// Kind is the event kind being throttled
type Kind string

const (
	KindChatSend  Kind = "chat_send"
	KindTopicJoin Kind = "topic_join"
)

// Guard decides whether an identity may perform one more event of a kind.
// Kinds without a configured limit are never throttled.
type Guard interface {
	Allow(ctx context.Context, identity string, kind Kind) (bool, error)
	Sweep(ctx context.Context) int
}

// Options configures a guard
type Options struct {
	Window time.Duration
	Limits map[Kind]int
	Now    func() time.Time
}

func (o *Options) applyDefaults() {
	if o.Window <= 0 {
		o.Window = time.Minute
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Limits == nil {
		o.Limits = map[Kind]int{}
	}
}

// LimitsFromConfig converts the configured map into typed kinds
func LimitsFromConfig(limits map[string]int) map[Kind]int {
	out := make(map[Kind]int, len(limits))
	for k, v := range limits {
		out[Kind(k)] = v
	}
	return out
}
