package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestGuard(limit int) (*MemoryGuard, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	g := NewMemoryGuard(Options{
		Window: time.Minute,
		Limits: map[Kind]int{KindChatSend: limit},
		Now:    clock.Now,
	})
	return g, clock
}

func TestMemoryGuard_WindowLimit(t *testing.T) {
	g, clock := newTestGuard(3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if ok, _ := g.Allow(ctx, "u1", KindChatSend); !ok {
			t.Fatalf("event %d should be allowed", i+1)
		}
	}
	if ok, _ := g.Allow(ctx, "u1", KindChatSend); ok {
		t.Fatal("fourth event should be rejected")
	}

	clock.Advance(59 * time.Second)
	if ok, _ := g.Allow(ctx, "u1", KindChatSend); ok {
		t.Fatal("still inside the window")
	}

	clock.Advance(time.Second)
	if ok, _ := g.Allow(ctx, "u1", KindChatSend); !ok {
		t.Fatal("a new window should accept again")
	}
}

func TestMemoryGuard_RejectionDoesNotExtendWindow(t *testing.T) {
	g, clock := newTestGuard(1)
	ctx := context.Background()

	_, _ = g.Allow(ctx, "u1", KindChatSend)
	for i := 0; i < 5; i++ {
		clock.Advance(10 * time.Second)
		_, _ = g.Allow(ctx, "u1", KindChatSend)
	}

	clock.Advance(10 * time.Second)
	if ok, _ := g.Allow(ctx, "u1", KindChatSend); !ok {
		t.Error("window started at the first event and should have rolled over")
	}
}

func TestMemoryGuard_IdentitiesAndKindsAreIndependent(t *testing.T) {
	g, _ := newTestGuard(1)
	ctx := context.Background()

	if ok, _ := g.Allow(ctx, "u1", KindChatSend); !ok {
		t.Fatal("u1 first event rejected")
	}
	if ok, _ := g.Allow(ctx, "u2", KindChatSend); !ok {
		t.Error("u2 should have its own window")
	}
	for i := 0; i < 100; i++ {
		if ok, _ := g.Allow(ctx, "u1", KindTopicJoin); !ok {
			t.Fatal("unlimited kind should never be throttled")
		}
	}
}

func TestMemoryGuard_Sweep(t *testing.T) {
	g, clock := newTestGuard(5)
	ctx := context.Background()

	_, _ = g.Allow(ctx, "u1", KindChatSend)
	clock.Advance(30 * time.Second)
	_, _ = g.Allow(ctx, "u2", KindChatSend)
	clock.Advance(30 * time.Second)

	if removed := g.Sweep(ctx); removed != 1 {
		t.Errorf("Sweep removed %d, want 1", removed)
	}
	if g.Len() != 1 {
		t.Errorf("Len = %d, want 1", g.Len())
	}
}

func TestMemoryGuard_Concurrent(t *testing.T) {
	g, _ := newTestGuard(50)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := g.Allow(ctx, "u1", KindChatSend); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Errorf("allowed %d events, want exactly 50", allowed)
	}
}

func TestLimitsFromConfig(t *testing.T) {
	limits := LimitsFromConfig(map[string]int{"chat_send": 30, "topic_join": 20})
	if limits[KindChatSend] != 30 || limits[KindTopicJoin] != 20 {
		t.Errorf("unexpected limits: %v", limits)
	}
}
