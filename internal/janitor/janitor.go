// Package janitor periodically purges expired cache entries and rate windows.
package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Sweeper removes expired state and reports how many entries it dropped
type Sweeper interface {
	Sweep(ctx context.Context) int
}

// Janitor runs every registered sweeper on a fixed interval
type Janitor struct {
	scheduler *gocron.Scheduler
	interval  time.Duration
	sweepers  map[string]Sweeper
}

// New creates a janitor. Sweepers are keyed by the name used in logs.
func New(interval time.Duration, sweepers map[string]Sweeper) *Janitor {
	if interval <= 0 {
		interval = time.Minute
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Janitor{
		scheduler: s,
		interval:  interval,
		sweepers:  sweepers,
	}
}

// Start schedules the sweep and returns immediately
func (j *Janitor) Start() error {
	if _, err := j.scheduler.Every(j.interval).WaitForSchedule().Do(j.RunOnce); err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}
	j.scheduler.StartAsync()
	slog.Info("janitor started", "interval", j.interval, "sweepers", len(j.sweepers))
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish
func (j *Janitor) Stop() {
	j.scheduler.Stop()
	slog.Info("janitor stopped")
}

// RunOnce sweeps every registered store and returns the total purged
func (j *Janitor) RunOnce() int {
	ctx, cancel := context.WithTimeout(context.Background(), j.interval)
	defer cancel()

	total := 0
	for name, s := range j.sweepers {
		if s == nil {
			continue
		}
		n := s.Sweep(ctx)
		total += n
		if n > 0 {
			slog.Debug("swept expired entries", "store", name, "purged", n)
		}
	}
	return total
}
