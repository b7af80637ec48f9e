// Package cache memoizes derived results in process.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"gasolina/internal/log"
)

// Stats counts lookups since the cache was created.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
	Size      int    `json:"size"`
}

// HitRatio is hits over lookups, or 0 before the first lookup.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Sweeper is a cache that can drop its expired items.
type Sweeper interface {
	Sweep() int
}

// Janitor sweeps a set of named caches on an interval.
type Janitor struct {
	logger *slog.Logger
	mu     sync.Mutex
	caches map[string]Sweeper
}

func NewJanitor(logger *slog.Logger) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{logger: logger.With(log.FieldComponent, log.ComponentCache), caches: make(map[string]Sweeper)}
}

// Watch adds c under name, replacing any cache already registered with it.
func (j *Janitor) Watch(name string, c Sweeper) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.caches[name] = c
}

// SweepAll sweeps every watched cache and returns how many items were dropped.
func (j *Janitor) SweepAll() int {
	j.mu.Lock()
	defer j.mu.Unlock()

	total := 0
	for name, c := range j.caches {
		if n := c.Sweep(); n > 0 {
			j.logger.Debug("Cache sweep", "cache", name, "removed", n)
			total += n
		}
	}
	return total
}

// Run sweeps every interval until ctx is done.
func (j *Janitor) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			j.SweepAll()
		}
	}
}
