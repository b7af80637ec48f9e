package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"gasolina/internal/cache"
	"gasolina/internal/core"
	"gasolina/internal/ports"
)

// Snapshot is a consistent view of the entries and everything derived from them.
type Snapshot struct {
	Entries    []core.Entry     `json:"entries"`
	Statistics core.Statistics  `json:"statistics"`
	Charts     core.ChartSeries `json:"charts"`
}

type derived struct {
	stats  core.Statistics
	charts core.ChartSeries
}

// StatsService memoizes engine results keyed on the content of the collection.
type StatsService struct {
	entries ports.EntryLister
	budget  ports.BudgetStore
	engine  *core.Engine
	cache   *cache.LRU[uint64, derived]
	group   singleflight.Group
	gen     atomic.Uint64
}

func NewStatsService(entries ports.EntryLister, budget ports.BudgetStore, engine *core.Engine, cacheSize int, ttl time.Duration) *StatsService {
	if engine == nil {
		engine = core.NewEngine(nil)
	}
	return &StatsService{
		entries: entries,
		budget:  budget,
		engine:  engine,
		cache:   cache.NewLRU[uint64, derived](cacheSize, ttl),
	}
}

// Sweeper exposes the result cache for periodic expiry.
func (s *StatsService) Sweeper() cache.Sweeper {
	return s.cache
}

func (s *StatsService) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// Invalidate drops cached results and detaches in-flight loads.
func (s *StatsService) Invalidate() {
	s.gen.Add(1)
	s.cache.Purge()
}

// Snapshot loads entries and budget and returns the derived data.
// Concurrent callers share a single load.
func (s *StatsService) Snapshot(ctx context.Context) (Snapshot, error) {
	key := "snapshot:" + strconv.FormatUint(s.gen.Load(), 10)
	v, err, shared := s.group.Do(key, func() (any, error) {
		// One caller giving up must not fail the others sharing this load.
		return s.load(context.WithoutCancel(ctx))
	})
	if err != nil {
		return Snapshot{}, err
	}
	if shared {
		slog.DebugContext(ctx, "Shared in-flight statistics load")
	}
	snap := v.(Snapshot)
	// Callers may sort or trim the list; never hand out the shared slice.
	snap.Entries = append([]core.Entry(nil), snap.Entries...)
	return snap, nil
}

// Statistics returns the current statistics.
func (s *StatsService) Statistics(ctx context.Context) (core.Statistics, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return core.Statistics{}, err
	}
	return snap.Statistics, nil
}

// ChartSeries returns the cost and price history.
func (s *StatsService) ChartSeries(ctx context.Context) (core.ChartSeries, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return core.ChartSeries{}, err
	}
	return snap.Charts, nil
}

func (s *StatsService) load(ctx context.Context) (Snapshot, error) {
	var (
		entries []core.Entry
		budget  float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if entries, err = s.entries.ListEntries(gctx); err != nil {
			return fmt.Errorf("list entries: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if budget, err = s.budget.Budget(gctx); err != nil {
			return fmt.Errorf("get budget: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	now := s.engine.Now()
	key := Fingerprint(entries, budget, now)
	d, ok := s.cache.Get(key)
	if !ok {
		d = derived{
			stats:  core.ComputeAt(entries, budget, now),
			charts: core.BuildChartSeries(entries),
		}
		s.cache.Put(key, d)
		slog.DebugContext(ctx, "Computed statistics", "key", key, "entries", len(entries))
	}

	return Snapshot{Entries: entries, Statistics: d.stats, Charts: d.charts}, nil
}
