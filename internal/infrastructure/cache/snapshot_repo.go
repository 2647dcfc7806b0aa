package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"salesboard/internal/domain/reports"
)

// CachedRepository serves the snapshot held by an AnalysisCache and loads a
// new one from the wrapped repository only after invalidation or expiry.
// Concurrent misses share one load.
type CachedRepository struct {
	next        reports.Repository
	cache       *AnalysisCache
	group       singleflight.Group
	loadTimeout time.Duration
}

// DefaultLoadTimeout bounds one shared snapshot load.
const DefaultLoadTimeout = 2 * time.Minute

var _ reports.Repository = (*CachedRepository)(nil)

// NewCachedRepository wraps next.
func NewCachedRepository(next reports.Repository, cache *AnalysisCache) *CachedRepository {
	return &CachedRepository{next: next, cache: cache, loadTimeout: DefaultLoadTimeout}
}

// Load returns the cached snapshot, loading it when absent or expired.
// The shared load is detached from ctx so one caller going away does not
// fail the others; that caller gets ctx.Err() while the load continues.
func (r *CachedRepository) Load(ctx context.Context) (*reports.Snapshot, error) {
	if snap, ok := r.cache.currentSnapshot(); ok {
		return snap, nil
	}

	ch := r.group.DoChan("snapshot", func() (any, error) {
		if snap, ok := r.cache.currentSnapshot(); ok {
			return snap, nil
		}
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.loadTimeout)
		defer cancel()

		gen := r.cache.generation()
		snap, err := r.next.Load(loadCtx)
		if err != nil {
			return nil, err
		}
		r.cache.storeSnapshot(snap, gen)
		return snap, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*reports.Snapshot), nil
	}
}

// Ping delegates to the wrapped repository.
func (r *CachedRepository) Ping(ctx context.Context) error {
	return r.next.Ping(ctx)
}

func (c *AnalysisCache) currentSnapshot() (*reports.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snapshot == nil || c.expired(c.snapshotDeadline()) {
		return nil, false
	}
	return c.snapshot, true
}

func (c *AnalysisCache) generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.invalidations
}

// storeSnapshot keeps s unless the cache was invalidated after gen was read,
// in which case s may predate the change. Bundles keyed by a previous
// snapshot can no longer be hit and are dropped.
func (c *AnalysisCache) storeSnapshot(s *reports.Snapshot, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.invalidations != gen {
		return
	}
	if c.snapshot == nil || c.snapshot.ID != s.ID {
		c.bundles = make(map[string]entry)
	}
	c.snapshot = s
	c.loadedAt = c.now()
}

// snapshotDeadline must be called with mu held.
func (c *AnalysisCache) snapshotDeadline() time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}
	return c.loadedAt.Add(c.ttl)
}
