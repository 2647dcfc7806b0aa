// Package cache keeps loaded sales snapshots and computed analyses in memory,
// dropping them when PostgreSQL reports a change with NOTIFY.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"salesboard/internal/domain/reports"
	"salesboard/internal/domain/sales"
	"salesboard/pkg/logger"
)

// DefaultChannel is the NOTIFY channel written by the sales table trigger.
const DefaultChannel = "sales_changed"

// DefaultMaxEntries bounds the number of memoized bundles.
const DefaultMaxEntries = 256

// AnalysisCache memoizes analysis bundles and the snapshot they were computed
// from. Entries expire after TTL; Invalidate drops everything at once.
type AnalysisCache struct {
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	pool       *pgxpool.Pool
	channel    string
	log        *logger.Logger

	mu       sync.RWMutex
	bundles  map[string]entry
	snapshot *reports.Snapshot
	loadedAt time.Time

	hits          uint64
	misses        uint64
	invalidations uint64

	listeners   []InvalidationListener
	listenersMu sync.RWMutex

	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

type entry struct {
	bundle  *sales.Bundle
	stored  time.Time
	expires time.Time
}

// InvalidationListener is called after the cache was cleared by a notification.
type InvalidationListener func(channel string, payload string)

// Option configures an AnalysisCache.
type Option func(*AnalysisCache)

// WithPool enables the LISTEN loop started by Start.
func WithPool(pool *pgxpool.Pool) Option {
	return func(c *AnalysisCache) { c.pool = pool }
}

// WithChannel overrides DefaultChannel.
func WithChannel(channel string) Option {
	return func(c *AnalysisCache) { c.channel = channel }
}

// WithLog sets the logger; it defaults to logger.Default.
func WithLog(l *logger.Logger) Option {
	return func(c *AnalysisCache) { c.log = l }
}

// WithMaxEntries caps the number of bundles; n <= 0 keeps DefaultMaxEntries.
func WithMaxEntries(n int) Option {
	return func(c *AnalysisCache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *AnalysisCache) { c.now = now }
}

// NewAnalysisCache creates an empty cache. ttl <= 0 disables expiry.
func NewAnalysisCache(ttl time.Duration, opts ...Option) *AnalysisCache {
	c := &AnalysisCache{
		ttl:        ttl,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
		channel:    DefaultChannel,
		bundles:    make(map[string]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Default()
	}
	c.log = c.log.WithComponent("analysis_cache")
	return c
}

var _ reports.Memo = (*AnalysisCache)(nil)

// Get returns a live bundle for key.
func (c *AnalysisCache) Get(key string) (*sales.Bundle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.bundles[key]
	if ok && c.expired(e.expires) {
		delete(c.bundles, key)
		ok = false
	}
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	return e.bundle, true
}

// Put stores bundle under key. Expired entries are swept first; when the
// cache is still full the oldest entry is evicted.
func (c *AnalysisCache) Put(key string, bundle *sales.Bundle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.bundles[key]; !ok && len(c.bundles) >= c.maxEntries {
		c.sweep()
		if len(c.bundles) >= c.maxEntries {
			c.evictOldest()
		}
	}
	c.bundles[key] = entry{bundle: bundle, stored: c.now(), expires: c.deadline()}
}

// sweep must be called with mu held.
func (c *AnalysisCache) sweep() {
	for k, e := range c.bundles {
		if c.expired(e.expires) {
			delete(c.bundles, k)
		}
	}
}

// evictOldest must be called with mu held.
func (c *AnalysisCache) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for k, e := range c.bundles {
		if !found || e.stored.Before(oldest) {
			oldestKey, oldest, found = k, e.stored, true
		}
	}
	if found {
		delete(c.bundles, oldestKey)
	}
}

// Invalidate drops every bundle and the cached snapshot.
func (c *AnalysisCache) Invalidate() {
	c.mu.Lock()
	c.bundles = make(map[string]entry)
	c.snapshot = nil
	c.invalidations++
	c.mu.Unlock()
}

func (c *AnalysisCache) deadline() time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}
	return c.now().Add(c.ttl)
}

func (c *AnalysisCache) expired(deadline time.Time) bool {
	return !deadline.IsZero() && !c.now().Before(deadline)
}

// Stats is a point-in-time view of the cache.
type Stats struct {
	Entries        int       `json:"entries"`
	Hits           uint64    `json:"hits"`
	Misses         uint64    `json:"misses"`
	Invalidations  uint64    `json:"invalidations"`
	SnapshotCached bool      `json:"snapshotCached"`
	SnapshotLoaded time.Time `json:"snapshotLoaded,omitzero"`
	Listening      bool      `json:"listening"`
}

// GetStats returns current cache statistics.
func (c *AnalysisCache) GetStats() Stats {
	c.mu.RLock()
	s := Stats{
		Entries:        len(c.bundles),
		Hits:           c.hits,
		Misses:         c.misses,
		Invalidations:  c.invalidations,
		SnapshotCached: c.snapshot != nil,
	}
	if c.snapshot != nil {
		s.SnapshotLoaded = c.loadedAt
	}
	c.mu.RUnlock()

	c.lifecycleMu.Lock()
	s.Listening = c.started
	c.lifecycleMu.Unlock()
	return s
}

// OnInvalidation registers a callback for notification-driven invalidations.
func (c *AnalysisCache) OnInvalidation(listener InvalidationListener) {
	c.listenersMu.Lock()
	c.listeners = append(c.listeners, listener)
	c.listenersMu.Unlock()
}

// Start begins listening for NOTIFY events on the configured channel.
func (c *AnalysisCache) Start(ctx context.Context) error {
	if c.pool == nil {
		return errors.New("analysis cache: no pool configured for LISTEN")
	}

	c.lifecycleMu.Lock()
	if c.started {
		c.lifecycleMu.Unlock()
		return nil
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.started = true
	c.lifecycleMu.Unlock()

	c.wg.Add(1)
	go c.listenLoop()
	c.log.Infow("analysis cache started", "channel", c.channel, "ttl", c.ttl)
	return nil
}

// Stop stops the listener and waits for it to exit.
func (c *AnalysisCache) Stop() {
	c.lifecycleMu.Lock()
	if !c.started {
		c.lifecycleMu.Unlock()
		return
	}
	cancel := c.cancel
	c.started = false
	c.cancel = nil
	c.lifecycleMu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	c.log.Infow("analysis cache stopped")
}

func (c *AnalysisCache) listenLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		conn, err := c.pool.Acquire(c.ctx)
		if err != nil {
			c.log.Errorw("failed to acquire connection for LISTEN", "error", err)
			c.sleep(time.Second)
			continue
		}

		_, err = conn.Exec(c.ctx, listenStatement(c.channel))
		if err != nil {
			c.log.Errorw("failed to LISTEN", "channel", c.channel, "error", err)
			conn.Release()
			c.sleep(time.Second)
			continue
		}

		// Changes may have been missed while no connection was listening.
		c.Invalidate()
		c.log.Infow("listening for notifications", "channel", c.channel)

		c.waitForNotifications(conn)
		conn.Release()
	}
}

func listenStatement(channel string) string {
	return "LISTEN " + pgx.Identifier{channel}.Sanitize()
}

func (c *AnalysisCache) waitForNotifications(conn *pgxpool.Conn) {
	for {
		ctx, cancel := context.WithTimeout(c.ctx, 30*time.Second)
		notification, err := conn.Conn().WaitForNotification(ctx)
		cancel()

		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			// Broken connection; the outer loop reconnects.
			c.log.Warnw("wait for notification failed", "error", err)
			return
		}

		c.handleNotification(notification.Channel, notification.Payload)
	}
}

func (c *AnalysisCache) handleNotification(channel, payload string) {
	if channel != c.channel {
		return
	}
	c.Invalidate()
	c.log.Debugw("analysis cache invalidated", "channel", channel, "payload", payload)

	c.listenersMu.RLock()
	defer c.listenersMu.RUnlock()
	for _, listener := range c.listeners {
		func(l InvalidationListener) {
			defer func() {
				if r := recover(); r != nil {
					c.log.Errorw("listener panic recovered", "channel", channel, "panic", r)
				}
			}()
			l(channel, payload)
		}(listener)
	}
}

func (c *AnalysisCache) sleep(d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-c.ctx.Done():
	case <-t.C:
	}
}
