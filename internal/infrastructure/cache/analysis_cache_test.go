package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"salesboard/internal/core/id"
	"salesboard/internal/domain/reports"
	"salesboard/internal/domain/sales"
	"salesboard/pkg/logger"
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
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type countingRepo struct {
	mu    sync.Mutex
	loads int
	err   error
}

func (r *countingRepo) Load(context.Context) (*reports.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads++
	if r.err != nil {
		return nil, r.err
	}
	return &reports.Snapshot{ID: id.New(), Table: sales.Table{}}, nil
}

func (r *countingRepo) Ping(context.Context) error { return r.err }

func TestAnalysisCache_GetPut(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewAnalysisCache(time.Minute, WithClock(clock.Now))
	bundle := sales.Analyze(sales.Table{})

	_, ok := c.Get("k")
	assert.False(t, ok)

	c.Put("k", bundle)
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Same(t, bundle, got)

	clock.Advance(time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)

	stats := c.GetStats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(2), stats.Misses)
	assert.Zero(t, stats.Entries)
	assert.False(t, stats.Listening)
}

func TestAnalysisCache_NoTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewAnalysisCache(0, WithClock(clock.Now))
	c.Put("k", sales.Analyze(sales.Table{}))

	clock.Advance(24 * time.Hour)
	_, ok := c.Get("k")
	assert.True(t, ok)
}

func TestAnalysisCache_Notification(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	c := NewAnalysisCache(time.Minute, WithLog(&logger.Logger{SugaredLogger: zap.New(core).Sugar()}))
	c.Put("k", sales.Analyze(sales.Table{}))

	var got []string
	c.OnInvalidation(func(channel, payload string) { got = append(got, channel+":"+payload) })
	c.OnInvalidation(func(string, string) { panic("listener bug") })

	c.handleNotification("other_channel", "x")
	assert.Equal(t, 1, c.GetStats().Entries)

	c.handleNotification(DefaultChannel, "sales_transactions")
	assert.Zero(t, c.GetStats().Entries)
	assert.Equal(t, []string{"sales_changed:sales_transactions"}, got)

	panics := logs.FilterMessage("listener panic recovered").All()
	require.Len(t, panics, 1)
	assert.Equal(t, "analysis_cache", panics[0].ContextMap()["component"])
}

func TestAnalysisCache_StartWithoutPool(t *testing.T) {
	c := NewAnalysisCache(time.Minute)
	assert.Error(t, c.Start(context.Background()))
	c.Stop()
}

func TestCachedRepository(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewAnalysisCache(time.Minute, WithClock(clock.Now))
	next := &countingRepo{}
	repo := NewCachedRepository(next, c)
	ctx := context.Background()

	first, err := repo.Load(ctx)
	require.NoError(t, err)
	second, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, next.loads)

	c.Invalidate()
	third, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
	assert.Equal(t, 2, next.loads)

	clock.Advance(2 * time.Minute)
	_, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, next.loads)
	assert.True(t, c.GetStats().SnapshotCached)
}

func TestCachedRepository_LoadError(t *testing.T) {
	boom := errors.New("down")
	repo := NewCachedRepository(&countingRepo{err: boom}, NewAnalysisCache(time.Minute))

	_, err := repo.Load(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, repo.Ping(context.Background()), boom)
}

func TestAnalysisCache_PutEvictsOldestWhenFull(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewAnalysisCache(time.Minute, WithClock(clock.Now), WithMaxEntries(3))
	bundle := sales.Analyze(sales.Table{})

	for _, k := range []string{"a", "b", "c"} {
		c.Put(k, bundle)
		clock.Advance(time.Second)
	}
	c.Put("b", bundle)
	assert.Equal(t, 3, c.GetStats().Entries)

	c.Put("d", bundle)
	assert.Equal(t, 3, c.GetStats().Entries)
	_, ok := c.Get("a")
	assert.False(t, ok)
	for _, k := range []string{"b", "c", "d"} {
		_, ok := c.Get(k)
		assert.True(t, ok, k)
	}
}

func TestAnalysisCache_PutSweepsExpired(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewAnalysisCache(time.Minute, WithClock(clock.Now), WithMaxEntries(3))
	bundle := sales.Analyze(sales.Table{})

	c.Put("a", bundle)
	c.Put("b", bundle)
	c.Put("c", bundle)
	clock.Advance(2 * time.Minute)

	c.Put("d", bundle)
	assert.Equal(t, 1, c.GetStats().Entries)
}

func TestListenStatement(t *testing.T) {
	assert.Equal(t, `LISTEN "sales_changed"`, listenStatement(DefaultChannel))
	assert.Equal(t, `LISTEN "x""; DROP TABLE t; --"`, listenStatement(`x"; DROP TABLE t; --`))
}

func TestCachedRepository_DropsBundlesOfReplacedSnapshot(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewAnalysisCache(time.Minute, WithClock(clock.Now))
	next := &countingRepo{}
	svc := reports.NewService(NewCachedRepository(next, c), c)
	dates := sales.NewDateRange(
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	)
	clients := []string{"A", "B", "C", "D"}

	for reload := 0; reload < 5; reload++ {
		for _, client := range clients {
			_, err := svc.Analyze(context.Background(), sales.FilterSpec{Client: sales.Eq(client), Dates: dates})
			require.NoError(t, err)
		}
		assert.Equal(t, len(clients), c.GetStats().Entries, "reload %d", reload)
		clock.Advance(2 * time.Minute)
	}
	assert.Equal(t, 5, next.loads)
}

type blockingRepo struct {
	started chan struct{}
	release chan struct{}

	mu    sync.Mutex
	loads int
}

func (r *blockingRepo) Load(ctx context.Context) (*reports.Snapshot, error) {
	r.mu.Lock()
	r.loads++
	r.mu.Unlock()

	close(r.started)
	<-r.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &reports.Snapshot{ID: id.New(), Table: sales.Table{}}, nil
}

func (r *blockingRepo) Ping(context.Context) error { return nil }

func TestCachedRepository_CallerCancelKeepsSharedLoad(t *testing.T) {
	next := &blockingRepo{started: make(chan struct{}), release: make(chan struct{})}
	repo := NewCachedRepository(next, NewAnalysisCache(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := repo.Load(ctx)
		firstErr <- err
	}()

	<-next.started
	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	type result struct {
		snap *reports.Snapshot
		err  error
	}
	second := make(chan result, 1)
	go func() {
		snap, err := repo.Load(context.Background())
		second <- result{snap, err}
	}()
	close(next.release)

	res := <-second
	require.NoError(t, res.err)
	assert.NotNil(t, res.snap)
	assert.Equal(t, 1, next.loads)
}
