package crossref

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapponejosh/manseryeok-api/internal/calendar"
	"github.com/zapponejosh/manseryeok-api/internal/database"
	"github.com/zapponejosh/manseryeok-api/internal/saju"
)

func testStore(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(database.DefaultConfig(":memory:"), quietLogger())
	require.NoError(t, err)
	_, err = db.Migrate(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// tableSource answers from the built-in lunar table, optionally failing or
// blocking until released.
type tableSource struct {
	calls   atomic.Int32
	err     error
	failOn  map[string]bool
	release chan struct{}
}

func (s *tableSource) Fetch(ctx context.Context, solar calendar.Date) (*Result, error) {
	s.calls.Add(1)
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.failOn[solar.String()] {
		return nil, ErrNoData
	}

	lunar, err := calendar.SolarToLunar(solar)
	if err != nil {
		return nil, err
	}
	return &Result{
		Reference: saju.CrossReference{
			LunarYear:  lunar.Year,
			LunarMonth: lunar.Month,
			LunarDay:   lunar.Day,
			LeapMonth:  lunar.LeapMonth,
			JulianDay:  solar.JulianDayNumber(),
			SourceName: KASISourceName,
		},
		Raw: []byte(`{"stub":true}`),
	}, nil
}

func TestCachedLookup_MissThenHit(t *testing.T) {
	store := testStore(t)
	src := &tableSource{}
	cache := NewCachedLookup(store, src, nil, quietLogger())
	ctx := context.Background()
	date := calendar.NewDate(1990, 1, 27)

	first, err := cache.LookupLunar(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, calendar.LunarDate{Year: 1990, Month: 1, Day: 1}, first.LunarDate())

	second, err := cache.LookupLunar(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), src.calls.Load())

	rec, err := store.GetCrossReference(ctx, "1990-01-27")
	require.NoError(t, err)
	require.NotNil(t, rec.RawResponse)
	assert.Equal(t, `{"stub":true}`, *rec.RawResponse)
	require.NotNil(t, rec.JulianDay)
	assert.Equal(t, int64(2447919), *rec.JulianDay)

	logs, err := store.GetRecentLookupLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.True(t, logs[0].Success)
	assert.Equal(t, "1990-01-27", logs[0].SolarDate)
}

func TestCachedLookup_SourceFailure(t *testing.T) {
	store := testStore(t)
	src := &tableSource{err: ErrUpstream}
	cache := NewCachedLookup(store, src, nil, quietLogger())
	ctx := context.Background()

	_, err := cache.LookupLunar(ctx, calendar.NewDate(2000, 1, 1))
	assert.ErrorIs(t, err, ErrUpstream)

	_, err = store.GetCrossReference(ctx, "2000-01-01")
	assert.True(t, database.IsNotFound(err))

	logs, err := store.GetRecentLookupLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.False(t, logs[0].Success)
	require.NotNil(t, logs[0].ErrorMessage)
	assert.Contains(t, *logs[0].ErrorMessage, "upstream")
}

func TestCachedLookup_NoKeyIsNotLogged(t *testing.T) {
	store := testStore(t)
	cache := NewCachedLookup(store, &tableSource{err: ErrNoServiceKey}, nil, quietLogger())
	ctx := context.Background()

	_, err := cache.LookupLunar(ctx, calendar.NewDate(2000, 1, 1))
	assert.ErrorIs(t, err, ErrNoServiceKey)

	logs, err := store.GetRecentLookupLogs(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestCachedLookup_CollapsesConcurrentMisses(t *testing.T) {
	store := testStore(t)
	src := &tableSource{release: make(chan struct{})}
	cache := NewCachedLookup(store, src, nil, quietLogger())
	date := calendar.NewDate(2024, 2, 10)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	refs := make([]*saju.CrossReference, n)
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			refs[i], errs[i] = cache.LookupLunar(context.Background(), date)
		}()
	}

	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(src.release)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, calendar.LunarDate{Year: 2024, Month: 1, Day: 1}, refs[i].LunarDate())
	}
}

func TestCachedLookup_CallerTimeoutDoesNotFailSharedLookup(t *testing.T) {
	store := testStore(t)
	src := &tableSource{release: make(chan struct{})}
	cache := NewCachedLookup(store, src, nil, quietLogger())
	date := calendar.NewDate(2017, 6, 24)

	impatient, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := cache.LookupLunar(impatient, date)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)

	type result struct {
		ref *saju.CrossReference
		err error
	}
	second := make(chan result, 1)
	go func() {
		ref, err := cache.LookupLunar(context.Background(), date)
		second <- result{ref, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(src.release)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, calendar.LunarDate{Year: 2017, Month: 5, Day: 1, LeapMonth: true}, got.ref.LunarDate())
	assert.Equal(t, int32(1), src.calls.Load())

	_, err := store.GetCrossReference(context.Background(), "2017-06-24")
	assert.NoError(t, err)
}

func TestCachedLookup_FillTimeout(t *testing.T) {
	store := testStore(t)
	src := &tableSource{release: make(chan struct{})}
	cache := NewCachedLookup(store, src, nil, quietLogger())
	cache.fillTimeout = 20 * time.Millisecond

	_, err := cache.LookupLunar(context.Background(), calendar.NewDate(2024, 2, 10))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCachedLookup_Warm(t *testing.T) {
	store := testStore(t)
	src := &tableSource{failOn: map[string]bool{"2024-02-12": true}}
	cache := NewCachedLookup(store, src, nil, quietLogger())
	ctx := context.Background()

	report, err := cache.Warm(ctx, calendar.NewDate(2024, 2, 8), calendar.NewDate(2024, 2, 17), 3)
	require.NoError(t, err)
	assert.Equal(t, WarmReport{Requested: 10, Fetched: 9, Failed: 1}, report)

	stats, err := store.GetCacheStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9, stats.TotalDates)
	assert.Equal(t, "2024-02-08", stats.EarliestDate)
	assert.Equal(t, "2024-02-17", stats.LatestDate)

	// A second pass is served from the cache except the failed date.
	before := src.calls.Load()
	_, err = cache.Warm(ctx, calendar.NewDate(2024, 2, 8), calendar.NewDate(2024, 2, 17), 3)
	require.NoError(t, err)
	assert.Equal(t, before+1, src.calls.Load())
}

func TestCachedLookup_WarmCanceled(t *testing.T) {
	store := testStore(t)
	cache := NewCachedLookup(store, &tableSource{}, nil, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cache.Warm(ctx, calendar.NewDate(2024, 1, 1), calendar.NewDate(2024, 12, 31), 4)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestCachedLookup_WithEngine(t *testing.T) {
	store := testStore(t)
	cache := NewCachedLookup(store, &tableSource{}, nil, quietLogger())

	engine, err := saju.NewEngine(saju.DefaultOptions(), cache, quietLogger())
	require.NoError(t, err)

	chart, err := engine.Calculate(context.Background(), saju.CalendarInput{Date: "1990-01-27", Time: "12:00"})
	require.NoError(t, err)
	require.NotNil(t, chart.CrossReference)
	assert.True(t, chart.CrossReference.Agrees)
	assert.Equal(t, KASISourceName, chart.CrossReference.SourceName)
	assert.Equal(t, 2447919, chart.CrossReference.JulianDay)
}
