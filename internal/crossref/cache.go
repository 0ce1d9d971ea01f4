package crossref

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/zapponejosh/manseryeok-api/internal/calendar"
	"github.com/zapponejosh/manseryeok-api/internal/database"
	"github.com/zapponejosh/manseryeok-api/internal/metrics"
	"github.com/zapponejosh/manseryeok-api/internal/saju"
)

// DefaultFillTimeout bounds one shared remote lookup. It matches the KASI
// client's default HTTP timeout.
const DefaultFillTimeout = 10 * time.Second

// Store persists fetched records. *database.DB satisfies it.
type Store interface {
	GetCrossReference(ctx context.Context, solarDate string) (*database.CrossReferenceRecord, error)
	UpsertCrossReference(ctx context.Context, rec *database.CrossReferenceRecord) error
	LogLookupAttempt(ctx context.Context, entry *database.LookupLogEntry) error
}

// CachedLookup serves records from the store and falls back to the source.
// A solar date's lunar record never changes, so cached rows never expire.
// Concurrent misses for the same date share one remote call.
type CachedLookup struct {
	store   Store
	source  Source
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger

	// fillTimeout bounds a remote lookup independently of the callers
	// waiting on it.
	fillTimeout time.Duration
}

// NewCachedLookup creates a cache in front of source. m and logger may be nil.
func NewCachedLookup(store Store, source Source, m *metrics.Metrics, logger *slog.Logger) *CachedLookup {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedLookup{
		store:       store,
		source:      source,
		metrics:     m,
		logger:      logger.With(slog.String("component", "crossref_cache")),
		fillTimeout: DefaultFillTimeout,
	}
}

// LookupLunar implements saju.CrossReferencer.
func (c *CachedLookup) LookupLunar(ctx context.Context, solar calendar.Date) (*saju.CrossReference, error) {
	key := solar.String()

	start := time.Now()
	rec, err := c.store.GetCrossReference(ctx, key)
	switch {
	case err == nil:
		c.metrics.ObserveLookup("cache", "hit", time.Since(start))
		ref := recordToReference(rec)
		return &ref, nil
	case database.IsNotFound(err):
		c.metrics.ObserveLookup("cache", "miss", time.Since(start))
	default:
		// A broken cache should not hide the remote source.
		c.metrics.ObserveLookup("cache", "error", time.Since(start))
		c.logger.WarnContext(ctx, "cache read failed", slog.String("solar_date", key), slog.Any("error", err))
	}

	// The flight runs on a detached context: a caller that gives up early
	// must not fail the others waiting on the same date.
	ch := c.group.DoChan(key, func() (interface{}, error) {
		fillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fillTimeout)
		defer cancel()
		return c.fill(fillCtx, solar)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		c.logger.DebugContext(ctx, "shared in-flight lookup", slog.String("solar_date", key))
	}

	ref := *res.Val.(*saju.CrossReference)
	return &ref, nil
}

// fill fetches from the source, stores the record and logs the attempt.
func (c *CachedLookup) fill(ctx context.Context, solar calendar.Date) (*saju.CrossReference, error) {
	key := solar.String()
	start := time.Now()

	res, err := c.source.Fetch(ctx, solar)
	elapsed := time.Since(start)

	// No key means nothing was attempted; keep the log about real calls.
	if !errors.Is(err, ErrNoServiceKey) {
		c.logAttempt(ctx, key, start, elapsed, err)
	}
	if err != nil {
		return nil, err
	}

	rec := referenceToRecord(key, res)
	if err := c.store.UpsertCrossReference(context.WithoutCancel(ctx), rec); err != nil {
		c.logger.WarnContext(ctx, "cache write failed", slog.String("solar_date", key), slog.Any("error", err))
	}

	ref := res.Reference
	return &ref, nil
}

func (c *CachedLookup) logAttempt(ctx context.Context, key string, start time.Time, elapsed time.Duration, err error) {
	ms := elapsed.Milliseconds()
	entry := &database.LookupLogEntry{
		SolarDate:   key,
		SourceName:  KASISourceName,
		RequestedAt: start,
		Success:     err == nil,
		DurationMs:  &ms,
	}
	if err != nil {
		msg := err.Error()
		entry.ErrorMessage = &msg
	}
	if logErr := c.store.LogLookupAttempt(context.WithoutCancel(ctx), entry); logErr != nil {
		c.logger.WarnContext(ctx, "lookup log write failed", slog.Any("error", logErr))
	}
}

// WarmReport summarizes a Warm run.
type WarmReport struct {
	Requested int
	Fetched   int
	Failed    int
}

// Warm looks up every date in [from, to] with at most workers concurrent
// lookups, filling the cache. Individual failures are counted, not returned;
// only context cancellation stops the run early.
func (c *CachedLookup) Warm(ctx context.Context, from, to calendar.Date, workers int) (WarmReport, error) {
	if workers < 1 {
		workers = 1
	}

	var dates []calendar.Date
	for d := from; !d.After(to); d = d.AddDays(1) {
		dates = append(dates, d)
	}

	results := make([]error, len(dates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, d := range dates {
		i, d := i, d
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, results[i] = c.LookupLunar(gctx, d)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return WarmReport{}, err
	}

	report := WarmReport{Requested: len(dates)}
	for _, err := range results {
		if err != nil {
			report.Failed++
		} else {
			report.Fetched++
		}
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func recordToReference(rec *database.CrossReferenceRecord) saju.CrossReference {
	ref := saju.CrossReference{
		LunarYear:  rec.LunarYear,
		LunarMonth: rec.LunarMonth,
		LunarDay:   rec.LunarDay,
		LeapMonth:  rec.LeapMonth,
		YearGanji:  rec.YearGanji,
		MonthGanji: rec.MonthGanji,
		DayGanji:   rec.DayGanji,
		SourceName: rec.SourceName,
	}
	if rec.JulianDay != nil {
		ref.JulianDay = int(*rec.JulianDay)
	}
	return ref
}

func referenceToRecord(solarDate string, res *Result) *database.CrossReferenceRecord {
	ref := res.Reference
	rec := &database.CrossReferenceRecord{
		SolarDate:  solarDate,
		LunarYear:  ref.LunarYear,
		LunarMonth: ref.LunarMonth,
		LunarDay:   ref.LunarDay,
		LeapMonth:  ref.LeapMonth,
		YearGanji:  ref.YearGanji,
		MonthGanji: ref.MonthGanji,
		DayGanji:   ref.DayGanji,
		SourceName: ref.SourceName,
	}
	if ref.JulianDay != 0 {
		jd := int64(ref.JulianDay)
		rec.JulianDay = &jd
	}
	if len(res.Raw) > 0 {
		raw := string(res.Raw)
		rec.RawResponse = &raw
	}
	return rec
}
