package database

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// testDB creates a temporary in-memory database for testing.
func testDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(DefaultConfig(MemoryPath), quietLogger())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	ctx := context.Background()
	if _, err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// quietLogger only reports errors.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func int64Ptr(n int64) *int64 {
	return &n
}

func strPtr(s string) *string {
	return &s
}

// seollal1990 is the almanac row for 1990-01-27.
func seollal1990() *CrossReferenceRecord {
	return &CrossReferenceRecord{
		SolarDate:   "1990-01-27",
		LunarYear:   1990,
		LunarMonth:  1,
		LunarDay:    1,
		YearGanji:   "경오(庚午)",
		MonthGanji:  "무인(戊寅)",
		DayGanji:    "임진(壬辰)",
		JulianDay:   int64Ptr(2447919),
		SourceName:  "test almanac",
		RawResponse: strPtr(`{"lunDay":"01"}`),
	}
}

// -----------------------------------------------------------------
// DB tests
// -----------------------------------------------------------------

func TestOpen(t *testing.T) {
	db := testDB(t)

	ctx := context.Background()
	if err := db.Health(ctx); err != nil {
		t.Errorf("Health() error = %v", err)
	}
}

func TestMigrate(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	// Already applied in testDB; a second run is a no-op.
	count, err := db.Migrate(ctx)
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Migrate() count = %d, want 0 (already applied)", count)
	}
}

func TestHealth_PendingMigrations(t *testing.T) {
	db, err := Open(DefaultConfig(MemoryPath), quietLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	if v, err := db.SchemaVersion(ctx); err != nil || v != 0 {
		t.Fatalf("SchemaVersion() on fresh cache = %d, %v; want 0, nil", v, err)
	}
	if err := db.Health(ctx); err == nil {
		t.Error("Health() before Migrate should fail")
	}

	applied, err := db.Migrate(ctx)
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if applied != len(migrationsSQL) {
		t.Errorf("Migrate() applied = %d, want %d", applied, len(migrationsSQL))
	}
	if v, _ := db.SchemaVersion(ctx); v != len(migrationsSQL) {
		t.Errorf("SchemaVersion() = %d, want %d", v, len(migrationsSQL))
	}
	if err := db.Health(ctx); err != nil {
		t.Errorf("Health() after Migrate error = %v", err)
	}
}

func TestMigrate_RejectsNewerSchema(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (99)`); err != nil {
		t.Fatalf("insert version: %v", err)
	}
	if _, err := db.Migrate(ctx); err == nil {
		t.Error("Migrate() should refuse a schema newer than the binary")
	}
}

func TestOpen_FileCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.db")
	db, err := Open(DefaultConfig(path), quietLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	var journal string
	if err := db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journal); err != nil {
		t.Fatalf("read journal_mode: %v", err)
	}
	if journal != "wal" {
		t.Errorf("journal_mode = %q, want wal", journal)
	}

	// 1 = NORMAL
	var synchronous int
	if err := db.QueryRowContext(ctx, "PRAGMA synchronous").Scan(&synchronous); err != nil {
		t.Fatalf("read synchronous: %v", err)
	}
	if synchronous != 1 {
		t.Errorf("synchronous = %d, want 1 (NORMAL)", synchronous)
	}
}

func TestConfigDSN(t *testing.T) {
	file := DefaultConfig("data/cache.db").dsn()
	for _, want := range []string{"_journal_mode=WAL", "_synchronous=NORMAL", "_busy_timeout=5000", "_txlock=immediate"} {
		if !strings.Contains(file, want) {
			t.Errorf("file dsn %q missing %s", file, want)
		}
	}

	mem := DefaultConfig(MemoryPath).dsn()
	if !strings.HasPrefix(mem, MemoryPath+"?") || strings.Contains(mem, "_journal_mode") {
		t.Errorf("memory dsn = %q", mem)
	}
}

// -----------------------------------------------------------------
// Cross reference tests
// -----------------------------------------------------------------

func TestUpsertAndGetCrossReference(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.UpsertCrossReference(ctx, seollal1990()); err != nil {
		t.Fatalf("UpsertCrossReference() error = %v", err)
	}

	got, err := db.GetCrossReference(ctx, "1990-01-27")
	if err != nil {
		t.Fatalf("GetCrossReference() error = %v", err)
	}

	if got.LunarYear != 1990 || got.LunarMonth != 1 || got.LunarDay != 1 {
		t.Errorf("GetCrossReference() lunar = %d-%d-%d, want 1990-1-1", got.LunarYear, got.LunarMonth, got.LunarDay)
	}
	if got.LeapMonth {
		t.Error("GetCrossReference() leap_month = true, want false")
	}
	if got.DayGanji != "임진(壬辰)" {
		t.Errorf("GetCrossReference() day_ganji = %q, want %q", got.DayGanji, "임진(壬辰)")
	}
	if got.JulianDay == nil || *got.JulianDay != 2447919 {
		t.Errorf("GetCrossReference() julian_day = %v, want 2447919", got.JulianDay)
	}
	if got.RawResponse == nil {
		t.Error("GetCrossReference() raw_response = nil")
	}
	if got.FetchedAt == nil {
		t.Error("GetCrossReference() fetched_at = nil")
	}
}

func TestUpsertCrossReference_Replaces(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	rec := seollal1990()
	if err := db.UpsertCrossReference(ctx, rec); err != nil {
		t.Fatalf("first UpsertCrossReference() error = %v", err)
	}

	rec.SourceName = "second source"
	rec.LeapMonth = true
	rec.JulianDay = nil
	if err := db.UpsertCrossReference(ctx, rec); err != nil {
		t.Fatalf("second UpsertCrossReference() error = %v", err)
	}

	got, err := db.GetCrossReference(ctx, "1990-01-27")
	if err != nil {
		t.Fatalf("GetCrossReference() error = %v", err)
	}
	if got.SourceName != "second source" {
		t.Errorf("source_name = %q, want %q", got.SourceName, "second source")
	}
	if !got.LeapMonth {
		t.Error("leap_month = false, want true")
	}
	if got.JulianDay != nil {
		t.Errorf("julian_day = %v, want nil", *got.JulianDay)
	}

	stats, err := db.GetCacheStats(ctx)
	if err != nil {
		t.Fatalf("GetCacheStats() error = %v", err)
	}
	if stats.TotalDates != 1 {
		t.Errorf("TotalDates = %d, want 1", stats.TotalDates)
	}
}

func TestUpsertCrossReference_EmptyDate(t *testing.T) {
	db := testDB(t)

	err := db.UpsertCrossReference(context.Background(), &CrossReferenceRecord{SourceName: "x"})
	if err == nil {
		t.Error("UpsertCrossReference() with empty date: want error")
	}
}

func TestGetCrossReference_NotFound(t *testing.T) {
	db := testDB(t)

	_, err := db.GetCrossReference(context.Background(), "2001-01-01")
	if !IsNotFound(err) {
		t.Errorf("GetCrossReference() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteCrossReference(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.UpsertCrossReference(ctx, seollal1990()); err != nil {
		t.Fatalf("UpsertCrossReference() error = %v", err)
	}
	if err := db.DeleteCrossReference(ctx, "1990-01-27"); err != nil {
		t.Fatalf("DeleteCrossReference() error = %v", err)
	}
	if err := db.DeleteCrossReference(ctx, "1990-01-27"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteCrossReference() error = %v, want ErrNotFound", err)
	}
}

func TestListCrossReferences(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	for _, date := range []string{"1990-01-29", "1990-01-27", "1990-02-15", "1990-01-28"} {
		rec := seollal1990()
		rec.SolarDate = date
		if err := db.UpsertCrossReference(ctx, rec); err != nil {
			t.Fatalf("UpsertCrossReference(%s) error = %v", date, err)
		}
	}

	got, err := db.ListCrossReferences(ctx, "1990-01-27", "1990-01-31")
	if err != nil {
		t.Fatalf("ListCrossReferences() error = %v", err)
	}

	want := []string{"1990-01-27", "1990-01-28", "1990-01-29"}
	if len(got) != len(want) {
		t.Fatalf("ListCrossReferences() returned %d records, want %d", len(got), len(want))
	}
	for i, rec := range got {
		if rec.SolarDate != want[i] {
			t.Errorf("record %d solar_date = %s, want %s", i, rec.SolarDate, want[i])
		}
		if rec.JulianDay == nil || rec.FetchedAt == nil {
			t.Errorf("record %d missing julian_day or fetched_at: %+v", i, rec)
		}
	}

	none, err := db.ListCrossReferences(ctx, "2000-01-01", "2000-12-31")
	if err != nil {
		t.Fatalf("ListCrossReferences() error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("ListCrossReferences() on empty range = %d records", len(none))
	}
}

func TestGetCacheStats(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	empty, err := db.GetCacheStats(ctx)
	if err != nil {
		t.Fatalf("GetCacheStats() error = %v", err)
	}
	if empty.TotalDates != 0 || empty.EarliestDate != "" || empty.LastFetchedAt != nil {
		t.Errorf("GetCacheStats() on empty cache = %+v", empty)
	}

	for _, date := range []string{"2000-01-01", "1990-01-27", "2024-02-10"} {
		rec := seollal1990()
		rec.SolarDate = date
		if err := db.UpsertCrossReference(ctx, rec); err != nil {
			t.Fatalf("UpsertCrossReference(%s) error = %v", date, err)
		}
	}
	if err := db.LogLookupAttempt(ctx, &LookupLogEntry{SolarDate: "2000-01-02", SourceName: "x", Success: false}); err != nil {
		t.Fatalf("LogLookupAttempt() error = %v", err)
	}

	stats, err := db.GetCacheStats(ctx)
	if err != nil {
		t.Fatalf("GetCacheStats() error = %v", err)
	}
	if stats.TotalDates != 3 {
		t.Errorf("TotalDates = %d, want 3", stats.TotalDates)
	}
	if stats.EarliestDate != "1990-01-27" || stats.LatestDate != "2024-02-10" {
		t.Errorf("date range = %s..%s, want 1990-01-27..2024-02-10", stats.EarliestDate, stats.LatestDate)
	}
	if stats.LastFetchedAt == nil {
		t.Error("LastFetchedAt = nil")
	}
	if stats.FailedLookups != 1 {
		t.Errorf("FailedLookups = %d, want 1", stats.FailedLookups)
	}
}

// -----------------------------------------------------------------
// Lookup log tests
// -----------------------------------------------------------------

func TestLookupLog(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	entries := []LookupLogEntry{
		{SolarDate: "1990-01-27", SourceName: "kasi", RequestedAt: base, Success: true, DurationMs: int64Ptr(120)},
		{SolarDate: "1990-01-28", SourceName: "kasi", RequestedAt: base.Add(time.Minute), Success: false, ErrorMessage: strPtr("timeout")},
	}
	for i := range entries {
		if err := db.LogLookupAttempt(ctx, &entries[i]); err != nil {
			t.Fatalf("LogLookupAttempt() error = %v", err)
		}
	}

	logs, err := db.GetRecentLookupLogs(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecentLookupLogs() error = %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("GetRecentLookupLogs() returned %d entries, want 2", len(logs))
	}

	newest := logs[0]
	if newest.SolarDate != "1990-01-28" || newest.Success {
		t.Errorf("newest entry = %+v, want failed 1990-01-28", newest)
	}
	if newest.ErrorMessage == nil || *newest.ErrorMessage != "timeout" {
		t.Errorf("newest error_message = %v, want timeout", newest.ErrorMessage)
	}
	if !newest.RequestedAt.Equal(base.Add(time.Minute)) {
		t.Errorf("newest requested_at = %v, want %v", newest.RequestedAt, base.Add(time.Minute))
	}
	if logs[1].DurationMs == nil || *logs[1].DurationMs != 120 {
		t.Errorf("oldest duration_ms = %v, want 120", logs[1].DurationMs)
	}

	limited, err := db.GetRecentLookupLogs(ctx, 1)
	if err != nil {
		t.Fatalf("GetRecentLookupLogs(1) error = %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("GetRecentLookupLogs(1) returned %d entries", len(limited))
	}
}

// -----------------------------------------------------------------
// Transaction tests
// -----------------------------------------------------------------

func TestWithTx(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx *Tx) error {
		return tx.UpsertCrossReference(ctx, seollal1990())
	})
	if err != nil {
		t.Fatalf("WithTx() success case error = %v", err)
	}

	if _, err := db.GetCrossReference(ctx, "1990-01-27"); err != nil {
		t.Errorf("record not created: %v", err)
	}
}

func TestWithTx_Rollback(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx *Tx) error {
		if err := tx.UpsertCrossReference(ctx, seollal1990()); err != nil {
			return err
		}
		if _, err := tx.GetCrossReference(ctx, "1990-01-27"); err != nil {
			return err
		}
		// Force error to trigger rollback
		return ErrNotFound
	})
	if err != ErrNotFound {
		t.Fatalf("WithTx() rollback case error = %v, want ErrNotFound", err)
	}

	_, err = db.GetCrossReference(ctx, "1990-01-27")
	if err != ErrNotFound {
		t.Errorf("record should not exist after rollback, got error: %v", err)
	}
}
