package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// sqliteTimeLayout is the format SQLite's datetime() produces.
const sqliteTimeLayout = "2006-01-02 15:04:05"

// querier is satisfied by both *DB and *Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// Helper Functions
// =============================================================================

// parseTimestamp parses a timestamp from SQLite TEXT format.
// Tries multiple formats and returns nil if parsing fails.
func parseTimestamp(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}

	for _, layout := range []string{time.RFC3339, sqliteTimeLayout, "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, ns.String); err == nil {
			return &t
		}
	}
	return nil
}

func formatTimestamp(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC().Format(sqliteTimeLayout)
}

// =============================================================================
// Cross Reference Queries
// =============================================================================

// GetCrossReference retrieves the cached record for a solar date.
// Returns ErrNotFound if the date has not been cached.
func (db *DB) GetCrossReference(ctx context.Context, solarDate string) (*CrossReferenceRecord, error) {
	return getCrossReference(ctx, db, solarDate)
}

// GetCrossReference retrieves a cached record inside the transaction.
func (tx *Tx) GetCrossReference(ctx context.Context, solarDate string) (*CrossReferenceRecord, error) {
	return getCrossReference(ctx, tx, solarDate)
}

const crossReferenceColumns = `
	id, solar_date,
	lunar_year, lunar_month, lunar_day, leap_month,
	year_ganji, month_ganji, day_ganji,
	julian_day, source_name, raw_response,
	fetched_at, created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCrossReference(row rowScanner) (*CrossReferenceRecord, error) {
	var rec CrossReferenceRecord
	var julianDay sql.NullInt64
	var rawResponse, fetchedAt, createdAt, updatedAt sql.NullString

	err := row.Scan(
		&rec.ID,
		&rec.SolarDate,
		&rec.LunarYear,
		&rec.LunarMonth,
		&rec.LunarDay,
		&rec.LeapMonth,
		&rec.YearGanji,
		&rec.MonthGanji,
		&rec.DayGanji,
		&julianDay,
		&rec.SourceName,
		&rawResponse,
		&fetchedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.JulianDay = NullInt64(julianDay)
	rec.RawResponse = NullString(rawResponse)
	rec.FetchedAt = parseTimestamp(fetchedAt)
	rec.CreatedAt = parseTimestamp(createdAt)
	rec.UpdatedAt = parseTimestamp(updatedAt)

	return &rec, nil
}

func getCrossReference(ctx context.Context, q querier, solarDate string) (*CrossReferenceRecord, error) {
	query := `SELECT` + crossReferenceColumns + `
		FROM lunar_cross_references
		WHERE solar_date = ?
	`

	rec, err := scanCrossReference(q.QueryRowContext(ctx, query, solarDate))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query cross reference: %w", err)
	}
	return rec, nil
}

// ListCrossReferences returns the cached records with from <= solar_date <= to,
// oldest first. Dates are YYYY-MM-DD, so string order is date order.
func (db *DB) ListCrossReferences(ctx context.Context, from, to string) ([]CrossReferenceRecord, error) {
	query := `SELECT` + crossReferenceColumns + `
		FROM lunar_cross_references
		WHERE solar_date BETWEEN ? AND ?
		ORDER BY solar_date
	`

	rows, err := db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query cross references: %w", err)
	}
	defer rows.Close()

	var records []CrossReferenceRecord
	for rows.Next() {
		rec, err := scanCrossReference(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cross reference: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cross references: %w", err)
	}

	return records, nil
}

// UpsertCrossReference inserts or replaces the record for rec.SolarDate.
//
// INSERT ... ON CONFLICT ... DO UPDATE keeps this to one statement, so two
// concurrent fills of the same date cannot race into a constraint error.
func (db *DB) UpsertCrossReference(ctx context.Context, rec *CrossReferenceRecord) error {
	return upsertCrossReference(ctx, db, rec)
}

// UpsertCrossReference writes a record inside the transaction.
func (tx *Tx) UpsertCrossReference(ctx context.Context, rec *CrossReferenceRecord) error {
	return upsertCrossReference(ctx, tx, rec)
}

func upsertCrossReference(ctx context.Context, q querier, rec *CrossReferenceRecord) error {
	if rec.SolarDate == "" {
		return errors.New("upsert cross reference: empty solar date")
	}

	fetchedAt := rec.FetchedAt
	if fetchedAt == nil {
		now := time.Now()
		fetchedAt = &now
	}

	query := `
		INSERT INTO lunar_cross_references (
			solar_date, lunar_year, lunar_month, lunar_day, leap_month,
			year_ganji, month_ganji, day_ganji,
			julian_day, source_name, raw_response, fetched_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(solar_date) DO UPDATE SET
			lunar_year = excluded.lunar_year,
			lunar_month = excluded.lunar_month,
			lunar_day = excluded.lunar_day,
			leap_month = excluded.leap_month,
			year_ganji = excluded.year_ganji,
			month_ganji = excluded.month_ganji,
			day_ganji = excluded.day_ganji,
			julian_day = excluded.julian_day,
			source_name = excluded.source_name,
			raw_response = excluded.raw_response,
			fetched_at = excluded.fetched_at,
			updated_at = datetime('now')
	`

	_, err := q.ExecContext(ctx, query,
		rec.SolarDate,
		rec.LunarYear,
		rec.LunarMonth,
		rec.LunarDay,
		rec.LeapMonth,
		rec.YearGanji,
		rec.MonthGanji,
		rec.DayGanji,
		rec.JulianDay,
		rec.SourceName,
		rec.RawResponse,
		formatTimestamp(fetchedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert cross reference: %w", err)
	}

	return nil
}

// DeleteCrossReference removes a cached date.
// Returns ErrNotFound if the date isn't cached.
func (db *DB) DeleteCrossReference(ctx context.Context, solarDate string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM lunar_cross_references WHERE solar_date = ?`, solarDate)
	if err != nil {
		return fmt.Errorf("delete cross reference: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// GetCacheStats summarizes the cache and the failed lookups on record.
// Used by the health endpoint.
func (db *DB) GetCacheStats(ctx context.Context) (*CacheStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(MIN(solar_date), ''),
			COALESCE(MAX(solar_date), ''),
			MAX(fetched_at)
		FROM lunar_cross_references
	`

	var stats CacheStats
	var lastFetchedAt sql.NullString

	err := db.QueryRowContext(ctx, query).Scan(
		&stats.TotalDates,
		&stats.EarliestDate,
		&stats.LatestDate,
		&lastFetchedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("query cache stats: %w", err)
	}
	stats.LastFetchedAt = parseTimestamp(lastFetchedAt)

	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lookup_log WHERE success = 0`).Scan(&stats.FailedLookups)
	if err != nil {
		return nil, fmt.Errorf("query failed lookups: %w", err)
	}

	return &stats, nil
}

// =============================================================================
// Lookup Log Queries
// =============================================================================

// LogLookupAttempt records a remote lookup in the lookup_log table.
func (db *DB) LogLookupAttempt(ctx context.Context, entry *LookupLogEntry) error {
	query := `
		INSERT INTO lookup_log (
			solar_date, source_name, requested_at, success, error_message, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	requestedAt := entry.RequestedAt
	if requestedAt.IsZero() {
		requestedAt = time.Now()
	}

	_, err := db.ExecContext(ctx, query,
		entry.SolarDate,
		entry.SourceName,
		formatTimestamp(&requestedAt),
		entry.Success,
		entry.ErrorMessage,
		entry.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("log lookup attempt: %w", err)
	}

	return nil
}

// GetRecentLookupLogs retrieves the newest lookup log entries.
func (db *DB) GetRecentLookupLogs(ctx context.Context, limit int) ([]LookupLogEntry, error) {
	query := `
		SELECT id, solar_date, source_name, requested_at, success, error_message, duration_ms
		FROM lookup_log
		ORDER BY requested_at DESC, id DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query lookup logs: %w", err)
	}
	defer rows.Close()

	var logs []LookupLogEntry

	for rows.Next() {
		var entry LookupLogEntry
		var requestedAt, errorMessage sql.NullString
		var durationMs sql.NullInt64

		err := rows.Scan(
			&entry.ID,
			&entry.SolarDate,
			&entry.SourceName,
			&requestedAt,
			&entry.Success,
			&errorMessage,
			&durationMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan lookup log row: %w", err)
		}

		if t := parseTimestamp(requestedAt); t != nil {
			entry.RequestedAt = *t
		}
		entry.ErrorMessage = NullString(errorMessage)
		entry.DurationMs = NullInt64(durationMs)

		logs = append(logs, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lookup log rows: %w", err)
	}

	return logs, nil
}
