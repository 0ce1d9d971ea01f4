package database

import (
	"database/sql"
	"time"
)

// CrossReferenceRecord is one cached almanac row.
type CrossReferenceRecord struct {
	ID          int64      `json:"id"`
	SolarDate   string     `json:"solar_date"` // YYYY-MM-DD
	LunarYear   int        `json:"lunar_year"`
	LunarMonth  int        `json:"lunar_month"`
	LunarDay    int        `json:"lunar_day"`
	LeapMonth   bool       `json:"leap_month"`
	YearGanji   string     `json:"year_ganji"`
	MonthGanji  string     `json:"month_ganji"`
	DayGanji    string     `json:"day_ganji"`
	JulianDay   *int64     `json:"julian_day"` // nullable
	SourceName  string     `json:"source_name"`
	RawResponse *string    `json:"raw_response,omitempty"`
	FetchedAt   *time.Time `json:"fetched_at"`
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// LookupLogEntry records one attempt to reach the upstream almanac.
type LookupLogEntry struct {
	ID           int64     `json:"id"`
	SolarDate    string    `json:"solar_date"`
	SourceName   string    `json:"source_name"`
	RequestedAt  time.Time `json:"requested_at"`
	Success      bool      `json:"success"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	DurationMs   *int64    `json:"duration_ms,omitempty"`
}

// CacheStats summarizes the cross reference cache.
type CacheStats struct {
	TotalDates    int        `json:"total_dates"`
	EarliestDate  string     `json:"earliest_date"`
	LatestDate    string     `json:"latest_date"`
	LastFetchedAt *time.Time `json:"last_fetched_at"`
	FailedLookups int        `json:"failed_lookups"`
}

// -----------------------------------------------------------------
// Nullable helpers
// -----------------------------------------------------------------

// NullString converts a sql.NullString to *string.
func NullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// NullInt64 converts a sql.NullInt64 to *int64.
func NullInt64(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	return &ni.Int64
}

// -----------------------------------------------------------------
// Import/export format
// -----------------------------------------------------------------

// ImportData is the JSON file exchanged by `manse cache export` and
// cmd/import.
type ImportData struct {
	Metadata ImportMetadata         `json:"metadata"`
	Records  []CrossReferenceRecord `json:"records"`
}

// ImportMetadata describes where an export came from.
type ImportMetadata struct {
	Source      string `json:"source"`
	GeneratedAt string `json:"generated_at"`
	From        string `json:"from"`
	To          string `json:"to"`
}
