package database

// migrationsSQL contains all database migrations.
// Migrations are applied in order by version number.
var migrationsSQL = map[int]string{
	1: migrationV1CrossReferences,
	2: migrationV2LookupLog,
}

// migrationV1CrossReferences stores almanac records keyed by solar date.
//
// A solar date's lunar date and ganji never change, so rows are written once
// and served forever. raw_response keeps the provider's payload for audits.
const migrationV1CrossReferences = `
-- Migration 001: Cross reference cache

CREATE TABLE IF NOT EXISTS lunar_cross_references (
    id INTEGER PRIMARY KEY AUTOINCREMENT,

    -- Solar date that was looked up, YYYY-MM-DD (KST civil date)
    solar_date TEXT NOT NULL UNIQUE,

    lunar_year INTEGER NOT NULL,
    lunar_month INTEGER NOT NULL CHECK (lunar_month BETWEEN 1 AND 12),
    lunar_day INTEGER NOT NULL CHECK (lunar_day BETWEEN 1 AND 30),
    leap_month INTEGER NOT NULL DEFAULT 0 CHECK (leap_month IN (0, 1)),

    -- Sexagenary labels as published, e.g. "경오(庚午)"
    year_ganji TEXT NOT NULL DEFAULT '',
    month_ganji TEXT NOT NULL DEFAULT '',
    day_ganji TEXT NOT NULL DEFAULT '',

    julian_day INTEGER,
    source_name TEXT NOT NULL,
    raw_response TEXT,

    fetched_at TEXT NOT NULL DEFAULT (datetime('now')),
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_cross_references_lunar
    ON lunar_cross_references(lunar_year, lunar_month, lunar_day, leap_month);
`

// migrationV2LookupLog records every remote lookup attempt, successful or
// not, for monitoring the upstream provider.
const migrationV2LookupLog = `
-- Migration 002: Lookup log

CREATE TABLE IF NOT EXISTS lookup_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    solar_date TEXT NOT NULL,
    source_name TEXT NOT NULL,
    requested_at TEXT NOT NULL DEFAULT (datetime('now')),
    success INTEGER NOT NULL CHECK (success IN (0, 1)),
    error_message TEXT,
    duration_ms INTEGER
);

CREATE INDEX IF NOT EXISTS idx_lookup_log_requested
    ON lookup_log(requested_at);

CREATE INDEX IF NOT EXISTS idx_lookup_log_date
    ON lookup_log(solar_date);
`
