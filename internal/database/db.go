// Package database provides the SQLite store behind the manseryeok API:
// cached almanac lookups and the log of remote lookup attempts.
//
// Everything in the store can be fetched again from KASI, so durability is
// traded for write speed: WAL with synchronous=NORMAL may lose the last few
// commits on power loss but never corrupts the file.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// MemoryPath opens a throwaway cache that lives as long as the DB.
const MemoryPath = ":memory:"

// DB is the lookup cache.
type DB struct {
	*sql.DB
	path   string
	logger *slog.Logger
}

// Config holds the cache file location and connection settings.
type Config struct {
	Path string // SQLite file, or MemoryPath

	// BusyTimeout is how long a statement waits for a lock held by another
	// process, e.g. `manse cache warm` running beside the server.
	BusyTimeout time.Duration

	// MaxOpenConns stays at 1: cache writes are single rows, and every
	// connection to MemoryPath would see its own empty database.
	MaxOpenConns int
}

// DefaultConfig returns the settings used by the server and the tools.
func DefaultConfig(path string) Config {
	return Config{
		Path:         path,
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 1,
	}
}

// dsn renders cfg as a go-sqlite3 connection string.
func (cfg Config) dsn() string {
	params := url.Values{}
	params.Set("_busy_timeout", fmt.Sprint(cfg.BusyTimeout.Milliseconds()))
	params.Set("_txlock", "immediate")
	if cfg.Path != MemoryPath {
		params.Set("_journal_mode", "WAL")
		params.Set("_synchronous", "NORMAL")
	}
	return cfg.Path + "?" + params.Encode()
}

// Open opens (creating if needed) the cache file. Call Migrate before use.
func Open(cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxOpenConns < 1 {
		cfg.MaxOpenConns = 1
	}

	if cfg.Path != MemoryPath {
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create cache directory: %w", err)
			}
		}
	}

	sqlDB, err := sql.Open("sqlite3", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxOpenConns)
	// Idle connections to MemoryPath must never be recycled.
	sqlDB.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping cache: %w", err)
	}

	logger.Info("cache opened", slog.String("path", cfg.Path))
	return &DB{DB: sqlDB, path: cfg.Path, logger: logger}, nil
}

// Close closes the cache.
func (db *DB) Close() error {
	db.logger.Info("closing cache", slog.String("path", db.path))
	return db.DB.Close()
}

// Health reports an unreachable file or a schema that Migrate has not
// brought up to date.
func (db *DB) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	version, err := schemaVersion(ctx, db)
	if err != nil {
		return fmt.Errorf("cache query failed: %w", err)
	}
	if version < len(migrationsSQL) {
		return fmt.Errorf("cache schema at version %d, want %d", version, len(migrationsSQL))
	}
	return nil
}

// SchemaVersion returns the newest applied migration, 0 for a fresh file.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	return schemaVersion(ctx, db)
}

func schemaVersion(ctx context.Context, q querier) (int, error) {
	var tables int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_migrations'`,
	).Scan(&tables)
	if err != nil || tables == 0 {
		return 0, err
	}

	var version int
	err = q.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	return version, err
}

// Migrate brings the schema up to date and returns how many migrations it
// applied. Versions are sequential, so everything above the recorded
// version is pending; all of it is applied in one transaction.
func (db *DB) Migrate(ctx context.Context) (int, error) {
	applied := 0
	err := db.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				version INTEGER PRIMARY KEY,
				applied_at TEXT NOT NULL DEFAULT (datetime('now'))
			)`); err != nil {
			return fmt.Errorf("create schema_migrations: %w", err)
		}

		current, err := schemaVersion(ctx, tx)
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		if current > len(migrationsSQL) {
			return fmt.Errorf("cache schema version %d is newer than this binary (%d)", current, len(migrationsSQL))
		}

		for version := current + 1; version <= len(migrationsSQL); version++ {
			db.logger.Info("applying migration", slog.Int("version", version))
			if _, err := tx.ExecContext(ctx, migrationsSQL[version]); err != nil {
				return fmt.Errorf("execute migration %d: %w", version, err)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
				return fmt.Errorf("record migration %d: %w", version, err)
			}
			applied++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	db.logger.Info("cache schema ready",
		slog.Int("applied", applied),
		slog.Int("version", len(migrationsSQL)),
	)
	return applied, nil
}

// Tx is a cache transaction. The importer replaces many rows in one.
type Tx struct {
	*sql.Tx
}

// WithTx runs fn in a transaction, committing when fn returns nil and
// rolling back otherwise.
//
//	err := db.WithTx(ctx, func(tx *database.Tx) error {
//	    return tx.UpsertCrossReference(ctx, rec)
//	})
func (db *DB) WithTx(ctx context.Context, fn func(*Tx) error) error {
	sqlTx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&Tx{sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ErrNotFound is returned when a solar date has no cached record.
var ErrNotFound = errors.New("record not found")

// IsNotFound checks if an error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, sql.ErrNoRows)
}
