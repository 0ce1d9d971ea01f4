// Command import loads an exported almanac cache into the SQLite database.
//
// Usage:
//
//	go run ./cmd/import -json data/kasi-1990s.json -db data/manseryeok.db
//
// This tool:
// 1. Parses the export written by `manse cache export`
// 2. Creates/opens the SQLite database and runs migrations
// 3. Checks every record against the engine's lunar table and day pillar
// 4. Upserts all records in a single transaction
//
// The import is idempotent: a date already cached is overwritten. With
// -strict, one disagreeing record aborts the whole import.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/zapponejosh/manseryeok-api/internal/calendar"
	"github.com/zapponejosh/manseryeok-api/internal/database"
	"github.com/zapponejosh/manseryeok-api/internal/saju"
)

func main() {
	// Parse command line flags
	jsonPath := flag.String("json", "data/kasi-export.json", "Path to exported JSON file")
	dbPath := flag.String("db", "data/manseryeok.db", "Path to SQLite database")
	strict := flag.Bool("strict", false, "Abort when a record disagrees with the engine")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	// Setup logger
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	// Run import
	if err := run(os.Stdout, *jsonPath, *dbPath, *strict, logger); err != nil {
		logger.Error("import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("import complete")
}

func run(w io.Writer, jsonPath, dbPath string, strict bool, logger *slog.Logger) error {
	ctx := context.Background()
	startTime := time.Now()

	// =========================================================================
	// Step 1: Read and parse JSON
	// =========================================================================
	logger.Info("reading JSON file", slog.String("path", jsonPath))

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("read JSON file: %w", err)
	}

	var importData database.ImportData
	if err := json.Unmarshal(data, &importData); err != nil {
		return fmt.Errorf("parse JSON: %w", err)
	}

	logger.Info("parsed JSON",
		slog.Int("records", len(importData.Records)),
		slog.String("source", importData.Metadata.Source),
		slog.String("generated_at", importData.Metadata.GeneratedAt),
	)

	// =========================================================================
	// Step 2: Open database and run migrations
	// =========================================================================
	logger.Info("opening database", slog.String("path", dbPath))

	db, err := database.Open(database.DefaultConfig(dbPath), logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	migrated, err := db.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("migrations complete", slog.Int("applied", migrated))

	// =========================================================================
	// Step 3: Import data in a transaction
	// =========================================================================
	logger.Info("starting import")

	var stats ImportStats
	err = db.WithTx(ctx, func(tx *database.Tx) error {
		return importRecords(ctx, tx, importData.Records, strict, logger, &stats)
	})
	if err != nil {
		return fmt.Errorf("import data: %w", err)
	}

	// =========================================================================
	// Step 4: Verify import
	// =========================================================================
	cache, err := db.GetCacheStats(ctx)
	if err != nil {
		return fmt.Errorf("read cache stats: %w", err)
	}

	elapsed := time.Since(startTime)

	logger.Info("import verified",
		slog.Int("cached_dates", cache.TotalDates),
		slog.String("earliest", cache.EarliestDate),
		slog.String("latest", cache.LatestDate),
		slog.Duration("elapsed", elapsed),
	)

	// Print summary
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Import Summary ===")
	fmt.Fprintf(w, "Records imported:    %d\n", stats.Imported)
	fmt.Fprintf(w, "Replaced existing:   %d\n", stats.Replaced)
	fmt.Fprintf(w, "Disagreeing:         %d\n", stats.Disagreeing)
	fmt.Fprintf(w, "Cached dates now:    %d\n", cache.TotalDates)
	fmt.Fprintf(w, "Time elapsed:        %v\n", elapsed.Round(time.Millisecond))

	return nil
}

// ImportStats tracks import statistics.
type ImportStats struct {
	Imported    int
	Replaced    int
	Disagreeing int
}

// importRecords checks and upserts every record.
func importRecords(ctx context.Context, tx *database.Tx, records []database.CrossReferenceRecord, strict bool, logger *slog.Logger, stats *ImportStats) error {
	for i := range records {
		rec := &records[i]

		solar, err := calendar.ParseDate(rec.SolarDate)
		if err != nil {
			return fmt.Errorf("record %d: %w", i+1, err)
		}

		ref := saju.CrossReference{
			LunarYear:  rec.LunarYear,
			LunarMonth: rec.LunarMonth,
			LunarDay:   rec.LunarDay,
			LeapMonth:  rec.LeapMonth,
			DayGanji:   rec.DayGanji,
		}
		checked, own, err := saju.Verify(solar, ref)
		if err != nil {
			return fmt.Errorf("record %d (%s): %w", i+1, rec.SolarDate, err)
		}
		if !checked.Agrees {
			stats.Disagreeing++
			if strict {
				return fmt.Errorf("record %d (%s): lunar %s / %s disagrees with table %s / %s",
					i+1, rec.SolarDate, checked.LunarDate(), rec.DayGanji, own, saju.DayPillarOf(solar))
			}
			logger.Warn("record disagrees with lunar table",
				slog.String("solar_date", rec.SolarDate),
				slog.String("record", checked.LunarDate().String()),
				slog.String("table", own.String()),
			)
		}

		if _, err := tx.GetCrossReference(ctx, rec.SolarDate); err == nil {
			stats.Replaced++
		} else if !database.IsNotFound(err) {
			return fmt.Errorf("record %d (%s): %w", i+1, rec.SolarDate, err)
		}

		if err := tx.UpsertCrossReference(ctx, rec); err != nil {
			return fmt.Errorf("record %d (%s): %w", i+1, rec.SolarDate, err)
		}
		stats.Imported++

		// Progress logging every 500 records
		if (i+1)%500 == 0 {
			logger.Debug("import progress",
				slog.Int("record", i+1),
				slog.Int("total", len(records)),
			)
		}
	}

	return nil
}
