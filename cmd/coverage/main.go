// Command coverage audits the KASI cache: how many days of a year range are
// cached, and whether the engine reproduces every cached record.
//
// Usage:
//
//	go run ./cmd/coverage -db data/manseryeok.db -start 1990 -years 10 -o audit.json
//
// It runs offline against the database; fill it first with
// `manse cache warm`.
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
	"github.com/zapponejosh/manseryeok-api/internal/crossref"
	"github.com/zapponejosh/manseryeok-api/internal/database"
)

func main() {
	dbPath := flag.String("db", "data/manseryeok.db", "Path to SQLite database")
	startYear := flag.Int("start", 2024, "Start year")
	years := flag.Int("years", 1, "Number of years to audit")
	verbose := flag.Bool("v", false, "Verbose output (list every disagreement)")
	outputFile := flag.String("o", "", "Output results to JSON file")
	flag.Parse()

	code, err := run(os.Stdout, *dbPath, *startYear, *years, *verbose, *outputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}

// run prints the audit and returns the exit code: 1 when any cached record
// disagrees with the engine.
func run(w io.Writer, dbPath string, startYear, years int, verbose bool, outputFile string) (int, error) {
	if years < 1 {
		return 0, fmt.Errorf("-years must be positive, got %d", years)
	}
	endYear := startYear + years - 1

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	db, err := database.Open(database.DefaultConfig(dbPath), logger)
	if err != nil {
		return 0, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	if _, err := db.Migrate(ctx); err != nil {
		return 0, fmt.Errorf("migrate database: %w", err)
	}

	fmt.Fprintln(w, "================================================================")
	fmt.Fprintln(w, "Manseryeok - KASI Cache Audit")
	fmt.Fprintln(w, "================================================================")
	fmt.Fprintf(w, "Database:    %s\n", dbPath)
	fmt.Fprintf(w, "Date Range:  %d-01-01 to %d-12-31\n", startYear, endYear)
	fmt.Fprintln(w)

	report, err := crossref.Audit(ctx, db,
		calendar.NewDate(startYear, 1, 1),
		calendar.NewDate(endYear, 12, 31),
	)
	if err != nil {
		return 0, err
	}

	printSummary(w, report)
	printDisagreements(w, report, verbose)

	if outputFile != "" {
		if err := saveResults(outputFile, report); err != nil {
			return 0, err
		}
		fmt.Fprintf(w, "Results saved to: %s\n", outputFile)
	}

	if len(report.Disagreements) > 0 {
		return 1, nil
	}
	return 0, nil
}

func printSummary(w io.Writer, report *crossref.AuditReport) {
	fmt.Fprintln(w, "================================================================")
	fmt.Fprintln(w, "SUMMARY")
	fmt.Fprintln(w, "================================================================")
	fmt.Fprintf(w, "Days in range:  %d\n", report.Days)
	fmt.Fprintf(w, "Cached:         %d (%.1f%%)\n", report.Cached, report.Coverage()*100)
	fmt.Fprintf(w, "Agreeing:       %d\n", report.Agreeing)
	fmt.Fprintf(w, "Disagreeing:    %d\n", len(report.Disagreements))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "By Year:")
	for _, y := range report.ByYear {
		status := "✓"
		if y.Disagreed > 0 {
			status = "✗"
		} else if y.Cached < y.Days {
			status = "·"
		}
		fmt.Fprintf(w, "  %s %d: %d/%d days cached, %d disagree\n",
			status, y.Year, y.Cached, y.Days, y.Disagreed)
	}
	fmt.Fprintln(w)
}

func printDisagreements(w io.Writer, report *crossref.AuditReport, verbose bool) {
	if len(report.Disagreements) == 0 {
		fmt.Fprintln(w, "No disagreements.")
		fmt.Fprintln(w)
		return
	}

	const maxShown = 20
	fmt.Fprintln(w, "================================================================")
	fmt.Fprintln(w, "DISAGREEMENTS")
	fmt.Fprintln(w, "================================================================")
	for i, d := range report.Disagreements {
		if !verbose && i == maxShown {
			fmt.Fprintf(w, "  ... and %d more (use -v)\n", len(report.Disagreements)-maxShown)
			break
		}
		fmt.Fprintf(w, "  %s: table %s %s, KASI %s %s\n",
			d.SolarDate, d.TableLunar, d.DayPillar, d.ReferenceLunar, d.ReferenceDay)
	}
	fmt.Fprintln(w)
}

func saveResults(filename string, report *crossref.AuditReport) error {
	output := struct {
		GeneratedAt string                `json:"generated_at"`
		Coverage    string                `json:"coverage"`
		Report      *crossref.AuditReport `json:"report"`
	}{
		GeneratedAt: time.Now().Format(time.RFC3339),
		Coverage:    fmt.Sprintf("%.2f%%", report.Coverage()*100),
		Report:      report,
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}
