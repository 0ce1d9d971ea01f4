package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zapponejosh/manseryeok-api/internal/calendar"
	"github.com/zapponejosh/manseryeok-api/internal/config"
	"github.com/zapponejosh/manseryeok-api/internal/crossref"
	"github.com/zapponejosh/manseryeok-api/internal/database"
	"github.com/zapponejosh/manseryeok-api/internal/logger"
)

// maxWarmDays caps one warm run; KASI keys carry a daily quota.
const maxWarmDays = 3660

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and fill the KASI cross reference cache",
	}
	cmd.AddCommand(newCacheStatsCmd(), newCacheWarmCmd(), newCacheExportCmd())
	return cmd
}

func newCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show what the cache holds",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, log, err := loadEnv(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			db, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer db.Close()

			stats, err := db.GetCacheStats(ctx)
			if err != nil {
				return fmt.Errorf("read cache stats: %w", err)
			}
			return printCacheStats(cmd.OutOrStdout(), stats)
		},
	}
}

func newCacheWarmCmd() *cobra.Command {
	var (
		from    string
		to      string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "warm",
		Short: "Fetch a date range from KASI into the cache",
		Long: `warm looks up every solar date in [--from, --to] that is not cached
yet. Failed dates are counted and can be retried by running warm again.`,
		Example: `  KASI_SERVICE_KEY=... manse cache warm --from 2024-01-01 --to 2024-12-31 --workers 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := calendar.ParseDate(from)
			if err != nil {
				return err
			}
			end, err := calendar.ParseDate(to)
			if err != nil {
				return err
			}
			if end.Before(start) {
				return fmt.Errorf("--to %s is before --from %s", end, start)
			}
			if n := end.JulianDayNumber() - start.JulianDayNumber() + 1; n > maxWarmDays {
				return fmt.Errorf("range of %d days exceeds the limit of %d", n, maxWarmDays)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, log, err := loadEnv(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			db, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer db.Close()

			lookup := crossref.NewFromConfig(cfg, db, nil, log)
			if lookup == nil {
				return errors.New("KASI_SERVICE_KEY is not set")
			}

			report, err := lookup.Warm(ctx, start, end, workers)
			fmt.Fprintf(cmd.OutOrStdout(), "requested %d, fetched %d, failed %d\n",
				report.Requested, report.Fetched, report.Failed)
			return err
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First solar date YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "Last solar date YYYY-MM-DD")
	cmd.Flags().IntVar(&workers, "workers", 2, "Concurrent lookups")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func newCacheExportCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write cached records as JSON for cmd/import",
		Example: `  manse cache export --from 1990-01-01 --to 1999-12-31 > kasi-1990s.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := calendar.ParseDate(from)
			if err != nil {
				return err
			}
			end, err := calendar.ParseDate(to)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			cfg, log, err := loadEnv(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			db, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer db.Close()

			records, err := db.ListCrossReferences(ctx, start.String(), end.String())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(database.ImportData{
				Metadata: database.ImportMetadata{
					Source:      crossref.KASISourceName,
					GeneratedAt: time.Now().UTC().Format(time.RFC3339),
					From:        start.String(),
					To:          end.String(),
				},
				Records: records,
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First solar date YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "Last solar date YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

// loadEnv reads the server configuration and logs to w.
func loadEnv(w io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.New(cfg.LogLevel, cfg.LogFormat, w), nil
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (*database.DB, error) {
	db, err := database.Open(database.DefaultConfig(cfg.DatabasePath), log)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

func printCacheStats(w io.Writer, stats *database.CacheStats) error {
	fmt.Fprintf(w, "cached dates   %d\n", stats.TotalDates)
	if stats.TotalDates > 0 {
		fmt.Fprintf(w, "range          %s .. %s\n", stats.EarliestDate, stats.LatestDate)
	}
	if stats.LastFetchedAt != nil {
		fmt.Fprintf(w, "last fetched   %s\n", stats.LastFetchedAt.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(w, "failed lookups %d\n", stats.FailedLookups)
	return nil
}
