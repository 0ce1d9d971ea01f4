// Command manse is the command line front end of the manseryeok engine.
//
// Usage:
//
//	manse chart --date 1990-01-27 --time 12:00
//	manse chart --date 1990-01-01 --time 12:00 --calendar lunar --json
//	manse convert --date 2020-04-01 --to solar --leap
//	manse terms --year 2024 --all
//	manse cache warm --from 2024-01-01 --to 2024-12-31
//
// chart, convert and terms run entirely offline. The cache commands read the
// same environment as the API server (DATABASE_PATH, KASI_SERVICE_KEY, ...).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Each call returns fresh flag state.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "manse",
		Short: "Korean four pillars (사주) and lunar calendar tool",
		Long: `manse computes four pillars charts, converts between the solar and
Korean lunar calendars, and lists the solar terms of a year. Times are
normalized to Korea Standard Time (UTC+9).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newChartCmd(),
		newConvertCmd(),
		newTermsCmd(),
		newCacheCmd(),
	)
	return root
}
