package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/zapponejosh/manseryeok-api/internal/calendar"
	"github.com/zapponejosh/manseryeok-api/internal/saju"
)

func newTermsCmd() *cobra.Command {
	var (
		year int
		all  bool
	)

	cmd := &cobra.Command{
		Use:   "terms",
		Short: "List the solar terms of a year in KST",
		Long: `terms lists the 12 terms that open a pillar month (입춘, 경칩, ...).
With --all it lists all 24 terms.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTerms(cmd.OutOrStdout(), year, all)
		},
	}

	cmd.Flags().IntVar(&year, "year", time.Now().In(calendar.KST).Year(), "Gregorian year")
	cmd.Flags().BoolVar(&all, "all", false, "List all 24 terms")

	return cmd
}

func runTerms(w io.Writer, year int, all bool) error {
	var (
		terms []calendar.SolarTerm
		err   error
	)
	if all {
		terms, err = calendar.SolarTerms(year)
	} else {
		terms, err = calendar.MajorSolarTerms(year)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%d %s\n\n", year, saju.YearPillarOf(year))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TERM\tHANJA\tLONGITUDE\tKST")
	for _, t := range terms {
		fmt.Fprintf(tw, "%s\t%s\t%.0f°\t%s\n", t.Name, t.Hanja, t.Longitude, t.Time.In(calendar.KST).Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
