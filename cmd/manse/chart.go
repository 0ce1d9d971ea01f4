package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zapponejosh/manseryeok-api/internal/calendar"
	"github.com/zapponejosh/manseryeok-api/internal/saju"
)

type chartFlags struct {
	date         string
	time         string
	calendar     string
	leap         bool
	tz           string
	zi           string
	yearBoundary string
	counting     string
	asJSON       bool
}

func newChartCmd() *cobra.Command {
	var f chartFlags
	d := saju.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Calculate the four pillars of a birth moment",
		Example: `  manse chart --date 1990-01-27 --time 12:00
  manse chart --date 1990-01-01 --time 12:00 --calendar lunar
  manse chart --date 1990-06-15 --time 20:30 --tz America/New_York --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChart(cmd.OutOrStdout(), f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.date, "date", "", "Birth date YYYY-MM-DD")
	flags.StringVar(&f.time, "time", "", "Birth time HH:MM[:SS]")
	flags.StringVar(&f.calendar, "calendar", string(saju.Solar), "Calendar of --date: solar or lunar")
	flags.BoolVar(&f.leap, "leap", false, "The lunar date is in a leap month")
	flags.StringVar(&f.tz, "tz", calendar.DefaultTimezone, "IANA timezone of the birth time")
	flags.StringVar(&f.zi, "zi", string(d.Zi), "자시 convention: previous_day, next_day or split")
	flags.StringVar(&f.yearBoundary, "year-boundary", string(d.YearBoundary), "Year boundary: ipchun or lunar_new_year")
	flags.StringVar(&f.counting, "counting", string(d.Counting), "Element counting: stems or all")
	flags.BoolVar(&f.asJSON, "json", false, "Print the chart as JSON")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("time")

	return cmd
}

func (f chartFlags) options() (saju.Options, error) {
	opts := saju.DefaultOptions()
	var err error
	if opts.Zi, err = saju.ParseZiConvention(f.zi); err != nil {
		return opts, err
	}
	if opts.YearBoundary, err = saju.ParseYearBoundary(f.yearBoundary); err != nil {
		return opts, err
	}
	if opts.Counting, err = saju.ParseElementCounting(f.counting); err != nil {
		return opts, err
	}
	return opts, nil
}

func runChart(w io.Writer, f chartFlags) error {
	opts, err := f.options()
	if err != nil {
		return err
	}

	chart, err := saju.Compute(saju.CalendarInput{
		Date:           f.date,
		Time:           f.time,
		CalendarSystem: saju.CalendarSystem(f.calendar),
		IsLeapMonth:    f.leap,
		Timezone:       f.tz,
	}, opts)
	if err != nil {
		return err
	}

	if f.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(chart)
	}
	return printChart(w, chart)
}

func printChart(w io.Writer, chart *saju.Chart) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	in := chart.Input
	fmt.Fprintf(tw, "Input\t%s %s (%s, %s)\n", in.Date, in.Time, in.CalendarSystem, in.Timezone)
	fmt.Fprintf(tw, "KST birth\t%s %s\n", chart.KSTBirth.Date, chart.KSTBirth.Time)
	fmt.Fprintf(tw, "Lunar date\t%s\n", chart.LunarDateConverted)
	fmt.Fprintf(tw, "Day pillar of\t%s\n", chart.SolarDateUsed)
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "PILLAR\tGANJI\tHANJA\tSTEM\tBRANCH")
	rows := []struct {
		name   string
		pillar saju.Pillar
	}{
		{"year", chart.Pillars.Year},
		{"month", chart.Pillars.Month},
		{"day", chart.Pillars.Day},
		{"hour", chart.Pillars.Hour},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.name, r.pillar.Korean(), r.pillar.Hanja(),
			r.pillar.Stem.Element(), r.pillar.Branch.Element())
	}
	fmt.Fprintln(tw)

	counts := make([]string, 0, len(saju.Elements))
	for _, e := range saju.Elements {
		counts = append(counts, fmt.Sprintf("%s %d", e, chart.ElementDistribution[e]))
	}
	fmt.Fprintf(tw, "Elements\t%s\n", strings.Join(counts, "  "))
	fmt.Fprintf(tw, "Balance\t%s (%s)\n", chart.Balance, chart.Balance.Korean())
	fmt.Fprintf(tw, "Day master\t%s %s(%s)\n", chart.DayMaster, chart.DayMaster.Korean(), chart.DayMaster.Hanja())

	missing := "none"
	if len(chart.MissingElements) > 0 {
		names := make([]string, len(chart.MissingElements))
		for i, e := range chart.MissingElements {
			names[i] = e.String()
		}
		missing = strings.Join(names, ", ")
	}
	fmt.Fprintf(tw, "Missing\t%s\n", missing)
	fmt.Fprintf(tw, "Reading\t%s\n", chart.Interpretation)

	return tw.Flush()
}
