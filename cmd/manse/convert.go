package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zapponejosh/manseryeok-api/internal/calendar"
	"github.com/zapponejosh/manseryeok-api/internal/saju"
)

func newConvertCmd() *cobra.Command {
	var (
		date string
		to   string
		leap bool
	)

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a date between the solar and lunar calendars",
		Example: `  manse convert --date 2024-02-10
  manse convert --date 1990-01-01 --to solar
  manse convert --date 2020-04-01 --to solar --leap`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd.OutOrStdout(), date, to, leap)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Date YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "lunar", "Target calendar: lunar (from solar) or solar (from lunar)")
	cmd.Flags().BoolVar(&leap, "leap", false, "The lunar --date is in a leap month")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}

func runConvert(w io.Writer, date, to string, leap bool) error {
	var (
		solar calendar.Date
		lunar calendar.LunarDate
		err   error
	)

	switch to {
	case "lunar":
		if leap {
			return fmt.Errorf("--leap only applies to lunar input (--to solar)")
		}
		if solar, err = calendar.ParseDate(date); err != nil {
			return err
		}
		if lunar, err = calendar.SolarToLunar(solar); err != nil {
			return err
		}
	case "solar":
		if lunar, err = calendar.ParseLunarDate(date, leap); err != nil {
			return err
		}
		if solar, err = calendar.LunarToSolar(lunar); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown target calendar %q (want lunar or solar)", to)
	}

	fmt.Fprintf(w, "solar      %s (%s)\n", solar, solar.Weekday())
	fmt.Fprintf(w, "lunar      %s\n", lunar)
	fmt.Fprintf(w, "day pillar %s\n", saju.DayPillarOf(solar))
	return nil
}
