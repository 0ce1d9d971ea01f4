package saju

import (
	"errors"
	"fmt"
	"time"
)

// ZiConvention decides which day a birth in the 자 hour (23:00-00:59)
// belongs to.
type ZiConvention string

const (
	// ZiPreviousDay treats 23:00-00:59 as one 자 hour on the evening's day:
	// a birth at 00:30 takes the previous civil day's day pillar.
	ZiPreviousDay ZiConvention = "previous_day"

	// ZiNextDay starts the new day at 23:00 (조자시 only).
	ZiNextDay ZiConvention = "next_day"

	// ZiSplit changes the day at midnight; 23:00-23:59 (야자시) keeps the
	// current day pillar but takes the next day's 자 hour stem.
	ZiSplit ZiConvention = "split"
)

// ParseZiConvention validates a convention name.
func ParseZiConvention(s string) (ZiConvention, error) {
	switch c := ZiConvention(s); c {
	case ZiPreviousDay, ZiNextDay, ZiSplit:
		return c, nil
	}
	return "", fmt.Errorf("unknown zi convention %q (want %s, %s or %s)", s, ZiPreviousDay, ZiNextDay, ZiSplit)
}

// YearBoundary decides where the sexagenary year turns over.
type YearBoundary string

const (
	// YearBoundaryIpchun turns the year at 입춘 (solar longitude 315°).
	YearBoundaryIpchun YearBoundary = "ipchun"

	// YearBoundaryLunarNewYear turns the year at 설날.
	YearBoundaryLunarNewYear YearBoundary = "lunar_new_year"
)

// ParseYearBoundary validates a boundary name.
func ParseYearBoundary(s string) (YearBoundary, error) {
	switch b := YearBoundary(s); b {
	case YearBoundaryIpchun, YearBoundaryLunarNewYear:
		return b, nil
	}
	return "", fmt.Errorf("unknown year boundary %q (want %s or %s)", s, YearBoundaryIpchun, YearBoundaryLunarNewYear)
}

// ElementCounting decides which symbols feed the element distribution.
type ElementCounting string

const (
	// CountStems tallies the four heavenly stems (total 4).
	CountStems ElementCounting = "stems"

	// CountAll tallies all eight stems and branches (total 8).
	CountAll ElementCounting = "all"
)

// ParseElementCounting validates a counting name.
func ParseElementCounting(s string) (ElementCounting, error) {
	switch c := ElementCounting(s); c {
	case CountStems, CountAll:
		return c, nil
	}
	return "", fmt.Errorf("unknown element counting %q (want %s or %s)", s, CountStems, CountAll)
}

// BalanceThresholds classify the spread (max - min) of element counts.
type BalanceThresholds struct {
	// BalancedMax is the largest spread still called balanced.
	BalancedMax int
	// SlightlyImbalancedMax is the largest spread called slightly imbalanced.
	SlightlyImbalancedMax int
}

// Options configure the engine. The zero value is not usable; start from
// DefaultOptions.
type Options struct {
	Zi           ZiConvention
	YearBoundary YearBoundary
	Counting     ElementCounting
	Thresholds   BalanceThresholds

	// CrossReferenceTimeout bounds the best-effort reference lookup.
	CrossReferenceTimeout time.Duration
}

// DefaultOptions returns the conventions of the original service.
func DefaultOptions() Options {
	return Options{
		Zi:           ZiPreviousDay,
		YearBoundary: YearBoundaryIpchun,
		Counting:     CountStems,
		Thresholds: BalanceThresholds{
			BalancedMax:           1,
			SlightlyImbalancedMax: 2,
		},
		CrossReferenceTimeout: 3 * time.Second,
	}
}

// Validate checks every option.
func (o Options) Validate() error {
	var errs []error

	if _, err := ParseZiConvention(string(o.Zi)); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseYearBoundary(string(o.YearBoundary)); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseElementCounting(string(o.Counting)); err != nil {
		errs = append(errs, err)
	}
	if o.Thresholds.BalancedMax < 0 {
		errs = append(errs, fmt.Errorf("balanced threshold must be >= 0, got %d", o.Thresholds.BalancedMax))
	}
	if o.Thresholds.SlightlyImbalancedMax < o.Thresholds.BalancedMax {
		errs = append(errs, fmt.Errorf("slightly imbalanced threshold %d is below balanced threshold %d",
			o.Thresholds.SlightlyImbalancedMax, o.Thresholds.BalancedMax))
	}
	if o.CrossReferenceTimeout < 0 {
		errs = append(errs, errors.New("cross reference timeout must not be negative"))
	}

	return errors.Join(errs...)
}

// Convention records which conventions produced a chart.
type Convention struct {
	Zi              ZiConvention    `json:"zi"`
	YearBoundary    YearBoundary    `json:"yearBoundary"`
	ElementCounting ElementCounting `json:"elementCounting"`
}
