package saju

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zapponejosh/manseryeok-api/internal/calendar"
)

// KSTBirth is the birth moment on the KST wall clock.
type KSTBirth struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// Chart is the result of one calculation. It is built once and never
// mutated; Calculate returns a copy when it attaches a cross reference.
type Chart struct {
	Input CalendarInput `json:"input"`

	// SolarDateUsed is the KST solar date whose day pillar was used. It can
	// precede the civil birth date under the previous-day 자 convention.
	SolarDateUsed string `json:"solarDateUsed"`
	// LunarDateConverted is the lunar date of the KST birth date.
	LunarDateConverted string             `json:"lunarDateConverted,omitempty"`
	LunarDate          calendar.LunarDate `json:"lunarDate"`
	KSTBirth           KSTBirth           `json:"kstBirth"`

	Pillars             Pillars       `json:"pillars"`
	ElementDistribution ElementCounts `json:"elementDistribution"`
	Balance             Balance       `json:"balance"`
	DayMaster           Element       `json:"dayMaster"`
	MissingElements     []Element     `json:"missingElements"`
	Interpretation      string        `json:"interpretation"`
	Convention          Convention    `json:"convention"`

	CrossReference *CrossReference `json:"crossReference,omitempty"`
}

// Compute runs the whole calculation without any external lookup. It is a
// pure function of its arguments.
func Compute(in CalendarInput, opts Options) (*Chart, error) {
	in = in.WithDefaults()

	parsed, perr := parseInput(in)
	if perr != nil {
		return nil, perr
	}

	inst, err := calendar.NormalizeToKST(parsed.civil, parsed.zone)
	if err != nil {
		return nil, Classify(err)
	}

	d, err := derive(inst, opts)
	if err != nil {
		return nil, Classify(err)
	}

	lunar, err := calendar.SolarToLunar(inst.Civil.Date)
	if err != nil {
		return nil, Classify(err)
	}

	counts := CountElements(d.pillars, opts.Counting)
	balance := ClassifyBalance(counts, opts.Thresholds)
	dayMaster := d.pillars.Day.Stem.Element()

	return &Chart{
		Input:              in,
		SolarDateUsed:      d.dayDate.String(),
		LunarDateConverted: lunar.String(),
		LunarDate:          lunar,
		KSTBirth: KSTBirth{
			Date: inst.Civil.Date.String(),
			Time: fmt.Sprintf("%02d:%02d", inst.Civil.Hour, inst.Civil.Minute),
		},
		Pillars:             d.pillars,
		ElementDistribution: counts,
		Balance:             balance,
		DayMaster:           dayMaster,
		MissingElements:     counts.Missing(),
		Interpretation:      Interpret(dayMaster, counts, balance),
		Convention: Convention{
			Zi:              opts.Zi,
			YearBoundary:    opts.YearBoundary,
			ElementCounting: opts.Counting,
		},
	}, nil
}

// Engine computes charts and, when configured with a CrossReferencer,
// attaches a best-effort reference record.
type Engine struct {
	opts   Options
	xref   CrossReferencer
	logger *slog.Logger
}

// NewEngine creates an engine. xref may be nil.
func NewEngine(opts Options, xref CrossReferencer, logger *slog.Logger) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine options: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{opts: opts, xref: xref, logger: logger}, nil
}

// Options returns the engine's configuration.
func (e *Engine) Options() Options {
	return e.opts
}

// Calculate computes the chart for in. Only *Error values are returned;
// cross reference failures are logged and never fail the calculation.
func (e *Engine) Calculate(ctx context.Context, in CalendarInput) (*Chart, error) {
	chart, err := Compute(in, e.opts)
	if err != nil {
		return nil, err
	}
	if e.xref == nil {
		return chart, nil
	}

	ref := e.crossReference(ctx, chart)
	if ref == nil {
		return chart, nil
	}

	enriched := *chart
	enriched.CrossReference = ref
	return &enriched, nil
}

func (e *Engine) crossReference(ctx context.Context, chart *Chart) *CrossReference {
	solar, err := calendar.ParseDate(chart.SolarDateUsed)
	if err != nil {
		e.logger.WarnContext(ctx, "cross reference skipped", slog.Any("error", err))
		return nil
	}

	if e.opts.CrossReferenceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.CrossReferenceTimeout)
		defer cancel()
	}

	ref, err := e.xref.LookupLunar(ctx, solar)
	if err != nil {
		e.logger.WarnContext(ctx, "cross reference lookup failed",
			slog.String("solar_date", solar.String()),
			slog.Any("error", err),
		)
		return nil
	}
	if ref == nil {
		return nil
	}

	out, own, err := Verify(solar, *ref)
	if err != nil {
		e.logger.WarnContext(ctx, "cross reference comparison failed", slog.Any("error", err))
		return nil
	}
	if !out.Agrees {
		e.logger.WarnContext(ctx, "cross reference disagrees with lunar table",
			slog.String("solar_date", solar.String()),
			slog.String("table", own.String()),
			slog.String("reference", out.LunarDate().String()),
			slog.String("reference_day", out.DayGanji),
			slog.String("day_pillar", chart.Pillars.Day.Korean()),
		)
	}
	return &out
}
