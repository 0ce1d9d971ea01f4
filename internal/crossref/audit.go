package crossref

import (
	"context"
	"fmt"

	"github.com/zapponejosh/manseryeok-api/internal/calendar"
	"github.com/zapponejosh/manseryeok-api/internal/database"
	"github.com/zapponejosh/manseryeok-api/internal/saju"
)

// Lister reads cached records by date range. *database.DB satisfies it.
type Lister interface {
	ListCrossReferences(ctx context.Context, from, to string) ([]database.CrossReferenceRecord, error)
}

// Disagreement is a cached record the engine does not reproduce.
type Disagreement struct {
	SolarDate      string `json:"solar_date"`
	TableLunar     string `json:"table_lunar"`
	ReferenceLunar string `json:"reference_lunar"`
	DayPillar      string `json:"day_pillar"`
	ReferenceDay   string `json:"reference_day"`
}

// YearAudit counts one Gregorian year of an audit.
type YearAudit struct {
	Year      int `json:"year"`
	Days      int `json:"days"`
	Cached    int `json:"cached"`
	Agreeing  int `json:"agreeing"`
	Disagreed int `json:"disagreed"`
}

// AuditReport compares the engine with every cached record in a range.
type AuditReport struct {
	From          string         `json:"from"`
	To            string         `json:"to"`
	Days          int            `json:"days"`
	Cached        int            `json:"cached"`
	Agreeing      int            `json:"agreeing"`
	Disagreements []Disagreement `json:"disagreements"`
	ByYear        []YearAudit    `json:"by_year"`
}

// Coverage is the share of days in the range that are cached.
func (r *AuditReport) Coverage() float64 {
	if r.Days == 0 {
		return 0
	}
	return float64(r.Cached) / float64(r.Days)
}

// Audit checks every cached record in [from, to] against the lunar table and
// day pillar the engine computes for the same date.
func Audit(ctx context.Context, lister Lister, from, to calendar.Date) (*AuditReport, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("audit range %s..%s is reversed", from, to)
	}

	records, err := lister.ListCrossReferences(ctx, from.String(), to.String())
	if err != nil {
		return nil, err
	}

	report := &AuditReport{From: from.String(), To: to.String()}

	years := make(map[int]*YearAudit)
	yearOf := func(y int) *YearAudit {
		if _, ok := years[y]; !ok {
			years[y] = &YearAudit{Year: y}
		}
		return years[y]
	}

	for d := from; !d.After(to); d = d.AddDays(1) {
		report.Days++
		yearOf(d.Year).Days++
	}

	for i := range records {
		rec := &records[i]
		solar, err := calendar.ParseDate(rec.SolarDate)
		if err != nil {
			return nil, fmt.Errorf("cached record %q: %w", rec.SolarDate, err)
		}

		checked, own, err := saju.Verify(solar, recordToReference(rec))
		if err != nil {
			return nil, fmt.Errorf("verify %s: %w", solar, err)
		}

		ya := yearOf(solar.Year)
		report.Cached++
		ya.Cached++

		if checked.Agrees {
			report.Agreeing++
			ya.Agreeing++
			continue
		}
		ya.Disagreed++
		report.Disagreements = append(report.Disagreements, Disagreement{
			SolarDate:      checked.SolarDate,
			TableLunar:     own.String(),
			ReferenceLunar: checked.LunarDate().String(),
			DayPillar:      saju.DayPillarOf(solar).String(),
			ReferenceDay:   checked.DayGanji,
		})
	}

	for y := from.Year; y <= to.Year; y++ {
		if ya, ok := years[y]; ok {
			report.ByYear = append(report.ByYear, *ya)
		}
	}
	return report, nil
}
