package saju

import (
	"context"
	"strings"

	"github.com/zapponejosh/manseryeok-api/internal/calendar"
)

// CrossReference is an authoritative lunar record for a solar date, fetched
// from an external almanac and attached to a chart for display and audit.
type CrossReference struct {
	LunarYear  int    `json:"lunarYear"`
	LunarMonth int    `json:"lunarMonth"`
	LunarDay   int    `json:"lunarDay"`
	LeapMonth  bool   `json:"leapMonth"`
	YearGanji  string `json:"yearGanji,omitempty"`
	MonthGanji string `json:"monthGanji,omitempty"`
	DayGanji   string `json:"dayGanji,omitempty"`
	JulianDay  int    `json:"julianDay,omitempty"`
	SourceName string `json:"sourceName"`

	// SolarDate is the date that was looked up.
	SolarDate string `json:"solarDate"`
	// Agrees is true when the record matches the engine's own lunar
	// conversion and day pillar for SolarDate.
	Agrees bool `json:"agrees"`
}

// LunarDate returns the record's lunar date.
func (r CrossReference) LunarDate() calendar.LunarDate {
	return calendar.LunarDate{Year: r.LunarYear, Month: r.LunarMonth, Day: r.LunarDay, LeapMonth: r.LeapMonth}
}

// CrossReferencer resolves lunar information for a solar date. Lookups may
// fail; the engine treats every failure as "no reference".
type CrossReferencer interface {
	LookupLunar(ctx context.Context, solar calendar.Date) (*CrossReference, error)
}

// CrossReferenceFunc adapts a function to CrossReferencer.
type CrossReferenceFunc func(ctx context.Context, solar calendar.Date) (*CrossReference, error)

// LookupLunar calls f.
func (f CrossReferenceFunc) LookupLunar(ctx context.Context, solar calendar.Date) (*CrossReference, error) {
	return f(ctx, solar)
}

// Verify checks ref against the lunar table and day pillar of solar. It
// returns ref with SolarDate and Agrees filled in, plus the table's own lunar
// date for that day.
func Verify(solar calendar.Date, ref CrossReference) (CrossReference, calendar.LunarDate, error) {
	own, err := calendar.SolarToLunar(solar)
	if err != nil {
		return ref, calendar.LunarDate{}, err
	}
	ref.SolarDate = solar.String()
	ref.Agrees = agreesWith(&ref, own, DayPillarOf(solar))
	return ref, own, nil
}

// agreesWith compares a reference record with the engine's own view of the
// same solar date.
func agreesWith(ref *CrossReference, lunar calendar.LunarDate, day Pillar) bool {
	if ref.LunarDate() != lunar {
		return false
	}
	if ref.DayGanji != "" && !strings.HasPrefix(ref.DayGanji, day.Korean()) && !strings.Contains(ref.DayGanji, day.Hanja()) {
		return false
	}
	return true
}
