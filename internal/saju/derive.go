package saju

import (
	"github.com/zapponejosh/manseryeok-api/internal/calendar"
)

// derivation is the raw output of DerivePillars.
type derivation struct {
	pillars Pillars
	// dayDate is the civil KST date whose day pillar was used.
	dayDate calendar.Date
	// sajuYear is the sexagenary year number chosen by the year boundary.
	sajuYear int
}

// DerivePillars computes the four pillars of a KST instant.
//
// Year and month follow the solar terms at the exact instant; the month stem
// is always keyed to the 입춘 year, whichever year boundary is configured.
// The day and hour follow the configured 자 hour convention.
func DerivePillars(inst calendar.Instant, opts Options) (Pillars, calendar.Date, error) {
	d, err := derive(inst, opts)
	if err != nil {
		return Pillars{}, calendar.Date{}, err
	}
	return d.pillars, d.dayDate, nil
}

func derive(inst calendar.Instant, opts Options) (derivation, error) {
	civil := inst.Civil

	// One longitude reading fixes both the month and the 입춘 year: the 자 and
	// 축 months seen in January or February still belong to the year before.
	monthIndex := calendar.SolarMonthIndex(inst.Time)
	termYear := civil.Date.Year
	if monthIndex >= 10 && civil.Date.Month <= 2 {
		termYear--
	}

	sajuYear := termYear
	if opts.YearBoundary == YearBoundaryLunarNewYear {
		lunar, err := calendar.SolarToLunar(civil.Date)
		if err != nil {
			return derivation{}, Classify(err)
		}
		sajuYear = lunar.Year
	}

	month := monthPillar(yearPillar(termYear).Stem, monthIndex)

	dayDate, stemDate := ziDays(civil, opts.Zi)
	day := dayPillarForJDN(dayDate.JulianDayNumber())
	stemDay := dayPillarForJDN(stemDate.JulianDayNumber())
	hour := hourPillar(stemDay.Stem, BranchForHour(civil.Hour))

	return derivation{
		pillars: Pillars{
			Year:  yearPillar(sajuYear),
			Month: month,
			Day:   day,
			Hour:  hour,
		},
		dayDate:  dayDate,
		sajuYear: sajuYear,
	}, nil
}

// ziDays returns the date whose day pillar is used and the date whose stem
// seeds the hour stem.
func ziDays(civil calendar.CivilDateTime, zi ZiConvention) (dayDate, stemDate calendar.Date) {
	date := civil.Date
	switch zi {
	case ZiNextDay:
		if civil.Hour == 23 {
			next := date.AddDays(1)
			return next, next
		}
	case ZiSplit:
		if civil.Hour == 23 {
			return date, date.AddDays(1)
		}
	default: // ZiPreviousDay
		if civil.Hour == 0 {
			prev := date.AddDays(-1)
			return prev, prev
		}
	}
	return date, date
}
