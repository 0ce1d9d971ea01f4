package calendar

import (
	"fmt"
	"strconv"
	"strings"
)

// LunarDate is a date on the Korean/Chinese lunisolar calendar.
// LeapMonth marks the intercalary month that follows the regular month
// with the same number.
type LunarDate struct {
	Year      int  `json:"year"`
	Month     int  `json:"month"`
	Day       int  `json:"day"`
	LeapMonth bool `json:"leapMonth"`
}

// String formats the lunar date as YYYY-MM-DD, suffixed with "(윤)" for a
// leap month.
func (l LunarDate) String() string {
	s := fmt.Sprintf("%04d-%02d-%02d", l.Year, l.Month, l.Day)
	if l.LeapMonth {
		s += "(윤)"
	}
	return s
}

// ParseLunarDate parses a YYYY-MM-DD lunar date. Only the shape is checked;
// LunarToSolar decides whether the date occurred.
func ParseLunarDate(s string, leap bool) (LunarDate, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 || len(parts[0]) != 4 {
		return LunarDate{}, fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidDate, s)
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return LunarDate{}, fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidDate, s)
		}
		nums[i] = n
	}
	return LunarDate{Year: nums[0], Month: nums[1], Day: nums[2], LeapMonth: leap}, nil
}

// LunarYear describes the month structure of one lunar year.
type LunarYear struct {
	Year int
	// LeapMonth is the number of the month followed by a leap month, 0 if none.
	LeapMonth int
	// LeapMonthDays is 29 or 30, or 0 when there is no leap month.
	LeapMonthDays int
	// MonthDays holds the lengths of regular months 1..12 at index 0..11.
	MonthDays [12]int
	// NewYear is the solar date of the first day of the year.
	NewYear Date
}

// Days returns the total number of days in the lunar year.
func (y LunarYear) Days() int {
	total := y.LeapMonthDays
	for _, d := range y.MonthDays {
		total += d
	}
	return total
}

// LunarYearInfo returns the month structure of a lunar year.
func LunarYearInfo(year int) (LunarYear, error) {
	if year < FirstLunarYear || year > LastLunarYear {
		return LunarYear{}, fmt.Errorf("%w: lunar year %d not in %d-%d",
			ErrOutOfRange, year, FirstLunarYear, LastLunarYear)
	}

	info := lunarYears[year-FirstLunarYear]
	ly := LunarYear{
		Year:          year,
		LeapMonth:     lunarLeapMonth(info),
		LeapMonthDays: lunarLeapDays(info),
		NewYear:       lunarEpoch.AddDays(yearStartOffsets[year-FirstLunarYear]),
	}
	for m := 1; m <= 12; m++ {
		ly.MonthDays[m-1] = lunarMonthDays(info, m)
	}
	return ly, nil
}

// LunarNewYear returns the solar date of lunar new year (설날) for year.
func LunarNewYear(year int) (Date, error) {
	ly, err := LunarYearInfo(year)
	if err != nil {
		return Date{}, err
	}
	return ly.NewYear, nil
}

// MinSolarDate is the earliest solar date the converter supports.
func MinSolarDate() Date {
	return lunarEpoch
}

// lastSolarDate closes the supported range at the end of Gregorian 2050.
// Lunar 2050 itself runs on to 2051-02-10; its last weeks are not served.
var lastSolarDate = Date{Year: 2050, Month: 12, Day: 31}

// MaxSolarDate is the last solar date the converter supports.
func MaxSolarDate() Date {
	return lastSolarDate
}

// CheckSolarRange returns ErrOutOfRange when d falls outside the table.
func CheckSolarRange(d Date) error {
	if d.Before(MinSolarDate()) || d.After(MaxSolarDate()) {
		return fmt.Errorf("%w: %s not in %s..%s", ErrOutOfRange, d, MinSolarDate(), MaxSolarDate())
	}
	return nil
}

// LunarToSolar converts a lunar date to its solar (Gregorian) date.
//
// The lunar date must have occurred: a leap month must exist in that year at
// that position and the day must fit the month's real length. Nothing is
// clamped.
func LunarToSolar(l LunarDate) (Date, error) {
	ly, err := LunarYearInfo(l.Year)
	if err != nil {
		return Date{}, err
	}

	if l.Month < 1 || l.Month > 12 {
		return Date{}, fmt.Errorf("%w: month %d", ErrUnsupportedLunarDate, l.Month)
	}
	if l.LeapMonth && ly.LeapMonth != l.Month {
		if ly.LeapMonth == 0 {
			return Date{}, fmt.Errorf("%w: lunar year %d has no leap month", ErrUnsupportedLunarDate, l.Year)
		}
		return Date{}, fmt.Errorf("%w: lunar year %d has leap month %d, not %d",
			ErrUnsupportedLunarDate, l.Year, ly.LeapMonth, l.Month)
	}

	monthLen := ly.MonthDays[l.Month-1]
	if l.LeapMonth {
		monthLen = ly.LeapMonthDays
	}
	if l.Day < 1 || l.Day > monthLen {
		return Date{}, fmt.Errorf("%w: %s has %d days", ErrUnsupportedLunarDate, l, monthLen)
	}

	offset := 0
	for m := 1; m < l.Month; m++ {
		offset += ly.MonthDays[m-1]
	}
	if ly.LeapMonth != 0 && ly.LeapMonth < l.Month {
		offset += ly.LeapMonthDays
	}
	if l.LeapMonth {
		// The regular month precedes its leap month.
		offset += ly.MonthDays[l.Month-1]
	}

	solar := ly.NewYear.AddDays(offset + l.Day - 1)
	if err := CheckSolarRange(solar); err != nil {
		return Date{}, err
	}
	return solar, nil
}

// SolarToLunar converts a solar date to the lunar date that contains it.
func SolarToLunar(d Date) (LunarDate, error) {
	if !d.Valid() {
		return LunarDate{}, fmt.Errorf("%w: %s does not exist", ErrInvalidDate, d)
	}
	if err := CheckSolarRange(d); err != nil {
		return LunarDate{}, err
	}

	offset := d.JulianDayNumber() - lunarEpoch.JulianDayNumber()

	// Find the lunar year whose span brackets the offset.
	idx := 0
	for idx+1 < len(yearStartOffsets) && yearStartOffsets[idx+1] <= offset {
		idx++
	}
	info := lunarYears[idx]
	remaining := offset - yearStartOffsets[idx]
	leap := lunarLeapMonth(info)

	for m := 1; m <= 12; m++ {
		days := lunarMonthDays(info, m)
		if remaining < days {
			return LunarDate{Year: FirstLunarYear + idx, Month: m, Day: remaining + 1}, nil
		}
		remaining -= days

		if m == leap {
			leapDays := lunarLeapDays(info)
			if remaining < leapDays {
				return LunarDate{Year: FirstLunarYear + idx, Month: m, Day: remaining + 1, LeapMonth: true}, nil
			}
			remaining -= leapDays
		}
	}

	// Unreachable while yearStartOffsets agrees with lunarYearDays.
	return LunarDate{}, fmt.Errorf("%w: lunar table inconsistent at %s", ErrOutOfRange, d)
}
