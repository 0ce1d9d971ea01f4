// Package calendar provides the calendrical arithmetic behind the manseryeok:
// civil and Julian day numbers, the table-driven lunar calendar, solar terms
// and normalization of birth instants to Korea Standard Time.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format for civil dates.
const DateLayout = "2006-01-02"

// Date is a proleptic Gregorian civil date with no time zone attached.
type Date struct {
	Year  int
	Month int
	Day   int
}

// NewDate builds a Date without validating it. Use Valid to check.
func NewDate(year, month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf returns the civil date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: int(m), Day: d}
}

// ParseDate parses a YYYY-MM-DD string into a Date.
// The date must exist on the Gregorian calendar.
func ParseDate(s string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 || len(parts[0]) != 4 {
		return Date{}, fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidDate, s)
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Date{}, fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidDate, s)
		}
		nums[i] = n
	}

	d := Date{Year: nums[0], Month: nums[1], Day: nums[2]}
	if !d.Valid() {
		return Date{}, fmt.Errorf("%w: %s does not exist", ErrInvalidDate, d)
	}
	return d, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Valid reports whether the date exists on the Gregorian calendar.
func (d Date) Valid() bool {
	if d.Month < 1 || d.Month > 12 || d.Day < 1 {
		return false
	}
	return d.Day <= DaysInMonth(d.Year, d.Month)
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.JulianDayNumber() < other.JulianDayNumber()
}

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool {
	return d.JulianDayNumber() > other.JulianDayNumber()
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return FromJulianDayNumber(d.JulianDayNumber() + n)
}

// Weekday returns the day of the week.
func (d Date) Weekday() time.Weekday {
	// JDN 0 was a Monday.
	return time.Weekday((d.JulianDayNumber() + 1) % 7)
}

// JulianDayNumber returns the integer Julian day number of the civil date
// (the Julian day beginning at noon of that date).
//
// Uses the Fliegel–Van Flandern integer form; valid for every proleptic
// Gregorian date with year > -4800.
func (d Date) JulianDayNumber() int {
	a := (14 - d.Month) / 12
	y := d.Year + 4800 - a
	m := d.Month + 12*a - 3
	return d.Day + (153*m+2)/5 + 365*y + y/4 - y/100 + y/400 - 32045
}

// FromJulianDayNumber converts a Julian day number back to a civil date.
func FromJulianDayNumber(jdn int) Date {
	a := jdn + 32044
	b := (4*a + 3) / 146097
	c := a - 146097*b/4
	d := (4*c + 3) / 1461
	e := c - 1461*d/4
	m := (5*e + 2) / 153

	return Date{
		Year:  100*b + d - 4800 + m/10,
		Month: m + 3 - 12*(m/10),
		Day:   e - (153*m+2)/5 + 1,
	}
}

// IsLeapYear reports whether year is a Gregorian leap year.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the number of days in the Gregorian month.
func DaysInMonth(year, month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	default:
		return 0
	}
}
