package saju

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zapponejosh/manseryeok-api/internal/calendar"
)

// CalendarSystem tags the calendar a birth date is written in.
type CalendarSystem string

const (
	Solar CalendarSystem = "solar"
	Lunar CalendarSystem = "lunar"
)

// CalendarInput is a birth date and time as supplied by a caller.
type CalendarInput struct {
	// Date is "YYYY-MM-DD" in the chosen calendar system.
	Date string `json:"date"`
	// Time is "HH:MM" or "HH:MM:SS"; a single-digit hour is accepted.
	Time string `json:"time"`
	// CalendarSystem defaults to solar.
	CalendarSystem CalendarSystem `json:"calendarSystem,omitempty"`
	// IsLeapMonth only applies to lunar dates.
	IsLeapMonth bool `json:"isLeapMonth,omitempty"`
	// Timezone is an IANA identifier; empty means the time is already KST.
	Timezone string `json:"timezone,omitempty"`
}

// WithDefaults fills the optional fields.
func (in CalendarInput) WithDefaults() CalendarInput {
	if in.CalendarSystem == "" {
		in.CalendarSystem = Solar
	}
	if strings.TrimSpace(in.Timezone) == "" {
		in.Timezone = calendar.DefaultTimezone
	}
	if in.CalendarSystem == Solar {
		in.IsLeapMonth = false
	}
	return in
}

// parsedInput is a CalendarInput resolved to a solar civil date and time.
type parsedInput struct {
	civil calendar.CivilDateTime
	lunar *calendar.LunarDate
	zone  string
}

func parseInput(in CalendarInput) (parsedInput, *Error) {
	y, m, d, err := splitDate(in.Date)
	if err != nil {
		return parsedInput{}, invalidInput(err)
	}
	hour, minute, second, err := parseClock(in.Time)
	if err != nil {
		return parsedInput{}, invalidInput(err)
	}

	out := parsedInput{zone: in.Timezone}

	switch in.CalendarSystem {
	case Solar:
		date := calendar.NewDate(y, m, d)
		if !date.Valid() {
			return parsedInput{}, invalidInput(fmt.Errorf("solar date %s does not exist", date))
		}
		if err := calendar.CheckSolarRange(date); err != nil {
			return parsedInput{}, Classify(err)
		}
		out.civil.Date = date
	case Lunar:
		lunar := calendar.LunarDate{Year: y, Month: m, Day: d, LeapMonth: in.IsLeapMonth}
		solar, err := calendar.LunarToSolar(lunar)
		if err != nil {
			return parsedInput{}, Classify(err)
		}
		out.lunar = &lunar
		out.civil.Date = solar
	default:
		return parsedInput{}, invalidInput(fmt.Errorf("unknown calendar system %q", in.CalendarSystem))
	}

	out.civil.Hour, out.civil.Minute, out.civil.Second = hour, minute, second
	return out, nil
}

// splitDate reads YYYY-MM-DD without checking Gregorian validity, since a
// lunar 02-30 is legal.
func splitDate(s string) (y, m, d int, err error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return 0, 0, 0, fmt.Errorf("date %q is not YYYY-MM-DD", s)
	}
	vals := make([]int, 3)
	for i, p := range parts {
		n, convErr := strconv.Atoi(p)
		if convErr != nil || n < 0 {
			return 0, 0, 0, fmt.Errorf("date %q is not YYYY-MM-DD", s)
		}
		vals[i] = n
	}
	return vals[0], vals[1], vals[2], nil
}

// parseClock reads H:MM, HH:MM or HH:MM:SS. Only the hour may drop its
// leading zero.
func parseClock(s string) (hour, minute, second int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, 0, fmt.Errorf("time %q is not HH:MM or HH:MM:SS", s)
	}

	vals := []int{0, 0, 0}
	for i, p := range parts {
		if len(p) != 2 && !(i == 0 && len(p) == 1) {
			return 0, 0, 0, fmt.Errorf("time %q is not HH:MM or HH:MM:SS", s)
		}
		if strings.TrimLeft(p, "0123456789") != "" {
			return 0, 0, 0, fmt.Errorf("time %q is not HH:MM or HH:MM:SS", s)
		}
		n, convErr := strconv.Atoi(p)
		if convErr != nil || n < 0 {
			return 0, 0, 0, fmt.Errorf("time %q is not HH:MM or HH:MM:SS", s)
		}
		vals[i] = n
	}

	if vals[0] > 23 || vals[1] > 59 || vals[2] > 59 {
		return 0, 0, 0, fmt.Errorf("time %q out of range", s)
	}
	return vals[0], vals[1], vals[2], nil
}
