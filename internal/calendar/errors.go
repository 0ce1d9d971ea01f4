package calendar

import "errors"

// Sentinel errors returned by the calendar functions. Callers classify them
// with errors.Is; messages are wrapped with the offending value.
var (
	// ErrInvalidDate is returned for civil dates or times that do not exist.
	ErrInvalidDate = errors.New("invalid date or time")

	// ErrInvalidTimezone is returned when an IANA identifier cannot be resolved.
	ErrInvalidTimezone = errors.New("invalid timezone")

	// ErrOutOfRange is returned for dates outside the lunar table coverage.
	ErrOutOfRange = errors.New("date outside supported range")

	// ErrUnsupportedLunarDate is returned for lunar dates that never occurred,
	// such as a leap month in a year without one or a 30th day in a short month.
	ErrUnsupportedLunarDate = errors.New("unsupported lunar date")
)
