package saju

import (
	"errors"

	"github.com/zapponejosh/manseryeok-api/internal/calendar"
)

// ErrorCode discriminates the caller-correctable failures of a calculation.
type ErrorCode string

const (
	CodeInvalidDateTime      ErrorCode = "InvalidDateTime"
	CodeUnsupportedLunarDate ErrorCode = "UnsupportedLunarDate"
	CodeInvalidTimezone      ErrorCode = "InvalidTimezone"
	CodeOutOfSupportedRange  ErrorCode = "OutOfSupportedRange"
)

// Error is the only error type Calculate returns. Compare with errors.Is
// against the sentinels below, or read Code via errors.As.
type Error struct {
	Code ErrorCode
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrInvalidDateTime      = &Error{Code: CodeInvalidDateTime}
	ErrUnsupportedLunarDate = &Error{Code: CodeUnsupportedLunarDate}
	ErrInvalidTimezone      = &Error{Code: CodeInvalidTimezone}
	ErrOutOfSupportedRange  = &Error{Code: CodeOutOfSupportedRange}
)

// CodeOf extracts the error code, if err came from this package.
func CodeOf(err error) (ErrorCode, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// Classify maps calendar failures onto the engine's codes. Anything
// unrecognized is a table-integrity problem and reported as out of range
// rather than allowed through.
func Classify(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	code := CodeOutOfSupportedRange
	switch {
	case errors.Is(err, calendar.ErrInvalidTimezone):
		code = CodeInvalidTimezone
	case errors.Is(err, calendar.ErrUnsupportedLunarDate):
		code = CodeUnsupportedLunarDate
	case errors.Is(err, calendar.ErrInvalidDate):
		code = CodeInvalidDateTime
	}
	return &Error{Code: code, Err: err}
}

func invalidInput(err error) *Error {
	return &Error{Code: CodeInvalidDateTime, Err: err}
}
