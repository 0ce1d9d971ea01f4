package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJulianDayNumber(t *testing.T) {
	tests := []struct {
		date Date
		want int
	}{
		{NewDate(2000, 1, 1), 2451545},
		{NewDate(1949, 10, 1), 2433191},
		{NewDate(1990, 1, 27), 2447919},
		{NewDate(1970, 1, 1), 2440588},
		{NewDate(1900, 1, 31), 2415051},
	}

	for _, tt := range tests {
		t.Run(tt.date.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.date.JulianDayNumber())
			assert.Equal(t, tt.date, FromJulianDayNumber(tt.want))
		})
	}
}

func TestJulianDayNumber_MatchesTimePackage(t *testing.T) {
	// Walk a few decades and compare weekdays and successive dates with the
	// standard library's proleptic Gregorian arithmetic.
	cur := time.Date(1899, 12, 25, 0, 0, 0, 0, time.UTC)
	jdn := DateOf(cur).JulianDayNumber()
	for i := 0; i < 365*160; i += 7 {
		d := DateOf(cur)
		require.Equal(t, jdn, d.JulianDayNumber(), d.String())
		require.Equal(t, cur.Weekday(), d.Weekday(), d.String())
		cur = cur.AddDate(0, 0, 7)
		jdn += 7
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("1990-01-27")
	require.NoError(t, err)
	assert.Equal(t, NewDate(1990, 1, 27), d)

	for _, bad := range []string{"", "1990-1", "1990/01/27", "90-01-27", "1990-02-30", "2001-02-29", "1990-13-01", "abcd-01-01"} {
		_, err := ParseDate(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, bad)
	}

	_, err = ParseDate("2000-02-29")
	assert.NoError(t, err)
}

func TestDate_AddDays(t *testing.T) {
	assert.Equal(t, NewDate(1990, 3, 1), NewDate(1990, 2, 28).AddDays(1))
	assert.Equal(t, NewDate(1999, 12, 31), NewDate(2000, 1, 1).AddDays(-1))
	assert.True(t, NewDate(1990, 1, 1).Before(NewDate(1990, 1, 2)))
	assert.True(t, NewDate(1990, 1, 2).After(NewDate(1990, 1, 1)))
}
