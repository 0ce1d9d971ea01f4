package calendar

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // resolve IANA zones without relying on the host database
)

// KST is Korea Standard Time: UTC+9 with no daylight saving.
var KST = time.FixedZone("KST", 9*60*60)

// DefaultTimezone is the identifier assumed when none is supplied.
const DefaultTimezone = "Asia/Seoul"

// CivilDateTime is a wall-clock date and time with no zone attached.
type CivilDateTime struct {
	Date   Date
	Hour   int
	Minute int
	Second int
}

// String formats the value as "YYYY-MM-DD HH:MM:SS".
func (c CivilDateTime) String() string {
	return fmt.Sprintf("%s %02d:%02d:%02d", c.Date, c.Hour, c.Minute, c.Second)
}

// Valid reports whether the date exists and the clock fields are in range.
func (c CivilDateTime) Valid() bool {
	return c.Date.Valid() &&
		c.Hour >= 0 && c.Hour <= 23 &&
		c.Minute >= 0 && c.Minute <= 59 &&
		c.Second >= 0 && c.Second <= 59
}

// Instant is a birth moment expressed in KST.
type Instant struct {
	// Civil is the KST wall-clock date and time.
	Civil CivilDateTime
	// Time is the absolute instant, located in KST.
	Time time.Time
	// SourceZone is the identifier the civil input was interpreted in.
	SourceZone string
}

// LoadZone resolves an IANA identifier. The empty string, "Asia/Seoul" and
// "KST" all resolve to the fixed KST zone, so historical Korean clock
// changes are not applied.
func LoadZone(name string) (*time.Location, error) {
	switch strings.TrimSpace(name) {
	case "", DefaultTimezone, "KST":
		return KST, nil
	}
	loc, err := time.LoadLocation(strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}
	return loc, nil
}

// NormalizeToKST interprets civil in the named zone and returns the same
// moment in KST. The result must fall within the lunar table range.
func NormalizeToKST(civil CivilDateTime, zone string) (Instant, error) {
	if !civil.Valid() {
		return Instant{}, fmt.Errorf("%w: %s", ErrInvalidDate, civil)
	}

	loc, err := LoadZone(zone)
	if err != nil {
		return Instant{}, err
	}

	local := time.Date(civil.Date.Year, time.Month(civil.Date.Month), civil.Date.Day,
		civil.Hour, civil.Minute, civil.Second, 0, loc)

	// time.Date silently shifts wall times that fall in a DST gap.
	if local.Hour() != civil.Hour || local.Minute() != civil.Minute || DateOf(local) != civil.Date {
		return Instant{}, fmt.Errorf("%w: %s does not exist in %s", ErrInvalidDate, civil, loc)
	}

	kst := local.In(KST)
	inst := Instant{
		Civil: CivilDateTime{
			Date:   DateOf(kst),
			Hour:   kst.Hour(),
			Minute: kst.Minute(),
			Second: kst.Second(),
		},
		Time:       kst,
		SourceZone: loc.String(),
	}

	if err := CheckSolarRange(inst.Civil.Date); err != nil {
		return Instant{}, err
	}
	return inst, nil
}
