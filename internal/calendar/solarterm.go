package calendar

import (
	"fmt"
	"math"
	"time"
)

// SolarTerm is one of the 24 divisions (절기) of the tropical year.
type SolarTerm struct {
	// Index orders the terms within a Gregorian year, 0 = 소한 (early January).
	Index int `json:"index"`
	// Name is the Korean name, e.g. "입춘".
	Name string `json:"name"`
	// Hanja is the traditional name, e.g. "立春".
	Hanja string `json:"hanja"`
	// Longitude is the apparent solar longitude in degrees at the term.
	Longitude float64 `json:"longitude"`
	// Major is true for the 12 節 terms that open a pillar month.
	Major bool `json:"major"`
	// Time is the instant the sun reaches Longitude, in KST.
	Time time.Time `json:"time"`
}

type termDef struct {
	name, hanja string
	longitude   float64
}

var termDefs = [24]termDef{
	{"소한", "小寒", 285}, {"대한", "大寒", 300}, {"입춘", "立春", 315}, {"우수", "雨水", 330},
	{"경칩", "驚蟄", 345}, {"춘분", "春分", 0}, {"청명", "淸明", 15}, {"곡우", "穀雨", 30},
	{"입하", "立夏", 45}, {"소만", "小滿", 60}, {"망종", "芒種", 75}, {"하지", "夏至", 90},
	{"소서", "小暑", 105}, {"대서", "大暑", 120}, {"입추", "立秋", 135}, {"처서", "處暑", 150},
	{"백로", "白露", 165}, {"추분", "秋分", 180}, {"한로", "寒露", 195}, {"상강", "霜降", 210},
	{"입동", "立冬", 225}, {"소설", "小雪", 240}, {"대설", "大雪", 255}, {"동지", "冬至", 270},
}

// IpchunLongitude is the solar longitude of 입춘, the start of the saju year
// and of the 인(寅) month.
const IpchunLongitude = 315.0

// SolarTermTime returns the instant in the Gregorian year at which the sun
// reaches the given apparent longitude.
func SolarTermTime(year int, longitude float64) time.Time {
	jan1 := float64(Date{Year: year, Month: 1, Day: 1}.JulianDayNumber()) - 0.5
	// The sun sits near 280° on 1 January.
	guess := jan1 + normalizeDegrees(longitude-280)*tropicalYear/360
	return solarLongitudeCrossing(longitude, guess).In(KST)
}

// Ipchun returns the instant of 입춘 in the Gregorian year.
func Ipchun(year int) time.Time {
	return SolarTermTime(year, IpchunLongitude)
}

// SolarTerms returns the 24 solar terms of a Gregorian year in calendar
// order, with times in KST.
func SolarTerms(year int) ([]SolarTerm, error) {
	if year < MinSolarDate().Year || year > MaxSolarDate().Year {
		return nil, fmt.Errorf("%w: year %d", ErrOutOfRange, year)
	}

	terms := make([]SolarTerm, len(termDefs))
	for i, def := range termDefs {
		terms[i] = SolarTerm{
			Index:     i,
			Name:      def.name,
			Hanja:     def.hanja,
			Longitude: def.longitude,
			Major:     i%2 == 0,
			Time:      SolarTermTime(year, def.longitude),
		}
	}
	return terms, nil
}

// MajorSolarTerms returns only the 12 節 terms of a Gregorian year.
func MajorSolarTerms(year int) ([]SolarTerm, error) {
	all, err := SolarTerms(year)
	if err != nil {
		return nil, err
	}
	major := make([]SolarTerm, 0, 12)
	for _, t := range all {
		if t.Major {
			major = append(major, t)
		}
	}
	return major, nil
}

// SolarMonthIndex returns which of the 12 solar months contains t:
// 0 for the month opened by 입춘 (인월), 1 for 경칩 (묘월), ..., 11 for 소한 (축월).
func SolarMonthIndex(t time.Time) int {
	return int(math.Floor(normalizeDegrees(SolarLongitude(t)-IpchunLongitude) / 30))
}
