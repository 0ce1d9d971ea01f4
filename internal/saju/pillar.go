package saju

import (
	"encoding/json"
	"fmt"

	"github.com/zapponejosh/manseryeok-api/internal/calendar"
)

// Pillar is a stem-branch pair (간지). Only the 60 pairs whose stem and
// branch share polarity occur.
type Pillar struct {
	Stem   Stem
	Branch Branch
}

// PillarFromCycle returns the pillar at position i of the sexagenary cycle,
// where 0 is 갑자 and 59 is 계해. i is reduced mod 60.
func PillarFromCycle(i int) Pillar {
	i = mod(i, 60)
	return Pillar{Stem: Stem(i % 10), Branch: Branch(i % 12)}
}

// CycleIndex returns the pillar's position 0..59 in the sexagenary cycle.
// It returns -1 for a pair that cannot occur.
func (p Pillar) CycleIndex() int {
	if !p.Valid() {
		return -1
	}
	// Solve i ≡ stem (mod 10), i ≡ branch (mod 12).
	return mod(6*int(p.Stem)-5*int(p.Branch), 60)
}

// Valid reports whether the pair belongs to the sexagenary cycle.
func (p Pillar) Valid() bool {
	return p.Stem >= 0 && p.Stem <= 9 && p.Branch >= 0 && p.Branch <= 11 &&
		mod(int(p.Stem)-int(p.Branch), 2) == 0
}

// Korean returns the hangul label, e.g. "기사".
func (p Pillar) Korean() string {
	return p.Stem.Korean() + p.Branch.Korean()
}

// Hanja returns the traditional label, e.g. "己巳".
func (p Pillar) Hanja() string {
	return p.Stem.Hanja() + p.Branch.Hanja()
}

func (p Pillar) String() string {
	return fmt.Sprintf("%s(%s)", p.Korean(), p.Hanja())
}

type pillarJSON struct {
	Stem          string  `json:"stem"`
	Branch        string  `json:"branch"`
	Label         string  `json:"label"`
	Hanja         string  `json:"hanja"`
	StemElement   Element `json:"stemElement"`
	BranchElement Element `json:"branchElement"`
}

// MarshalJSON renders the pillar with its hangul symbols and element tags.
func (p Pillar) MarshalJSON() ([]byte, error) {
	return json.Marshal(pillarJSON{
		Stem:          p.Stem.Korean(),
		Branch:        p.Branch.Korean(),
		Label:         p.Korean(),
		Hanja:         p.Hanja(),
		StemElement:   p.Stem.Element(),
		BranchElement: p.Branch.Element(),
	})
}

// Pillars holds the four pillars of a chart.
type Pillars struct {
	Year  Pillar `json:"year"`
	Month Pillar `json:"month"`
	Day   Pillar `json:"day"`
	Hour  Pillar `json:"hour"`
}

// All returns the pillars in year, month, day, hour order.
func (p Pillars) All() [4]Pillar {
	return [4]Pillar{p.Year, p.Month, p.Day, p.Hour}
}

// yearPillar returns the pillar of a sexagenary year; 1984 is 갑자.
func yearPillar(year int) Pillar {
	return PillarFromCycle(year - 4)
}

// monthPillar returns the pillar of solar month index k (0 = 인월) in a year
// whose stem is yearStem. The 인 month stem follows the five-tigers rule
// (甲己 → 丙寅, 乙庚 → 戊寅, ...).
func monthPillar(yearStem Stem, k int) Pillar {
	tiger := (int(yearStem)%5)*2 + 2
	return Pillar{
		Stem:   Stem(mod(tiger+k, 10)),
		Branch: Branch(mod(k+2, 12)),
	}
}

// dayCycleOffset calibrates the day count: JDN 2433191 (1949-10-01) is 갑자.
const dayCycleOffset = 49

// dayPillarForJDN returns the day pillar of a Julian day number.
func dayPillarForJDN(jdn int) Pillar {
	return PillarFromCycle(jdn + dayCycleOffset)
}

// DayPillarOf returns the day pillar (일진) of a civil date.
func DayPillarOf(d calendar.Date) Pillar {
	return dayPillarForJDN(d.JulianDayNumber())
}

// YearPillarOf returns the pillar of a sexagenary year number.
func YearPillarOf(year int) Pillar {
	return yearPillar(year)
}

// hourPillar returns the hour pillar for a branch on a day whose stem is
// dayStem. The 자 hour stem follows the five-rats rule (甲己 → 甲子, ...).
func hourPillar(dayStem Stem, branch Branch) Pillar {
	rat := (int(dayStem) % 5) * 2
	return Pillar{
		Stem:   Stem(mod(rat+int(branch), 10)),
		Branch: branch,
	}
}
