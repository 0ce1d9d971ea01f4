package saju

import (
	"encoding/json"
	"strings"
)

// ElementCounts tallies symbols per element, indexed by Element.
type ElementCounts [5]int

// Total returns the number of symbols counted.
func (c ElementCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Spread returns max - min over the five counts.
func (c ElementCounts) Spread() int {
	lo, hi := c[0], c[0]
	for _, n := range c[1:] {
		if n < lo {
			lo = n
		}
		if n > hi {
			hi = n
		}
	}
	return hi - lo
}

// Missing returns the elements with a zero count.
func (c ElementCounts) Missing() []Element {
	missing := []Element{}
	for _, e := range Elements {
		if c[e] == 0 {
			missing = append(missing, e)
		}
	}
	return missing
}

// MarshalJSON renders the counts as an object keyed by element name.
func (c ElementCounts) MarshalJSON() ([]byte, error) {
	m := make(map[string]int, len(c))
	for _, e := range Elements {
		m[e.String()] = c[e]
	}
	return json.Marshal(m)
}

// CountElements tallies the chart's symbols under the chosen convention.
func CountElements(p Pillars, counting ElementCounting) ElementCounts {
	var c ElementCounts
	for _, pillar := range p.All() {
		c[pillar.Stem.Element()]++
		if counting == CountAll {
			c[pillar.Branch.Element()]++
		}
	}
	return c
}

// Balance is the qualitative verdict on an element distribution.
type Balance string

const (
	Balanced           Balance = "balanced"
	SlightlyImbalanced Balance = "slightly_imbalanced"
	Imbalanced         Balance = "imbalanced"
)

// Korean returns the label shown to Korean readers.
func (b Balance) Korean() string {
	switch b {
	case Balanced:
		return "균형"
	case SlightlyImbalanced:
		return "약간 불균형"
	default:
		return "불균형"
	}
}

// ClassifyBalance grades the spread of counts against the thresholds.
func ClassifyBalance(c ElementCounts, th BalanceThresholds) Balance {
	spread := c.Spread()
	switch {
	case spread <= th.BalancedMax:
		return Balanced
	case spread <= th.SlightlyImbalancedMax:
		return SlightlyImbalanced
	default:
		return Imbalanced
	}
}

var dayMasterTraits = [5]string{
	Wood:  "성장과 발전을 추구하는 성향이 강합니다.",
	Fire:  "열정적이고 활동적인 성향이 있습니다.",
	Earth: "안정적이고 신중한 성향이 강합니다.",
	Metal: "논리적이고 체계적인 사고를 선호합니다.",
	Water: "유연하고 적응력이 뛰어납니다.",
}

// Interpret builds the short reading attached to a chart: the day master's
// temperament, plus advice when the elements are imbalanced.
func Interpret(dayMaster Element, counts ElementCounts, balance Balance) string {
	parts := []string{dayMasterTraits[dayMaster]}

	if balance == Imbalanced {
		parts = append(parts, "오행이 불균형하므로, 부족한 오행을 보완하는 것이 도움이 될 수 있습니다.")
	}
	if missing := counts.Missing(); len(missing) > 0 && balance != Balanced {
		names := make([]string, len(missing))
		for i, e := range missing {
			names[i] = e.Korean() + "(" + e.Hanja() + ")"
		}
		parts = append(parts, "부족한 오행: "+strings.Join(names, ", ")+".")
	}

	return strings.Join(parts, " ")
}
