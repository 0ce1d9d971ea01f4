// Package saju derives the four pillars (사주팔자) of a birth moment and
// summarizes their five-element balance.
package saju

import (
	"fmt"
)

// Element is one of the five phases (오행).
type Element int

const (
	Wood Element = iota
	Fire
	Earth
	Metal
	Water
)

// Elements lists the five elements in generating order.
var Elements = [5]Element{Wood, Fire, Earth, Metal, Water}

var elementNames = [5]struct{ en, ko, hanja string }{
	{"wood", "목", "木"},
	{"fire", "화", "火"},
	{"earth", "토", "土"},
	{"metal", "금", "金"},
	{"water", "수", "水"},
}

// String returns the English name used on the wire, e.g. "wood".
func (e Element) String() string {
	if e < Wood || e > Water {
		return fmt.Sprintf("Element(%d)", int(e))
	}
	return elementNames[e].en
}

// Korean returns the Korean reading, e.g. "목".
func (e Element) Korean() string { return elementNames[e].ko }

// Hanja returns the character, e.g. "木".
func (e Element) Hanja() string { return elementNames[e].hanja }

// MarshalText encodes the element by its English name.
func (e Element) MarshalText() ([]byte, error) {
	if e < Wood || e > Water {
		return nil, fmt.Errorf("invalid element %d", int(e))
	}
	return []byte(e.String()), nil
}

// Polarity is yin or yang (음양).
type Polarity int

const (
	Yang Polarity = iota
	Yin
)

func (p Polarity) String() string {
	if p == Yin {
		return "yin"
	}
	return "yang"
}

// Stem is a heavenly stem (천간), ordinal 0 (갑) through 9 (계).
type Stem int

var stemNames = [10]struct{ ko, hanja string }{
	{"갑", "甲"}, {"을", "乙"}, {"병", "丙"}, {"정", "丁"}, {"무", "戊"},
	{"기", "己"}, {"경", "庚"}, {"신", "辛"}, {"임", "壬"}, {"계", "癸"},
}

// Korean returns the hangul symbol of the stem.
func (s Stem) Korean() string { return stemNames[s].ko }

// Hanja returns the character of the stem.
func (s Stem) Hanja() string { return stemNames[s].hanja }

// Element returns the stem's element; stems come in pairs per element.
func (s Stem) Element() Element { return Element(int(s) / 2) }

// Polarity alternates yang, yin starting at 갑.
func (s Stem) Polarity() Polarity { return Polarity(int(s) % 2) }

func (s Stem) String() string { return s.Korean() }

// Branch is an earthly branch (지지), ordinal 0 (자) through 11 (해).
type Branch int

var branchNames = [12]struct {
	ko, hanja, animal string
	element           Element
}{
	{"자", "子", "rat", Water},
	{"축", "丑", "ox", Earth},
	{"인", "寅", "tiger", Wood},
	{"묘", "卯", "rabbit", Wood},
	{"진", "辰", "dragon", Earth},
	{"사", "巳", "snake", Fire},
	{"오", "午", "horse", Fire},
	{"미", "未", "goat", Earth},
	{"신", "申", "monkey", Metal},
	{"유", "酉", "rooster", Metal},
	{"술", "戌", "dog", Earth},
	{"해", "亥", "pig", Water},
}

// Korean returns the hangul symbol of the branch.
func (b Branch) Korean() string { return branchNames[b].ko }

// Hanja returns the character of the branch.
func (b Branch) Hanja() string { return branchNames[b].hanja }

// Animal returns the zodiac animal associated with the branch.
func (b Branch) Animal() string { return branchNames[b].animal }

// Element returns the branch's element.
func (b Branch) Element() Element { return branchNames[b].element }

// Polarity alternates yang, yin starting at 자.
func (b Branch) Polarity() Polarity { return Polarity(int(b) % 2) }

func (b Branch) String() string { return b.Korean() }

// HourWindow returns the start and end hour of the branch's two-hour window.
// 자 spans midnight: 23:00 to 00:59.
func (b Branch) HourWindow() (startHour, endHour int) {
	start := (2*int(b) + 23) % 24
	return start, (start + 1) % 24
}

// BranchForHour maps a clock hour (0-23) to the branch whose window holds it.
func BranchForHour(hour int) Branch {
	return Branch(((hour + 1) / 2) % 12)
}

// mod returns the non-negative remainder of a / n.
func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}
