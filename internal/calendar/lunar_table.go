package calendar

// lunarYears holds one packed word per lunar year, starting at FirstLunarYear.
//
// Bit layout (low to high):
//
//	bits 0-3   leap month number, 0 when the year has none
//	bits 4-15  month lengths, bit 15 = month 1 ... bit 4 = month 12 (1 = 30 days)
//	bit  16    leap month length (1 = 30 days)
//
// Values follow the Korean calendar as KASI publishes it: months begin on
// the KST civil date of the new moon, the month holding the winter solstice
// is month 11, and in a 13-month solstice year the first month without a
// principal term is the leap month. Dates are reckoned at UTC+9, or UTC+8:30
// before 1912 and from 1954-03-21 to 1961-08-09, matching Korean standard
// time of the era. This is why 1997 설날 falls on 02-08 and 2012 has a leap
// month 3, where tables computed for 120°E differ.
var lunarYears = [...]uint32{
	0x04bd8, 0x04ae0, 0x0a570, 0x05565, 0x0d2a0, 0x0e950, 0x16554, 0x056a0, 0x0aad0, 0x055d2, // 1900
	0x04ae0, 0x0a5d6, 0x0a4d0, 0x0d250, 0x0da95, 0x0b550, 0x056a0, 0x0ada2, 0x095d0, 0x04bb7, // 1910
	0x049b0, 0x0a4b0, 0x0b4b5, 0x06a90, 0x0ad40, 0x0bb54, 0x02b60, 0x095b0, 0x05372, 0x04970, // 1920
	0x06566, 0x0e4a0, 0x0ea50, 0x16a95, 0x05b50, 0x02b60, 0x18ae3, 0x092e0, 0x1c8d7, 0x0c950, // 1930
	0x0d4a0, 0x1d8a6, 0x0b690, 0x056d0, 0x125b4, 0x025d0, 0x092d0, 0x0d2b2, 0x0a950, 0x0d557, // 1940
	0x0b4a0, 0x0b550, 0x15555, 0x04db0, 0x025b0, 0x18573, 0x052b0, 0x0a9b8, 0x06950, 0x06aa0, // 1950
	0x0aea6, 0x0ab50, 0x04b60, 0x0aae4, 0x0a570, 0x05270, 0x07263, 0x0d950, 0x06b57, 0x056a0, // 1960
	0x09ad0, 0x04dd5, 0x04ae0, 0x0a4e0, 0x0d4d4, 0x0d250, 0x0d598, 0x0b540, 0x0d6a0, 0x195a6, // 1970
	0x095b0, 0x049b0, 0x0a9b4, 0x0a4b0, 0x0b27a, 0x06a50, 0x06d40, 0x0b756, 0x02b60, 0x095b0, // 1980
	0x04b75, 0x04970, 0x064b0, 0x074a3, 0x0ea50, 0x06d98, 0x05ad0, 0x02b60, 0x096e5, 0x092e0, // 1990
	0x0c960, 0x0e954, 0x0d4a0, 0x0da50, 0x07552, 0x056c0, 0x0abb7, 0x025d0, 0x092d0, 0x0cab5, // 2000
	0x0a950, 0x0b4a0, 0x1b4a3, 0x0b550, 0x055d9, 0x04ba0, 0x0a5b0, 0x05575, 0x052b0, 0x0a950, // 2010
	0x0b954, 0x06aa0, 0x0ad50, 0x06b52, 0x04b60, 0x0a6e6, 0x0a570, 0x05270, 0x06a65, 0x0d930, // 2020
	0x05aa0, 0x0b6a3, 0x096d0, 0x04afb, 0x04ae0, 0x0a4d0, 0x1d0d6, 0x0d250, 0x0d520, 0x0dd45, // 2030
	0x0b6a0, 0x096d0, 0x055b2, 0x049b0, 0x0a577, 0x0a4b0, 0x0b250, 0x1b255, 0x06d40, 0x0ada0, // 2040
	0x18b63, // 2050
}

const (
	// FirstLunarYear is the first lunar year covered by the table.
	FirstLunarYear = 1900

	// LastLunarYear is the last lunar year covered by the table.
	LastLunarYear = FirstLunarYear + len(lunarYears) - 1
)

// lunarEpoch is the solar date of lunar FirstLunarYear-01-01.
var lunarEpoch = Date{Year: 1900, Month: 1, Day: 31}

// yearStartOffsets[i] is the day offset from lunarEpoch to lunar new year of
// FirstLunarYear+i; the extra final element marks the end of the table.
var yearStartOffsets = buildYearStartOffsets()

func buildYearStartOffsets() []int {
	offsets := make([]int, len(lunarYears)+1)
	for i := range lunarYears {
		offsets[i+1] = offsets[i] + lunarYearDays(lunarYears[i])
	}
	return offsets
}

func lunarLeapMonth(info uint32) int {
	return int(info & 0xf)
}

func lunarMonthDays(info uint32, month int) int {
	if info&(0x10000>>uint(month)) != 0 {
		return 30
	}
	return 29
}

func lunarLeapDays(info uint32) int {
	if lunarLeapMonth(info) == 0 {
		return 0
	}
	if info&0x10000 != 0 {
		return 30
	}
	return 29
}

func lunarYearDays(info uint32) int {
	total := lunarLeapDays(info)
	for m := 1; m <= 12; m++ {
		total += lunarMonthDays(info, m)
	}
	return total
}
