// Package holiday lists public holidays per locale. Dates are all-day and
// expressed as UTC midnights; End is exclusive.
package holiday

import (
	"time"

	"golang.org/x/text/language"
)

// Color is the background colour of every holiday entry.
const Color = "#FF4B4B"

type Holiday struct {
	Title  string
	Start  time.Time
	End    time.Time
	AllDay bool
	Color  string
}

// Locales lists the supported locale codes. The first one is the default.
var Locales = []string{"ko", "en", "ja", "zh"}

var matcher = language.NewMatcher([]language.Tag{
	language.Korean,
	language.English,
	language.Japanese,
	language.Chinese,
})

// Match picks the supported locale closest to prefs. Each pref may be a
// locale code ("en-GB") or a full Accept-Language header value.
func Match(prefs ...string) string {
	_, idx := language.MatchStrings(matcher, prefs...)
	if idx < 0 || idx >= len(Locales) {
		return Locales[0]
	}
	return Locales[idx]
}

// For returns the holidays of year in locale, sorted by start. Unknown
// locales yield nil.
func For(year int, locale string) []Holiday {
	var out []Holiday
	switch locale {
	case "ko":
		out = korean(year)
	case "en":
		out = american(year)
	case "ja":
		out = japanese(year)
	case "zh":
		out = chinese(year)
	}
	sortByStart(out)
	return out
}

func korean(year int) []Holiday {
	out := []Holiday{
		day("신정", date(year, time.January, 1)),
		day("삼일절", date(year, time.March, 1)),
		day("어린이날", date(year, time.May, 5)),
		day("현충일", date(year, time.June, 6)),
		day("광복절", date(year, time.August, 15)),
		day("개천절", date(year, time.October, 3)),
		day("한글날", date(year, time.October, 9)),
		day("크리스마스", date(year, time.December, 25)),
	}
	if l, ok := lunarTable[year]; ok {
		// Seollal and Chuseok also cover the day before and after.
		newYear := l.newYear.in(year)
		chuseok := l.midAutumn.in(year)
		out = append(out,
			span("설날", newYear.AddDate(0, 0, -1), newYear.AddDate(0, 0, 2)),
			span("추석", chuseok.AddDate(0, 0, -1), chuseok.AddDate(0, 0, 2)),
			day("부처님오신날", l.buddha.in(year)),
		)
	}
	return out
}

func american(year int) []Holiday {
	return []Holiday{
		day("New Year's Day", date(year, time.January, 1)),
		day("Martin Luther King Jr. Day", nthWeekday(year, time.January, time.Monday, 3)),
		day("Presidents' Day", nthWeekday(year, time.February, time.Monday, 3)),
		day("Memorial Day", lastWeekday(year, time.May, time.Monday)),
		day("Independence Day", date(year, time.July, 4)),
		day("Labor Day", nthWeekday(year, time.September, time.Monday, 1)),
		day("Columbus Day", nthWeekday(year, time.October, time.Monday, 2)),
		day("Veterans Day", date(year, time.November, 11)),
		day("Thanksgiving Day", nthWeekday(year, time.November, time.Thursday, 4)),
		day("Christmas Day", date(year, time.December, 25)),
	}
}

func japanese(year int) []Holiday {
	// Equinox days use their usual dates rather than the astronomical ones.
	return []Holiday{
		day("元日", date(year, time.January, 1)),
		day("成人の日", nthWeekday(year, time.January, time.Monday, 2)),
		day("建国記念の日", date(year, time.February, 11)),
		day("天皇誕生日", date(year, time.February, 23)),
		day("春分の日", date(year, time.March, 20)),
		day("昭和の日", date(year, time.April, 29)),
		day("憲法記念日", date(year, time.May, 3)),
		day("みどりの日", date(year, time.May, 4)),
		day("こどもの日", date(year, time.May, 5)),
		day("海の日", nthWeekday(year, time.July, time.Monday, 3)),
		day("敬老の日", nthWeekday(year, time.September, time.Monday, 3)),
		day("秋分の日", date(year, time.September, 22)),
		day("スポーツの日", nthWeekday(year, time.October, time.Monday, 2)),
		day("文化の日", date(year, time.November, 3)),
		day("勤労感謝の日", date(year, time.November, 23)),
	}
}

func chinese(year int) []Holiday {
	out := []Holiday{
		day("元旦", date(year, time.January, 1)),
		day("清明节", date(year, time.April, 4)),
		span("劳动节", date(year, time.May, 1), date(year, time.May, 3)),
		span("国庆节", date(year, time.October, 1), date(year, time.October, 7)),
	}
	if l, ok := lunarTable[year]; ok {
		springFestival := l.newYear.in(year)
		out = append(out,
			span("春节", springFestival, springFestival.AddDate(0, 0, 7)),
			day("端午节", l.dragonBoat.in(year)),
			day("中秋节", l.midAutumn.in(year)),
		)
	}
	return out
}

func date(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func day(title string, start time.Time) Holiday {
	return span(title, start, start.AddDate(0, 0, 1))
}

func span(title string, start, end time.Time) Holiday {
	return Holiday{Title: title, Start: start, End: end, AllDay: true, Color: Color}
}

// nthWeekday returns the n-th (1-based) weekday wd of month.
func nthWeekday(year int, month time.Month, wd time.Weekday, n int) time.Time {
	first := date(year, month, 1)
	offset := (int(wd) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+(n-1)*7)
}

// lastWeekday returns the last weekday wd of month.
func lastWeekday(year int, month time.Month, wd time.Weekday) time.Time {
	last := date(year, month+1, 0)
	offset := (int(last.Weekday()) - int(wd) + 7) % 7
	return last.AddDate(0, 0, -offset)
}

func sortByStart(hs []Holiday) {
	for i := 1; i < len(hs); i++ {
		for j := i; j > 0 && hs[j].Start.Before(hs[j-1].Start); j-- {
			hs[j], hs[j-1] = hs[j-1], hs[j]
		}
	}
}
