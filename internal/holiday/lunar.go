package holiday

import "time"

type monthDay struct {
	month time.Month
	day   int
}

func (md monthDay) in(year int) time.Time {
	return date(year, md.month, md.day)
}

// lunarDates holds the solar dates of the lunar-calendar holidays of one
// year: 1/1 (new year), 4/8 (Buddha's birthday), 5/5 (dragon boat) and
// 8/15 (mid-autumn, Chuseok).
type lunarDates struct {
	newYear    monthDay
	buddha     monthDay
	dragonBoat monthDay
	midAutumn  monthDay
}

// TODO: replace the table with a lunisolar conversion once the covered
// range ends.
var lunarTable = map[int]lunarDates{
	2020: {monthDay{time.January, 25}, monthDay{time.April, 30}, monthDay{time.June, 25}, monthDay{time.October, 1}},
	2021: {monthDay{time.February, 12}, monthDay{time.May, 19}, monthDay{time.June, 14}, monthDay{time.September, 21}},
	2022: {monthDay{time.February, 1}, monthDay{time.May, 8}, monthDay{time.June, 3}, monthDay{time.September, 10}},
	2023: {monthDay{time.January, 22}, monthDay{time.May, 27}, monthDay{time.June, 22}, monthDay{time.September, 29}},
	2024: {monthDay{time.February, 10}, monthDay{time.May, 15}, monthDay{time.June, 10}, monthDay{time.September, 17}},
	2025: {monthDay{time.January, 29}, monthDay{time.May, 5}, monthDay{time.May, 31}, monthDay{time.October, 6}},
	2026: {monthDay{time.February, 17}, monthDay{time.May, 24}, monthDay{time.June, 19}, monthDay{time.September, 25}},
	2027: {monthDay{time.February, 6}, monthDay{time.May, 13}, monthDay{time.June, 9}, monthDay{time.September, 15}},
	2028: {monthDay{time.January, 26}, monthDay{time.May, 2}, monthDay{time.May, 28}, monthDay{time.October, 3}},
	2029: {monthDay{time.February, 13}, monthDay{time.May, 20}, monthDay{time.June, 16}, monthDay{time.September, 22}},
	2030: {monthDay{time.February, 3}, monthDay{time.May, 9}, monthDay{time.June, 5}, monthDay{time.September, 12}},
}
