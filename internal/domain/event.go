package domain

import "time"

type Category string

const (
	CategoryDefault  Category = "default"
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
	CategoryFamily   Category = "family"
	CategoryHoliday  Category = "holiday"
	CategoryOther    Category = "other"
)

// Categories lists every accepted category in display order.
var Categories = []Category{
	CategoryDefault,
	CategoryWork,
	CategoryPersonal,
	CategoryFamily,
	CategoryHoliday,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Pattern string

const (
	PatternNone    Pattern = "none"
	PatternDaily   Pattern = "daily"
	PatternWeekly  Pattern = "weekly"
	PatternMonthly Pattern = "monthly"
	PatternYearly  Pattern = "yearly"
)

// Valid reports whether p is one of the known patterns. The empty pattern
// is accepted as an alias of none.
func (p Pattern) Valid() bool {
	switch p {
	case "", PatternNone, PatternDaily, PatternWeekly, PatternMonthly, PatternYearly:
		return true
	}
	return false
}

// Repeats reports whether p produces more than one occurrence.
func (p Pattern) Repeats() bool {
	switch p {
	case PatternDaily, PatternWeekly, PatternMonthly, PatternYearly:
		return true
	}
	return false
}

// EventDefinition is a persisted schedule row. A row with SeriesID set is an
// exception of that series: it either replaces the occurrence starting at
// ExceptionDate or, when Cancelled, removes it.
type EventDefinition struct {
	ID               string
	UserID           string
	Title            string
	Description      string
	StartTime        time.Time
	EndTime          time.Time
	Category         Category
	Color            string
	IsRecurring      bool
	RecurringPattern Pattern
	ExceptionDate    *time.Time
	SeriesID         string
	Cancelled        bool
	CreatedAt        time.Time
}

// Duration is the fixed length shared by every occurrence of the definition.
func (d EventDefinition) Duration() time.Duration {
	return d.EndTime.Sub(d.StartTime)
}

// Recurs reports whether the definition should be expanded as a series.
func (d EventDefinition) Recurs() bool {
	return d.IsRecurring && d.RecurringPattern.Repeats()
}

// IsException reports whether the row overrides one occurrence of a series.
func (d EventDefinition) IsException() bool {
	return d.SeriesID != "" && d.ExceptionDate != nil
}
