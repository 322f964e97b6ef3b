package domain

import "time"

// Occurrence is one concrete calendar instance derived from an
// EventDefinition. It is never stored.
type Occurrence struct {
	ID                  string
	DefinitionID        string
	Title               string
	Description         string
	Start               time.Time
	End                 time.Time
	Category            Category
	Color               string
	IsRecurringInstance bool
	RecurringPattern    Pattern
	// ExceptionOf is the series id when the occurrence comes from an
	// exception row.
	ExceptionOf string
	// ReadOnly marks background entries such as public holidays.
	ReadOnly bool
	AllDay   bool
}

// Window is a half-open display range. A zero bound is unbounded.
type Window struct {
	From time.Time
	To   time.Time
}

// Overlaps reports whether [start, end) intersects the window.
func (w Window) Overlaps(start, end time.Time) bool {
	if !w.To.IsZero() && !start.Before(w.To) {
		return false
	}
	if !w.From.IsZero() && !end.After(w.From) && !start.Equal(w.From) {
		return false
	}
	return true
}
