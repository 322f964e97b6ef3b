package recurrence

import (
	"fmt"
	"time"

	"github.com/sikong32/mytodo/internal/domain"
)

// HorizonPolicy holds, per pattern, how many years past the series start
// occurrences are generated.
type HorizonPolicy map[domain.Pattern]int

// DefaultHorizons returns the built-in expansion horizons.
func DefaultHorizons() HorizonPolicy {
	return HorizonPolicy{
		domain.PatternDaily:   2,
		domain.PatternWeekly:  2,
		domain.PatternMonthly: 5,
		domain.PatternYearly:  10,
	}
}

type Expander struct {
	horizons HorizonPolicy
	loc      *time.Location
}

type Option func(*Expander)

// WithHorizons overrides the horizon of every pattern with a positive value.
func WithHorizons(h HorizonPolicy) Option {
	return func(e *Expander) {
		for p, years := range h {
			if years > 0 && p.Repeats() {
				e.horizons[p] = years
			}
		}
	}
}

// WithLocation sets the zone in which calendar steps are computed. Stepping
// in the user's zone keeps a 09:00 meeting at 09:00 across DST changes.
func WithLocation(loc *time.Location) Option {
	return func(e *Expander) {
		if loc != nil {
			e.loc = loc
		}
	}
}

func NewExpander(opts ...Option) *Expander {
	e := &Expander{
		horizons: DefaultHorizons(),
		loc:      time.UTC,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Location is the zone calendar steps are computed in.
func (e *Expander) Location() *time.Location {
	return e.loc
}

// Cutoff returns the last instant at which an occurrence of def may start.
func (e *Expander) Cutoff(def domain.EventDefinition) time.Time {
	years := e.horizons[def.RecurringPattern]
	return def.StartTime.In(e.loc).AddDate(years, 0, 0).UTC()
}

// Expand generates the occurrences of a single definition. A definition
// with an unrecognised pattern is treated as non-recurring; the single
// occurrence is still returned together with an error wrapping
// domain.ErrUnknownPattern so callers can report it.
func (e *Expander) Expand(def domain.EventDefinition) ([]domain.Occurrence, error) {
	if def.IsRecurring && !def.RecurringPattern.Valid() {
		return []domain.Occurrence{single(def)}, fmt.Errorf("%w: %q on %s", domain.ErrUnknownPattern, def.RecurringPattern, def.ID)
	}
	if !def.Recurs() {
		return []domain.Occurrence{single(def)}, nil
	}

	duration := def.Duration()
	start := def.StartTime.In(e.loc)
	cutoff := start.AddDate(e.horizons[def.RecurringPattern], 0, 0)

	out := []domain.Occurrence{instance(def, start, duration)}
	for next := Step(start, def.RecurringPattern, 1); !next.After(cutoff); next = Step(next, def.RecurringPattern, 1) {
		out = append(out, instance(def, next, duration))
	}
	return out, nil
}

// Step moves t by n calendar units of p, in t's location.
func Step(t time.Time, p domain.Pattern, n int) time.Time {
	switch p {
	case domain.PatternDaily:
		return t.AddDate(0, 0, n)
	case domain.PatternWeekly:
		return t.AddDate(0, 0, 7*n)
	case domain.PatternMonthly:
		return t.AddDate(0, n, 0)
	case domain.PatternYearly:
		return t.AddDate(n, 0, 0)
	}
	panic("recurrence: step on non-repeating pattern " + string(p))
}

func single(def domain.EventDefinition) domain.Occurrence {
	return domain.Occurrence{
		ID:               def.ID,
		DefinitionID:     def.ID,
		Title:            def.Title,
		Description:      def.Description,
		Start:            def.StartTime.UTC(),
		End:              def.EndTime.UTC(),
		Category:         def.Category,
		Color:            def.Color,
		RecurringPattern: domain.PatternNone,
		ExceptionOf:      exceptionOf(def),
	}
}

func instance(def domain.EventDefinition, start time.Time, duration time.Duration) domain.Occurrence {
	start = start.UTC()
	return domain.Occurrence{
		ID:                  OccurrenceID(def.ID, start),
		DefinitionID:        def.ID,
		Title:               def.Title,
		Description:         def.Description,
		Start:               start,
		End:                 start.Add(duration),
		Category:            def.Category,
		Color:               def.Color,
		IsRecurringInstance: true,
		RecurringPattern:    def.RecurringPattern,
	}
}

func exceptionOf(def domain.EventDefinition) string {
	if def.IsException() {
		return def.SeriesID
	}
	return ""
}
