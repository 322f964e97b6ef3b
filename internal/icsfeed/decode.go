package icsfeed

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/sikong32/mytodo/internal/domain"
	"github.com/sikong32/mytodo/internal/reconcile"
	"github.com/sikong32/mytodo/internal/recurrence"
)

var (
	ErrInvalidCalendar = errors.New("invalid calendar")
	ErrNoEvents        = errors.New("calendar has no events")
)

// Event is one imported VEVENT. ExceptionDates are occurrence starts of the
// series removed with EXDATE.
type Event struct {
	Input          reconcile.CreateInput
	ExceptionDates []time.Time
}

// Decode reads every VEVENT of r. Overrides carrying RECURRENCE-ID are
// skipped. Rules without a matching pattern import as single events.
func Decode(r io.Reader) ([]Event, error) {
	cal, err := ical.NewDecoder(r).Decode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCalendar, err)
	}

	var out []Event
	for _, ev := range cal.Events() {
		if ev.Props.Get(ical.PropRecurrenceID) != nil {
			continue
		}
		imported, err := decodeEvent(ev)
		if err != nil {
			uid, _ := ev.Props.Text(ical.PropUID)
			return nil, fmt.Errorf("%w: event %q: %v", ErrInvalidCalendar, uid, err)
		}
		out = append(out, imported)
	}
	if len(out) == 0 {
		return nil, ErrNoEvents
	}
	return out, nil
}

func decodeEvent(ev ical.Event) (Event, error) {
	start, err := ev.Props.DateTime(ical.PropDateTimeStart, time.UTC)
	if err != nil {
		return Event{}, fmt.Errorf("DTSTART: %w", err)
	}
	end, err := eventEnd(ev, start)
	if err != nil {
		return Event{}, err
	}

	in := reconcile.CreateInput{
		Start:    start.UTC(),
		End:      end.UTC(),
		Category: domain.CategoryDefault,
		Pattern:  domain.PatternNone,
	}
	in.Title, _ = ev.Props.Text(ical.PropSummary)
	in.Description, _ = ev.Props.Text(ical.PropDescription)
	if prop := ev.Props.Get(ical.PropCategories); prop != nil {
		first, _, _ := strings.Cut(prop.Value, ",")
		if c := domain.Category(strings.ToLower(strings.TrimSpace(first))); c.Valid() {
			in.Category = c
		}
	}
	if prop := ev.Props.Get(ical.PropColor); prop != nil {
		in.Color = prop.Value
	}

	imported := Event{Input: in}
	rule, err := ev.Props.RecurrenceRule()
	if err != nil {
		return Event{}, fmt.Errorf("RRULE: %w", err)
	}
	if pattern, ok := recurrence.PatternFromRule(rule); ok {
		imported.Input.Pattern = pattern
		for _, prop := range ev.Props.Values(ical.PropExceptionDates) {
			d, err := prop.DateTime(time.UTC)
			if err != nil {
				return Event{}, fmt.Errorf("EXDATE: %w", err)
			}
			imported.ExceptionDates = append(imported.ExceptionDates, d.UTC())
		}
	}
	return imported, nil
}

func eventEnd(ev ical.Event, start time.Time) (time.Time, error) {
	if ev.Props.Get(ical.PropDateTimeEnd) != nil {
		end, err := ev.Props.DateTime(ical.PropDateTimeEnd, time.UTC)
		if err != nil {
			return time.Time{}, fmt.Errorf("DTEND: %w", err)
		}
		return end, nil
	}
	if prop := ev.Props.Get(ical.PropDuration); prop != nil {
		d, err := prop.Duration()
		if err != nil {
			return time.Time{}, fmt.Errorf("DURATION: %w", err)
		}
		return start.Add(d), nil
	}
	if prop := ev.Props.Get(ical.PropDateTimeStart); prop.ValueType() == ical.ValueDate {
		return start.AddDate(0, 0, 1), nil
	}
	return start.Add(time.Hour), nil
}
