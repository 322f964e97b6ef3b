// Package icsfeed converts schedule rows to and from iCalendar.
package icsfeed

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/emersion/go-ical"

	"github.com/sikong32/mytodo/internal/domain"
	"github.com/sikong32/mytodo/internal/recurrence"
)

const ProductID = "-//mytodo//Schedule Feed//EN"

type EncodeOptions struct {
	// Expander bounds RRULEs with UNTIL at the expansion horizon.
	Expander *recurrence.Expander
	// Now is written as DTSTAMP.
	Now time.Time
}

// Encode writes defs as a VCALENDAR. A series carries an EXDATE for every
// occurrence overridden by an exception row; non-cancelled exception rows
// follow as standalone events.
func Encode(w io.Writer, defs []domain.EventDefinition, opts EncodeOptions) error {
	if opts.Expander == nil {
		opts.Expander = recurrence.NewExpander()
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	exdates := make(map[string][]time.Time)
	for _, def := range defs {
		if def.IsException() {
			exdates[def.SeriesID] = append(exdates[def.SeriesID], def.ExceptionDate.UTC())
		}
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)

	for _, def := range defs {
		if def.Cancelled {
			continue
		}
		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, def.ID)
		event.Props.SetDateTime(ical.PropDateTimeStamp, opts.Now.UTC())
		event.Props.SetText(ical.PropSummary, def.Title)
		if def.Description != "" {
			event.Props.SetText(ical.PropDescription, def.Description)
		}
		event.Props.SetDateTime(ical.PropDateTimeStart, def.StartTime.UTC())
		event.Props.SetDateTime(ical.PropDateTimeEnd, def.EndTime.UTC())
		if def.Category != "" {
			event.Props.SetText(ical.PropCategories, string(def.Category))
		}
		if def.Color != "" {
			event.Props.SetText(ical.PropColor, def.Color)
		}

		if rule, ok := opts.Expander.RuleOption(def); ok {
			event.Props.SetRecurrenceRule(rule)
			dates := exdates[def.ID]
			sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
			for _, d := range dates {
				prop := ical.NewProp(ical.PropExceptionDates)
				prop.SetDateTime(d)
				event.Props.Add(prop)
			}
		}
		cal.Children = append(cal.Children, event.Component)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}
