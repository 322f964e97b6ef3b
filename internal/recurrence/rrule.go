package recurrence

import (
	"github.com/sikong32/mytodo/internal/domain"
	"github.com/teambition/rrule-go"
)

var frequencies = map[domain.Pattern]rrule.Frequency{
	domain.PatternDaily:   rrule.DAILY,
	domain.PatternWeekly:  rrule.WEEKLY,
	domain.PatternMonthly: rrule.MONTHLY,
	domain.PatternYearly:  rrule.YEARLY,
}

// RuleOption describes def as an RFC 5545 rule bounded by the expansion
// horizon. ok is false for definitions that do not recur.
//
// Monthly rules are an approximation for series starting after the 28th:
// RFC 5545 skips months without that day while Expand rolls over into the
// next month.
func (e *Expander) RuleOption(def domain.EventDefinition) (opt *rrule.ROption, ok bool) {
	if !def.Recurs() {
		return nil, false
	}
	return &rrule.ROption{
		Freq:    frequencies[def.RecurringPattern],
		Dtstart: def.StartTime.UTC(),
		Until:   e.Cutoff(def),
	}, true
}

// PatternFromRule maps a parsed rule back onto a pattern. Rules with an
// interval other than one, or frequencies below daily, have no equivalent.
func PatternFromRule(opt *rrule.ROption) (domain.Pattern, bool) {
	if opt == nil || opt.Interval > 1 {
		return domain.PatternNone, false
	}
	for p, f := range frequencies {
		if f == opt.Freq {
			return p, true
		}
	}
	return domain.PatternNone, false
}
