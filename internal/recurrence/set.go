package recurrence

import (
	"errors"
	"sort"

	"github.com/sikong32/mytodo/internal/domain"
)

// SetResult is the display view of a user's rows.
type SetResult struct {
	Occurrences []domain.Occurrence
	// Degraded lists definitions expanded as single occurrences because
	// their pattern was not recognised.
	Degraded []string
}

// ExpandSet expands every row of a user. Occurrences of a series that an
// exception row overrides are dropped, cancelled exception rows are never
// shown, and only occurrences overlapping w are kept. The result is ordered
// by start, then id.
func (e *Expander) ExpandSet(defs []domain.EventDefinition, w domain.Window) SetResult {
	excluded := make(map[string]map[int64]struct{})
	for _, def := range defs {
		if !def.IsException() {
			continue
		}
		dates, ok := excluded[def.SeriesID]
		if !ok {
			dates = make(map[int64]struct{})
			excluded[def.SeriesID] = dates
		}
		dates[def.ExceptionDate.UnixMilli()] = struct{}{}
	}

	var res SetResult
	for _, def := range defs {
		if def.Cancelled {
			continue
		}
		occs, err := e.Expand(def)
		if errors.Is(err, domain.ErrUnknownPattern) {
			res.Degraded = append(res.Degraded, def.ID)
		}
		skip := excluded[def.ID]
		for _, occ := range occs {
			if occ.IsRecurringInstance {
				if _, ok := skip[occ.Start.UnixMilli()]; ok {
					continue
				}
			}
			if !w.Overlaps(occ.Start, occ.End) {
				continue
			}
			res.Occurrences = append(res.Occurrences, occ)
		}
	}

	sort.SliceStable(res.Occurrences, func(i, j int) bool {
		a, b := res.Occurrences[i], res.Occurrences[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return a.ID < b.ID
	})
	return res
}
