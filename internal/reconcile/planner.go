package reconcile

import (
	"sort"
	"time"

	"github.com/sikong32/mytodo/internal/domain"
	"github.com/sikong32/mytodo/internal/recurrence"
)

// Target is the occurrence a user acted on together with the stored row it
// was expanded from. OccurrenceID may be the bare definition id.
type Target struct {
	OccurrenceID string
	Definition   domain.EventDefinition
	// Exceptions are the exception rows of a series target, cancelled ones
	// included. An all-scope edit moves them along with the series.
	Exceptions []domain.EventDefinition
}

// occurrenceStart returns the original start of the targeted occurrence.
// A bare id on a series targets its first occurrence.
func (t Target) occurrenceStart() time.Time {
	if _, start, ok := recurrence.ParseOccurrenceID(t.OccurrenceID); ok && t.Definition.Recurs() {
		return start
	}
	return t.Definition.StartTime
}

// resolvedID is the definition id named by the occurrence id.
func (t Target) resolvedID() string {
	if t.OccurrenceID == "" {
		return t.Definition.ID
	}
	return recurrence.ResolveDefinitionID(t.OccurrenceID)
}

// Planner turns user actions into mutation plans. It never touches the
// store.
type Planner struct {
	palette  domain.Palette
	expander *recurrence.Expander
}

type PlannerOption func(*Planner)

// WithExpander sets the expander whose zone and horizons series edits are
// computed with. It should be the one occurrences are displayed with.
func WithExpander(e *recurrence.Expander) PlannerOption {
	return func(p *Planner) {
		if e != nil {
			p.expander = e
		}
	}
}

func NewPlanner(palette domain.Palette, opts ...PlannerOption) *Planner {
	if len(palette) == 0 {
		palette = domain.DefaultPalette()
	}
	p := &Planner{palette: palette, expander: recurrence.NewExpander()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PlanCreate validates in and returns a single insert. The id is left empty
// for the store to assign.
func (p *Planner) PlanCreate(userID string, in CreateInput) (domain.MutationPlan, error) {
	def := domain.EventDefinition{
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		StartTime:   in.Start.UTC(),
		EndTime:     in.End.UTC(),
		Category:    in.Category,
		Color:       in.Color,
	}
	if def.Category == "" {
		def.Category = domain.CategoryDefault
	}
	if def.Color == "" {
		def.Color = p.palette.ColorFor(def.Category)
	}
	setPattern(&def, in.Pattern)
	if err := Validate(def); err != nil {
		return nil, err
	}
	return domain.MutationPlan{{Op: domain.OpInsert, Table: domain.TableSchedules, Row: &def}}, nil
}

// PlanEdit reconciles an edit of target. An empty scope means ScopeAll.
//
//   - non-recurring row: update the row itself; scope is ignored.
//   - series, ScopeAll: update the series row. Moving the targeted
//     occurrence shifts the whole series by the same offset. Turning
//     recurrence off keeps only the targeted occurrence.
//   - series, ScopeSingle: insert a standalone exception row for the
//     occurrence; the series row is left untouched.
func (p *Planner) PlanEdit(target Target, patch EventPatch, scope domain.Scope) (domain.MutationPlan, error) {
	if scope == "" {
		scope = domain.ScopeAll
	}
	if !scope.Valid() {
		return nil, domain.ErrUnknownScope
	}
	if pattern, ok := patch.Pattern.Get(); ok && !pattern.Valid() {
		return nil, &domain.ValidationError{Field: "recurring_pattern", Err: domain.ErrUnknownPattern}
	}

	def := target.Definition
	switch {
	case !def.Recurs():
		return p.planRowUpdate(def, patch)
	case scope == domain.ScopeAll:
		return p.planSeriesUpdate(target, patch)
	default:
		return p.planException(target, patch)
	}
}

func (p *Planner) planRowUpdate(def domain.EventDefinition, patch EventPatch) (domain.MutationPlan, error) {
	updated := applyFields(def, patch, p.palette)
	updated.StartTime = patch.Start.OrElse(def.StartTime).UTC()
	updated.EndTime = patch.End.OrElse(def.EndTime).UTC()
	// Exception rows stay single occurrences.
	if pattern, ok := patch.Pattern.Get(); ok && !def.IsException() {
		setPattern(&updated, pattern)
	}
	if err := Validate(updated); err != nil {
		return nil, err
	}
	return update(updated), nil
}

func (p *Planner) planSeriesUpdate(target Target, patch EventPatch) (domain.MutationPlan, error) {
	def := target.Definition
	occStart := target.occurrenceStart()
	newStart := patch.Start.OrElse(occStart)
	newEnd := patch.End.OrElse(newStart.Add(def.Duration()))

	updated := applyFields(def, patch, p.palette)
	if pattern, ok := patch.Pattern.Get(); ok {
		setPattern(&updated, pattern)
	}
	if updated.IsRecurring {
		updated.StartTime = p.anchor(def, updated.RecurringPattern, occStart, newStart)
	} else {
		updated.StartTime = newStart.UTC()
	}
	updated.EndTime = updated.StartTime.Add(newEnd.Sub(newStart))

	if err := Validate(updated); err != nil {
		return nil, err
	}
	plan := update(updated)
	if updated.Recurs() && updated.RecurringPattern == def.RecurringPattern {
		plan = append(plan, p.rekeyExceptions(def, updated, target.Exceptions)...)
	}
	return plan, nil
}

// anchor returns the series start that puts the occurrence originally at
// occStart at newStart. The plain offset is tried first. When it misses,
// because a DST change or a month end lies in between, the series is
// stepped back from newStart by calendar units in the expander's zone.
func (p *Planner) anchor(def domain.EventDefinition, pattern domain.Pattern, occStart, newStart time.Time) time.Time {
	shifted := def.StartTime.Add(newStart.Sub(occStart)).UTC()
	if newStart.Equal(occStart) || pattern != def.RecurringPattern {
		return shifted
	}
	index, ok := occurrenceIndex(p.expander, def, occStart)
	if !ok || p.landsAt(shifted, pattern, index, newStart) {
		return shifted
	}

	start := newStart.In(p.expander.Location())
	for i := 0; i < index; i++ {
		start = recurrence.Step(start, pattern, -1)
	}
	if !p.landsAt(start, pattern, index, newStart) {
		return shifted
	}
	return start.UTC()
}

// landsAt reports whether the index-th occurrence of a series starting at
// start begins at want.
func (p *Planner) landsAt(start time.Time, pattern domain.Pattern, index int, want time.Time) bool {
	t := start.In(p.expander.Location())
	for i := 0; i < index; i++ {
		t = recurrence.Step(t, pattern, 1)
	}
	return t.Equal(want)
}

func occurrenceIndex(e *recurrence.Expander, def domain.EventDefinition, start time.Time) (int, bool) {
	occs, err := e.Expand(def)
	if err != nil {
		return 0, false
	}
	for i, occ := range occs {
		if occ.Start.Equal(start) {
			return i, true
		}
	}
	return 0, false
}

// rekeyExceptions moves the exception rows of a series so each keeps
// pointing at the same occurrence after the series moved. Tombstones move
// entirely; edited rows keep their own times and only change the
// occurrence they replace. Rows whose occurrence no longer exists keep
// their date.
func (p *Planner) rekeyExceptions(before, after domain.EventDefinition, exceptions []domain.EventDefinition) domain.MutationPlan {
	if len(exceptions) == 0 || before.StartTime.Equal(after.StartTime) && before.Duration() == after.Duration() {
		return nil
	}
	oldOccs, _ := p.expander.Expand(before)
	newOccs, _ := p.expander.Expand(after)
	index := make(map[int64]int, len(oldOccs))
	for i, occ := range oldOccs {
		index[occ.Start.UnixMilli()] = i
	}

	// Moving later, rows are updated latest first (and the reverse) so no
	// two rows share an exception date in between.
	later := after.StartTime.After(before.StartTime)
	rows := make([]domain.EventDefinition, 0, len(exceptions))
	for _, ex := range exceptions {
		if ex.ExceptionDate != nil && ex.SeriesID == before.ID {
			rows = append(rows, ex)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if later {
			return rows[i].ExceptionDate.After(*rows[j].ExceptionDate)
		}
		return rows[i].ExceptionDate.Before(*rows[j].ExceptionDate)
	})

	var plan domain.MutationPlan
	for _, ex := range rows {
		i, ok := index[ex.ExceptionDate.UnixMilli()]
		if !ok || i >= len(newOccs) {
			continue
		}
		date := newOccs[i].Start.UTC()
		moved := ex
		moved.ExceptionDate = &date
		if ex.Cancelled {
			moved.StartTime = date
			moved.EndTime = date.Add(after.Duration())
		}
		if date.Equal(*ex.ExceptionDate) && moved.StartTime.Equal(ex.StartTime) && moved.EndTime.Equal(ex.EndTime) {
			continue
		}
		plan = append(plan, update(moved)...)
	}
	return plan
}

func (p *Planner) planException(target Target, patch EventPatch) (domain.MutationPlan, error) {
	def := target.Definition
	occStart := target.occurrenceStart()

	row := applyFields(def, patch, p.palette)
	row.ID = ""
	row.CreatedAt = time.Time{}
	row.IsRecurring = false
	row.RecurringPattern = domain.PatternNone
	row.StartTime = patch.Start.OrElse(occStart).UTC()
	row.EndTime = patch.End.OrElse(row.StartTime.Add(def.Duration())).UTC()
	exDate := occStart.UTC()
	row.ExceptionDate = &exDate
	row.SeriesID = def.ID
	row.Cancelled = false

	if err := Validate(row); err != nil {
		return nil, err
	}
	return domain.MutationPlan{{Op: domain.OpInsert, Table: domain.TableSchedules, Row: &row}}, nil
}

// PlanDelete reconciles a deletion of target. An empty scope means
// ScopeAll, which removes the resolved definition and, through the store's
// cascade, its exception rows.
//
// ScopeSingle on a series occurrence inserts a cancelled exception row so
// the rest of the series survives. Deleting a single exception row turns it
// into a cancelled one, which keeps the original occurrence hidden.
func (p *Planner) PlanDelete(target Target, scope domain.Scope) (domain.MutationPlan, error) {
	if scope == "" {
		scope = domain.ScopeAll
	}
	if !scope.Valid() {
		return nil, domain.ErrUnknownScope
	}

	def := target.Definition
	if scope == domain.ScopeSingle {
		switch {
		case def.Recurs():
			return p.planCancel(target), nil
		case def.IsException():
			cancelled := def
			cancelled.Cancelled = true
			return update(cancelled), nil
		}
	}

	id := target.resolvedID()
	if scope == domain.ScopeAll && def.IsException() {
		id = def.SeriesID
	}
	return domain.MutationPlan{{Op: domain.OpDelete, Table: domain.TableSchedules, ID: id}}, nil
}

func (p *Planner) planCancel(target Target) domain.MutationPlan {
	def := target.Definition
	occStart := target.occurrenceStart().UTC()
	exDate := occStart
	row := domain.EventDefinition{
		UserID:           def.UserID,
		Title:            def.Title,
		Description:      def.Description,
		StartTime:        occStart,
		EndTime:          occStart.Add(def.Duration()),
		Category:         def.Category,
		Color:            def.Color,
		RecurringPattern: domain.PatternNone,
		ExceptionDate:    &exDate,
		SeriesID:         def.ID,
		Cancelled:        true,
	}
	return domain.MutationPlan{{Op: domain.OpInsert, Table: domain.TableSchedules, Row: &row}}
}

func update(def domain.EventDefinition) domain.MutationPlan {
	return domain.MutationPlan{{Op: domain.OpUpdate, Table: domain.TableSchedules, ID: def.ID, Row: &def}}
}
