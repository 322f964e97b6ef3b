package app

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/sikong32/mytodo/internal/clock"
	"github.com/sikong32/mytodo/internal/domain"
	"github.com/sikong32/mytodo/internal/icsfeed"
	"github.com/sikong32/mytodo/internal/reconcile"
	"github.com/sikong32/mytodo/internal/recurrence"
)

type CalendarService struct {
	store    RowStore
	clock    clock.Clock
	expander *recurrence.Expander
	planner  *reconcile.Planner
	palette  domain.Palette
	logger   *log.Logger
}

func NewCalendarService(store RowStore, clk clock.Clock, opts ...CalendarServiceOption) *CalendarService {
	svc := &CalendarService{
		store:    store,
		clock:    clk,
		expander: recurrence.NewExpander(),
		palette:  domain.DefaultPalette(),
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	svc.planner = reconcile.NewPlanner(svc.palette, reconcile.WithExpander(svc.expander))
	return svc
}

type CalendarServiceOption func(*CalendarService)

func WithExpander(e *recurrence.Expander) CalendarServiceOption {
	return func(s *CalendarService) {
		if e != nil {
			s.expander = e
		}
	}
}

// WithPalette overrides category colours; categories missing from p keep
// their default colour.
func WithPalette(p domain.Palette) CalendarServiceOption {
	return func(s *CalendarService) {
		s.palette = domain.DefaultPalette().Merge(p)
	}
}

func WithLogger(l *log.Logger) CalendarServiceOption {
	return func(s *CalendarService) {
		if l != nil {
			s.logger = l
		}
	}
}

// CreateEvent stores a new definition. A zero start defaults to the next
// full hour and a zero end to one hour after the start.
func (s *CalendarService) CreateEvent(ctx context.Context, userID string, in reconcile.CreateInput) (domain.EventDefinition, error) {
	if userID == "" {
		return domain.EventDefinition{}, domain.ErrUnauthenticated
	}
	if in.Start.IsZero() {
		in.Start = clock.NextHour(s.clock)
	}
	if in.End.IsZero() {
		in.End = in.Start.Add(time.Hour)
	}

	plan, err := s.planner.PlanCreate(userID, in)
	if err != nil {
		return domain.EventDefinition{}, err
	}
	rows, err := reconcile.Apply(ctx, s.store, plan)
	if err != nil {
		return domain.EventDefinition{}, err
	}
	return rows[0], nil
}

// ListDefinitions returns the stored rows of userID, tombstones included.
func (s *CalendarService) ListDefinitions(ctx context.Context, userID string) ([]domain.EventDefinition, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return s.query(ctx, domain.Filter{UserID: userID})
}

// ListOccurrences expands every row of userID and keeps the occurrences
// overlapping w.
func (s *CalendarService) ListOccurrences(ctx context.Context, userID string, w domain.Window) ([]domain.Occurrence, error) {
	defs, err := s.ListDefinitions(ctx, userID)
	if err != nil {
		return nil, err
	}
	res := s.expander.ExpandSet(defs, w)
	for _, id := range res.Degraded {
		s.logger.Printf("WARN: unknown recurring pattern, showing single occurrence user=%s event_id=%s", userID, id)
	}
	if res.Occurrences == nil {
		return []domain.Occurrence{}, nil
	}
	return res.Occurrences, nil
}

type EditInput struct {
	UserID       string
	OccurrenceID string
	Patch        reconcile.EventPatch
	Scope        domain.Scope
}

// EditOccurrence reconciles an edit of one displayed occurrence and returns
// the rows it wrote. Moving a series also moves its exception rows; on a
// Transactor store the plan is applied atomically.
func (s *CalendarService) EditOccurrence(ctx context.Context, in EditInput) ([]domain.EventDefinition, error) {
	if in.UserID == "" {
		return nil, domain.ErrUnauthenticated
	}
	target, err := s.loadTarget(ctx, in.UserID, in.OccurrenceID)
	if err != nil {
		return nil, err
	}
	plan, err := s.planner.PlanEdit(target, in.Patch, in.Scope)
	if err != nil {
		return nil, err
	}
	var rows []domain.EventDefinition
	err = s.atomically(ctx, func(ctx context.Context) error {
		var applyErr error
		rows, applyErr = reconcile.Apply(ctx, s.store, plan)
		return applyErr
	})
	return rows, err
}

type DeleteInput struct {
	UserID       string
	OccurrenceID string
	Scope        domain.Scope
}

func (s *CalendarService) DeleteOccurrence(ctx context.Context, in DeleteInput) error {
	if in.UserID == "" {
		return domain.ErrUnauthenticated
	}
	target, err := s.loadTarget(ctx, in.UserID, in.OccurrenceID)
	if err != nil {
		return err
	}
	plan, err := s.planner.PlanDelete(target, in.Scope)
	if err != nil {
		return err
	}
	_, err = reconcile.Apply(ctx, s.store, plan)
	return err
}

// ExportICS writes the rows of userID as an iCalendar feed.
func (s *CalendarService) ExportICS(ctx context.Context, userID string, w io.Writer) error {
	defs, err := s.ListDefinitions(ctx, userID)
	if err != nil {
		return err
	}
	return icsfeed.Encode(w, defs, icsfeed.EncodeOptions{
		Expander: s.expander,
		Now:      s.clock.Now(),
	})
}

// ImportICS creates one definition per VEVENT of r and cancels the
// occurrences listed in EXDATE. On a Transactor store the import is all or
// nothing; otherwise events created before a failure are kept.
func (s *CalendarService) ImportICS(ctx context.Context, userID string, r io.Reader) ([]domain.EventDefinition, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	events, err := icsfeed.Decode(r)
	if err != nil {
		return nil, err
	}

	var created []domain.EventDefinition
	err = s.atomically(ctx, func(ctx context.Context) error {
		created = make([]domain.EventDefinition, 0, len(events))
		for _, ev := range events {
			def, err := s.CreateEvent(ctx, userID, ev.Input)
			if err != nil {
				return err
			}
			created = append(created, def)
			if err := s.cancelDates(ctx, userID, def, ev.ExceptionDates); err != nil {
				return err
			}
		}
		return nil
	})
	return created, err
}

func (s *CalendarService) cancelDates(ctx context.Context, userID string, def domain.EventDefinition, dates []time.Time) error {
	for _, d := range dates {
		err := s.DeleteOccurrence(ctx, DeleteInput{
			UserID:       userID,
			OccurrenceID: recurrence.OccurrenceID(def.ID, d),
			Scope:        domain.ScopeSingle,
		})
		if errors.Is(err, domain.ErrEventNotFound) {
			// EXDATE that is not an occurrence within the horizon.
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *CalendarService) atomically(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx, ok := s.store.(Transactor); ok {
		return tx.WithTx(ctx, fn)
	}
	return fn(ctx)
}

// loadTarget resolves an occurrence id to the row it must act on. Ids of
// another user's rows, cancelled rows and starts that are not occurrences
// of the series all report domain.ErrEventNotFound. An occurrence already
// overridden by an exception row resolves to that row.
func (s *CalendarService) loadTarget(ctx context.Context, userID, occurrenceID string) (reconcile.Target, error) {
	if occurrenceID == "" {
		return reconcile.Target{}, domain.ErrInvalidID
	}

	defID, start, suffixed := recurrence.ParseOccurrenceID(occurrenceID)
	def, found, err := s.findRow(ctx, userID, defID)
	if err != nil {
		return reconcile.Target{}, err
	}
	if !found && suffixed {
		// The whole id may be a stored id that happens to contain '_'.
		def, found, err = s.findRow(ctx, userID, occurrenceID)
		if err != nil {
			return reconcile.Target{}, err
		}
		suffixed = false
	}
	if !found || def.Cancelled {
		return reconcile.Target{}, domain.ErrEventNotFound
	}
	if !def.Recurs() {
		if suffixed {
			return reconcile.Target{}, domain.ErrEventNotFound
		}
		return reconcile.Target{OccurrenceID: def.ID, Definition: def}, nil
	}

	if !suffixed {
		start = def.StartTime
		occurrenceID = recurrence.OccurrenceID(def.ID, start)
	} else if !s.isOccurrence(def, start) {
		return reconcile.Target{}, domain.ErrEventNotFound
	}

	exceptions, err := s.query(ctx, domain.Filter{UserID: userID, SeriesID: def.ID})
	if err != nil {
		return reconcile.Target{}, err
	}
	for _, ex := range exceptions {
		if ex.ExceptionDate == nil || !ex.ExceptionDate.Equal(start) {
			continue
		}
		if ex.Cancelled {
			return reconcile.Target{}, domain.ErrEventNotFound
		}
		return reconcile.Target{OccurrenceID: ex.ID, Definition: ex}, nil
	}
	return reconcile.Target{OccurrenceID: occurrenceID, Definition: def, Exceptions: exceptions}, nil
}

func (s *CalendarService) isOccurrence(def domain.EventDefinition, start time.Time) bool {
	if start.Before(def.StartTime) || start.After(s.expander.Cutoff(def)) {
		return false
	}
	occs, _ := s.expander.Expand(def)
	for _, occ := range occs {
		if occ.Start.Equal(start) {
			return true
		}
	}
	return false
}

func (s *CalendarService) findRow(ctx context.Context, userID, id string) (domain.EventDefinition, bool, error) {
	rows, err := s.query(ctx, domain.Filter{UserID: userID, ID: id})
	if errors.Is(err, domain.ErrInvalidID) {
		return domain.EventDefinition{}, false, nil
	}
	if err != nil {
		return domain.EventDefinition{}, false, err
	}
	if len(rows) == 0 {
		return domain.EventDefinition{}, false, nil
	}
	return rows[0], true, nil
}

func (s *CalendarService) query(ctx context.Context, filter domain.Filter) ([]domain.EventDefinition, error) {
	rows, err := s.store.Query(ctx, domain.TableSchedules, filter, domain.OrderByStart)
	if err != nil {
		return nil, &domain.StoreError{Op: domain.OpQuery, Table: domain.TableSchedules, ID: filter.ID, Step: -1, Err: err}
	}
	return rows, nil
}
