// Package memory is an in-process row store for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/sikong32/mytodo/internal/clock"
	"github.com/sikong32/mytodo/internal/domain"
)

// Store keeps rows per table in maps keyed by id.
type Store struct {
	mu     sync.RWMutex
	clock  clock.Clock
	tables map[domain.Table]map[string]domain.EventDefinition
}

func New(clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Store{
		clock: clk,
		tables: map[domain.Table]map[string]domain.EventDefinition{
			domain.TableSchedules: {},
		},
	}
}

func (s *Store) table(t domain.Table) (map[string]domain.EventDefinition, error) {
	rows, ok := s.tables[t]
	if !ok {
		return nil, fmt.Errorf("unknown table %q", t)
	}
	return rows, nil
}

func (s *Store) Insert(_ context.Context, t domain.Table, row domain.EventDefinition) (domain.EventDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.table(t)
	if err != nil {
		return domain.EventDefinition{}, err
	}
	if row.SeriesID != "" {
		if _, ok := rows[row.SeriesID]; !ok {
			return domain.EventDefinition{}, fmt.Errorf("series %s: %w", row.SeriesID, domain.ErrEventNotFound)
		}
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if _, exists := rows[row.ID]; exists {
		return domain.EventDefinition{}, fmt.Errorf("row %s already exists", row.ID)
	}
	row.CreatedAt = s.clock.Now()
	rows[row.ID] = row
	return row, nil
}

// Update replaces the row. The owner and creation time cannot change.
func (s *Store) Update(_ context.Context, t domain.Table, id string, row domain.EventDefinition) (domain.EventDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.table(t)
	if err != nil {
		return domain.EventDefinition{}, err
	}
	existing, ok := rows[id]
	if !ok {
		return domain.EventDefinition{}, domain.ErrEventNotFound
	}
	row.ID = id
	row.UserID = existing.UserID
	row.CreatedAt = existing.CreatedAt
	rows[id] = row
	return row, nil
}

// Delete removes the row and the exception rows of its series.
func (s *Store) Delete(_ context.Context, t domain.Table, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.table(t)
	if err != nil {
		return err
	}
	if _, ok := rows[id]; !ok {
		return domain.ErrEventNotFound
	}
	delete(rows, id)
	for childID, row := range rows {
		if row.SeriesID == id {
			delete(rows, childID)
		}
	}
	return nil
}

func (s *Store) Query(_ context.Context, t domain.Table, f domain.Filter, o domain.Order) ([]domain.EventDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.table(t)
	if err != nil {
		return nil, err
	}
	out := make([]domain.EventDefinition, 0)
	for _, row := range rows {
		if f.Matches(row) {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if o.Desc {
			return lessBy(o.Field, out[j], out[i])
		}
		return lessBy(o.Field, out[i], out[j])
	})
	return out, nil
}

func lessBy(field domain.OrderField, a, b domain.EventDefinition) bool {
	x, y := a.StartTime, b.StartTime
	if field == domain.OrderCreatedAt {
		x, y = a.CreatedAt, b.CreatedAt
	}
	if !x.Equal(y) {
		return x.Before(y)
	}
	return a.ID < b.ID
}
