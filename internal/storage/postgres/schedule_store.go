// Package postgres is the pgx row store backing the calendar in production.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sikong32/mytodo/internal/domain"
)

const scheduleColumns = `id, user_id, title, description, start_time, end_time, category, color,
is_recurring, recurring_pattern, series_id, exception_date, cancelled, created_at`

type ScheduleStore struct {
	pool *pgxpool.Pool
}

func NewScheduleStore(pool *pgxpool.Pool) *ScheduleStore {
	return &ScheduleStore{pool: pool}
}

// WithTx runs fn in one transaction. Store calls made with the context fn
// receives join it.
func (s *ScheduleStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, s.pool, fn)
}

func (s *ScheduleStore) Insert(ctx context.Context, table domain.Table, row domain.EventDefinition) (domain.EventDefinition, error) {
	if err := checkTable(table); err != nil {
		return domain.EventDefinition{}, err
	}
	const stmt = `
INSERT INTO schedules (user_id, title, description, start_time, end_time, category, color,
	is_recurring, recurring_pattern, series_id, exception_date, cancelled)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING ` + scheduleColumns

	out, err := scanSchedule(s.queryRow(ctx, stmt,
		row.UserID,
		row.Title,
		row.Description,
		row.StartTime,
		row.EndTime,
		row.Category,
		row.Color,
		row.IsRecurring,
		patternOrNone(row.RecurringPattern),
		nullString(row.SeriesID),
		row.ExceptionDate,
		row.Cancelled,
	))
	if err != nil {
		return domain.EventDefinition{}, mapWriteError("insert schedule", err)
	}
	return out, nil
}

// Update replaces every mutable column of the row. The owner and creation
// time are kept.
func (s *ScheduleStore) Update(ctx context.Context, table domain.Table, id string, row domain.EventDefinition) (domain.EventDefinition, error) {
	if err := checkTable(table); err != nil {
		return domain.EventDefinition{}, err
	}
	const stmt = `
UPDATE schedules SET
	title = $2,
	description = $3,
	start_time = $4,
	end_time = $5,
	category = $6,
	color = $7,
	is_recurring = $8,
	recurring_pattern = $9,
	series_id = $10,
	exception_date = $11,
	cancelled = $12
WHERE id = $1
RETURNING ` + scheduleColumns

	out, err := scanSchedule(s.queryRow(ctx, stmt,
		id,
		row.Title,
		row.Description,
		row.StartTime,
		row.EndTime,
		row.Category,
		row.Color,
		row.IsRecurring,
		patternOrNone(row.RecurringPattern),
		nullString(row.SeriesID),
		row.ExceptionDate,
		row.Cancelled,
	))
	if err != nil {
		return domain.EventDefinition{}, mapWriteError("update schedule", err)
	}
	return out, nil
}

// Delete removes the row; exception rows go with it through ON DELETE
// CASCADE.
func (s *ScheduleStore) Delete(ctx context.Context, table domain.Table, id string) error {
	if err := checkTable(table); err != nil {
		return err
	}
	tag, err := s.exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return mapWriteError("delete schedule", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

func (s *ScheduleStore) Query(ctx context.Context, table domain.Table, f domain.Filter, o domain.Order) ([]domain.EventDefinition, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	query, args := buildQuery(f, o)
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("query schedules: %w", err)
	}
	defer rows.Close()

	out := make([]domain.EventDefinition, 0)
	for rows.Next() {
		def, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		out = append(out, def)
	}
	if err := rows.Err(); err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("query schedules: %w", err)
	}
	return out, nil
}

func buildQuery(f domain.Filter, o domain.Order) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		where = append(where, col+" = $"+strconv.Itoa(len(args)))
	}
	if f.UserID != "" {
		add("user_id", f.UserID)
	}
	if f.ID != "" {
		add("id", f.ID)
	}
	if f.SeriesID != "" {
		add("series_id", f.SeriesID)
	}

	var b strings.Builder
	b.WriteString("SELECT " + scheduleColumns + " FROM schedules")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	col := "start_time"
	if o.Field == domain.OrderCreatedAt {
		col = "created_at"
	}
	dir := "ASC"
	if o.Desc {
		dir = "DESC"
	}
	fmt.Fprintf(&b, " ORDER BY %s %s, id %s", col, dir, dir)
	return b.String(), args
}

func scanSchedule(row pgx.Row) (domain.EventDefinition, error) {
	var (
		def      domain.EventDefinition
		seriesID *string
		exDate   *time.Time
	)
	err := row.Scan(
		&def.ID,
		&def.UserID,
		&def.Title,
		&def.Description,
		&def.StartTime,
		&def.EndTime,
		&def.Category,
		&def.Color,
		&def.IsRecurring,
		&def.RecurringPattern,
		&seriesID,
		&exDate,
		&def.Cancelled,
		&def.CreatedAt,
	)
	if err != nil {
		return domain.EventDefinition{}, err
	}
	if seriesID != nil {
		def.SeriesID = *seriesID
	}
	if exDate != nil {
		t := exDate.UTC()
		def.ExceptionDate = &t
	}
	def.StartTime = def.StartTime.UTC()
	def.EndTime = def.EndTime.UTC()
	def.CreatedAt = def.CreatedAt.UTC()
	return def, nil
}

func mapWriteError(op string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return domain.ErrEventNotFound
	case isInvalidUUID(err):
		return domain.ErrInvalidID
	case isForeignKeyViolation(err):
		return fmt.Errorf("%s: series: %w", op, domain.ErrEventNotFound)
	case isUniqueViolation(err):
		return fmt.Errorf("%s: occurrence already has an exception: %w", op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func checkTable(t domain.Table) error {
	if t != domain.TableSchedules {
		return fmt.Errorf("unknown table %q", t)
	}
	return nil
}

func patternOrNone(p domain.Pattern) domain.Pattern {
	if p == "" {
		return domain.PatternNone
	}
	return p
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *ScheduleStore) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return s.pool.Exec(ctx, sql, args...)
}

func (s *ScheduleStore) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return s.pool.QueryRow(ctx, sql, args...)
}

func (s *ScheduleStore) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return s.pool.Query(ctx, sql, args...)
}
