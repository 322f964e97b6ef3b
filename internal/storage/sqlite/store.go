// Package sqlite is a single-file row store for self-hosted installs.
// Times are stored as UTC epoch milliseconds.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/sikong32/mytodo/internal/clock"
	"github.com/sikong32/mytodo/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

const columns = `id, user_id, title, description, start_ms, end_ms, category, color,
is_recurring, recurring_pattern, series_id, exception_ms, cancelled, created_ms`

type Store struct {
	db    *sql.DB
	clock clock.Clock
}

// Open creates or opens the database at path and applies the schema. The
// pool is limited to one connection since SQLite allows a single writer.
func Open(path string, clk clock.Clock) (*Store, error) {
	if clk == nil {
		clk = clock.NewSystem()
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, clock: clk}, nil
}

// Ping reports whether the database file is still usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Insert(ctx context.Context, t domain.Table, row domain.EventDefinition) (domain.EventDefinition, error) {
	if err := checkTable(t); err != nil {
		return domain.EventDefinition{}, err
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	row.CreatedAt = clock.NowMillis(s.clock)

	_, err := s.conn(ctx).ExecContext(ctx, `
INSERT INTO schedules (`+columns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID,
		row.UserID,
		row.Title,
		row.Description,
		row.StartTime.UnixMilli(),
		row.EndTime.UnixMilli(),
		string(row.Category),
		row.Color,
		row.IsRecurring,
		string(patternOrNone(row.RecurringPattern)),
		nullString(row.SeriesID),
		nullMillis(row.ExceptionDate),
		row.Cancelled,
		row.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return domain.EventDefinition{}, mapError("insert schedule", err)
	}
	return s.get(ctx, row.ID)
}

func (s *Store) Update(ctx context.Context, t domain.Table, id string, row domain.EventDefinition) (domain.EventDefinition, error) {
	if err := checkTable(t); err != nil {
		return domain.EventDefinition{}, err
	}
	res, err := s.conn(ctx).ExecContext(ctx, `
UPDATE schedules SET
	title = ?, description = ?, start_ms = ?, end_ms = ?, category = ?, color = ?,
	is_recurring = ?, recurring_pattern = ?, series_id = ?, exception_ms = ?, cancelled = ?
WHERE id = ?`,
		row.Title,
		row.Description,
		row.StartTime.UnixMilli(),
		row.EndTime.UnixMilli(),
		string(row.Category),
		row.Color,
		row.IsRecurring,
		string(patternOrNone(row.RecurringPattern)),
		nullString(row.SeriesID),
		nullMillis(row.ExceptionDate),
		row.Cancelled,
		id,
	)
	if err != nil {
		return domain.EventDefinition{}, mapError("update schedule", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.EventDefinition{}, domain.ErrEventNotFound
	}
	return s.get(ctx, id)
}

func (s *Store) Delete(ctx context.Context, t domain.Table, id string) error {
	if err := checkTable(t); err != nil {
		return err
	}
	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM schedules WHERE id = ?`, id)
	if err != nil {
		return mapError("delete schedule", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

func (s *Store) Query(ctx context.Context, t domain.Table, f domain.Filter, o domain.Order) ([]domain.EventDefinition, error) {
	if err := checkTable(t); err != nil {
		return nil, err
	}
	var (
		where []string
		args  []any
	)
	if f.UserID != "" {
		where, args = append(where, "user_id = ?"), append(args, f.UserID)
	}
	if f.ID != "" {
		where, args = append(where, "id = ?"), append(args, f.ID)
	}
	if f.SeriesID != "" {
		where, args = append(where, "series_id = ?"), append(args, f.SeriesID)
	}

	query := "SELECT " + columns + " FROM schedules"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	col, dir := "start_ms", "ASC"
	if o.Field == domain.OrderCreatedAt {
		col = "created_ms"
	}
	if o.Desc {
		dir = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s, id %s", col, dir, dir)

	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query schedules: %w", err)
	}
	defer rows.Close()

	out := make([]domain.EventDefinition, 0)
	for rows.Next() {
		def, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		out = append(out, def)
	}
	return out, rows.Err()
}

type txKey struct{}

type conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn in one transaction. Store calls made with the context fn
// receives join it.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *Store) conn(ctx context.Context) conn {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}

func (s *Store) get(ctx context.Context, id string) (domain.EventDefinition, error) {
	row := s.conn(ctx).QueryRowContext(ctx, "SELECT "+columns+" FROM schedules WHERE id = ?", id)
	def, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.EventDefinition{}, domain.ErrEventNotFound
	}
	if err != nil {
		return domain.EventDefinition{}, fmt.Errorf("read schedule: %w", err)
	}
	return def, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(r scanner) (domain.EventDefinition, error) {
	var (
		def                       domain.EventDefinition
		category, pattern         string
		startMs, endMs, createdMs int64
		seriesID                  sql.NullString
		exceptionMs               sql.NullInt64
	)
	err := r.Scan(
		&def.ID,
		&def.UserID,
		&def.Title,
		&def.Description,
		&startMs,
		&endMs,
		&category,
		&def.Color,
		&def.IsRecurring,
		&pattern,
		&seriesID,
		&exceptionMs,
		&def.Cancelled,
		&createdMs,
	)
	if err != nil {
		return domain.EventDefinition{}, err
	}
	def.Category = domain.Category(category)
	def.RecurringPattern = domain.Pattern(pattern)
	def.StartTime = time.UnixMilli(startMs).UTC()
	def.EndTime = time.UnixMilli(endMs).UTC()
	def.CreatedAt = time.UnixMilli(createdMs).UTC()
	def.SeriesID = seriesID.String
	if exceptionMs.Valid {
		t := time.UnixMilli(exceptionMs.Int64).UTC()
		def.ExceptionDate = &t
	}
	return def, nil
}

func mapError(op string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
		return fmt.Errorf("%s: series: %w", op, domain.ErrEventNotFound)
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

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}
