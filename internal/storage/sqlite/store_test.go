package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sikong32/mytodo/internal/clock"
	"github.com/sikong32/mytodo/internal/domain"
)

var now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "mytodo.db"), clock.NewFixed(now))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func row(user, title string, start time.Time) domain.EventDefinition {
	return domain.EventDefinition{
		UserID:           user,
		Title:            title,
		StartTime:        start,
		EndTime:          start.Add(time.Hour),
		Category:         domain.CategoryFamily,
		Color:            "#ffc107",
		RecurringPattern: domain.PatternNone,
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mytodo.db")
	s1, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s2.Ping(context.Background()))
	require.NoError(t, s2.Close())
}

func TestStore_RoundTrip(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	start := time.Date(2024, 2, 29, 9, 0, 0, 0, time.UTC)

	in := row("u1", "Leap", start)
	in.IsRecurring = true
	in.RecurringPattern = domain.PatternYearly
	created, err := s.Insert(ctx, domain.TableSchedules, in)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, now, created.CreatedAt)
	assert.True(t, created.StartTime.Equal(start))
	assert.True(t, created.IsRecurring)
	assert.Equal(t, domain.PatternYearly, created.RecurringPattern)
	assert.Nil(t, created.ExceptionDate)

	created.Title = "Leap day"
	updated, err := s.Update(ctx, domain.TableSchedules, created.ID, created)
	require.NoError(t, err)
	assert.Equal(t, "Leap day", updated.Title)

	rows, err := s.Query(ctx, domain.TableSchedules, domain.Filter{UserID: "u1"}, domain.OrderByStart)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, updated, rows[0])
}

func TestStore_CascadeAndErrors(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	series, err := s.Insert(ctx, domain.TableSchedules, row("u1", "Dinner", now))
	require.NoError(t, err)

	exDate := now.AddDate(0, 0, 7)
	ex := row("u1", "Dinner", exDate)
	ex.SeriesID = series.ID
	ex.ExceptionDate = &exDate
	ex.Cancelled = true
	ex, err = s.Insert(ctx, domain.TableSchedules, ex)
	require.NoError(t, err)
	require.NotNil(t, ex.ExceptionDate)
	assert.True(t, ex.ExceptionDate.Equal(exDate))
	assert.True(t, ex.Cancelled)

	orphan := row("u1", "Orphan", now)
	orphan.SeriesID = "missing"
	orphan.ExceptionDate = &now
	_, err = s.Insert(ctx, domain.TableSchedules, orphan)
	assert.ErrorIs(t, err, domain.ErrEventNotFound)

	require.NoError(t, s.Delete(ctx, domain.TableSchedules, series.ID))
	rows, err := s.Query(ctx, domain.TableSchedules, domain.Filter{SeriesID: series.ID}, domain.OrderByStart)
	require.NoError(t, err)
	assert.Empty(t, rows)

	assert.ErrorIs(t, s.Delete(ctx, domain.TableSchedules, series.ID), domain.ErrEventNotFound)
	_, err = s.Update(ctx, domain.TableSchedules, series.ID, series)
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestStore_WithTxRollsBack(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(ctx context.Context) error {
		_, err := s.Insert(ctx, domain.TableSchedules, row("u1", "temp", now))
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	rows, err := s.Query(ctx, domain.TableSchedules, domain.Filter{UserID: "u1"}, domain.OrderByStart)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
