package app

import (
	"context"

	"github.com/sikong32/mytodo/internal/domain"
	"github.com/sikong32/mytodo/internal/reconcile"
)

// RowStore is the generic row store the calendar runs on. Insert assigns
// the id and created_at of the row it returns. Query returns no error for an
// empty result. Delete of a series also removes rows whose series_id points
// at it.
type RowStore interface {
	reconcile.Writer
	Query(ctx context.Context, table domain.Table, filter domain.Filter, order domain.Order) ([]domain.EventDefinition, error)
}

// Transactor is implemented by stores that can run several calls
// atomically.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
