package reconcile

import (
	"context"
	"fmt"

	"github.com/sikong32/mytodo/internal/domain"
)

// Writer is the write half of a row store.
type Writer interface {
	Insert(ctx context.Context, table domain.Table, row domain.EventDefinition) (domain.EventDefinition, error)
	Update(ctx context.Context, table domain.Table, id string, row domain.EventDefinition) (domain.EventDefinition, error)
	Delete(ctx context.Context, table domain.Table, id string) error
}

// Apply runs plan against w in order and returns the rows written by inserts
// and updates. The first failure stops the plan; it is returned as a
// *domain.StoreError carrying the failed step. Mutations already applied
// are not rolled back.
func Apply(ctx context.Context, w Writer, plan domain.MutationPlan) ([]domain.EventDefinition, error) {
	var written []domain.EventDefinition
	for i, m := range plan {
		if err := ctx.Err(); err != nil {
			return written, &domain.StoreError{Op: m.Op, Table: m.Table, ID: m.ID, Step: i, Err: err}
		}
		row, err := applyOne(ctx, w, m)
		if err != nil {
			return written, &domain.StoreError{Op: m.Op, Table: m.Table, ID: m.ID, Step: i, Err: err}
		}
		if m.Op != domain.OpDelete {
			written = append(written, row)
		}
	}
	return written, nil
}

func applyOne(ctx context.Context, w Writer, m domain.Mutation) (domain.EventDefinition, error) {
	switch m.Op {
	case domain.OpInsert:
		if m.Row == nil {
			return domain.EventDefinition{}, fmt.Errorf("insert without row")
		}
		return w.Insert(ctx, m.Table, *m.Row)
	case domain.OpUpdate:
		if m.Row == nil {
			return domain.EventDefinition{}, fmt.Errorf("update %s without row", m.ID)
		}
		return w.Update(ctx, m.Table, m.ID, *m.Row)
	case domain.OpDelete:
		return domain.EventDefinition{}, w.Delete(ctx, m.Table, m.ID)
	default:
		return domain.EventDefinition{}, fmt.Errorf("unsupported mutation op %q", m.Op)
	}
}
