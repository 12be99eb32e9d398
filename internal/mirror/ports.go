package mirror

import (
	"context"

	"gastos/internal/core"
)

// Ports for outbound mirror adapters.
type (
	// RowAppender writes one expense as a row in the mirror.
	RowAppender interface {
		AppendExpense(ctx context.Context, e core.Expense) (rowRef string, err error)
	}

	// RowRemover removes the mirrored row for an expense by its ID.
	RowRemover interface {
		RemoveExpense(ctx context.Context, id int64) error
	}

	// Mirror is the full outbound surface the worker depends on.
	Mirror interface {
		RowAppender
		RowRemover
	}
)
