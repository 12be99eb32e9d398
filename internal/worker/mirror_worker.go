package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gastos/internal/amqp"
	"gastos/internal/core"
	"gastos/internal/mirror"
	"gastos/internal/storage"
)

// MirrorWorker applies expense change events to the spreadsheet mirror.
// Upserts re-read the row from storage so the mirror always reflects the
// latest state; deletes carry their own snapshot since the row is gone.
type MirrorWorker struct {
	storage   *storage.SQLiteRepository
	mirror    mirror.Mirror
	batchSize int
}

func NewMirrorWorker(storage *storage.SQLiteRepository, m mirror.Mirror, batchSize int) *MirrorWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &MirrorWorker{
		storage:   storage,
		mirror:    m,
		batchSize: batchSize,
	}
}

// HandleEvent processes a single expense event from AMQP.
func (w *MirrorWorker) HandleEvent(ctx context.Context, event *amqp.ExpenseEvent) error {
	slog.InfoContext(ctx, "Processing expense event", "kind", event.Kind, "id", event.ID)

	switch event.Kind {
	case amqp.KindUpsert:
		return w.handleUpsert(ctx, event.ID)
	case amqp.KindDelete:
		return w.handleDelete(ctx, event.ID)
	default:
		return fmt.Errorf("unknown event kind: %q", event.Kind)
	}
}

func (w *MirrorWorker) handleUpsert(ctx context.Context, id int64) error {
	expense, err := w.storage.GetExpense(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		// The expense was deleted after the upsert was queued. The delete
		// event that follows will clean up the mirror.
		slog.WarnContext(ctx, "Expense gone before mirroring, skipping", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	// Remove any stale row first so an update does not duplicate the expense.
	if err := w.mirror.RemoveExpense(ctx, id); err != nil {
		return fmt.Errorf("remove stale mirror row: %w", err)
	}

	ref, err := w.mirror.AppendExpense(ctx, expense)
	if err != nil {
		return fmt.Errorf("append to mirror: %w", err)
	}

	slog.InfoContext(ctx, "Mirrored expense",
		"id", id,
		"ref", ref,
		"name", expense.Name,
		"value_cents", expense.Value.Cents)
	return nil
}

func (w *MirrorWorker) handleDelete(ctx context.Context, id int64) error {
	if err := w.mirror.RemoveExpense(ctx, id); err != nil {
		return fmt.Errorf("remove mirror row: %w", err)
	}
	slog.InfoContext(ctx, "Removed mirrored expense", "id", id)
	return nil
}

// StartupBackfill re-mirrors the current month's expenses at worker startup.
// This recovers from events lost while the worker was down.
func (w *MirrorWorker) StartupBackfill(ctx context.Context, today core.Date) error {
	start := core.MonthStart(today.Year(), today.Month())
	end := core.MonthEnd(today.Year(), today.Month())

	expenses, err := w.storage.ListForPeriod(ctx, start, end, nil)
	if err != nil {
		return fmt.Errorf("list expenses for backfill: %w", err)
	}

	if len(expenses) == 0 {
		slog.InfoContext(ctx, "No expenses to backfill on startup")
		return nil
	}

	slog.InfoContext(ctx, "Backfilling mirror on startup", "count", len(expenses))

	successCount := 0
	errorCount := 0
	for i, e := range expenses {
		if i >= w.batchSize {
			slog.WarnContext(ctx, "Backfill batch limit reached, remainder deferred",
				"limit", w.batchSize, "remaining", len(expenses)-i)
			break
		}
		if err := w.handleUpsert(ctx, e.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to backfill expense", "id", e.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup backfill completed",
		"total", len(expenses),
		"mirrored", successCount,
		"errors", errorCount)
	return nil
}
