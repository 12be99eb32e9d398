package services

import (
	"context"
	"fmt"
	"log/slog"

	"gastos/internal/amqp"
	"gastos/internal/core"
	"gastos/internal/storage"
)

// ExpenseService orchestrates expense mutations across SQLite and AMQP.
// Persistence is authoritative; mirror events are best-effort and never
// fail the request.
type ExpenseService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewExpenseService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *ExpenseService {
	return &ExpenseService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// CreateExpense validates, saves the expense and publishes an upsert event.
func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	created, err := s.storage.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	if err := s.publish(ctx, amqp.NewUpsertEvent(created.ID)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish upsert event",
			"id", created.ID, "error", err)
	}

	return created, nil
}

// UpdateExpense validates and saves the full updated row, then publishes an
// upsert event. Partial updates are merged by the caller before this point.
func (s *ExpenseService) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	if err := s.storage.UpdateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	updated, err := s.storage.GetExpense(ctx, e.ID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("reload expense: %w", err)
	}

	if err := s.publish(ctx, amqp.NewUpsertEvent(updated.ID)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish upsert event",
			"id", updated.ID, "error", err)
	}

	return updated, nil
}

// DeleteExpense removes the expense and publishes a delete event carrying a
// snapshot of the row, since the worker can no longer fetch it.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	e, err := s.storage.GetExpense(ctx, id)
	if err != nil {
		return err
	}

	if err := s.storage.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	event := amqp.NewDeleteEvent(e.ID, e.Name, e.Date.String(), e.Value.Cents)
	if err := s.publish(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete event",
			"id", id, "error", err)
	}

	return nil
}

func (s *ExpenseService) publish(ctx context.Context, event *amqp.ExpenseEvent) error {
	if s.amqpClient == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping event", "kind", event.Kind)
		return nil
	}
	return s.amqpClient.PublishExpenseEvent(ctx, event)
}

// Close closes both storage and AMQP connections.
func (s *ExpenseService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %v", errs)
	}

	return nil
}
