package memory

import (
	"context"
	"fmt"
	"sync"

	"gastos/internal/core"
)

// Store is an in-memory mirror used by tests and local runs without
// Google credentials.
type Store struct {
	mu    sync.Mutex
	items map[int64]core.Expense
	order []int64
}

func New() *Store {
	return &Store{items: make(map[int64]core.Expense)}
}

// AppendExpense stores the expense and returns a synthetic row reference.
func (s *Store) AppendExpense(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[e.ID]; !ok {
		s.order = append(s.order, e.ID)
	}
	s.items[e.ID] = e
	return fmt.Sprintf("mem:%d", e.ID), nil
}

// RemoveExpense drops the stored expense. Unknown IDs are ignored, matching
// the real mirror's tolerance for rows that were never written.
func (s *Store) RemoveExpense(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return nil
	}
	delete(s.items, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Expenses returns the mirrored expenses in append order.
func (s *Store) Expenses() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}
