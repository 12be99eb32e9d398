package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message kinds carried on the mirror queue.
const (
	KindUpsert = "upsert"
	KindDelete = "delete"
)

// ExpenseEvent is the change notification published for every expense
// mutation. Upserts carry only the ID; the worker fetches the current row
// from storage. Deletes carry a snapshot of the identifying fields, since
// the row is already gone by the time the worker sees the event.
type ExpenseEvent struct {
	Kind       string    `json:"kind"`
	ID         int64     `json:"id"`
	Name       string    `json:"name,omitempty"`
	Date       string    `json:"date,omitempty"`
	ValueCents int64     `json:"valueCents,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewUpsertEvent creates an event for a created or updated expense.
func NewUpsertEvent(id int64) *ExpenseEvent {
	return &ExpenseEvent{Kind: KindUpsert, ID: id, Timestamp: time.Now()}
}

// NewDeleteEvent creates an event for a removed expense.
func NewDeleteEvent(id int64, name, date string, valueCents int64) *ExpenseEvent {
	return &ExpenseEvent{
		Kind:       KindDelete,
		ID:         id,
		Name:       name,
		Date:       date,
		ValueCents: valueCents,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the event to its wire form.
func (e *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ExpenseEventFromJSON parses an event from its wire form.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var event ExpenseEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	switch event.Kind {
	case KindUpsert, KindDelete:
		return &event, nil
	default:
		return nil, fmt.Errorf("unknown event kind: %q", event.Kind)
	}
}
