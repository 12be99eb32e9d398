package services

import (
	"context"
	"fmt"

	"gastos/internal/core"
	"gastos/internal/storage"
)

// GoalService manages savings goals and their contributions. A goal's
// current value is always derived from its live contributions on read.
type GoalService struct {
	storage *storage.SQLiteRepository
}

func NewGoalService(storage *storage.SQLiteRepository) *GoalService {
	return &GoalService{storage: storage}
}

func (s *GoalService) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	created, err := s.storage.CreateGoal(ctx, g)
	if err != nil {
		return core.Goal{}, fmt.Errorf("save goal: %w", err)
	}
	return created, nil
}

func (s *GoalService) ListGoals(ctx context.Context) ([]core.Goal, error) {
	return s.storage.ListGoals(ctx)
}

func (s *GoalService) DeleteGoal(ctx context.Context, id int64) error {
	return s.storage.DeleteGoal(ctx, id)
}

// AddContribution records a deposit and returns the refreshed goal so the
// caller sees the recomputed current value.
func (s *GoalService) AddContribution(ctx context.Context, c core.Contribution) (core.Contribution, core.Goal, error) {
	if c.Responsible == "" {
		c.Responsible = core.DefaultResponsible
	}
	if c.Date.IsZero() {
		c.Date = core.Today()
	}
	if err := c.Validate(); err != nil {
		return core.Contribution{}, core.Goal{}, err
	}

	created, err := s.storage.AddContribution(ctx, c)
	if err != nil {
		return core.Contribution{}, core.Goal{}, err
	}

	goal, err := s.storage.GetGoal(ctx, c.GoalID)
	if err != nil {
		return core.Contribution{}, core.Goal{}, fmt.Errorf("reload goal: %w", err)
	}
	return created, goal, nil
}

func (s *GoalService) DeleteContribution(ctx context.Context, id int64) error {
	return s.storage.DeleteContribution(ctx, id)
}
