package http

import (
	"gastos/internal/core"
)

// JSON views decouple the wire shape from the core types. Money renders as
// a 2-decimal number and Date as YYYY-MM-DD via their own marshalers.

type categoryView struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

type categoryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type cardView struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	ClosingDay int    `json:"closingDay"`
	IsActive   bool   `json:"isActive"`
}

type cardRef struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

// expenseView is one occurrence on the wire: a plain expense, or a single
// installment of a purchase with its 1-based index. Value is the amount
// booked on the occurrence date, while installmentValue repeats the
// per-installment amount for installment purchases.
type expenseView struct {
	ID                 int64       `json:"id"`
	Name               string      `json:"name"`
	Note               string      `json:"note,omitempty"`
	Value              core.Money  `json:"value"`
	Responsible        string      `json:"responsible"`
	Category           categoryRef `json:"category"`
	Card               *cardRef    `json:"card,omitempty"`
	Date               core.Date   `json:"date"`
	IsInstallment      bool        `json:"isInstallment"`
	InstallmentCount   int         `json:"installmentCount,omitempty"`
	InstallmentValue   *core.Money `json:"installmentValue,omitempty"`
	CurrentInstallment int         `json:"currentInstallment,omitempty"`
}

type statementView struct {
	PeriodStart  core.Date     `json:"periodStart"`
	PeriodEnd    core.Date     `json:"periodEnd"`
	ClosingDay   int           `json:"closingDay"`
	Total        core.Money    `json:"total"`
	Gastos       []expenseView `json:"gastos"`
	Responsaveis []string      `json:"responsaveis"`
}

type groupView struct {
	Name  string     `json:"name"`
	Total core.Money `json:"total"`
	Count int        `json:"count"`
}

type summaryView struct {
	Year          int         `json:"year"`
	Month         int         `json:"month"`
	Total         core.Money  `json:"total"`
	DebitTotal    core.Money  `json:"debitTotal"`
	CardTotal     core.Money  `json:"cardTotal"`
	ByCategory    []groupView `json:"byCategory"`
	ByResponsible []groupView `json:"byResponsible"`
}

type contributionView struct {
	ID          int64      `json:"id"`
	GoalID      int64      `json:"goalId"`
	Value       core.Money `json:"value"`
	Responsible string     `json:"responsible"`
	Date        core.Date  `json:"date"`
}

type goalView struct {
	ID            int64              `json:"id"`
	Name          string             `json:"name"`
	TargetValue   core.Money         `json:"targetValue"`
	TargetDate    core.Date          `json:"targetDate"`
	CurrentValue  core.Money         `json:"currentValue"`
	Contributions []contributionView `json:"contributions"`
}

func categoryToView(c core.Category) categoryView {
	return categoryView{ID: c.ID, Name: c.Name, IsActive: c.IsActive}
}

func cardToView(c core.Card) cardView {
	return cardView{ID: c.ID, Name: c.Name, ClosingDay: c.ClosingDay, IsActive: c.IsActive}
}

// expenseToView renders the full purchase row, as returned by mutations.
func expenseToView(e core.Expense) expenseView {
	v := expenseView{
		ID:            e.ID,
		Name:          e.Name,
		Note:          e.Note,
		Value:         e.Value,
		Responsible:   e.Responsible,
		Category:      categoryRef{ID: e.Category.ID, Name: e.Category.Name},
		Date:          e.Date,
		IsInstallment: e.IsInstallment,
	}
	if e.Card != nil {
		v.Card = &cardRef{ID: e.Card.ID, Name: e.Card.Name, IsActive: e.Card.IsActive}
	}
	if e.IsInstallment {
		v.InstallmentCount = e.InstallmentCount
		iv := e.InstallmentValue
		v.InstallmentValue = &iv
	}
	return v
}

func occurrenceToView(o core.Occurrence) expenseView {
	v := expenseView{
		ID:          o.ExpenseID,
		Name:        o.Name,
		Note:        o.Note,
		Value:       o.Value,
		Responsible: o.Responsible,
		Category:    categoryRef{ID: o.Category.ID, Name: o.Category.Name},
		Date:        o.Date,
	}
	if o.Card != nil {
		v.Card = &cardRef{ID: o.Card.ID, Name: o.Card.Name, IsActive: o.Card.IsActive}
	}
	if o.InstallmentCount > 1 {
		v.IsInstallment = true
		v.InstallmentCount = o.InstallmentCount
		iv := o.Value
		v.InstallmentValue = &iv
		v.CurrentInstallment = o.InstallmentIndex
	}
	return v
}

func occurrencesToViews(occurrences []core.Occurrence) []expenseView {
	views := make([]expenseView, 0, len(occurrences))
	for _, o := range occurrences {
		views = append(views, occurrenceToView(o))
	}
	return views
}

func statementToView(s core.Statement) statementView {
	return statementView{
		PeriodStart:  s.Period.Start,
		PeriodEnd:    s.Period.End,
		ClosingDay:   s.Card.ClosingDay,
		Total:        s.Total,
		Gastos:       occurrencesToViews(s.Occurrences),
		Responsaveis: core.Responsibles(s.Occurrences),
	}
}

func groupsToViews(groups []core.Group) []groupView {
	views := make([]groupView, 0, len(groups))
	for _, g := range groups {
		views = append(views, groupView{Name: g.Name, Total: g.Total, Count: len(g.Occurrences)})
	}
	return views
}

func installmentToView(a core.ActiveInstallment) expenseView {
	v := expenseToView(a.Expense)
	v.CurrentInstallment = a.CurrentInstallment
	v.Date = a.DueDate
	if a.Expense.IsInstallment {
		v.Value = a.Expense.InstallmentValue
	}
	return v
}

func contributionToView(c core.Contribution) contributionView {
	return contributionView{
		ID:          c.ID,
		GoalID:      c.GoalID,
		Value:       c.Value,
		Responsible: c.Responsible,
		Date:        c.Date,
	}
}

func goalToView(g core.Goal) goalView {
	contributions := make([]contributionView, 0, len(g.Contributions))
	for _, c := range g.Contributions {
		contributions = append(contributions, contributionToView(c))
	}
	return goalView{
		ID:            g.ID,
		Name:          g.Name,
		TargetValue:   g.TargetValue,
		TargetDate:    g.TargetDate,
		CurrentValue:  g.CurrentValue(),
		Contributions: contributions,
	}
}
