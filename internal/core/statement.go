package core

import "sort"

// Statement is one card's bill for a resolved billing period: the
// occurrences charged to the card inside the period, newest first, and
// their exact total.
type Statement struct {
	Card        Card
	Period      Period
	Occurrences []Occurrence
	Total       Money
}

// ResponsibleAll is the filter sentinel that bypasses responsible filtering.
const ResponsibleAll = "Todos"

// BuildStatement assembles a card's statement for the target year and month
// from a snapshot of expenses. Expenses charged to other cards or to debit
// are ignored; installment purchases contribute only the installments whose
// due date falls inside the billing period.
func BuildStatement(card Card, expenses []Expense, year, month int) Statement {
	period := ResolvePeriod(card, year, month)
	occurrences := occurrencesForCard(card, expenses, period)
	return Statement{
		Card:        card,
		Period:      period,
		Occurrences: occurrences,
		Total:       SumValues(occurrences),
	}
}

// PreviewUpcomingStatement assembles the statement that will close next for
// a card, relative to the given reference date.
func PreviewUpcomingStatement(card Card, expenses []Expense, today Date) Statement {
	period := PreviewUpcomingPeriod(card, today)
	occurrences := occurrencesForCard(card, expenses, period)
	return Statement{
		Card:        card,
		Period:      period,
		Occurrences: occurrences,
		Total:       SumValues(occurrences),
	}
}

func occurrencesForCard(card Card, expenses []Expense, period Period) []Occurrence {
	var kept []Occurrence
	for _, e := range expenses {
		if e.Card == nil || e.Card.ID != card.ID {
			continue
		}
		for _, o := range Expand(e) {
			if period.Contains(o.Date) {
				kept = append(kept, o)
			}
		}
	}
	sortByDateDesc(kept)
	return kept
}

// FilterByResponsible keeps the occurrences whose responsible matches who
// exactly. The ResponsibleAll sentinel returns the input unchanged.
func FilterByResponsible(occurrences []Occurrence, who string) []Occurrence {
	if who == "" || who == ResponsibleAll {
		return occurrences
	}
	var kept []Occurrence
	for _, o := range occurrences {
		if o.Responsible == who {
			kept = append(kept, o)
		}
	}
	return kept
}

// SumValues totals the occurrence values in cents, exact by construction.
func SumValues(occurrences []Occurrence) Money {
	var cents int64
	for _, o := range occurrences {
		cents += o.Value.Cents
	}
	return Money{Cents: cents}
}

func sortByDateDesc(occurrences []Occurrence) {
	sort.SliceStable(occurrences, func(i, j int) bool {
		return occurrences[i].Date.After(occurrences[j].Date)
	})
}
