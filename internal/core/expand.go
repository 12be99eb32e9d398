package core

// Expand produces the occurrence list an expense contributes to the ledger.
//
// A plain expense yields exactly one occurrence on its own date, valued at
// its total. An installment purchase yields InstallmentCount occurrences,
// one per month starting at the purchase date, each valued at the
// per-installment amount; month stepping clamps the day (a purchase on
// Jan 31 falls due on Feb 28/29, then Mar 31).
//
// The result is a pure function of the expense: re-expanding always yields
// the same list. Invalid installment data is rejected by Expense.Validate
// before an expense ever reaches this point.
func Expand(e Expense) []Occurrence {
	base := Occurrence{
		ExpenseID:        e.ID,
		Name:             e.Name,
		Note:             e.Note,
		Date:             e.Date,
		Value:            e.Value,
		InstallmentIndex: 1,
		InstallmentCount: 1,
		Responsible:      e.Responsible,
		Category:         e.Category,
		Card:             e.Card,
	}
	if !e.IsInstallment {
		return []Occurrence{base}
	}

	occurrences := make([]Occurrence, 0, e.InstallmentCount)
	for k := 1; k <= e.InstallmentCount; k++ {
		o := base
		o.Date = AddMonths(e.Date, k-1)
		o.Value = e.InstallmentValue
		o.InstallmentIndex = k
		o.InstallmentCount = e.InstallmentCount
		occurrences = append(occurrences, o)
	}
	return occurrences
}
