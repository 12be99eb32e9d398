package core

// UncategorizedName is the bucket for occurrences without a category name.
const UncategorizedName = "Sem Categoria"

// Group is one aggregation bucket: the member occurrences and their exact
// total under a shared key (category name or responsible).
type Group struct {
	Name        string
	Total       Money
	Occurrences []Occurrence
}

// ActiveInstallment is an installment purchase with an installment due in a
// given calendar month, tagged with that installment's 1-based index.
type ActiveInstallment struct {
	Expense            Expense
	CurrentInstallment int
	DueDate            Date
}

// OccurrencesInMonth expands a snapshot of expenses and keeps the
// occurrences dated inside the calendar month, newest first. This is the
// input set for the monthly aggregations and the month ledger view.
func OccurrencesInMonth(expenses []Expense, year, month int) []Occurrence {
	period := Period{Start: MonthStart(year, month), End: MonthEnd(year, month)}
	var kept []Occurrence
	for _, e := range expenses {
		for _, o := range Expand(e) {
			if period.Contains(o.Date) {
				kept = append(kept, o)
			}
		}
	}
	sortByDateDesc(kept)
	return kept
}

// AggregateByCategory groups occurrences by category name. Buckets appear
// in first-encounter order, not sorted; consumers needing a chart order
// sort explicitly. An empty input yields an empty result, never a spurious
// uncategorized bucket.
func AggregateByCategory(occurrences []Occurrence) []Group {
	return aggregate(occurrences, func(o Occurrence) string {
		if o.Category.Name == "" {
			return UncategorizedName
		}
		return o.Category.Name
	})
}

// AggregateByResponsible groups occurrences by the responsible person, with
// the same bucket shape and ordering rules as AggregateByCategory.
func AggregateByResponsible(occurrences []Occurrence) []Group {
	return aggregate(occurrences, func(o Occurrence) string {
		return o.Responsible
	})
}

func aggregate(occurrences []Occurrence, keyOf func(Occurrence) string) []Group {
	var groups []Group
	index := make(map[string]int)
	for _, o := range occurrences {
		key := keyOf(o)
		i, seen := index[key]
		if !seen {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Name: key})
		}
		groups[i].Total = groups[i].Total.Add(o.Value)
		groups[i].Occurrences = append(groups[i].Occurrences, o)
	}
	return groups
}

// Responsibles returns the values for the "filter by responsible" selector:
// the ResponsibleAll sentinel followed by the distinct responsible strings
// seen in the occurrences, in first-encounter order.
func Responsibles(occurrences []Occurrence) []string {
	names := []string{ResponsibleAll}
	seen := make(map[string]bool)
	for _, o := range occurrences {
		if !seen[o.Responsible] {
			seen[o.Responsible] = true
			names = append(names, o.Responsible)
		}
	}
	return names
}

// ActiveInstallments lists the installment purchases with an installment
// due in the calendar month, each tagged with the due installment's index.
// At most one installment of a purchase falls in any month.
func ActiveInstallments(expenses []Expense, year, month int) []ActiveInstallment {
	period := Period{Start: MonthStart(year, month), End: MonthEnd(year, month)}
	var active []ActiveInstallment
	for _, e := range expenses {
		if !e.IsInstallment {
			continue
		}
		for _, o := range Expand(e) {
			if period.Contains(o.Date) {
				active = append(active, ActiveInstallment{
					Expense:            e,
					CurrentInstallment: o.InstallmentIndex,
					DueDate:            o.Date,
				})
				break
			}
		}
	}
	return active
}

// SplitBySource partitions occurrences into debit/cash and card purchases.
func SplitBySource(occurrences []Occurrence) (debit, card []Occurrence) {
	for _, o := range occurrences {
		if o.Card == nil {
			debit = append(debit, o)
		} else {
			card = append(card, o)
		}
	}
	return debit, card
}
