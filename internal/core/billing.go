package core

// Period is a closed interval of calendar days. Statement periods run from
// the day after the previous closing date through the closing date itself.
type Period struct {
	Start Date
	End   Date
}

// Contains reports whether d falls inside the period, both ends inclusive.
func (p Period) Contains(d Date) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// closingDate resolves a card's statement closing date within a month,
// clamping the closing day to the month's length.
func closingDate(card Card, year, month int) Date {
	return NewDate(year, month, ClampDay(year, month, card.ClosingDay))
}

// ResolvePeriod computes the billing period of a card's statement for a
// target year and month. The statement is anchored on its closing date: the
// card's closing day clamped to the target month.
//
// The previous closing is resolved from the card's closing day in the
// previous month rather than by shifting the clamped closing date back;
// shifting would carry February's clamp into January for day-31 cards and
// make adjacent periods overlap. Resolved this way, consecutive months are
// always contiguous and never overlap.
//
// A card closing on the 10th gives March 2024 the period
// 2024-02-11 .. 2024-03-10: a purchase on March 5 belongs to the March
// statement, a purchase on March 15 to April's.
func ResolvePeriod(card Card, year, month int) Period {
	closing := closingDate(card, year, month)
	previousMonth := SubMonths(MonthStart(year, month), 1)
	previousClosing := closingDate(card, previousMonth.Year(), previousMonth.Month())
	return Period{
		Start: AddDays(previousClosing, 1),
		End:   closing,
	}
}

// PreviewUpcomingPeriod computes the period of the statement that will close
// next, relative to an explicit reference date. When the reference day has
// already passed the card's closing day, the upcoming closing is in the
// following month.
//
// This is deliberately a separate operation from ResolvePeriod: it compares
// "today" against the closing day, which only makes sense for the
// next-statement preview, never for historical month queries.
func PreviewUpcomingPeriod(card Card, today Date) Period {
	year, month := today.Year(), today.Month()
	if today.Day() > card.ClosingDay {
		next := AddMonths(MonthStart(year, month), 1)
		year, month = next.Year(), next.Month()
	}
	return ResolvePeriod(card, year, month)
}
