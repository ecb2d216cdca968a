// Package aggregate derives read-only views over the water history and the
// live ledger counter. Everything here is a pure function of the snapshots
// passed in; "today" always reflects the live counter, never a stale history
// entry for the same date.
package aggregate

import (
	"github.com/gymledger/gymledger/internal/domain"
)

// DayAmount is one bar of the weekly chart.
type DayAmount struct {
	Date     domain.DayKey
	LabelKey string
	AmountMl int
}

// Weekly returns the 7 calendar days ending at today, oldest first. Today's
// amount is the live counter; other days come from history or are zero.
func Weekly(history []domain.DailyRecord, snap domain.LedgerSnapshot, today domain.DayKey) []DayAmount {
	byDate := make(map[domain.DayKey]int, len(history)+1)
	for _, record := range history {
		byDate[record.Date] = record.AmountMl
	}
	byDate[today] = snap.CurrentAmountMl

	series := make([]DayAmount, 0, 7)
	for i := 6; i >= 0; i-- {
		date := today.AddDays(-i)
		series = append(series, DayAmount{
			Date:     date,
			LabelKey: date.WeekdayLabelKey(),
			AmountMl: byDate[date],
		})
	}

	return series
}

// Monthly sums every archived day of today's month plus the live counter,
// counting today exactly once even when a stale history entry exists for it.
func Monthly(history []domain.DailyRecord, snap domain.LedgerSnapshot, today domain.DayKey) int {
	total := snap.CurrentAmountMl
	for _, record := range history {
		if record.Date == today {
			continue
		}

		if record.Date.SameMonth(today) {
			total += record.AmountMl
		}
	}

	return total
}

// MaxOf returns the largest amount in the series, floored at the goal so a
// chart scaled by it never drops below the goal line.
func MaxOf(series []DayAmount, goalMl int) int {
	max := goalMl
	for _, d := range series {
		if d.AmountMl > max {
			max = d.AmountMl
		}
	}

	return max
}

// PercentOfGoal returns the goal completion in [0, 1]. A zero or unset goal
// never divides by zero.
func PercentOfGoal(amountMl, goalMl int) float64 {
	if goalMl < 1 {
		goalMl = 1
	}

	p := float64(amountMl) / float64(goalMl)
	if p > 1 {
		p = 1
	}

	return p
}
