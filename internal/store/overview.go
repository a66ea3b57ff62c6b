package store

import (
	"github.com/shopspring/decimal"

	"pocketmoney/internal/allowance"
	"pocketmoney/internal/core"
)

// BuildMonthOverview derives the per-day overview of m from a kid's chore
// catalog and the chore entries dated in m.
//
//   - dailyTotal: active Daily chores
//   - dailyDone: distinct Daily chores with an Approved entry, capped at dailyTotal
//   - pendingCount: Pending entries of any type
//   - bonusApprovedTotal: sum of Approved Bonus entry amounts
func BuildMonthOverview(m core.Month, chores []core.Chore, entries []core.ChoreEntry, rule *core.AllowanceRule) core.MonthOverview {
	dailyTotal := 0
	daily := make(map[string]bool)
	for _, c := range chores {
		if c.Active && c.Type == core.DailyChore {
			dailyTotal++
			daily[c.ID] = true
		}
	}

	type acc struct {
		done    map[string]struct{}
		pending int
		bonus   decimal.Decimal
	}
	byDay := make(map[core.Date]*acc)
	for _, e := range entries {
		if !m.Contains(e.EntryDate) {
			continue
		}
		a := byDay[e.EntryDate]
		if a == nil {
			a = &acc{done: map[string]struct{}{}, bonus: decimal.Zero}
			byDay[e.EntryDate] = a
		}
		switch e.Status {
		case core.Pending:
			a.pending++
		case core.Approved:
			if e.ChoreType == core.DailyChore && daily[e.ChoreID] {
				a.done[e.ChoreID] = struct{}{}
			}
			if e.ChoreType == core.BonusChore {
				a.bonus = a.bonus.Add(e.Amount)
			}
		}
	}

	out := core.MonthOverview{Month: m, Days: make([]core.OverviewRecord, 0, m.Days()), AllowanceAmount: decimal.Zero, Rule: rule}
	for d := m.Start(); !d.After(m.End()); d = d.AddDays(1) {
		rec := core.OverviewRecord{Date: d.String(), DailyTotal: dailyTotal, BonusApprovedTotal: decimal.Zero}
		if a := byDay[d]; a != nil {
			rec.DailyDone = min(len(a.done), dailyTotal)
			rec.PendingCount = a.pending
			rec.BonusApprovedTotal = a.bonus
		}
		out.Days = append(out.Days, rec)
	}

	calc := allowance.NewCalculator(rule, m.Range())
	out.DailySlice = calc.DailySlice()
	if rule != nil {
		out.AllowanceAmount = rule.MonthlyAmount
	}
	return out
}
