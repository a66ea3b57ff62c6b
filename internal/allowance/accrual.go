// Package allowance turns chore completion into money.
//
// Calculator converts a day's chore overview into an accrual and Project
// composes it with a ledger index into current and projected month totals.
// Everything here is pure: no I/O, no clocks, no hidden state.
package allowance

import (
	"github.com/shopspring/decimal"

	"pocketmoney/internal/core"
)

// Calculator computes daily accruals for one allowance period (usually a
// calendar month).
type Calculator struct {
	period    core.DateRange
	days      int
	rule      *core.AllowanceRule
	slice     decimal.Decimal
	remainder decimal.Decimal
}

// NewCalculator prepares a calculator for period. A nil rule, or a rule that
// only takes effect after the period, yields a zero slice: such periods accrue
// bonuses only.
func NewCalculator(rule *core.AllowanceRule, period core.DateRange) Calculator {
	c := Calculator{
		period:    period,
		days:      period.From.DaysUntil(period.To) + 1,
		slice:     decimal.Zero,
		remainder: decimal.Zero,
	}
	if rule == nil || c.days <= 0 || rule.EffectiveStartDate.After(period.To) {
		return c
	}
	c.rule = rule

	// The slice is truncated so slice*days never exceeds the monthly amount;
	// what is left is paid out at the end of the period.
	c.slice = rule.MonthlyAmount.Div(decimal.NewFromInt(int64(c.days))).Truncate(core.CentPlaces)
	c.remainder = core.MaxAmount(decimal.Zero, rule.MonthlyAmount.Sub(c.slice.Mul(decimal.NewFromInt(int64(c.days)))))
	return c
}

// DailySlice is monthlyAmount / daysInPeriod, truncated to cents.
func (c Calculator) DailySlice() decimal.Decimal { return c.slice }

// Remainder is monthlyAmount - dailySlice*daysInPeriod, never negative.
func (c Calculator) Remainder() decimal.Decimal { return c.remainder }

// Days returns the number of calendar days in the period.
func (c Calculator) Days() int { return c.days }

// SliceFor returns the slice a complete day d earns: zero outside the period
// or before the rule's effective start date.
func (c Calculator) SliceFor(d core.Date) decimal.Decimal {
	if c.rule == nil || !c.period.Contains(d) || d.Before(c.rule.EffectiveStartDate) {
		return decimal.Zero
	}
	return c.slice
}

// DailyAccrual returns the money earned on ov.Date. A complete day earns its
// slice (plus the period remainder on the last day); approved bonuses always
// accrue.
func (c Calculator) DailyAccrual(ov core.DailyOverview) decimal.Decimal {
	accrual := ov.BonusApprovedTotal
	if !ov.Complete() {
		return accrual
	}
	accrual = accrual.Add(c.SliceFor(ov.Date))
	if ov.Date.Equal(c.period.To) && c.rule != nil {
		accrual = accrual.Add(c.remainder)
	}
	return accrual
}

// IngestOverviews parses raw overview records into a by-date map. Records with
// malformed dates are excluded and returned separately; when a date repeats
// the first record wins.
func IngestOverviews(records []core.OverviewRecord) (map[core.Date]core.DailyOverview, []*core.MalformedDateError) {
	byDate := make(map[core.Date]core.DailyOverview, len(records))
	var quarantined []*core.MalformedDateError
	for _, r := range records {
		ov, err := r.Overview()
		if err != nil {
			if mde, ok := err.(*core.MalformedDateError); ok {
				quarantined = append(quarantined, mde)
			}
			continue
		}
		if _, dup := byDate[ov.Date]; dup {
			continue
		}
		byDate[ov.Date] = ov
	}
	return byDate, quarantined
}
