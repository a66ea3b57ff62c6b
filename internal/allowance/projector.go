package allowance

import (
	"github.com/shopspring/decimal"

	"pocketmoney/internal/core"
	"pocketmoney/internal/ledger"
)

// Projection is the result of Project for one kid and period.
type Projection struct {
	MonthStart           core.Date          `json:"monthStart"`
	MonthEnd             core.Date          `json:"monthEnd"`
	Cutoff               core.Date          `json:"cutoff"`
	CurrentTotal         decimal.Decimal    `json:"currentTotal"`
	ProjectedTotal       decimal.Decimal    `json:"projectedTotal"`
	AccruedThroughCutoff decimal.Decimal    `json:"accruedThroughCutoff"`
	RemainingDays        int                `json:"remainingDays"`
	DailySlice           decimal.Decimal    `json:"dailySlice"`
	AllowanceRemainder   decimal.Decimal    `json:"allowanceRemainder"`
	Series               []core.SeriesPoint `json:"series"`
}

// Project computes the balance available at cutoff and its projection to
// monthEnd. Dates up to and including cutoff are actual points; later dates
// are projected assuming every remaining day is complete and no bonus is
// earned. Missing overviews accrue nothing.
//
// It fails with *core.InvalidRangeError when monthEnd precedes monthStart or
// cutoff lies outside [monthStart, monthEnd].
func Project(
	monthStart, monthEnd, cutoff core.Date,
	idx *ledger.Index,
	overviews map[core.Date]core.DailyOverview,
	rule *core.AllowanceRule,
) (Projection, error) {
	if err := checkRange(monthStart, monthEnd, cutoff); err != nil {
		return Projection{}, err
	}
	if idx == nil {
		idx = ledger.New(nil)
	}

	calc := NewCalculator(rule, core.DateRange{From: monthStart, To: monthEnd})
	p := Projection{
		MonthStart:         monthStart,
		MonthEnd:           monthEnd,
		Cutoff:             cutoff,
		DailySlice:         calc.DailySlice(),
		AllowanceRemainder: calc.Remainder(),
		Series:             make([]core.SeriesPoint, 0, calc.Days()),
	}

	accrued := decimal.Zero
	for d := monthStart; !d.After(cutoff); d = d.AddDays(1) {
		if ov, ok := overviews[d]; ok {
			accrued = accrued.Add(calc.DailyAccrual(ov))
		}
		actual := idx.BalanceAsOf(d).Add(accrued)
		p.Series = append(p.Series, core.SeriesPoint{Date: d, Actual: &actual})
	}
	p.AccruedThroughCutoff = accrued
	p.CurrentTotal = idx.BalanceAsOf(cutoff).Add(accrued)

	if cutoff.Before(monthEnd) {
		p.RemainingDays = cutoff.DaysUntil(monthEnd)
	}

	projected := p.CurrentTotal
	for d := cutoff.AddDays(1); !d.After(monthEnd); d = d.AddDays(1) {
		projected = projected.Add(calc.SliceFor(d))
		point := projected
		if d.Equal(monthEnd) {
			point = point.Add(p.AllowanceRemainder)
		}
		p.Series = append(p.Series, core.SeriesPoint{Date: d, Projected: &point})
	}

	total := projected
	if p.RemainingDays > 0 {
		total = total.Add(p.AllowanceRemainder)
	}
	p.ProjectedTotal = core.MaxAmount(decimal.Zero, total)
	return p, nil
}

func checkRange(start, end, cutoff core.Date) error {
	switch {
	case start.IsZero() || end.IsZero() || cutoff.IsZero():
		return &core.InvalidRangeError{Start: start, End: end, Cutoff: cutoff, Reason: "missing date"}
	case end.Before(start):
		return &core.InvalidRangeError{Start: start, End: end, Cutoff: cutoff, Reason: "end before start"}
	case cutoff.Before(start) || cutoff.After(end):
		return &core.InvalidRangeError{Start: start, End: end, Cutoff: cutoff, Reason: "cutoff outside range"}
	}
	return nil
}
