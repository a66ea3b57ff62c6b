// Package ledger provides an immutable, date-indexed view over a kid's
// monetary entries.
package ledger

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"pocketmoney/internal/core"
)

// Index answers "balance up to date D" over a snapshot of ledger entries.
// It is safe for concurrent use because it is never mutated after New.
type Index struct {
	days        []core.Date // distinct entry dates, ascending
	cumulative  []decimal.Decimal
	byDay       map[core.Date][]core.LedgerEntry
	quarantined []*core.MalformedDateError
	unreadable  []*core.UnreadableRecordError
	count       int
}

// DayTotals splits one day's movements into money in and money out.
type DayTotals struct {
	Date     core.Date       `json:"date"`
	MoneyIn  decimal.Decimal `json:"moneyIn"`
	MoneyOut decimal.Decimal `json:"moneyOut"` // non-positive
	Net      decimal.Decimal `json:"net"`
}

// New builds an index from raw store records. Records whose date does not
// parse are excluded and reported by Quarantined, records a source could not
// read by Unreadable. Valid records sharing an id are counted once; the first
// one wins.
func New(records []core.LedgerRecord) *Index {
	idx := &Index{byDay: make(map[core.Date][]core.LedgerEntry)}
	seen := make(map[string]struct{}, len(records))

	for _, r := range records {
		if _, dup := seen[r.ID]; dup && r.ID != "" {
			continue
		}
		e, err := r.Entry()
		if err != nil {
			var (
				mde *core.MalformedDateError
				ure *core.UnreadableRecordError
			)
			switch {
			case errors.As(err, &ure):
				idx.unreadable = append(idx.unreadable, ure)
			case errors.As(err, &mde):
				idx.quarantined = append(idx.quarantined, mde)
			}
			continue
		}
		if r.ID != "" {
			seen[r.ID] = struct{}{}
		}
		idx.byDay[e.EntryDate] = append(idx.byDay[e.EntryDate], e)
		idx.count++
	}

	idx.days = make([]core.Date, 0, len(idx.byDay))
	for d := range idx.byDay {
		idx.days = append(idx.days, d)
	}
	sort.Slice(idx.days, func(i, j int) bool { return idx.days[i].Before(idx.days[j]) })

	idx.cumulative = make([]decimal.Decimal, len(idx.days))
	running := decimal.Zero
	for i, d := range idx.days {
		for _, e := range idx.byDay[d] {
			running = running.Add(e.Amount)
		}
		idx.cumulative[i] = running
	}
	return idx
}

// FromEntries builds an index from already-typed entries.
func FromEntries(entries []core.LedgerEntry) *Index {
	records := make([]core.LedgerRecord, len(entries))
	for i, e := range entries {
		records[i] = core.RecordOf(e)
	}
	return New(records)
}

// BalanceAsOf returns the sum of all entries dated on or before d.
func (x *Index) BalanceAsOf(d core.Date) decimal.Decimal {
	// first day strictly after d
	i := sort.Search(len(x.days), func(i int) bool { return x.days[i].After(d) })
	if i == 0 {
		return decimal.Zero
	}
	return x.cumulative[i-1]
}

// EntriesOn returns a copy of the entries dated d.
func (x *Index) EntriesOn(d core.Date) []core.LedgerEntry {
	entries := x.byDay[d]
	out := make([]core.LedgerEntry, len(entries))
	copy(out, entries)
	return out
}

// TotalsOn returns the money-in/money-out split for d.
func (x *Index) TotalsOn(d core.Date) DayTotals {
	t := DayTotals{Date: d, MoneyIn: decimal.Zero, MoneyOut: decimal.Zero}
	for _, e := range x.byDay[d] {
		if e.Amount.IsNegative() {
			t.MoneyOut = t.MoneyOut.Add(e.Amount)
		} else {
			t.MoneyIn = t.MoneyIn.Add(e.Amount)
		}
	}
	t.Net = t.MoneyIn.Add(t.MoneyOut)
	return t
}

// Quarantined returns the records excluded because of malformed dates.
func (x *Index) Quarantined() []*core.MalformedDateError {
	out := make([]*core.MalformedDateError, len(x.quarantined))
	copy(out, x.quarantined)
	return out
}

// Unreadable returns the records excluded because a field could not be read.
func (x *Index) Unreadable() []*core.UnreadableRecordError {
	out := make([]*core.UnreadableRecordError, len(x.unreadable))
	copy(out, x.unreadable)
	return out
}

// Len returns the number of indexed entries.
func (x *Index) Len() int {
	return x.count
}
