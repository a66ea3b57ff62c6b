package core

import (
	"github.com/shopspring/decimal"
)

// Raw records as supplied by a store. Dates are still strings: they are only
// trusted after passing through Entry/Overview at the ingestion boundary.
type (
	LedgerRecord struct {
		ID        string
		KidID     string
		EntryDate string
		Amount    decimal.Decimal
		Kind      LedgerKind
		Narrative string
		Notes     string
		// Unreadable is set by sources that could not read every field.
		Unreadable *UnreadableRecordError
	}

	OverviewRecord struct {
		Date               string
		DailyTotal         int
		DailyDone          int
		PendingCount       int
		BonusApprovedTotal decimal.Decimal
	}
)

// RecordOf converts a typed entry back to its raw form.
func RecordOf(e LedgerEntry) LedgerRecord {
	return LedgerRecord{
		ID:        e.ID,
		KidID:     e.KidID,
		EntryDate: e.EntryDate.String(),
		Amount:    e.Amount,
		Kind:      e.Kind,
		Narrative: e.Narrative,
		Notes:     e.Notes,
	}
}

// Entry parses the record's date. Unreadable records fail with their
// *UnreadableRecordError.
func (r LedgerRecord) Entry() (LedgerEntry, error) {
	if r.Unreadable != nil {
		return LedgerEntry{}, r.Unreadable
	}
	d, err := ParseDate(r.EntryDate)
	if err != nil {
		return LedgerEntry{}, &MalformedDateError{Kind: "ledger_entry", RecordID: r.ID, Raw: r.EntryDate, Err: err}
	}
	return LedgerEntry{
		ID:        r.ID,
		KidID:     r.KidID,
		EntryDate: d,
		Amount:    r.Amount,
		Kind:      r.Kind,
		Narrative: r.Narrative,
		Notes:     r.Notes,
	}, nil
}

// Overview parses the record's date and clamps DailyDone to DailyTotal.
func (r OverviewRecord) Overview() (DailyOverview, error) {
	d, err := ParseDate(r.Date)
	if err != nil {
		return DailyOverview{}, &MalformedDateError{Kind: "day_overview", Raw: r.Date, Err: err}
	}
	done := r.DailyDone
	if done > r.DailyTotal {
		done = r.DailyTotal
	}
	if done < 0 {
		done = 0
	}
	return DailyOverview{
		Date:               d,
		DailyTotal:         r.DailyTotal,
		DailyDone:          done,
		PendingCount:       r.PendingCount,
		BonusApprovedTotal: r.BonusApprovedTotal,
	}, nil
}
