package ledger

import (
	"testing"

	"github.com/shopspring/decimal"

	"pocketmoney/internal/core"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func record(id, date, amount string, kind core.LedgerKind) core.LedgerRecord {
	return core.LedgerRecord{ID: id, KidID: "kid", EntryDate: date, Amount: dec(amount), Kind: kind, Narrative: id}
}

func TestBalanceAsOf(t *testing.T) {
	idx := New([]core.LedgerRecord{
		record("start", "2025-01-01", "50.00", core.StartingBalance),
		record("gift", "2025-01-05", "10.00", core.Deposit),
		record("candy", "2025-01-05", "-2.50", core.Withdrawal),
		record("toy", "2025-01-20", "-15.00", core.Withdrawal),
	})

	tests := []struct {
		date string
		want string
	}{
		{"2024-12-31", "0"},
		{"2025-01-01", "50"},
		{"2025-01-04", "50"},
		{"2025-01-05", "57.5"},
		{"2025-01-19", "57.5"},
		{"2025-01-20", "42.5"},
		{"2025-03-01", "42.5"},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			d, _ := core.ParseDate(tt.date)
			if got := idx.BalanceAsOf(d); !got.Equal(dec(tt.want)) {
				t.Errorf("BalanceAsOf(%s) = %s, want %s", tt.date, got, tt.want)
			}
		})
	}
}

func TestBalanceMonotonicWithDepositsOnly(t *testing.T) {
	var records []core.LedgerRecord
	for day := 1; day <= 28; day += 3 {
		records = append(records, record(
			core.NewDate(2025, 2, day).String(),
			core.NewDate(2025, 2, day).String(),
			decimal.NewFromInt(int64(day)).Div(decimal.NewFromInt(4)).String(),
			core.Deposit,
		))
	}
	idx := New(records)

	prev := decimal.Zero
	for d := core.NewDate(2025, 1, 30); !d.After(core.NewDate(2025, 3, 2)); d = d.AddDays(1) {
		got := idx.BalanceAsOf(d)
		if got.LessThan(prev) {
			t.Fatalf("balance decreased on %s: %s < %s", d, got, prev)
		}
		prev = got
	}
}

func TestMalformedDatesAreQuarantined(t *testing.T) {
	idx := New([]core.LedgerRecord{
		record("ok", "2025-01-01", "5", core.Deposit),
		record("bad", "01/02/2025", "100", core.Deposit),
		record("empty", "", "100", core.Deposit),
	})
	if got := idx.BalanceAsOf(core.NewDate(2030, 1, 1)); !got.Equal(dec("5")) {
		t.Fatalf("malformed entries leaked into balance: %s", got)
	}
	q := idx.Quarantined()
	if len(q) != 2 {
		t.Fatalf("quarantined = %d, want 2", len(q))
	}
	if q[0].RecordID != "bad" || q[0].Raw != "01/02/2025" {
		t.Fatalf("unexpected quarantine record: %+v", q[0])
	}
	if idx.Len() != 1 {
		t.Fatalf("Len = %d, want 1", idx.Len())
	}
}

func TestDuplicateIDsCountedOnce(t *testing.T) {
	idx := New([]core.LedgerRecord{
		record("dup", "2025-01-01", "5", core.Deposit),
		record("dup", "2025-01-01", "5", core.Deposit),
	})
	if got := idx.BalanceAsOf(core.NewDate(2025, 1, 1)); !got.Equal(dec("5")) {
		t.Fatalf("duplicate counted twice: %s", got)
	}
}

func TestCorrectedRowReplacesMalformedDuplicate(t *testing.T) {
	idx := New([]core.LedgerRecord{
		record("row-4", "2025-13-01", "7", core.Deposit),
		record("row-4", "2025-01-13", "7", core.Deposit),
		record("row-4", "2025-01-14", "7", core.Deposit),
	})
	if got := idx.BalanceAsOf(core.NewDate(2025, 1, 31)); !got.Equal(dec("7")) {
		t.Fatalf("balance = %s, want 7", got)
	}
	if len(idx.Quarantined()) != 1 || idx.Len() != 1 {
		t.Fatalf("quarantined = %d, len = %d", len(idx.Quarantined()), idx.Len())
	}
}

func TestUnreadableRecordsAreExcluded(t *testing.T) {
	bad := record("x1", "2025-01-02", "0", "")
	bad.Unreadable = &core.UnreadableRecordError{Kind: "ledger_entry", RecordID: "x1", Field: "Amount", Raw: "abc", Err: core.ErrInvalidAmount}
	idx := New([]core.LedgerRecord{
		record("ok", "2025-01-01", "5", core.Deposit),
		bad,
	})
	if got := idx.BalanceAsOf(core.NewDate(2025, 1, 31)); !got.Equal(dec("5")) {
		t.Fatalf("balance = %s, want 5", got)
	}
	u := idx.Unreadable()
	if len(u) != 1 || u[0].RecordID != "x1" {
		t.Fatalf("unreadable = %+v", u)
	}
	if len(idx.Quarantined()) != 0 {
		t.Fatalf("unreadable record also quarantined: %+v", idx.Quarantined())
	}
}

func TestEntriesOnAndTotals(t *testing.T) {
	day := core.NewDate(2025, 1, 5)
	idx := New([]core.LedgerRecord{
		record("gift", "2025-01-05", "10.00", core.Deposit),
		record("candy", "2025-01-05", "-2.50", core.Withdrawal),
		record("other", "2025-01-06", "1.00", core.Deposit),
	})

	entries := idx.EntriesOn(day)
	if len(entries) != 2 {
		t.Fatalf("EntriesOn = %d entries, want 2", len(entries))
	}
	entries[0].Amount = dec("999")
	if again := idx.EntriesOn(day); again[0].Amount.Equal(dec("999")) {
		t.Fatalf("EntriesOn exposed internal state")
	}

	totals := idx.TotalsOn(day)
	if !totals.MoneyIn.Equal(dec("10")) || !totals.MoneyOut.Equal(dec("-2.5")) || !totals.Net.Equal(dec("7.5")) {
		t.Fatalf("TotalsOn = %+v", totals)
	}
	if empty := idx.TotalsOn(core.NewDate(2025, 1, 1)); !empty.Net.IsZero() {
		t.Fatalf("empty day totals = %+v", empty)
	}
}

func TestFromEntries(t *testing.T) {
	idx := FromEntries([]core.LedgerEntry{
		{ID: "a", EntryDate: core.NewDate(2025, 1, 1), Amount: dec("3")},
		{ID: "b", EntryDate: core.NewDate(2025, 1, 2), Amount: dec("4")},
	})
	if got := idx.BalanceAsOf(core.NewDate(2025, 1, 2)); !got.Equal(dec("7")) {
		t.Fatalf("BalanceAsOf = %s", got)
	}
}
