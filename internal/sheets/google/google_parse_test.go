package google

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"pocketmoney/internal/core"
)

func ledgerSheet() [][]interface{} {
	return [][]interface{}{
		{"Kid", "Date", "Amount", "Kind", "Narrative", "Notes", "ID"},
		{"ada", "2025-06-01", "50,00", "starting_balance", "Opening", "", "s1"},
		{"ada", "2025-06-03", 2.5, "", "Birthday", "grandma", ""},
		{"bob", "2025-06-03", "10", "deposit", "Not ada", "", "b1"},
		{"Ada", "2025-06-04", "4", "withdrawal", "Stickers", "", "w1"},
		{"ada", "04/06/2025", "1", "deposit", "Legacy row", "", "l1"},
		{"ada", "2025-06-05", "abc", "deposit", "Broken amount", "", "x1"},
		{"ada", "2025-06-06", "3", "gift", "Broken kind", "", "x2"},
		{"ada", "2025-07-01", "-1.5"},
	}
}

func TestParseLedgerRows(t *testing.T) {
	recs, err := parseLedgerRows(ledgerSheet(), "ada")
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if len(recs) != 7 {
		t.Fatalf("records = %d, want 7: %+v", len(recs), recs)
	}

	byID := map[string]core.LedgerRecord{}
	for _, r := range recs {
		byID[r.ID] = r
	}
	for _, tt := range []struct {
		id, field string
		want      error
	}{
		{"x1", colAmount, core.ErrInvalidAmount},
		{"x2", colKind, core.ErrInvalidKind},
	} {
		u := byID[tt.id].Unreadable
		if u == nil || u.Field != tt.field || !errors.Is(u, tt.want) {
			t.Fatalf("row %s unreadable = %+v", tt.id, u)
		}
	}
	if byID["s1"].Unreadable != nil {
		t.Fatalf("valid row marked unreadable: %+v", byID["s1"])
	}
	if r := byID["s1"]; !r.Amount.Equal(decimal.RequireFromString("50")) || r.Kind != core.StartingBalance {
		t.Fatalf("comma amount row = %+v", r)
	}
	if r, ok := byID["row-3"]; !ok || r.Kind != core.Deposit || r.Notes != "grandma" {
		t.Fatalf("synthesized id row = %+v", r)
	}
	if r := byID["w1"]; !r.Amount.Equal(decimal.RequireFromString("-4")) {
		t.Fatalf("withdrawal should be negative: %+v", r)
	}
	if r := byID["l1"]; r.EntryDate != "04/06/2025" {
		t.Fatalf("malformed date must be kept raw: %+v", r)
	}
	if r := byID["row-9"]; r.Kind != core.Withdrawal || !r.Amount.Equal(decimal.RequireFromString("-1.5")) {
		t.Fatalf("short row = %+v", r)
	}
}

func TestParseLedgerRowsMissingHeader(t *testing.T) {
	_, err := parseLedgerRows([][]interface{}{{"Kid", "When", "Amount"}}, "ada")
	if err == nil || !strings.Contains(err.Error(), "missing Date") {
		t.Fatalf("err = %v", err)
	}
	recs, err := parseLedgerRows(nil, "ada")
	if err != nil || recs != nil {
		t.Fatalf("empty sheet = %v, %v", recs, err)
	}
}

func TestClientFetchLedgerFiltersRange(t *testing.T) {
	var gotRange string
	c := newClient("sheet-id", "", func(_ context.Context, rng string) ([][]interface{}, error) {
		gotRange = rng
		return ledgerSheet(), nil
	})
	june := core.Month{Year: 2025, Month: 6}.Range()
	recs, err := c.FetchLedger(context.Background(), "ada", &june)
	if err != nil {
		t.Fatalf("FetchLedger: %v", err)
	}
	if gotRange != "Ledger!A:G" {
		t.Fatalf("range = %q", gotRange)
	}
	// July row dropped; malformed and unreadable rows stay to be reported.
	if len(recs) != 6 {
		t.Fatalf("records = %d, want 6", len(recs))
	}
}

func TestClientFetchLedgerError(t *testing.T) {
	c := newClient("sheet-id", "Kids", func(context.Context, string) ([][]interface{}, error) {
		return nil, errors.New("quota exceeded")
	})
	if _, err := c.FetchLedger(context.Background(), "ada", nil); err == nil || !strings.Contains(err.Error(), "Kids!A:G") {
		t.Fatalf("err = %v", err)
	}
}
