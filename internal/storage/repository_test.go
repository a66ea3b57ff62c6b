package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"pocketmoney/internal/core"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "pocketmoney.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func TestMigrationStatus(t *testing.T) {
	_, path := newTestRepo(t)
	version, dirty, err := MigrationStatus(path)
	if err != nil {
		t.Fatalf("MigrationStatus: %v", err)
	}
	if version != 1 || dirty {
		t.Fatalf("version=%d dirty=%v, want 1/false", version, dirty)
	}
	// Re-running is a no-op.
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second RunMigrations: %v", err)
	}
}

func TestLedgerRoundTripIsExact(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	entries := []core.NewLedgerEntry{
		{EntryDate: core.NewDate(2025, 6, 1), Amount: dec("50.00"), Kind: core.StartingBalance, Narrative: "opening"},
		{EntryDate: core.NewDate(2025, 6, 3), Amount: dec("0.10"), Kind: core.Deposit, Narrative: "found coin"},
		{EntryDate: core.NewDate(2025, 6, 3), Amount: dec("0.20"), Kind: core.Deposit, Narrative: "found coin"},
		{EntryDate: core.NewDate(2025, 6, 4), Amount: dec("7.255"), Kind: core.Withdrawal, Narrative: "comic"},
		{EntryDate: core.NewDate(2025, 5, 31), Amount: dec("1"), Kind: core.Deposit, Narrative: "may"},
	}
	for _, e := range entries {
		if _, err := repo.CreateLedgerEntry(ctx, "ada", e); err != nil {
			t.Fatalf("CreateLedgerEntry: %v", err)
		}
	}

	june := core.Month{Year: 2025, Month: 6}.Range()
	recs, err := repo.FetchLedger(ctx, "ada", &june)
	if err != nil {
		t.Fatalf("FetchLedger: %v", err)
	}
	if len(recs) != 4 {
		t.Fatalf("june records = %d, want 4", len(recs))
	}
	sum := decimal.Zero
	for _, r := range recs {
		sum = sum.Add(r.Amount)
	}
	// 50 + 0.10 + 0.20 - 7.26
	if !sum.Equal(dec("43.04")) {
		t.Fatalf("sum = %s, want 43.04", sum)
	}

	all, err := repo.FetchLedger(ctx, "ada", nil)
	if err != nil || len(all) != 5 {
		t.Fatalf("full ledger = %d, %v", len(all), err)
	}
	if other, _ := repo.FetchLedger(ctx, "bob", nil); len(other) != 0 {
		t.Fatalf("ledger leaked across kids")
	}
}

func TestMalformedLedgerDatesSurviveRangeFilter(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO ledger_entries (id, kid_id, entry_date, amount, kind, narrative) VALUES ('bad', 'ada', '03/06/2025', '5', 'deposit', 'legacy')`)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	june := core.Month{Year: 2025, Month: 6}.Range()
	recs, err := repo.FetchLedger(ctx, "ada", &june)
	if err != nil {
		t.Fatalf("FetchLedger: %v", err)
	}
	if len(recs) != 1 || recs[0].EntryDate != "03/06/2025" {
		t.Fatalf("records = %+v", recs)
	}
}

func TestMonthOverviewQuarantinesMalformedChoreEntries(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	car, err := repo.CreateChore(ctx, core.Chore{KidID: "ada", Name: "Car wash", Type: core.BonusChore, BonusAmount: dec("5"), Active: true})
	if err != nil {
		t.Fatalf("CreateChore: %v", err)
	}
	// One row sorts inside June, the other sorts after it.
	for _, row := range []struct{ id, date string }{
		{"bad-in", "2025-06-05T00:00"},
		{"bad-out", "5/6/2025"},
	} {
		_, err := repo.db.ExecContext(ctx,
			`INSERT INTO chore_entries (id, chore_id, kid_id, entry_date, chore_type, status, amount) VALUES (?, ?, 'ada', ?, 'bonus', 'approved', '5')`,
			row.id, car.ID, row.date)
		if err != nil {
			t.Fatalf("insert %s: %v", row.id, err)
		}
	}

	ov, err := repo.FetchMonthOverview(ctx, "ada", core.Month{Year: 2025, Month: 6})
	if err != nil {
		t.Fatalf("FetchMonthOverview: %v", err)
	}
	if len(ov.Quarantined) != 2 {
		t.Fatalf("quarantined = %+v, want 2", ov.Quarantined)
	}
	ids := map[string]bool{}
	for _, q := range ov.Quarantined {
		ids[q.RecordID] = true
	}
	if !ids["bad-in"] || !ids["bad-out"] {
		t.Errorf("quarantined ids = %v", ids)
	}
	for _, d := range ov.Days {
		if !d.BonusApprovedTotal.IsZero() {
			t.Errorf("%s bonus = %s, want 0", d.Date, d.BonusApprovedTotal)
		}
	}
}

func TestChoreEntryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	daily, err := repo.CreateChore(ctx, core.Chore{KidID: "ada", Name: "Bed", Type: core.DailyChore, Active: true})
	if err != nil {
		t.Fatalf("CreateChore: %v", err)
	}
	bonus, err := repo.CreateChore(ctx, core.Chore{KidID: "ada", Name: "Car wash", Type: core.BonusChore, BonusAmount: dec("2.50"), Active: true})
	if err != nil {
		t.Fatalf("CreateChore: %v", err)
	}
	if _, err := repo.UpsertAllowanceRule(ctx, "ada", dec("120"), core.NewDate(2025, 1, 1)); err != nil {
		t.Fatalf("UpsertAllowanceRule: %v", err)
	}

	day := core.NewDate(2025, 6, 3)
	e1, err := repo.CreateChoreEntry(ctx, "ada", core.NewChoreEntry{ChoreID: daily.ID, EntryDate: day, Status: core.Pending})
	if err != nil {
		t.Fatalf("CreateChoreEntry: %v", err)
	}
	e2, err := repo.CreateChoreEntry(ctx, "ada", core.NewChoreEntry{ChoreID: bonus.ID, EntryDate: day, Status: core.Pending})
	if err != nil {
		t.Fatalf("CreateChoreEntry: %v", err)
	}
	if !e2.Amount.Equal(dec("2.5")) {
		t.Fatalf("bonus amount = %s", e2.Amount)
	}
	if _, err := repo.CreateChoreEntry(ctx, "bob", core.NewChoreEntry{ChoreID: daily.ID, EntryDate: day, Status: core.Pending}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("entry for another kid's chore = %v", err)
	}

	pending, err := repo.FetchPendingApprovals(ctx, "ada", nil)
	if err != nil || len(pending) != 2 {
		t.Fatalf("pending = %d, %v", len(pending), err)
	}
	bonusType := core.BonusChore
	if onlyBonus, _ := repo.FetchPendingApprovals(ctx, "ada", &bonusType); len(onlyBonus) != 1 {
		t.Fatalf("bonus pending = %d", len(onlyBonus))
	}

	if got, err := repo.ApproveChoreEntry(ctx, e1.ID); err != nil || got.Status != core.Approved {
		t.Fatalf("approve: %+v %v", got, err)
	}
	if _, err := repo.ApproveChoreEntry(ctx, e1.ID); err != nil {
		t.Fatalf("second approve: %v", err)
	}
	if _, err := repo.RejectChoreEntry(ctx, e1.ID); !errors.Is(err, core.ErrAlreadyResolved) {
		t.Fatalf("reject approved = %v", err)
	}
	if _, err := repo.ApproveChoreEntry(ctx, e2.ID); err != nil {
		t.Fatalf("approve bonus: %v", err)
	}
	if _, err := repo.ApproveChoreEntry(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("approve missing = %v", err)
	}

	ov, err := repo.FetchMonthOverview(ctx, "ada", core.Month{Year: 2025, Month: 6})
	if err != nil {
		t.Fatalf("FetchMonthOverview: %v", err)
	}
	d := ov.Days[2]
	if d.DailyTotal != 1 || d.DailyDone != 1 || d.PendingCount != 0 || !d.BonusApprovedTotal.Equal(dec("2.5")) {
		t.Fatalf("overview day = %+v", d)
	}
	if ov.Rule == nil || !ov.DailySlice.Equal(dec("4")) {
		t.Fatalf("rule=%v slice=%s", ov.Rule, ov.DailySlice)
	}

	if err := repo.DeleteChoreEntry(ctx, e2.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeleteChoreEntry(ctx, e2.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete = %v", err)
	}
}

func TestAllowanceRuleUpsert(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	if _, err := repo.GetAllowanceRule(ctx, "ada"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("missing rule = %v", err)
	}
	if _, err := repo.UpsertAllowanceRule(ctx, "ada", dec("100"), core.NewDate(2025, 1, 1)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := repo.UpsertAllowanceRule(ctx, "ada", dec("150.50"), core.NewDate(2025, 6, 15)); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	r, err := repo.GetAllowanceRule(ctx, "ada")
	if err != nil {
		t.Fatalf("GetAllowanceRule: %v", err)
	}
	if !r.MonthlyAmount.Equal(dec("150.5")) || r.EffectiveStartDate.String() != "2025-06-15" {
		t.Fatalf("rule = %+v", r)
	}
	if _, err := repo.UpsertAllowanceRule(ctx, "ada", dec("-1"), core.NewDate(2025, 1, 1)); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("negative amount = %v", err)
	}
}
