package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"pocketmoney/internal/core"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedChores(t *testing.T, s *Store) (daily1, daily2, bonus core.Chore) {
	t.Helper()
	ctx := context.Background()
	var err error
	if daily1, err = s.CreateChore(ctx, core.Chore{KidID: "ada", Name: "Bed", Type: core.DailyChore, Active: true}); err != nil {
		t.Fatalf("create chore: %v", err)
	}
	if daily2, err = s.CreateChore(ctx, core.Chore{KidID: "ada", Name: "Dishes", Type: core.DailyChore, Active: true}); err != nil {
		t.Fatalf("create chore: %v", err)
	}
	if bonus, err = s.CreateChore(ctx, core.Chore{KidID: "ada", Name: "Car wash", Type: core.BonusChore, BonusAmount: dec("2.50"), Active: true}); err != nil {
		t.Fatalf("create chore: %v", err)
	}
	return
}

func TestMonthOverviewDerivation(t *testing.T) {
	ctx := context.Background()
	s := New()
	daily1, daily2, bonus := seedChores(t, s)
	if _, err := s.UpsertAllowanceRule(ctx, "ada", dec("120"), core.NewDate(2025, 1, 1)); err != nil {
		t.Fatalf("upsert rule: %v", err)
	}

	day := core.NewDate(2025, 6, 3)
	mustEntry := func(choreID string, status core.ChoreStatus) core.ChoreEntry {
		t.Helper()
		e, err := s.CreateChoreEntry(ctx, "ada", core.NewChoreEntry{ChoreID: choreID, EntryDate: day, Status: status})
		if err != nil {
			t.Fatalf("create entry: %v", err)
		}
		return e
	}
	mustEntry(daily1.ID, core.Approved)
	mustEntry(daily1.ID, core.Approved) // same chore twice counts once
	mustEntry(daily2.ID, core.Pending)
	b := mustEntry(bonus.ID, core.Approved)
	if !b.Amount.Equal(dec("2.5")) || b.ChoreType != core.BonusChore {
		t.Fatalf("bonus entry = %+v", b)
	}

	ov, err := s.FetchMonthOverview(ctx, "ada", core.Month{Year: 2025, Month: 6})
	if err != nil {
		t.Fatalf("FetchMonthOverview: %v", err)
	}
	if len(ov.Days) != 30 {
		t.Fatalf("days = %d, want 30", len(ov.Days))
	}
	got := ov.Days[2]
	if got.Date != "2025-06-03" || got.DailyTotal != 2 || got.DailyDone != 1 || got.PendingCount != 1 {
		t.Fatalf("day overview = %+v", got)
	}
	if !got.BonusApprovedTotal.Equal(dec("2.5")) {
		t.Fatalf("bonus total = %s", got.BonusApprovedTotal)
	}
	if !ov.DailySlice.Equal(dec("4")) || !ov.AllowanceAmount.Equal(dec("120")) || ov.Rule == nil {
		t.Fatalf("allowance = %s slice = %s rule = %v", ov.AllowanceAmount, ov.DailySlice, ov.Rule)
	}
}

func TestTransitions(t *testing.T) {
	ctx := context.Background()
	s := New()
	daily, _, _ := seedChores(t, s)
	e, err := s.CreateChoreEntry(ctx, "ada", core.NewChoreEntry{ChoreID: daily.ID, EntryDate: core.NewDate(2025, 6, 1), Status: core.Pending})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if got, err := s.ApproveChoreEntry(ctx, e.ID); err != nil || got.Status != core.Approved {
		t.Fatalf("approve: %+v %v", got, err)
	}
	if _, err := s.ApproveChoreEntry(ctx, e.ID); err != nil {
		t.Fatalf("second approve should be a no-op: %v", err)
	}
	if _, err := s.RejectChoreEntry(ctx, e.ID); !errors.Is(err, core.ErrAlreadyResolved) {
		t.Fatalf("reject approved = %v, want ErrAlreadyResolved", err)
	}
	if _, err := s.ApproveChoreEntry(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("approve missing = %v", err)
	}

	if err := s.DeleteChoreEntry(ctx, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetChoreEntry(ctx, e.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get deleted = %v", err)
	}
}

func TestPendingOrderingAndFilter(t *testing.T) {
	ctx := context.Background()
	s := New()
	daily, _, bonus := seedChores(t, s)
	for _, d := range []int{5, 2, 9} {
		if _, err := s.CreateChoreEntry(ctx, "ada", core.NewChoreEntry{ChoreID: daily.ID, EntryDate: core.NewDate(2025, 6, d), Status: core.Pending}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if _, err := s.CreateChoreEntry(ctx, "ada", core.NewChoreEntry{ChoreID: bonus.ID, EntryDate: core.NewDate(2025, 6, 1), Status: core.Pending}); err != nil {
		t.Fatalf("create: %v", err)
	}

	all, err := s.FetchPendingApprovals(ctx, "ada", nil)
	if err != nil || len(all) != 4 {
		t.Fatalf("pending = %d, %v", len(all), err)
	}
	for i := 1; i < len(all); i++ {
		if all[i].EntryDate.Before(all[i-1].EntryDate) {
			t.Fatalf("pending not ordered by date")
		}
	}
	bonusType := core.BonusChore
	onlyBonus, _ := s.FetchPendingApprovals(ctx, "ada", &bonusType)
	if len(onlyBonus) != 1 || onlyBonus[0].ChoreType != core.BonusChore {
		t.Fatalf("filtered pending = %+v", onlyBonus)
	}
}

func TestLedgerWithdrawalSignAndRange(t *testing.T) {
	ctx := context.Background()
	s := New()
	w, err := s.CreateLedgerEntry(ctx, "ada", core.NewLedgerEntry{
		EntryDate: core.NewDate(2025, 6, 2), Amount: dec("3"), Kind: core.Withdrawal, Narrative: "ice cream",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !w.Amount.Equal(dec("-3")) || w.ID == "" {
		t.Fatalf("withdrawal = %+v", w)
	}
	s.SeedLedgerRecord(core.LedgerRecord{ID: "bad", KidID: "ada", EntryDate: "2025/06/02", Amount: dec("1")})
	s.SeedLedgerRecord(core.LedgerRecord{ID: "old", KidID: "ada", EntryDate: "2024-01-01", Amount: dec("1")})

	r := core.Month{Year: 2025, Month: 6}.Range()
	recs, err := s.FetchLedger(ctx, "ada", &r)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %+v, want the June entry and the malformed one", recs)
	}
	all, _ := s.FetchLedger(ctx, "ada", nil)
	if len(all) != 3 {
		t.Fatalf("full ledger = %d records", len(all))
	}
}

func TestInjectFault(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("store down")
	s.InjectFault(OpFetchLedger, boom)
	if _, err := s.FetchLedger(ctx, "ada", nil); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	s.InjectFault(OpFetchLedger, nil)
	if _, err := s.FetchLedger(ctx, "ada", nil); err != nil {
		t.Fatalf("fault not cleared: %v", err)
	}
}

func TestNewFromFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFromFiles(dir)
	if err != nil {
		t.Fatalf("missing file should yield an empty store: %v", err)
	}
	if chores, _ := s.ListChores(context.Background(), "ada"); len(chores) != 0 {
		t.Fatalf("unexpected chores: %v", chores)
	}

	content := "# kid|name|type|bonus\nada|Bed|daily\n\nada|Car wash|bonus|2,50\nbob|Trash|daily\n"
	if err := os.WriteFile(filepath.Join(dir, "seed_chores.txt"), []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s, err = NewFromFiles(dir)
	if err != nil {
		t.Fatalf("NewFromFiles: %v", err)
	}
	chores, _ := s.ListChores(context.Background(), "ada")
	if len(chores) != 2 || chores[0].Name != "Bed" || !chores[1].BonusAmount.Equal(dec("2.5")) {
		t.Fatalf("chores = %+v", chores)
	}

	if err := os.WriteFile(filepath.Join(dir, "seed_chores.txt"), []byte("ada|Bed|weekly\n"), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	if _, err := NewFromFiles(dir); !errors.Is(err, core.ErrInvalidChoreType) {
		t.Fatalf("bad type err = %v", err)
	}
}
