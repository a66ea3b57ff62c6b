package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pocketmoney/internal/core"
	"pocketmoney/internal/log"
	"pocketmoney/internal/store"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ store.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks that the database still answers.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// FetchLedger implements store.LedgerReader
func (r *SQLiteRepository) FetchLedger(ctx context.Context, kidID string, dr *core.DateRange) ([]core.LedgerRecord, error) {
	var from, to string
	if dr != nil {
		from, to = dr.From.String(), dr.To.String()
	}
	rows, err := r.queries.ListLedgerEntries(ctx, kidID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	records := make([]core.LedgerRecord, len(rows))
	for i, row := range rows {
		records[i] = core.LedgerRecord{
			ID:        row.ID,
			KidID:     row.KidID,
			EntryDate: row.EntryDate,
			Amount:    row.Amount,
			Kind:      core.LedgerKind(row.Kind),
			Narrative: row.Narrative,
			Notes:     row.Notes,
		}
	}
	return records, nil
}

// CreateLedgerEntry implements store.LedgerWriter
func (r *SQLiteRepository) CreateLedgerEntry(ctx context.Context, kidID string, e core.NewLedgerEntry) (core.LedgerEntry, error) {
	if strings.TrimSpace(kidID) == "" {
		return core.LedgerEntry{}, core.ErrEmptyKid
	}
	e = e.Normalize()
	if err := e.Validate(); err != nil {
		return core.LedgerEntry{}, err
	}

	entry := core.LedgerEntry{
		ID:        uuid.NewString(),
		KidID:     kidID,
		EntryDate: e.EntryDate,
		Amount:    e.Amount,
		Kind:      e.Kind,
		Narrative: e.Narrative,
		Notes:     e.Notes,
	}
	err := r.queries.CreateLedgerEntry(ctx, LedgerEntry{
		ID:        entry.ID,
		KidID:     entry.KidID,
		EntryDate: entry.EntryDate.String(),
		Amount:    entry.Amount,
		Kind:      string(entry.Kind),
		Narrative: entry.Narrative,
		Notes:     entry.Notes,
	})
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("create ledger entry: %w", err)
	}

	slog.InfoContext(ctx, "Ledger entry saved to SQLite",
		"id", entry.ID,
		log.FieldKidID, kidID,
		"kind", entry.Kind,
		"amount", entry.Amount.String(),
		"date", entry.EntryDate.String())

	return entry, nil
}

// FetchMonthOverview implements store.OverviewReader
func (r *SQLiteRepository) FetchMonthOverview(ctx context.Context, kidID string, m core.Month) (core.MonthOverview, error) {
	chores, err := r.ListChores(ctx, kidID)
	if err != nil {
		return core.MonthOverview{}, err
	}

	rows, err := r.queries.ListChoreEntriesInRange(ctx, kidID, m.Start().String(), m.End().String())
	if err != nil {
		return core.MonthOverview{}, fmt.Errorf("list chore entries for %s: %w", m, err)
	}
	entries := make([]core.ChoreEntry, 0, len(rows))
	var quarantined []*core.MalformedDateError
	for _, row := range rows {
		e, err := choreEntryFromRow(row)
		var bad *core.MalformedDateError
		if errors.As(err, &bad) {
			quarantined = append(quarantined, bad)
			continue
		}
		if err != nil {
			return core.MonthOverview{}, err
		}
		entries = append(entries, e)
	}

	var rule *core.AllowanceRule
	rr, err := r.GetAllowanceRule(ctx, kidID)
	switch {
	case err == nil:
		rule = &rr
	case !errors.Is(err, core.ErrNotFound):
		return core.MonthOverview{}, err
	}

	ov := store.BuildMonthOverview(m, chores, entries, rule)
	ov.Quarantined = quarantined
	return ov, nil
}

// FetchPendingApprovals implements store.ApprovalReader
func (r *SQLiteRepository) FetchPendingApprovals(ctx context.Context, kidID string, choreType *core.ChoreType) ([]core.ChoreEntry, error) {
	var filter string
	if choreType != nil {
		filter = string(*choreType)
	}
	rows, err := r.queries.ListPendingChoreEntries(ctx, kidID, filter)
	if err != nil {
		return nil, fmt.Errorf("list pending chore entries: %w", err)
	}
	out := make([]core.ChoreEntry, 0, len(rows))
	for _, row := range rows {
		e, err := choreEntryFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *SQLiteRepository) GetChoreEntry(ctx context.Context, id string) (core.ChoreEntry, error) {
	row, err := r.queries.GetChoreEntry(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ChoreEntry{}, fmt.Errorf("chore entry %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.ChoreEntry{}, fmt.Errorf("get chore entry: %w", err)
	}
	return choreEntryFromRow(row)
}

func (r *SQLiteRepository) CreateChoreEntry(ctx context.Context, kidID string, in core.NewChoreEntry) (core.ChoreEntry, error) {
	if err := in.EntryDate.Validate(); err != nil {
		return core.ChoreEntry{}, core.ErrInvalidDate
	}
	if !in.Status.IsValid() {
		return core.ChoreEntry{}, core.ErrInvalidStatus
	}

	c, err := r.queries.GetChore(ctx, in.ChoreID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && c.KidID != kidID) {
		return core.ChoreEntry{}, fmt.Errorf("chore %s: %w", in.ChoreID, core.ErrNotFound)
	}
	if err != nil {
		return core.ChoreEntry{}, fmt.Errorf("get chore: %w", err)
	}

	e := core.ChoreEntry{
		ID:        uuid.NewString(),
		ChoreID:   c.ID,
		KidID:     kidID,
		EntryDate: in.EntryDate,
		ChoreType: core.ChoreType(c.ChoreType),
		Status:    in.Status,
		Amount:    decimal.Zero,
		Notes:     strings.TrimSpace(in.Notes),
	}
	if e.ChoreType == core.BonusChore {
		e.Amount = c.BonusAmount
	}

	err = r.queries.CreateChoreEntry(ctx, ChoreEntry{
		ID:        e.ID,
		ChoreID:   e.ChoreID,
		KidID:     e.KidID,
		EntryDate: e.EntryDate.String(),
		ChoreType: string(e.ChoreType),
		Status:    string(e.Status),
		Amount:    e.Amount,
		Notes:     e.Notes,
	})
	if err != nil {
		return core.ChoreEntry{}, fmt.Errorf("create chore entry: %w", err)
	}

	slog.InfoContext(ctx, "Chore entry saved to SQLite",
		"id", e.ID,
		log.FieldKidID, kidID,
		log.FieldChoreID, e.ChoreID,
		"status", e.Status,
		"date", e.EntryDate.String())

	return e, nil
}

func (r *SQLiteRepository) ApproveChoreEntry(ctx context.Context, id string) (core.ChoreEntry, error) {
	return r.transition(ctx, id, core.Approved)
}

func (r *SQLiteRepository) RejectChoreEntry(ctx context.Context, id string) (core.ChoreEntry, error) {
	return r.transition(ctx, id, core.Rejected)
}

// transition moves a Pending entry to status in one conditional UPDATE, then
// reads the entry back to tell no-ops from conflicts.
func (r *SQLiteRepository) transition(ctx context.Context, id string, to core.ChoreStatus) (core.ChoreEntry, error) {
	if _, err := r.queries.TransitionPendingChoreEntry(ctx, id, string(to)); err != nil {
		return core.ChoreEntry{}, fmt.Errorf("update chore entry status: %w", err)
	}
	e, err := r.GetChoreEntry(ctx, id)
	if err != nil {
		return core.ChoreEntry{}, err
	}
	if e.Status != to {
		return core.ChoreEntry{}, fmt.Errorf("chore entry %s is %s: %w", id, e.Status, core.ErrAlreadyResolved)
	}
	return e, nil
}

func (r *SQLiteRepository) DeleteChoreEntry(ctx context.Context, id string) error {
	n, err := r.queries.DeleteChoreEntry(ctx, id)
	if err != nil {
		return fmt.Errorf("delete chore entry: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("chore entry %s: %w", id, core.ErrNotFound)
	}
	slog.InfoContext(ctx, "Chore entry deleted", "id", id)
	return nil
}

// UpsertAllowanceRule implements store.AllowanceStore
func (r *SQLiteRepository) UpsertAllowanceRule(ctx context.Context, kidID string, amount decimal.Decimal, start core.Date) (core.AllowanceRule, error) {
	rule := core.AllowanceRule{KidID: strings.TrimSpace(kidID), MonthlyAmount: core.RoundCents(amount), EffectiveStartDate: start}
	if err := rule.Validate(); err != nil {
		return core.AllowanceRule{}, err
	}
	err := r.queries.UpsertAllowanceRule(ctx, AllowanceRule{
		KidID:              rule.KidID,
		MonthlyAmount:      rule.MonthlyAmount,
		EffectiveStartDate: rule.EffectiveStartDate.String(),
	})
	if err != nil {
		return core.AllowanceRule{}, fmt.Errorf("upsert allowance rule: %w", err)
	}
	return rule, nil
}

func (r *SQLiteRepository) GetAllowanceRule(ctx context.Context, kidID string) (core.AllowanceRule, error) {
	row, err := r.queries.GetAllowanceRule(ctx, kidID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.AllowanceRule{}, fmt.Errorf("allowance rule for %s: %w", kidID, core.ErrNotFound)
	}
	if err != nil {
		return core.AllowanceRule{}, fmt.Errorf("get allowance rule: %w", err)
	}
	start, err := core.ParseDate(row.EffectiveStartDate)
	if err != nil {
		return core.AllowanceRule{}, &core.MalformedDateError{Kind: "allowance_rule", RecordID: kidID, Raw: row.EffectiveStartDate, Err: err}
	}
	return core.AllowanceRule{KidID: row.KidID, MonthlyAmount: row.MonthlyAmount, EffectiveStartDate: start}, nil
}

// CreateChore implements store.ChoreCatalog
func (r *SQLiteRepository) CreateChore(ctx context.Context, c core.Chore) (core.Chore, error) {
	c.KidID = strings.TrimSpace(c.KidID)
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.Chore{}, err
	}
	if c.Type != core.BonusChore {
		c.BonusAmount = decimal.Zero
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	err := r.queries.CreateChore(ctx, Chore{
		ID:          c.ID,
		KidID:       c.KidID,
		Name:        c.Name,
		ChoreType:   string(c.Type),
		BonusAmount: c.BonusAmount,
		Active:      c.Active,
	})
	if err != nil {
		return core.Chore{}, fmt.Errorf("create chore: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListChores(ctx context.Context, kidID string) ([]core.Chore, error) {
	rows, err := r.queries.ListChoresByKid(ctx, kidID)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	out := make([]core.Chore, len(rows))
	for i, row := range rows {
		out[i] = core.Chore{
			ID:          row.ID,
			KidID:       row.KidID,
			Name:        row.Name,
			Type:        core.ChoreType(row.ChoreType),
			BonusAmount: row.BonusAmount,
			Active:      row.Active,
		}
	}
	return out, nil
}

func choreEntryFromRow(row ChoreEntry) (core.ChoreEntry, error) {
	d, err := core.ParseDate(row.EntryDate)
	if err != nil {
		return core.ChoreEntry{}, &core.MalformedDateError{Kind: "chore_entry", RecordID: row.ID, Raw: row.EntryDate, Err: err}
	}
	return core.ChoreEntry{
		ID:        row.ID,
		ChoreID:   row.ChoreID,
		KidID:     row.KidID,
		EntryDate: d,
		ChoreType: core.ChoreType(row.ChoreType),
		Status:    core.ChoreStatus(row.Status),
		Amount:    row.Amount,
		Notes:     row.Notes,
	}, nil
}
