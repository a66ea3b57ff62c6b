package storage

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Row models. Dates stay text here; conversion happens in the repository.
type (
	Chore struct {
		ID          string
		KidID       string
		Name        string
		ChoreType   string
		BonusAmount decimal.Decimal
		Active      bool
	}

	ChoreEntry struct {
		ID        string
		ChoreID   string
		KidID     string
		EntryDate string
		ChoreType string
		Status    string
		Amount    decimal.Decimal
		Notes     string
	}

	LedgerEntry struct {
		ID        string
		KidID     string
		EntryDate string
		Amount    decimal.Decimal
		Kind      string
		Narrative string
		Notes     string
	}

	AllowanceRule struct {
		KidID              string
		MonthlyAmount      decimal.Decimal
		EffectiveStartDate string
	}
)

const createChore = `-- name: CreateChore :exec
INSERT INTO chores (id, kid_id, name, chore_type, bonus_amount, active)
VALUES (?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateChore(ctx context.Context, arg Chore) error {
	_, err := q.db.ExecContext(ctx, createChore,
		arg.ID, arg.KidID, arg.Name, arg.ChoreType, arg.BonusAmount.String(), arg.Active)
	return err
}

const getChore = `-- name: GetChore :one
SELECT id, kid_id, name, chore_type, bonus_amount, active FROM chores WHERE id = ?
`

func (q *Queries) GetChore(ctx context.Context, id string) (Chore, error) {
	row := q.db.QueryRowContext(ctx, getChore, id)
	var i Chore
	err := row.Scan(&i.ID, &i.KidID, &i.Name, &i.ChoreType, &i.BonusAmount, &i.Active)
	return i, err
}

const listChoresByKid = `-- name: ListChoresByKid :many
SELECT id, kid_id, name, chore_type, bonus_amount, active FROM chores
WHERE kid_id = ?
ORDER BY name, id
`

func (q *Queries) ListChoresByKid(ctx context.Context, kidID string) ([]Chore, error) {
	rows, err := q.db.QueryContext(ctx, listChoresByKid, kidID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Chore
	for rows.Next() {
		var i Chore
		if err := rows.Scan(&i.ID, &i.KidID, &i.Name, &i.ChoreType, &i.BonusAmount, &i.Active); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createChoreEntry = `-- name: CreateChoreEntry :exec
INSERT INTO chore_entries (id, chore_id, kid_id, entry_date, chore_type, status, amount, notes)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateChoreEntry(ctx context.Context, arg ChoreEntry) error {
	_, err := q.db.ExecContext(ctx, createChoreEntry,
		arg.ID, arg.ChoreID, arg.KidID, arg.EntryDate, arg.ChoreType, arg.Status, arg.Amount.String(), arg.Notes)
	return err
}

const choreEntryColumns = `id, chore_id, kid_id, entry_date, chore_type, status, amount, notes`

const getChoreEntry = `-- name: GetChoreEntry :one
SELECT ` + choreEntryColumns + ` FROM chore_entries WHERE id = ?
`

func (q *Queries) GetChoreEntry(ctx context.Context, id string) (ChoreEntry, error) {
	row := q.db.QueryRowContext(ctx, getChoreEntry, id)
	var i ChoreEntry
	err := row.Scan(&i.ID, &i.ChoreID, &i.KidID, &i.EntryDate, &i.ChoreType, &i.Status, &i.Amount, &i.Notes)
	return i, err
}

// Like ListLedgerEntries, rows with non-ISO dates are returned regardless of
// the range.
const listChoreEntriesInRange = `-- name: ListChoreEntriesInRange :many
SELECT ` + choreEntryColumns + ` FROM chore_entries
WHERE kid_id = ?
  AND (entry_date BETWEEN ? AND ?
       OR entry_date NOT GLOB '[0-9][0-9][0-9][0-9]-[0-9][0-9]-[0-9][0-9]')
ORDER BY entry_date, id
`

func (q *Queries) ListChoreEntriesInRange(ctx context.Context, kidID, from, to string) ([]ChoreEntry, error) {
	return q.listChoreEntries(ctx, listChoreEntriesInRange, kidID, from, to)
}

const listPendingChoreEntries = `-- name: ListPendingChoreEntries :many
SELECT ` + choreEntryColumns + ` FROM chore_entries
WHERE kid_id = ? AND status = 'pending' AND (? = '' OR chore_type = ?)
ORDER BY entry_date, id
`

func (q *Queries) ListPendingChoreEntries(ctx context.Context, kidID, choreType string) ([]ChoreEntry, error) {
	return q.listChoreEntries(ctx, listPendingChoreEntries, kidID, choreType, choreType)
}

func (q *Queries) listChoreEntries(ctx context.Context, query string, args ...interface{}) ([]ChoreEntry, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ChoreEntry
	for rows.Next() {
		var i ChoreEntry
		if err := rows.Scan(&i.ID, &i.ChoreID, &i.KidID, &i.EntryDate, &i.ChoreType, &i.Status, &i.Amount, &i.Notes); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const transitionPendingChoreEntry = `-- name: TransitionPendingChoreEntry :execrows
UPDATE chore_entries
SET status = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND status = 'pending'
`

func (q *Queries) TransitionPendingChoreEntry(ctx context.Context, id, status string) (int64, error) {
	result, err := q.db.ExecContext(ctx, transitionPendingChoreEntry, status, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteChoreEntry = `-- name: DeleteChoreEntry :execrows
DELETE FROM chore_entries WHERE id = ?
`

func (q *Queries) DeleteChoreEntry(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteChoreEntry, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const createLedgerEntry = `-- name: CreateLedgerEntry :exec
INSERT INTO ledger_entries (id, kid_id, entry_date, amount, kind, narrative, notes)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateLedgerEntry(ctx context.Context, arg LedgerEntry) error {
	_, err := q.db.ExecContext(ctx, createLedgerEntry,
		arg.ID, arg.KidID, arg.EntryDate, arg.Amount.String(), arg.Kind, arg.Narrative, arg.Notes)
	return err
}

// Rows whose date is not ISO text are always returned so callers can
// quarantine them instead of losing them to the range filter.
const listLedgerEntries = `-- name: ListLedgerEntries :many
SELECT id, kid_id, entry_date, amount, kind, narrative, notes FROM ledger_entries
WHERE kid_id = ?
  AND (? = ''
       OR entry_date BETWEEN ? AND ?
       OR entry_date NOT GLOB '[0-9][0-9][0-9][0-9]-[0-9][0-9]-[0-9][0-9]')
ORDER BY entry_date, id
`

func (q *Queries) ListLedgerEntries(ctx context.Context, kidID, from, to string) ([]LedgerEntry, error) {
	rows, err := q.db.QueryContext(ctx, listLedgerEntries, kidID, from, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LedgerEntry
	for rows.Next() {
		var i LedgerEntry
		if err := rows.Scan(&i.ID, &i.KidID, &i.EntryDate, &i.Amount, &i.Kind, &i.Narrative, &i.Notes); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const upsertAllowanceRule = `-- name: UpsertAllowanceRule :exec
INSERT INTO allowance_rules (kid_id, monthly_amount, effective_start_date)
VALUES (?, ?, ?)
ON CONFLICT(kid_id) DO UPDATE SET
    monthly_amount = excluded.monthly_amount,
    effective_start_date = excluded.effective_start_date,
    updated_at = CURRENT_TIMESTAMP
`

func (q *Queries) UpsertAllowanceRule(ctx context.Context, arg AllowanceRule) error {
	_, err := q.db.ExecContext(ctx, upsertAllowanceRule, arg.KidID, arg.MonthlyAmount.String(), arg.EffectiveStartDate)
	return err
}

const getAllowanceRule = `-- name: GetAllowanceRule :one
SELECT kid_id, monthly_amount, effective_start_date FROM allowance_rules WHERE kid_id = ?
`

func (q *Queries) GetAllowanceRule(ctx context.Context, kidID string) (AllowanceRule, error) {
	row := q.db.QueryRowContext(ctx, getAllowanceRule, kidID)
	var i AllowanceRule
	err := row.Scan(&i.KidID, &i.MonthlyAmount, &i.EffectiveStartDate)
	return i, err
}
