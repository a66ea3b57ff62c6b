// Package store declares the ports of the remote ledger/chore store.
package store

import (
	"context"

	"github.com/shopspring/decimal"

	"pocketmoney/internal/core"
)

// Ports for outbound adapters.
type (
	LedgerReader interface {
		// FetchLedger returns a kid's raw ledger records. A nil range means
		// the whole history.
		FetchLedger(ctx context.Context, kidID string, r *core.DateRange) ([]core.LedgerRecord, error)
	}

	LedgerWriter interface {
		CreateLedgerEntry(ctx context.Context, kidID string, e core.NewLedgerEntry) (core.LedgerEntry, error)
	}

	// OverviewReader provides the per-day chore overview of a month.
	OverviewReader interface {
		FetchMonthOverview(ctx context.Context, kidID string, m core.Month) (core.MonthOverview, error)
	}

	ApprovalReader interface {
		// FetchPendingApprovals returns Pending entries ordered by date then
		// id, optionally filtered by chore type.
		FetchPendingApprovals(ctx context.Context, kidID string, choreType *core.ChoreType) ([]core.ChoreEntry, error)
	}

	// ChoreEntryStore transitions and maintains chore entries. Approve and
	// Reject only move Pending entries; repeating the current state is a
	// no-op and the opposite transition fails with core.ErrAlreadyResolved.
	ChoreEntryStore interface {
		GetChoreEntry(ctx context.Context, id string) (core.ChoreEntry, error)
		CreateChoreEntry(ctx context.Context, kidID string, e core.NewChoreEntry) (core.ChoreEntry, error)
		ApproveChoreEntry(ctx context.Context, id string) (core.ChoreEntry, error)
		RejectChoreEntry(ctx context.Context, id string) (core.ChoreEntry, error)
		DeleteChoreEntry(ctx context.Context, id string) error
	}

	AllowanceStore interface {
		UpsertAllowanceRule(ctx context.Context, kidID string, amount decimal.Decimal, start core.Date) (core.AllowanceRule, error)
		// GetAllowanceRule returns core.ErrNotFound when the kid has no rule.
		GetAllowanceRule(ctx context.Context, kidID string) (core.AllowanceRule, error)
	}

	ChoreCatalog interface {
		CreateChore(ctx context.Context, c core.Chore) (core.Chore, error)
		ListChores(ctx context.Context, kidID string) ([]core.Chore, error)
	}

	// Store is the full remote store.
	Store interface {
		LedgerReader
		LedgerWriter
		OverviewReader
		ApprovalReader
		ChoreEntryStore
		AllowanceStore
		ChoreCatalog
	}
)
