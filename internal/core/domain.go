package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Deposit         LedgerKind = "deposit"
	Withdrawal      LedgerKind = "withdrawal"
	StartingBalance LedgerKind = "starting_balance"

	DailyChore ChoreType = "daily"
	HabitChore ChoreType = "habit"
	BonusChore ChoreType = "bonus"

	Pending  ChoreStatus = "pending"
	Approved ChoreStatus = "approved"
	Rejected ChoreStatus = "rejected"
)

type (
	LedgerKind  string
	ChoreType   string
	ChoreStatus string

	// LedgerEntry is a discrete monetary movement. Amount is signed:
	// withdrawals are negative.
	LedgerEntry struct {
		ID        string          `json:"id"`
		KidID     string          `json:"kidId"`
		EntryDate Date            `json:"entryDate"`
		Amount    decimal.Decimal `json:"amount"`
		Kind      LedgerKind      `json:"kind"`
		Narrative string          `json:"narrative"`
		Notes     string          `json:"notes,omitempty"`
	}

	// NewLedgerEntry is the input of a ledger write.
	NewLedgerEntry struct {
		EntryDate Date
		Amount    decimal.Decimal
		Kind      LedgerKind
		Narrative string
		Notes     string
	}

	// Chore is an entry of a kid's chore catalog.
	Chore struct {
		ID          string          `json:"id"`
		KidID       string          `json:"kidId"`
		Name        string          `json:"name"`
		Type        ChoreType       `json:"type"`
		BonusAmount decimal.Decimal `json:"bonusAmount"`
		Active      bool            `json:"active"`
	}

	// ChoreEntry records one completion of a chore on a date.
	ChoreEntry struct {
		ID        string          `json:"id"`
		ChoreID   string          `json:"choreId"`
		KidID     string          `json:"kidId"`
		EntryDate Date            `json:"entryDate"`
		ChoreType ChoreType       `json:"choreType"`
		Status    ChoreStatus     `json:"status"`
		Amount    decimal.Decimal `json:"amount"` // bonus payout, zero for non-bonus chores
		Notes     string          `json:"notes,omitempty"`
	}

	// NewChoreEntry is the input of a chore entry write. Status is decided by
	// the caller: Approved for same-day logging, Pending when backdated.
	NewChoreEntry struct {
		ChoreID   string
		EntryDate Date
		Status    ChoreStatus
		Notes     string
	}

	// DailyOverview is the chore summary of one calendar date.
	DailyOverview struct {
		Date               Date            `json:"date"`
		DailyTotal         int             `json:"dailyTotal"`
		DailyDone          int             `json:"dailyDone"`
		PendingCount       int             `json:"pendingCount"`
		BonusApprovedTotal decimal.Decimal `json:"bonusApprovedTotal"`
	}

	// AllowanceRule defines the monthly allowance and when it started.
	AllowanceRule struct {
		KidID              string          `json:"kidId"`
		MonthlyAmount      decimal.Decimal `json:"monthlyAmount"`
		EffectiveStartDate Date            `json:"effectiveStartDate"`
	}

	// MonthOverview is what the store supplies for one kid and month.
	MonthOverview struct {
		Month           Month
		Days            []OverviewRecord
		AllowanceAmount decimal.Decimal
		DailySlice      decimal.Decimal
		Rule            *AllowanceRule
		// Quarantined lists chore entries whose dates could not be parsed.
		// They contribute nothing to Days.
		Quarantined []*MalformedDateError
	}

	// SeriesPoint is one chart point. Exactly one of Actual and Projected is set.
	SeriesPoint struct {
		Date      Date             `json:"date"`
		Actual    *decimal.Decimal `json:"actualAmount,omitempty"`
		Projected *decimal.Decimal `json:"projectedAmount,omitempty"`
	}
)

func (k LedgerKind) IsValid() bool {
	switch k {
	case Deposit, Withdrawal, StartingBalance:
		return true
	}
	return false
}

func (t ChoreType) IsValid() bool {
	switch t {
	case DailyChore, HabitChore, BonusChore:
		return true
	}
	return false
}

func (s ChoreStatus) IsValid() bool {
	switch s {
	case Pending, Approved, Rejected:
		return true
	}
	return false
}

// Complete reports whether all required daily jobs are done. A day with no
// required daily jobs is complete.
func (o DailyOverview) Complete() bool {
	return o.DailyTotal == 0 || o.DailyDone >= o.DailyTotal
}

// Normalize returns the entry with the sign convention of its kind applied:
// withdrawals are always negative, deposits always positive.
func (e NewLedgerEntry) Normalize() NewLedgerEntry {
	switch e.Kind {
	case Withdrawal:
		e.Amount = e.Amount.Abs().Neg()
	case Deposit:
		e.Amount = e.Amount.Abs()
	}
	e.Amount = RoundCents(e.Amount)
	e.Narrative = strings.TrimSpace(e.Narrative)
	e.Notes = strings.TrimSpace(e.Notes)
	return e
}

func (e NewLedgerEntry) Validate() error {
	if err := e.EntryDate.Validate(); err != nil {
		return ErrInvalidDate
	}
	if !e.Kind.IsValid() {
		return ErrInvalidKind
	}
	if e.Kind != StartingBalance && e.Amount.IsZero() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(e.Narrative) == "" {
		return ErrEmptyNarrative
	}
	return nil
}

func (c Chore) Validate() error {
	if strings.TrimSpace(c.KidID) == "" {
		return ErrEmptyKid
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyChoreName
	}
	if !c.Type.IsValid() {
		return ErrInvalidChoreType
	}
	if c.BonusAmount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

func (r AllowanceRule) Validate() error {
	if strings.TrimSpace(r.KidID) == "" {
		return ErrEmptyKid
	}
	if r.MonthlyAmount.IsNegative() {
		return ErrInvalidAmount
	}
	if err := r.EffectiveStartDate.Validate(); err != nil {
		return ErrInvalidDate
	}
	return nil
}
