package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"pocketmoney/internal/amqp"
	"pocketmoney/internal/core"
	"pocketmoney/internal/log"
	"pocketmoney/internal/store"
)

// LedgerStore is the part of the store the ledger service writes to.
type LedgerStore interface {
	store.LedgerWriter
	store.AllowanceStore
}

// LedgerService records money movements and allowance rules.
type LedgerService struct {
	store  LedgerStore
	events Publisher
}

func NewLedgerService(s LedgerStore, events Publisher) *LedgerService {
	return &LedgerService{store: s, events: events}
}

// CreateEntry validates and stores a ledger entry. Withdrawals are stored
// negative whatever sign the caller used.
func (s *LedgerService) CreateEntry(ctx context.Context, kidID string, in core.NewLedgerEntry) (core.LedgerEntry, error) {
	if strings.TrimSpace(kidID) == "" {
		return core.LedgerEntry{}, core.ErrEmptyKid
	}
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return core.LedgerEntry{}, err
	}

	entry, err := s.store.CreateLedgerEntry(ctx, kidID, in)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("create ledger entry: %w", err)
	}
	slog.InfoContext(ctx, "Created ledger entry",
		log.FieldKidID, kidID,
		log.FieldEntryID, entry.ID,
		"kind", entry.Kind,
		"amount", entry.Amount)

	ev := amqp.NewEvent(amqp.LedgerEntryCreated, kidID)
	ev.EntryID = entry.ID
	ev.Date = entry.EntryDate.String()
	amount := entry.Amount
	ev.Amount = &amount
	publish(ctx, s.events, ev)
	return entry, nil
}

// SetAllowance creates or replaces a kid's monthly allowance rule.
func (s *LedgerService) SetAllowance(ctx context.Context, kidID string, amount decimal.Decimal, start core.Date) (core.AllowanceRule, error) {
	rule := core.AllowanceRule{KidID: strings.TrimSpace(kidID), MonthlyAmount: core.RoundCents(amount), EffectiveStartDate: start}
	if err := rule.Validate(); err != nil {
		return core.AllowanceRule{}, err
	}
	saved, err := s.store.UpsertAllowanceRule(ctx, rule.KidID, rule.MonthlyAmount, start)
	if err != nil {
		return core.AllowanceRule{}, fmt.Errorf("set allowance: %w", err)
	}
	slog.InfoContext(ctx, "Updated allowance rule",
		log.FieldKidID, saved.KidID,
		"monthly_amount", saved.MonthlyAmount,
		"effective_start", saved.EffectiveStartDate)

	ev := amqp.NewEvent(amqp.AllowanceRuleUpdated, saved.KidID)
	ev.Date = saved.EffectiveStartDate.String()
	monthly := saved.MonthlyAmount
	ev.Amount = &monthly
	publish(ctx, s.events, ev)
	return saved, nil
}

// Allowance returns the kid's current rule or core.ErrNotFound.
func (s *LedgerService) Allowance(ctx context.Context, kidID string) (core.AllowanceRule, error) {
	return s.store.GetAllowanceRule(ctx, kidID)
}
