package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"pocketmoney/internal/amqp"
	"pocketmoney/internal/approval"
	"pocketmoney/internal/core"
	"pocketmoney/internal/log"
	"pocketmoney/internal/store"
)

// ChoreStore is the part of the store the chore service needs.
type ChoreStore interface {
	store.ChoreEntryStore
	store.ApprovalReader
	store.ChoreCatalog
}

// ChoreService logs chores and drives their approval.
type ChoreService struct {
	store    ChoreStore
	workflow *approval.Workflow
	events   Publisher
	today    func() core.Date
}

// NewChoreService wires the service. today returns the current calendar date
// in the household's timezone; events may be nil.
func NewChoreService(s ChoreStore, wf *approval.Workflow, events Publisher, today func() core.Date) *ChoreService {
	return &ChoreService{
		store:    s,
		workflow: wf,
		events:   events,
		today:    today,
	}
}

// LogChore records a chore completion. Same-day entries are approved at
// once, backdated ones wait for a parent; future dates are refused.
func (s *ChoreService) LogChore(ctx context.Context, kidID, choreID string, date core.Date, notes string) (core.ChoreEntry, error) {
	if strings.TrimSpace(kidID) == "" {
		return core.ChoreEntry{}, core.ErrEmptyKid
	}
	if date.IsZero() {
		return core.ChoreEntry{}, core.ErrInvalidDate
	}
	today := s.today()
	if date.After(today) {
		return core.ChoreEntry{}, fmt.Errorf("log chore on %s: %w", date, core.ErrFutureEntry)
	}

	status := core.Pending
	if date.Equal(today) {
		status = core.Approved
	}

	entry, err := s.store.CreateChoreEntry(ctx, kidID, core.NewChoreEntry{
		ChoreID:   choreID,
		EntryDate: date,
		Status:    status,
		Notes:     notes,
	})
	if err != nil {
		return core.ChoreEntry{}, fmt.Errorf("log chore: %w", err)
	}

	slog.InfoContext(ctx, "Logged chore",
		log.FieldKidID, kidID,
		log.FieldChoreID, choreID,
		log.FieldEntryID, entry.ID,
		"date", date,
		"status", entry.Status)
	publish(ctx, s.events, choreEvent(amqp.ChoreEntryCreated, entry))
	return entry, nil
}

// Approve approves one entry.
func (s *ChoreService) Approve(ctx context.Context, id string) (core.ChoreEntry, error) {
	entry, err := s.workflow.Approve(ctx, id)
	if err != nil {
		return core.ChoreEntry{}, err
	}
	publish(ctx, s.events, choreEvent(amqp.ChoreEntryApproved, entry))
	return entry, nil
}

// Reject rejects one entry.
func (s *ChoreService) Reject(ctx context.Context, id string) (core.ChoreEntry, error) {
	entry, err := s.workflow.Reject(ctx, id)
	if err != nil {
		return core.ChoreEntry{}, err
	}
	publish(ctx, s.events, choreEvent(amqp.ChoreEntryRejected, entry))
	return entry, nil
}

// ApproveAllForDate approves every entry of kidID still Pending on date. The
// pending list is fetched fresh, so retrying after a partial failure only
// touches the entries that failed.
func (s *ChoreService) ApproveAllForDate(ctx context.Context, kidID string, date core.Date) (approval.BatchResult, error) {
	if strings.TrimSpace(kidID) == "" {
		return approval.BatchResult{}, core.ErrEmptyKid
	}
	if date.IsZero() {
		return approval.BatchResult{}, core.ErrInvalidDate
	}
	pending, err := s.store.FetchPendingApprovals(ctx, kidID, nil)
	if err != nil {
		return approval.BatchResult{}, &core.DataFetchError{Source: "pending", KidID: kidID, Err: err}
	}

	var onDate []core.ChoreEntry
	for _, e := range pending {
		if e.EntryDate.Equal(date) {
			onDate = append(onDate, e)
		}
	}

	res, err := s.workflow.ApproveAllForDate(ctx, date, onDate)

	byID := make(map[string]core.ChoreEntry, len(onDate))
	for _, e := range onDate {
		byID[e.ID] = e
	}
	for _, id := range res.Approved {
		e := byID[id]
		e.Status = core.Approved
		publish(ctx, s.events, choreEvent(amqp.ChoreEntryApproved, e))
	}
	return res, err
}

// Delete removes a chore entry.
func (s *ChoreService) Delete(ctx context.Context, id string) error {
	entry, err := s.store.GetChoreEntry(ctx, id)
	if err != nil {
		return fmt.Errorf("delete chore entry: %w", err)
	}
	if err := s.store.DeleteChoreEntry(ctx, id); err != nil {
		return fmt.Errorf("delete chore entry: %w", err)
	}
	slog.InfoContext(ctx, "Deleted chore entry", log.FieldEntryID, id, log.FieldKidID, entry.KidID)
	publish(ctx, s.events, choreEvent(amqp.ChoreEntryDeleted, entry))
	return nil
}

// Pending lists entries awaiting approval, optionally of one chore type.
func (s *ChoreService) Pending(ctx context.Context, kidID string, choreType *core.ChoreType) ([]core.ChoreEntry, error) {
	if strings.TrimSpace(kidID) == "" {
		return nil, core.ErrEmptyKid
	}
	if choreType != nil && !choreType.IsValid() {
		return nil, core.ErrInvalidChoreType
	}
	entries, err := s.store.FetchPendingApprovals(ctx, kidID, choreType)
	if err != nil {
		return nil, &core.DataFetchError{Source: "pending", KidID: kidID, Err: err}
	}
	if entries == nil {
		entries = []core.ChoreEntry{}
	}
	return entries, nil
}

// Chores lists a kid's chore catalog.
// AddChore adds c to its kid's catalog. Only bonus chores keep a bonus
// amount.
func (s *ChoreService) AddChore(ctx context.Context, c core.Chore) (core.Chore, error) {
	c.KidID = strings.TrimSpace(c.KidID)
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.Chore{}, err
	}
	created, err := s.store.CreateChore(ctx, c)
	if err != nil {
		return core.Chore{}, fmt.Errorf("add chore: %w", err)
	}
	slog.InfoContext(ctx, "Added chore",
		log.FieldChoreID, created.ID,
		log.FieldKidID, created.KidID,
		"type", created.Type)

	ev := amqp.NewEvent(amqp.ChoreCreated, created.KidID)
	ev.EntryID = created.ID
	if created.Type == core.BonusChore {
		amount := created.BonusAmount
		ev.Amount = &amount
	}
	publish(ctx, s.events, ev)
	return created, nil
}

func (s *ChoreService) Chores(ctx context.Context, kidID string) ([]core.Chore, error) {
	if strings.TrimSpace(kidID) == "" {
		return nil, core.ErrEmptyKid
	}
	return s.store.ListChores(ctx, kidID)
}
