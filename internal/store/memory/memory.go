// Package memory is an in-process implementation of store.Store used for
// tests and the demo backend.
package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pocketmoney/internal/core"
	"pocketmoney/internal/store"
)

// Operation names accepted by InjectFault.
const (
	OpFetchLedger   = "fetch_ledger"
	OpFetchOverview = "fetch_overview"
	OpFetchPending  = "fetch_pending"
	OpCreateLedger  = "create_ledger"
	OpCreateEntry   = "create_entry"
	OpTransition    = "transition"
	OpDeleteEntry   = "delete_entry"
	OpUpsertRule    = "upsert_rule"
)

type Store struct {
	mu      sync.Mutex
	ledger  map[string][]core.LedgerRecord
	chores  map[string]core.Chore
	entries map[string]core.ChoreEntry
	rules   map[string]core.AllowanceRule

	faults      map[string]error
	entryFaults map[string]error
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		ledger:      make(map[string][]core.LedgerRecord),
		chores:      make(map[string]core.Chore),
		entries:     make(map[string]core.ChoreEntry),
		rules:       make(map[string]core.AllowanceRule),
		faults:      make(map[string]error),
		entryFaults: make(map[string]error),
	}
}

// NewFromFiles seeds the chore catalog from base/seed_chores.txt. Each line is
// "kid|name|type[|bonus]"; blank lines and # comments are ignored.
func NewFromFiles(base string) (*Store, error) {
	s := New()
	for i, line := range readLines(filepath.Join(base, "seed_chores.txt")) {
		parts := strings.Split(line, "|")
		if len(parts) < 3 {
			return nil, fmt.Errorf("seed_chores.txt entry %d: want kid|name|type[|bonus]", i+1)
		}
		c := core.Chore{
			KidID:       strings.TrimSpace(parts[0]),
			Name:        strings.TrimSpace(parts[1]),
			Type:        core.ChoreType(strings.TrimSpace(parts[2])),
			BonusAmount: decimal.Zero,
			Active:      true,
		}
		if len(parts) > 3 {
			amount, err := core.ParseAmount(parts[3])
			if err != nil {
				return nil, fmt.Errorf("seed_chores.txt entry %d: %w", i+1, err)
			}
			c.BonusAmount = amount
		}
		if _, err := s.CreateChore(context.Background(), c); err != nil {
			return nil, fmt.Errorf("seed_chores.txt entry %d: %w", i+1, err)
		}
	}
	return s, nil
}

// InjectFault makes every call of op fail with err until cleared with a nil err.
func (s *Store) InjectFault(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = err
}

// InjectEntryFault makes transitions of one chore entry fail with err.
func (s *Store) InjectEntryFault(entryID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.entryFaults, entryID)
		return
	}
	s.entryFaults[entryID] = err
}

// SeedLedgerRecord stores a raw record as-is, bypassing validation. It lets
// tests reproduce rows a remote store may hold, such as malformed dates.
func (s *Store) SeedLedgerRecord(r core.LedgerRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger[r.KidID] = append(s.ledger[r.KidID], r)
}

func (s *Store) FetchLedger(_ context.Context, kidID string, r *core.DateRange) ([]core.LedgerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.faults[OpFetchLedger]; err != nil {
		return nil, err
	}
	out := make([]core.LedgerRecord, 0, len(s.ledger[kidID]))
	for _, rec := range s.ledger[kidID] {
		if r != nil {
			// Unparsable dates pass through so the ledger index can report them.
			if d, err := core.ParseDate(rec.EntryDate); err == nil && !r.Contains(d) {
				continue
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Store) CreateLedgerEntry(_ context.Context, kidID string, e core.NewLedgerEntry) (core.LedgerEntry, error) {
	if strings.TrimSpace(kidID) == "" {
		return core.LedgerEntry{}, core.ErrEmptyKid
	}
	e = e.Normalize()
	if err := e.Validate(); err != nil {
		return core.LedgerEntry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.faults[OpCreateLedger]; err != nil {
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
	s.ledger[kidID] = append(s.ledger[kidID], core.RecordOf(entry))
	return entry, nil
}

func (s *Store) FetchMonthOverview(_ context.Context, kidID string, m core.Month) (core.MonthOverview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.faults[OpFetchOverview]; err != nil {
		return core.MonthOverview{}, err
	}
	var chores []core.Chore
	for _, c := range s.chores {
		if c.KidID == kidID {
			chores = append(chores, c)
		}
	}
	var entries []core.ChoreEntry
	for _, e := range s.entries {
		if e.KidID == kidID && m.Contains(e.EntryDate) {
			entries = append(entries, e)
		}
	}
	var rule *core.AllowanceRule
	if r, ok := s.rules[kidID]; ok {
		rule = &r
	}
	return store.BuildMonthOverview(m, chores, entries, rule), nil
}

func (s *Store) FetchPendingApprovals(_ context.Context, kidID string, choreType *core.ChoreType) ([]core.ChoreEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.faults[OpFetchPending]; err != nil {
		return nil, err
	}
	var out []core.ChoreEntry
	for _, e := range s.entries {
		if e.KidID != kidID || e.Status != core.Pending {
			continue
		}
		if choreType != nil && e.ChoreType != *choreType {
			continue
		}
		out = append(out, e)
	}
	sortEntries(out)
	return out, nil
}

func (s *Store) GetChoreEntry(_ context.Context, id string) (core.ChoreEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return core.ChoreEntry{}, fmt.Errorf("chore entry %s: %w", id, core.ErrNotFound)
	}
	return e, nil
}

func (s *Store) CreateChoreEntry(_ context.Context, kidID string, in core.NewChoreEntry) (core.ChoreEntry, error) {
	if err := in.EntryDate.Validate(); err != nil {
		return core.ChoreEntry{}, core.ErrInvalidDate
	}
	if !in.Status.IsValid() {
		return core.ChoreEntry{}, core.ErrInvalidStatus
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.faults[OpCreateEntry]; err != nil {
		return core.ChoreEntry{}, err
	}
	c, ok := s.chores[in.ChoreID]
	if !ok || c.KidID != kidID {
		return core.ChoreEntry{}, fmt.Errorf("chore %s: %w", in.ChoreID, core.ErrNotFound)
	}
	e := core.ChoreEntry{
		ID:        uuid.NewString(),
		ChoreID:   c.ID,
		KidID:     kidID,
		EntryDate: in.EntryDate,
		ChoreType: c.Type,
		Status:    in.Status,
		Amount:    decimal.Zero,
		Notes:     strings.TrimSpace(in.Notes),
	}
	if c.Type == core.BonusChore {
		e.Amount = c.BonusAmount
	}
	s.entries[e.ID] = e
	return e, nil
}

func (s *Store) ApproveChoreEntry(_ context.Context, id string) (core.ChoreEntry, error) {
	return s.transition(id, core.Approved)
}

func (s *Store) RejectChoreEntry(_ context.Context, id string) (core.ChoreEntry, error) {
	return s.transition(id, core.Rejected)
}

func (s *Store) transition(id string, to core.ChoreStatus) (core.ChoreEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.faults[OpTransition]; err != nil {
		return core.ChoreEntry{}, err
	}
	if err := s.entryFaults[id]; err != nil {
		return core.ChoreEntry{}, err
	}
	e, ok := s.entries[id]
	if !ok {
		return core.ChoreEntry{}, fmt.Errorf("chore entry %s: %w", id, core.ErrNotFound)
	}
	switch {
	case e.Status == to:
		return e, nil
	case e.Status != core.Pending:
		return core.ChoreEntry{}, fmt.Errorf("chore entry %s is %s: %w", id, e.Status, core.ErrAlreadyResolved)
	}
	e.Status = to
	s.entries[id] = e
	return e, nil
}

func (s *Store) DeleteChoreEntry(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.faults[OpDeleteEntry]; err != nil {
		return err
	}
	if _, ok := s.entries[id]; !ok {
		return fmt.Errorf("chore entry %s: %w", id, core.ErrNotFound)
	}
	delete(s.entries, id)
	return nil
}

func (s *Store) UpsertAllowanceRule(_ context.Context, kidID string, amount decimal.Decimal, start core.Date) (core.AllowanceRule, error) {
	r := core.AllowanceRule{KidID: strings.TrimSpace(kidID), MonthlyAmount: core.RoundCents(amount), EffectiveStartDate: start}
	if err := r.Validate(); err != nil {
		return core.AllowanceRule{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.faults[OpUpsertRule]; err != nil {
		return core.AllowanceRule{}, err
	}
	s.rules[r.KidID] = r
	return r, nil
}

func (s *Store) GetAllowanceRule(_ context.Context, kidID string) (core.AllowanceRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rules[kidID]
	if !ok {
		return core.AllowanceRule{}, fmt.Errorf("allowance rule for %s: %w", kidID, core.ErrNotFound)
	}
	return r, nil
}

func (s *Store) CreateChore(_ context.Context, c core.Chore) (core.Chore, error) {
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
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chores[c.ID] = c
	return c, nil
}

func (s *Store) ListChores(_ context.Context, kidID string) ([]core.Chore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Chore
	for _, c := range s.chores {
		if c.KidID == kidID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func sortEntries(es []core.ChoreEntry) {
	sort.Slice(es, func(i, j int) bool {
		if c := es[i].EntryDate.Compare(es[j].EntryDate); c != 0 {
			return c < 0
		}
		return es[i].ID < es[j].ID
	})
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
