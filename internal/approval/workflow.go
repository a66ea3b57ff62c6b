// Package approval drives chore entries through Pending -> Approved|Rejected.
package approval

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"pocketmoney/internal/core"
	"pocketmoney/internal/log"
)

// DefaultTimeout bounds a single transition against the store.
const DefaultTimeout = 10 * time.Second

// Transitioner performs single-entry transitions on the remote store.
// Implementations must treat a repeated transition to the current state as a
// no-op success and return core.ErrAlreadyResolved for the opposite one.
type Transitioner interface {
	ApproveChoreEntry(ctx context.Context, id string) (core.ChoreEntry, error)
	RejectChoreEntry(ctx context.Context, id string) (core.ChoreEntry, error)
}

// BatchResult lists what ApproveAllForDate did with every entry it was given.
type BatchResult struct {
	Date     core.Date `json:"date"`
	Approved []string  `json:"approved"`
	Skipped  []string  `json:"skipped"`
	Failed   []string  `json:"failed"`
}

// Workflow runs approvals against a Transitioner.
type Workflow struct {
	store       Transitioner
	timeout     time.Duration
	concurrency int
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(w *Workflow) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithConcurrency caps the number of approvals in flight. Zero means no cap.
func WithConcurrency(n int) Option {
	return func(w *Workflow) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

func New(store Transitioner, opts ...Option) *Workflow {
	w := &Workflow{store: store, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Approve transitions one entry to Approved. Failures are returned as
// *core.ApprovalFailure carrying the entry id.
func (w *Workflow) Approve(ctx context.Context, id string) (core.ChoreEntry, error) {
	return w.transition(ctx, "approve", id, w.store.ApproveChoreEntry)
}

// Reject transitions one entry to Rejected.
func (w *Workflow) Reject(ctx context.Context, id string) (core.ChoreEntry, error) {
	return w.transition(ctx, "reject", id, w.store.RejectChoreEntry)
}

// ApproveAllForDate approves every Pending entry dated date, concurrently.
//
// Each approval succeeds or fails on its own: a failure never cancels its
// siblings and already-approved entries stay approved. Entries that are not
// Pending or belong to another date are skipped, so a retry over a fresh
// pending list only re-attempts what failed. When any approval fails the
// returned error is a *core.BatchError naming every failed entry.
//
// Cancelling ctx does not abandon requests already sent: a store-side write
// may have taken effect, so each runs to completion or to its own timeout.
func (w *Workflow) ApproveAllForDate(ctx context.Context, date core.Date, entries []core.ChoreEntry) (BatchResult, error) {
	res := BatchResult{Date: date, Approved: []string{}, Skipped: []string{}, Failed: []string{}}

	var todo []core.ChoreEntry
	for _, e := range entries {
		if e.Status != core.Pending || !e.EntryDate.Equal(date) {
			res.Skipped = append(res.Skipped, e.ID)
			continue
		}
		todo = append(todo, e)
	}
	if len(todo) == 0 {
		return res, nil
	}

	// One slot per entry; goroutines never share a slot.
	failures := make([]*core.ApprovalFailure, len(todo))

	var g errgroup.Group
	if w.concurrency > 0 {
		g.SetLimit(w.concurrency)
	}
	for i, e := range todo {
		g.Go(func() error {
			if _, err := w.Approve(ctx, e.ID); err != nil {
				failures[i] = err.(*core.ApprovalFailure)
				return err
			}
			return nil
		})
	}
	// Wait only reports the first failure; the slots hold all of them.
	_ = g.Wait()

	batchErr := &core.BatchError{Date: date}
	for i, e := range todo {
		if f := failures[i]; f != nil {
			res.Failed = append(res.Failed, e.ID)
			batchErr.Failures = append(batchErr.Failures, f)
			continue
		}
		res.Approved = append(res.Approved, e.ID)
	}

	if len(batchErr.Failures) > 0 {
		slog.WarnContext(ctx, "Bulk approval partially failed",
			"date", date.String(),
			"approved", len(res.Approved),
			"failed", res.Failed)
		return res, batchErr
	}
	slog.InfoContext(ctx, "Bulk approval completed",
		"date", date.String(),
		"approved", len(res.Approved),
		"skipped", len(res.Skipped))
	return res, nil
}

func (w *Workflow) transition(
	ctx context.Context,
	op, id string,
	fn func(context.Context, string) (core.ChoreEntry, error),
) (core.ChoreEntry, error) {
	if id == "" {
		return core.ChoreEntry{}, &core.ApprovalFailure{EntryID: id, Op: op, Err: core.ErrNotFound}
	}

	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.timeout)
	defer cancel()

	entry, err := fn(reqCtx, id)
	if err != nil {
		slog.ErrorContext(ctx, "Chore entry transition failed",
			"op", op,
			log.FieldEntryID, id,
			log.FieldError, err)
		return core.ChoreEntry{}, &core.ApprovalFailure{EntryID: id, Op: op, Err: err}
	}
	return entry, nil
}
