package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyResolved  = errors.New("chore entry already resolved")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidRange     = errors.New("invalid range")
	ErrFutureEntry      = errors.New("chore entry dated in the future")
	ErrEmptyNarrative   = errors.New("empty narrative")
	ErrEmptyChoreName   = errors.New("empty chore name")
	ErrEmptyKid         = errors.New("empty kid id")
	ErrInvalidKind      = errors.New("invalid ledger entry kind")
	ErrInvalidChoreType = errors.New("invalid chore type")
	ErrInvalidStatus    = errors.New("invalid chore status")
)

// DataFetchError reports a failure retrieving ledger or overview data from
// the store. Callers degrade to empty collections and surface a warning.
type DataFetchError struct {
	Source string // "ledger", "overview", "pending"
	KidID  string
	Err    error
}

func (e *DataFetchError) Error() string {
	return fmt.Sprintf("fetch %s for kid %s: %v", e.Source, e.KidID, e.Err)
}

func (e *DataFetchError) Unwrap() error { return e.Err }

// MalformedDateError describes a record excluded from aggregation because its
// date could not be parsed.
type MalformedDateError struct {
	Kind     string // "ledger_entry" or "day_overview"
	RecordID string
	Raw      string
	Err      error
}

func (e *MalformedDateError) Error() string {
	if e.RecordID == "" {
		return fmt.Sprintf("%s with malformed date %q: %v", e.Kind, e.Raw, e.Err)
	}
	return fmt.Sprintf("%s %s with malformed date %q: %v", e.Kind, e.RecordID, e.Raw, e.Err)
}

func (e *MalformedDateError) Unwrap() error { return e.Err }

// UnreadableRecordError reports a record a source could only partly read,
// such as a sheet row whose amount does not parse. The record is excluded
// from totals and reported.
type UnreadableRecordError struct {
	Kind     string
	RecordID string
	Field    string
	Raw      string
	Err      error
}

func (e *UnreadableRecordError) Error() string {
	return fmt.Sprintf("%s %s: %s %q: %v", e.Kind, e.RecordID, e.Field, e.Raw, e.Err)
}

func (e *UnreadableRecordError) Unwrap() error { return e.Err }

// InvalidRangeError is returned when a projection is requested over an
// inverted range or with a cutoff outside of it.
type InvalidRangeError struct {
	Start  Date
	End    Date
	Cutoff Date
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range [%s, %s] cutoff %s: %s", e.Start, e.End, e.Cutoff, e.Reason)
}

func (e *InvalidRangeError) Is(target error) bool { return target == ErrInvalidRange }

// ApprovalFailure is a failed transition of a single chore entry.
type ApprovalFailure struct {
	EntryID string
	Op      string // "approve" or "reject"
	Err     error
}

func (e *ApprovalFailure) Error() string {
	return fmt.Sprintf("%s chore entry %s: %v", e.Op, e.EntryID, e.Err)
}

func (e *ApprovalFailure) Unwrap() error { return e.Err }

// BatchError collects the per-entry failures of a bulk approval. Entries not
// listed here were transitioned or skipped successfully.
type BatchError struct {
	Date     Date
	Failures []*ApprovalFailure
}

func (e *BatchError) Error() string {
	ids := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		ids[i] = f.EntryID
	}
	return fmt.Sprintf("approve all for %s: %d entries failed (%s)", e.Date, len(e.Failures), strings.Join(ids, ", "))
}

func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

// FailedIDs returns the ids of entries whose approval failed.
func (e *BatchError) FailedIDs() []string {
	ids := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		ids[i] = f.EntryID
	}
	return ids
}
