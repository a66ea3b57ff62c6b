package backend

import (
	"context"

	"pocketmoney/internal/services"
	"pocketmoney/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Backend bundles the store a process runs against.
type Backend struct {
	// Store handles every read and write.
	Store   store.Store
	// Ledger serves ledger reads. It is Store unless the ledger comes from a
	// spreadsheet.
	Ledger  store.LedgerReader
	// Events is nil when AMQP is not configured or unreachable.
	Events  services.Publisher
	Cleanup CleanupFunc
}

// Close runs the cleanup function, if any.
func (b *Backend) Close() error {
	if b == nil || b.Cleanup == nil {
		return nil
	}
	return b.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Backend, error)
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// LedgerSource selects where ledger reads come from.
type LedgerSource string

const (
	LedgerFromStore  LedgerSource = "store"
	LedgerFromSheets LedgerSource = "sheets"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

func (s LedgerSource) IsValid() bool {
	return s == LedgerFromStore || s == LedgerFromSheets
}
