package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"pocketmoney/internal/amqp"
	"pocketmoney/internal/log"
	gsheet "pocketmoney/internal/sheets/google"
	"pocketmoney/internal/store"
	"pocketmoney/internal/store/memory"
	"pocketmoney/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		st      store.Store
		cleanup []func() error
	)
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		st = repo
		cleanup = append(cleanup, repo.Close)
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		dataDir := config.DataDirectory
		if dataDir == "" {
			dataDir = "data"
		}
		mem, err := memory.NewFromFiles(dataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to seed memory backend: %w", err)
		}
		st = mem
		f.logger.InfoContext(ctx, "Initialized memory backend", "data_directory", dataDir)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	b := &Backend{Store: st, Ledger: st}

	if config.LedgerSource == LedgerFromSheets {
		sheets, err := gsheet.NewClient(ctx, config.GoogleSpreadsheetID, config.GoogleLedgerSheetName)
		if err != nil {
			closeAll(cleanup)
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		b.Ledger = sheets
		f.logger.InfoContext(ctx, "Reading ledger from Google Sheets", "spreadsheet_id", config.GoogleSpreadsheetID)
	}

	// Events are optional: a broker outage must not keep the service down.
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPRoutingKey)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		} else {
			b.Events = client
			cleanup = append(cleanup, client.Close)
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"routing_key", config.AMQPRoutingKey)
		}
	}

	b.Cleanup = func() error { return closeAll(cleanup) }
	return b, nil
}

// closeAll runs cleanups in reverse order and joins their errors.
func closeAll(fns []func() error) error {
	var errs []error
	for i := len(fns) - 1; i >= 0; i-- {
		if err := fns[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
