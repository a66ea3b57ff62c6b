package backend

import (
	"errors"
	"fmt"

	"pocketmoney/internal/config"
)

// Config holds configuration for backend creation
type Config struct {
	Type         BackendType
	LedgerSource LedgerSource

	// SQLite
	SQLiteDBPath string

	// Memory backend seed directory
	DataDirectory string

	// AMQP, optional
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	// Google Sheets ledger
	GoogleSpreadsheetID   string
	GoogleLedgerSheetName string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	cfg := Config{
		Type:                  BackendType(appConfig.DataBackend),
		LedgerSource:          LedgerSource(appConfig.LedgerSource),
		SQLiteDBPath:          appConfig.SQLiteDBPath,
		DataDirectory:         appConfig.DataDirectory,
		AMQPURL:               appConfig.AMQPURL,
		AMQPExchange:          appConfig.AMQPExchange,
		AMQPRoutingKey:        appConfig.AMQPRoutingKey,
		GoogleSpreadsheetID:   appConfig.GoogleSpreadsheetID,
		GoogleLedgerSheetName: appConfig.GoogleLedgerSheetName,
	}
	if cfg.LedgerSource == "" {
		cfg.LedgerSource = LedgerFromStore
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if !c.LedgerSource.IsValid() {
		return fmt.Errorf("invalid ledger source: %s", c.LedgerSource)
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return errors.New("SQLite database path is required for sqlite backend")
	}
	if c.LedgerSource == LedgerFromSheets && c.GoogleSpreadsheetID == "" {
		return errors.New("Google Spreadsheet ID is required for the sheets ledger source")
	}
	return nil
}
