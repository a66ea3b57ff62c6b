package backend

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pocketmoney/internal/config"
)

func TestCreateMemoryBackendSeedsChores(t *testing.T) {
	dir := t.TempDir()
	seed := "# kid|name|type|bonus\nada|Make bed|daily\nada|Wash car|bonus|2.50\n"
	if err := os.WriteFile(filepath.Join(dir, "seed_chores.txt"), []byte(seed), 0644); err != nil {
		t.Fatal(err)
	}

	b, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type:          MemoryBackend,
		LedgerSource:  LedgerFromStore,
		DataDirectory: dir,
	})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer b.Close()

	chores, err := b.Store.ListChores(context.Background(), "ada")
	if err != nil || len(chores) != 2 {
		t.Fatalf("ListChores = %v, %v", chores, err)
	}
	if b.Events != nil {
		t.Errorf("events enabled without AMQP_URL")
	}
	if b.Ledger != b.Store {
		t.Errorf("ledger reads should come from the store")
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "pm.db")
	b, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type:         SQLiteBackend,
		LedgerSource: LedgerFromStore,
		SQLiteDBPath: path,
	})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file not created: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"unknown type", Config{Type: "postgres", LedgerSource: LedgerFromStore}, "invalid backend type"},
		{"sqlite without path", Config{Type: SQLiteBackend, LedgerSource: LedgerFromStore}, "SQLite database path"},
		{"sheets without id", Config{Type: MemoryBackend, LedgerSource: LedgerFromSheets}, "Spreadsheet ID"},
		{"bad ledger source", Config{Type: MemoryBackend, LedgerSource: "csv"}, "invalid ledger source"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFactory(nil).CreateBackend(context.Background(), tt.cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	cfg, err := FromAppConfig(&config.Config{DataBackend: "memory", DataDirectory: "seed"})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != MemoryBackend || cfg.LedgerSource != LedgerFromStore || cfg.DataDirectory != "seed" {
		t.Errorf("cfg = %+v", cfg)
	}
}
