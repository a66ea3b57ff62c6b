package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pocketmoney/internal/config"
	"pocketmoney/internal/core"
	"pocketmoney/internal/log"
)

func testConfig(backend string, dir string) *config.Config {
	return &config.Config{
		DataBackend:         backend,
		LedgerSource:        "store",
		DataDirectory:       dir,
		SQLiteDBPath:        filepath.Join(dir, "pm.db"),
		Timezone:            "UTC",
		SummaryCacheSize:    4,
		SummaryCacheTTL:     time.Hour,
		ApprovalTimeout:     time.Second,
		ApprovalConcurrency: 2,
		LogLevel:            "info",
	}
}

func quietLogger() *log.Logger {
	return log.New(log.Config{Output: io.Discard})
}

func TestNewAppMemory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "seed_chores.txt"), []byte("ada|Feed cat|daily\n"), 0644); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	a, err := NewApp(ctx, testConfig("memory", dir), quietLogger())
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	defer a.Close()

	if err := a.Ready(ctx); err != nil {
		t.Errorf("Ready: %v", err)
	}
	today := a.Today()
	if d := today.DaysUntil(core.DateOf(time.Now(), time.UTC)); d < -1 || d > 1 {
		t.Errorf("today = %s", today)
	}

	chores, err := a.Chores.Chores(ctx, "ada")
	if err != nil || len(chores) != 1 {
		t.Fatalf("Chores = %v, %v", chores, err)
	}
	entry, err := a.Chores.LogChore(ctx, "ada", chores[0].ID, today, "")
	if err != nil {
		t.Fatalf("LogChore: %v", err)
	}
	if entry.Status != core.Approved {
		t.Errorf("same-day entry status = %s", entry.Status)
	}
}

func TestNewAppSQLiteIsReady(t *testing.T) {
	a, err := NewApp(context.Background(), testConfig("sqlite", t.TempDir()), quietLogger())
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	a.Caches.StartCleanup(context.Background(), time.Hour)
	if err := a.Ready(context.Background()); err != nil {
		t.Errorf("Ready: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestNewAppRejectsUnknownBackend(t *testing.T) {
	if _, err := NewApp(context.Background(), testConfig("postgres", t.TempDir()), quietLogger()); err == nil {
		t.Fatal("expected error")
	}
}
