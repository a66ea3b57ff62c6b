package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"pocketmoney/internal/core"
)

// execute runs pocketctl with args against a fresh flag state.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	flagKid, flagJSON, flagVerbose = "", false, false
	flagChoreName, flagChoreType, flagChoreBonus, flagInactive = "", "daily", "", false

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestChoresAddOnSQLite(t *testing.T) {
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(t.TempDir(), "pm.db"))
	t.Setenv("LEDGER_SOURCE", "store")
	t.Setenv("AMQP_URL", "")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("LOG_LEVEL", "error")

	out, err := execute(t, "chores", "add", "--kid", "ada", "--name", "Wash car", "--type", "bonus", "--bonus", "2,50", "--json")
	if err != nil {
		t.Fatalf("chores add: %v", err)
	}
	var car core.Chore
	if err := json.Unmarshal([]byte(out), &car); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if car.ID == "" || car.KidID != "ada" || car.Type != core.BonusChore || !car.BonusAmount.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("chore = %+v", car)
	}

	if _, err := execute(t, "chores", "add", "--kid", "ada", "--name", "Make bed"); err != nil {
		t.Fatalf("chores add daily: %v", err)
	}

	out, err = execute(t, "chores", "--kid", "ada")
	if err != nil {
		t.Fatalf("chores: %v", err)
	}
	for _, want := range []string{"Wash car", "2.50", "Make bed", "daily"} {
		if !strings.Contains(out, want) {
			t.Errorf("listing missing %q:\n%s", want, out)
		}
	}

	if _, err := execute(t, "chores", "add", "--kid", "ada", "--name", "Dishes", "--type", "weekly"); !errors.Is(err, core.ErrInvalidChoreType) {
		t.Errorf("bad type err = %v", err)
	}
	if _, err := execute(t, "chores", "add", "--name", "Dishes"); err == nil {
		t.Error("add without --kid succeeded")
	}
}

func TestRenderChoresEmpty(t *testing.T) {
	var buf bytes.Buffer
	renderChores(&buf, nil)
	if strings.TrimSpace(buf.String()) != "No chores." {
		t.Errorf("output = %q", buf.String())
	}
}
