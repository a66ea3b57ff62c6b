package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"pocketmoney/internal/cli"
	"pocketmoney/internal/config"
	"pocketmoney/internal/core"
	"pocketmoney/internal/log"
)

var (
	flagKid     string
	flagJSON    bool
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:          "pocketctl",
	Short:        "Pocket money ledger tool",
	Long:         "Query balances and projections, approve chores and run maintenance against the configured store.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		cli.LoadEnvFile()
	}
	rootCmd.PersistentFlags().StringVarP(&flagKid, "kid", "k", "", "Kid id")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Print JSON instead of a table")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log at debug level")
}

// loadConfig reads the environment. Logs go to stderr so stdout stays
// parseable.
func loadConfig() (*config.Config, *log.Logger, error) {
	cfg, err := cli.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	lc := log.DefaultConfig()
	lc.Component = log.ComponentCLI
	lc.Output = os.Stderr
	lc.Level = cfg.Level()
	if flagVerbose {
		lc.Level = slog.LevelDebug
	}
	logger := log.New(lc)
	log.SetDefault(logger)
	return cfg, logger, nil
}

// withApp runs fn against a freshly wired application.
func withApp(ctx context.Context, fn func(ctx context.Context, app *cli.App) error) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}

func requireKid() (string, error) {
	kid := strings.TrimSpace(flagKid)
	if kid == "" {
		return "", fmt.Errorf("--kid is required")
	}
	return kid, nil
}

// dateFlag parses an optional YYYY-MM-DD flag value.
func dateFlag(name, v string, def core.Date) (core.Date, error) {
	if strings.TrimSpace(v) == "" {
		return def, nil
	}
	d, err := core.ParseDate(strings.TrimSpace(v))
	if err != nil {
		return core.Date{}, fmt.Errorf("--%s: %w", name, err)
	}
	return d, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
