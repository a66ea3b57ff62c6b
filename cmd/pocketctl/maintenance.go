package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pocketmoney/internal/amqp"
	"pocketmoney/internal/core"
	gsheet "pocketmoney/internal/sheets/google"
	"pocketmoney/internal/storage"
)

var flagStatusOnly bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending SQLite migrations",
	RunE:  runMigrate,
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print ledger and chore events as they are published",
	RunE:  runEvents,
}

func init() {
	migrateCmd.Flags().BoolVar(&flagStatusOnly, "status", false, "Only print the current schema version")
	rootCmd.AddCommand(migrateCmd, eventsCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DataBackend != "sqlite" {
		return fmt.Errorf("migrations need DATA_BACKEND=sqlite, got %q", cfg.DataBackend)
	}
	if !flagStatusOnly {
		if err := storage.RunMigrations(cfg.SQLiteDBPath); err != nil {
			return err
		}
		logger.Info("Migrations applied", "db_path", cfg.SQLiteDBPath)
	}
	version, dirty, err := storage.MigrationStatus(cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty: %t)\n", version, dirty)
	return nil
}

// runEvents tails the exchange until interrupted. --kid filters by kid.
func runEvents(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.AMQPURL == "" {
		return fmt.Errorf("AMQP_URL is not set")
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
	if err != nil {
		return err
	}
	defer client.Close()

	logger.Info("Listening for events", "exchange", cfg.AMQPExchange, "routing_key", cfg.AMQPRoutingKey)
	out := cmd.OutOrStdout()
	err = client.ConsumeEvents(cmd.Context(), func(e *amqp.Event) error {
		if flagKid != "" && e.KidID != flagKid {
			return nil
		}
		if flagJSON {
			return printJSON(out, e)
		}
		line := fmt.Sprintf("%s %-24s kid=%s", e.Timestamp.Format("2006-01-02 15:04:05"), e.Type, e.KidID)
		if e.EntryID != "" {
			line += " entry=" + e.EntryID
		}
		if e.Date != "" {
			line += " date=" + e.Date
		}
		if e.Status != "" {
			line += " status=" + e.Status
		}
		if e.Amount != nil {
			line += " amount=" + core.FormatAmount(*e.Amount)
		}
		_, err := fmt.Fprintln(out, line)
		return err
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

var flagRedirectPort string

var sheetsAuthCmd = &cobra.Command{
	Use:   "sheets-auth",
	Short: "Authorize read access to the ledger spreadsheet with a Google account",
	Long: "Runs the OAuth consent flow for the client in GOOGLE_OAUTH_CLIENT_JSON or\n" +
		"GOOGLE_OAUTH_CLIENT_FILE and saves the token to GOOGLE_OAUTH_TOKEN_FILE\n" +
		"(default token.json). The redirect URI http://127.0.0.1:<port>/callback must\n" +
		"be allowed for the client.",
	RunE: runSheetsAuth,
}

func init() {
	sheetsAuthCmd.Flags().StringVar(&flagRedirectPort, "port", "8085", "Local port receiving the OAuth redirect")
	rootCmd.AddCommand(sheetsAuthCmd)
}

func runSheetsAuth(cmd *cobra.Command, _ []string) error {
	cfg, err := gsheet.OAuthConfigFromEnv()
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", "localhost:"+flagRedirectPort)
	if err != nil {
		return fmt.Errorf("listen for redirect: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()
	out := cmd.OutOrStdout()
	tok, err := gsheet.Authorize(ctx, cfg, ln, func(url string) {
		fmt.Fprintf(out, "Open this URL to authorize:\n%s\n", url)
	})
	if err != nil {
		return err
	}

	path := os.Getenv("GOOGLE_OAUTH_TOKEN_FILE")
	if path == "" {
		path = "token.json"
	}
	if err := gsheet.SaveToken(path, tok); err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved token to %s\n", path)
	return nil
}
