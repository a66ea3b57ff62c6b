package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"pocketmoney/internal/approval"
	"pocketmoney/internal/cli"
	"pocketmoney/internal/core"
)

var approveAllCmd = &cobra.Command{
	Use:   "approve-all",
	Short: "Approve every pending chore entry of a date",
	Long: "Approve every pending chore entry of a kid on one date. Entries that fail are\n" +
		"reported and left pending; running the command again only retries those.",
	RunE: runApproveAll,
}

var approveCmd = &cobra.Command{
	Use:   "approve <entry-id>...",
	Short: "Approve chore entries",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransition(cmd, args, "approve")
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject <entry-id>...",
	Short: "Reject chore entries",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransition(cmd, args, "reject")
	},
}

func init() {
	approveAllCmd.Flags().StringVar(&flagDate, "date", "", "Date as YYYY-MM-DD (required)")
	rootCmd.AddCommand(approveAllCmd, approveCmd, rejectCmd)
}

func runApproveAll(cmd *cobra.Command, _ []string) error {
	kid, err := requireKid()
	if err != nil {
		return err
	}
	if strings.TrimSpace(flagDate) == "" {
		return fmt.Errorf("--date is required")
	}
	date, err := dateFlag("date", flagDate, core.Date{})
	if err != nil {
		return err
	}
	return withApp(cmd.Context(), func(ctx context.Context, app *cli.App) error {
		res, err := app.Chores.ApproveAllForDate(ctx, kid, date)
		var batchErr *core.BatchError
		if err != nil && !errors.As(err, &batchErr) {
			return err
		}
		if flagJSON {
			if perr := printJSON(cmd.OutOrStdout(), res); perr != nil {
				return perr
			}
		} else {
			renderBatch(cmd.OutOrStdout(), res, batchErr)
		}
		return err
	})
}

func renderBatch(out io.Writer, res approval.BatchResult, batchErr *core.BatchError) {
	fmt.Fprintf(out, "%s: %d approved, %d already resolved, %d failed\n",
		res.Date, len(res.Approved), len(res.Skipped), len(res.Failed))
	if batchErr == nil {
		return
	}
	for _, f := range batchErr.Failures {
		fmt.Fprintf(out, "  %s: %v\n", f.EntryID, f.Err)
	}
}

func runTransition(cmd *cobra.Command, ids []string, op string) error {
	return withApp(cmd.Context(), func(ctx context.Context, app *cli.App) error {
		var errs []error
		for _, id := range ids {
			var (
				entry core.ChoreEntry
				err   error
			)
			if op == "approve" {
				entry, err = app.Chores.Approve(ctx, id)
			} else {
				entry, err = app.Chores.Reject(ctx, id)
			}
			if err != nil {
				errs = append(errs, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", entry.ID, entry.Status)
		}
		return errors.Join(errs...)
	})
}
