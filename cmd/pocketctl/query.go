package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pocketmoney/internal/cli"
	"pocketmoney/internal/core"
	"pocketmoney/internal/services"
)

var (
	flagMonth string
	flagToday string
	flagDate  string
	flagType  string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Current and projected balance for a month",
	RunE:  runSummary,
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Balance at the end of a date and that day's movements",
	RunE:  runBalance,
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Chore entries waiting for approval",
	RunE:  runPending,
}

func init() {
	summaryCmd.Flags().StringVar(&flagMonth, "month", "", "Month as YYYY-MM (default: current month)")
	summaryCmd.Flags().StringVar(&flagToday, "today", "", "Evaluate as of this YYYY-MM-DD date")
	balanceCmd.Flags().StringVar(&flagDate, "date", "", "Date as YYYY-MM-DD (default: today)")
	pendingCmd.Flags().StringVar(&flagType, "type", "", "Only entries of this chore type (daily, habit, bonus)")

	rootCmd.AddCommand(summaryCmd, balanceCmd, pendingCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	kid, err := requireKid()
	if err != nil {
		return err
	}
	return withApp(cmd.Context(), func(ctx context.Context, app *cli.App) error {
		today, err := dateFlag("today", flagToday, app.Today())
		if err != nil {
			return err
		}
		month := core.MonthOf(today)
		if flagMonth != "" {
			if month, err = core.ParseMonth(flagMonth); err != nil {
				return fmt.Errorf("--month: %w", err)
			}
		}
		sum, err := app.Summaries.Summary(ctx, kid, month, today)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), sum)
		}
		renderSummary(cmd.OutOrStdout(), sum)
		return nil
	})
}

func renderSummary(out io.Writer, sum services.Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Kid\t%s\n", sum.KidID)
	fmt.Fprintf(w, "Month\t%s (cutoff %s)\n", sum.Month, sum.Cutoff)
	fmt.Fprintf(w, "Current\t%s\n", core.FormatAmount(sum.CurrentTotal))
	fmt.Fprintf(w, "Projected\t%s\n", core.FormatAmount(sum.ProjectedTotal))
	fmt.Fprintf(w, "Accrued\t%s\n", core.FormatAmount(sum.AccruedThroughCutoff))
	fmt.Fprintf(w, "Daily slice\t%s (remainder %s)\n", core.FormatAmount(sum.DailySlice), core.FormatAmount(sum.AllowanceRemainder))
	fmt.Fprintf(w, "Remaining days\t%d\n", sum.RemainingDays)
	_ = w.Flush()

	if sum.Degraded {
		fmt.Fprintln(out, "\nDEGRADED: store data was unavailable")
		if sum.LastGood != nil {
			fmt.Fprintf(out, "Last good projection: current %s, projected %s\n",
				core.FormatAmount(sum.LastGood.CurrentTotal), core.FormatAmount(sum.LastGood.ProjectedTotal))
		}
	}
	for _, warn := range sum.Warnings {
		fmt.Fprintf(out, "warning [%s]: %s\n", warn.Code, warn.Message)
	}
}

func runBalance(cmd *cobra.Command, _ []string) error {
	kid, err := requireKid()
	if err != nil {
		return err
	}
	return withApp(cmd.Context(), func(ctx context.Context, app *cli.App) error {
		date, err := dateFlag("date", flagDate, app.Today())
		if err != nil {
			return err
		}
		b, err := app.Summaries.BalanceOn(ctx, kid, date)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), b)
		}
		renderBalance(cmd.OutOrStdout(), b)
		return nil
	})
}

func renderBalance(out io.Writer, b services.Balance) {
	fmt.Fprintf(out, "%s on %s: %s (in %s, out %s)\n",
		b.KidID, b.Date, core.FormatAmount(b.Balance), core.FormatAmount(b.MoneyIn), core.FormatAmount(b.MoneyOut))
	if len(b.Entries) == 0 {
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tAMOUNT\tNARRATIVE")
	for _, e := range b.Entries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Kind, core.FormatAmount(e.Amount), e.Narrative)
	}
	_ = w.Flush()
	for _, warn := range b.Warnings {
		fmt.Fprintf(out, "warning [%s]: %s\n", warn.Code, warn.Message)
	}
}

func runPending(cmd *cobra.Command, _ []string) error {
	kid, err := requireKid()
	if err != nil {
		return err
	}
	var choreType *core.ChoreType
	if flagType != "" {
		t := core.ChoreType(flagType)
		choreType = &t
	}
	return withApp(cmd.Context(), func(ctx context.Context, app *cli.App) error {
		entries, err := app.Chores.Pending(ctx, kid, choreType)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), entries)
		}
		renderEntries(cmd.OutOrStdout(), entries)
		return nil
	})
}

func renderEntries(out io.Writer, entries []core.ChoreEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "Nothing waiting for approval.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTYPE\tAMOUNT\tNOTES")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.EntryDate, e.ChoreType, core.FormatAmount(e.Amount), e.Notes)
	}
	_ = w.Flush()
}
