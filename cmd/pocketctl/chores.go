package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"pocketmoney/internal/cli"
	"pocketmoney/internal/core"
)

var (
	flagChoreName  string
	flagChoreType  string
	flagChoreBonus string
	flagInactive   bool
)

var choresCmd = &cobra.Command{
	Use:   "chores",
	Short: "List a kid's chore catalog",
	RunE:  runChores,
}

var choresAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a chore to a kid's catalog",
	RunE:  runChoresAdd,
}

func init() {
	choresAddCmd.Flags().StringVar(&flagChoreName, "name", "", "Chore name")
	choresAddCmd.Flags().StringVar(&flagChoreType, "type", "daily", "Chore type (daily, habit, bonus)")
	choresAddCmd.Flags().StringVar(&flagChoreBonus, "bonus", "", "Payout of a bonus chore")
	choresAddCmd.Flags().BoolVar(&flagInactive, "inactive", false, "Add the chore switched off")
	_ = choresAddCmd.MarkFlagRequired("name")

	choresCmd.AddCommand(choresAddCmd)
	rootCmd.AddCommand(choresCmd)
}

func runChores(cmd *cobra.Command, _ []string) error {
	kid, err := requireKid()
	if err != nil {
		return err
	}
	return withApp(cmd.Context(), func(ctx context.Context, app *cli.App) error {
		chores, err := app.Chores.Chores(ctx, kid)
		if err != nil {
			return err
		}
		if flagJSON {
			if chores == nil {
				chores = []core.Chore{}
			}
			return printJSON(cmd.OutOrStdout(), chores)
		}
		renderChores(cmd.OutOrStdout(), chores)
		return nil
	})
}

func runChoresAdd(cmd *cobra.Command, _ []string) error {
	kid, err := requireKid()
	if err != nil {
		return err
	}
	bonus := decimal.Zero
	if flagChoreBonus != "" {
		if bonus, err = core.ParseAmount(flagChoreBonus); err != nil {
			return fmt.Errorf("--bonus: %w", err)
		}
	}
	return withApp(cmd.Context(), func(ctx context.Context, app *cli.App) error {
		chore, err := app.Chores.AddChore(ctx, core.Chore{
			KidID:       kid,
			Name:        flagChoreName,
			Type:        core.ChoreType(flagChoreType),
			BonusAmount: bonus,
			Active:      !flagInactive,
		})
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), chore)
		}
		renderChores(cmd.OutOrStdout(), []core.Chore{chore})
		return nil
	})
}

func renderChores(out io.Writer, chores []core.Chore) {
	if len(chores) == 0 {
		fmt.Fprintln(out, "No chores.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tBONUS\tACTIVE")
	for _, c := range chores {
		bonus := "-"
		if c.Type == core.BonusChore {
			bonus = core.FormatAmount(c.BonusAmount)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", c.ID, c.Name, c.Type, bonus, c.Active)
	}
	_ = w.Flush()
}
