package commands

import (
	"context"

	"github.com/spf13/cobra"

	"meloch/internal/app"
	"meloch/internal/models"
)

// newResetAccountingCommand starts a new budget period without touching the
// balance, for ledgers whose balance was already corrected by hand.
func newResetAccountingCommand() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "reset-accounting",
		Short: "Start a new budget period without deducting the budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), email, func(ctx context.Context, a *app.App, user *models.User) error {
				summary, err := a.Ledgers.ResetBudgetAccounting(ctx, user.ID)
				if err != nil {
					return err
				}
				a.Audit.Log(user.ID, "RESET_ACCOUNTING", "ledger", "", "cli", nil)
				return printJSON(cmd.OutOrStdout(), summary)
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newSummaryCommand() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print a user's dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), email, func(ctx context.Context, a *app.App, user *models.User) error {
				dashboard, err := a.Ledgers.GetDashboard(ctx, user.ID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), dashboard)
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
