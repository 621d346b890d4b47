package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"meloch/internal/app"
	"meloch/internal/models"
)

func newExportCommand() *cobra.Command {
	var email, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a user's backup file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd.Context(), email, func(ctx context.Context, a *app.App, user *models.User) error {
				data, err := a.Backups.Export(ctx, user.ID)
				if err != nil {
					return err
				}
				if out == "" || out == "-" {
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				if err := os.WriteFile(out, data, 0o600); err != nil {
					return fmt.Errorf("writing %s: %w", out, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", out)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	_ = cmd.MarkFlagRequired("email")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, stdout when empty")

	return cmd
}

func newImportCommand() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace a user's data with a backup file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			return withUser(cmd.Context(), email, func(ctx context.Context, a *app.App, user *models.User) error {
				result, err := a.Backups.Import(ctx, user.ID, data)
				if err != nil {
					return err
				}
				a.Audit.Log(user.ID, "IMPORT_BACKUP", "ledger", "", "cli", map[string]any{
					"transactions": result.Transactions,
					"cards":        result.Cards,
				})
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
