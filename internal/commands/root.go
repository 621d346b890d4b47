// Package commands implements the melochctl command line tool.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"meloch/internal/app"
	"meloch/internal/config"
	"meloch/internal/models"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "melochctl",
		Short:   "Administer a Meloch deployment",
		Version: Version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newExportCommand())
	rootCmd.AddCommand(newImportCommand())
	rootCmd.AddCommand(newResetAccountingCommand())
	rootCmd.AddCommand(newSummaryCommand())

	return rootCmd
}

// openApp loads configuration from the environment and wires the services.
var openApp = func() (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return app.New(cfg)
}

// withUser opens the app, resolves email and runs fn.
func withUser(ctx context.Context, email string, fn func(ctx context.Context, a *app.App, user *models.User) error) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.Users.GetUserByEmail(email)
	if err != nil {
		return fmt.Errorf("looking up %s: %w", email, err)
	}
	return fn(ctx, a, user)
}
