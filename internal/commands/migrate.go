package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"meloch/internal/config"
	"meloch/internal/database"
	"meloch/internal/logger"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DBDriver != config.DriverPostgres {
				// SQLite schemas follow the models.
				m, err := database.NewManager(cfg)
				if err != nil {
					return err
				}
				defer m.Close()
				return m.Migrate()
			}
			return database.RunMigrations(cfg.PostgresURL())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down [N]",
		Short: "Roll back N migrations (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				steps = n
			}
			return withMigrate(func(m *migrate.Migrate) error {
				if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
					return fmt.Errorf("migration down failed: %w", err)
				}
				logger.Get().Infof("Rolled back %d migration(s)", steps)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrate(func(m *migrate.Migrate) error {
				version, dirty, err := m.Version()
				if err != nil {
					return fmt.Errorf("failed to get version: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d dirty %v\n", version, dirty)
				return nil
			})
		},
	})

	return cmd
}

// withMigrate runs fn against the embedded SQL migrations. Only Postgres
// keeps a migration history.
func withMigrate(fn func(*migrate.Migrate) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DBDriver != config.DriverPostgres {
		return fmt.Errorf("migration history is only kept for postgres, DB_DRIVER is %s", cfg.DBDriver)
	}
	m, err := database.NewMigrate(cfg.PostgresURL())
	if err != nil {
		return err
	}
	defer database.CloseMigrate(m)
	return fn(m)
}
