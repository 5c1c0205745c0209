package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/timebank/internal/infrastructure/postgres"
)

func migrateCmd() *cobra.Command {
	var databaseURL, migrationsPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres connection string")
	cmd.PersistentFlags().StringVar(&migrationsPath, "migrations", envOr("MIGRATIONS_PATH", "internal/infrastructure/postgres/migrations"), "Migrations directory")

	migrator := func(cmd *cobra.Command) (*postgres.Migrator, error) {
		if databaseURL == "" {
			return nil, fmt.Errorf("--database-url or DATABASE_URL is required")
		}
		logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).With().Timestamp().Logger()
		return postgres.NewMigrator(databaseURL, migrationsPath, logger), nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := migrator(cmd)
			if err != nil {
				return err
			}
			return m.Up()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := migrator(cmd)
			if err != nil {
				return err
			}
			return m.Down()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := migrator(cmd)
			if err != nil {
				return err
			}
			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %v)\n", version, dirty)
			return nil
		},
	})

	return cmd
}
