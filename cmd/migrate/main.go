package main

import (
	"fmt"
	"os"
	"strconv"

	"shoppinglist/internal/migration"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// migratorFunc opens the migrator for a single command
type migratorFunc func() (*migration.Migrator, error)

func newRootCmd() *cobra.Command {
	open := migratorFunc(migration.NewFromEnv)

	root := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the shopping list PostgreSQL schema",
		Long: `Applies the kv_entries schema used by the postgres persistence backend.

Connection settings come from DB_HOST, DB_PORT, DB_USER, DB_PASSWORD,
DB_NAME (default: shoppinglist) and DB_SSL_MODE.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: withMigrator(open, func(cmd *cobra.Command, m *migration.Migrator, _ []string) error {
				if err := m.Up(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "✅ Migrations applied successfully")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			Args:  cobra.NoArgs,
			RunE: withMigrator(open, func(cmd *cobra.Command, m *migration.Migrator, _ []string) error {
				if err := m.Down(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "✅ Migration rolled back successfully")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show the current migration version",
			Args:  cobra.NoArgs,
			RunE: withMigrator(open, func(cmd *cobra.Command, m *migration.Migrator, _ []string) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if dirty {
					fmt.Fprintf(out, "Current version: %d (dirty)\n", version)
					fmt.Fprintln(out, "⚠️  Warning: Database is in a dirty state. Use 'force' command to fix.")
					return nil
				}
				fmt.Fprintf(out, "Current version: %d\n", version)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "steps <n>",
			Short: "Run n migrations (positive = up, negative = down)",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(open, func(cmd *cobra.Command, m *migration.Migrator, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid number of steps: %w", err)
				}
				if err := m.Steps(n); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✅ Successfully ran %d migration steps\n", n)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Set the migration version without running migrations",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(open, func(cmd *cobra.Command, m *migration.Migrator, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version number: %w", err)
				}
				if err := m.Force(version); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✅ Forced migration version to %d\n", version)
				return nil
			}),
		},
	)

	return root
}

func withMigrator(open migratorFunc, fn func(*cobra.Command, *migration.Migrator, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		m, err := open()
		if err != nil {
			return fmt.Errorf("failed to create migrator: %w", err)
		}
		defer m.Close()
		return fn(cmd, m, args)
	}
}
