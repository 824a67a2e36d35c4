package cmd

import (
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/forgebot/internal/config"
	"github.com/nextlevelbuilder/forgebot/internal/eventlog"
)

// resolveEventLogPath loads the configured db_path for the local event
// outbox (§7), expanding a leading "~".
func resolveEventLogPath() (string, error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	return config.ExpandHome(cfg.EventLog.DBPath), nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Event-outbox database migration management",
	}
	cmd.AddCommand(migrateUpCmd())
	cmd.AddCommand(migrateVersionCmd())
	cmd.AddCommand(migrateDropCmd())
	return cmd
}

func migrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveEventLogPath()
			if err != nil {
				return err
			}
			if err := eventlog.Migrate(path); err != nil {
				return fmt.Errorf("migrate up: %w", err)
			}
			slog.Info("event outbox schema up to date", "path", path)
			return nil
		},
	}
}

func migrateVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveEventLogPath()
			if err != nil {
				return err
			}
			m, err := eventlog.NewMigrator(path)
			if err != nil {
				return err
			}
			defer m.Close()

			v, dirty, err := m.Version()
			if err != nil {
				return fmt.Errorf("get version: %w", err)
			}
			fmt.Printf("version: %d, dirty: %v\n", v, dirty)
			return nil
		},
	}
}

func migrateDropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drop",
		Short: "Drop the event-outbox table (DANGEROUS)",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveEventLogPath()
			if err != nil {
				return err
			}
			m, err := eventlog.NewMigrator(path)
			if err != nil {
				return err
			}
			defer m.Close()

			if err := m.Drop(); err != nil && err != migrate.ErrNoChange {
				return fmt.Errorf("drop: %w", err)
			}
			slog.Info("event outbox table dropped")
			return nil
		},
	}
}
