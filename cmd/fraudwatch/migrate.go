package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Veraticus/fraudwatch/internal/cli"
	"github.com/Veraticus/fraudwatch/internal/storage"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

This command ensures your local database has the users and transactions
tables the application needs. An existing database is backed up first.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")
	cmd.Flags().Bool("no-backup", false, "Skip the automatic backup before migrating")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")
	noBackup, _ := cmd.Flags().GetBool("no-backup")
	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	app, err := loadApp()
	if err != nil {
		return err
	}

	_, statErr := os.Stat(app.DatabasePath)
	existed := statErr == nil

	slog.Info("Starting database migration",
		"database", app.DatabasePath,
		"status_only", status)

	store, err := storage.NewSQLiteStorage(app.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	current, err := store.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	if status {
		fmt.Fprintln(out, cli.FormatTitle("Database Migration Status"))
		fmt.Fprintf(out, "  Database: %s\n", app.DatabasePath)
		fmt.Fprintf(out, "  Current version: %d\n", current)
		fmt.Fprintf(out, "  Latest version:  %d\n", storage.ExpectedSchemaVersion)
		if current < storage.ExpectedSchemaVersion {
			fmt.Fprintln(out, cli.FormatWarning("Migrations pending. Run 'fraudwatch migrate'."))
		} else {
			fmt.Fprintln(out, cli.FormatSuccess("Up to date."))
		}
		return nil
	}

	if current >= storage.ExpectedSchemaVersion {
		fmt.Fprintln(out, cli.FormatSuccess("Database schema is already up to date."))
		return nil
	}

	if existed && !noBackup {
		manager, err := store.NewBackupManager()
		if err != nil {
			return fmt.Errorf("failed to create backup manager: %w", err)
		}
		info, err := manager.AutoBackup(ctx, "migrate")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s Backed up database to %s\n", cli.SuccessStyle.Render("✓"), cli.InfoStyle.Render(info.ID))
	}

	fmt.Fprintln(out, cli.FormatInfo(cli.FolderIcon+"  Running database migrations..."))
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Fprintln(out, cli.FormatSuccess("Database migrations completed successfully!"))
	return nil
}
