package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/fraudwatch/internal/cli"
	"github.com/Veraticus/fraudwatch/internal/storage"
	"github.com/spf13/cobra"
)

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage database backups",
		Long: `Create, list, restore, and delete backups of the credential store.

Backups are consistent copies of the SQLite database kept in a backups
directory next to it. Migrations take one automatically.`,
		Example: `  # Back up before handing the database to someone else
  fraudwatch backup create --tag "pre-audit"

  # List all backups
  fraudwatch backup list

  # Restore from a backup
  fraudwatch backup restore pre-audit`,
	}

	cmd.AddCommand(createBackupCmd())
	cmd.AddCommand(listBackupsCmd())
	cmd.AddCommand(restoreBackupCmd())
	cmd.AddCommand(deleteBackupCmd())

	return cmd
}

// openBackups opens storage and its backup manager.
func openBackups(ctx context.Context) (*storage.SQLiteStorage, *storage.BackupManager, error) {
	app, err := loadApp()
	if err != nil {
		return nil, nil, err
	}
	store, err := initStorage(ctx, app)
	if err != nil {
		return nil, nil, err
	}
	manager, err := store.NewBackupManager()
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to create backup manager: %w", err)
	}
	return store, manager, nil
}

func findBackup(ctx context.Context, manager *storage.BackupManager, id string) (*storage.BackupInfo, error) {
	backups, err := manager.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range backups {
		if backups[i].ID == id {
			return &backups[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", storage.ErrBackupNotFound, id)
}

func createBackupCmd() *cobra.Command {
	var tag string
	var description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new backup",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, manager, err := openBackups(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			info, err := manager.Create(ctx, tag, description)
			if err != nil {
				return fmt.Errorf("failed to create backup: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s Created backup %s (%s, %d users, %d predictions)\n",
				cli.SuccessStyle.Render("✓"),
				cli.InfoStyle.Render(info.ID),
				formatFileSize(info.FileSize),
				info.Users,
				info.Predictions)
			if info.Description != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "  Description: %s\n", info.Description)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&tag, "tag", "t", "", "Backup name (auto-generated if not provided)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Description of the backup")

	return cmd
}

func listBackupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all backups",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, manager, err := openBackups(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			backups, err := manager.List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list backups: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(backups) == 0 {
				fmt.Fprintln(out, cli.SubtitleStyle.Render("No backups found."))
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, strings.Join([]string{
				cli.TableHeaderStyle.Render("NAME"),
				cli.TableHeaderStyle.Render("CREATED"),
				cli.TableHeaderStyle.Render("SIZE"),
				cli.TableHeaderStyle.Render("USERS"),
				cli.TableHeaderStyle.Render("PREDICTIONS"),
				cli.TableHeaderStyle.Render("TYPE"),
			}, "\t"))

			for _, b := range backups {
				typeLabel := "manual"
				if b.IsAuto {
					typeLabel = "auto"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
					cli.InfoStyle.Render(b.ID),
					formatRelativeTime(b.CreatedAt),
					formatFileSize(b.FileSize),
					b.Users,
					b.Predictions,
					cli.SubtitleStyle.Render(typeLabel),
				)
			}
			return w.Flush()
		},
	}
}

func restoreBackupCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "restore <backup-id>",
		Short: "Restore the database from a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]

			store, manager, err := openBackups(ctx)
			if err != nil {
				return err
			}
			// Restore closes the database handle itself.
			restored := false
			defer func() {
				if !restored {
					_ = store.Close()
				}
			}()

			info, err := findBackup(ctx, manager, id)
			if err != nil {
				return err
			}

			if !force {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s This will replace your current database with backup %s.\n",
					cli.WarningStyle.Render("⚠️"),
					cli.InfoStyle.Render(id))
				fmt.Fprintf(out, "  Created: %s\n", info.CreatedAt.Format("2006-01-02 15:04:05"))
				if info.Description != "" {
					fmt.Fprintf(out, "  Description: %s\n", info.Description)
				}
				ok, err := newConsole(cmd).Confirm("Continue?")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, cli.SubtitleStyle.Render("Restore cancelled."))
					return nil
				}
			}

			restored = true
			if err := manager.Restore(ctx, id); err != nil {
				return fmt.Errorf("failed to restore backup: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s Restored from backup %s\n",
				cli.SuccessStyle.Render("✓"),
				cli.InfoStyle.Render(id))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}

func deleteBackupCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <backup-id>",
		Short: "Delete a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]

			store, manager, err := openBackups(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			info, err := findBackup(ctx, manager, id)
			if err != nil {
				return err
			}

			if !force {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s This will permanently delete backup %s.\n",
					cli.WarningStyle.Render("⚠️"),
					cli.InfoStyle.Render(id))
				fmt.Fprintf(out, "  Created: %s\n", info.CreatedAt.Format("2006-01-02 15:04:05"))
				fmt.Fprintf(out, "  Size: %s\n", formatFileSize(info.FileSize))
				ok, err := newConsole(cmd).Confirm("Continue?")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, cli.SubtitleStyle.Render("Deletion cancelled."))
					return nil
				}
			}

			if err := manager.Delete(ctx, id); err != nil {
				return fmt.Errorf("failed to delete backup: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s Deleted backup %s\n",
				cli.SuccessStyle.Render("✓"),
				cli.InfoStyle.Render(id))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}
