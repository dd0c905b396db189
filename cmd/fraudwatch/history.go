package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/Veraticus/fraudwatch/internal/cli"
	"github.com/Veraticus/fraudwatch/internal/common"
	"github.com/Veraticus/fraudwatch/internal/config"
	"github.com/Veraticus/fraudwatch/internal/history"
	"github.com/Veraticus/fraudwatch/internal/model"
	"github.com/Veraticus/fraudwatch/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// userHistory is the part of storage the history commands read.
type userHistory interface {
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	ListPredictions(ctx context.Context, userID int64) ([]model.PredictionRecord, error)
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or export a user's prediction history",
	}

	cmd.AddCommand(listHistoryCmd())
	cmd.AddCommand(exportHistoryCmd())

	return cmd
}

func listHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <username>",
		Short: "List a user's recorded predictions, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp()
			if err != nil {
				return err
			}
			store, err := initStorage(cmd.Context(), app)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			return listHistory(cmd, store, args[0])
		},
	}
}

func loadRecords(ctx context.Context, store userHistory, username string) ([]model.PredictionRecord, error) {
	user, err := store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %s", common.ErrUserNotFound, username)
		}
		return nil, err
	}
	records, err := store.ListPredictions(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transaction history: %w", err)
	}
	return records, nil
}

func listHistory(cmd *cobra.Command, store userHistory, username string) error {
	records, err := loadRecords(cmd.Context(), store, username)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, cli.SubtitleStyle.Render("No transaction history found for your account."))
		return nil
	}

	fmt.Fprintln(out, cli.StyleTitle(fmt.Sprintf("Welcome, %s! Here are your recorded transactions:", username)))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tPREDICTION\tPROBABILITY\tAMOUNT\tDATE\tLOCATION\tSTATUS")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s %s\t%s\t%s\n",
			model.FormatTimestamp(rec.Timestamp),
			rec.Label,
			strconv.FormatFloat(rec.Probability, 'f', -1, 64),
			strconv.FormatFloat(rec.RawInput.Amount, 'f', -1, 64),
			rec.RawInput.Date,
			rec.RawInput.Time,
			rec.RawInput.Location,
			rec.RawInput.Status,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d records\n", len(records))
	return nil
}

type exportOptions struct {
	output string
	sheets bool
}

func exportHistoryCmd() *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export <username>",
		Short: "Export a user's history as CSV or to Google Sheets",
		Long: `Export every recorded prediction of a user.

By default a CSV file named transaction_history_<user>_<timestamp>.csv is
written to the current directory. Use --output - for stdout, or --sheets to
write a tab in the configured Google spreadsheet.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := loadApp()
			if err != nil {
				return err
			}
			store, err := initStorage(ctx, app)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var writer sheets.HistoryWriter
			if opts.sheets {
				cfg, err := config.LoadSheetsConfig(viper.GetViper())
				if err != nil {
					return fmt.Errorf("google sheets is not configured (run 'fraudwatch auth sheets'): %w", err)
				}
				if writer, err = sheets.NewWriter(ctx, *cfg, slog.Default()); err != nil {
					return err
				}
			}

			return exportHistory(cmd, store, writer, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "CSV file to write (- for stdout)")
	cmd.Flags().BoolVar(&opts.sheets, "sheets", false, "export to Google Sheets instead of CSV")

	return cmd
}

func exportHistory(cmd *cobra.Command, store userHistory, writer sheets.HistoryWriter, username string, opts exportOptions) error {
	ctx := cmd.Context()
	records, err := loadRecords(ctx, store, username)
	if err != nil {
		return err
	}
	table, err := history.Build(records)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if writer != nil {
		res, err := writer.Write(ctx, username, table)
		if err != nil {
			return fmt.Errorf("failed to export to Google Sheets: %w", err)
		}
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Exported %d records to %q", res.Rows, res.SheetTitle)))
		if res.URL != "" {
			fmt.Fprintf(out, "  %s %s\n", cli.ChartIcon, res.URL)
		}
		return nil
	}

	if opts.output == "-" {
		return history.WriteCSV(out, table)
	}

	path := opts.output
	if path == "" {
		path = history.FileName(username, clock())
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := history.WriteCSV(f, table); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Exported %d records to %s", table.Len(), path)))
	return nil
}
