package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Veraticus/fraudwatch/internal/batch"
	"github.com/Veraticus/fraudwatch/internal/cli"
	"github.com/Veraticus/fraudwatch/internal/service"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func scoreCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "score <dataset.csv>",
		Short: "Score every row of a transaction dataset",
		Long: `Run the fraud model over a CSV file with a header row naming the raw
input columns. Rows that cannot be parsed are skipped and counted. When the
file has an isFraud column the model's accuracy against it is reported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp()
			if err != nil {
				return err
			}
			predictor, err := loadPredictor(app)
			if err != nil {
				return err
			}
			return scoreDataset(cmd, predictor, args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "where to write results (- for stdout)")

	return cmd
}

func scoreDataset(cmd *cobra.Command, predictor service.Predictor, input, output string) error {
	total, err := countRows(input)
	if err != nil {
		return err
	}

	in, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("failed to open dataset: %w", err)
	}
	defer func() { _ = in.Close() }()

	var out io.Writer = cmd.OutOrStdout()
	if output != "-" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", output, err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				slog.Warn("failed to close results file", "error", err)
			}
		}()
		out = f
	}

	status := cmd.ErrOrStderr()
	interrupts := cli.NewInterruptHandler(status)
	ctx := interrupts.HandleInterrupts(cmd.Context(), true)
	defer interrupts.Stop()

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(status),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Scoring transactions...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(status)
		}),
	)

	summary, err := batch.NewScorer(predictor).ScoreCSV(ctx, in, out, func(done int) {
		if err := bar.Set(done); err != nil {
			slog.Debug("progress bar update failed", "error", err)
		}
	})
	return reportScore(status, summary, err, interrupts.WasInterrupted())
}

// reportScore prints the run summary. An interrupted run reports the rows
// scored so far and is not an error.
func reportScore(w io.Writer, summary *batch.Summary, err error, interrupted bool) error {
	if interrupted {
		if summary != nil {
			fmt.Fprintln(w, cli.RenderBox(cli.WarningIcon+" Scoring interrupted", formatSummary(summary)))
		}
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(w, cli.RenderBox(cli.ChartIcon+" Scoring complete", formatSummary(summary)))
	return nil
}

func countRows(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()
	return batch.CountRows(f)
}

func formatSummary(s *batch.Summary) string {
	lines := []string{
		fmt.Sprintf("Rows:    %d", s.Rows),
		fmt.Sprintf("Scored:  %d", s.Scored),
		fmt.Sprintf("Fraud:   %d", s.Fraud),
		fmt.Sprintf("Skipped: %d", s.Failed),
	}
	if s.Labeled > 0 {
		lines = append(lines, fmt.Sprintf("Accuracy: %.2f%% (%d of %d labeled)", s.Accuracy*100, s.Correct, s.Labeled))
	}
	return strings.Join(lines, "\n")
}
