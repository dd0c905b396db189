// Package batch scores every row of a transaction dataset CSV.
package batch

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Veraticus/fraudwatch/internal/common"
	"github.com/Veraticus/fraudwatch/internal/model"
	"github.com/Veraticus/fraudwatch/internal/prediction"
	"github.com/Veraticus/fraudwatch/internal/service"
)

// LabelColumn is the optional ground-truth column of the dataset.
const LabelColumn = "isFraud"

// ProgressFunc is called after each data row with the number of rows read.
type ProgressFunc func(done int)

// Summary reports the outcome of a batch run.
type Summary struct {
	Rows     int
	Scored   int
	Fraud    int
	Failed   int
	Labeled  int
	Correct  int
	Accuracy float64
}

// Scorer runs a predictor over dataset rows.
type Scorer struct {
	predictor service.Predictor
}

// NewScorer creates a batch scorer.
func NewScorer(predictor service.Predictor) *Scorer {
	return &Scorer{predictor: predictor}
}

// ScoreCSV reads a dataset with a header row from r and writes one result
// row per scored input to w. Rows that fail to parse or validate are counted
// and skipped. A schema mismatch or cancellation stops the run; rows scored
// before that are still written and counted in the returned summary.
func (s *Scorer) ScoreCSV(ctx context.Context, r io.Reader, w io.Writer, progress ProgressFunc) (*Summary, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	labelIdx := -1
	present := make(map[string]bool, len(header))
	for i, name := range header {
		present[name] = true
		if name == LabelColumn {
			labelIdx = i
		}
	}
	for _, field := range model.RawFieldNames() {
		if !present[field] {
			return nil, &common.MissingFieldError{Field: field}
		}
	}

	out := csv.NewWriter(w)
	outHeader := []string{"Row", "Prediction", "Probability"}
	if labelIdx >= 0 {
		outHeader = append(outHeader, LabelColumn)
	}
	if err := out.Write(outHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	summary := &Summary{}
	defer func() {
		out.Flush()
		if summary.Labeled > 0 {
			summary.Accuracy = float64(summary.Correct) / float64(summary.Labeled)
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		summary.Rows++
		row := summary.Rows

		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return summary, fmt.Errorf("failed to read row %d: %w", row, err)
			}
			summary.Failed++
			slog.Warn("skipping unreadable row", "row", row, "error", err)
			report(progress, row)
			continue
		}

		values := make(map[string]any, len(header))
		for i, name := range header {
			if i < len(record) {
				values[name] = record[i]
			}
		}

		raw, err := model.RawTransactionFromMap(values)
		var result prediction.Result
		if err == nil {
			result, err = s.predictor.Predict(raw)
		}
		if err != nil {
			if errors.Is(err, common.ErrSchemaMismatch) {
				return summary, err
			}
			summary.Failed++
			slog.Warn("skipping invalid row", "row", row, "error", err)
			report(progress, row)
			continue
		}

		summary.Scored++
		fraud := result.Label == model.LabelFraud
		if fraud {
			summary.Fraud++
		}

		line := []string{
			strconv.Itoa(row),
			string(result.Label),
			strconv.FormatFloat(result.Probability, 'f', -1, 64),
		}
		if labelIdx >= 0 {
			label := ""
			if labelIdx < len(record) {
				label = strings.TrimSpace(record[labelIdx])
			}
			if truth, ok := parseLabel(label); ok {
				summary.Labeled++
				if truth == fraud {
					summary.Correct++
				}
			}
			line = append(line, label)
		}
		if err := out.Write(line); err != nil {
			return summary, fmt.Errorf("failed to write row %d: %w", row, err)
		}

		report(progress, row)
	}

	out.Flush()
	if err := out.Error(); err != nil {
		return summary, fmt.Errorf("failed to flush results: %w", err)
	}
	return summary, nil
}

// CountRows returns the number of data rows in a CSV with a header row.
func CountRows(r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	n := -1
	for {
		_, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return 0, err
			}
		}
		n++
	}
	return max(n, 0), nil
}

func parseLabel(s string) (bool, bool) {
	switch s {
	case "1", "1.0", "true", "True":
		return true, true
	case "0", "0.0", "false", "False":
		return false, true
	default:
		return false, false
	}
}

func report(progress ProgressFunc, done int) {
	if progress != nil {
		progress(done)
	}
}
