// Package history renders a user's prediction history as a table for display
// and export.
package history

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Veraticus/fraudwatch/internal/model"
)

// Leading export columns, followed by the raw input fields.
const (
	ColumnTimestamp   = "Timestamp"
	ColumnPrediction  = "Prediction"
	ColumnProbability = "Probability"
)

// Table is a header plus rows of text cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// Len returns the number of data rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Header returns the export header in column order.
func Header() []string {
	return append([]string{ColumnTimestamp, ColumnPrediction, ColumnProbability}, model.RawFieldNames()...)
}

// Build lays records out in the export column order, keeping their order.
func Build(records []model.PredictionRecord) (Table, error) {
	header := Header()
	fields := model.RawFieldNames()

	table := Table{Header: header, Rows: make([][]string, 0, len(records))}
	for i := range records {
		rec := &records[i]
		row := make([]string, 0, len(header))
		row = append(row,
			model.FormatTimestamp(rec.Timestamp),
			string(rec.Label),
			strconv.FormatFloat(rec.Probability, 'f', -1, 64),
		)
		for _, field := range fields {
			v, ok := rec.RawInput.Value(field)
			if !ok {
				return Table{}, fmt.Errorf("record %d: no value for %s", rec.ID, field)
			}
			row = append(row, v)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// WriteCSV writes the table, header first, as CSV.
func WriteCSV(w io.Writer, table Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := cw.WriteAll(table.Rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}

// FileName returns the download name for a user's export made at now.
func FileName(username string, now time.Time) string {
	return fmt.Sprintf("transaction_history_%s_%s.csv", username, now.Format("20060102150405"))
}
