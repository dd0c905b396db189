package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Veraticus/fraudwatch/internal/common"
	"github.com/Veraticus/fraudwatch/internal/model"
	"github.com/mattn/go-sqlite3"
)

// RecordPrediction appends a prediction to the user's history. A zero
// timestamp is replaced with the current time. rec.ID is set on success.
func (s *SQLiteStorage) RecordPrediction(ctx context.Context, rec *model.PredictionRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRecord(rec); err != nil {
		return err
	}

	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	rawJSON, err := json.Marshal(rec.RawInput)
	if err != nil {
		return fmt.Errorf("failed to encode raw input: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (user_id, timestamp, raw_input, prediction, probability)
		VALUES (?, ?, ?, ?, ?)`,
		rec.UserID,
		model.FormatTimestamp(rec.Timestamp),
		string(rawJSON),
		string(rec.Label),
		rec.Probability,
	)
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintForeignKey) {
			return fmt.Errorf("%w: id %d", common.ErrUserNotFound, rec.UserID)
		}
		return storeError("failed to record prediction", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return storeError("failed to get prediction id", err)
	}
	rec.ID = id
	return nil
}

// ListPredictions returns the user's history, most recent first. Records
// with identical timestamps are ordered by insertion, newest first.
func (s *SQLiteStorage) ListPredictions(ctx context.Context, userID int64) ([]model.PredictionRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, timestamp, raw_input, prediction, probability
		FROM transactions
		WHERE user_id = ?
		ORDER BY timestamp DESC, id DESC`,
		userID)
	if err != nil {
		return nil, storeError("failed to list predictions", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.PredictionRecord
	for rows.Next() {
		var (
			rec       model.PredictionRecord
			timestamp string
			rawJSON   string
			label     string
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &timestamp, &rawJSON, &label, &rec.Probability); err != nil {
			return nil, storeError("failed to scan prediction", err)
		}

		rec.Timestamp, err = model.ParseTimestamp(timestamp)
		if err != nil {
			return nil, storeError(fmt.Sprintf("prediction %d has bad timestamp", rec.ID), err)
		}
		if err := json.Unmarshal([]byte(rawJSON), &rec.RawInput); err != nil {
			return nil, storeError(fmt.Sprintf("prediction %d has bad raw input", rec.ID), err)
		}
		rec.Label = model.Label(label)

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("failed to iterate predictions", err)
	}

	return records, nil
}

// CountPredictions returns the number of predictions recorded for a user.
func (s *SQLiteStorage) CountPredictions(ctx context.Context, userID int64) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE user_id = ?", userID,
	).Scan(&count); err != nil {
		return 0, storeError("failed to count predictions", err)
	}
	return count, nil
}
