package model

import "time"

// Label is the classifier verdict shown to users.
type Label string

// Label constants.
const (
	LabelFraud Label = "Fraud"
	LabelLegit Label = "Legit"
)

// TimestampLayout is the fixed-width ISO-8601 layout used for history rows.
// Fixed width keeps lexical ordering in SQLite equal to chronological ordering.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// PredictionRecord is one archived prediction made by a signed-in user.
type PredictionRecord struct {
	Timestamp   time.Time      `json:"timestamp"`
	Label       Label          `json:"prediction"`
	RawInput    RawTransaction `json:"raw_input"`
	Probability float64        `json:"probability"`
	ID          int64          `json:"id"`
	UserID      int64          `json:"user_id"`
}

// FormatTimestamp renders t the way it is stored in the history table.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// legacyTimestampLayout matches rows written without a zone by the first
// version of the history table. They are read as local time.
const legacyTimestampLayout = "2006-01-02T15:04:05.999999999"

// ParseTimestamp parses a stored history timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(TimestampLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(legacyTimestampLayout, s, time.Local)
}
