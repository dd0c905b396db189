package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/fraudwatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() model.RawTransaction {
	return model.DefaultTransaction(time.Date(2024, time.January, 15, 14, 30, 0, 0, time.UTC))
}

// answers joins one line per prompted field.
func answers(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func TestPromptTransaction_AcceptsDefaults(t *testing.T) {
	input := strings.Repeat("\n", len(questions))
	var out bytes.Buffer

	raw, err := NewPrompter(strings.NewReader(input), &out).PromptTransaction(context.Background(), defaults())
	require.NoError(t, err)
	assert.Equal(t, defaults(), raw)
	assert.Contains(t, out.String(), "Enter Transaction Details")
	assert.Contains(t, out.String(), "[500000]")
}

func TestPromptTransaction_OverridesAndChoices(t *testing.T) {
	input := answers(
		"1200.5",  // amount
		"",        // date
		"09:15",   // time
		"12",      // Tashkent by number
		"visa",    // card type by name
		"",        // currency
		"failed",  // status
		"3",       // previous count
		"",        // distance
		"",        // minutes since last
		"1",       // 2FA
		"",        // velocity
		"Cash In", // category
	)

	raw, err := NewPrompter(strings.NewReader(input), &bytes.Buffer{}).PromptTransaction(context.Background(), defaults())
	require.NoError(t, err)

	assert.InDelta(t, 1200.5, raw.Amount, 1e-9)
	assert.Equal(t, "01/15/2024", raw.Date)
	assert.Equal(t, "09:15", raw.Time)
	assert.Equal(t, "Tashkent", raw.Location)
	assert.Equal(t, "Visa", raw.CardType)
	assert.Equal(t, "UZS", raw.Currency)
	assert.Equal(t, "Failed", raw.Status)
	assert.Equal(t, 3, raw.PreviousCount)
	assert.Equal(t, "2FA", raw.AuthenticationMethod)
	assert.Equal(t, "Cash In", raw.Category)
}

func TestPromptTransaction_RepromptsOnBadAnswer(t *testing.T) {
	input := "lots\n" + "99\n" + strings.Repeat("\n", len(questions)-1)
	var out bytes.Buffer

	raw, err := NewPrompter(strings.NewReader(input), &out).PromptTransaction(context.Background(), defaults())
	require.NoError(t, err)
	assert.InDelta(t, 99.0, raw.Amount, 1e-9)
	assert.Contains(t, out.String(), model.FieldAmount)
}

func TestPromptTransaction_RepromptsOnOutOfRangeNumber(t *testing.T) {
	input := "-5\n" + "NaN\n" + "250\n" + strings.Repeat("\n", 10) + "0\n" + "4\n" + "\n"
	var out bytes.Buffer

	raw, err := NewPrompter(strings.NewReader(input), &out).PromptTransaction(context.Background(), defaults())
	require.NoError(t, err)
	assert.InDelta(t, 250.0, raw.Amount, 1e-9)
	assert.Equal(t, 4, raw.Velocity)
	assert.Contains(t, out.String(), "must be positive")
	assert.Contains(t, out.String(), "not a finite number")
	assert.Contains(t, out.String(), "must be at least 1")
}

func TestPromptTransaction_OutOfRangeChoice(t *testing.T) {
	input := answers("", "", "", "40", "2") + strings.Repeat("\n", len(questions)-4)

	raw, err := NewPrompter(strings.NewReader(input), &bytes.Buffer{}).PromptTransaction(context.Background(), defaults())
	require.NoError(t, err)
	assert.Equal(t, "Bukhara", raw.Location)
}

func TestPromptTransaction_TooManyAttempts(t *testing.T) {
	input := strings.Repeat("abc\n", maxAttempts)

	_, err := NewPrompter(strings.NewReader(input), &bytes.Buffer{}).PromptTransaction(context.Background(), defaults())
	assert.ErrorIs(t, err, ErrTooManyAttempts)
}

func TestPromptTransaction_InputClosed(t *testing.T) {
	_, err := NewPrompter(strings.NewReader("100\n"), &bytes.Buffer{}).PromptTransaction(context.Background(), defaults())
	assert.ErrorContains(t, err, "input closed before "+model.FieldDate)
}

func TestPromptTransaction_Cancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer func() { _ = pw.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPrompter(pr, &bytes.Buffer{}).PromptTransaction(ctx, defaults())
	assert.ErrorIs(t, err, ErrInputCancelled)
}

func TestFormatVerdict(t *testing.T) {
	assert.Contains(t, FormatVerdict(model.LabelFraud, 0.5667), "Fraudulent Transaction Detected! Probability: 0.5667")
	assert.Contains(t, FormatVerdict(model.LabelLegit, 0.2167), "Legitimate Transaction. Probability: 0.2167")
}
