package common

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	tests := []struct {
		err      error
		sentinel error
		name     string
	}{
		{
			name:     "parse error",
			err:      &ParseError{Field: "Transaction_Date", Value: "13/45/2024"},
			sentinel: ErrParse,
		},
		{
			name:     "missing field",
			err:      &MissingFieldError{Field: "Card_Type"},
			sentinel: ErrMissingField,
		},
		{
			name:     "schema mismatch",
			err:      &SchemaMismatchError{Component: "classifier", Expected: 28, Got: 27},
			sentinel: ErrSchemaMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("predict: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
		})
	}
}

func TestParseErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("month out of range")
	err := &ParseError{Field: "Transaction_Date", Value: "13/01/2024", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "Transaction_Date")
	assert.Contains(t, err.Error(), "13/01/2024")
}

func TestSchemaMismatchErrorMessage(t *testing.T) {
	err := &SchemaMismatchError{Component: "scaler", Expected: 5, Got: 4, Detail: "column 2 is Transaction_Hour"}
	assert.Equal(t, "feature schema mismatch: scaler expects 5 features, got 4 (column 2 is Transaction_Hour)", err.Error())
}

func TestIsInputError(t *testing.T) {
	assert.True(t, IsInputError(&MissingFieldError{Field: "x"}))
	assert.True(t, IsInputError(fmt.Errorf("%w: empty username", ErrInvalidInput)))
	assert.False(t, IsInputError(&SchemaMismatchError{}))
	assert.False(t, IsInputError(ErrStore))
}

func TestWithRetry(t *testing.T) {
	ctx := context.Background()
	opts := RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	t.Run("succeeds after transient failure", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, func() error {
			calls++
			if calls < 2 {
				return errors.New("temporary")
			}
			return nil
		}, opts)
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("stops on non-retryable error", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, func() error {
			calls++
			return &RetryableError{Err: errors.New("bad request"), Retryable: false}
		}, opts)
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, func() error {
			calls++
			return errors.New("still failing")
		}, opts)
		assert.ErrorIs(t, err, ErrMaxRetries)
		assert.Equal(t, 3, calls)
	})
}

func TestParseLevel(t *testing.T) {
	_, err := ParseLevel("verbose")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	level, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", level.String())
}
