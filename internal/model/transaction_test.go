package model

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/Veraticus/fraudwatch/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validValues() map[string]any {
	return map[string]any{
		FieldAmount:               500000.0,
		FieldDate:                 "01/15/2024",
		FieldTime:                 "14:30",
		FieldLocation:             "Samarkand",
		FieldCardType:             "Humo",
		FieldCurrency:             "UZS",
		FieldStatus:               "Successful",
		FieldPreviousCount:        25,
		FieldDistanceKm:           1500.0,
		FieldMinutesSinceLast:     500,
		FieldAuthenticationMethod: "Password",
		FieldVelocity:             6,
		FieldCategory:             "Payment",
	}
}

func TestRawTransactionFromMap(t *testing.T) {
	raw, err := RawTransactionFromMap(validValues())
	require.NoError(t, err)

	assert.InDelta(t, 500000.0, raw.Amount, 0)
	assert.Equal(t, "01/15/2024", raw.Date)
	assert.Equal(t, "Humo", raw.CardType)
	assert.Equal(t, 25, raw.PreviousCount)
	assert.Equal(t, 6, raw.Velocity)
}

func TestRawTransactionFromMap_Errors(t *testing.T) {
	tests := []struct {
		mutate  func(map[string]any)
		wantErr error
		name    string
	}{
		{
			name:    "missing card type",
			mutate:  func(m map[string]any) { delete(m, FieldCardType) },
			wantErr: common.ErrMissingField,
		},
		{
			name:    "nil status",
			mutate:  func(m map[string]any) { m[FieldStatus] = nil },
			wantErr: common.ErrMissingField,
		},
		{
			name:    "blank date",
			mutate:  func(m map[string]any) { m[FieldDate] = "  " },
			wantErr: common.ErrMissingField,
		},
		{
			name:    "non numeric amount",
			mutate:  func(m map[string]any) { m[FieldAmount] = "lots" },
			wantErr: common.ErrParse,
		},
		{
			name:    "NaN amount",
			mutate:  func(m map[string]any) { m[FieldAmount] = "NaN" },
			wantErr: common.ErrParse,
		},
		{
			name:    "infinite amount",
			mutate:  func(m map[string]any) { m[FieldAmount] = "Inf" },
			wantErr: common.ErrParse,
		},
		{
			name:    "NaN distance",
			mutate:  func(m map[string]any) { m[FieldDistanceKm] = "nan" },
			wantErr: common.ErrParse,
		},
		{
			name:    "infinite previous count",
			mutate:  func(m map[string]any) { m[FieldPreviousCount] = "+Inf" },
			wantErr: common.ErrParse,
		},
		{
			name:    "fractional velocity",
			mutate:  func(m map[string]any) { m[FieldVelocity] = 2.5 },
			wantErr: common.ErrParse,
		},
		{
			name:    "negative distance",
			mutate:  func(m map[string]any) { m[FieldDistanceKm] = -1.0 },
			wantErr: common.ErrInvalidInput,
		},
		{
			name:    "zero amount",
			mutate:  func(m map[string]any) { m[FieldAmount] = 0 },
			wantErr: common.ErrInvalidInput,
		},
		{
			name:    "unsupported type",
			mutate:  func(m map[string]any) { m[FieldLocation] = []string{"Tashkent"} },
			wantErr: common.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := validValues()
			tt.mutate(values)
			_, err := RawTransactionFromMap(values)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRawTransactionFromMap_AcceptsNumericStrings(t *testing.T) {
	values := validValues()
	values[FieldPreviousCount] = "25.0"
	values[FieldAmount] = json.Number("1200.50")

	raw, err := RawTransactionFromMap(values)
	require.NoError(t, err)
	assert.Equal(t, 25, raw.PreviousCount)
	assert.InDelta(t, 1200.5, raw.Amount, 1e-9)
}

func TestRawTransaction_JSONUsesDatasetKeys(t *testing.T) {
	raw, err := RawTransactionFromMap(validValues())
	require.NoError(t, err)

	data, err := json.Marshal(raw)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, field := range RawFieldNames() {
		assert.Contains(t, decoded, field)
	}
	assert.Len(t, decoded, len(RawFieldNames()))
}

func TestValidate_RejectsNonFiniteNumbers(t *testing.T) {
	raw := DefaultTransaction(time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC))
	require.NoError(t, raw.Validate())

	raw.Amount = math.NaN()
	assert.ErrorIs(t, raw.Validate(), common.ErrInvalidInput)

	raw.Amount = 10
	raw.DistanceKm = math.Inf(1)
	assert.ErrorIs(t, raw.Validate(), common.ErrInvalidInput)
}

func TestRawTransaction_ValueCoversEveryField(t *testing.T) {
	raw, err := RawTransactionFromMap(validValues())
	require.NoError(t, err)

	for _, field := range RawFieldNames() {
		v, ok := raw.Value(field)
		assert.True(t, ok, field)
		assert.NotEmpty(t, v, field)
	}
	amount, _ := raw.Value(FieldAmount)
	assert.Equal(t, "500000", amount)

	_, ok := raw.Value("Merchant_ID")
	assert.False(t, ok)
}

func TestTimestampRoundTripKeepsOrdering(t *testing.T) {
	earlier := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	later := earlier.Add(1500 * time.Millisecond)

	a, b := FormatTimestamp(earlier), FormatTimestamp(later)
	assert.Len(t, a, len(b))
	assert.Less(t, a, b)

	parsed, err := ParseTimestamp(b)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(later))
}

func TestParseTimestampAcceptsLegacyRows(t *testing.T) {
	parsed, err := ParseTimestamp("2024-01-15T14:30:00.123456")
	require.NoError(t, err)
	assert.Equal(t, 14, parsed.Hour())
	assert.Equal(t, 123456000, parsed.Nanosecond())

	_, err = ParseTimestamp("yesterday")
	assert.Error(t, err)
}
