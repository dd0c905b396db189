package features

import (
	"errors"
	"testing"

	"github.com/Veraticus/fraudwatch/internal/common"
	"github.com/Veraticus/fraudwatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shiftScaler subtracts one from every value so tests can tell scaled columns
// apart from untouched ones.
type shiftScaler struct {
	err   error
	names []string
}

func (s shiftScaler) FeatureNames() []string { return s.names }

func (s shiftScaler) Transform(values []float64) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v - 1
	}
	return out, nil
}

func sampleTransaction() model.RawTransaction {
	return model.RawTransaction{
		Amount:               500000,
		Date:                 "01/15/2024",
		Time:                 "14:30",
		Location:             "Samarkand",
		CardType:             "Humo",
		Currency:             "UZS",
		Status:               "Successful",
		PreviousCount:        25,
		DistanceKm:           1500,
		MinutesSinceLast:     500,
		AuthenticationMethod: "Password",
		Velocity:             6,
		Category:             "Payment",
	}
}

func TestSchemaShape(t *testing.T) {
	names := Schema()
	require.Len(t, names, 28)
	assert.Equal(t, model.FieldAmount, names[0])
	assert.Equal(t, "Transaction_Category_Transfer", names[27])
	assert.NotContains(t, names, "Card_Type_Visa")

	names[0] = "mutated"
	assert.Equal(t, model.FieldAmount, Schema()[0])
}

func TestExpand_TemporalDecomposition(t *testing.T) {
	tests := []struct {
		name      string
		date      string
		clock     string
		hour      float64
		dayOfWeek float64
		month     float64
	}{
		{name: "monday afternoon", date: "01/15/2024", clock: "14:30", hour: 14, dayOfWeek: 0, month: 1},
		{name: "sunday midnight", date: "01/21/2024", clock: "00:05", hour: 0, dayOfWeek: 6, month: 1},
		{name: "leap day", date: "02/29/2024", clock: "23:59", hour: 23, dayOfWeek: 3, month: 2},
		{name: "december saturday", date: "12/07/2024", clock: "08:00", hour: 8, dayOfWeek: 5, month: 12},
	}

	p := NewPipeline(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := sampleTransaction()
			raw.Date, raw.Time = tt.date, tt.clock

			vec, err := p.Expand(raw)
			require.NoError(t, err)

			hour, _ := vec.Get(FeatureHour)
			dow, _ := vec.Get(FeatureDayOfWeek)
			month, _ := vec.Get(FeatureMonth)
			assert.InDelta(t, tt.hour, hour, 0)
			assert.InDelta(t, tt.dayOfWeek, dow, 0)
			assert.InDelta(t, tt.month, month, 0)
		})
	}
}

func TestExpand_Indicators(t *testing.T) {
	p := NewPipeline(nil)

	vec, err := p.Expand(sampleTransaction())
	require.NoError(t, err)

	active := map[string]bool{
		"Transaction_Location_Samarkand": true,
		"Transaction_Currency_UZS":       true,
		"Transaction_Status_Successful":  true,
		"Authentication_Method_Password": true,
		"Transaction_Category_Payment":   true,
		model.FieldAmount:                true,
		model.FieldPreviousCount:         true,
		model.FieldDistanceKm:            true,
		model.FieldMinutesSinceLast:      true,
		model.FieldVelocity:              true,
		FeatureHour:                      true,
		FeatureMonth:                     true,
	}
	for i, name := range vec.Names {
		if active[name] {
			assert.NotZero(t, vec.Values[i], name)
		} else {
			assert.Zero(t, vec.Values[i], name)
		}
	}
	// Humo is the card baseline.
	v, _ := vec.Get("Card_Type_UzCard")
	assert.Zero(t, v)
}

func TestExpand_BaselinesActivateNothing(t *testing.T) {
	raw := sampleTransaction()
	base := Baselines()
	raw.Location = base[model.FieldLocation]
	raw.CardType = base[model.FieldCardType]
	raw.Currency = base[model.FieldCurrency]
	raw.Status = base[model.FieldStatus]
	raw.AuthenticationMethod = base[model.FieldAuthenticationMethod]
	raw.Category = base[model.FieldCategory]

	vec, err := NewPipeline(nil).Expand(raw)
	require.NoError(t, err)

	for i, name := range vec.Names[8:] {
		assert.Zero(t, vec.Values[i+8], name)
	}
}

func TestExpand_UnseenValuesAreDropped(t *testing.T) {
	p := NewPipeline(nil)

	for _, mutate := range []func(*model.RawTransaction){
		func(r *model.RawTransaction) { r.CardType = "Visa" },
		func(r *model.RawTransaction) { r.Status = "Pending" },
		func(r *model.RawTransaction) { r.Location = "Karakalpakstan" },
	} {
		raw := sampleTransaction()
		mutate(&raw)

		vec, err := p.Expand(raw)
		require.NoError(t, err)
		assert.Len(t, vec.Values, len(Schema()))
		assert.Equal(t, Schema(), vec.Names)
	}

	raw := sampleTransaction()
	raw.CardType = "Visa"
	vec, err := p.Expand(raw)
	require.NoError(t, err)
	v, _ := vec.Get("Card_Type_UzCard")
	assert.Zero(t, v)
}

func TestExpand_Errors(t *testing.T) {
	p := NewPipeline(nil)

	t.Run("bad month", func(t *testing.T) {
		raw := sampleTransaction()
		raw.Date = "13/45/2024"
		_, err := p.Expand(raw)
		var parseErr *common.ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Equal(t, model.FieldDate, parseErr.Field)
	})

	t.Run("bad clock", func(t *testing.T) {
		raw := sampleTransaction()
		raw.Time = "25:99"
		_, err := p.Expand(raw)
		var parseErr *common.ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Equal(t, model.FieldTime, parseErr.Field)
	})

	t.Run("missing card type", func(t *testing.T) {
		raw := sampleTransaction()
		raw.CardType = ""
		_, err := p.Expand(raw)
		assert.ErrorIs(t, err, common.ErrMissingField)
	})
}

func TestTransform_ScalesOnlyNumericColumns(t *testing.T) {
	p := NewPipeline(shiftScaler{names: NumericColumns()})

	vec, err := p.Transform(sampleTransaction())
	require.NoError(t, err)

	amount, _ := vec.Get(model.FieldAmount)
	velocity, _ := vec.Get(model.FieldVelocity)
	hour, _ := vec.Get(FeatureHour)
	samarkand, _ := vec.Get("Transaction_Location_Samarkand")
	assert.InDelta(t, 499999.0, amount, 0)
	assert.InDelta(t, 5.0, velocity, 0)
	assert.InDelta(t, 14.0, hour, 0)
	assert.InDelta(t, 1.0, samarkand, 0)
}

func TestTransform_ScalerMismatch(t *testing.T) {
	raw := sampleTransaction()

	t.Run("wrong width", func(t *testing.T) {
		p := NewPipeline(shiftScaler{names: NumericColumns()[:4]})
		_, err := p.Transform(raw)
		assert.ErrorIs(t, err, common.ErrSchemaMismatch)
	})

	t.Run("wrong order", func(t *testing.T) {
		names := NumericColumns()
		names[0], names[1] = names[1], names[0]
		_, err := NewPipeline(shiftScaler{names: names}).Transform(raw)
		assert.ErrorIs(t, err, common.ErrSchemaMismatch)
	})

	t.Run("scaler failure propagates", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := NewPipeline(shiftScaler{names: NumericColumns(), err: boom}).Transform(raw)
		assert.ErrorIs(t, err, boom)
	})
}
