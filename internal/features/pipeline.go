package features

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/fraudwatch/internal/common"
	"github.com/Veraticus/fraudwatch/internal/model"
)

// Scaler standardizes the numeric columns of a feature vector.
type Scaler interface {
	FeatureNames() []string
	Transform(values []float64) ([]float64, error)
}

// Vector is an ordered feature vector. Names always equal Schema().
type Vector struct {
	Names  []string
	Values []float64
}

// Get returns the value of the named column.
func (v Vector) Get(name string) (float64, bool) {
	for i, n := range v.Names {
		if n == name {
			return v.Values[i], true
		}
	}
	return 0, false
}

// Pipeline converts raw transactions into scaled feature vectors.
type Pipeline struct {
	scaler Scaler
}

// NewPipeline creates a pipeline that scales numeric columns with scaler.
func NewPipeline(scaler Scaler) *Pipeline {
	return &Pipeline{scaler: scaler}
}

// Transform runs the full pipeline: temporal decomposition, indicator
// expansion, schema alignment and numeric scaling.
func (p *Pipeline) Transform(raw model.RawTransaction) (Vector, error) {
	vec, err := p.Expand(raw)
	if err != nil {
		return Vector{}, err
	}

	if p.scaler == nil {
		return Vector{}, fmt.Errorf("%w: pipeline has no scaler", common.ErrInvalidConfig)
	}

	names := p.scaler.FeatureNames()
	if len(names) != len(numericColumns) {
		return Vector{}, &common.SchemaMismatchError{
			Component: "scaler",
			Expected:  len(names),
			Got:       len(numericColumns),
		}
	}

	positions := make([]int, len(names))
	unscaled := make([]float64, len(names))
	for i, name := range names {
		pos, ok := schemaIndex[name]
		if !ok || name != numericColumns[i] {
			return Vector{}, &common.SchemaMismatchError{
				Component: "scaler",
				Expected:  len(names),
				Got:       len(numericColumns),
				Detail:    fmt.Sprintf("column %d is %s, want %s", i, name, numericColumns[i]),
			}
		}
		positions[i] = pos
		unscaled[i] = vec.Values[pos]
	}

	scaled, err := p.scaler.Transform(unscaled)
	if err != nil {
		return Vector{}, err
	}
	for i, pos := range positions {
		vec.Values[pos] = scaled[i]
	}

	return vec, nil
}

// Expand produces the aligned but unscaled feature vector.
func (p *Pipeline) Expand(raw model.RawTransaction) (Vector, error) {
	for _, field := range append([]string{model.FieldDate, model.FieldTime}, categoricalFields...) {
		v, _ := raw.Value(field)
		if strings.TrimSpace(v) == "" {
			return Vector{}, &common.MissingFieldError{Field: field}
		}
	}

	when, err := parseDateTime(raw.Date, raw.Time)
	if err != nil {
		return Vector{}, err
	}

	values := make([]float64, len(schema))
	set := func(name string, v float64) {
		// Columns outside the trained schema are dropped.
		if i, ok := schemaIndex[name]; ok {
			values[i] = v
		}
	}

	set(model.FieldAmount, raw.Amount)
	set(model.FieldPreviousCount, float64(raw.PreviousCount))
	set(model.FieldDistanceKm, raw.DistanceKm)
	set(model.FieldMinutesSinceLast, float64(raw.MinutesSinceLast))
	set(model.FieldVelocity, float64(raw.Velocity))
	set(FeatureHour, float64(when.Hour()))
	set(FeatureDayOfWeek, float64(dayOfWeek(when)))
	set(FeatureMonth, float64(when.Month()))

	for _, field := range categoricalFields {
		value, _ := raw.Value(field)
		if value == baselines[field] {
			continue
		}
		set(IndicatorName(field, value), 1)
	}

	return Vector{Names: Schema(), Values: values}, nil
}

func parseDateTime(date, clock string) (time.Time, error) {
	text := strings.TrimSpace(date) + " " + strings.TrimSpace(clock)
	when, err := time.Parse(model.DateLayout+" "+model.TimeLayout, text)
	if err != nil {
		field := model.FieldDate
		if _, dateErr := time.Parse(model.DateLayout, strings.TrimSpace(date)); dateErr == nil {
			field = model.FieldTime
		}
		return time.Time{}, &common.ParseError{Field: field, Value: text, Err: err}
	}
	return when, nil
}

// dayOfWeek numbers days from Monday=0 to Sunday=6.
func dayOfWeek(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
