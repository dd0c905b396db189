// Package prediction scores raw transactions with the loaded fraud model.
package prediction

import (
	"fmt"
	"math"

	"github.com/Veraticus/fraudwatch/internal/classifier"
	"github.com/Veraticus/fraudwatch/internal/common"
	"github.com/Veraticus/fraudwatch/internal/features"
	"github.com/Veraticus/fraudwatch/internal/model"
)

// fraudClass is the classifier's positive class.
const fraudClass = 1

// Result is the outcome of scoring one transaction.
type Result struct {
	Label       model.Label `json:"prediction"`
	Probability float64     `json:"probability"`
}

// Service turns raw transactions into fraud predictions. It holds only
// read-only artifacts and is safe for concurrent use.
type Service struct {
	pipeline   *features.Pipeline
	forest     *classifier.Forest
	fraudIndex int
}

// NewService checks that the artifacts match the feature schema and returns
// a ready service.
func NewService(artifacts *classifier.Artifacts) (*Service, error) {
	if artifacts == nil || artifacts.Forest == nil || artifacts.Scaler == nil {
		return nil, fmt.Errorf("%w: model artifacts not loaded", common.ErrMissingConfig)
	}

	if err := checkNames("classifier", artifacts.Forest.FeatureNames, features.Schema()); err != nil {
		return nil, err
	}
	if err := checkNames("scaler", artifacts.Scaler.FeatureNames(), features.NumericColumns()); err != nil {
		return nil, err
	}

	idx, ok := artifacts.Forest.ClassIndex(fraudClass)
	if !ok {
		return nil, fmt.Errorf("%w: classifier has no class %d", common.ErrInvalidConfig, fraudClass)
	}

	return &Service{
		pipeline:   features.NewPipeline(artifacts.Scaler),
		forest:     artifacts.Forest,
		fraudIndex: idx,
	}, nil
}

// Predict runs the feature pipeline on raw and scores the result.
func (s *Service) Predict(raw model.RawTransaction) (Result, error) {
	vec, err := s.pipeline.Transform(raw)
	if err != nil {
		return Result{}, err
	}
	return s.Score(vec)
}

// Score classifies an already transformed feature vector. The probability is
// that of the Fraud class, rounded to four decimal places.
func (s *Service) Score(vec features.Vector) (Result, error) {
	if err := checkNames("classifier", s.forest.FeatureNames, vec.Names); err != nil {
		return Result{}, err
	}
	if len(vec.Values) != len(vec.Names) {
		return Result{}, &common.SchemaMismatchError{
			Component: "classifier",
			Expected:  len(vec.Names),
			Got:       len(vec.Values),
			Detail:    "vector values and names differ in length",
		}
	}

	class, proba, err := s.forest.Predict(vec.Values)
	if err != nil {
		return Result{}, err
	}

	label := model.LabelLegit
	if class == fraudClass {
		label = model.LabelFraud
	}

	return Result{
		Label:       label,
		Probability: Round(proba[s.fraudIndex]),
	}, nil
}

// Round rounds p to four decimal places.
func Round(p float64) float64 {
	return math.Round(p*1e4) / 1e4
}

func checkNames(component string, expected, got []string) error {
	if len(expected) != len(got) {
		return &common.SchemaMismatchError{Component: component, Expected: len(expected), Got: len(got)}
	}
	for i := range expected {
		if expected[i] != got[i] {
			return &common.SchemaMismatchError{
				Component: component,
				Expected:  len(expected),
				Got:       len(got),
				Detail:    fmt.Sprintf("column %d is %q, want %q", i, got[i], expected[i]),
			}
		}
	}
	return nil
}
