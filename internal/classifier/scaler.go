// Package classifier loads and evaluates the pre-trained fraud model
// artifacts: a standard scaler and a random forest exported from sklearn.
package classifier

import (
	"fmt"

	"github.com/Veraticus/fraudwatch/internal/common"
)

// Scaler standardizes values as (x - mean) / scale. It is immutable after
// loading and safe for concurrent use.
type Scaler struct {
	Names []string  `json:"feature_names"`
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// FeatureNames returns the columns the scaler was fitted on, in order.
func (s *Scaler) FeatureNames() []string {
	names := make([]string, len(s.Names))
	copy(names, s.Names)
	return names
}

// Transform standardizes values. A zero scale is treated as one, matching
// sklearn's handling of constant columns.
func (s *Scaler) Transform(values []float64) ([]float64, error) {
	if len(values) != len(s.Mean) {
		return nil, &common.SchemaMismatchError{
			Component: "scaler",
			Expected:  len(s.Mean),
			Got:       len(values),
		}
	}

	out := make([]float64, len(values))
	for i, v := range values {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (v - s.Mean[i]) / scale
	}
	return out, nil
}

func (s *Scaler) validate() error {
	if len(s.Names) == 0 {
		return fmt.Errorf("%w: scaler has no feature names", common.ErrInvalidConfig)
	}
	if len(s.Mean) != len(s.Names) || len(s.Scale) != len(s.Names) {
		return fmt.Errorf("%w: scaler has %d names, %d means and %d scales",
			common.ErrInvalidConfig, len(s.Names), len(s.Mean), len(s.Scale))
	}
	return nil
}
