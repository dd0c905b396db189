package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/fraudwatch/internal/classifier"
	"github.com/Veraticus/fraudwatch/internal/features"
	"github.com/Veraticus/fraudwatch/internal/model"
)

// Column positions used by the fixture forest.
const (
	distanceColumn   = 2
	successfulColumn = 22
)

// ScalerFixture returns a scaler with round numbers so scaled values are easy
// to reason about:
//
//	amount 500000 -> 2.5, count 25 -> 0, distance 1500 -> 1, minutes 500 -> 0, velocity 6 -> 0.5
func ScalerFixture() *classifier.Scaler {
	return &classifier.Scaler{
		Names: features.NumericColumns(),
		Mean:  []float64{250000, 25, 1000, 500, 5},
		Scale: []float64{100000, 10, 500, 200, 2},
	}
}

// ForestFixture returns a two-tree forest over the full feature schema.
//
// Tree one splits on scaled distance at 0.5: near is 10% fraud, far is 80%.
// Tree two splits on Transaction_Status_Successful: not successful is 75%
// fraud, successful is one in three.
//
// SampleTransaction therefore scores (0.8 + 1/3) / 2 = 0.5667 Fraud.
func ForestFixture() *classifier.Forest {
	return &classifier.Forest{
		ModelType:    "random_forest",
		FeatureNames: features.Schema(),
		NFeatures:    len(features.Schema()),
		Classes:      []int{0, 1},
		Trees: []classifier.Tree{
			stump(distanceColumn, 0.5, []float64{9, 1}, []float64{2, 8}),
			stump(successfulColumn, 0.5, []float64{1, 3}, []float64{2, 1}),
		},
	}
}

func stump(feature int, threshold float64, left, right []float64) classifier.Tree {
	return classifier.Tree{
		ChildrenLeft:  []int{1, -1, -1},
		ChildrenRight: []int{2, -1, -1},
		Feature:       []int{feature, -2, -2},
		Threshold:     []float64{threshold, -2, -2},
		Value:         [][]float64{{left[0] + right[0], left[1] + right[1]}, left, right},
	}
}

// ArtifactsFixture returns the fixture forest and scaler as loaded artifacts.
func ArtifactsFixture() *classifier.Artifacts {
	return &classifier.Artifacts{Forest: ForestFixture(), Scaler: ScalerFixture()}
}

// WriteArtifacts writes the fixture artifacts to a temp directory and returns
// the classifier and scaler paths.
func WriteArtifacts(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	classifierPath := filepath.Join(dir, "classifier.json")
	scalerPath := filepath.Join(dir, "scaler.json")
	WriteJSON(t, classifierPath, ForestFixture())
	WriteJSON(t, scalerPath, ScalerFixture())
	return classifierPath, scalerPath
}

// WriteJSON marshals v into path or fails the test.
func WriteJSON(t *testing.T, path string, v any) {
	t.Helper()

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// SampleTransaction returns the default entry of the prediction form: a
// successful Humo payment from Samarkand.
func SampleTransaction() model.RawTransaction {
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
