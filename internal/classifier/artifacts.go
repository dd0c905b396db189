package classifier

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Veraticus/fraudwatch/internal/common"
)

// Artifacts bundles the loaded model and scaler. Both are read-only once
// loaded and may be shared between goroutines.
type Artifacts struct {
	Forest *Forest
	Scaler *Scaler
}

// LoadArtifacts reads and validates the classifier and scaler files.
func LoadArtifacts(classifierPath, scalerPath string) (*Artifacts, error) {
	forest, err := LoadClassifier(classifierPath)
	if err != nil {
		return nil, err
	}
	scaler, err := LoadScaler(scalerPath)
	if err != nil {
		return nil, err
	}
	return &Artifacts{Forest: forest, Scaler: scaler}, nil
}

// LoadClassifier reads a random forest from a JSON file.
func LoadClassifier(path string) (*Forest, error) {
	var forest Forest
	if err := readJSON(path, &forest); err != nil {
		return nil, fmt.Errorf("failed to load classifier: %w", err)
	}
	if err := forest.validate(); err != nil {
		return nil, fmt.Errorf("invalid classifier %s: %w", path, err)
	}
	return &forest, nil
}

// LoadScaler reads a standard scaler from a JSON file.
func LoadScaler(path string) (*Scaler, error) {
	var scaler Scaler
	if err := readJSON(path, &scaler); err != nil {
		return nil, fmt.Errorf("failed to load scaler: %w", err)
	}
	if err := scaler.validate(); err != nil {
		return nil, fmt.Errorf("invalid scaler %s: %w", path, err)
	}
	return &scaler, nil
}

func readJSON(path string, v any) error {
	if path == "" {
		return fmt.Errorf("%w: artifact path is empty", common.ErrMissingConfig)
	}

	// #nosec G304 - path comes from the user's own configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s is not valid JSON: %w", common.ErrInvalidConfig, path, err)
	}
	return nil
}
