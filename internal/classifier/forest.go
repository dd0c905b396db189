package classifier

import (
	"errors"
	"fmt"

	"github.com/Veraticus/fraudwatch/internal/common"
)

const leafNode = -1

// Tree is one decision tree in sklearn's flat array layout. Node i is a leaf
// when ChildrenLeft[i] is -1; otherwise samples with
// x[Feature[i]] <= Threshold[i] go left.
type Tree struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

// Forest is a random forest classifier. It is immutable after loading and
// safe for concurrent use.
type Forest struct {
	ModelType    string   `json:"model_type"`
	FeatureNames []string `json:"feature_names"`
	Classes      []int    `json:"classes"`
	Trees        []Tree   `json:"trees"`
	NFeatures    int      `json:"n_features"`
}

// PredictProba returns the class probabilities for one sample, averaged over
// all trees. The order follows Classes.
func (f *Forest) PredictProba(x []float64) ([]float64, error) {
	if len(x) != f.NFeatures {
		return nil, &common.SchemaMismatchError{
			Component: "classifier",
			Expected:  f.NFeatures,
			Got:       len(x),
		}
	}

	proba := make([]float64, len(f.Classes))
	for i := range f.Trees {
		leaf := f.Trees[i].leafFor(x)
		counts := f.Trees[i].Value[leaf]

		var total float64
		for _, c := range counts {
			total += c
		}
		if total == 0 {
			continue
		}
		for k, c := range counts {
			proba[k] += c / total
		}
	}

	n := float64(len(f.Trees))
	for k := range proba {
		proba[k] /= n
	}
	return proba, nil
}

// Predict returns the most probable class and the full probability vector.
// Ties resolve to the earlier class.
func (f *Forest) Predict(x []float64) (int, []float64, error) {
	proba, err := f.PredictProba(x)
	if err != nil {
		return 0, nil, err
	}

	best := 0
	for k := 1; k < len(proba); k++ {
		if proba[k] > proba[best] {
			best = k
		}
	}
	return f.Classes[best], proba, nil
}

// ClassIndex returns the position of class in the probability vector.
func (f *Forest) ClassIndex(class int) (int, bool) {
	for i, c := range f.Classes {
		if c == class {
			return i, true
		}
	}
	return 0, false
}

// leafFor walks the tree for x. Inputs are narrowed to float32 first because
// sklearn evaluates splits on float32 copies of the samples.
func (t *Tree) leafFor(x []float64) int {
	node := 0
	for t.ChildrenLeft[node] != leafNode {
		if float64(float32(x[t.Feature[node]])) <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return node
}

func (f *Forest) validate() error {
	if f.ModelType != "" && f.ModelType != "random_forest" {
		return fmt.Errorf("%w: unsupported model type %q", common.ErrInvalidConfig, f.ModelType)
	}
	if f.NFeatures == 0 {
		f.NFeatures = len(f.FeatureNames)
	}
	if f.NFeatures == 0 || len(f.FeatureNames) != f.NFeatures {
		return fmt.Errorf("%w: classifier declares %d features but names %d",
			common.ErrInvalidConfig, f.NFeatures, len(f.FeatureNames))
	}
	if len(f.Classes) < 2 {
		return fmt.Errorf("%w: classifier needs at least two classes, has %d", common.ErrInvalidConfig, len(f.Classes))
	}
	if len(f.Trees) == 0 {
		return fmt.Errorf("%w: classifier has no trees", common.ErrInvalidConfig)
	}
	for i := range f.Trees {
		if err := f.Trees[i].validate(f.NFeatures, len(f.Classes)); err != nil {
			return fmt.Errorf("%w: tree %d: %w", common.ErrInvalidConfig, i, err)
		}
	}
	return nil
}

func (t *Tree) validate(nFeatures, nClasses int) error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return errors.New("empty tree")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return errors.New("array lengths differ")
	}

	for i := 0; i < n; i++ {
		if len(t.Value[i]) != nClasses {
			return fmt.Errorf("node %d has %d class values, want %d", i, len(t.Value[i]), nClasses)
		}
		left, right := t.ChildrenLeft[i], t.ChildrenRight[i]
		if left == leafNode {
			if right != leafNode {
				return fmt.Errorf("node %d has only one child", i)
			}
			continue
		}
		// Children always come after their parent, which also rules out cycles.
		if left <= i || left >= n || right <= i || right >= n {
			return fmt.Errorf("node %d has child out of range", i)
		}
		if t.Feature[i] < 0 || t.Feature[i] >= nFeatures {
			return fmt.Errorf("node %d splits on feature %d", i, t.Feature[i])
		}
	}
	return nil
}
