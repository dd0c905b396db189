package prediction

import (
	"sync"
	"testing"

	"github.com/Veraticus/fraudwatch/internal/classifier"
	"github.com/Veraticus/fraudwatch/internal/common"
	"github.com/Veraticus/fraudwatch/internal/features"
	"github.com/Veraticus/fraudwatch/internal/model"
	"github.com/Veraticus/fraudwatch/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(testutil.ArtifactsFixture())
	require.NoError(t, err)
	return svc
}

func TestPredict(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		mutate    func(*model.RawTransaction)
		name      string
		wantLabel model.Label
		wantProb  float64
	}{
		{
			name:      "default form entry",
			mutate:    func(*model.RawTransaction) {},
			wantLabel: model.LabelFraud,
			wantProb:  0.5667,
		},
		{
			name:      "short hop",
			mutate:    func(r *model.RawTransaction) { r.DistanceKm = 100 },
			wantLabel: model.LabelLegit,
			wantProb:  0.2167,
		},
		{
			name:      "split threshold goes left",
			mutate:    func(r *model.RawTransaction) { r.DistanceKm = 1250 },
			wantLabel: model.LabelLegit,
			wantProb:  0.2167,
		},
		{
			name:      "failed status",
			mutate:    func(r *model.RawTransaction) { r.Status = "Failed" },
			wantLabel: model.LabelFraud,
			wantProb:  0.775,
		},
		{
			name:      "pending has no indicator",
			mutate:    func(r *model.RawTransaction) { r.Status = "Pending" },
			wantLabel: model.LabelFraud,
			wantProb:  0.775,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := testutil.SampleTransaction()
			tt.mutate(&raw)

			result, err := svc.Predict(raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLabel, result.Label)
			assert.InDelta(t, tt.wantProb, result.Probability, 1e-9)
		})
	}
}

func TestPredictIsDeterministicAndConcurrent(t *testing.T) {
	svc := newTestService(t)
	raw := testutil.SampleTransaction()

	first, err := svc.Predict(raw)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]Result, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = svc.Predict(raw)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, first, r)
	}
}

func TestPredictPropagatesPipelineErrors(t *testing.T) {
	svc := newTestService(t)

	raw := testutil.SampleTransaction()
	raw.Date = "2024-01-15"
	_, err := svc.Predict(raw)
	assert.ErrorIs(t, err, common.ErrParse)

	raw = testutil.SampleTransaction()
	raw.Category = ""
	_, err = svc.Predict(raw)
	assert.ErrorIs(t, err, common.ErrMissingField)
}

func TestScoreSchemaMismatch(t *testing.T) {
	svc := newTestService(t)

	vec, err := features.NewPipeline(testutil.ScalerFixture()).Transform(testutil.SampleTransaction())
	require.NoError(t, err)

	t.Run("dropped column", func(t *testing.T) {
		short := features.Vector{Names: vec.Names[:27], Values: vec.Values[:27]}
		_, err := svc.Score(short)
		var mismatch *common.SchemaMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, 28, mismatch.Expected)
		assert.Equal(t, 27, mismatch.Got)
	})

	t.Run("renamed column", func(t *testing.T) {
		names := features.Schema()
		names[19] = "Card_Type_Visa"
		_, err := svc.Score(features.Vector{Names: names, Values: vec.Values})
		assert.ErrorIs(t, err, common.ErrSchemaMismatch)
	})

	t.Run("ragged values", func(t *testing.T) {
		_, err := svc.Score(features.Vector{Names: vec.Names, Values: vec.Values[:10]})
		assert.ErrorIs(t, err, common.ErrSchemaMismatch)
	})
}

func TestNewServiceRejectsDriftedArtifacts(t *testing.T) {
	t.Run("classifier trained on other columns", func(t *testing.T) {
		artifacts := testutil.ArtifactsFixture()
		artifacts.Forest.FeatureNames = artifacts.Forest.FeatureNames[:27]
		_, err := NewService(artifacts)
		assert.ErrorIs(t, err, common.ErrSchemaMismatch)
	})

	t.Run("scaler fitted on other columns", func(t *testing.T) {
		artifacts := testutil.ArtifactsFixture()
		artifacts.Scaler.Names = []string{"Transaction_Amount"}
		_, err := NewService(artifacts)
		assert.ErrorIs(t, err, common.ErrSchemaMismatch)
	})

	t.Run("no fraud class", func(t *testing.T) {
		artifacts := testutil.ArtifactsFixture()
		artifacts.Forest.Classes = []int{0, 2}
		_, err := NewService(artifacts)
		assert.ErrorIs(t, err, common.ErrInvalidConfig)
	})

	t.Run("missing artifacts", func(t *testing.T) {
		_, err := NewService(&classifier.Artifacts{})
		assert.ErrorIs(t, err, common.ErrMissingConfig)
	})
}

func TestRound(t *testing.T) {
	assert.InDelta(t, 0.5667, Round(0.56666666), 1e-12)
	assert.InDelta(t, 0.0, Round(0.00004), 1e-12)
	assert.InDelta(t, 1.0, Round(0.99996), 1e-12)
}
