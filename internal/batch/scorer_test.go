package batch

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/Veraticus/fraudwatch/internal/common"
	"github.com/Veraticus/fraudwatch/internal/model"
	"github.com/Veraticus/fraudwatch/internal/prediction"
	"github.com/Veraticus/fraudwatch/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const datasetHeader = "Transaction_ID,Transaction_Amount,Transaction_Date,Transaction_Time,Transaction_Location," +
	"Card_Type,Transaction_Currency,Transaction_Status,Previous_Transaction_Count," +
	"Distance_Between_Transactions_km,Time_Since_Last_Transaction_min,Authentication_Method," +
	"Transaction_Velocity,Transaction_Category,isFraud\n"

func newTestScorer(t *testing.T) *Scorer {
	t.Helper()
	svc, err := prediction.NewService(testutil.ArtifactsFixture())
	require.NoError(t, err)
	return NewScorer(svc)
}

func TestScoreCSV(t *testing.T) {
	input := datasetHeader +
		"T1,500000,01/15/2024,14:30,Samarkand,Humo,UZS,Successful,25,1500,500,Password,6,Payment,1\n" +
		"T2,500000,01/15/2024,14:30,Samarkand,Humo,UZS,Successful,25,100,500,Password,6,Payment,1\n" +
		"T3,500000,2024-01-15,14:30,Samarkand,Humo,UZS,Successful,25,100,500,Password,6,Payment,0\n" +
		"T4,500000,01/15/2024,14:30,Samarkand,Humo,UZS,Failed,25,1500,500,Password,6,Payment,1\n"

	var out bytes.Buffer
	var progress []int
	summary, err := newTestScorer(t).ScoreCSV(context.Background(), strings.NewReader(input), &out,
		func(done int) { progress = append(progress, done) })
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Rows)
	assert.Equal(t, 3, summary.Scored)
	assert.Equal(t, 1, summary.Failed, "row 3 has an unparseable date")
	assert.Equal(t, 2, summary.Fraud)
	assert.Equal(t, 3, summary.Labeled)
	assert.Equal(t, 2, summary.Correct)
	assert.InDelta(t, 2.0/3.0, summary.Accuracy, 1e-9)
	assert.Equal(t, []int{1, 2, 3, 4}, progress)

	rows, err := csv.NewReader(&out).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Row", "Prediction", "Probability", "isFraud"},
		{"1", "Fraud", "0.5667", "1"},
		{"2", "Legit", "0.2167", "1"},
		{"4", "Fraud", "0.775", "1"},
	}, rows)
}

func TestScoreCSV_WithoutLabels(t *testing.T) {
	input := "Transaction_Amount,Transaction_Date,Transaction_Time,Transaction_Location,Card_Type," +
		"Transaction_Currency,Transaction_Status,Previous_Transaction_Count,Distance_Between_Transactions_km," +
		"Time_Since_Last_Transaction_min,Authentication_Method,Transaction_Velocity,Transaction_Category\n" +
		"500000,01/15/2024,14:30,Samarkand,Humo,UZS,Successful,25,1500,500,Password,6,Payment\n"

	var out bytes.Buffer
	summary, err := newTestScorer(t).ScoreCSV(context.Background(), strings.NewReader(input), &out, nil)
	require.NoError(t, err)
	assert.Zero(t, summary.Labeled)
	assert.Zero(t, summary.Accuracy)
	assert.Equal(t, "Row,Prediction,Probability\n1,Fraud,0.5667\n", out.String())
}

func TestScoreCSV_MissingColumn(t *testing.T) {
	input := "Transaction_Amount,Transaction_Date\n1,01/01/2024\n"
	_, err := newTestScorer(t).ScoreCSV(context.Background(), strings.NewReader(input), &bytes.Buffer{}, nil)
	assert.ErrorIs(t, err, common.ErrMissingField)
}

// driftedPredictor reports a schema mismatch for every row.
type driftedPredictor struct{}

func (driftedPredictor) Predict(model.RawTransaction) (prediction.Result, error) {
	return prediction.Result{}, &common.SchemaMismatchError{Component: "classifier", Expected: 28, Got: 27}
}

func TestScoreCSV_SchemaMismatchAborts(t *testing.T) {
	input := datasetHeader +
		"T1,500000,01/15/2024,14:30,Samarkand,Humo,UZS,Successful,25,1500,500,Password,6,Payment,1\n" +
		"T2,500000,01/15/2024,14:30,Samarkand,Humo,UZS,Successful,25,1500,500,Password,6,Payment,1\n"

	summary, err := NewScorer(driftedPredictor{}).ScoreCSV(context.Background(), strings.NewReader(input), &bytes.Buffer{}, nil)
	require.ErrorIs(t, err, common.ErrSchemaMismatch)
	assert.Equal(t, 1, summary.Rows)
}

func TestScoreCSV_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := datasetHeader + "T1,500000,01/15/2024,14:30,Samarkand,Humo,UZS,Successful,25,1500,500,Password,6,Payment,1\n"
	_, err := newTestScorer(t).ScoreCSV(ctx, strings.NewReader(input), &bytes.Buffer{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScoreCSV_CancelledMidRunKeepsScoredRows(t *testing.T) {
	row := "T1,500000,01/15/2024,14:30,Samarkand,Humo,UZS,Successful,25,1500,500,Password,6,Payment,1\n"
	input := datasetHeader + strings.Repeat(row, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out bytes.Buffer
	summary, err := newTestScorer(t).ScoreCSV(ctx, strings.NewReader(input), &out, func(done int) {
		if done == 5 {
			cancel()
		}
	})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.Equal(t, 5, summary.Scored)
	assert.Equal(t, 5, summary.Labeled)
	assert.InDelta(t, 1.0, summary.Accuracy, 1e-9)

	rows, err := csv.NewReader(&out).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, []string{"Row", "Prediction", "Probability", "isFraud"}, rows[0])
	assert.Equal(t, []string{"5", "Fraud", "0.5667", "1"}, rows[5])
}

func TestScoreCSV_SchemaMismatchKeepsHeader(t *testing.T) {
	input := datasetHeader + "T1,500000,01/15/2024,14:30,Samarkand,Humo,UZS,Successful,25,1500,500,Password,6,Payment,1\n"

	var out bytes.Buffer
	_, err := NewScorer(driftedPredictor{}).ScoreCSV(context.Background(), strings.NewReader(input), &out, nil)
	require.ErrorIs(t, err, common.ErrSchemaMismatch)
	assert.Equal(t, "Row,Prediction,Probability,isFraud\n", out.String())
}

func TestCountRows(t *testing.T) {
	n, err := CountRows(strings.NewReader("a,b\n1,2\n3,4\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = CountRows(strings.NewReader(""))
	require.NoError(t, err)
	assert.Zero(t, n)
}
