package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/Veraticus/fraudwatch/internal/account"
	"github.com/Veraticus/fraudwatch/internal/common"
	"github.com/Veraticus/fraudwatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionFromFlags(t *testing.T) {
	fixedClock(t)
	cmd := predictCmd()
	withIO(cmd, "")

	raw, err := transactionFromFlags(cmd)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultTransaction(clock()), raw)

	require.NoError(t, cmd.Flags().Set("distance", "100"))
	require.NoError(t, cmd.Flags().Set("card-type", "Visa"))
	raw, err = transactionFromFlags(cmd)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, raw.DistanceKm, 1e-9)
	assert.Equal(t, "Visa", raw.CardType)

	require.NoError(t, cmd.Flags().Set("velocity", "fast"))
	_, err = transactionFromFlags(cmd)
	assert.ErrorIs(t, err, common.ErrParse)
}

func TestRunPredict_Guest(t *testing.T) {
	fixedClock(t)
	cmd := predictCmd()
	tio := withIO(cmd, "")

	require.NoError(t, runPredict(cmd, predictOptions{}, newPredictor(t), nil))
	assert.Contains(t, tio.out.String(), "Fraudulent Transaction Detected! Probability: 0.5667")
	assert.Contains(t, tio.out.String(), account.MsgLoginToRecord)
}

func TestRunPredict_RecordsForUser(t *testing.T) {
	fixedClock(t)
	db, accounts := newAccounts(t)
	user := db.MustCreateUser("alice", "pw")

	cmd := predictCmd()
	tio := withIO(cmd, "pw\n")
	require.NoError(t, cmd.Flags().Set("distance", "100"))

	err := runPredict(cmd, predictOptions{user: "alice", json: true}, newPredictor(t), accounts)
	require.NoError(t, err)

	var got predictOutput
	require.NoError(t, json.Unmarshal(tio.out.Bytes(), &got))
	assert.Equal(t, model.LabelLegit, got.Label)
	assert.InDelta(t, 0.2167, got.Probability, 1e-9)
	assert.True(t, got.Recorded)
	assert.Equal(t, account.MsgRecorded, got.Message)

	records, err := db.Storage.ListPredictions(cmd.Context(), user.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.InDelta(t, 100.0, records[0].RawInput.DistanceKm, 1e-9)
}

func TestRunPredict_WrongPassword(t *testing.T) {
	db, accounts := newAccounts(t)
	db.MustCreateUser("alice", "pw")

	cmd := predictCmd()
	withIO(cmd, "nope\n")

	err := runPredict(cmd, predictOptions{user: "alice"}, newPredictor(t), accounts)
	assert.EqualError(t, err, account.MsgInvalidCredentials)
}

func TestRunPredict_Interactive(t *testing.T) {
	fixedClock(t)
	db, accounts := newAccounts(t)
	user := db.MustCreateUser("alice", "pw")

	// Password first, then the status field is set to Failed and the rest kept.
	answers := []string{"pw", "", "", "", "", "", "", "1"}
	for range 6 {
		answers = append(answers, "")
	}

	cmd := predictCmd()
	tio := withIO(cmd, strings.Join(answers, "\n")+"\n")

	err := runPredict(cmd, predictOptions{user: "alice", interactive: true}, newPredictor(t), accounts)
	require.NoError(t, err)
	assert.Contains(t, tio.out.String(), "Probability: 0.775")
	assert.Contains(t, tio.err.String(), "Enter Transaction Details")

	count, err := db.Storage.CountPredictions(cmd.Context(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRunPredict_RejectsOutOfRangeFlags(t *testing.T) {
	fixedClock(t)
	db, accounts := newAccounts(t)
	user := db.MustCreateUser("alice", "pw")

	cmd := predictCmd()
	tio := withIO(cmd, "pw\n")
	require.NoError(t, cmd.Flags().Set("amount", "-5"))
	require.NoError(t, cmd.Flags().Set("velocity", "-3"))

	err := runPredict(cmd, predictOptions{user: "alice", json: true}, newPredictor(t), accounts)
	require.ErrorIs(t, err, common.ErrInvalidInput)
	assert.Empty(t, tio.out.String())

	count, err := db.Storage.CountPredictions(cmd.Context(), user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestTransactionFromFlags_RejectsNonFinite(t *testing.T) {
	fixedClock(t)
	cmd := predictCmd()
	withIO(cmd, "")
	require.NoError(t, cmd.Flags().Set("distance", "Inf"))

	_, err := transactionFromFlags(cmd)
	assert.ErrorIs(t, err, common.ErrParse)
}

func TestRunPredict_InvalidInput(t *testing.T) {
	fixedClock(t)
	cmd := predictCmd()
	withIO(cmd, "")
	require.NoError(t, cmd.Flags().Set("date", "2024-01-15"))

	err := runPredict(cmd, predictOptions{}, newPredictor(t), nil)
	assert.True(t, common.IsInputError(err))
}
