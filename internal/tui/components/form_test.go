package components

import (
	"testing"
	"time"

	"github.com/Veraticus/fraudwatch/internal/model"
	"github.com/Veraticus/fraudwatch/internal/tui/themes"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var formNow = time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)

func keyMsg(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

func typed(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTransactionForm_Defaults(t *testing.T) {
	m := NewTransactionFormModel(themes.Default, formNow)

	values := m.Values()
	assert.Len(t, values, len(model.RawFieldNames()))
	assert.Equal(t, "500000", values[model.FieldAmount])
	assert.Equal(t, "01/15/2024", values[model.FieldDate])
	assert.Equal(t, "14:30", values[model.FieldTime])
	assert.Equal(t, "Samarkand", values[model.FieldLocation])
	assert.Equal(t, "Payment", values[model.FieldCategory])

	raw, err := model.RawTransactionFromMap(values)
	require.NoError(t, err)
	assert.Equal(t, 25, raw.PreviousCount)
}

func TestTransactionForm_Navigation(t *testing.T) {
	m := NewTransactionFormModel(themes.Default, formNow)
	assert.Equal(t, model.FieldAmount, m.Focused())

	m, _ = m.Update(keyMsg(tea.KeyTab))
	assert.Equal(t, model.FieldDate, m.Focused())

	m, _ = m.Update(keyMsg(tea.KeyShiftTab))
	m, _ = m.Update(keyMsg(tea.KeyShiftTab))
	assert.Equal(t, model.FieldCategory, m.Focused(), "focus wraps backwards")

	m, _ = m.Update(keyMsg(tea.KeyDown))
	assert.Equal(t, model.FieldAmount, m.Focused(), "focus wraps forwards")
}

func TestTransactionForm_CyclesChoices(t *testing.T) {
	m := NewTransactionFormModel(themes.Default, formNow)
	for m.Focused() != model.FieldCardType {
		m, _ = m.Update(keyMsg(tea.KeyTab))
	}

	m, _ = m.Update(keyMsg(tea.KeyRight))
	assert.Equal(t, "UzCard", m.Values()[model.FieldCardType])

	m, _ = m.Update(keyMsg(tea.KeyLeft))
	m, _ = m.Update(keyMsg(tea.KeyLeft))
	assert.Equal(t, "Visa", m.Values()[model.FieldCardType], "left wraps to the last option")

	m, _ = m.Update(typed("x"))
	assert.Equal(t, "Visa", m.Values()[model.FieldCardType], "typing does not change a choice")
}

func TestTransactionForm_Typing(t *testing.T) {
	m := NewTransactionFormModel(themes.Default, formNow)

	for range len("500000") {
		m, _ = m.Update(keyMsg(tea.KeyBackspace))
	}
	m, _ = m.Update(typed("1250.5"))
	assert.Equal(t, "1250.5", m.Values()[model.FieldAmount])
}

func TestTransactionForm_SetValueAndError(t *testing.T) {
	m := NewTransactionFormModel(themes.Default, formNow)

	require.NoError(t, m.SetValue(model.FieldStatus, "Failed"))
	require.NoError(t, m.SetValue(model.FieldVelocity, "9"))
	assert.Error(t, m.SetValue(model.FieldStatus, "Lost"))
	assert.Error(t, m.SetValue("Merchant_ID", "1"))
	assert.Equal(t, "Failed", m.Values()[model.FieldStatus])
	assert.Equal(t, "9", m.Values()[model.FieldVelocity])

	m.SetError("Transaction_Amount must be positive")
	assert.Contains(t, m.View(), "Transaction_Amount must be positive")

	m, _ = m.Update(typed("1"))
	assert.NotContains(t, m.View(), "must be positive", "editing clears the error")
}

func TestTransactionForm_View(t *testing.T) {
	m := NewTransactionFormModel(themes.Default, formNow)
	view := m.View()
	assert.Contains(t, view, "Enter Transaction Details")
	assert.Contains(t, view, "Distance Between Transactions (km)")
	assert.Contains(t, view, "Samarkand")
}
