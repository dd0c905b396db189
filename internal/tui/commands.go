package tui

import (
	"context"

	"github.com/Veraticus/fraudwatch/internal/account"
	"github.com/Veraticus/fraudwatch/internal/model"
	"github.com/Veraticus/fraudwatch/internal/tui/components"
	tea "github.com/charmbracelet/bubbletea"
)

// authenticate runs the account operation for the entered credentials.
func (m Model) authenticate(c components.Credentials) tea.Cmd {
	ctx, accounts := m.ctx, m.accounts
	return func() tea.Msg {
		var out account.Outcome
		switch c.Mode {
		case components.AuthRegister:
			out = accounts.Register(ctx, c.Username, c.Password)
		case components.AuthReset:
			out = accounts.ResetPassword(ctx, c.Username, c.Password, c.Confirmation)
		default:
			out = accounts.Login(ctx, c.Username, c.Password)
		}
		return authResultMsg{mode: c.Mode, outcome: out}
	}
}

// predict scores the form values and, for a signed-in user, records the
// prediction.
func (m Model) predict(values map[string]any) tea.Cmd {
	ctx, accounts, predictor := m.ctx, m.accounts, m.predictor
	var userID int64
	if m.session != nil {
		userID = m.session.UserID
	}

	return func() tea.Msg {
		raw, err := model.RawTransactionFromMap(values)
		if err != nil {
			return predictionResultMsg{err: err}
		}
		result, err := predictor.Predict(raw)
		if err != nil {
			return predictionResultMsg{err: err}
		}

		record := account.Outcome{Message: account.MsgLoginToRecord}
		if accounts != nil {
			record = accounts.Record(ctx, userID, raw, result)
		}
		return predictionResultMsg{result: result, record: record}
	}
}

// loadHistory reads the signed-in user's predictions.
func (m Model) loadHistory() tea.Cmd {
	ctx, reader, userID := m.ctx, m.history, m.session.UserID
	return func() tea.Msg {
		records, err := reader.ListPredictions(ctx, userID)
		return historyLoadedMsg{records: records, err: err}
	}
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
