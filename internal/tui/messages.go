package tui

import (
	"github.com/Veraticus/fraudwatch/internal/account"
	"github.com/Veraticus/fraudwatch/internal/model"
	"github.com/Veraticus/fraudwatch/internal/prediction"
	"github.com/Veraticus/fraudwatch/internal/tui/components"
)

// Async operation messages.
type authResultMsg struct {
	outcome account.Outcome
	mode    components.AuthMode
}

type predictionResultMsg struct {
	err    error
	record account.Outcome
	result prediction.Result
}

type historyLoadedMsg struct {
	err     error
	records []model.PredictionRecord
}
