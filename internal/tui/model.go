package tui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Veraticus/fraudwatch/internal/account"
	"github.com/Veraticus/fraudwatch/internal/common"
	"github.com/Veraticus/fraudwatch/internal/prediction"
	"github.com/Veraticus/fraudwatch/internal/service"
	"github.com/Veraticus/fraudwatch/internal/session"
	"github.com/Veraticus/fraudwatch/internal/tui/components"
	"github.com/Veraticus/fraudwatch/internal/tui/themes"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// State represents the current screen of the TUI.
type State int

const (
	StateAuth State = iota
	StateForm
	StatePredicting
	StateResult
	StateHistory
)

func (s State) String() string {
	switch s {
	case StateAuth:
		return "auth"
	case StateForm:
		return "form"
	case StatePredicting:
		return "predicting"
	case StateResult:
		return "result"
	case StateHistory:
		return "history"
	default:
		return "unknown"
	}
}

// Status messages.
const (
	msgGuest          = "Continuing without signing in. Predictions will not be recorded."
	msgLoginToHistory = "Please log in to view your transaction history."
	msgLoggedOut      = "Logged out successfully."
	msgSessionExpired = "Your session has expired. Please log in again."
)

// Model holds the main TUI state.
type Model struct {
	ctx         context.Context
	theme       themes.Theme
	predictor   service.Predictor
	history     service.HistoryReader
	accounts    *account.Service
	session     *session.Session
	result      *prediction.Result
	recorder    *Recorder
	now         func() time.Time
	record      account.Outcome
	auth        components.AuthModel
	historyView components.HistoryModel
	status      string
	keymap      KeyMap
	form        components.TransactionFormModel
	config      Config
	width       int
	height      int
	state       State
	statusErr   bool
	quitting    bool
}

// newModel creates a new model with the given configuration.
func newModel(ctx context.Context, cfg Config) Model {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	m := Model{
		ctx:       contextOrBackground(ctx),
		config:    cfg,
		theme:     cfg.Theme,
		keymap:    DefaultKeyMap(),
		accounts:  cfg.Accounts,
		predictor: cfg.Predictor,
		history:   cfg.History,
		now:       cfg.Now,
		width:     cfg.Width,
		height:    cfg.Height,
		state:     StateAuth,
		auth:      components.NewAuthModel(cfg.Theme),
		form:      components.NewTransactionFormModel(cfg.Theme, cfg.Now()),
	}
	m.handleResize()
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	next.recorder.RecordState(next, msg)
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keymap.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.handleResize()
		return m, nil

	case authResultMsg:
		return m.handleAuthResult(msg), nil

	case predictionResultMsg:
		return m.handlePrediction(msg), nil

	case historyLoadedMsg:
		return m.handleHistory(msg), nil
	}

	// Cursor blinks and other component messages.
	var cmd tea.Cmd
	switch m.state {
	case StateAuth:
		m.auth, cmd = m.auth.Update(msg)
	case StateForm:
		m.form, cmd = m.form.Update(msg)
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.session != nil && m.session.Expired(m.now()) {
		slog.Info("tui session expired", "user_id", m.session.UserID)
		m = m.logout(msgSessionExpired)
		return m, nil
	}

	var cmd tea.Cmd
	switch m.state {
	case StateAuth:
		switch {
		case key.Matches(msg, m.keymap.Submit):
			return m, m.authenticate(m.auth.Credentials())
		case key.Matches(msg, m.keymap.SwitchMode):
			m.auth.NextMode()
		case key.Matches(msg, m.keymap.Guest):
			m.state = StateForm
			m.setStatus(msgGuest, false)
		default:
			m.auth, cmd = m.auth.Update(msg)
		}

	case StateForm:
		switch {
		case key.Matches(msg, m.keymap.Submit):
			m.state = StatePredicting
			m.setStatus("", false)
			return m, m.predict(m.form.Values())
		case key.Matches(msg, m.keymap.History):
			return m.openHistory()
		case key.Matches(msg, m.keymap.Logout):
			m = m.logout(msgLoggedOut)
		default:
			m.form, cmd = m.form.Update(msg)
		}

	case StateResult:
		switch {
		case key.Matches(msg, m.keymap.Back), key.Matches(msg, m.keymap.Submit):
			m.state = StateForm
		case key.Matches(msg, m.keymap.History):
			return m.openHistory()
		case key.Matches(msg, m.keymap.Logout):
			m = m.logout(msgLoggedOut)
		}

	case StateHistory:
		switch {
		case key.Matches(msg, m.keymap.Back):
			m.state = StateForm
		case key.Matches(msg, m.keymap.Logout):
			m = m.logout(msgLoggedOut)
		default:
			m.historyView, cmd = m.historyView.Update(msg)
		}
	}
	return m, cmd
}

func (m Model) handleAuthResult(msg authResultMsg) Model {
	if !msg.outcome.OK {
		m.auth.SetStatus(msg.outcome.Message, true)
		return m
	}

	switch msg.mode {
	case components.AuthLogin:
		m.session = session.New(msg.outcome.User, m.config.SessionTTL, m.now())
		slog.Info("tui session started", "user_id", m.session.UserID, "session_id", m.session.ID)
		m.state = StateForm
		m.setStatus(msg.outcome.Message, false)
	default:
		m.auth.SetMode(components.AuthLogin)
		m.auth.SetStatus(msg.outcome.Message, false)
	}
	return m
}

func (m Model) handlePrediction(msg predictionResultMsg) Model {
	if msg.err == nil {
		result := msg.result
		m.result = &result
		m.record = msg.record
		m.state = StateResult
		return m
	}

	m.state = StateForm
	switch {
	case common.IsInputError(msg.err):
		m.form.SetError(msg.err.Error())
	case errors.Is(msg.err, common.ErrSchemaMismatch):
		common.LogError(msg.err, "model artifacts do not match the feature pipeline", nil)
		m.setStatus("The fraud model is misconfigured: "+msg.err.Error(), true)
	default:
		common.LogError(msg.err, "prediction failed", nil)
		m.setStatus("Prediction failed: "+msg.err.Error(), true)
	}
	return m
}

func (m Model) handleHistory(msg historyLoadedMsg) Model {
	if msg.err != nil {
		common.LogError(msg.err, "failed to load history", common.Fields{"user_id": m.session.UserID})
		m.setStatus("Error fetching transaction history: "+msg.err.Error(), true)
		return m
	}
	m.historyView = components.NewHistoryModel(m.session.Username, msg.records, m.theme)
	m.historyView.Resize(m.width, m.height)
	m.state = StateHistory
	return m
}

func (m Model) openHistory() (Model, tea.Cmd) {
	if m.session == nil || m.history == nil {
		m.setStatus(msgLoginToHistory, true)
		return m, nil
	}
	return m, m.loadHistory()
}

// logout drops the session and returns to the sign-in screen.
func (m Model) logout(status string) Model {
	if m.session != nil {
		slog.Info("tui session ended", "user_id", m.session.UserID, "session_id", m.session.ID)
	}
	m.session = nil
	m.result = nil
	m.state = StateAuth
	m.setStatus("", false)
	m.auth = components.NewAuthModel(m.theme)
	m.auth.SetStatus(status, false)
	return m
}

func (m *Model) setStatus(msg string, isError bool) {
	m.status = msg
	m.statusErr = isError
}

// handleResize adjusts component sizes when the terminal resizes.
func (m *Model) handleResize() {
	m.form.Resize(m.width-4, m.height-6)
	m.historyView.Resize(m.width-4, m.height-6)
}

// State returns the current screen.
func (m Model) State() State {
	return m.state
}

// Session returns the signed-in session, or nil for a guest.
func (m Model) Session() *session.Session {
	return m.session
}
