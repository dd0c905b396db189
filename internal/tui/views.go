package tui

import (
	"strconv"
	"strings"

	"github.com/Veraticus/fraudwatch/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	switch m.state {
	case StateAuth:
		body = m.auth.View()
	case StateForm:
		body = m.form.View()
	case StatePredicting:
		body = m.theme.StatusInfo.Render("Scoring transaction...")
	case StateResult:
		body = m.renderResult()
	case StateHistory:
		body = m.historyView.View()
	}

	sections := []string{m.renderHeader(), body}
	if m.status != "" {
		style := m.theme.StatusOK
		if m.statusErr {
			style = m.theme.StatusError
		}
		sections = append(sections, style.Render(m.status))
	}
	sections = append(sections, m.renderHelp())

	return m.theme.RoundedBox.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m Model) renderHeader() string {
	who := "Guest"
	if m.session != nil {
		who = "Signed in as " + m.session.Username
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		m.theme.Title.Render("Fraudwatch"),
		"  ",
		lipgloss.NewStyle().Foreground(m.theme.Muted).Render(who),
	)
}

func (m Model) renderResult() string {
	if m.result == nil {
		return ""
	}

	prob := strconv.FormatFloat(m.result.Probability, 'f', -1, 64)
	text := "✅ Legitimate Transaction. Probability: " + prob
	if m.result.Label == model.LabelFraud {
		text = "🚨 Fraudulent Transaction Detected! Probability: " + prob
	}

	lines := []string{
		m.theme.Title.Render("Prediction Result:"),
		m.theme.VerdictStyle(m.result.Label).Render(text),
		"",
	}
	if m.record.OK {
		lines = append(lines, m.theme.StatusInfo.Render(m.record.Message))
	} else {
		lines = append(lines, m.theme.StatusWarn.Render(m.record.Message))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderHelp() string {
	bindings := m.keymap.helpFor(m.state, m.session != nil)
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return m.theme.Help.Render("\n" + strings.Join(parts, " • "))
}
