package components

import (
	"fmt"
	"strings"

	"github.com/Veraticus/fraudwatch/internal/model"
	"github.com/Veraticus/fraudwatch/internal/tui/themes"
	tea "github.com/charmbracelet/bubbletea"
)

const historyTimeLayout = "2006-01-02 15:04:05"

// HistoryModel lists a user's recorded predictions, newest first.
type HistoryModel struct {
	theme    themes.Theme
	username string
	records  []model.PredictionRecord
	offset   int
	height   int
}

// NewHistoryModel creates the history list.
func NewHistoryModel(username string, records []model.PredictionRecord, theme themes.Theme) HistoryModel {
	return HistoryModel{
		theme:    theme,
		username: username,
		records:  records,
		height:   10,
	}
}

// Len returns the number of records.
func (m HistoryModel) Len() int {
	return len(m.records)
}

// Update scrolls the list.
func (m HistoryModel) Update(msg tea.Msg) (HistoryModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "down", "j":
		m.offset++
	case "up", "k":
		m.offset--
	case "pgdown":
		m.offset += m.height
	case "pgup":
		m.offset -= m.height
	case "home", "g":
		m.offset = 0
	case "end", "G":
		m.offset = len(m.records)
	}
	m.offset = max(0, min(m.offset, len(m.records)-m.height))
	return m, nil
}

// Resize sets the number of visible rows from the terminal height.
func (m *HistoryModel) Resize(_, height int) {
	m.height = max(height-8, 3)
}

// View renders the list.
func (m HistoryModel) View() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render(fmt.Sprintf("Welcome, %s! Here are your recorded transactions:", m.username)))
	b.WriteString("\n")

	if len(m.records) == 0 {
		b.WriteString(m.theme.StatusInfo.Render("No transaction history found for your account."))
		b.WriteString("\n")
		return b.String()
	}

	header := fmt.Sprintf("%-19s  %-6s  %-11s  %14s  %-4s  %-12s  %s",
		"Timestamp", "Result", "Probability", "Amount", "Cur", "Location", "Category")
	b.WriteString(m.theme.Bold.Render(header))
	b.WriteString("\n")

	end := min(m.offset+m.height, len(m.records))
	for _, rec := range m.records[m.offset:end] {
		label := m.theme.StatusOK.Render(fmt.Sprintf("%-6s", rec.Label))
		if rec.Label == model.LabelFraud {
			label = m.theme.StatusError.Render(fmt.Sprintf("%-6s", rec.Label))
		}
		fmt.Fprintf(&b, "%-19s  %s  %-11.4f  %14.2f  %-4s  %-12s  %s\n",
			rec.Timestamp.Local().Format(historyTimeLayout),
			label,
			rec.Probability,
			rec.RawInput.Amount,
			rec.RawInput.Currency,
			rec.RawInput.Location,
			rec.RawInput.Category)
	}

	b.WriteString(m.theme.Help.Render(fmt.Sprintf("\n%d-%d of %d", m.offset+1, end, len(m.records))))
	b.WriteString("\n")
	return b.String()
}
