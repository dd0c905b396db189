package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/fraudwatch/internal/model"
	"github.com/Veraticus/fraudwatch/internal/tui/themes"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// FieldKind distinguishes typed entry from a fixed list of choices.
type FieldKind int

const (
	FieldText FieldKind = iota
	FieldChoice
)

// Field is one entry of the transaction form.
type Field struct {
	Name    string
	Label   string
	Options []string
	input   textinput.Model
	choice  int
	Kind    FieldKind
}

// Value returns the field's current text.
func (f Field) Value() string {
	if f.Kind == FieldChoice {
		return f.Options[f.choice]
	}
	return f.input.Value()
}

// TransactionFormModel collects the raw fields of one transaction.
type TransactionFormModel struct {
	theme  themes.Theme
	err    string
	fields []Field
	focus  int
	width  int
}

// NewTransactionFormModel creates a form prefilled with a typical payment.
// Date and time default to now.
func NewTransactionFormModel(theme themes.Theme, now time.Time) TransactionFormModel {
	text := func(name, label, value string) Field {
		in := textinput.New()
		in.CharLimit = 20
		in.Width = 20
		in.Prompt = ""
		in.SetValue(value)
		return Field{Name: name, Label: label, Kind: FieldText, input: in}
	}
	choice := func(name, label string, options []string, value string) Field {
		f := Field{Name: name, Label: label, Kind: FieldChoice, Options: options}
		for i, opt := range options {
			if opt == value {
				f.choice = i
			}
		}
		return f
	}

	d := model.DefaultTransaction(now)
	val := func(field string) string {
		v, _ := d.Value(field)
		return v
	}

	m := TransactionFormModel{
		theme: theme,
		fields: []Field{
			text(model.FieldAmount, "Transaction Amount", val(model.FieldAmount)),
			text(model.FieldDate, "Transaction Date (MM/DD/YYYY)", val(model.FieldDate)),
			text(model.FieldTime, "Transaction Time (HH:MM)", val(model.FieldTime)),
			choice(model.FieldLocation, "Transaction Location", model.Locations, val(model.FieldLocation)),
			choice(model.FieldCardType, "Card Type", model.CardTypes, val(model.FieldCardType)),
			choice(model.FieldCurrency, "Transaction Currency", model.Currencies, val(model.FieldCurrency)),
			choice(model.FieldStatus, "Transaction Status", model.Statuses, val(model.FieldStatus)),
			text(model.FieldPreviousCount, "Previous Transaction Count", val(model.FieldPreviousCount)),
			text(model.FieldDistanceKm, "Distance Between Transactions (km)", val(model.FieldDistanceKm)),
			text(model.FieldMinutesSinceLast, "Time Since Last Transaction (min)", val(model.FieldMinutesSinceLast)),
			choice(model.FieldAuthenticationMethod, "Authentication Method", model.AuthenticationMethods, val(model.FieldAuthenticationMethod)),
			text(model.FieldVelocity, "Transaction Velocity (per hour)", val(model.FieldVelocity)),
			choice(model.FieldCategory, "Transaction Category", model.Categories, val(model.FieldCategory)),
		},
	}
	m.fields[0].input.Focus()
	return m
}

// Init returns the cursor blink command.
func (m TransactionFormModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles navigation and typing. Submission is left to the caller.
func (m TransactionFormModel) Update(msg tea.Msg) (TransactionFormModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m.updateInput(msg)
	}

	switch key.String() {
	case "tab", "down":
		m.setFocus(m.focus + 1)
		return m, nil
	case "shift+tab", "up":
		m.setFocus(m.focus - 1)
		return m, nil
	case "left", "right":
		if f := &m.fields[m.focus]; f.Kind == FieldChoice {
			step := 1
			if key.String() == "left" {
				step = -1
			}
			f.choice = (f.choice + step + len(f.Options)) % len(f.Options)
			return m, nil
		}
	}

	m.err = ""
	return m.updateInput(msg)
}

func (m TransactionFormModel) updateInput(msg tea.Msg) (TransactionFormModel, tea.Cmd) {
	f := &m.fields[m.focus]
	if f.Kind != FieldText {
		return m, nil
	}
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return m, cmd
}

func (m *TransactionFormModel) setFocus(i int) {
	n := len(m.fields)
	i = (i%n + n) % n
	m.fields[m.focus].input.Blur()
	m.focus = i
	if m.fields[i].Kind == FieldText {
		m.fields[i].input.Focus()
		m.fields[i].input.CursorEnd()
	}
}

// Focused returns the name of the focused field.
func (m TransactionFormModel) Focused() string {
	return m.fields[m.focus].Name
}

// Values returns the form contents keyed by raw field name.
func (m TransactionFormModel) Values() map[string]any {
	values := make(map[string]any, len(m.fields))
	for _, f := range m.fields {
		values[f.Name] = strings.TrimSpace(f.Value())
	}
	return values
}

// SetValue sets a field. Choice fields only accept one of their options.
func (m *TransactionFormModel) SetValue(name, value string) error {
	for i := range m.fields {
		f := &m.fields[i]
		if f.Name != name {
			continue
		}
		if f.Kind == FieldText {
			f.input.SetValue(value)
			return nil
		}
		for j, opt := range f.Options {
			if opt == value {
				f.choice = j
				return nil
			}
		}
		return fmt.Errorf("%q is not a %s option", value, f.Label)
	}
	return fmt.Errorf("unknown field %q", name)
}

// SetError shows msg under the form until the next edit.
func (m *TransactionFormModel) SetError(msg string) {
	m.err = msg
}

// Resize sets the available width.
func (m *TransactionFormModel) Resize(width, _ int) {
	m.width = width
}

// View renders the form.
func (m TransactionFormModel) View() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Enter Transaction Details"))
	b.WriteString("\n")

	for i, f := range m.fields {
		label := m.theme.Label.Render(f.Label)
		var value string
		switch {
		case f.Kind == FieldChoice && i == m.focus:
			value = m.theme.Selected.Render("‹ " + f.Value() + " ›")
		case f.Kind == FieldChoice:
			value = m.theme.Normal.Render("  " + f.Value())
		default:
			value = "  " + f.input.View()
		}

		marker := "  "
		if i == m.focus {
			marker = m.theme.Focused.Render("> ")
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, marker, label, value))
		b.WriteString("\n")
	}

	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.StatusError.Render(m.err))
		b.WriteString("\n")
	}
	return b.String()
}
