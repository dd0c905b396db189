package components

import (
	"strings"

	"github.com/Veraticus/fraudwatch/internal/tui/themes"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// AuthMode selects what the credentials form does.
type AuthMode int

const (
	AuthLogin AuthMode = iota
	AuthRegister
	AuthReset
)

func (m AuthMode) String() string {
	switch m {
	case AuthRegister:
		return "Register"
	case AuthReset:
		return "Reset Password"
	default:
		return "Login"
	}
}

// Credentials is what the user entered. Confirmation is only used when
// resetting a password.
type Credentials struct {
	Username     string
	Password     string
	Confirmation string
	Mode         AuthMode
}

// AuthModel is the login, registration and password reset form.
type AuthModel struct {
	theme   themes.Theme
	status  string
	inputs  [3]textinput.Model
	mode    AuthMode
	focus   int
	isError bool
}

// NewAuthModel creates the form in login mode.
func NewAuthModel(theme themes.Theme) AuthModel {
	m := AuthModel{theme: theme}
	for i := range m.inputs {
		in := textinput.New()
		in.CharLimit = 72
		in.Width = 30
		in.Prompt = ""
		m.inputs[i] = in
	}
	m.inputs[1].EchoMode = textinput.EchoPassword
	m.inputs[2].EchoMode = textinput.EchoPassword
	m.inputs[0].Focus()
	return m
}

func (m AuthModel) active() int {
	if m.mode == AuthReset {
		return 3
	}
	return 2
}

func (m AuthModel) labels() []string {
	if m.mode == AuthReset {
		return []string{"Username", "New Password", "Confirm New Password"}
	}
	return []string{"Username", "Password"}
}

// Update handles navigation and typing.
func (m AuthModel) Update(msg tea.Msg) (AuthModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			m.setFocus(m.focus + 1)
			return m, nil
		case "shift+tab", "up":
			m.setFocus(m.focus - 1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *AuthModel) setFocus(i int) {
	n := m.active()
	m.inputs[m.focus].Blur()
	m.focus = (i%n + n) % n
	m.inputs[m.focus].Focus()
}

// Mode returns the current mode.
func (m AuthModel) Mode() AuthMode {
	return m.mode
}

// SetMode switches mode and clears the password entries. The username is
// kept.
func (m *AuthModel) SetMode(mode AuthMode) {
	m.mode = mode
	m.inputs[1].Reset()
	m.inputs[2].Reset()
	m.setFocus(0)
}

// NextMode cycles login, register and reset.
func (m *AuthModel) NextMode() {
	m.SetMode((m.mode + 1) % 3)
	m.status = ""
}

// Credentials returns the current entries.
func (m AuthModel) Credentials() Credentials {
	c := Credentials{
		Mode:     m.mode,
		Username: strings.TrimSpace(m.inputs[0].Value()),
		Password: m.inputs[1].Value(),
	}
	if m.mode == AuthReset {
		c.Confirmation = m.inputs[2].Value()
	}
	return c
}

// SetStatus shows a message under the form.
func (m *AuthModel) SetStatus(msg string, isError bool) {
	m.status = msg
	m.isError = isError
}

// View renders the form.
func (m AuthModel) View() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render(m.mode.String()))
	b.WriteString("\n")

	for i, label := range m.labels() {
		marker := "  "
		if i == m.focus {
			marker = m.theme.Focused.Render("> ")
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			marker, m.theme.Label.Render(label), m.inputs[i].View()))
		b.WriteString("\n")
	}

	if m.status != "" {
		style := m.theme.StatusOK
		if m.isError {
			style = m.theme.StatusError
		}
		b.WriteString("\n")
		b.WriteString(style.Render(m.status))
		b.WriteString("\n")
	}
	return b.String()
}
