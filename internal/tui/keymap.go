package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts.
type KeyMap struct {
	// Forms
	Submit     key.Binding
	SwitchMode key.Binding
	Guest      key.Binding

	// Screens
	History key.Binding
	Back    key.Binding
	Logout  key.Binding

	// Application
	Quit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "submit"),
		),
		SwitchMode: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("Ctrl+R", "login/register/reset"),
		),
		Guest: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "continue without signing in"),
		),
		History: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("Ctrl+T", "transaction history"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "back"),
		),
		Logout: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("Ctrl+O", "log out"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("Ctrl+C", "quit"),
		),
	}
}

// helpFor returns the bindings shown in the footer of each state.
func (k KeyMap) helpFor(state State, signedIn bool) []key.Binding {
	switch state {
	case StateAuth:
		return []key.Binding{k.Submit, k.SwitchMode, k.Guest, k.Quit}
	case StateForm:
		if signedIn {
			return []key.Binding{k.Submit, k.History, k.Logout, k.Quit}
		}
		return []key.Binding{k.Submit, k.Logout, k.Quit}
	case StateResult:
		return []key.Binding{k.Back, k.History, k.Quit}
	case StateHistory:
		return []key.Binding{k.Back, k.Quit}
	default:
		return []key.Binding{k.Quit}
	}
}
