package themes

import (
	"github.com/Veraticus/fraudwatch/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the visual style for the TUI.
type Theme struct {
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Normal      lipgloss.Style
	Bold        lipgloss.Style
	Label       lipgloss.Style
	Focused     lipgloss.Style
	Selected    lipgloss.Style
	Help        lipgloss.Style
	RoundedBox  lipgloss.Style
	StatusInfo  lipgloss.Style
	StatusError lipgloss.Style
	StatusWarn  lipgloss.Style
	StatusOK    lipgloss.Style
	Fraud       lipgloss.Style
	Legit       lipgloss.Style
	Primary     lipgloss.Color
	Muted       lipgloss.Color
	Border      lipgloss.Color
	Foreground  lipgloss.Color
	Error       lipgloss.Color
	Warning     lipgloss.Color
	Success     lipgloss.Color
	Info        lipgloss.Color
}

type palette struct {
	primary, muted, border, foreground, subtle lipgloss.Color
	err, warning, success, info                lipgloss.Color
	selectedText                               lipgloss.Color
}

func build(p palette) Theme {
	return Theme{
		Primary:    p.primary,
		Muted:      p.muted,
		Border:     p.border,
		Foreground: p.foreground,
		Error:      p.err,
		Warning:    p.warning,
		Success:    p.success,
		Info:       p.info,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.foreground).
			MarginBottom(1),
		Subtitle: lipgloss.NewStyle().
			Foreground(p.subtle).
			MarginBottom(1),
		Normal: lipgloss.NewStyle().
			Foreground(p.foreground),
		Bold: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.foreground),
		Label: lipgloss.NewStyle().
			Foreground(p.subtle).
			Width(36),
		Focused: lipgloss.NewStyle().
			Foreground(p.primary).
			Bold(true),
		Selected: lipgloss.NewStyle().
			Background(p.primary).
			Foreground(p.selectedText).
			Bold(true),
		Help: lipgloss.NewStyle().
			Foreground(p.muted),
		RoundedBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.border).
			Padding(1, 2),

		StatusInfo: lipgloss.NewStyle().
			Foreground(p.info).
			Bold(true),
		StatusError: lipgloss.NewStyle().
			Foreground(p.err).
			Bold(true),
		StatusWarn: lipgloss.NewStyle().
			Foreground(p.warning).
			Bold(true),
		StatusOK: lipgloss.NewStyle().
			Foreground(p.success).
			Bold(true),

		Fraud: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.err).
			Foreground(p.err).
			Bold(true).
			Padding(0, 2),
		Legit: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.success).
			Foreground(p.success).
			Bold(true).
			Padding(0, 2),
	}
}

// Default is the default theme.
var Default = build(palette{
	primary:      lipgloss.Color("#7c3aed"),
	muted:        lipgloss.Color("#737373"),
	border:       lipgloss.Color("#404040"),
	foreground:   lipgloss.Color("#fafafa"),
	subtle:       lipgloss.Color("#a3a3a3"),
	err:          lipgloss.Color("#ef4444"),
	warning:      lipgloss.Color("#f59e0b"),
	success:      lipgloss.Color("#10b981"),
	info:         lipgloss.Color("#3b82f6"),
	selectedText: lipgloss.Color("#fafafa"),
})

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = build(palette{
	primary:      lipgloss.Color("#cba6f7"),
	muted:        lipgloss.Color("#6c7086"),
	border:       lipgloss.Color("#45475a"),
	foreground:   lipgloss.Color("#cdd6f4"),
	subtle:       lipgloss.Color("#a6adc8"),
	err:          lipgloss.Color("#f38ba8"),
	warning:      lipgloss.Color("#f9e2af"),
	success:      lipgloss.Color("#a6e3a1"),
	info:         lipgloss.Color("#89dceb"),
	selectedText: lipgloss.Color("#1e1e2e"),
})

// GetTheme returns a theme by name.
func GetTheme(name string) Theme {
	switch name {
	case "catppuccin-mocha":
		return CatppuccinMocha
	default:
		return Default
	}
}

// VerdictStyle returns the style used to show a prediction label.
func (t Theme) VerdictStyle(label model.Label) lipgloss.Style {
	if label == model.LabelFraud {
		return t.Fraud
	}
	return t.Legit
}
