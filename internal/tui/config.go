package tui

import (
	"time"

	"github.com/Veraticus/fraudwatch/internal/account"
	"github.com/Veraticus/fraudwatch/internal/service"
	"github.com/Veraticus/fraudwatch/internal/session"
	"github.com/Veraticus/fraudwatch/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	Theme      themes.Theme
	Accounts   *account.Service
	Predictor  service.Predictor
	History    service.HistoryReader
	Now        func() time.Time
	RecordDir  string
	SessionTTL time.Duration
	Width      int
	Height     int
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:      themes.Default,
		Now:        time.Now,
		SessionTTL: session.DefaultTTL,
		Width:      100,
		Height:     32,
	}
}

// WithAccounts sets the account service used to sign in and record history.
func WithAccounts(accounts *account.Service) Option {
	return func(c *Config) {
		c.Accounts = accounts
	}
}

// WithPredictor sets the prediction service.
func WithPredictor(predictor service.Predictor) Option {
	return func(c *Config) {
		c.Predictor = predictor
	}
}

// WithHistory sets the history source.
func WithHistory(history service.HistoryReader) Option {
	return func(c *Config) {
		c.History = history
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithSessionTTL sets how long a sign-in lasts.
func WithSessionTTL(ttl time.Duration) Option {
	return func(c *Config) {
		c.SessionTTL = ttl
	}
}

// WithClock replaces the clock used for form defaults and sessions.
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		c.Now = now
	}
}

// WithRecorder writes every frame to dir for debugging.
func WithRecorder(dir string) Option {
	return func(c *Config) {
		c.RecordDir = dir
	}
}
