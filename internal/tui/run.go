package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/fraudwatch/internal/common"
	tea "github.com/charmbracelet/bubbletea"
)

// New builds the TUI model. The predictor is required; without an account
// service the UI runs in guest mode only.
func New(ctx context.Context, opts ...Option) (Model, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Predictor == nil {
		return Model{}, fmt.Errorf("%w: predictor is required", common.ErrMissingConfig)
	}
	return newModel(ctx, cfg), nil
}

// Run starts the terminal UI and blocks until the user quits or ctx is
// cancelled.
func Run(ctx context.Context, opts ...Option) error {
	m, err := New(ctx, opts...)
	if err != nil {
		return err
	}

	if m.config.RecordDir != "" {
		recorder, err := NewRecorder(m.config.RecordDir)
		if err != nil {
			return err
		}
		defer recorder.Close()
		m.recorder = recorder
		slog.Info("recording tui frames", "dir", recorder.Dir())
	}

	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui failed: %w", err)
	}
	return nil
}
