package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the TUI application and blocks until it exits or ctx is done
func Run(ctx context.Context, cfg Config) error {
	model := NewModel(ctx, cfg)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		// Interrupted from outside, not a failure
		return nil
	}
	return err
}
