package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/spicebot/internal/common"
)

// Run starts the chat console for channelID and blocks until the user quits or ctx is
// canceled.
func Run(ctx context.Context, chat ChatBot, channelID string, opts ...Option) error {
	if chat == nil {
		return fmt.Errorf("%w: chat bot is required", common.ErrInvalidConfig)
	}
	if channelID == "" {
		return fmt.Errorf("%w: channel is required", common.ErrInvalidConfig)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.Bot = chat
	cfg.ChannelID = channelID

	program := tea.NewProgram(
		newModel(ctx, cfg),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
