package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/spicebot/internal/common"
	"github.com/Veraticus/spicebot/internal/tui"
	"github.com/Veraticus/spicebot/internal/tui/themes"
)

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the bot in the terminal",
		Long: `Open an interactive console that behaves like a chat channel. Messages go
through the same handling a webhook would use, including confirmation buttons.

Logs would corrupt the screen, so they are discarded unless --log-file is set.`,
		Example: `  spicebot chat --channel tg_123456
  spicebot chat --channel tg_42 --theme catppuccin --log-file /tmp/spicebot.log`,
		RunE: runChat,
	}

	cmd.Flags().String("channel", "", "Channel identifier to chat as")
	cmd.Flags().String("theme", "default", "Color theme (default, catppuccin)")
	cmd.Flags().String("log-file", "", "Write logs to this file while the console is open")
	_ = cmd.MarkFlagRequired("channel")

	return cmd
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	channel, _ := cmd.Flags().GetString("channel")
	themeName, _ := cmd.Flags().GetString("theme")
	logFile, _ := cmd.Flags().GetString("log-file")

	theme, ok := themes.ByName(themeName)
	if !ok {
		return fmt.Errorf("unknown theme %q", themeName)
	}

	logger, closeLog, err := consoleLogger(logFile)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	a, err := newApp(ctx, withLogger(logger))
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	opts := []tui.Option{
		tui.WithTheme(theme),
		tui.WithReplyTimeout(2 * a.cfg.LLM.Timeout),
	}
	if ws, err := a.store.GetWorkspaceByChannel(ctx, channel); err == nil {
		opts = append(opts, tui.WithWorkspaceName(ws.Name))
	} else {
		logger.Warn("no workspace linked to channel", "channel_id", channel)
	}

	return tui.Run(ctx, a.bot, channel, opts...)
}

// consoleLogger returns a logger that stays off the terminal: it writes to path when
// given and discards everything otherwise.
func consoleLogger(path string) (*slog.Logger, func(), error) {
	level, err := common.ParseLevel(viper.GetString("logging.level"))
	if err != nil {
		return nil, nil, err
	}

	if path == "" {
		logger, err := common.NewLogger(io.Discard, level, viper.GetString("logging.format"))
		return logger, func() {}, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger, err := common.NewLogger(f, level, viper.GetString("logging.format"))
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return logger, func() { _ = f.Close() }, nil
}
