package tui

import (
	"time"

	"github.com/Veraticus/spicebot/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	Theme         themes.Theme
	Bot           ChatBot
	ChannelID     string
	WorkspaceName string
	Width         int
	Height        int
	ReplyTimeout  time.Duration
	ShowHelp      bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:        themes.Default,
		Width:        80,
		Height:       24,
		ReplyTimeout: 30 * time.Second,
		ShowHelp:     true,
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

// WithWorkspaceName shows the workspace name in the header.
func WithWorkspaceName(name string) Option {
	return func(c *Config) {
		c.WorkspaceName = name
	}
}

// WithReplyTimeout bounds how long one message may take to answer.
func WithReplyTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.ReplyTimeout = d
		}
	}
}

// WithHelp toggles the help line.
func WithHelp(show bool) Option {
	return func(c *Config) {
		c.ShowHelp = show
	}
}
