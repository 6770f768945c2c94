// Package tui is a terminal chat console that talks to the bot the way a messaging
// channel would. Replies with buttons can be answered from the keyboard.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/spicebot/internal/bot"
	"github.com/Veraticus/spicebot/internal/tui/themes"
)

// ChatBot answers messages and button presses for a channel.
type ChatBot interface {
	HandleMessage(ctx context.Context, msg bot.Message) bot.Reply
	HandleAction(ctx context.Context, channelID, payload string) bot.Reply
}

// quitCommand leaves the console without reaching the bot.
const quitCommand = "/quit"

// chrome is the number of lines taken by the header, button bar, input and help.
const chrome = 6

// Model holds the chat console state.
type Model struct {
	ctx      context.Context
	theme    themes.Theme
	bot      ChatBot
	config   Config
	keymap   KeyMap
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	entries  []entry
	actions  []bot.Action
	selected int
	width    int
	height   int
	waiting  bool
	showHelp bool
	fullHelp bool
	quitting bool
}

// newModel creates a new model with the given configuration.
func newModel(ctx context.Context, cfg Config) Model {
	input := textinput.New()
	input.Placeholder = "Lunch 15€, /help, /confirm <token>..."
	input.CharLimit = 500
	input.Prompt = "› "
	input.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot

	m := Model{
		ctx:      ctx,
		theme:    cfg.Theme,
		bot:      cfg.Bot,
		config:   cfg,
		keymap:   DefaultKeyMap(),
		input:    input,
		spinner:  s,
		width:    cfg.Width,
		height:   cfg.Height,
		showHelp: cfg.ShowHelp,
	}
	m.viewport = viewport.New(m.width, m.viewportHeight())
	m.input.Width = max(m.width-4, 10)
	m.entries = append(m.entries, entry{
		role: roleSystem,
		text: "Connected to channel " + cfg.ChannelID + ". Type /quit to leave.",
	})
	m.refresh()
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.handleResize()
		return m, nil

	case replyMsg:
		m.waiting = false
		m.actions = msg.reply.Actions
		m.selected = 0
		m.entries = append(m.entries, entry{role: roleBot, text: msg.reply.Text, status: msg.reply.Status})
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.ForceQuit), key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keymap.ToggleHelp):
		m.fullHelp = !m.fullHelp
		m.handleResize()
		return m, nil

	case key.Matches(msg, m.keymap.ClearScreen):
		m.entries = nil
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keymap.NextAction):
		if len(m.actions) > 0 {
			m.selected = (m.selected + 1) % len(m.actions)
		}
		return m, nil

	case key.Matches(msg, m.keymap.PrevAction):
		if len(m.actions) > 0 {
			m.selected = (m.selected - 1 + len(m.actions)) % len(m.actions)
		}
		return m, nil

	case key.Matches(msg, m.keymap.ScrollUp), key.Matches(msg, m.keymap.ScrollDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case key.Matches(msg, m.keymap.Send):
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the typed text, or presses the selected button when the input is empty.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.waiting {
		return m, nil
	}

	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		if len(m.actions) == 0 {
			return m, nil
		}
		action := m.actions[m.selected]
		m.entries = append(m.entries, entry{role: roleUser, text: "[" + action.Label + "]"})
		m.actions = nil
		m.waiting = true
		m.refresh()
		return m, tea.Batch(m.sendAction(action.Payload), m.spinner.Tick)
	}

	if text == quitCommand {
		m.quitting = true
		return m, tea.Quit
	}

	m.input.Reset()
	m.entries = append(m.entries, entry{role: roleUser, text: text})
	m.waiting = true
	m.refresh()
	return m, tea.Batch(m.sendMessage(text), m.spinner.Tick)
}

// sendMessage asks the bot to answer text.
func (m Model) sendMessage(text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, m.config.ReplyTimeout)
		defer cancel()
		return replyMsg{reply: m.bot.HandleMessage(ctx, bot.Message{ChannelID: m.config.ChannelID, Text: text})}
	}
}

// sendAction presses a reply button.
func (m Model) sendAction(payload string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, m.config.ReplyTimeout)
		defer cancel()
		return replyMsg{reply: m.bot.HandleAction(ctx, m.config.ChannelID, payload)}
	}
}

func (m *Model) handleResize() {
	m.viewport.Width = m.width
	m.viewport.Height = m.viewportHeight()
	m.input.Width = max(m.width-4, 10)
	m.refresh()
}

func (m Model) viewportHeight() int {
	h := m.height - chrome
	if m.fullHelp {
		h -= len(m.keymap.FullHelp())
	}
	return max(h, 3)
}

// refresh re-renders the transcript into the viewport and scrolls to the newest line.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}
