package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/spicebot/internal/bot"
)

// View renders the console.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		m.renderHeader(),
		m.viewport.View(),
		m.renderActions(),
		m.renderInput(),
	}
	if m.showHelp {
		sections = append(sections, m.renderHelp())
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	title := "🌶️  spicebot"
	if m.config.WorkspaceName != "" {
		title += " · " + m.config.WorkspaceName
	}
	channel := m.theme.Subtitle.Render("channel " + m.config.ChannelID)

	gap := max(m.width-lipgloss.Width(title)-lipgloss.Width(channel), 1)
	return m.theme.Title.Render(title) + strings.Repeat(" ", gap) + channel
}

// renderTranscript renders every entry, wrapped to the viewport width.
func (m Model) renderTranscript() string {
	width := max(m.width-2, 10)
	blocks := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		blocks = append(blocks, m.renderEntry(e, width))
	}
	return strings.Join(blocks, "\n\n")
}

func (m Model) renderEntry(e entry, width int) string {
	switch e.role {
	case roleUser:
		return m.theme.UserMessage.Width(width).Render("you › " + e.text)
	case roleSystem:
		return m.theme.StatusPending.Width(width).Render(e.text)
	default:
		marker := m.statusStyle(e.status).Render(statusIcon(e.status))
		body := m.theme.BotMessage.Width(width).Render(e.text)
		return marker + " bot\n" + body
	}
}

func (m Model) renderActions() string {
	if len(m.actions) == 0 {
		return ""
	}
	buttons := make([]string, len(m.actions))
	for i, a := range m.actions {
		style := m.theme.Button
		if i == m.selected {
			style = m.theme.Selected
		}
		buttons[i] = style.Render(a.Label)
	}
	return strings.Join(buttons, " ")
}

func (m Model) renderInput() string {
	prefix := "  "
	if m.waiting {
		prefix = m.spinner.View() + " "
	}
	return m.theme.BorderedBox.Width(max(m.width-2, 10)).Render(prefix + m.input.View())
}

func (m Model) renderHelp() string {
	render := func(bindings []key.Binding) string {
		parts := make([]string, 0, len(bindings))
		for _, b := range bindings {
			h := b.Help()
			parts = append(parts, fmt.Sprintf("%s %s", m.theme.Bold.Render(h.Key), h.Desc))
		}
		return m.theme.Subtitle.Render(strings.Join(parts, " • "))
	}

	if !m.fullHelp {
		return render(m.keymap.ShortHelp())
	}
	groups := m.keymap.FullHelp()
	lines := make([]string, len(groups))
	for i, g := range groups {
		lines[i] = render(g)
	}
	return strings.Join(lines, "\n")
}

func (m Model) statusStyle(s bot.Status) lipgloss.Style {
	switch s {
	case bot.StatusCommitted:
		return m.theme.StatusSuccess
	case bot.StatusPending, bot.StatusCancelled:
		return m.theme.StatusWarning
	case bot.StatusRejected, bot.StatusFailed:
		return m.theme.StatusError
	default:
		return m.theme.StatusInfo
	}
}

func statusIcon(s bot.Status) string {
	switch s {
	case bot.StatusCommitted:
		return "✓"
	case bot.StatusPending:
		return "⏳"
	case bot.StatusCancelled:
		return "↺"
	case bot.StatusRejected, bot.StatusFailed:
		return "✗"
	default:
		return "•"
	}
}
