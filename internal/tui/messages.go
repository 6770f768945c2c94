package tui

import "github.com/Veraticus/spicebot/internal/bot"

// replyMsg carries the bot's answer back into the update loop.
type replyMsg struct {
	reply bot.Reply
}

type role int

const (
	roleUser role = iota
	roleBot
	roleSystem
)

// entry is one line of the conversation transcript.
type entry struct {
	text   string
	status bot.Status
	role   role
}
