package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spicebot/internal/bot"
	"github.com/Veraticus/spicebot/internal/cli"
)

func replayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "Feed a file of messages to the bot",
		Long: `Send every line of a file to the bot as if it had been typed into the channel.
Blank lines and lines starting with # are skipped.

Replies that need confirmation stay pending; resolve them with 'spicebot pending'.`,
		Example: `  spicebot replay --channel tg_123456 messages.txt
  spicebot replay --channel tg_123456 --skip 120 messages.txt`,
		Args: cobra.ExactArgs(1),
		RunE: runReplay,
	}

	cmd.Flags().String("channel", "", "Channel to send the messages as")
	cmd.Flags().Int("skip", 0, "Skip this many messages from the start of the file")
	cmd.Flags().Bool("respect-rate-limit", false, "Apply the per-channel rate limit")
	_ = cmd.MarkFlagRequired("channel")

	return cmd
}

func runReplay(cmd *cobra.Command, args []string) error {
	channel, _ := cmd.Flags().GetString("channel")
	skip, _ := cmd.Flags().GetInt("skip")
	respectLimit, _ := cmd.Flags().GetBool("respect-rate-limit")
	path := args[0]

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	lines, err := readReplayLines(f)
	_ = f.Close()
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if skip < 0 || skip > len(lines) {
		return fmt.Errorf("--skip %d is outside the %d messages in %s", skip, len(lines), path)
	}
	lines = lines[skip:]

	var opts []appOption
	if !respectLimit {
		opts = append(opts, withoutRateLimit())
	}
	a, err := newApp(cmd.Context(), opts...)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	out := cmd.OutOrStdout()
	var started, sent atomic.Int64
	interrupt := cli.NewInterruptHandler(out, "Replay")
	ctx := interrupt.HandleInterrupts(cmd.Context(), func() string {
		return resumeHint(channel, path, skip, int(started.Load()), int(sent.Load()))
	})

	progress := cli.NewProgress(out, len(lines), "Replaying messages...")
	stats := replay(ctx, a.bot, channel, lines, func() { started.Add(1) }, func() {
		sent.Add(1)
		progress.Increment()
	})

	if interrupt.WasInterrupted() {
		return nil
	}
	progress.Finish()

	fmt.Fprintln(out, cli.RenderBox("Replay Complete", stats.summary()))
	return nil
}

// messageHandler is the part of the bot replay drives.
type messageHandler interface {
	HandleMessage(ctx context.Context, msg bot.Message) bot.Reply
}

// resumeHint is the command continuing a replay that started at skip. A message that
// was started but not answered may or may not have been saved, so it is resent and
// flagged.
func resumeHint(channel, path string, skip, started, sent int) string {
	hint := fmt.Sprintf("spicebot replay --channel %s --skip %d %s", channel, skip+sent, path)
	if started > sent {
		hint += fmt.Sprintf("\n  Message %d was interrupted mid-flight and may already be saved; check 'spicebot pending list' and the reply history before resuming.",
			skip+sent+1)
	}
	return hint
}

// replay sends lines in order until they run out or ctx is canceled. onStart runs
// before each message is handed to h and onSent after its reply.
func replay(ctx context.Context, h messageHandler, channel string, lines []string, onStart, onSent func()) replayStats {
	stats := replayStats{byStatus: make(map[bot.Status]int)}
	for _, line := range lines {
		if ctx.Err() != nil {
			break
		}
		if onStart != nil {
			onStart()
		}
		reply := h.HandleMessage(ctx, bot.Message{ChannelID: channel, Text: line})
		stats.byStatus[reply.Status]++
		stats.total++
		if onSent != nil {
			onSent()
		}
	}
	return stats
}

type replayStats struct {
	byStatus map[bot.Status]int
	total    int
}

func (s replayStats) summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "  • Messages sent: %d\n", s.total)
	fmt.Fprintf(&b, "  • Saved: %d\n", s.byStatus[bot.StatusCommitted])
	fmt.Fprintf(&b, "  • Awaiting confirmation: %d\n", s.byStatus[bot.StatusPending])
	fmt.Fprintf(&b, "  • Not understood or refused: %d\n", s.byStatus[bot.StatusRejected])
	if n := s.byStatus[bot.StatusFailed]; n > 0 {
		fmt.Fprintf(&b, "  • Failed: %d\n", n)
	}
	if n := s.byStatus[bot.StatusInfo] + s.byStatus[bot.StatusCancelled]; n > 0 {
		fmt.Fprintf(&b, "  • Commands: %d\n", n)
	}
	return strings.TrimRight(b.String(), "\n")
}

// readReplayLines returns the non-blank, non-comment lines of r.
func readReplayLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}
