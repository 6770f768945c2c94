// Package bot turns inbound chat messages and button actions into replies.
//
// It is transport agnostic: a webhook handler or the developer console passes in the
// channel identifier and text, and renders the Reply it gets back.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/message"

	"github.com/Veraticus/spicebot/internal/common"
	"github.com/Veraticus/spicebot/internal/model"
	"github.com/Veraticus/spicebot/internal/parser"
	"github.com/Veraticus/spicebot/internal/pending"
	"github.com/Veraticus/spicebot/internal/ratelimit"
)

// Action payload prefixes. Payloads stay well below the 64-byte callback limit.
const (
	ActionConfirm = "confirm"
	ActionCancel  = "cancel"
)

// Message is an inbound chat message.
type Message struct {
	ChannelID string
	Text      string
}

// Action is a button offered with a reply.
type Action struct {
	Label   string
	Payload string
}

// Status classifies a reply for callers that do not read its text.
type Status string

// Reply statuses.
const (
	StatusInfo      Status = "info"
	StatusCommitted Status = "committed"
	StatusPending   Status = "pending"
	StatusCancelled Status = "cancelled"
	StatusRejected  Status = "rejected"
	StatusFailed    Status = "failed"
)

// Reply is what the bot answers. Every handled message produces one.
type Reply struct {
	Text    string
	Status  Status
	Actions []Action
}

// Workspaces finds the workspace bound to a channel.
type Workspaces interface {
	GetWorkspaceByChannel(ctx context.Context, channelID string) (*model.Workspace, error)
}

// Categories lists the categories of a workspace.
type Categories interface {
	ListCategories(ctx context.Context, workspaceID string, t model.TransactionType) ([]model.Category, error)
}

// MessageParser turns text into drafts.
type MessageParser interface {
	Parse(ctx context.Context, text string, ws parser.Workspace) (*parser.Result, error)
}

// Confirmations holds and resolves drafts awaiting confirmation.
type Confirmations interface {
	Submit(ctx context.Context, sub pending.Submission) (*pending.Outcome, error)
	Confirm(ctx context.Context, channelID, token string) (*model.Transaction, error)
	Cancel(ctx context.Context, channelID, token string) (*model.PendingTransaction, error)
	Clear(ctx context.Context, channelID string) (int, error)
}

// Config holds the collaborators of a Service.
type Config struct {
	Workspaces      Workspaces
	Categories      Categories
	Parser          MessageParser
	Pending         Confirmations
	Limiter         ratelimit.Limiter
	Logger          *slog.Logger
	Now             func() time.Time
	DefaultLanguage string
}

// Service handles chat traffic for all channels.
type Service struct {
	workspaces      Workspaces
	categories      Categories
	parser          MessageParser
	pending         Confirmations
	limiter         ratelimit.Limiter
	logger          *slog.Logger
	now             func() time.Time
	defaultLanguage string
}

// NewService creates a bot service. A nil Limiter disables rate limiting.
func NewService(cfg Config) *Service {
	s := &Service{
		workspaces:      cfg.Workspaces,
		categories:      cfg.Categories,
		parser:          cfg.Parser,
		pending:         cfg.Pending,
		limiter:         cfg.Limiter,
		logger:          common.LoggerOrDefault(cfg.Logger),
		now:             cfg.Now,
		defaultLanguage: cfg.DefaultLanguage,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.defaultLanguage == "" {
		s.defaultLanguage = "en"
	}
	return s
}

// HandleMessage answers one inbound message.
func (s *Service) HandleMessage(ctx context.Context, msg Message) Reply {
	text := strings.TrimSpace(msg.Text)
	logger := s.logger.With("channel_id", msg.ChannelID)

	if s.limiter != nil && !s.limiter.Allow(msg.ChannelID) {
		logger.Warn("rate limit exceeded")
		return s.text(s.defaultLanguage, msgRateLimit)
	}

	ws, reply, ok := s.workspace(ctx, logger, msg.ChannelID)
	if !ok {
		return reply
	}
	lang := s.language(ws)

	if cmd, arg, ok := command(text); ok {
		return s.handleCommand(ctx, ws, msg.ChannelID, cmd, arg, lang)
	}

	categories, err := s.categories.ListCategories(ctx, ws.ID, "")
	if err != nil {
		logger.Error("failed to list categories", "workspace_id", ws.ID, "error", err)
		categories = nil
	}

	result, err := s.parser.Parse(ctx, text, parser.Workspace{ID: ws.ID, Categories: categories})
	if err != nil {
		if errors.Is(err, common.ErrNoAmountFound) {
			logger.Debug("message not parseable", "error", err)
		} else {
			logger.Error("failed to parse message", "error", err)
		}
		return s.text(lang, msgParseError)
	}

	outcome, err := s.pending.Submit(ctx, pending.Submission{
		ChannelID:   msg.ChannelID,
		WorkspaceID: ws.ID,
		Drafts:      result.Drafts,
		AutoConfirm: ws.AutoConfirm,
		Date:        s.now(),
	})
	if err != nil {
		logger.Error("failed to submit drafts", "workspace_id", ws.ID, "error", err)
		return s.text(lang, msgInternalError)
	}

	return s.renderOutcome(lang, result.Drafts, outcome)
}

// HandleAction answers a button press carrying payload.
func (s *Service) HandleAction(ctx context.Context, channelID, payload string) Reply {
	logger := s.logger.With("channel_id", channelID)

	if s.limiter != nil && !s.limiter.Allow(channelID) {
		logger.Warn("rate limit exceeded")
		return s.text(s.defaultLanguage, msgRateLimit)
	}

	ws, reply, ok := s.workspace(ctx, logger, channelID)
	if !ok {
		return reply
	}
	lang := s.language(ws)

	verb, token, ok := strings.Cut(payload, ":")
	if !ok || token == "" {
		logger.Warn("malformed action payload", "payload", payload)
		return s.text(lang, msgNotFound)
	}

	switch verb {
	case ActionConfirm:
		return s.confirm(ctx, ws, channelID, token, lang)
	case ActionCancel:
		return s.cancel(ctx, channelID, token, lang)
	default:
		logger.Warn("unknown action", "payload", payload)
		return s.text(lang, msgNotFound)
	}
}

// workspace loads the workspace bound to channelID. Unbound channels get the
// unauthorized reply; lookup failures get the internal error reply.
func (s *Service) workspace(ctx context.Context, logger *slog.Logger, channelID string) (*model.Workspace, Reply, bool) {
	ws, err := s.workspaces.GetWorkspaceByChannel(ctx, channelID)
	if err == nil {
		return ws, Reply{}, true
	}
	if errors.Is(err, common.ErrUnknownChannel) {
		logger.Debug("message from unlinked channel")
		return nil, s.text(s.defaultLanguage, msgUnauthorized), false
	}
	logger.Error("failed to look up workspace", "error", err)
	return nil, s.text(s.defaultLanguage, msgInternalError), false
}

// ConfirmPayload builds the action payload confirming token.
func ConfirmPayload(token string) string {
	return ActionConfirm + ":" + token
}

// CancelPayload builds the action payload cancelling token.
func CancelPayload(token string) string {
	return ActionCancel + ":" + token
}

func (s *Service) handleCommand(ctx context.Context, ws *model.Workspace, channelID, cmd, arg, lang string) Reply {
	switch cmd {
	case "start":
		return s.text(lang, msgWelcome)
	case "help", "info":
		return s.text(lang, msgHelp)
	case "clear":
		n, err := s.pending.Clear(ctx, channelID)
		if err != nil {
			s.logger.Error("failed to clear pending transactions", "channel_id", channelID, "error", err)
			return s.text(lang, msgInternalError)
		}
		if n == 0 {
			return s.text(lang, msgClearEmpty)
		}
		return Reply{Text: printer(lang).Sprintf(msgClearSuccess, n), Status: StatusCancelled}
	case ActionConfirm:
		// Clients without buttons type the action instead.
		if arg == "" {
			return s.text(lang, msgNotFound)
		}
		return s.confirm(ctx, ws, channelID, arg, lang)
	case ActionCancel:
		if arg == "" {
			return s.text(lang, msgNotFound)
		}
		return s.cancel(ctx, channelID, arg, lang)
	default:
		return s.text(lang, msgHelp)
	}
}

func (s *Service) confirm(ctx context.Context, ws *model.Workspace, channelID, token, lang string) Reply {
	txn, err := s.pending.Confirm(ctx, channelID, token)
	if err != nil {
		if !errors.Is(err, common.ErrPendingNotFound) {
			s.logger.Error("failed to confirm transaction", "channel_id", channelID, "error", err)
		}
		return s.text(lang, msgNotFound)
	}

	p := printer(lang)
	name := s.categoryName(ctx, ws.ID, txn.CategoryID)
	draft := model.Draft{
		Amount:       txn.Amount(),
		Description:  txn.Description,
		CategoryName: name,
		Type:         txn.Type(),
	}
	return Reply{Text: p.Sprintf(msgConfirmed, detail(p, draft)), Status: StatusCommitted}
}

func (s *Service) cancel(ctx context.Context, channelID, token, lang string) Reply {
	if _, err := s.pending.Cancel(ctx, channelID, token); err != nil {
		if !errors.Is(err, common.ErrPendingNotFound) {
			s.logger.Error("failed to cancel transaction", "channel_id", channelID, "error", err)
		}
		return s.text(lang, msgNotFound)
	}
	return s.text(lang, msgCancelled)
}

func (s *Service) renderOutcome(lang string, drafts []model.Draft, outcome *pending.Outcome) Reply {
	p := printer(lang)

	if len(outcome.Pending) == 0 {
		if len(drafts) == 1 {
			return Reply{Text: p.Sprintf(msgRegistered, detail(p, drafts[0])), Status: StatusCommitted}
		}
		return Reply{Text: p.Sprintf(msgMultipleCreated, len(drafts), details(p, drafts)), Status: StatusCommitted}
	}

	confirm, cancel := p.Sprintf(msgButtonConfirm), p.Sprintf(msgButtonCancel)
	reply := Reply{Status: StatusPending}
	for i, h := range outcome.Pending {
		suffix := ""
		if len(outcome.Pending) > 1 {
			suffix = fmt.Sprintf(" #%d", i+1)
		}
		reply.Actions = append(reply.Actions,
			Action{Label: confirm + suffix, Payload: ConfirmPayload(h.Token)},
			Action{Label: cancel + suffix, Payload: CancelPayload(h.Token)})
	}

	if len(outcome.Pending) == 1 {
		reply.Text = p.Sprintf(msgPending, detail(p, outcome.Pending[0].Draft))
		return reply
	}

	pendingDrafts := make([]model.Draft, len(outcome.Pending))
	for i, h := range outcome.Pending {
		pendingDrafts[i] = h.Draft
	}
	reply.Text = p.Sprintf(msgMultiplePending, len(pendingDrafts), details(p, pendingDrafts))
	return reply
}

func (s *Service) categoryName(ctx context.Context, workspaceID string, id *string) string {
	if id == nil {
		return ""
	}
	categories, err := s.categories.ListCategories(ctx, workspaceID, "")
	if err != nil {
		s.logger.Warn("failed to load category name", "workspace_id", workspaceID, "error", err)
		return ""
	}
	for _, c := range categories {
		if c.ID == *id {
			return c.Name
		}
	}
	return ""
}

func (s *Service) language(ws *model.Workspace) string {
	if ws != nil && ws.Language != "" {
		return ws.Language
	}
	return s.defaultLanguage
}

func (s *Service) text(lang, key string) Reply {
	status, ok := keyStatus[key]
	if !ok {
		status = StatusInfo
	}
	return Reply{Text: printer(lang).Sprintf(key), Status: status}
}

var keyStatus = map[string]Status{
	msgRateLimit:     StatusRejected,
	msgUnauthorized:  StatusRejected,
	msgParseError:    StatusRejected,
	msgNotFound:      StatusRejected,
	msgCancelled:     StatusCancelled,
	msgInternalError: StatusFailed,
}

func detail(p *message.Printer, d model.Draft) string {
	emoji, typ := "💸", p.Sprintf(msgTypeExpense)
	if d.Type == model.TypeIncome {
		emoji, typ = "💰", p.Sprintf(msgTypeIncome)
	}
	category := d.CategoryName
	if category == "" {
		category = p.Sprintf(msgUncategorized)
	}
	return p.Sprintf(msgTransactionDetail, d.Description, emoji, d.Amount.InexactFloat64(), category, typ)
}

func details(p *message.Printer, drafts []model.Draft) string {
	blocks := make([]string, len(drafts))
	for i, d := range drafts {
		blocks[i] = fmt.Sprintf("%d. %s", i+1, strings.ReplaceAll(detail(p, d), "\n", "\n   "))
	}
	return strings.Join(blocks, "\n\n")
}

// command extracts the command name and first argument from "/name arg" or
// "/name@botname arg" messages.
func command(text string) (name, arg string, ok bool) {
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		return "", "", false
	}
	name, _, _ = strings.Cut(fields[0], "@")
	if len(fields) > 1 {
		arg = fields[1]
	}
	return strings.ToLower(name), arg, true
}
