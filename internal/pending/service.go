// Package pending decides whether parsed drafts are committed at once or held for
// confirmation, and resolves confirm and cancel actions against held drafts.
package pending

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/spicebot/internal/common"
	"github.com/Veraticus/spicebot/internal/model"
)

// Store persists pending and committed transactions. CreateTransactions must insert
// the whole batch or nothing. PromotePending must delete the pending row and insert its
// transaction atomically, returning common.ErrPendingNotFound when the row is already gone.
type Store interface {
	CreateTransactions(ctx context.Context, txns []model.Transaction) error
	CreatePending(ctx context.Context, p *model.PendingTransaction) error
	ListPending(ctx context.Context, channelID string) ([]model.PendingTransaction, error)
	PromotePending(ctx context.Context, id string) (*model.Transaction, error)
	DeletePending(ctx context.Context, id string) error
}

// Submission is a batch of drafts parsed from one message.
type Submission struct {
	Date        time.Time
	ChannelID   string
	WorkspaceID string
	Drafts      []model.Draft
	AutoConfirm bool
}

// Handle identifies a pending draft to the sender.
type Handle struct {
	Draft     model.Draft
	PendingID string
	Token     string
}

// Outcome reports what Submit did with each draft. Exactly one of the slices is
// populated for a given submission.
type Outcome struct {
	Committed []model.Transaction
	Pending   []Handle
}

// Service runs the confirmation lifecycle.
type Service struct {
	store      Store
	correlator Correlator
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
}

// Option configures a Service.
type Option func(*Service)

// WithCorrelator replaces the default PrefixCorrelator.
func WithCorrelator(c Correlator) Option {
	return func(s *Service) { s.correlator = c }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = common.LoggerOrDefault(logger) }
}

// WithClock sets the time source used for dates and creation stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator sets the function producing new record ids.
func WithIDGenerator(f func() string) Option {
	return func(s *Service) { s.newID = f }
}

// NewService creates a pending service backed by store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:      store,
		correlator: PrefixCorrelator{Length: DefaultTokenLength},
		logger:     slog.Default(),
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Correlator returns the correlator used for tokens.
func (s *Service) Correlator() Correlator {
	return s.correlator
}

// Submit commits the drafts directly when sub.AutoConfirm is set, and otherwise stores
// each as a pending transaction with a correlation token. Auto-confirmed drafts are
// committed as one batch, so a failure leaves none of them saved.
func (s *Service) Submit(ctx context.Context, sub Submission) (*Outcome, error) {
	if sub.WorkspaceID == "" {
		return nil, fmt.Errorf("submit: %w: workspace id", common.ErrInvalidConfig)
	}

	event := EventSubmit
	if sub.AutoConfirm {
		event = EventAutoConfirm
	}
	if _, err := Transition(StateDraft, event); err != nil {
		return nil, err
	}

	date := sub.Date
	if date.IsZero() {
		date = s.now()
	}

	if sub.AutoConfirm {
		return s.commit(ctx, sub, date)
	}

	out := &Outcome{}
	for _, draft := range sub.Drafts {
		id := s.newID()

		p := draft.Pending(id, sub.ChannelID, sub.WorkspaceID, date)
		p.CreatedAt = s.now()
		if err := s.store.CreatePending(ctx, &p); err != nil {
			return out, fmt.Errorf("failed to store pending transaction: %w", err)
		}
		out.Pending = append(out.Pending, Handle{
			PendingID: id,
			Token:     s.correlator.Token(id),
			Draft:     draft,
		})
		s.logger.Info("transaction pending confirmation",
			"workspace_id", sub.WorkspaceID,
			"channel_id", sub.ChannelID,
			"pending_id", id)
	}

	return out, nil
}

func (s *Service) commit(ctx context.Context, sub Submission, date time.Time) (*Outcome, error) {
	txns := make([]model.Transaction, len(sub.Drafts))
	for i, draft := range sub.Drafts {
		txns[i] = draft.Transaction(s.newID(), sub.WorkspaceID, date)
		txns[i].CreatedAt = s.now()
	}

	if err := s.store.CreateTransactions(ctx, txns); err != nil {
		return nil, fmt.Errorf("failed to commit transactions: %w", err)
	}

	for _, txn := range txns {
		s.logger.Info("transaction committed",
			"workspace_id", sub.WorkspaceID,
			"transaction_id", txn.ID,
			"amount_cents", txn.AmountCents)
	}
	return &Outcome{Committed: txns}, nil
}

// Confirm promotes the first pending on channelID that token refers to.
func (s *Service) Confirm(ctx context.Context, channelID, token string) (*model.Transaction, error) {
	p, err := s.lookup(ctx, channelID, token)
	if err != nil {
		return nil, err
	}
	if _, err := Transition(StatePending, EventConfirm); err != nil {
		return nil, err
	}

	txn, err := s.store.PromotePending(ctx, p.ID)
	if err != nil {
		if errors.Is(err, common.ErrPendingNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to confirm pending %s: %w", p.ID, err)
	}

	s.logger.Info("pending transaction confirmed", "channel_id", channelID, "transaction_id", txn.ID)
	return txn, nil
}

// Cancel deletes the first pending on channelID that token refers to.
func (s *Service) Cancel(ctx context.Context, channelID, token string) (*model.PendingTransaction, error) {
	p, err := s.lookup(ctx, channelID, token)
	if err != nil {
		return nil, err
	}
	if _, err := Transition(StatePending, EventCancel); err != nil {
		return nil, err
	}

	if err := s.store.DeletePending(ctx, p.ID); err != nil {
		if errors.Is(err, common.ErrPendingNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to cancel pending %s: %w", p.ID, err)
	}

	s.logger.Info("pending transaction cancelled", "channel_id", channelID, "pending_id", p.ID)
	return p, nil
}

// Clear cancels every pending on channelID and returns how many were removed.
func (s *Service) Clear(ctx context.Context, channelID string) (int, error) {
	pendings, err := s.store.ListPending(ctx, channelID)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending transactions: %w", err)
	}

	cleared := 0
	for _, p := range pendings {
		if err := s.store.DeletePending(ctx, p.ID); err != nil {
			if errors.Is(err, common.ErrPendingNotFound) {
				continue
			}
			return cleared, fmt.Errorf("failed to clear pending %s: %w", p.ID, err)
		}
		cleared++
	}

	if cleared > 0 {
		s.logger.Info("pending transactions cleared", "channel_id", channelID, "count", cleared)
	}
	return cleared, nil
}

// List returns the live pendings on channelID, oldest first.
func (s *Service) List(ctx context.Context, channelID string) ([]model.PendingTransaction, error) {
	return s.store.ListPending(ctx, channelID)
}

func (s *Service) lookup(ctx context.Context, channelID, token string) (*model.PendingTransaction, error) {
	pendings, err := s.store.ListPending(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending transactions: %w", err)
	}
	for i := range pendings {
		if s.correlator.Matches(pendings[i].ID, token) {
			return &pendings[i], nil
		}
	}
	return nil, fmt.Errorf("%w: token %q", common.ErrPendingNotFound, token)
}
