package pending

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spicebot/internal/common"
	"github.com/Veraticus/spicebot/internal/model"
)

type memStore struct {
	transactions []model.Transaction
	pendings     []model.PendingTransaction
	commitErr    error
	mu           sync.Mutex
}

func (m *memStore) CreateTransactions(_ context.Context, txns []model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.commitErr != nil {
		return m.commitErr
	}
	m.transactions = append(m.transactions, txns...)
	return nil
}

func (m *memStore) CreatePending(_ context.Context, p *model.PendingTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pendings = append(m.pendings, *p)
	return nil
}

func (m *memStore) ListPending(_ context.Context, channelID string) ([]model.PendingTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.PendingTransaction
	for _, p := range m.pendings {
		if p.ChannelID == channelID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) PromotePending(_ context.Context, id string) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.pendings {
		if p.ID == id {
			m.pendings = append(m.pendings[:i], m.pendings[i+1:]...)
			txn := p.Transaction()
			m.transactions = append(m.transactions, txn)
			return &txn, nil
		}
	}
	return nil, common.ErrPendingNotFound
}

func (m *memStore) DeletePending(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.pendings {
		if p.ID == id {
			m.pendings = append(m.pendings[:i], m.pendings[i+1:]...)
			return nil
		}
	}
	return common.ErrPendingNotFound
}

func sequentialIDs(ids ...string) func() string {
	i := 0
	return func() string {
		id := ids[i]
		i++
		return id
	}
}

func lunch() model.Draft {
	cat := "c-food"
	return model.Draft{
		Amount:       decimal.NewFromInt(15),
		Description:  "Lunch",
		CategoryID:   &cat,
		CategoryName: "Food",
		Type:         model.TypeExpense,
	}
}

var fixedNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestService(store Store, ids ...string) *Service {
	return NewService(store,
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(sequentialIDs(ids...)))
}

func TestTransition(t *testing.T) {
	tests := []struct {
		from    State
		event   Event
		want    State
		wantErr bool
	}{
		{from: StateDraft, event: EventSubmit, want: StatePending},
		{from: StateDraft, event: EventAutoConfirm, want: StateCommitted},
		{from: StatePending, event: EventConfirm, want: StateCommitted},
		{from: StatePending, event: EventCancel, want: StateCancelled},
		{from: StateCommitted, event: EventCancel, wantErr: true},
		{from: StateCancelled, event: EventConfirm, wantErr: true},
		{from: StateDraft, event: EventConfirm, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.from, tt.event), func(t *testing.T) {
			got, err := Transition(tt.from, tt.event)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrInvalidStateTransition)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.True(t, StateCommitted.Terminal())
	assert.True(t, StateCancelled.Terminal())
	assert.False(t, StatePending.Terminal())
}

func TestPrefixCorrelator(t *testing.T) {
	c := PrefixCorrelator{Length: 8}
	id := "3F2B9C1A-77de-4c1e-9a51-0c6a2b7e1f00"

	token := c.Token(id)
	assert.Equal(t, "3f2b9c1a", token)
	assert.True(t, c.Matches(id, token))
	assert.True(t, c.Matches(id, "3F2B"))
	assert.False(t, c.Matches(id, "3f2b9c1b"))
	assert.False(t, c.Matches(id, ""))

	assert.Equal(t, "abc", PrefixCorrelator{}.Token("abc"))
	assert.Len(t, PrefixCorrelator{}.Token(id), DefaultTokenLength)
}

func TestService_SubmitAutoConfirm(t *testing.T) {
	store := &memStore{}
	svc := newTestService(store, "t-1", "t-2")

	second := lunch()
	second.Description = "Gas"
	out, err := svc.Submit(context.Background(), Submission{
		ChannelID:   "chat-1",
		WorkspaceID: "ws-1",
		Drafts:      []model.Draft{lunch(), second},
		AutoConfirm: true,
	})
	require.NoError(t, err)

	assert.Empty(t, out.Pending)
	require.Len(t, out.Committed, 2)
	assert.Equal(t, "t-1", out.Committed[0].ID)
	assert.Equal(t, int64(-1500), out.Committed[0].AmountCents)
	assert.Equal(t, fixedNow, out.Committed[0].Date)
	assert.Len(t, store.transactions, 2)
	assert.Empty(t, store.pendings)
}

func TestService_SubmitAutoConfirmFailureSavesNothing(t *testing.T) {
	store := &memStore{commitErr: fmt.Errorf("disk full")}
	svc := newTestService(store, "t-1", "t-2")

	out, err := svc.Submit(context.Background(), Submission{
		ChannelID:   "chat-1",
		WorkspaceID: "ws-1",
		Drafts:      []model.Draft{lunch(), lunch()},
		AutoConfirm: true,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Nil(t, out)
	assert.Empty(t, store.transactions)
}

func TestService_SubmitPendingThenConfirm(t *testing.T) {
	store := &memStore{}
	svc := newTestService(store, "aaaa1111-0000-0000-0000-000000000000")

	out, err := svc.Submit(context.Background(), Submission{
		ChannelID:   "chat-1",
		WorkspaceID: "ws-1",
		Drafts:      []model.Draft{lunch()},
	})
	require.NoError(t, err)
	require.Len(t, out.Pending, 1)
	assert.Empty(t, out.Committed)
	assert.Empty(t, store.transactions)

	handle := out.Pending[0]
	assert.Equal(t, "aaaa1111", handle.Token)
	assert.Equal(t, "Lunch", handle.Draft.Description)

	txn, err := svc.Confirm(context.Background(), "chat-1", handle.Token)
	require.NoError(t, err)
	assert.Equal(t, handle.PendingID, txn.ID)
	assert.Equal(t, int64(-1500), txn.AmountCents)
	assert.Equal(t, "Lunch", txn.Description)
	require.NotNil(t, txn.CategoryID)
	assert.Equal(t, "c-food", *txn.CategoryID)

	assert.Empty(t, store.pendings)
	assert.Len(t, store.transactions, 1)

	_, err = svc.Confirm(context.Background(), "chat-1", handle.Token)
	assert.ErrorIs(t, err, common.ErrPendingNotFound)
}

func TestService_Cancel(t *testing.T) {
	store := &memStore{}
	svc := newTestService(store, "bbbb2222-0000-0000-0000-000000000000")

	out, err := svc.Submit(context.Background(), Submission{ChannelID: "chat-1", WorkspaceID: "ws-1", Drafts: []model.Draft{lunch()}})
	require.NoError(t, err)

	p, err := svc.Cancel(context.Background(), "chat-1", out.Pending[0].Token)
	require.NoError(t, err)
	assert.Equal(t, out.Pending[0].PendingID, p.ID)
	assert.Empty(t, store.pendings)
	assert.Empty(t, store.transactions)

	_, err = svc.Cancel(context.Background(), "chat-1", out.Pending[0].Token)
	assert.ErrorIs(t, err, common.ErrPendingNotFound)
}

func TestService_TokenScopedToChannel(t *testing.T) {
	store := &memStore{}
	svc := newTestService(store, "cccc3333-0000-0000-0000-000000000000")

	out, err := svc.Submit(context.Background(), Submission{ChannelID: "chat-1", WorkspaceID: "ws-1", Drafts: []model.Draft{lunch()}})
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), "chat-2", out.Pending[0].Token)
	assert.ErrorIs(t, err, common.ErrPendingNotFound)
	assert.Len(t, store.pendings, 1)
}

func TestService_UnknownToken(t *testing.T) {
	svc := newTestService(&memStore{})
	_, err := svc.Confirm(context.Background(), "chat-1", "deadbeef")
	assert.ErrorIs(t, err, common.ErrPendingNotFound)
}

func TestService_PrefixCollisionTakesFirst(t *testing.T) {
	store := &memStore{}
	svc := newTestService(store,
		"dddd4444-0000-0000-0000-000000000001",
		"dddd4444-0000-0000-0000-000000000002")

	out, err := svc.Submit(context.Background(), Submission{
		ChannelID:   "chat-1",
		WorkspaceID: "ws-1",
		Drafts:      []model.Draft{lunch(), lunch()},
	})
	require.NoError(t, err)
	require.Len(t, out.Pending, 2)
	assert.Equal(t, out.Pending[0].Token, out.Pending[1].Token)

	txn, err := svc.Confirm(context.Background(), "chat-1", out.Pending[1].Token)
	require.NoError(t, err)
	assert.Equal(t, out.Pending[0].PendingID, txn.ID)
}

func TestService_SubmitRequiresWorkspace(t *testing.T) {
	_, err := newTestService(&memStore{}).Submit(context.Background(), Submission{Drafts: []model.Draft{lunch()}})
	assert.Error(t, err)
}

func TestService_Clear(t *testing.T) {
	store := &memStore{}
	svc := newTestService(store, "p-1", "p-2", "p-3")

	_, err := svc.Submit(context.Background(), Submission{ChannelID: "chat-1", WorkspaceID: "ws-1", Drafts: []model.Draft{lunch(), lunch()}})
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), Submission{ChannelID: "chat-2", WorkspaceID: "ws-1", Drafts: []model.Draft{lunch()}})
	require.NoError(t, err)

	n, err := svc.Clear(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	left, err := svc.List(context.Background(), "chat-2")
	require.NoError(t, err)
	assert.Len(t, left, 1)

	n, err = svc.Clear(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.Zero(t, n)
}
