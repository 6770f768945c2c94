package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxDescriptionLength is the longest description stored for a transaction.
const MaxDescriptionLength = 255

// Transaction is a committed ledger entry. AmountCents is signed: expenses are negative.
type Transaction struct {
	Date        time.Time
	CreatedAt   time.Time
	CategoryID  *string
	ID          string
	WorkspaceID string
	Description string
	AmountCents int64
}

// Type derives the transaction direction from the sign of the amount.
func (t Transaction) Type() TransactionType {
	if t.AmountCents < 0 {
		return TypeExpense
	}
	return TypeIncome
}

// IsSeed reports whether the row is a synthetic seed entry (one minor unit).
// Seed rows exist to make categories visible and must never feed learning.
func (t Transaction) IsSeed() bool {
	return t.AmountCents == 1 || t.AmountCents == -1
}

// Amount returns the absolute amount in major units.
func (t Transaction) Amount() decimal.Decimal {
	return decimal.New(t.AmountCents, -2).Abs()
}

// PendingTransaction is a draft awaiting confirmation on a channel.
type PendingTransaction struct {
	Date        time.Time
	CreatedAt   time.Time
	CategoryID  *string
	ID          string
	ChannelID   string
	WorkspaceID string
	Description string
	AmountCents int64
}

// Transaction converts the pending entry into the transaction it would commit.
func (p PendingTransaction) Transaction() Transaction {
	return Transaction{
		ID:          p.ID,
		WorkspaceID: p.WorkspaceID,
		CategoryID:  p.CategoryID,
		AmountCents: p.AmountCents,
		Description: p.Description,
		Date:        p.Date,
	}
}
