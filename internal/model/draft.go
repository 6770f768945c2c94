package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source names the resolver tier that chose a draft's category.
type Source string

// Resolver tiers, in the order they are consulted.
const (
	SourceHint     Source = "hint"
	SourceHistory  Source = "history"
	SourceMapping  Source = "mapping"
	SourceKeyword  Source = "keyword"
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
	SourceNone     Source = "none"
)

// Draft is a parsed but not yet committed transaction.
// Amount is always positive; Type carries the direction.
type Draft struct {
	Amount       decimal.Decimal
	CategoryID   *string
	Description  string
	CategoryName string
	Type         TransactionType
	Source       Source
}

// AmountCents converts the draft amount into signed minor units.
func (d Draft) AmountCents() int64 {
	cents := d.Amount.Abs().Shift(2).Round(0).IntPart()
	if d.Type == TypeExpense {
		return -cents
	}
	return cents
}

// Pending builds the pending entry for this draft.
func (d Draft) Pending(id, channelID, workspaceID string, date time.Time) PendingTransaction {
	return PendingTransaction{
		ID:          id,
		ChannelID:   channelID,
		WorkspaceID: workspaceID,
		CategoryID:  d.CategoryID,
		AmountCents: d.AmountCents(),
		Description: d.Description,
		Date:        date,
	}
}

// Transaction builds the committed transaction for this draft.
func (d Draft) Transaction(id, workspaceID string, date time.Time) Transaction {
	return Transaction{
		ID:          id,
		WorkspaceID: workspaceID,
		CategoryID:  d.CategoryID,
		AmountCents: d.AmountCents(),
		Description: d.Description,
		Date:        date,
	}
}
