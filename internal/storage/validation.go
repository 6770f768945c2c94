// Package storage persists workspaces, categories, transactions, pending confirmations
// and learned category mappings in SQLite.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/spicebot/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidMapping     = errors.New("invalid category mapping")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateType(t model.TransactionType) error {
	if !t.Valid() {
		return fmt.Errorf("%w: type %q", ErrInvalidCategory, t)
	}
	return nil
}

// validateTransaction validates a single transaction.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.WorkspaceID == "" {
		return fmt.Errorf("%w: missing workspace", ErrInvalidTransaction)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if txn.AmountCents == 0 {
		return fmt.Errorf("%w: zero amount", ErrInvalidTransaction)
	}
	if utf8.RuneCountInString(txn.Description) > model.MaxDescriptionLength {
		return fmt.Errorf("%w: description longer than %d characters", ErrInvalidTransaction, model.MaxDescriptionLength)
	}
	return nil
}

// validatePending validates a pending transaction.
func validatePending(p *model.PendingTransaction) error {
	if p == nil {
		return fmt.Errorf("%w: pending transaction", ErrNilParameter)
	}
	if p.ChannelID == "" {
		return fmt.Errorf("%w: missing channel", ErrInvalidTransaction)
	}
	txn := p.Transaction()
	return validateTransaction(&txn)
}

// validateMapping validates a mapping entry before upsert.
func validateMapping(m *model.CategoryMapping) error {
	if strings.TrimSpace(m.DescriptionKey) == "" {
		return fmt.Errorf("%w: missing description key", ErrInvalidMapping)
	}
	if !m.Type.Valid() {
		return fmt.Errorf("%w: type %q", ErrInvalidMapping, m.Type)
	}
	if strings.TrimSpace(m.CategoryName) == "" {
		return fmt.Errorf("%w: missing category name", ErrInvalidMapping)
	}
	if m.Scope() == model.ScopePrivate && (m.CategoryID == nil || *m.CategoryID == "") {
		return fmt.Errorf("%w: private entry without category", ErrInvalidMapping)
	}
	return nil
}
