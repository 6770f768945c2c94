package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/spicebot/internal/common"
	"github.com/Veraticus/spicebot/internal/model"
)

const pendingColumns = `id, channel_id, workspace_id, category_id, amount_cents, description, date, created_at`

// CreatePending stores a transaction awaiting confirmation.
func (s *SQLiteStorage) CreatePending(ctx context.Context, p *model.PendingTransaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePending(p); err != nil {
		return err
	}

	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	p.Date = p.Date.UTC()
	p.CreatedAt = p.CreatedAt.UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pending_transactions (`+pendingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ChannelID, p.WorkspaceID, nullString(p.CategoryID), p.AmountCents,
		p.Description, p.Date, p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: pending %s", common.ErrDuplicateEntry, p.ID)
		}
		return fmt.Errorf("failed to insert pending transaction: %w", err)
	}
	return nil
}

// ListPending returns the live pendings on channelID, oldest first.
func (s *SQLiteStorage) ListPending(ctx context.Context, channelID string) ([]model.PendingTransaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(channelID, "channelID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+pendingColumns+`
		FROM pending_transactions
		WHERE channel_id = ?
		ORDER BY created_at, rowid`, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending transactions: %w", err)
	}
	defer rows.Close()

	var pendings []model.PendingTransaction
	for rows.Next() {
		p, err := scanPending(rows)
		if err != nil {
			return nil, err
		}
		pendings = append(pendings, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending transactions: %w", err)
	}
	return pendings, nil
}

// PromotePending deletes the pending row and inserts its transaction in one database
// transaction. A pending already promoted or cancelled yields common.ErrPendingNotFound.
func (s *SQLiteStorage) PromotePending(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var txn model.Transaction
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+pendingColumns+` FROM pending_transactions WHERE id = ?`, id)
		p, err := scanPending(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", common.ErrPendingNotFound, id)
		}
		if err != nil {
			return err
		}

		if err := deletePendingTx(ctx, tx, id); err != nil {
			return err
		}

		txn = p.Transaction()
		txn.CreatedAt = s.now()
		return s.createTransactionTx(ctx, tx, &txn)
	})
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// DeletePending removes a pending without committing it.
func (s *SQLiteStorage) DeletePending(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return deletePendingTx(ctx, s.db, id)
}

func deletePendingTx(ctx context.Context, q queryable, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM pending_transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete pending transaction: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", common.ErrPendingNotFound, id)
	}
	return nil
}

func scanPending(row scanner) (*model.PendingTransaction, error) {
	var (
		p        model.PendingTransaction
		category sql.NullString
	)
	err := row.Scan(&p.ID, &p.ChannelID, &p.WorkspaceID, &category, &p.AmountCents,
		&p.Description, &p.Date, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan pending transaction: %w", err)
	}
	p.CategoryID = stringPtr(category)
	return &p, nil
}
