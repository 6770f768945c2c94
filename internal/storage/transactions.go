package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/spicebot/internal/common"
	"github.com/Veraticus/spicebot/internal/model"
)

const transactionColumns = `id, workspace_id, category_id, amount_cents, description, date, created_at`

// CreateTransaction stores a committed transaction.
func (s *SQLiteStorage) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}
	return s.createTransactionTx(ctx, s.db, txn)
}

// CreateTransactions stores txns in one database transaction: either every row is
// inserted or none is.
func (s *SQLiteStorage) CreateTransactions(ctx context.Context, txns []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	for i := range txns {
		if err := validateTransaction(&txns[i]); err != nil {
			return err
		}
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for i := range txns {
			if err := s.createTransactionTx(ctx, tx, &txns[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteStorage) createTransactionTx(ctx context.Context, q queryable, txn *model.Transaction) error {
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = s.now()
	}
	txn.Date = txn.Date.UTC()
	txn.CreatedAt = txn.CreatedAt.UTC()

	_, err := q.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.WorkspaceID, nullString(txn.CategoryID), txn.AmountCents,
		txn.Description, txn.Date, txn.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: transaction %s", common.ErrDuplicateEntry, txn.ID)
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// RecentTransactions returns up to limit transactions of type t dated on or after since,
// newest first. Seed rows are excluded.
func (s *SQLiteStorage) RecentTransactions(ctx context.Context, workspaceID string, since time.Time, t model.TransactionType, limit int) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(workspaceID, "workspaceID"); err != nil {
		return nil, err
	}
	if err := validateType(t); err != nil {
		return nil, err
	}

	sign := `amount_cents < 0`
	if t == model.TypeIncome {
		sign = `amount_cents > 0`
	}

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE workspace_id = ?
			AND date >= ?
			AND ABS(amount_cents) <> 1
			AND ` + sign + `
		ORDER BY date DESC, created_at DESC`
	args := []any{workspaceID, since.UTC()}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	return s.queryTransactions(ctx, query, args...)
}

// ListTransactions returns the workspace's newest transactions, seed rows included.
func (s *SQLiteStorage) ListTransactions(ctx context.Context, workspaceID string, limit int) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(workspaceID, "workspaceID"); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE workspace_id = ?
		ORDER BY date DESC, created_at DESC`
	args := []any{workspaceID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	return s.queryTransactions(ctx, query, args...)
}

func (s *SQLiteStorage) queryTransactions(ctx context.Context, query string, args ...any) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}

func scanTransaction(row scanner) (*model.Transaction, error) {
	var (
		txn      model.Transaction
		category sql.NullString
	)
	err := row.Scan(&txn.ID, &txn.WorkspaceID, &category, &txn.AmountCents,
		&txn.Description, &txn.Date, &txn.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}
	txn.CategoryID = stringPtr(category)
	return &txn, nil
}
