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

const mappingColumns = `id, workspace_id, description_key, transaction_type, category_id,
	category_name, usage_count, last_used_at, created_at`

// FindMapping returns the entry for key in workspaceID, where model.GlobalWorkspace
// selects the global scope. Missing entries yield common.ErrNotFound.
func (s *SQLiteStorage) FindMapping(ctx context.Context, workspaceID, key string, t model.TransactionType) (*model.CategoryMapping, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(key, "key"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+mappingColumns+`
		FROM category_mappings
		WHERE workspace_id = ? AND description_key = ? AND transaction_type = ?`,
		workspaceID, key, t)

	m, err := scanMapping(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: mapping %q", common.ErrNotFound, key)
	}
	return m, err
}

// TouchMapping records a cache hit on the entry.
func (s *SQLiteStorage) TouchMapping(ctx context.Context, id int64, at time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE category_mappings
		SET usage_count = usage_count + 1, last_used_at = ?
		WHERE id = ?`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to touch mapping: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: mapping %d", common.ErrNotFound, id)
	}
	return nil
}

// UpsertMapping inserts the entry or, when one already exists for the same scope, key
// and type, points it at the new category and increments its usage count. The
// increment happens in a single statement so concurrent writers never lose a count.
func (s *SQLiteStorage) UpsertMapping(ctx context.Context, m model.CategoryMapping) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateMapping(&m); err != nil {
		return err
	}

	categoryID := nullString(m.CategoryID)
	if m.Scope() == model.ScopeGlobal {
		categoryID = sql.NullString{}
	}
	lastUsed := m.LastUsedAt
	if lastUsed.IsZero() {
		lastUsed = s.now()
	}
	lastUsed = lastUsed.UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO category_mappings (
			workspace_id, description_key, transaction_type, category_id,
			category_name, usage_count, last_used_at, created_at
		) VALUES (?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT (workspace_id, description_key, transaction_type) DO UPDATE SET
			category_id = excluded.category_id,
			category_name = excluded.category_name,
			usage_count = category_mappings.usage_count + 1,
			last_used_at = excluded.last_used_at`,
		m.WorkspaceID, m.DescriptionKey, m.Type, categoryID,
		m.CategoryName, lastUsed, s.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert mapping: %w", err)
	}
	return nil
}

// ListMappings returns the entries of workspaceID, most used first. model.GlobalWorkspace
// lists the global scope.
func (s *SQLiteStorage) ListMappings(ctx context.Context, workspaceID string) ([]model.CategoryMapping, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+mappingColumns+`
		FROM category_mappings
		WHERE workspace_id = ?
		ORDER BY usage_count DESC, last_used_at DESC, description_key`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query mappings: %w", err)
	}
	defer rows.Close()

	var mappings []model.CategoryMapping
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mappings: %w", err)
	}
	return mappings, nil
}

func scanMapping(row scanner) (*model.CategoryMapping, error) {
	var (
		m        model.CategoryMapping
		category sql.NullString
	)
	err := row.Scan(&m.ID, &m.WorkspaceID, &m.DescriptionKey, &m.Type, &category,
		&m.CategoryName, &m.UsageCount, &m.LastUsedAt, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan mapping: %w", err)
	}
	m.CategoryID = stringPtr(category)
	return &m, nil
}
