package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Veraticus/spicebot/internal/common"
	"github.com/Veraticus/spicebot/internal/model"
)

// CreateCategory creates a new category in the workspace.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, workspaceID, name string, t model.TransactionType) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(workspaceID, "workspaceID"); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	if err := validateType(t); err != nil {
		return nil, err
	}

	cat := &model.Category{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		Name:        strings.TrimSpace(name),
		Type:        t,
		CreatedAt:   s.now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, workspace_id, name, type, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		cat.ID, cat.WorkspaceID, cat.Name, cat.Type, cat.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s category %q", common.ErrDuplicateEntry, t, cat.Name)
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	slog.Debug("created category", "workspace_id", workspaceID, "name", cat.Name, "type", t)
	return cat, nil
}

// ListCategories returns the workspace's categories of type t, or all of them when t is
// empty, in creation order.
func (s *SQLiteStorage) ListCategories(ctx context.Context, workspaceID string, t model.TransactionType) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(workspaceID, "workspaceID"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, workspace_id, name, type, created_at
		FROM categories
		WHERE workspace_id = ?`
	args := []any{workspaceID}
	if t != "" {
		if err := validateType(t); err != nil {
			return nil, err
		}
		query += ` AND type = ?`
		args = append(args, t)
	}
	query += ` ORDER BY created_at, rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var cat model.Category
		if err := rows.Scan(&cat.ID, &cat.WorkspaceID, &cat.Name, &cat.Type, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}
