package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Veraticus/spicebot/internal/common"
	"github.com/Veraticus/spicebot/internal/model"
)

const workspaceColumns = `id, name, channel_id, language, auto_confirm, created_at`

// CreateWorkspace stores a new workspace. An empty ID is filled with a new UUID.
func (s *SQLiteStorage) CreateWorkspace(ctx context.Context, ws *model.Workspace) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if ws == nil {
		return fmt.Errorf("%w: workspace", ErrNilParameter)
	}
	if err := validateString(ws.Name, "name"); err != nil {
		return err
	}

	if ws.ID == "" {
		ws.ID = uuid.NewString()
	}
	if ws.Language == "" {
		ws.Language = "en"
	}
	ws.CreatedAt = s.now().UTC()

	channel := ws.ChannelID
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workspaces (id, name, channel_id, language, auto_confirm, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ws.ID, ws.Name, nullString(&channel), ws.Language, ws.AutoConfirm, ws.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: workspace %q or channel %q", common.ErrDuplicateEntry, ws.ID, ws.ChannelID)
		}
		return fmt.Errorf("failed to create workspace: %w", err)
	}
	return nil
}

// GetWorkspace returns the workspace with id.
func (s *SQLiteStorage) GetWorkspace(ctx context.Context, id string) (*model.Workspace, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+workspaceColumns+` FROM workspaces WHERE id = ?`, id)
	return scanWorkspace(row, id)
}

// GetWorkspaceByChannel returns the workspace bound to channelID. An unbound channel
// yields an error matching both common.ErrUnknownChannel and common.ErrNotFound.
func (s *SQLiteStorage) GetWorkspaceByChannel(ctx context.Context, channelID string) (*model.Workspace, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(channelID, "channelID"); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+workspaceColumns+` FROM workspaces WHERE channel_id = ?`, channelID)
	ws, err := scanWorkspace(row, "channel "+channelID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", common.ErrUnknownChannel, err)
	}
	return ws, err
}

// ListWorkspaces returns every workspace ordered by name.
func (s *SQLiteStorage) ListWorkspaces(ctx context.Context) ([]model.Workspace, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+workspaceColumns+` FROM workspaces ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query workspaces: %w", err)
	}
	defer rows.Close()

	var workspaces []model.Workspace
	for rows.Next() {
		ws, err := scanWorkspace(rows, "")
		if err != nil {
			return nil, err
		}
		workspaces = append(workspaces, *ws)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workspaces: %w", err)
	}
	return workspaces, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWorkspace(row scanner, what string) (*model.Workspace, error) {
	var (
		ws      model.Workspace
		channel sql.NullString
	)
	err := row.Scan(&ws.ID, &ws.Name, &channel, &ws.Language, &ws.AutoConfirm, &ws.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: workspace %s", common.ErrNotFound, what)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan workspace: %w", err)
	}
	ws.ChannelID = channel.String
	return &ws, nil
}
