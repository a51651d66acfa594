package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// RegisterFolder adds a monitored folder. The path is stored verbatim and
// matched exactly; existence on disk is checked at scan time.
func (s *Store) RegisterFolder(ctx context.Context, path string) (*Folder, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("register folder: path is required")
	}
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO monitored_folders (path, monitoring_enabled, created_at)
         VALUES (?, 1, ?)
         ON CONFLICT(path) DO NOTHING`,
		path,
		nowString(),
	)
	if err != nil {
		return nil, fmt.Errorf("register folder: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("register folder: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateFolder, path)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("register folder id: %w", err)
	}
	return s.GetFolder(ctx, id)
}

// GetFolder fetches a folder by id.
func (s *Store) GetFolder(ctx context.Context, id int64) (*Folder, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+folderColumns+` FROM monitored_folders WHERE id = ?`, id)
	folder, err := scanFolder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrFolderNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get folder: %w", err)
	}
	return folder, nil
}

// ListFolders returns every registered folder ordered by id.
func (s *Store) ListFolders(ctx context.Context) ([]*Folder, error) {
	return s.queryFolders(ctx, `SELECT `+folderColumns+` FROM monitored_folders ORDER BY id`)
}

// ListEnabledFolders returns folders with monitoring enabled.
func (s *Store) ListEnabledFolders(ctx context.Context) ([]*Folder, error) {
	return s.queryFolders(ctx, `SELECT `+folderColumns+` FROM monitored_folders WHERE monitoring_enabled = 1 ORDER BY id`)
}

// SetMonitoring toggles the monitoring flag and returns the updated folder.
func (s *Store) SetMonitoring(ctx context.Context, id int64, enabled bool) (*Folder, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE monitored_folders SET monitoring_enabled = ? WHERE id = ?`,
		boolToInt(enabled),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("set monitoring: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("set monitoring: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: %d", ErrFolderNotFound, id)
	}
	return s.GetFolder(ctx, id)
}

func (s *Store) queryFolders(ctx context.Context, query string, args ...any) ([]*Folder, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	var folders []*Folder
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, folder)
	}
	return folders, rows.Err()
}
