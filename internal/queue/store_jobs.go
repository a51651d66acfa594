package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// InsertJobs enqueues discovered files for one folder in a single
// transaction. Paths that already have a job are skipped. It returns the
// number of jobs actually created.
func (s *Store) InsertJobs(ctx context.Context, folderID int64, jobs []NewJob) (int, error) {
	if len(jobs) == 0 {
		return 0, nil
	}
	ctx = ensureContext(ctx)

	var inserted int
	err := retryOnBusy(ctx, func() error {
		inserted = 0
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO transcription_jobs
            (folder_id, file_name, file_path, status, date_added, retry_count, updated_at)
            VALUES (?, ?, ?, ?, ?, 0, ?)
            ON CONFLICT(file_path) DO NOTHING`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, job := range jobs {
			if strings.TrimSpace(job.FilePath) == "" || strings.TrimSpace(job.FileName) == "" {
				return fmt.Errorf("job for folder %d is missing file name or path", folderID)
			}
			now := nowString()
			res, err := stmt.ExecContext(ctx, folderID, job.FileName, job.FilePath, StatusQueued, now, now)
			if err != nil {
				return err
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return err
			}
			inserted += int(affected)
		}
		return tx.Commit()
	})
	if err != nil {
		return 0, fmt.Errorf("insert jobs: %w", err)
	}
	return inserted, nil
}

// JobExists reports whether a job already tracks the given path.
func (s *Store) JobExists(ctx context.Context, filePath string) (bool, error) {
	ctx = ensureContext(ctx)
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM transcription_jobs WHERE file_path = ?`, filePath).Scan(&count); err != nil {
		return false, fmt.Errorf("job exists: %w", err)
	}
	return count > 0, nil
}

// GetJob fetches a job by id.
func (s *Store) GetJob(ctx context.Context, id int64) (*Job, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM transcription_jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrJobNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// ListJobs returns jobs in creation order, optionally filtered by status.
func (s *Store) ListJobs(ctx context.Context, statuses ...JobStatus) ([]*Job, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + jobColumns + ` FROM transcription_jobs`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY date_added, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}
