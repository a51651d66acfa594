package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// NextQueued returns the oldest queued job, or nil when the queue is empty.
func (s *Store) NextQueued(ctx context.Context) (*Job, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+jobColumns+` FROM transcription_jobs
         WHERE status = ?
         ORDER BY date_added, id
         LIMIT 1`,
		StatusQueued,
	)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next queued job: %w", err)
	}
	return job, nil
}

// ClaimJob moves a queued job to Transcribing. The update is conditional on
// the current status, so at most one caller can win the claim.
func (s *Store) ClaimJob(ctx context.Context, id int64) (bool, error) {
	return s.claimJobAt(ctx, id, time.Now())
}

func (s *Store) claimJobAt(ctx context.Context, id int64, now time.Time) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE transcription_jobs SET status = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusTranscribing,
		formatTime(now),
		id,
		StatusQueued,
	)
	if err != nil {
		return false, fmt.Errorf("claim job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim job: %w", err)
	}
	return affected == 1, nil
}

// ClaimNext claims the oldest queued job. It returns nil when nothing is
// queued. A lost claim race retries with the next candidate. The returned job
// is the selected row updated in memory, so once the claim commits the caller
// always owns it.
func (s *Store) ClaimNext(ctx context.Context) (*Job, error) {
	for {
		job, err := s.NextQueued(ctx)
		if err != nil || job == nil {
			return nil, err
		}
		now := time.Now()
		claimed, err := s.claimJobAt(ctx, job.ID, now)
		if err != nil {
			return nil, err
		}
		if claimed {
			job.Status = StatusTranscribing
			job.UpdatedAt, _ = parseTimeString(formatTime(now))
			return job, nil
		}
		if err := ensureContext(ctx).Err(); err != nil {
			return nil, err
		}
	}
}

// CompleteJob marks a transcribing job Complete and stamps date_completed.
func (s *Store) CompleteJob(ctx context.Context, id int64, outputPath string) error {
	now := nowString()
	return s.transition(ctx, "complete job", id,
		`UPDATE transcription_jobs
         SET status = ?, date_completed = ?, error_message = NULL, output_path = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusComplete, now, nullableString(outputPath), now, id, StatusTranscribing,
	)
}

// RequeueJob returns a transcribing job to Queued with the given retry count.
func (s *Store) RequeueJob(ctx context.Context, id int64, retryCount int) error {
	return s.transition(ctx, "requeue job", id,
		`UPDATE transcription_jobs
         SET status = ?, retry_count = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusQueued, retryCount, nowString(), id, StatusTranscribing,
	)
}

// FailJob marks a transcribing job as terminally failed.
func (s *Store) FailJob(ctx context.Context, id int64, retryCount int, message string) error {
	now := nowString()
	return s.transition(ctx, "fail job", id,
		`UPDATE transcription_jobs
         SET status = ?, retry_count = ?, error_message = ?, date_completed = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusError, retryCount, message, now, now, id, StatusTranscribing,
	)
}

func (s *Store) transition(ctx context.Context, op string, id int64, query string, args ...any) error {
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 1 {
		return nil
	}
	if _, err := s.GetJob(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s %d: %w", op, id, ErrInvalidTransition)
}

// ResetStuckProcessing returns jobs left in Transcribing by an interrupted
// process to Queued. Retry counts are left untouched.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE transcription_jobs SET status = ?, updated_at = ? WHERE status = ?`,
		StatusQueued,
		nowString(),
		StatusTranscribing,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck jobs: %w", err)
	}
	return res.RowsAffected()
}

// RetryFailed moves errored jobs back to Queued with a fresh retry budget.
// With no ids every errored job is re-queued.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	query := `UPDATE transcription_jobs
        SET status = ?, retry_count = 0, error_message = NULL, date_completed = NULL, updated_at = ?
        WHERE status = ?`
	args := []any{StatusQueued, nowString(), StatusError}
	if len(ids) > 0 {
		query += ` AND id IN (` + makePlaceholders(len(ids)) + `)`
		args = append(args, int64Args(ids)...)
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry failed jobs: %w", err)
	}
	return res.RowsAffected()
}
