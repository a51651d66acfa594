package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"murmur/internal/logging"
	"murmur/internal/queue"
	"murmur/internal/services"
	"murmur/internal/transcription"
)

const stageTranscribing = "transcribing"

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("worker already running")
	}
	if m.transcriber == nil {
		m.mu.Unlock()
		return errors.New("worker transcriber not configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.run(runCtx)
	return nil
}

// Stop terminates background processing and waits for the loop to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()
	m.logger.Info("worker started",
		logging.String(logging.FieldEventType, "worker_started"),
		logging.Int("max_retries", m.maxRetries),
		logging.Duration("idle_interval", m.idleInterval),
	)
	defer m.logger.Info("worker stopped", logging.String(logging.FieldEventType, "worker_stopped"))

	for {
		if ctx.Err() != nil {
			return
		}

		job, err := m.store.ClaimNext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.handleStorageError(ctx, "claim next job", err)
			continue
		}
		if job == nil {
			m.waitForJobOrShutdown(ctx)
			continue
		}

		if delay := m.processJob(ctx, job); delay > 0 {
			m.sleep(ctx, delay)
		}
	}
}

// processJob runs one claimed job to its next state and returns how long the
// loop should pause before polling again.
func (m *Manager) processJob(ctx context.Context, job *queue.Job) time.Duration {
	ctx = services.WithJobID(ctx, job.ID)
	ctx = services.WithStage(ctx, stageTranscribing)
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, m.logger)

	m.setCurrentJob(job)
	defer m.setCurrentJob(nil)

	m.activity.Info(ctx, "Starting transcription for job %d: %s", job.ID, job.FilePath)

	model := m.resolveModel(ctx, logger)
	logger.Info("transcription started",
		logging.String(logging.FieldEventType, "transcription_started"),
		logging.String("file", job.FilePath),
		logging.String("model", model),
		logging.Int("retry_count", job.RetryCount),
	)

	started := time.Now()
	outputPath, err := m.attempt(ctx, job, model)
	// Persistence after the attempt must survive a shutdown signal.
	persistCtx := context.WithoutCancel(ctx)

	if err != nil && ctx.Err() != nil {
		return m.handleInterrupted(persistCtx, logger, job)
	}
	if err != nil {
		return m.handleAttemptFailure(persistCtx, logger, job, err)
	}

	if err := m.store.CompleteJob(persistCtx, job.ID, outputPath); err != nil {
		m.recoverAfterStorageError(persistCtx, logger, job, job.RetryCount, err)
		return m.errorRetryInterval
	}

	job.Status = queue.StatusComplete
	job.OutputPath = outputPath
	m.setLastJob(job)
	m.activity.Info(persistCtx, "Transcription completed for job %d", job.ID)
	logger.Info("transcription completed",
		logging.String(logging.FieldEventType, "transcription_completed"),
		logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
		logging.String("output_path", outputPath),
	)
	m.notifyCompleted(persistCtx, logger, job)
	return 0
}

func (m *Manager) attempt(ctx context.Context, job *queue.Job, model string) (string, error) {
	attemptCtx := ctx
	if m.attemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, m.attemptTimeout)
		defer cancel()
	}

	text, err := m.transcriber.Transcribe(attemptCtx, job.FilePath, model)
	if err != nil {
		return "", err
	}
	if !m.writeTranscripts {
		return "", nil
	}
	outputPath, err := transcription.WriteTranscript(job.FilePath, text)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, stageTranscribing, "write transcript", "", err)
	}
	return outputPath, nil
}

// handleAttemptFailure applies the retry budget: the job is re-queued while
// attempts remain and marked Error once they are spent.
func (m *Manager) handleAttemptFailure(ctx context.Context, logger *slog.Logger, job *queue.Job, attemptErr error) time.Duration {
	message := failureMessage(attemptErr)
	next := job.RetryCount + 1

	if next < m.maxRetries {
		if err := m.store.RequeueJob(ctx, job.ID, next); err != nil {
			m.recoverAfterStorageError(ctx, logger, job, next, err)
			return m.errorRetryInterval
		}
		m.activity.Warning(ctx, "Job %d failed. Retrying (%d/%d)...", job.ID, next, m.maxRetries)
		logging.WarnWithContext(logger, "transcription attempt failed; job re-queued", "transcription_retry",
			logging.Error(attemptErr),
			logging.String("error_kind", services.ErrorKind(attemptErr)),
			logging.Int("retry_count", next),
			logging.String(logging.FieldErrorHint, "check the transcription service"),
			logging.String(logging.FieldImpact, "job will be retried after the retry delay"),
		)
		job.Status = queue.StatusQueued
		job.RetryCount = next
		m.setLastJob(job)
		return m.retryDelay
	}

	if err := m.store.FailJob(ctx, job.ID, next, message); err != nil {
		m.recoverAfterStorageError(ctx, logger, job, next, err)
		return m.errorRetryInterval
	}
	m.activity.Error(ctx, "Job %d failed after %d retries: %s", job.ID, m.maxRetries, message)
	logging.ErrorWithContext(logger, "transcription failed permanently", "transcription_failed",
		logging.Error(attemptErr),
		logging.String("error_kind", services.ErrorKind(attemptErr)),
		logging.Int("retry_count", next),
		logging.Alert("job_failed"),
		logging.String(logging.FieldErrorHint, "inspect the file, then re-queue with 'murmur jobs retry'"),
	)
	job.Status = queue.StatusError
	job.RetryCount = next
	job.ErrorMessage = message
	m.setLastJob(job)
	m.setLastError(attemptErr)
	m.notifyFailed(ctx, logger, job, next)
	return 0
}

// handleInterrupted returns a job cut off by shutdown to the queue without
// charging the attempt.
func (m *Manager) handleInterrupted(ctx context.Context, logger *slog.Logger, job *queue.Job) time.Duration {
	if err := m.store.RequeueJob(ctx, job.ID, job.RetryCount); err != nil {
		logger.Warn("could not re-queue interrupted job; it will be recovered on next start",
			logging.Error(err),
			logging.String(logging.FieldEventType, "interrupted_requeue_failed"),
			logging.String(logging.FieldImpact, "job stays Transcribing until restart"),
		)
		return 0
	}
	m.activity.Info(ctx, "Transcription for job %d interrupted by shutdown; returned to queue.", job.ID)
	logger.Info("transcription interrupted by shutdown", logging.String(logging.FieldEventType, "transcription_interrupted"))
	return 0
}

// recoverAfterStorageError aborts the iteration. It makes one attempt to put
// the job back in the queue so it is not stranded in Transcribing.
func (m *Manager) recoverAfterStorageError(ctx context.Context, logger *slog.Logger, job *queue.Job, retryCount int, storeErr error) {
	m.setLastError(storeErr)
	logging.ErrorWithContext(logger, "failed to persist job outcome", "job_persist_failed",
		logging.Error(storeErr),
		logging.String(logging.FieldErrorHint, "check database access and disk space"),
	)
	if err := m.store.RequeueJob(ctx, job.ID, retryCount); err != nil {
		logger.Warn("could not re-queue job after storage error; it will be recovered on next start",
			logging.Error(err),
			logging.String(logging.FieldEventType, "storage_requeue_failed"),
			logging.String(logging.FieldImpact, "job stays Transcribing until restart"),
		)
	}
}

func (m *Manager) handleStorageError(ctx context.Context, op string, err error) {
	m.setLastError(err)
	m.logger.Error("worker storage operation failed",
		logging.String("operation", op),
		logging.Error(err),
		logging.String(logging.FieldEventType, "worker_storage_failed"),
		logging.String(logging.FieldErrorHint, "check database access"),
	)
	m.sleep(ctx, m.errorRetryInterval)
}

func (m *Manager) resolveModel(ctx context.Context, logger *slog.Logger) string {
	fallback := strings.TrimSpace(m.cfg.Transcription.Model)
	value, ok, err := m.store.GetSetting(ctx, queue.SettingWhisperModel)
	if err != nil {
		logger.Warn("model setting unavailable; using configured default",
			logging.Error(err),
			logging.String(logging.FieldEventType, "model_setting_failed"),
			logging.String(logging.FieldImpact, "transcription uses "+fallback),
		)
		return fallback
	}
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}

func (m *Manager) waitForJobOrShutdown(ctx context.Context) {
	timer := time.NewTimer(m.idleInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-m.wake:
	case <-timer.C:
	}
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func failureMessage(err error) string {
	if err == nil {
		return "transcription failed without error detail"
	}
	message := strings.TrimSpace(err.Error())
	if message == "" {
		return fmt.Sprintf("transcription failed (%T)", err)
	}
	return message
}
