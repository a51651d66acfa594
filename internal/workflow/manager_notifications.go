package workflow

import (
	"context"
	"errors"
	"log/slog"

	"murmur/internal/logging"
	"murmur/internal/notifications"
	"murmur/internal/queue"
)

func (m *Manager) notifyCompleted(ctx context.Context, logger *slog.Logger, job *queue.Job) {
	m.publish(ctx, logger, notifications.EventJobCompleted, notifications.Payload{
		"fileName":   job.FileName,
		"outputPath": job.OutputPath,
	})
}

func (m *Manager) notifyFailed(ctx context.Context, logger *slog.Logger, job *queue.Job, attempts int) {
	m.publish(ctx, logger, notifications.EventJobFailed, notifications.Payload{
		"fileName": job.FileName,
		"attempts": attempts,
		"error":    job.ErrorMessage,
	})
}

func (m *Manager) publish(ctx context.Context, logger *slog.Logger, event notifications.Event, payload notifications.Payload) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Publish(ctx, event, payload); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not send notification")
			return
		}
		logger.Debug("notification failed", logging.String("event", string(event)), logging.Error(err))
	}
}
