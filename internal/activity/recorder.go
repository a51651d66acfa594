// Package activity writes the user-visible activity log.
//
// Every entry is persisted to the store and mirrored to the operational slog
// logger. A failed write is logged and swallowed: losing an audit line must
// never abort a scan or a job.
package activity

import (
	"context"
	"fmt"
	"log/slog"

	"murmur/internal/logging"
	"murmur/internal/queue"
)

// Sink persists activity entries.
type Sink interface {
	AppendLog(ctx context.Context, level queue.LogLevel, message string) (*queue.LogEntry, error)
}

// Recorder appends activity entries.
type Recorder struct {
	sink   Sink
	logger *slog.Logger
}

// NewRecorder builds a recorder. A nil logger discards the slog mirror.
func NewRecorder(sink Sink, logger *slog.Logger) *Recorder {
	return &Recorder{sink: sink, logger: logging.NewComponentLogger(logger, "activity")}
}

// Info records an informational entry.
func (r *Recorder) Info(ctx context.Context, format string, args ...any) {
	r.record(ctx, queue.LevelInfo, fmt.Sprintf(format, args...))
}

// Warning records a warning entry.
func (r *Recorder) Warning(ctx context.Context, format string, args ...any) {
	r.record(ctx, queue.LevelWarning, fmt.Sprintf(format, args...))
}

// Error records an error entry.
func (r *Recorder) Error(ctx context.Context, format string, args ...any) {
	r.record(ctx, queue.LevelError, fmt.Sprintf(format, args...))
}

func (r *Recorder) record(ctx context.Context, level queue.LogLevel, message string) {
	if r == nil {
		return
	}
	logger := logging.WithContext(ctx, r.logger)
	switch level {
	case queue.LevelWarning:
		logger.Warn(message, logging.String(logging.FieldEventType, "activity"))
	case queue.LevelError:
		logger.Error(message, logging.String(logging.FieldEventType, "activity"))
	default:
		logger.Info(message)
	}
	if r.sink == nil {
		return
	}
	if _, err := r.sink.AppendLog(ctx, level, message); err != nil {
		logging.WarnWithContext(logger, "activity log write failed", "activity_write_failed",
			logging.Error(err),
			logging.String("activity_message", message),
			logging.String(logging.FieldImpact, "entry missing from activity log"),
		)
	}
}
