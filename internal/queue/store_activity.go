package queue

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DefaultLogLimit bounds ListLogs when the caller passes no limit.
const DefaultLogLimit = 200

// AppendLog writes an activity log entry stamped with the current time.
func (s *Store) AppendLog(ctx context.Context, level LogLevel, message string) (*LogEntry, error) {
	switch level {
	case LevelInfo, LevelWarning, LevelError:
	default:
		return nil, fmt.Errorf("append log: unknown level %q", level)
	}
	message = strings.TrimSpace(message)
	ts := time.Now().UTC()
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO log_entries (timestamp, level, message) VALUES (?, ?, ?)`,
		formatTime(ts),
		level,
		message,
	)
	if err != nil {
		return nil, fmt.Errorf("append log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("append log id: %w", err)
	}
	return &LogEntry{ID: id, Timestamp: ts, Level: level, Message: message}, nil
}

// ListLogs returns activity log entries newest first.
func (s *Store) ListLogs(ctx context.Context, limit int) ([]*LogEntry, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, timestamp, level, message FROM log_entries
         ORDER BY timestamp DESC, id DESC
         LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	defer rows.Close()

	var entries []*LogEntry
	for rows.Next() {
		var (
			entry LogEntry
			tsRaw string
			level string
		)
		if err := rows.Scan(&entry.ID, &tsRaw, &level, &entry.Message); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		entry.Level = LogLevel(level)
		if ts, err := parseTimeString(tsRaw); err == nil {
			entry.Timestamp = ts
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
