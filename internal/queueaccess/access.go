// Package queueaccess gives CLI commands one interface over a running daemon
// or, when none answers, the database directly.
package queueaccess

import (
	"context"

	"murmur/internal/api"
	"murmur/internal/queue"
)

// Access provides folder, job, log, and settings operations regardless of
// whether they travel over HTTP or hit the store in-process.
type Access interface {
	AddFolder(ctx context.Context, path string) (*queue.Folder, error)
	ListFolders(ctx context.Context) ([]*queue.Folder, error)
	SetMonitoring(ctx context.Context, id int64, enabled bool) (*queue.Folder, error)
	Scan(ctx context.Context) (int, error)
	ListJobs(ctx context.Context, statuses []string) ([]*queue.Job, error)
	GetJob(ctx context.Context, id int64) (*queue.Job, error)
	RetryJobs(ctx context.Context, ids []int64) (int64, error)
	Logs(ctx context.Context, limit int) ([]*queue.LogEntry, error)
	Settings(ctx context.Context) (api.Settings, error)
	UpdateSettings(ctx context.Context, settings api.Settings) (api.Settings, error)
	Status(ctx context.Context) (api.StatusResponse, error)
}

var (
	_ Access = (*api.Client)(nil)
	_ Access = (*api.Service)(nil)
)
