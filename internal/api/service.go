package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"murmur/internal/activity"
	"murmur/internal/queue"
	"murmur/internal/scanner"
	"murmur/internal/services"
	"murmur/internal/workflow"
)

// Store abstracts the persistence operations exposed over the API.
type Store interface {
	RegisterFolder(ctx context.Context, path string) (*queue.Folder, error)
	ListFolders(ctx context.Context) ([]*queue.Folder, error)
	SetMonitoring(ctx context.Context, id int64, enabled bool) (*queue.Folder, error)
	ListJobs(ctx context.Context, statuses ...queue.JobStatus) ([]*queue.Job, error)
	GetJob(ctx context.Context, id int64) (*queue.Job, error)
	RetryFailed(ctx context.Context, ids ...int64) (int64, error)
	ListLogs(ctx context.Context, limit int) ([]*queue.LogEntry, error)
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
	Health(ctx context.Context) (queue.HealthSummary, error)
}

// Scanner runs folder scans.
type Scanner interface {
	Scan(ctx context.Context, trigger scanner.Trigger) (int, error)
	Extensions() []string
}

// Worker is the running worker loop, when there is one.
type Worker interface {
	Wake()
	Status(ctx context.Context) workflow.StatusSummary
}

// Service implements the folder, job, log, and settings operations.
type Service struct {
	store        Store
	scanner      Scanner
	worker       Worker
	activity     *activity.Recorder
	defaultModel string
}

// ServiceOption configures optional Service collaborators.
type ServiceOption func(*Service)

// WithWorker attaches a running worker so re-queued jobs start promptly and
// status reflects the live loop.
func WithWorker(worker Worker) ServiceOption {
	return func(s *Service) {
		s.worker = worker
	}
}

// NewService constructs a Service. defaultModel is reported when no model
// setting has been stored yet.
func NewService(store Store, scan Scanner, recorder *activity.Recorder, defaultModel string, opts ...ServiceOption) *Service {
	s := &Service{
		store:        store,
		scanner:      scan,
		activity:     recorder,
		defaultModel: strings.TrimSpace(defaultModel),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", services.ErrValidation, fmt.Sprintf(format, args...))
}

// AddFolder registers a monitored folder.
func (s *Service) AddFolder(ctx context.Context, path string) (*queue.Folder, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, invalid("folder path is required")
	}
	folder, err := s.store.RegisterFolder(ctx, path)
	if err != nil {
		return nil, err
	}
	s.activity.Info(services.WithFolderID(ctx, folder.ID), "Added new monitored folder: %s", folder.Path)
	return folder, nil
}

// ListFolders returns every registered folder.
func (s *Service) ListFolders(ctx context.Context) ([]*queue.Folder, error) {
	return s.store.ListFolders(ctx)
}

// SetMonitoring enables or disables scanning for a folder.
func (s *Service) SetMonitoring(ctx context.Context, id int64, enabled bool) (*queue.Folder, error) {
	folder, err := s.store.SetMonitoring(ctx, id, enabled)
	if err != nil {
		return nil, err
	}
	s.activity.Info(services.WithFolderID(ctx, folder.ID), "Updated monitoring status for folder %s to %t", folder.Path, enabled)
	return folder, nil
}

// Scan runs a manual scan and wakes the worker when it found work.
func (s *Service) Scan(ctx context.Context) (int, error) {
	if s.scanner == nil {
		return 0, errors.New("scanner unavailable")
	}
	count, err := s.scanner.Scan(ctx, scanner.TriggerManual)
	if count > 0 && s.worker != nil {
		s.worker.Wake()
	}
	return count, err
}

// ListJobs returns jobs, optionally filtered by status name.
func (s *Service) ListJobs(ctx context.Context, statuses []string) ([]*queue.Job, error) {
	filters := make([]queue.JobStatus, 0, len(statuses))
	for _, raw := range statuses {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			status, ok := queue.ParseStatus(part)
			if !ok {
				return nil, invalid("unknown job status %q", strings.TrimSpace(part))
			}
			filters = append(filters, status)
		}
	}
	return s.store.ListJobs(ctx, filters...)
}

// GetJob returns a single job.
func (s *Service) GetJob(ctx context.Context, id int64) (*queue.Job, error) {
	return s.store.GetJob(ctx, id)
}

// RetryJobs moves errored jobs back to the queue with a fresh retry budget.
func (s *Service) RetryJobs(ctx context.Context, ids []int64) (int64, error) {
	updated, err := s.store.RetryFailed(ctx, ids...)
	if err != nil {
		return 0, err
	}
	if updated > 0 {
		s.activity.Info(ctx, "Re-queued %d failed job(s).", updated)
		if s.worker != nil {
			s.worker.Wake()
		}
	}
	return updated, nil
}

// Logs returns activity entries newest first.
func (s *Service) Logs(ctx context.Context, limit int) ([]*queue.LogEntry, error) {
	if limit < 0 {
		return nil, invalid("limit must not be negative")
	}
	if limit == 0 {
		limit = queue.DefaultLogLimit
	}
	return s.store.ListLogs(ctx, limit)
}

// Settings returns the stored settings, falling back to the configured model.
func (s *Service) Settings(ctx context.Context) (Settings, error) {
	value, ok, err := s.store.GetSetting(ctx, queue.SettingWhisperModel)
	if err != nil {
		return Settings{}, err
	}
	if !ok || strings.TrimSpace(value) == "" {
		value = s.defaultModel
	}
	return Settings{WhisperModel: value}, nil
}

// UpdateSettings persists new settings. The worker reads them on its next claim.
func (s *Service) UpdateSettings(ctx context.Context, settings Settings) (Settings, error) {
	model := strings.TrimSpace(settings.WhisperModel)
	if model == "" {
		return Settings{}, invalid("whisper_model is required")
	}
	if err := s.store.SetSetting(ctx, queue.SettingWhisperModel, model); err != nil {
		return Settings{}, err
	}
	s.activity.Info(ctx, "Transcription model set to %s", model)
	return Settings{WhisperModel: model}, nil
}

// Status reports the worker state, or queue counts alone when no worker runs
// in this process.
func (s *Service) Status(ctx context.Context) (StatusResponse, error) {
	var resp StatusResponse
	if s.worker != nil {
		resp.Worker = s.worker.Status(ctx)
	} else {
		health, err := s.store.Health(ctx)
		if err != nil {
			return StatusResponse{}, err
		}
		resp.Worker.Jobs = health
	}
	settings, err := s.Settings(ctx)
	if err != nil {
		return StatusResponse{}, err
	}
	resp.Settings = settings
	if s.scanner != nil {
		resp.Extensions = s.scanner.Extensions()
	}
	return resp, nil
}
