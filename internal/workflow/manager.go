package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"murmur/internal/activity"
	"murmur/internal/config"
	"murmur/internal/logging"
	"murmur/internal/notifications"
	"murmur/internal/queue"
	"murmur/internal/transcription"
)

// JobStore is the persistence surface the worker needs.
type JobStore interface {
	ClaimNext(ctx context.Context) (*queue.Job, error)
	CompleteJob(ctx context.Context, id int64, outputPath string) error
	RequeueJob(ctx context.Context, id int64, retryCount int) error
	FailJob(ctx context.Context, id int64, retryCount int, message string) error
	GetSetting(ctx context.Context, key string) (string, bool, error)
	Health(ctx context.Context) (queue.HealthSummary, error)
}

// Manager owns the worker loop.
type Manager struct {
	cfg         *config.Config
	store       JobStore
	transcriber transcription.Transcriber
	activity    *activity.Recorder
	notifier    notifications.Service
	logger      *slog.Logger

	idleInterval       time.Duration
	retryDelay         time.Duration
	errorRetryInterval time.Duration
	attemptTimeout     time.Duration
	maxRetries         int
	writeTranscripts   bool

	wake chan struct{}

	mu         sync.RWMutex
	running    bool
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	lastErr    error
	lastJob    *queue.Job
	currentJob *queue.Job
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithNotifier overrides the notification service.
func WithNotifier(notifier notifications.Service) ManagerOption {
	return func(m *Manager) {
		if notifier != nil {
			m.notifier = notifier
		}
	}
}

// WithActivity sets the activity log recorder.
func WithActivity(recorder *activity.Recorder) ManagerOption {
	return func(m *Manager) {
		m.activity = recorder
	}
}

// WithIntervals overrides the idle poll, retry delay, and storage error
// backoff. Zero values keep the configured durations.
func WithIntervals(idle, retry, storageError time.Duration) ManagerOption {
	return func(m *Manager) {
		if idle > 0 {
			m.idleInterval = idle
		}
		if retry > 0 {
			m.retryDelay = retry
		}
		if storageError > 0 {
			m.errorRetryInterval = storageError
		}
	}
}

// NewManager constructs a worker manager.
func NewManager(cfg *config.Config, store JobStore, transcriber transcription.Transcriber, logger *slog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		cfg:                cfg,
		store:              store,
		transcriber:        transcriber,
		notifier:           notifications.NewService(cfg),
		logger:             logging.NewComponentLogger(logger, "worker"),
		idleInterval:       cfg.IdlePollInterval(),
		retryDelay:         cfg.RetryDelay(),
		errorRetryInterval: cfg.ErrorRetryInterval(),
		attemptTimeout:     cfg.TranscriptionTimeout(),
		maxRetries:         cfg.Workflow.MaxRetries,
		writeTranscripts:   cfg.Transcription.WriteTranscripts,
		wake:               make(chan struct{}, 1),
	}
	if m.maxRetries <= 0 {
		m.maxRetries = 1
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Wake interrupts an idle wait so newly queued jobs start promptly.
func (m *Manager) Wake() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}
