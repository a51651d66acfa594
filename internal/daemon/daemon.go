package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"murmur/internal/activity"
	"murmur/internal/api"
	"murmur/internal/config"
	"murmur/internal/logging"
	"murmur/internal/notifications"
	"murmur/internal/queue"
	"murmur/internal/scanner"
	"murmur/internal/workflow"
)

// Components are the collaborators a daemon coordinates.
type Components struct {
	Store    *queue.Store
	Scanner  *scanner.Scanner
	Worker   *workflow.Manager
	Activity *activity.Recorder
	Notifier notifications.Service
}

// Daemon coordinates the background services and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	worker   *workflow.Manager
	activity *activity.Recorder
	scans    *scanRunner
	server   *apiServer

	lockPath string
	lock     *flock.Flock

	mu      sync.Mutex
	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	DatabasePath string
	LockFilePath string
	APIAddress   string
	Worker       workflow.StatusSummary
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, c Components, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || c.Store == nil || c.Scanner == nil || c.Worker == nil {
		return nil, errors.New("daemon requires config, store, scanner, and worker")
	}
	logger = logging.NewComponentLogger(logger, "daemon")
	notifier := c.Notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	scans := &scanRunner{scanner: c.Scanner, notifier: notifier, logger: logger}
	svc := api.NewService(c.Store, scans, c.Activity, cfg.Transcription.Model, api.WithWorker(c.Worker))

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    c.Store,
		worker:   c.Worker,
		activity: c.Activity,
		scans:    scans,
		server:   newAPIServer(cfg.Paths.APIBind, api.NewRouter(svc, logger), logger),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, recovers interrupted jobs, and launches the
// worker, scan scheduler, and API server.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another murmur daemon instance is already running")
	}

	if err := d.prepareStore(ctx); err != nil {
		_ = d.lock.Unlock()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.server.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	if err := d.worker.Start(runCtx); err != nil {
		cancel()
		d.server.stop()
		_ = d.lock.Unlock()
		return fmt.Errorf("start worker: %w", err)
	}

	if interval := d.cfg.ScanInterval(); interval > 0 {
		d.wg.Add(1)
		go d.scheduleScans(runCtx, interval)
	}

	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("murmur daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api", d.server.address()),
		logging.String(logging.FieldEventType, "daemon_started"),
	)
	return nil
}

// prepareStore recovers jobs stranded by an unclean shutdown and seeds the
// model setting from configuration.
func (d *Daemon) prepareStore(ctx context.Context) error {
	recovered, err := d.store.ResetStuckProcessing(ctx)
	if err != nil {
		return fmt.Errorf("recover interrupted jobs: %w", err)
	}
	if recovered > 0 {
		d.activity.Warning(ctx, "Recovered %d interrupted job(s); returned to queue.", recovered)
	}
	model, err := d.store.EnsureSetting(ctx, queue.SettingWhisperModel, d.cfg.Transcription.Model)
	if err != nil {
		return fmt.Errorf("seed model setting: %w", err)
	}
	d.logger.Info("transcription model resolved",
		logging.String("model", model),
		logging.String(logging.FieldEventType, "model_resolved"),
	)
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	d.worker.Stop()
	d.server.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock",
			logging.Error(err),
			logging.String(logging.FieldEventType, "lock_release_failed"),
			logging.String(logging.FieldImpact, "next start may report another instance"),
		)
	}
	d.running.Store(false)
	d.logger.Info("murmur daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddress returns the address the HTTP API is listening on, if any.
func (d *Daemon) APIAddress() string {
	return d.server.address()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		APIAddress:   d.server.address(),
		Worker:       d.worker.Status(ctx),
	}
}
