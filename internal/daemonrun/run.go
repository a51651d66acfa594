// Package daemonrun hosts the murmur daemon process: signal handling, logger
// construction, component wiring, and the PID file.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"murmur/internal/activity"
	"murmur/internal/config"
	"murmur/internal/daemon"
	"murmur/internal/logging"
	"murmur/internal/notifications"
	"murmur/internal/queue"
	"murmur/internal/scanner"
	"murmur/internal/transcription"
	"murmur/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the murmur daemon and blocks until SIGINT, SIGTERM, or the
// parent context ends.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := newLogger(cfg, opts)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logConfigSnapshot(logger, cfg)

	pidPath := filepath.Join(cfg.Paths.LogDir, "murmur.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open job store", logging.Error(err))
		return err
	}

	recorder := activity.NewRecorder(store, logger)
	notifier := notifications.NewService(cfg)
	client := transcription.NewClient(cfg.Transcription.BaseURL, cfg.Transcription.APIKey,
		transcription.WithTimeout(cfg.TranscriptionTimeout()))
	worker := workflow.NewManager(cfg, store, client, logger,
		workflow.WithActivity(recorder),
		workflow.WithNotifier(notifier),
	)

	d, err := daemon.New(cfg, daemon.Components{
		Store:    store,
		Scanner:  scanner.New(cfg.Scanner, store, recorder, logger),
		Worker:   worker,
		Activity: recorder,
		Notifier: notifier,
	}, logger)
	if err != nil {
		store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check for another running daemon and database access"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("murmur daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

func newLogger(cfg *config.Config, opts Options) (*slog.Logger, error) {
	if strings.TrimSpace(opts.LogLevel) == "" && !opts.Development {
		return logging.NewFromConfig(cfg)
	}
	level := cfg.Logging.Level
	if strings.TrimSpace(opts.LogLevel) != "" {
		level = opts.LogLevel
	}
	logPath := filepath.Join(cfg.Paths.LogDir, "murmur.log")
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}
	return logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("configuration snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.String("transcription_url", cfg.Transcription.BaseURL),
		logging.Bool("transcription_key_present", strings.TrimSpace(cfg.Transcription.APIKey) != ""),
		logging.String("default_model", cfg.Transcription.Model),
		logging.Int("max_retries", cfg.Workflow.MaxRetries),
		logging.Duration("scan_interval", cfg.ScanInterval()),
		logging.Bool("include_video", cfg.Scanner.IncludeVideo),
		logging.Bool("notifications_enabled", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
		logging.String("api_bind", cfg.Paths.APIBind),
	)
}
