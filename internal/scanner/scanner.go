package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sys/unix"

	"murmur/internal/activity"
	"murmur/internal/config"
	"murmur/internal/logging"
	"murmur/internal/queue"
	"murmur/internal/services"
)

// Store is the persistence surface a scan needs.
type Store interface {
	ListEnabledFolders(ctx context.Context) ([]*queue.Folder, error)
	InsertJobs(ctx context.Context, folderID int64, jobs []queue.NewJob) (int, error)
}

// Trigger identifies what started a scan.
type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerScheduled Trigger = "scheduled"
	TriggerStartup   Trigger = "startup"
)

// Scanner walks monitored folders. Concurrent Scan calls are serialized.
type Scanner struct {
	mu                 sync.Mutex
	store              Store
	activity           *activity.Recorder
	logger             *slog.Logger
	extensions         ExtensionSet
	followFileSymlinks bool
}

// New constructs a Scanner.
func New(cfg config.Scanner, store Store, recorder *activity.Recorder, logger *slog.Logger) *Scanner {
	return &Scanner{
		store:              store,
		activity:           recorder,
		logger:             logging.NewComponentLogger(logger, "scanner"),
		extensions:         NewExtensionSet(cfg.IncludeVideo),
		followFileSymlinks: cfg.FollowFileSymlink,
	}
}

// Scan discovers new files in every enabled folder and returns the number of
// jobs created. Folder-level I/O problems are logged and skipped; only
// storage failures are returned.
func (s *Scanner) Scan(ctx context.Context, trigger Trigger) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if trigger == TriggerManual {
		s.activity.Info(ctx, "Manual scan triggered.")
	}
	s.activity.Info(ctx, "Starting folder scan...")

	folders, err := s.store.ListEnabledFolders(ctx)
	if err != nil {
		s.activity.Error(ctx, "Folder scan failed: %v", err)
		return 0, fmt.Errorf("list enabled folders: %w", err)
	}

	total := 0
	var storeErrs []error
	for _, folder := range folders {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		folderCtx := services.WithFolderID(ctx, folder.ID)
		found, err := s.discover(folderCtx, folder)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return total, ctxErr
		}
		if err != nil {
			s.activity.Warning(folderCtx, "Skipping folder %s: %v", folder.Path, err)
			continue
		}
		inserted, err := s.store.InsertJobs(folderCtx, folder.ID, found)
		if err != nil {
			s.activity.Error(folderCtx, "Could not enqueue files from %s: %v", folder.Path, err)
			storeErrs = append(storeErrs, fmt.Errorf("folder %s: %w", folder.Path, err))
			continue
		}
		logging.WithContext(folderCtx, s.logger).Debug("folder scanned",
			logging.String("path", folder.Path),
			logging.Int("candidates", len(found)),
			logging.Int("inserted", inserted),
		)
		total += inserted
	}

	if total > 0 {
		s.activity.Info(ctx, "Found %d new audio files.", total)
	} else {
		s.activity.Info(ctx, "No new audio files found.")
	}
	s.activity.Info(ctx, "Folder scan complete.")

	s.logger.Info("folder scan finished",
		logging.String(logging.FieldEventType, "scan_complete"),
		logging.String("trigger", string(trigger)),
		logging.Int("folders", len(folders)),
		logging.Int("new_jobs", total),
	)
	return total, errors.Join(storeErrs...)
}

// discover walks one folder and returns supported files as new jobs.
func (s *Scanner) discover(ctx context.Context, folder *queue.Folder) ([]queue.NewJob, error) {
	root, err := CanonicalPath(folder.Path)
	if err != nil {
		return nil, err
	}
	// A registered folder may itself be a symlink; walk its target.
	root, err = filepath.EvalSymlinks(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}
	if err := unix.Access(root, unix.R_OK|unix.X_OK); err != nil {
		return nil, fmt.Errorf("insufficient permissions: %w", err)
	}

	var found []queue.NewJob
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			s.activity.Warning(ctx, "Skipping unreadable path %s: %v", path, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		if !s.extensions.Matches(d.Name()) {
			return nil
		}
		if !s.includeEntry(path, d) {
			return nil
		}
		canonical, err := CanonicalPath(path)
		if err != nil {
			return err
		}
		found = append(found, queue.NewJob{FileName: filepath.Base(canonical), FilePath: canonical})
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return found, nil
}

func (s *Scanner) includeEntry(path string, d fs.DirEntry) bool {
	mode := d.Type()
	if mode.IsRegular() {
		return true
	}
	if mode&fs.ModeSymlink == 0 || !s.followFileSymlinks {
		return false
	}
	target, err := os.Stat(path)
	if err != nil {
		s.logger.Debug("dangling symlink skipped", logging.String("path", path), logging.Error(err))
		return false
	}
	return target.Mode().IsRegular()
}

// Extensions returns the supported extensions in sorted order.
func (s *Scanner) Extensions() []string {
	return s.extensions.List()
}
