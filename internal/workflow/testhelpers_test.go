package workflow_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"murmur/internal/activity"
	"murmur/internal/config"
	"murmur/internal/notifications"
	"murmur/internal/queue"
	"murmur/internal/testsupport"
	"murmur/internal/workflow"
)

const fastInterval = 10 * time.Millisecond

type transcribeFunc func(ctx context.Context, call int, path, model string) (string, error)

type stubTranscriber struct {
	mu     sync.Mutex
	fn     transcribeFunc
	paths  []string
	models []string
}

func (s *stubTranscriber) Transcribe(ctx context.Context, path, model string) (string, error) {
	s.mu.Lock()
	s.paths = append(s.paths, path)
	s.models = append(s.models, model)
	call := len(s.paths)
	fn := s.fn
	s.mu.Unlock()
	if fn == nil {
		return "transcribed text", nil
	}
	return fn(ctx, call, path, model)
}

func (s *stubTranscriber) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}

func (s *stubTranscriber) lastModel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.models) == 0 {
		return ""
	}
	return s.models[len(s.models)-1]
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, _ notifications.Payload) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	return nil
}

func (r *recordingNotifier) list() []notifications.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notifications.Event(nil), r.events...)
}

type harness struct {
	cfg      *config.Config
	store    *queue.Store
	folder   *queue.Folder
	dir      string
	notifier *recordingNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	dir := filepath.Join(testsupport.BaseDir(cfg), "media")
	return &harness{
		cfg:      cfg,
		store:    store,
		folder:   testsupport.RegisterFolder(t, store, dir),
		dir:      dir,
		notifier: &recordingNotifier{},
	}
}

func (h *harness) audio(t *testing.T, names ...string) []*queue.Job {
	t.Helper()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(h.dir, name)
		testsupport.WriteFile(t, path, 64)
		paths = append(paths, path)
	}
	return testsupport.EnqueueFiles(t, h.store, h.folder.ID, paths...)
}

func (h *harness) manager(t *testing.T, store workflow.JobStore, transcriber *stubTranscriber) *workflow.Manager {
	t.Helper()
	if store == nil {
		store = h.store
	}
	return workflow.NewManager(h.cfg, store, transcriber, nil,
		workflow.WithActivity(activity.NewRecorder(h.store, nil)),
		workflow.WithNotifier(h.notifier),
		workflow.WithIntervals(fastInterval, fastInterval, fastInterval),
	)
}

func startManager(t *testing.T, m *workflow.Manager) {
	t.Helper()
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(m.Stop)
}

func waitForJob(t *testing.T, store *queue.Store, id int64, cond func(*queue.Job) bool) *queue.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		job, err := store.GetJob(context.Background(), id)
		if err != nil {
			t.Fatalf("GetJob failed: %v", err)
		}
		if cond(job) {
			return job
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for job %d; last state %+v", id, job)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func activityMessages(t *testing.T, store *queue.Store) []string {
	t.Helper()
	entries, err := store.ListLogs(context.Background(), 500)
	if err != nil {
		t.Fatalf("ListLogs failed: %v", err)
	}
	out := make([]string, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i].Message)
	}
	return out
}

// flakyStore fails ClaimNext a fixed number of times before delegating.
type flakyStore struct {
	*queue.Store
	mu       sync.Mutex
	failures int
}

func (f *flakyStore) ClaimNext(ctx context.Context) (*queue.Job, error) {
	f.mu.Lock()
	if f.failures > 0 {
		f.failures--
		f.mu.Unlock()
		return nil, errors.New("database is locked")
	}
	f.mu.Unlock()
	return f.Store.ClaimNext(ctx)
}
