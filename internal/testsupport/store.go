package testsupport

import (
	"context"
	"testing"

	"murmur/internal/config"
	"murmur/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// RegisterFolder registers a monitored folder for tests.
func RegisterFolder(t testing.TB, store *queue.Store, path string) *queue.Folder {
	t.Helper()

	folder, err := store.RegisterFolder(context.Background(), path)
	if err != nil {
		t.Fatalf("store.RegisterFolder: %v", err)
	}
	return folder
}

// EnqueueFiles inserts queued jobs for the given absolute paths.
func EnqueueFiles(t testing.TB, store *queue.Store, folderID int64, paths ...string) []*queue.Job {
	t.Helper()

	ctx := context.Background()
	jobs := make([]queue.NewJob, 0, len(paths))
	for _, p := range paths {
		jobs = append(jobs, queue.NewJob{FileName: baseName(p), FilePath: p})
	}
	if _, err := store.InsertJobs(ctx, folderID, jobs); err != nil {
		t.Fatalf("store.InsertJobs: %v", err)
	}
	all, err := store.ListJobs(ctx)
	if err != nil {
		t.Fatalf("store.ListJobs: %v", err)
	}
	wanted := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		wanted[p] = struct{}{}
	}
	out := make([]*queue.Job, 0, len(paths))
	for _, job := range all {
		if _, ok := wanted[job.FilePath]; ok {
			out = append(out, job)
		}
	}
	return out
}

// GetJob fetches a job or fails the test.
func GetJob(t testing.TB, store *queue.Store, id int64) *queue.Job {
	t.Helper()

	job, err := store.GetJob(context.Background(), id)
	if err != nil {
		t.Fatalf("store.GetJob(%d): %v", id, err)
	}
	return job
}
