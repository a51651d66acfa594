package workflow_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"murmur/internal/activity"
	"murmur/internal/notifications"
	"murmur/internal/queue"
	"murmur/internal/scanner"
	"murmur/internal/workflow"
)

func TestRetryBoundMarksJobError(t *testing.T) {
	h := newHarness(t)
	jobs := h.audio(t, "broken.mp3")
	stub := &stubTranscriber{fn: func(context.Context, int, string, string) (string, error) {
		return "", errors.New("provider returned 500")
	}}
	startManager(t, h.manager(t, nil, stub))

	job := waitForJob(t, h.store, jobs[0].ID, func(j *queue.Job) bool { return j.Status == queue.StatusError })
	if job.RetryCount != 3 {
		t.Fatalf("expected retry_count 3, got %d", job.RetryCount)
	}
	if !strings.Contains(job.ErrorMessage, "provider returned 500") || job.DateCompleted == nil {
		t.Fatalf("unexpected failed job: %+v", job)
	}

	time.Sleep(10 * fastInterval)
	if calls := len(stub.calls()); calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", calls)
	}

	msgs := strings.Join(activityMessages(t, h.store), "\n")
	for _, want := range []string{
		"Job 1 failed. Retrying (1/3)...",
		"Job 1 failed. Retrying (2/3)...",
		"Job 1 failed after 3 retries: provider returned 500",
	} {
		if !strings.Contains(msgs, want) {
			t.Fatalf("expected %q in activity log:\n%s", want, msgs)
		}
	}
	if strings.Contains(msgs, "Retrying (3/3)") {
		t.Fatalf("job should not be re-queued a third time:\n%s", msgs)
	}
	if !slices.Contains(h.notifier.list(), notifications.EventJobFailed) {
		t.Fatalf("expected failure notification, got %v", h.notifier.list())
	}
}

func TestEventualSuccessAfterTransientFailure(t *testing.T) {
	h := newHarness(t)
	jobs := h.audio(t, "flaky.wav")
	stub := &stubTranscriber{fn: func(_ context.Context, call int, _, _ string) (string, error) {
		if call == 1 {
			return "", errors.New("connection reset")
		}
		return "hello there", nil
	}}
	startManager(t, h.manager(t, nil, stub))

	job := waitForJob(t, h.store, jobs[0].ID, func(j *queue.Job) bool { return j.Status == queue.StatusComplete })
	if job.RetryCount != 1 || job.DateCompleted == nil {
		t.Fatalf("unexpected completed job: %+v", job)
	}
	if job.ErrorMessage != "" {
		t.Fatalf("expected no error message, got %q", job.ErrorMessage)
	}
	want := filepath.Join(h.dir, "flaky.txt")
	if job.OutputPath != want {
		t.Fatalf("output path = %q, want %q", job.OutputPath, want)
	}
	data, err := os.ReadFile(want)
	if err != nil || string(data) != "hello there" {
		t.Fatalf("transcript = %q, %v", data, err)
	}
}

func TestEndToEndScanThenTranscribe(t *testing.T) {
	h := newHarness(t)
	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(h.dir, "song.mp3"), []byte("id3"), 0o644); err != nil {
		t.Fatalf("write song: %v", err)
	}
	sc := scanner.New(h.cfg.Scanner, h.store, activity.NewRecorder(h.store, nil), nil)
	if n, err := sc.Scan(context.Background(), scanner.TriggerManual); err != nil || n != 1 {
		t.Fatalf("Scan = %d, %v", n, err)
	}
	queued, err := h.store.ListJobs(context.Background())
	if err != nil || len(queued) != 1 {
		t.Fatalf("ListJobs = %d, %v", len(queued), err)
	}
	if queued[0].FileName != "song.mp3" || queued[0].Status != queue.StatusQueued {
		t.Fatalf("unexpected queued job: %+v", queued[0])
	}

	var seen []queue.JobStatus
	var mu sync.Mutex
	stub := &stubTranscriber{fn: func(ctx context.Context, _ int, _, _ string) (string, error) {
		job, err := h.store.GetJob(ctx, queued[0].ID)
		if err != nil {
			return "", err
		}
		mu.Lock()
		seen = append(seen, job.Status)
		mu.Unlock()
		return "la la la", nil
	}}
	startManager(t, h.manager(t, nil, stub))

	job := waitForJob(t, h.store, queued[0].ID, func(j *queue.Job) bool { return j.Status == queue.StatusComplete })
	if job.DateCompleted == nil {
		t.Fatal("expected date_completed to be set")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0] != queue.StatusTranscribing {
		t.Fatalf("expected job to be Transcribing during the call, saw %v", seen)
	}

	msgs := strings.Join(activityMessages(t, h.store), "\n")
	for _, want := range []string{
		"Starting transcription for job 1: " + queued[0].FilePath,
		"Transcription completed for job 1",
	} {
		if !strings.Contains(msgs, want) {
			t.Fatalf("expected %q in activity log:\n%s", want, msgs)
		}
	}
}

func TestSingleInFlightAndFIFO(t *testing.T) {
	h := newHarness(t)
	jobs := h.audio(t, "c.mp3", "a.mp3", "b.mp3")

	var violations []int
	var mu sync.Mutex
	stub := &stubTranscriber{fn: func(ctx context.Context, _ int, _, _ string) (string, error) {
		inFlight, err := h.store.ListJobs(ctx, queue.StatusTranscribing)
		if err != nil {
			return "", err
		}
		if len(inFlight) != 1 {
			mu.Lock()
			violations = append(violations, len(inFlight))
			mu.Unlock()
		}
		return "ok", nil
	}}
	startManager(t, h.manager(t, nil, stub))

	waitForJob(t, h.store, jobs[len(jobs)-1].ID, func(j *queue.Job) bool { return j.Status == queue.StatusComplete })

	mu.Lock()
	defer mu.Unlock()
	if len(violations) > 0 {
		t.Fatalf("observed in-flight counts %v", violations)
	}
	want := []string{jobs[0].FilePath, jobs[1].FilePath, jobs[2].FilePath}
	if got := stub.calls(); !slices.Equal(got, want) {
		t.Fatalf("processing order = %v, want %v", got, want)
	}
}

func TestModelComesFromSettings(t *testing.T) {
	h := newHarness(t)
	if err := h.store.SetSetting(context.Background(), queue.SettingWhisperModel, "large-v3"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	jobs := h.audio(t, "a.mp3")
	stub := &stubTranscriber{}
	startManager(t, h.manager(t, nil, stub))

	waitForJob(t, h.store, jobs[0].ID, func(j *queue.Job) bool { return j.Status == queue.StatusComplete })
	if got := stub.lastModel(); got != "large-v3" {
		t.Fatalf("model = %q, want large-v3", got)
	}
}

func TestDefaultModelWhenSettingMissing(t *testing.T) {
	h := newHarness(t)
	jobs := h.audio(t, "a.mp3")
	stub := &stubTranscriber{}
	startManager(t, h.manager(t, nil, stub))

	waitForJob(t, h.store, jobs[0].ID, func(j *queue.Job) bool { return j.Status == queue.StatusComplete })
	if got := stub.lastModel(); got != h.cfg.Transcription.Model {
		t.Fatalf("model = %q, want %q", got, h.cfg.Transcription.Model)
	}
}

func TestStopReturnsWhileIdle(t *testing.T) {
	h := newHarness(t)
	m := workflow.NewManager(h.cfg, h.store, &stubTranscriber{}, nil,
		workflow.WithIntervals(time.Hour, time.Hour, time.Hour),
	)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := m.Start(context.Background()); err == nil {
		t.Fatal("expected second Start to fail")
	}

	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return while worker was idle")
	}
	if m.Status(context.Background()).Running {
		t.Fatal("expected worker to report stopped")
	}
}

func TestWakeInterruptsIdleWait(t *testing.T) {
	h := newHarness(t)
	stub := &stubTranscriber{}
	m := workflow.NewManager(h.cfg, h.store, stub, nil,
		workflow.WithIntervals(time.Hour, fastInterval, fastInterval),
	)
	startManager(t, m)
	time.Sleep(5 * fastInterval)

	jobs := h.audio(t, "late.mp3")
	m.Wake()
	waitForJob(t, h.store, jobs[0].ID, func(j *queue.Job) bool { return j.Status == queue.StatusComplete })
}

func TestStopDuringTranscriptionRequeuesWithoutCharging(t *testing.T) {
	h := newHarness(t)
	jobs := h.audio(t, "long.mp3")
	started := make(chan struct{})
	stub := &stubTranscriber{fn: func(ctx context.Context, _ int, _, _ string) (string, error) {
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	}}
	m := h.manager(t, nil, stub)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("transcription never started")
	}
	m.Stop()

	job := waitForJob(t, h.store, jobs[0].ID, func(j *queue.Job) bool { return j.Status == queue.StatusQueued })
	if job.RetryCount != 0 {
		t.Fatalf("expected retry budget untouched, got %d", job.RetryCount)
	}
}

func TestStopAfterSuccessfulCallStillLogsCompletion(t *testing.T) {
	h := newHarness(t)
	jobs := h.audio(t, "late.mp3")
	started := make(chan struct{})
	stub := &stubTranscriber{fn: func(ctx context.Context, _ int, _, _ string) (string, error) {
		close(started)
		<-ctx.Done()
		return "finished just in time", nil
	}}
	m := h.manager(t, nil, stub)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("transcription never started")
	}
	m.Stop()

	job := waitForJob(t, h.store, jobs[0].ID, func(j *queue.Job) bool { return j.Status == queue.StatusComplete })
	if job.DateCompleted == nil {
		t.Fatal("expected date_completed to be set")
	}
	completed := false
	for _, msg := range activityMessages(t, h.store) {
		if strings.HasPrefix(msg, "Transcription completed for job") {
			completed = true
		}
	}
	if !completed {
		t.Fatalf("completion entry missing from activity log: %q", activityMessages(t, h.store))
	}
}

func TestStorageErrorDoesNotStopWorker(t *testing.T) {
	h := newHarness(t)
	jobs := h.audio(t, "a.mp3")
	store := &flakyStore{Store: h.store, failures: 2}
	m := h.manager(t, store, &stubTranscriber{})
	startManager(t, m)

	waitForJob(t, h.store, jobs[0].ID, func(j *queue.Job) bool { return j.Status == queue.StatusComplete })
	var status workflow.StatusSummary
	deadline := time.Now().Add(5 * time.Second)
	for {
		status = m.Status(context.Background())
		if status.LastJob != nil || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !strings.Contains(status.LastError, "database is locked") {
		t.Fatalf("expected last error to record storage failure, got %q", status.LastError)
	}
	if !status.Running || status.Jobs.Complete != 1 {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status.LastJob == nil || status.LastJob.ID != jobs[0].ID {
		t.Fatalf("expected last job to be %d, got %+v", jobs[0].ID, status.LastJob)
	}
}

func TestStartRequiresTranscriber(t *testing.T) {
	h := newHarness(t)
	m := workflow.NewManager(h.cfg, h.store, nil, nil)
	if err := m.Start(context.Background()); err == nil {
		t.Fatal("expected Start to fail without a transcriber")
	}
}
