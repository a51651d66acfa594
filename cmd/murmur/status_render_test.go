package main

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"murmur/internal/api"
	"murmur/internal/queue"
	"murmur/internal/workflow"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusError, "not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Daemon:", "[ERROR] not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusOK, "running", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestStatusLinesShowsCurrentJob(t *testing.T) {
	status := api.StatusResponse{
		Worker: workflow.StatusSummary{
			Running:    true,
			LastError:  "database is locked",
			CurrentJob: &queue.Job{ID: 7, FileName: "memo.m4a"},
			Jobs:       queue.HealthSummary{Queued: 2, Transcribing: 1, Error: 1},
		},
		Settings: api.Settings{WhisperModel: "medium"},
	}
	joined := strings.Join(statusLines(status, true, false), "\n")
	for _, want := range []string{
		"[INFO] transcribing job #7 (memo.m4a)",
		"[ERROR] database is locked",
		"[INFO] medium",
		"[ERROR] 1",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in status output:\n%s", want, joined)
		}
	}
	if strings.Contains(joined, "Extensions:") {
		t.Fatalf("expected extensions line to be omitted:\n%s", joined)
	}
}

func TestStatusLinesWorkerStopped(t *testing.T) {
	lines := statusLines(api.StatusResponse{}, true, false)
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "[WARN] stopped") {
		t.Fatalf("expected stopped worker line:\n%s", joined)
	}
	if !strings.Contains(joined, "Error:") || !strings.Contains(joined, "[OK] 0") {
		t.Fatalf("expected zero error count marked OK:\n%s", joined)
	}
}

func TestShouldColorizeHonorsNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if shouldColorize(os.Stdout) {
		t.Fatal("expected NO_COLOR to disable colour")
	}
	if shouldColorize(&strings.Builder{}) {
		t.Fatal("expected non-file writers to stay uncoloured")
	}
}
