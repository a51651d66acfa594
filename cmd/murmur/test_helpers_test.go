package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"murmur/internal/activity"
	"murmur/internal/config"
	"murmur/internal/daemon"
	"murmur/internal/queue"
	"murmur/internal/scanner"
	"murmur/internal/testsupport"
	"murmur/internal/workflow"
)

// offlineAPI points the CLI at an address nothing listens on so commands
// fall back to the database.
const offlineAPI = "127.0.0.1:1"

type echoTranscriber struct{}

func (echoTranscriber) Transcribe(_ context.Context, path, _ string) (string, error) {
	return "transcript of " + filepath.Base(path), nil
}

type cliTestEnv struct {
	cfg        *config.Config
	store      *queue.Store
	daemon     *daemon.Daemon
	apiAddr    string
	configPath string
	mediaDir   string
}

func setupCLITestEnv(t *testing.T, withDaemon bool) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	configPath := filepath.Join(homeDir, ".config", "murmur", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	mediaDir := filepath.Join(base, "media")
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		t.Fatalf("mkdir media: %v", err)
	}

	env := &cliTestEnv{
		cfg:        cfg,
		apiAddr:    offlineAPI,
		configPath: configPath,
		mediaDir:   mediaDir,
	}
	if !withDaemon {
		return env
	}

	store := testsupport.MustOpenStore(t, cfg)
	recorder := activity.NewRecorder(store, nil)
	worker := workflow.NewManager(cfg, store, echoTranscriber{}, nil, workflow.WithActivity(recorder))
	d, err := daemon.New(cfg, daemon.Components{
		Store:    store,
		Scanner:  scanner.New(cfg.Scanner, store, recorder, nil),
		Worker:   worker,
		Activity: recorder,
	}, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon start: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})

	env.store = store
	env.daemon = d
	env.apiAddr = d.APIAddress()
	return env
}

func runCLI(t *testing.T, args []string, apiAddr, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--api", apiAddr}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func (e *cliTestEnv) run(t *testing.T, args ...string) string {
	t.Helper()
	out, stderr, err := runCLI(t, args, e.apiAddr, e.configPath)
	if err != nil {
		t.Fatalf("murmur %s: %v (stderr: %s)", strings.Join(args, " "), err, stderr)
	}
	return out
}

func (e *cliTestEnv) waitForJobs(t *testing.T, want queue.JobStatus, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		jobs, err := e.store.ListJobs(context.Background(), want)
		if err != nil {
			t.Fatalf("list jobs: %v", err)
		}
		if len(jobs) >= n {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected %d %s jobs, have %d", n, want, len(jobs))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\nlog_dir = %q\napi_bind = %q\n\n[transcription]\napi_key = %q\n",
		cfg.Paths.DataDir,
		cfg.Paths.LogDir,
		cfg.Paths.APIBind,
		cfg.Transcription.APIKey,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n--- output ---\n%s", needle, haystack)
	}
}

func requireNotContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if strings.Contains(haystack, needle) {
		t.Fatalf("expected output to omit %q\n--- output ---\n%s", needle, haystack)
	}
}
