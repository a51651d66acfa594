package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"murmur/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("MURMUR_TRANSCRIPTION_API_KEY", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "murmur")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "murmur.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.Paths.APIBind != "127.0.0.1:7490" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.IdlePollInterval() != 5*time.Second {
		t.Fatalf("unexpected idle poll interval: %s", cfg.IdlePollInterval())
	}
	if cfg.RetryDelay() != 5*time.Second {
		t.Fatalf("unexpected retry delay: %s", cfg.RetryDelay())
	}
	if cfg.Workflow.MaxRetries != 3 {
		t.Fatalf("unexpected max retries: %d", cfg.Workflow.MaxRetries)
	}
	if cfg.ScanInterval() != 0 {
		t.Fatalf("expected scheduled scans disabled by default, got %s", cfg.ScanInterval())
	}
	if cfg.Transcription.Model != "base" {
		t.Fatalf("unexpected default model: %q", cfg.Transcription.Model)
	}
	if cfg.Scanner.IncludeVideo {
		t.Fatal("expected video extensions disabled by default")
	}
}

func TestLoadReadsTOMLSections(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "murmur.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"

[workflow]
idle_poll_seconds = 1
retry_delay_seconds = 2
max_retries = 5

[scanner]
include_video = true

[transcription]
base_url = "https://whisper.example.com/v1/"
model = "Systran/faster-distil-whisper-large-v3"

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected explicit path to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Paths.DataDir != filepath.Join(dir, "data") {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if cfg.Workflow.MaxRetries != 5 || cfg.RetryDelay() != 2*time.Second {
		t.Fatalf("unexpected workflow section: %+v", cfg.Workflow)
	}
	if !cfg.Scanner.IncludeVideo {
		t.Fatal("expected include_video to be honoured")
	}
	if cfg.Transcription.BaseURL != "https://whisper.example.com/v1" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Transcription.BaseURL)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected logging values normalized, got %+v", cfg.Logging)
	}
}

func TestTranscriptionAPIKeyEnvFallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("MURMUR_TRANSCRIPTION_API_KEY", " primary ")
	t.Setenv("OPENAI_API_KEY", "secondary")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Transcription.APIKey != "primary" {
		t.Fatalf("expected primary env key, got %q", cfg.Transcription.APIKey)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"idle poll", func(c *config.Config) { c.Workflow.IdlePollSeconds = 0 }, "workflow.idle_poll_seconds"},
		{"retry delay", func(c *config.Config) { c.Workflow.RetryDelaySeconds = -1 }, "workflow.retry_delay_seconds"},
		{"max retries", func(c *config.Config) { c.Workflow.MaxRetries = 0 }, "workflow.max_retries"},
		{"base url scheme", func(c *config.Config) { c.Transcription.BaseURL = "ftp://host/v1" }, "transcription.base_url"},
		{"timeout", func(c *config.Config) { c.Transcription.TimeoutSeconds = 0 }, "transcription.timeout_seconds"},
		{"ntfy topic", func(c *config.Config) { c.Notifications.NtfyTopic = "murmur" }, "notifications.ntfy_topic"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in error, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample config is not valid TOML: %v", err)
	}
	if decoded.Workflow.MaxRetries != 3 {
		t.Fatalf("expected sample max_retries 3, got %d", decoded.Workflow.MaxRetries)
	}

	if _, _, exists, err := config.Load(target); err != nil || !exists {
		t.Fatalf("expected sample to load cleanly, exists=%v err=%v", exists, err)
	}
}
