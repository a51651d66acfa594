package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t, false)

	out := env.run(t, "config", "validate")
	requireContains(t, out, "Config path: "+env.configPath)
	requireContains(t, out, "Database: "+filepath.Join(env.cfg.Paths.DataDir, "murmur.db"))
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out = env.run(t, "config", "init", "--path", target)
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	_, _, err := runCLI(t, []string{"config", "init", "--path", target}, env.apiAddr, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected existing config to be protected, got %v", err)
	}
	out = env.run(t, "config", "init", "--path", target, "--overwrite")
	requireContains(t, out, "Wrote sample configuration")

	out = env.run(t, "--config", target, "config", "validate")
	requireContains(t, out, "Configuration valid")
}

func TestConfigValidateRejectsBadValues(t *testing.T) {
	env := setupCLITestEnv(t, false)
	bad := filepath.Join(t.TempDir(), "bad.toml")
	content := "[paths]\ndata_dir = \"" + env.cfg.Paths.DataDir + "\"\n\n[workflow]\nmax_retries = 0\n"
	if err := os.WriteFile(bad, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, err := runCLI(t, []string{"config", "validate"}, env.apiAddr, bad)
	if err == nil || !strings.Contains(err.Error(), "max_retries") {
		t.Fatalf("expected max_retries validation error, got %v", err)
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs([]string{"1", " 22 "})
	if err != nil {
		t.Fatalf("parseIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 22 {
		t.Fatalf("unexpected ids: %v", ids)
	}
	for _, bad := range []string{"0", "-3", "x"} {
		if _, err := parseIDs([]string{bad}); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}
