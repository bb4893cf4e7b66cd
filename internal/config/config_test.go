package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vidstats/internal/config"
)

func TestLoadDefaultConfigUsesEnvAPIKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
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

	wantData := filepath.Join(tempHome, ".local", "share", "vidstats")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Store.Path != filepath.Join(wantData, "vidstats.db") {
		t.Fatalf("unexpected store path: %q", cfg.Store.Path)
	}
	if cfg.Upstream.APIKey != "test-key" {
		t.Fatalf("expected API key from env, got %q", cfg.Upstream.APIKey)
	}
	if cfg.Upstream.BaseURL != config.Default().Upstream.BaseURL {
		t.Fatalf("unexpected base url: %q", cfg.Upstream.BaseURL)
	}
	if cfg.Sync.Workers != 1 {
		t.Fatalf("expected sequential default, got %d workers", cfg.Sync.Workers)
	}
	if cfg.Sync.MaxPages != 1000 {
		t.Fatalf("unexpected max pages: %d", cfg.Sync.MaxPages)
	}
	if cfg.Location().String() != "UTC" {
		t.Fatalf("unexpected location: %s", cfg.Location())
	}
	if cfg.LockPath() != filepath.Join(wantData, "sync.lock") {
		t.Fatalf("unexpected lock path: %q", cfg.LockPath())
	}
	if err := cfg.RequireUpstream(); err != nil {
		t.Fatalf("RequireUpstream: %v", err)
	}
}

func TestLoadReadsDotEnvWithoutOverridingEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("API_KEY", "")
	if err := os.Unsetenv("API_KEY"); err != nil {
		t.Fatalf("unsetenv: %v", err)
	}
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("API_KEY=from-dotenv\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Upstream.APIKey != "from-dotenv" {
		t.Fatalf("expected key from .env, got %q", cfg.Upstream.APIKey)
	}

	t.Setenv("API_KEY", "from-env")
	cfg, _, _, err = config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Upstream.APIKey != "from-env" {
		t.Fatalf("expected environment to win over .env, got %q", cfg.Upstream.APIKey)
	}
}

func TestLoadCustomFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("API_KEY", "")
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"

[upstream]
base_url = "http://localhost:9999/v2/"
api_key = "file-key"

[sync]
workers = 4
timezone = "Europe/Amsterdam"

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
		t.Fatalf("expected custom path to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Upstream.BaseURL != "http://localhost:9999/v2" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.APIKey != "file-key" {
		t.Fatalf("unexpected api key %q", cfg.Upstream.APIKey)
	}
	if cfg.Sync.Workers != 4 {
		t.Fatalf("unexpected workers %d", cfg.Sync.Workers)
	}
	if cfg.Location().String() != "Europe/Amsterdam" {
		t.Fatalf("unexpected location %s", cfg.Location())
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected lowercased logging settings, got %q/%q", cfg.Logging.Format, cfg.Logging.Level)
	}
	if cfg.Store.Path != filepath.Join(dir, "data", "vidstats.db") {
		t.Fatalf("unexpected store path %q", cfg.Store.Path)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "data")); err != nil {
		t.Fatalf("expected data dir created: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"workers", func(c *config.Config) { c.Sync.Workers = -1 }, "sync.workers"},
		{"max pages", func(c *config.Config) { c.Sync.MaxPages = -5 }, "sync.max_pages"},
		{"timezone", func(c *config.Config) { c.Sync.Timezone = "Mars/Olympus" }, "sync.timezone"},
		{"base url scheme", func(c *config.Config) { c.Upstream.BaseURL = "ftp://example.com" }, "upstream.base_url"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"log level", func(c *config.Config) { c.Logging.Level = "verbose" }, "logging.level"},
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
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestRequireUpstreamWithoutKey(t *testing.T) {
	cfg := config.Default()
	err := cfg.RequireUpstream()
	if err == nil {
		t.Fatal("expected missing key error")
	}
	if !strings.Contains(err.Error(), "API_KEY") {
		t.Fatalf("expected hint about API_KEY, got %v", err)
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("expected sample to load, exists=%v err=%v", exists, err)
	}
}
