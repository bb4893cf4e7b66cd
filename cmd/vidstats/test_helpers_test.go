package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vidstats/internal/config"
	"vidstats/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) cliTestEnv {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	path := filepath.Join(t.TempDir(), "vidstats.toml")
	writeTestConfig(t, path, cfg)
	return cliTestEnv{cfg: cfg, configPath: path}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\nlog_dir = %q\n\n[upstream]\nbase_url = %q\napi_key = %q\ntimeout_seconds = 5\n\n[store]\npath = %q\n\n[sync]\nworkers = %d\ntimezone = %q\n\n[api]\nbind = %q\n\n[logging]\nlevel = \"error\"\n",
		cfg.Paths.DataDir,
		cfg.Paths.LogDir,
		cfg.Upstream.BaseURL,
		cfg.Upstream.APIKey,
		cfg.Store.Path,
		cfg.Sync.Workers,
		cfg.Sync.Timezone,
		cfg.API.Bind,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
