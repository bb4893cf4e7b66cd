package testsupport

import (
	"path/filepath"
	"testing"

	"vidstats/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Store.Path = filepath.Join(base, "data", "vidstats.db")
	cfg.Upstream.APIKey = "test-key"
	cfg.API.Bind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithUpstreamURL points the config at a fake upstream server.
func WithUpstreamURL(url string) ConfigOption {
	return func(c *config.Config) {
		c.Upstream.BaseURL = url
	}
}

// WithWorkers sets the sync worker count.
func WithWorkers(n int) ConfigOption {
	return func(c *config.Config) {
		c.Sync.Workers = n
	}
}

// WithAPIToken sets the bearer token required by the HTTP API.
func WithAPIToken(token string) ConfigOption {
	return func(c *config.Config) {
		c.API.Token = token
	}
}
