package config

const (
	defaultConfigPath      = "~/.config/vidstats/config.toml"
	defaultDataDir         = "~/.local/share/vidstats"
	defaultLogDir          = "~/.local/share/vidstats/logs"
	defaultUpstreamBaseURL = "https://api.hihaho.com/v2"
	defaultUpstreamTimeout = 30
	defaultSyncWorkers     = 1
	defaultSyncMaxPages    = 1000
	defaultTimezone        = "UTC"
	defaultAPIBind         = "127.0.0.1:8000"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	storeFileName          = "vidstats.db"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Upstream: Upstream{
			BaseURL:        defaultUpstreamBaseURL,
			TimeoutSeconds: defaultUpstreamTimeout,
		},
		Sync: Sync{
			Workers:  defaultSyncWorkers,
			MaxPages: defaultSyncMaxPages,
			Timezone: defaultTimezone,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
