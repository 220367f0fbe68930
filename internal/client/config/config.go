package config

import "time"

// Config holds runtime settings for the contactbook CLI.
//
// Fields:
//   - ServerURL: base URL of the contact record store API.
//   - RequestTimeout: upper bound for a single API call.
//   - DatabasePath: SQLite file holding the session token.
//   - LogLevel: debug, info, warn or error.
//   - LogBackend: slog or zap.
//
// The env tags are relative to the CONTACTBOOK_ prefix.
type Config struct {
	ServerURL      string        `env:"SERVER_URL"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
	DatabasePath   string        `env:"DATABASE_PATH"`
	LogLevel       string        `env:"LOG_LEVEL"`
	LogBackend     string        `env:"LOG_BACKEND"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:8000"
	c.RequestTimeout = 10 * time.Second
	c.DatabasePath = "contactbook.db"
	c.LogLevel = "info"
	c.LogBackend = "slog"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// a config file (if given), the environment, and command-line flags. Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
