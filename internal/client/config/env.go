package config

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "CONTACTBOOK_"

// dotenvFile is loaded into the environment when it exists. Variables that
// are already set are not overridden.
var dotenvFile = ".env"

// parseEnv overlays cfg with CONTACTBOOK_* variables. Unset variables leave
// the current value alone. It panics on malformed values.
func parseEnv(cfg *Config) {
	if err := godotenv.Load(dotenvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		panic(err)
	}
}
