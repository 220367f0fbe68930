// Package config loads runtime configuration for the contactbook CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file (see parseFile) selected via flags: -c or -config.
//     JSON by default, YAML for .yaml/.yml files.
//  3. Environment variables prefixed with CONTACTBOOK_ (see parseEnv). A .env
//     file in the working directory is loaded first when present.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the API server
//	-t int      request timeout (seconds)
//	-d string   local database path
//	-l string   log level
//
// # File schema
//
// The file loader uses timex.Duration for the timeout, so it can be either a
// string like "5s" or integer nanoseconds:
//
//	{
//	  "server_url": "https://contacts.example.com",
//	  "request_timeout": "5s",
//	  "database_path": "/var/lib/contactbook/token.db",
//	  "log_level": "debug",
//	  "log_backend": "zap"
//	}
//
// Environment
//
//	CONTACTBOOK_SERVER_URL, CONTACTBOOK_REQUEST_TIMEOUT (e.g. "5s"),
//	CONTACTBOOK_DATABASE_PATH, CONTACTBOOK_LOG_LEVEL, CONTACTBOOK_LOG_BACKEND
package config
