// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load(ctx) layers defaults, an optional YAML file and environment vars.
// - External errors are wrapped via this package's error helpers.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// APIKey is the shared secret checked against the X-API-Key header.
	// Empty disables authentication (local development only).
	APIKey string `koanf:"api_key"`

	// DatabaseURL is the Postgres connection string.
	DatabaseURL string `koanf:"database_url"`

	// ModelPath is the local classifier artifact location.
	ModelPath string `koanf:"model_path"`

	// ModelURL, when set, is fetched once at first load if ModelPath does
	// not exist yet.
	ModelURL string `koanf:"model_url"`

	// LogSchema and MartSchema name the Postgres schemas holding the audit
	// tables and the feature table.
	LogSchema  string `koanf:"log_schema"`
	MartSchema string `koanf:"mart_schema"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:    "info",
		Addr:        ":8000",
		APIKey:      "",
		DatabaseURL: "postgres://localhost:5432/mldb",
		ModelPath:   "models/model.json",
		ModelURL:    "",
		LogSchema:   "ml_logs",
		MartSchema:  "mart",
	}
}
