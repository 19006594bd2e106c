package config

// Package config provides structures and utilities for managing the
// orchestrator's application configuration.

// EmbeddedConfig holds the content of the configuration file, typically passed
// from main.go via go:embed.
type EmbeddedConfig []byte

// OrchestratorConfig holds configuration for the bulk-operation engine.
type OrchestratorConfig struct {
	// PollingIntervalMs is the interval between job status polls in milliseconds.
	PollingIntervalMs int `yaml:"polling_interval_ms"`
	// BatchCount is the default number of batches a bulk operation is split into.
	BatchCount int `yaml:"batch_count"`
	// HandleStoreRef is the name of the database connection backing the handle
	// store, or "inmemory" for the non-durable store.
	HandleStoreRef string `yaml:"handle_store_ref"`
	// Archive configures the optional terminal-result archive.
	Archive ArchiveConfig `yaml:"archive"`
}

// ArchiveConfig configures archiving of terminal composite results.
type ArchiveConfig struct {
	// Enabled toggles archiving of terminal composite results.
	Enabled bool `yaml:"enabled"`
	// StorageRef is the name of the storage connection used for archiving.
	StorageRef string `yaml:"storage_ref"`
	// Bucket overrides the connection's default bucket when non-empty.
	Bucket string `yaml:"bucket"`
}

// BackendConfig holds connection settings for the backend task-queue API.
type BackendConfig struct {
	// APIEndpoint is the base URL of the task-queue REST API.
	APIEndpoint string `yaml:"api_endpoint"`
	// APIToken authenticates requests against the backend.
	APIToken string `yaml:"api_token"`
	// TimeoutSeconds bounds a single HTTP round trip.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g., "INFO", "DEBUG").
	Level string `yaml:"level"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	// Timezone is the application timezone (e.g., "UTC").
	Timezone string `yaml:"timezone"`
	// Logging is the logging configuration.
	Logging LoggingConfig `yaml:"logging"`
}

// CockpitConfig holds all configuration under the "cockpit" top-level key.
type CockpitConfig struct {
	// Orchestrator contains bulk-operation engine settings.
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	// Backend contains task-queue API connection settings.
	Backend BackendConfig `yaml:"backend"`
	// System contains system-wide configurations.
	System SystemConfig `yaml:"system"`
	// Databases holds named database connection configurations, decoded
	// per-adapter via configbinder.
	Databases map[string]interface{} `yaml:"database"`
	// Storages holds named storage connection configurations, decoded
	// per-adapter via configbinder.
	Storages map[string]interface{} `yaml:"storage"`
}

// Config is the root structure for the entire application configuration.
type Config struct {
	// Cockpit contains the top-level configuration for the orchestrator.
	Cockpit CockpitConfig `yaml:"cockpit"`
	// EmbeddedConfig holds configuration loaded from an embedded source, not from YAML.
	EmbeddedConfig EmbeddedConfig `yaml:"-"`
}

// NewConfig returns a new instance of Config with default values.
func NewConfig() *Config {
	return &Config{
		Cockpit: CockpitConfig{
			Orchestrator: OrchestratorConfig{
				PollingIntervalMs: 3000,
				BatchCount:        1,
				HandleStoreRef:    "inmemory",
			},
			Backend: BackendConfig{
				TimeoutSeconds: 15,
			},
			System: SystemConfig{
				Timezone: "UTC",
				Logging:  LoggingConfig{Level: "INFO"},
			},
			Databases: map[string]interface{}{},
			Storages:  map[string]interface{}{},
		},
	}
}
