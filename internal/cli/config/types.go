// Package config provides configuration management for the FViewer CLI.
package config

// Config holds all CLI configuration options.
type Config struct {
	// Database is the engine database path; empty means in-memory.
	Database string `koanf:"database"`

	// PreviewLimit caps rows shown when previewing a loaded table.
	PreviewLimit int `koanf:"preview_limit"`

	// OutputFormat selects result rendering: table, json, csv, md.
	OutputFormat string `koanf:"output"`

	// HistoryPath is the query history database path.
	// Empty resolves to ~/.fviewer/history.db.
	HistoryPath string `koanf:"history_path"`

	// NoHistory disables query history recording entirely.
	NoHistory bool `koanf:"no_history"`

	// Watch enables source file change detection.
	Watch bool `koanf:"watch"`

	// Verbose enables debug logging to stderr.
	Verbose bool `koanf:"verbose"`
}

// Default configuration values.
const (
	DefaultPreviewLimit = 100
	DefaultOutput       = "table"
)
