package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all inspectd configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Data directory for database, logs, and runtime state
	DataDir string `yaml:"data_dir"`

	// Checklist registry configuration
	Checklists ChecklistsConfig `yaml:"checklists"`

	// Comment library configuration
	Comments CommentsConfig `yaml:"comments"`

	// Inspection storage
	Storage StorageConfig `yaml:"storage"`

	// MCP server settings
	Server ServerConfig `yaml:"server"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ChecklistsConfig configures the checklist registry.
type ChecklistsConfig struct {
	// Directory containing checklist YAML files
	Dir string `yaml:"dir"`

	// Checklist id used when none is specified
	Default string `yaml:"default"`
}

// CommentsConfig configures the comment library.
type CommentsConfig struct {
	// Path to the base boilerplate library
	LibraryPath string `yaml:"library_path"`

	// Path to the inspector's custom overrides (optional)
	CustomPath string `yaml:"custom_path"`

	// Watch library files and hot-reload on change
	Watch bool `yaml:"watch"`

	// Debounce window for file change events
	WatchDebounce string `yaml:"watch_debounce"`
}

// StorageConfig configures inspection persistence.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	BusyTimeout  string `yaml:"busy_timeout"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	// Per-request timeout for tool execution
	RequestTimeout string `yaml:"request_timeout"`
}

// LoggingConfig configures logging. Field names must stay in sync with the
// mirror struct in internal/logging, which reads this section directly.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	JSONFormat bool            `yaml:"json_format"`
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ".inspectd"
	}
	return filepath.Join(cwd, ".inspectd")
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	dataDir := DefaultDataDir()
	return &Config{
		Name:    "inspectd",
		Version: "1.0.0",
		DataDir: dataDir,

		Checklists: ChecklistsConfig{
			Dir:     "configs/checklists",
			Default: "residential",
		},

		Comments: CommentsConfig{
			LibraryPath:   "configs/comments/library.yaml",
			CustomPath:    "configs/comments/custom.yaml",
			Watch:         true,
			WatchDebounce: "500ms",
		},

		Storage: StorageConfig{
			DatabasePath: filepath.Join(dataDir, "inspections.db"),
			BusyTimeout:  "5s",
		},

		Server: ServerConfig{
			RequestTimeout: "30s",
		},

		Logging: LoggingConfig{
			Level:     "info",
			DebugMode: false,
		},
	}
}

// ConfigPath returns the path to the config file inside a data directory.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config.yaml")
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("INSPECTD_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
	if path := os.Getenv("INSPECTD_DB"); path != "" {
		c.Storage.DatabasePath = path
	}
	if dir := os.Getenv("INSPECTD_CHECKLIST_DIR"); dir != "" {
		c.Checklists.Dir = dir
	}
	if path := os.Getenv("INSPECTD_COMMENTS"); path != "" {
		c.Comments.LibraryPath = path
	}
	if path := os.Getenv("INSPECTD_CUSTOM_COMMENTS"); path != "" {
		c.Comments.CustomPath = path
	}
	if level := os.Getenv("INSPECTD_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// GetRequestTimeout returns the MCP request timeout as a duration.
func (c *Config) GetRequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.RequestTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetWatchDebounce returns the file watcher debounce window as a duration.
func (c *Config) GetWatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Comments.WatchDebounce)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// GetBusyTimeout returns the database busy timeout as a duration.
func (c *Config) GetBusyTimeout() time.Duration {
	d, err := time.ParseDuration(c.Storage.BusyTimeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// ValidLogLevels lists all supported log levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Checklists.Dir == "" {
		return fmt.Errorf("checklist directory not configured")
	}
	if c.Checklists.Default == "" {
		return fmt.Errorf("default checklist not configured")
	}
	if c.Storage.DatabasePath == "" {
		return fmt.Errorf("database path not configured")
	}

	if c.Logging.Level != "" {
		validLevel := false
		for _, l := range ValidLogLevels {
			if c.Logging.Level == l {
				validLevel = true
				break
			}
		}
		if !validLevel {
			return fmt.Errorf("invalid log level: %s (valid: %v)", c.Logging.Level, ValidLogLevels)
		}
	}

	if c.Comments.WatchDebounce != "" {
		if _, err := time.ParseDuration(c.Comments.WatchDebounce); err != nil {
			return fmt.Errorf("invalid watch debounce: %w", err)
		}
	}
	if c.Server.RequestTimeout != "" {
		if _, err := time.ParseDuration(c.Server.RequestTimeout); err != nil {
			return fmt.Errorf("invalid request timeout: %w", err)
		}
	}

	return nil
}

// IsWatchEnabled returns whether comment library hot-reload is enabled.
func (c *Config) IsWatchEnabled() bool {
	return c.Comments.Watch
}
