// Package config handles configuration loading, validation, and management for banglakey.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete configuration shared by every banglakey binary.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Engine configuration for the conversion session.
	Engine EngineConfig `toml:"engine" json:"engine" yaml:"engine"`

	// Overlay configuration for user patterns.
	Overlay OverlayConfig `toml:"overlay" json:"overlay" yaml:"overlay"`

	// Storage configuration for the commit journal.
	Storage StorageConfig `toml:"storage" json:"storage" yaml:"storage"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// IBus engine configuration.
	IBus IBusConfig `toml:"ibus" json:"ibus" yaml:"ibus"`

	// Terminal host configuration.
	Terminal TerminalConfig `toml:"terminal" json:"terminal" yaml:"terminal"`
}

// EngineConfig controls how keystrokes are reconciled.
type EngineConfig struct {
	// Mode is "live" (reconvert on every key) or "word" (replace at the boundary).
	Mode string `toml:"mode" json:"mode" yaml:"mode"`

	// ToggleKey switches conversion on and off: "F10", "ctrl+t" or "none".
	ToggleKey string `toml:"toggle_key" json:"toggle_key" yaml:"toggle_key"`

	// StartEnabled determines whether conversion is on at startup.
	StartEnabled bool `toml:"start_enabled" json:"start_enabled" yaml:"start_enabled"`
}

// OverlayConfig points at a user pattern file.
type OverlayConfig struct {
	// Path is a TOML, YAML or JSON overlay file. Empty means built-ins only.
	Path string `toml:"path" json:"path" yaml:"path"`

	// Watch reloads the table when the overlay changes.
	Watch bool `toml:"watch" json:"watch" yaml:"watch"`
}

// StorageConfig holds commit journal configuration.
type StorageConfig struct {
	// Enabled turns the journal on. Off by default: it records what you type.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// Path is the path to the SQLite database file.
	Path string `toml:"path" json:"path" yaml:"path"`

	// BusyTimeoutMs is the SQLite busy timeout in milliseconds.
	BusyTimeoutMs int `toml:"busy_timeout_ms" json:"busy_timeout_ms" yaml:"busy_timeout_ms"`

	// RetentionDays prunes older commits on startup. Zero keeps everything.
	RetentionDays int `toml:"retention_days" json:"retention_days" yaml:"retention_days"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is the log format: "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is the log output: "stdout", "stderr", "file", or a file path.
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the path to the log file (when Output is "file").
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`

	// MaxSizeMB is the maximum log file size before rotation.
	MaxSizeMB int `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is the number of old log files to keep.
	MaxBackups int `toml:"max_backups" json:"max_backups" yaml:"max_backups"`

	// MaxAgeDays is the maximum age of log files in days.
	MaxAgeDays int `toml:"max_age_days" json:"max_age_days" yaml:"max_age_days"`

	// Compress determines whether to compress rotated logs.
	Compress bool `toml:"compress" json:"compress" yaml:"compress"`

	// RedactText hides typed and converted words in log output.
	RedactText bool `toml:"redact_text" json:"redact_text" yaml:"redact_text"`
}

// IBusConfig holds IBus engine configuration.
type IBusConfig struct {
	// BusName is the well-known D-Bus name of the engine process.
	BusName string `toml:"bus_name" json:"bus_name" yaml:"bus_name"`

	// EngineName is the engine id registered in the component file.
	EngineName string `toml:"engine_name" json:"engine_name" yaml:"engine_name"`

	// ComponentDir overrides where the component XML is installed.
	ComponentDir string `toml:"component_dir" json:"component_dir" yaml:"component_dir"`
}

// TerminalConfig holds terminal host configuration.
type TerminalConfig struct {
	// Prompt is printed before each line in interactive mode.
	Prompt string `toml:"prompt" json:"prompt" yaml:"prompt"`

	// ShowStatus prints the on/off state after each toggle.
	ShowStatus bool `toml:"show_status" json:"show_status" yaml:"show_status"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: Version,
		Engine: EngineConfig{
			Mode:         "live",
			ToggleKey:    "F10",
			StartEnabled: true,
		},
		Overlay: OverlayConfig{
			Watch: true,
		},
		Storage: StorageConfig{
			Enabled:       false,
			Path:          filepath.Join(DataDir(), "journal.db"),
			BusyTimeoutMs: 5000,
			RetentionDays: 0,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			FilePath:   filepath.Join(PlatformLogDir(), "banglakey.log"),
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
			RedactText: true,
		},
		IBus: IBusConfig{
			BusName:    "org.freedesktop.IBus.Banglakey",
			EngineName: "banglakey",
		},
		Terminal: TerminalConfig{
			Prompt:     "",
			ShowStatus: true,
		},
	}
}

// ConfigPath returns the default config file location. An existing
// config.{toml,json,yaml,yml} in the standard locations wins.
func ConfigPath() string {
	if v := os.Getenv("BANGLAKEY_CONFIG"); v != "" {
		return v
	}
	if found := FindConfigFile(); found != "" {
		return found
	}
	return filepath.Join(PlatformConfigDir(), "config.toml")
}

// DataDir returns the data directory, honoring BANGLAKEY_DATA_DIR.
func DataDir() string {
	if envDir := os.Getenv("BANGLAKEY_DATA_DIR"); envDir != "" {
		return envDir
	}
	return PlatformDataDir()
}

// Load reads the configuration from path. A missing file yields the
// defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg, err := loadConfigFromFile(path)
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnvOverrides()

	return cfg, nil
}

// Validate checks the configuration and returns ValidationErrors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// EnsureDirectories creates the directories the configured files live in.
func (c *Config) EnsureDirectories() error {
	var dirs []string
	if c.Storage.Enabled {
		dirs = append(dirs, filepath.Dir(expandPath(c.Storage.Path)))
	}
	if c.Logging.Output == "file" {
		dirs = append(dirs, filepath.Dir(expandPath(c.Logging.FilePath)))
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}

// ApplyEnvOverrides applies BANGLAKEY_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("BANGLAKEY_MODE"); v != "" {
		c.Engine.Mode = v
	}
	if v := os.Getenv("BANGLAKEY_TOGGLE_KEY"); v != "" {
		c.Engine.ToggleKey = v
	}

	if v := os.Getenv("BANGLAKEY_OVERLAY"); v != "" {
		c.Overlay.Path = v
	}

	if v := os.Getenv("BANGLAKEY_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("BANGLAKEY_STORAGE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Storage.Enabled = b
		}
	}

	if v := os.Getenv("BANGLAKEY_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("BANGLAKEY_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("BANGLAKEY_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
		c.Logging.Output = "file"
	}
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// OverlayPath returns the overlay path with ~ expanded.
func (c *Config) OverlayPath() string {
	return expandPath(c.Overlay.Path)
}

// DatabasePath returns the journal path with ~ expanded.
func (c *Config) DatabasePath() string {
	return expandPath(c.Storage.Path)
}

// LogPath returns the log file path with ~ expanded.
func (c *Config) LogPath() string {
	return expandPath(c.Logging.FilePath)
}

// SaveConfig saves the configuration to a file, choosing the encoding from
// the extension.
func SaveConfig(cfg *Config, path string) error {
	var data []byte
	var err error

	switch filepath.Ext(path) {
	case ".json":
		data, err = json.MarshalIndent(cfg, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		data, err = encodeToTOML(cfg)
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

func encodeToTOML(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# banglakey configuration\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
