package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Default values applied to absent or non-positive settings.
const (
	DefaultPollIntervalMS = 500
	DefaultMaxBytes       = 256 * 1024
	DefaultServerAddr     = "127.0.0.1:7456"
	DefaultRatePerMinute  = 600
	DefaultBurst          = 20
	DefaultLogLevel       = "info"
)

// Config represents the main configuration for clipstack.
type Config struct {
	BaseDir  string        `toml:"base_dir"`
	LogDir   string        `toml:"log_dir"`
	LogLevel string        `toml:"log_level"` // "debug", "info", "warn" or "error"
	Storage  StorageConfig `toml:"storage"`
	Capture  CaptureConfig `toml:"capture"`
	Server   ServerConfig  `toml:"server"`
}

// StorageConfig selects the backend holding the history.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type StorageConfig struct {
	Type string `toml:"type"` // "memory", "filesystem", "sqlite", "redis" or "s3"

	// Filesystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`

	// SQLite-specific fields (only used when Type == "sqlite")
	SQLitePath string `toml:"sqlite_path,omitempty"`

	// Redis-specific fields (only used when Type == "redis")
	RedisAddr        string `toml:"redis_addr,omitempty"`
	RedisPasswordEnv string `toml:"redis_password_env,omitempty"`
	RedisDB          int    `toml:"redis_db,omitempty"`
	RedisPrefix      string `toml:"redis_prefix,omitempty"`

	// S3-specific fields (only used when Type == "s3").
	// Credentials are read from the environment variables named here.
	S3Bucket       string `toml:"s3_bucket,omitempty"`
	S3Prefix       string `toml:"s3_prefix,omitempty"`
	S3Region       string `toml:"s3_region,omitempty"`
	S3Endpoint     string `toml:"s3_endpoint,omitempty"`
	S3AccessKeyEnv string `toml:"s3_access_key_env,omitempty"`
	S3SecretKeyEnv string `toml:"s3_secret_key_env,omitempty"`
}

// CaptureConfig controls the clipboard watcher used by `clipstack serve`.
// MaxBytes also limits captures arriving from the browser extension.
type CaptureConfig struct {
	Enabled        bool     `toml:"enabled"`
	PollIntervalMS int      `toml:"poll_interval_ms"`
	MaxBytes       int      `toml:"max_bytes"`
	Ignore         []string `toml:"ignore"` // regular expressions; matching text is never captured
}

// ServerConfig controls the local WebSocket endpoint.
type ServerConfig struct {
	Addr          string `toml:"addr"`
	RatePerMinute int    `toml:"rate_per_minute"` // per connection; 0 disables limiting
	Burst         int    `toml:"burst"`

	// AllowedExtensions lists browser extension ids allowed to connect.
	// Empty accepts any extension origin.
	AllowedExtensions []string `toml:"allowed_extensions,omitempty"`
}

// Defaults returns a Config with every setting that does not depend on a base
// directory filled in.
func Defaults() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Storage:  StorageConfig{Type: "memory"},
		Capture: CaptureConfig{
			Enabled:        true,
			PollIntervalMS: DefaultPollIntervalMS,
			MaxBytes:       DefaultMaxBytes,
		},
		Server: ServerConfig{
			Addr:          DefaultServerAddr,
			RatePerMinute: DefaultRatePerMinute,
			Burst:         DefaultBurst,
		},
	}
}

// NewConfig creates a Config rooted at baseDir, storing history in SQLite.
func NewConfig(baseDir string) *Config {
	cfg := Defaults()
	cfg.BaseDir = baseDir
	cfg.LogDir = filepath.Join(baseDir, "log")
	cfg.Storage = StorageConfig{
		Type:       "sqlite",
		SQLitePath: filepath.Join(baseDir, "clipstack.db"),
	}
	return cfg
}

// validate replaces unusable numeric settings with their defaults.
func (c *Config) validate() {
	if c.Capture.PollIntervalMS <= 0 {
		c.Capture.PollIntervalMS = DefaultPollIntervalMS
	}
	if c.Capture.MaxBytes <= 0 {
		c.Capture.MaxBytes = DefaultMaxBytes
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.RatePerMinute < 0 {
		c.Server.RatePerMinute = 0
	}
	if c.Server.Burst <= 0 {
		c.Server.Burst = DefaultBurst
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader. Keys missing from the input
// keep their Defaults values.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	cfg := Defaults()
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.validate()
	return cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes cfg to a new config file at path. It refuses to overwrite.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
