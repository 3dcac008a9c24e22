package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Downloads DownloadsConfig `toml:"downloads"`
	Logging   LoggingConfig   `toml:"logging"`
}

// ServerConfig identifies the Ampache server to talk to.
type ServerConfig struct {
	URL      string `toml:"url"`
	Username string `toml:"username"`
	APIToken string `toml:"api_token"`
}

// DatabaseConfig contains local store settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// DownloadsConfig controls the offline download queue.
type DownloadsConfig struct {
	Dir            string  `toml:"dir"`
	RateLimit      float64 `toml:"rate_limit"`       // requests per second
	BackoffSeconds int     `toml:"backoff_seconds"`  // linear backoff interval
	MaxAttempts    int     `toml:"max_attempts"`
	MinFreeBytes   int64   `toml:"min_free_bytes"`   // below this, storage counts as critically low
}

// BackoffDuration returns the linear backoff unit as a [time.Duration].
func (d DownloadsConfig) BackoffDuration() time.Duration {
	return time.Duration(d.BackoffSeconds) * time.Second
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyEnv()
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyEnv()
	return &config
}

// applyEnv overlays environment variables on top of file values, so scripted
// use can avoid writing secrets to disk. A .env file, if present, is loaded
// by the entry point before config resolution.
func (c *Config) applyEnv() {
	if v := os.Getenv("AMPWAVE_SERVER_URL"); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv("AMPWAVE_USERNAME"); v != "" {
		c.Server.Username = v
	}
	if v := os.Getenv("AMPWAVE_API_TOKEN"); v != "" {
		c.Server.APIToken = v
	}
	if v := os.Getenv("AMPWAVE_DB_PATH"); v != "" {
		c.Database.Path = v
	}
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
