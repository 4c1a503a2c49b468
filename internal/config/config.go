package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Telegram TelegramConfig `yaml:"telegram" envconfig:"TELEGRAM"`
	Database DatabaseConfig `yaml:"database" envconfig:"DATABASE"`
	Dispatch DispatchConfig `yaml:"dispatch" envconfig:"DISPATCH"`
	Admin    AdminConfig    `yaml:"admin" envconfig:"ADMIN"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
}

// ServerConfig contains HTTP server configuration for the dashboard
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// TelegramConfig contains Telegram bot configuration. An empty token
// disables the Telegram edge entirely; the pipeline and dashboard still
// run so the system degrades instead of crashing without credentials.
type TelegramConfig struct {
	BotToken    string        `yaml:"bot_token" envconfig:"BOT_TOKEN"`
	PollTimeout time.Duration `yaml:"poll_timeout" envconfig:"POLL_TIMEOUT" default:"30s"`
}

// DatabaseConfig contains persistence configuration. An empty DSN
// selects the in-memory store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn" envconfig:"DSN"`
}

// DispatchConfig controls notification pacing
type DispatchConfig struct {
	MessagesPerSecond float64 `yaml:"messages_per_second" envconfig:"MESSAGES_PER_SECOND" default:"1"`
	Burst             int     `yaml:"burst" envconfig:"BURST" default:"1"`
}

// AdminConfig contains the dashboard admin gate configuration.
// PasswordHash is a bcrypt hash of the shared admin password.
type AdminConfig struct {
	PasswordHash string `yaml:"password_hash" envconfig:"PASSWORD_HASH"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DownloadDir string `yaml:"download_dir" envconfig:"DOWNLOAD_DIR" default:"downloads"`
	ChartDir    string `yaml:"chart_dir" envconfig:"CHART_DIR" default:"charts"`
	LogsDir     string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// Load loads configuration from environment variables and config file.
// Environment variables take precedence over the file.
func Load() (*Config, error) {
	cfg := Default()

	if configFile := findConfigFile(); configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process("GRADEPULSE", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	return cfg, nil
}

// loadFromFile merges configuration from a YAML file into cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// EnsureDirectories creates the download, chart and logs directories
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DownloadDir, c.Paths.ChartDir, c.Paths.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Dispatch.MessagesPerSecond <= 0 {
		return fmt.Errorf("dispatch rate must be positive")
	}

	if c.Dispatch.Burst <= 0 {
		return fmt.Errorf("dispatch burst must be positive")
	}

	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	if c.Logging.Output != "both" && c.Logging.Output != "file" && c.Logging.Output != "stdout" {
		c.Logging.Output = "both"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = filepath.Join(c.Paths.LogsDir, "app.log")
	}

	return nil
}

// findConfigFile returns the path to the config file, if any
func findConfigFile() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // no config file, env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/app.log",
		},
		Telegram: TelegramConfig{
			PollTimeout: 30 * time.Second,
		},
		Dispatch: DispatchConfig{
			MessagesPerSecond: 1,
			Burst:             1,
		},
		Paths: PathsConfig{
			DownloadDir: "downloads",
			ChartDir:    "charts",
			LogsDir:     "logs",
		},
	}
}
