package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Engine    EngineConfig    `yaml:"engine"`
	Log       LogConfig       `yaml:"log"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
}

type ServerConfig struct {
	Host           string   `yaml:"host" env:"STORYTIME_SERVER_HOST"`
	Port           int      `yaml:"port" env:"STORYTIME_SERVER_PORT"`
	AuthToken      string   `yaml:"auth_token" env:"STORYTIME_AUTH_TOKEN"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"STORYTIME_ALLOWED_ORIGINS" envSeparator:","`
}

type StorageConfig struct {
	Driver     string        `yaml:"driver" env:"STORYTIME_STORAGE_DRIVER"`
	Dir        string        `yaml:"dir" env:"STORYTIME_STORAGE_DIR"`
	SQLitePath string        `yaml:"sqlite_path" env:"STORYTIME_SQLITE_PATH"`
	Timeout    time.Duration `yaml:"timeout" env:"STORYTIME_STORAGE_TIMEOUT"`
}

type EngineConfig struct {
	// Timezone is an IANA name; calendar days for streaks are counted in it.
	// Empty means the host's local zone.
	Timezone string `yaml:"timezone" env:"STORYTIME_TIMEZONE"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"STORYTIME_LOG_LEVEL"`
	Format string `yaml:"format" env:"STORYTIME_LOG_FORMAT"`
}

type BroadcastConfig struct {
	SnapshotInterval time.Duration `yaml:"snapshot_interval" env:"STORYTIME_SNAPSHOT_INTERVAL"`
	// MaxClients caps concurrent websocket connections. Zero means no cap.
	MaxClients int `yaml:"max_clients" env:"STORYTIME_MAX_CLIENTS"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8420,
		},
		Storage: StorageConfig{
			Driver:  DriverFile,
			Timeout: 5 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
		Broadcast: BroadcastConfig{
			SnapshotInterval: 30 * time.Second,
			MaxClients:       16,
		},
	}
}

// Default returns the built-in configuration with environment overrides
// applied.
func Default() (*Config, error) {
	cfg := defaultConfig()
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A .env file in the working directory is loaded
// first if present.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file (or an empty path)
// yields the defaults instead of an error.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default()
	}
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default()
	}
	return cfg, err
}

func applyEnv(cfg *Config) error {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("environment overrides: %w", err)
	}
	return cfg.Validate()
}

// Validate checks values that would otherwise fail later at startup.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Storage.Driver {
	case DriverFile, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("storage.driver %q: want file, sqlite or memory", c.Storage.Driver)
	}
	if c.Storage.Timeout < 0 {
		return fmt.Errorf("storage.timeout must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Addr is the host:port the API listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// Location resolves Engine.Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Engine.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Engine.Timezone)
	if err != nil {
		return nil, fmt.Errorf("engine.timezone: %w", err)
	}
	return loc, nil
}
