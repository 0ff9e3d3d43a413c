package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
	"github.com/rubiojr/reposearch/pkg/core"
)

//go:embed config.toml.sample
var configTemplate string

// Cache drivers.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

type Config struct {
	StorageDir string        `toml:"storage_dir" env:"REPOSEARCH_STORAGE_DIR"`
	Catalog    CatalogConfig `toml:"catalog"`
	Cache      CacheConfig   `toml:"cache"`
	Server     ServerConfig  `toml:"server"`
}

type CatalogConfig struct {
	Host              string                  `toml:"host" env:"REPOSEARCH_CATALOG_HOST"`
	Token             string                  `toml:"token,omitempty" env:"REPOSEARCH_CATALOG_TOKEN"`
	Timeout           Duration                `toml:"timeout"`
	RequestsPerSecond float64                 `toml:"requests_per_second"`
	Burst             int                     `toml:"burst"`
	MaxRetries        int                     `toml:"max_retries"`
	ServicePoints     map[string]ServicePoint `toml:"service_points"`
}

// ServicePoint describes one upstream endpoint. Arguments are static query
// parameters sent with every call.
type ServicePoint struct {
	Endpoint  string            `toml:"endpoint"`
	Arguments map[string]string `toml:"arguments,omitempty"`
}

type CacheConfig struct {
	Driver        string `toml:"driver" env:"REPOSEARCH_CACHE_DRIVER"`
	Path          string `toml:"path,omitempty"`
	RedisAddr     string `toml:"redis_addr,omitempty" env:"REPOSEARCH_REDIS_ADDR"`
	RedisPassword string `toml:"redis_password,omitempty" env:"REPOSEARCH_REDIS_PASSWORD"`
	RedisDB       int    `toml:"redis_db,omitempty"`
	RedisPrefix   string `toml:"redis_prefix,omitempty"`
}

type ServerConfig struct {
	Listen string `toml:"listen" env:"REPOSEARCH_LISTEN"`
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func GetDefaultConfig() (*Config, error) {
	storageDir, err := GetDefaultStorageDir()
	if err != nil {
		return nil, fmt.Errorf("getting default storage directory: %w", err)
	}
	cfg := &Config{StorageDir: storageDir}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadConfig reads the TOML file at configPath, falling back to defaults
// when it does not exist, then applies environment overrides.
func LoadConfig(configPath string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshaling config: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.StorageDir == "" {
		storageDir, err := GetDefaultStorageDir()
		if err != nil {
			return nil, fmt.Errorf("getting default storage directory: %w", err)
		}
		cfg.StorageDir = storageDir
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Catalog.Timeout.Duration == 0 {
		c.Catalog.Timeout = Duration{30 * time.Second}
	}
	if c.Catalog.RequestsPerSecond <= 0 {
		c.Catalog.RequestsPerSecond = 10
	}
	if c.Catalog.Burst <= 0 {
		c.Catalog.Burst = 5
	}
	if c.Catalog.MaxRetries < 0 {
		c.Catalog.MaxRetries = 0
	}
	if c.Catalog.ServicePoints == nil {
		c.Catalog.ServicePoints = make(map[string]ServicePoint)
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = DriverSQLite
	}
	if c.Cache.Path == "" && c.StorageDir != "" {
		c.Cache.Path = filepath.Join(c.StorageDir, "cache.db")
	}
	if c.Cache.RedisAddr == "" {
		c.Cache.RedisAddr = "localhost:6379"
	}
	if c.Cache.RedisPrefix == "" {
		c.Cache.RedisPrefix = "reposearch:"
	}
	if c.Server.Listen == "" {
		c.Server.Listen = "127.0.0.1:8080"
	}
}

// Validate checks everything a search needs before any network call is made.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Catalog.Host) == "" {
		return &core.ConfigurationError{Setting: "catalog host", Reason: "not set"}
	}
	for _, kind := range core.Catalogs {
		if _, err := c.ServicePoint(kind.ServicePoint()); err != nil {
			return err
		}
	}
	switch c.Cache.Driver {
	case DriverSQLite, DriverMemory, DriverRedis:
	default:
		return &core.ConfigurationError{Setting: "cache driver", Reason: fmt.Sprintf("%q is not supported", c.Cache.Driver)}
	}
	return nil
}

// ServicePoint returns the named endpoint configuration.
func (c *Config) ServicePoint(name string) (ServicePoint, error) {
	sp, exists := c.Catalog.ServicePoints[name]
	if !exists || strings.TrimSpace(sp.Endpoint) == "" {
		return ServicePoint{}, &core.ConfigurationError{Setting: "service point " + name, Reason: "not found"}
	}
	return sp, nil
}

func (c *Config) SaveConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

func (c *Config) SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	template, err := c.generateConfigTemplate()
	if err != nil {
		return fmt.Errorf("generating config template: %w", err)
	}
	return os.WriteFile(configPath, []byte(template), 0644)
}

func (c *Config) generateConfigTemplate() (string, error) {
	storageDir := c.StorageDir
	if storageDir == "" {
		var err error
		storageDir, err = GetDefaultStorageDir()
		if err != nil {
			return "", fmt.Errorf("getting default storage directory: %w", err)
		}
	}

	// Replace the placeholder storage_dir with the actual path
	return strings.Replace(configTemplate, "/home/user/.local/share/reposearch", storageDir, 1), nil
}

// GetDefaultStorageDir returns the default directory for the page cache.
func GetDefaultStorageDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	dir := filepath.Join(dataDir, "reposearch")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating storage directory %s: %w", dir, err)
	}

	return dir, nil
}

// GetConfigDir returns the configuration directory.
func GetConfigDir() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	dir := filepath.Join(configDir, "reposearch")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	return dir, nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
