// config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Channels ChannelsConfig `yaml:"channels"`
	Fetch    FetchConfig    `yaml:"fetch"`
}

// ServerConfig configures the embedded relay server.
type ServerConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	BaseURL string `yaml:"base_url"`
}

// StoreConfig selects the relay's message store backend.
type StoreConfig struct {
	Type      string        `yaml:"type"`
	Retention time.Duration `yaml:"retention"`
	Redis     RedisConfig   `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ChannelsConfig configures the device-local channel vault and the
// defaults stamped onto freshly forged pairings.
type ChannelsConfig struct {
	VaultPath      string `yaml:"vault_path"`
	Seal           bool   `yaml:"seal"`
	DefaultServer  string `yaml:"default_server"`
	WindowSeconds  int64  `yaml:"window_seconds"`
	ExpirationDays int    `yaml:"expiration_days"`
}

// FetchConfig tunes relay polling on the receiving side.
type FetchConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	Since       string        `yaml:"since"`
	TopicLength int           `yaml:"topic_length"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8080,
			BaseURL: "http://localhost:8080",
		},
		Store: StoreConfig{
			Type:      "memory",
			Retention: 12 * time.Hour,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				Password: "",
				DB:       0,
			},
		},
		Channels: ChannelsConfig{
			VaultPath:      defaultVaultPath(),
			Seal:           true,
			DefaultServer:  "https://ntfy.sh",
			WindowSeconds:  21600,
			ExpirationDays: 90,
		},
		Fetch: FetchConfig{
			Timeout:     10 * time.Second,
			Since:       "12h",
			TopicLength: 32,
		},
	}
}

func defaultVaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "driftshare", "channels.vault")
}

func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, err
		}
	}

	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File not found is OK, use defaults
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

func (c *Config) loadFromEnv() {
	// Server
	if v := os.Getenv("HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("BASE_URL"); v != "" {
		c.Server.BaseURL = v
	}

	if v := os.Getenv("STORE_TYPE"); v != "" {
		c.Store.Type = v
	}
	if v := os.Getenv("STORE_RETENTION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Store.Retention = d
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Store.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Store.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Store.Redis.DB = db
		}
	}

	if v := os.Getenv("VAULT_PATH"); v != "" {
		c.Channels.VaultPath = v
	}
	if v := os.Getenv("VAULT_SEAL"); v != "" {
		c.Channels.Seal = v == "true" || v == "1"
	}
	if v := os.Getenv("DEFAULT_SERVER"); v != "" {
		c.Channels.DefaultServer = v
	}
	if v := os.Getenv("WINDOW_SECONDS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Channels.WindowSeconds = n
		}
	}
	if v := os.Getenv("EXPIRATION_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Channels.ExpirationDays = n
		}
	}

	if v := os.Getenv("FETCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Fetch.Timeout = d
		}
	}
	if v := os.Getenv("FETCH_SINCE"); v != "" {
		c.Fetch.Since = v
	}
	if v := os.Getenv("TOPIC_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Fetch.TopicLength = n
		}
	}
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if c.Server.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}

	if c.Store.Type != "memory" && c.Store.Type != "redis" {
		return fmt.Errorf("invalid store type: %s (must be 'memory' or 'redis')", c.Store.Type)
	}

	if c.Store.Type == "redis" && c.Store.Redis.Addr == "" {
		return fmt.Errorf("redis addr is required when store type is 'redis'")
	}

	if c.Store.Retention <= 0 {
		return fmt.Errorf("retention must be positive")
	}

	if c.Channels.VaultPath == "" {
		return fmt.Errorf("vault_path is required")
	}

	if c.Channels.WindowSeconds <= 0 {
		return fmt.Errorf("window_seconds must be positive")
	}

	if c.Channels.ExpirationDays < 1 {
		return fmt.Errorf("expiration_days must be at least 1")
	}

	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}

	if c.Fetch.TopicLength < 1 || c.Fetch.TopicLength > 64 {
		return fmt.Errorf("topic_length must be between 1 and 64")
	}

	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
