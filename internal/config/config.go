package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/thenoetrevino/tablero/internal/models"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Chat      ChatConfig      `yaml:"chat"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Realtime  RealtimeConfig  `yaml:"realtime"`
	Janitor   JanitorConfig   `yaml:"janitor"`
	Log       LogConfig       `yaml:"log"`
	Theme     Theme           `yaml:"theme"`
}

// ServerConfig configures the HTTP/websocket listener
type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig selects the primary store
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	DSN    string `yaml:"dsn"`
}

// RedisConfig enables shared backends. An empty URL keeps everything in-process.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// ChatConfig configures the chat cipher and message cache
type ChatConfig struct {
	Secret      string        `yaml:"secret"`
	CacheSize   int           `yaml:"cache_size"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
	CacheBoards int           `yaml:"cache_boards"`
	MaxLength   int           `yaml:"max_length"`
}

// RateLimitConfig configures the per-identity fixed-window throttle
type RateLimitConfig struct {
	Window time.Duration  `yaml:"window"`
	Limits map[string]int `yaml:"limits"`
}

// RealtimeConfig configures the board topics
type RealtimeConfig struct {
	ClientBuffer            int  `yaml:"client_buffer"`
	RequireMembershipOnJoin bool `yaml:"require_membership_on_join"`
	Relay                   bool `yaml:"relay"`
}

// JanitorConfig configures periodic sweeps of expired cache entries and rate windows
type JanitorConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// LogConfig configures slog
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
	File   string `yaml:"file"`
}

// Default returns a config with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads config from the user's config directory, then applies
// environment overrides and defaults. A missing file is not an error.
func Load() (*Config, error) {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	cfg := &Config{}

	configPath, err := getConfigPath()
	if err == nil {
		data, readErr := os.ReadFile(configPath)
		switch {
		case readErr == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", configPath, err)
			}
		case !os.IsNotExist(readErr):
			return nil, fmt.Errorf("failed to read config %s: %w", configPath, readErr)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	return cfg, nil
}

// Save saves the config to the user's config directory
func (c *Config) Save() error {
	configPath, err := getConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0o600)
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	if explicit := os.Getenv("TABLERO_CONFIG"); explicit != "" {
		return explicit, nil
	}

	// Try XDG_CONFIG_HOME first
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "tablero", "config.yaml"), nil
	}

	// Fall back to ~/.config
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".config", "tablero", "config.yaml"), nil
}

// applyEnv overrides file values with TABLERO_* environment variables
func (c *Config) applyEnv() {
	c.Server.Addr = getenv("TABLERO_ADDR", c.Server.Addr)
	c.Database.Driver = getenv("TABLERO_DB_DRIVER", c.Database.Driver)
	c.Database.DSN = getenv("TABLERO_DB_DSN", c.Database.DSN)
	c.Redis.URL = getenv("TABLERO_REDIS_URL", c.Redis.URL)
	c.Chat.Secret = getenv("TABLERO_CHAT_SECRET", c.Chat.Secret)
	c.Chat.CacheSize = getenvInt("TABLERO_CHAT_CACHE_SIZE", c.Chat.CacheSize)
	c.Chat.CacheTTL = getenvDuration("TABLERO_CHAT_CACHE_TTL", c.Chat.CacheTTL)
	c.RateLimit.Window = getenvDuration("TABLERO_RATELIMIT_WINDOW", c.RateLimit.Window)
	c.Log.Level = getenv("TABLERO_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getenv("TABLERO_LOG_FORMAT", c.Log.Format)
	c.Log.File = getenv("TABLERO_LOG_FILE", c.Log.File)

	if v := os.Getenv("TABLERO_REALTIME_RELAY"); v != "" {
		c.Realtime.Relay, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("TABLERO_REQUIRE_MEMBERSHIP_ON_JOIN"); v != "" {
		c.Realtime.RequireMembershipOnJoin, _ = strconv.ParseBool(v)
	}
}

// applyDefaults fills in missing configuration with defaults
func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadHeaderTimeout <= 0 {
		c.Server.ReadHeaderTimeout = 10 * time.Second
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}

	c.Database.Driver = strings.ToLower(c.Database.Driver)
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite" {
		if home, err := os.UserHomeDir(); err == nil {
			c.Database.DSN = filepath.Join(home, ".tablero", "tablero.db")
		} else {
			c.Database.DSN = "tablero.db"
		}
	}

	if c.Chat.CacheSize <= 0 {
		c.Chat.CacheSize = models.DefaultMessageCacheSize
	}
	if c.Chat.CacheTTL <= 0 {
		c.Chat.CacheTTL = models.DefaultMessageCacheTTL
	}
	if c.Chat.CacheBoards <= 0 {
		c.Chat.CacheBoards = 1024
	}
	if c.Chat.MaxLength <= 0 {
		c.Chat.MaxLength = models.MaxMessageLength
	}

	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = time.Minute
	}
	if c.RateLimit.Limits == nil {
		c.RateLimit.Limits = map[string]int{}
	}
	if _, ok := c.RateLimit.Limits["chat_send"]; !ok {
		c.RateLimit.Limits["chat_send"] = 30
	}
	if _, ok := c.RateLimit.Limits["topic_join"]; !ok {
		c.RateLimit.Limits["topic_join"] = 20
	}

	if c.Realtime.ClientBuffer <= 0 {
		c.Realtime.ClientBuffer = 64
	}

	if c.Janitor.Interval <= 0 {
		c.Janitor.Interval = 30 * time.Second
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	c.Theme.ApplyDefaults()
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
