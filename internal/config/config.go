package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"FlowSentinel/internal/model"
	"FlowSentinel/internal/notifier"
)

// Store drivers.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

const DefaultCron = "0 */10 * * * *"

// DefaultRetries is the delivery retry count when notify.retries is unset.
const DefaultRetries = 3

// Subscriber is one monitored carrier account.
type Subscriber struct {
	ID     string             `yaml:"id"`
	Phone  string             `yaml:"phone"`
	Cookie string             `yaml:"cookie"`
	Cron   string             `yaml:"cron"`
	Notify model.NotifyPolicy `yaml:"notify"`
}

// Config holds all application configuration.
type Config struct {
	Timezone string `yaml:"timezone"`
	LogLevel string `yaml:"log_level"`
	Proxy    string `yaml:"proxy"`
	Carrier  struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"carrier"`
	Store struct {
		Driver         string `yaml:"driver"`
		StateDir       string `yaml:"state_dir"`
		RedisAddr      string `yaml:"redis_addr"`
		RedisPassword  string `yaml:"redis_password"`
		RedisDB        int    `yaml:"redis_db"`
		RedisNamespace string `yaml:"redis_namespace"`
	} `yaml:"store"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Notify struct {
		// Retries is nil when unset; 0 disables retrying.
		Retries *int `yaml:"retries"`
	} `yaml:"notify"`
	Subscribers []Subscriber `yaml:"subscribers"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("CARRIER_BASE_URL"); v != "" {
		cfg.Carrier.BaseURL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Store.RedisAddr = v
	}
	if v := os.Getenv("TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("NOTIFY_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Notify.Retries = &n
		}
	}

	// Defaults
	if cfg.Timezone == "" {
		cfg.Timezone = "Asia/Shanghai"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Carrier.BaseURL == "" {
		cfg.Carrier.BaseURL = "https://m.client.10010.com"
	}
	if cfg.Carrier.Timeout == 0 {
		cfg.Carrier.Timeout = 30 * time.Second
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = StoreSQLite
	}
	cfg.Store.Driver = strings.ToLower(cfg.Store.Driver)
	if cfg.Store.StateDir == "" {
		cfg.Store.StateDir = "data/snapshots"
	}
	if cfg.Store.RedisNamespace == "" {
		cfg.Store.RedisNamespace = "flow"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/flow_sentinel.db"
	}
	if cfg.Notify.Retries == nil {
		retries := DefaultRetries
		cfg.Notify.Retries = &retries
	}
	for i := range cfg.Subscribers {
		if cfg.Subscribers[i].Cron == "" {
			cfg.Subscribers[i].Cron = DefaultCron
		}
	}

	return cfg, nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	switch c.Store.Driver {
	case StoreFile, StoreSQLite:
	case StoreRedis:
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("store.redis_addr is required for the redis driver")
		}
	default:
		return fmt.Errorf("store.driver %q is not one of file, sqlite, redis", c.Store.Driver)
	}
	if c.Notify.Retries != nil && *c.Notify.Retries < 0 {
		return fmt.Errorf("notify.retries must not be negative")
	}
	if len(c.Subscribers) == 0 {
		return fmt.Errorf("at least one subscriber is required")
	}
	seen := map[string]bool{}
	for i, s := range c.Subscribers {
		if s.ID == "" {
			return fmt.Errorf("subscribers[%d].id is required", i)
		}
		if seen[s.ID] {
			return fmt.Errorf("subscribers[%d].id %q is duplicated", i, s.ID)
		}
		seen[s.ID] = true
		if s.Phone == "" {
			return fmt.Errorf("subscribers[%d].phone is required", i)
		}
		if s.Notify.Enabled && !notifier.Supported(s.Notify.ChannelType) {
			return fmt.Errorf("subscribers[%d].notify.channel %q: %w", i, s.Notify.ChannelType, notifier.ErrUnknownChannel)
		}
	}
	return nil
}
