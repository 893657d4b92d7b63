package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the config file read when neither an explicit path nor STOREFRONT_CONFIG is given.
const ConfigPath = "config.yaml"

const (
	SessionStoreRedis  = "redis"
	SessionStoreMemory = "memory"

	defaultSessionTTL = "30m"
)

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port              string `yaml:"port"`
	LogLevel          string `yaml:"logLevel"`
	CatalogServiceURL string `yaml:"catalogServiceURL"`
	SessionStore      string `yaml:"sessionStore"`
	RedisAddr         string `yaml:"redisAddr"`
	RedisPassword     string `yaml:"redisPassword"`
	SessionSecret     string `yaml:"sessionSecret"`
	SessionTTL        string `yaml:"sessionTTL"`
	CookieSecure      bool   `yaml:"cookieSecure"`
}

// Load reads config from path (defaults to $STOREFRONT_CONFIG, then config.yaml) and applies env overrides.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = os.Getenv("STOREFRONT_CONFIG")
	}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if v := os.Getenv("STOREFRONT_PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("STOREFRONT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("STOREFRONT_CATALOG_SERVICE_URL"); v != "" {
		cfg.CatalogServiceURL = v
	}
	if v := os.Getenv("STOREFRONT_SESSION_STORE"); v != "" {
		cfg.SessionStore = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("STOREFRONT_SESSION_SECRET"); v != "" {
		cfg.SessionSecret = v
	}
	if v := os.Getenv("STOREFRONT_SESSION_TTL"); v != "" {
		cfg.SessionTTL = strings.TrimSpace(v)
	}
	if v := os.Getenv("STOREFRONT_COOKIE_SECURE"); v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return cfg, fmt.Errorf("config: STOREFRONT_COOKIE_SECURE: %w", err)
		}
		cfg.CookieSecure = b
	}

	cfg.SessionStore = strings.ToLower(strings.TrimSpace(cfg.SessionStore))
	if cfg.SessionStore == "" {
		cfg.SessionStore = SessionStoreRedis
	}
	if cfg.SessionTTL == "" {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ParseSessionTTL parses a Go duration such as "30m".
func ParseSessionTTL(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = defaultSessionTTL
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("config: sessionTTL: %w", err)
	}
	if d <= 0 {
		return 0, errors.New("config: sessionTTL must be positive")
	}
	return d, nil
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml or STOREFRONT_PORT)")
	}
	if cfg.CatalogServiceURL == "" {
		return errors.New("config: catalogServiceURL is required (set in config.yaml or STOREFRONT_CATALOG_SERVICE_URL)")
	}
	switch cfg.SessionStore {
	case SessionStoreRedis:
		if cfg.RedisAddr == "" {
			return errors.New("config: redisAddr is required for the redis session store (set in config.yaml or REDIS_ADDR)")
		}
	case SessionStoreMemory:
	default:
		return fmt.Errorf("config: sessionStore must be %q or %q, got %q", SessionStoreRedis, SessionStoreMemory, cfg.SessionStore)
	}
	if len(cfg.SessionSecret) < 32 {
		return errors.New("config: sessionSecret must be at least 32 bytes (set in config.yaml or STOREFRONT_SESSION_SECRET)")
	}
	if _, err := ParseSessionTTL(cfg.SessionTTL); err != nil {
		return err
	}
	return nil
}
