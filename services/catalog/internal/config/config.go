package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the config file read when neither an explicit path nor CATALOG_CONFIG is given.
const ConfigPath = "config.yaml"

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	defaultMaxPageSize = 1000
)

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port               string   `yaml:"port"`
	LogLevel           string   `yaml:"logLevel"`
	Store              string   `yaml:"store"`
	DatabaseURL        string   `yaml:"databaseURL"`
	SeedFile           string   `yaml:"seedFile"`
	MaxPageSize        int      `yaml:"maxPageSize"`
	RedisAddr          string   `yaml:"redisAddr"`
	RedisPassword      string   `yaml:"redisPassword"`
	RateLimitPerMinute int      `yaml:"rateLimitPerMinute"`
	TrustedProxyCIDRs  []string `yaml:"trustedProxyCidrs"`
	CORSAllowedOrigins []string `yaml:"corsAllowedOrigins"`
}

// Load reads config from path (defaults to $CATALOG_CONFIG, then config.yaml) and applies env overrides.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = os.Getenv("CATALOG_CONFIG")
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
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *FileConfig) error {
	if v := os.Getenv("CATALOG_PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("CATALOG_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CATALOG_STORE"); v != "" {
		cfg.Store = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("CATALOG_SEED_FILE"); v != "" {
		cfg.SeedFile = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("CATALOG_MAX_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: CATALOG_MAX_PAGE_SIZE: %w", err)
		}
		cfg.MaxPageSize = n
	}
	if v := os.Getenv("CATALOG_RATE_LIMIT_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: CATALOG_RATE_LIMIT_PER_MINUTE: %w", err)
		}
		cfg.RateLimitPerMinute = n
	}
	if v := os.Getenv("CATALOG_TRUSTED_PROXY_CIDRS"); v != "" {
		cfg.TrustedProxyCIDRs = splitCSV(v)
	}
	if v := os.Getenv("CATALOG_CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = splitCSV(v)
	}
	return nil
}

func applyDefaults(cfg *FileConfig) {
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	if cfg.Store == "" {
		cfg.Store = StorePostgres
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.MaxPageSize == 0 {
		cfg.MaxPageSize = defaultMaxPageSize
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml or CATALOG_PORT)")
	}
	switch cfg.Store {
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return errors.New("config: databaseURL is required for the postgres store (set in config.yaml or DATABASE_URL)")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("config: store must be %q or %q, got %q", StorePostgres, StoreMemory, cfg.Store)
	}
	if cfg.MaxPageSize < 1 {
		return errors.New("config: maxPageSize must be positive")
	}
	if cfg.RateLimitPerMinute < 0 {
		return errors.New("config: rateLimitPerMinute must not be negative")
	}
	return nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
