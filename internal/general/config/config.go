package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment overrides, e.g. GD_DATABASE__HOST -> database.host.
const EnvPrefix = "GD_"

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	Service struct {
		Name                   string `json:"name"`
		HTTPPort               int    `json:"http_port"`
		MaxConcurrent          int    `json:"max_concurrent"`
		ShutdownTimeoutSeconds int    `json:"shutdown_timeout_seconds"`
	} `json:"service"`
	Storage struct {
		Backend string `json:"backend"` // memory | postgres
	} `json:"storage"`
	Database struct {
		Host     string `json:"host"`
		Port     int    `json:"port"`
		User     string `json:"user"`
		Password string `json:"password"`
		Name     string `json:"name"`
	} `json:"database"`
	RabbitMQ struct {
		Enabled  bool   `json:"enabled"`
		Host     string `json:"host"`
		Port     int    `json:"port"`
		User     string `json:"user"`
		Password string `json:"password"`
	} `json:"rabbitmq"`
	WebSocket struct {
		Enabled bool `json:"enabled"`
	} `json:"websocket"`
	Dispatch struct {
		AvgSpeedKMH      float64 `json:"avg_speed_kmh"`
		NearestCacheSize int     `json:"nearest_cache_size"`
	} `json:"dispatch"`
	Seed struct {
		Path string `json:"path"`
		Demo bool   `json:"demo"`
	} `json:"seed"`
	Metrics struct {
		Enabled bool   `json:"enabled"`
		Path    string `json:"path"`
	} `json:"metrics"`
	Auth struct {
		Enabled         bool   `json:"enabled"`
		Secret          string `json:"secret"`
		TokenTTLMinutes int    `json:"token_ttl_minutes"`
	} `json:"auth"`
}

// Load reads an optional .env file, then the config file at path (YAML or JSON,
// skipped when path is empty), then GD_* environment overrides. Defaults are
// applied last and the result is validated.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	k := koanf.New(".")
	if path != "" {
		var parser koanf.Parser
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// applyDefaults sets safe defaults for some fields.
func applyDefaults(cfg *Config) {
	// Service
	if cfg.Service.Name == "" {
		cfg.Service.Name = "dispatch-service"
	}
	if cfg.Service.HTTPPort == 0 {
		cfg.Service.HTTPPort = 3000
	}
	if cfg.Service.MaxConcurrent == 0 {
		cfg.Service.MaxConcurrent = 64
	}
	if cfg.Service.ShutdownTimeoutSeconds == 0 {
		cfg.Service.ShutdownTimeoutSeconds = 10
	}

	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = StorageMemory
	}

	// Database
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}

	// RabbitMQ
	if cfg.RabbitMQ.Host == "" {
		cfg.RabbitMQ.Host = "localhost"
	}
	if cfg.RabbitMQ.Port == 0 {
		cfg.RabbitMQ.Port = 5672
	}

	// Dispatch
	if cfg.Dispatch.AvgSpeedKMH == 0 {
		cfg.Dispatch.AvgSpeedKMH = 40
	}
	if cfg.Dispatch.NearestCacheSize == 0 {
		cfg.Dispatch.NearestCacheSize = 1024
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.Auth.TokenTTLMinutes == 0 {
		cfg.Auth.TokenTTLMinutes = 120
	}
}

// validate checks required fields and basic ranges.
func (c *Config) validate() error {
	var problems []string

	if c.Service.HTTPPort <= 0 || c.Service.HTTPPort > 65535 {
		problems = append(problems, "service.http_port must be in 1..65535")
	}
	if c.Service.MaxConcurrent < 0 {
		problems = append(problems, "service.max_concurrent cannot be negative")
	}

	switch c.Storage.Backend {
	case StorageMemory:
	case StoragePostgres:
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			problems = append(problems, "database.port must be in 1..65535")
		}
		if c.Database.User == "" {
			problems = append(problems, "database.user is required")
		}
		if c.Database.Password == "" {
			problems = append(problems, "database.password is required")
		}
		if c.Database.Name == "" {
			problems = append(problems, "database.name is required")
		}
	default:
		problems = append(problems, "storage.backend must be memory or postgres")
	}

	if c.RabbitMQ.Enabled {
		if c.RabbitMQ.Port <= 0 || c.RabbitMQ.Port > 65535 {
			problems = append(problems, "rabbitmq.port must be in 1..65535")
		}
		if c.RabbitMQ.User == "" {
			problems = append(problems, "rabbitmq.user is required")
		}
		if c.RabbitMQ.Password == "" {
			problems = append(problems, "rabbitmq.password is required")
		}
	}

	if c.Dispatch.AvgSpeedKMH <= 0 {
		problems = append(problems, "dispatch.avg_speed_kmh must be positive")
	}
	if c.Dispatch.NearestCacheSize < 0 {
		problems = append(problems, "dispatch.nearest_cache_size cannot be negative")
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		problems = append(problems, "metrics.path must start with /")
	}
	if c.Auth.Enabled && strings.TrimSpace(c.Auth.Secret) == "" {
		problems = append(problems, "auth.secret is required when auth is enabled")
	}
	if c.Auth.TokenTTLMinutes < 0 {
		problems = append(problems, "auth.token_ttl_minutes cannot be negative")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
