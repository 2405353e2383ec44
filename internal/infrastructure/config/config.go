package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	apperrors "github.com/davidleathers/loan-fraud-features/internal/domain/errors"
)

// EnvPrefix prefixes every environment override. Nested keys are separated
// by a double underscore, e.g. LFF_ARTIFACTS__DIR.
const EnvPrefix = "LFF_"

// DefaultConfigPath is read when no explicit path is given. It is optional.
const DefaultConfigPath = "configs/config.yaml"

// Artifact source kinds
const (
	ArtifactSourceDir   = "dir"
	ArtifactSourceRedis = "redis"
)

type Config struct {
	Version     string `koanf:"version"`
	Environment string `koanf:"environment" validate:"required"`
	LogLevel    string `koanf:"log_level" validate:"oneof=debug info warn warning error"`

	Artifacts ArtifactsConfig `koanf:"artifacts"`
	Redis     RedisConfig     `koanf:"redis"`
	GeoIP     GeoIPConfig     `koanf:"geoip"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

type ArtifactsConfig struct {
	Source      string `koanf:"source" validate:"required,oneof=dir redis"`
	Dir         string `koanf:"dir" validate:"required_if=Source dir"`
	RedisPrefix string `koanf:"redis_prefix"`
}

type RedisConfig struct {
	URL          string        `koanf:"url"`
	Password     string        `koanf:"password"`
	DB           int           `koanf:"db" validate:"gte=0"`
	PoolSize     int           `koanf:"pool_size" validate:"gte=0"`
	MinIdleConns int           `koanf:"min_idle_conns" validate:"gte=0"`
	MaxRetries   int           `koanf:"max_retries"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

type GeoIPConfig struct {
	ASNDatabase  string               `koanf:"asn_database"`
	CityDatabase string               `koanf:"city_database"`
	Locale       string               `koanf:"locale" validate:"required"`
	CacheEnabled bool                 `koanf:"cache_enabled"`
	CacheTTL     time.Duration        `koanf:"cache_ttl"`
	Breaker      CircuitBreakerConfig `koanf:"breaker"`
}

type CircuitBreakerConfig struct {
	FailureThreshold int           `koanf:"failure_threshold" validate:"gte=0"`
	SuccessThreshold int           `koanf:"success_threshold" validate:"gte=0"`
	Timeout          time.Duration `koanf:"timeout"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr" validate:"required_if=Enabled true"`
}

// Defaults returns the configuration used before any file or env override.
func Defaults() *Config {
	return &Config{
		Version:     "dev",
		Environment: "development",
		LogLevel:    "info",
		Artifacts: ArtifactsConfig{
			Source:      ArtifactSourceDir,
			Dir:         "data/datos",
			RedisPrefix: "lff:artifacts:",
		},
		Redis: RedisConfig{
			DB:           0,
			PoolSize:     10,
			MinIdleConns: 1,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		GeoIP: GeoIPConfig{
			ASNDatabase:  "data/GeoLite2-ASN.mmdb",
			CityDatabase: "data/GeoLite2-City.mmdb",
			Locale:       "en",
			CacheTTL:     24 * time.Hour,
			Breaker: CircuitBreakerConfig{
				FailureThreshold: 5,
				SuccessThreshold: 3,
				Timeout:          30 * time.Second,
			},
		},
		Metrics: MetricsConfig{
			Addr: ":9102",
		},
	}
}

// Load layers defaults, the YAML file at path (DefaultConfigPath when empty,
// in which case a missing file is fine) and LFF_ environment variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field constraints and the cross-section rules the tags
// cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return apperrors.NewConfigError("invalid configuration").WithCause(err)
	}
	if c.Artifacts.Source == ArtifactSourceRedis && c.Redis.URL == "" {
		return apperrors.NewConfigError("redis.url is required when artifacts.source is redis")
	}
	if c.GeoIP.CacheEnabled && c.Redis.URL == "" {
		return apperrors.NewConfigError("redis.url is required when geoip.cache_enabled is set")
	}
	return nil
}

// envKey maps LFF_GEOIP__CACHE_TTL to geoip.cache_ttl.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}
