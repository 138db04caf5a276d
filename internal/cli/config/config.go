package config

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/conduit-lang/modelmeta/internal/orm/adapter"
	"github.com/conduit-lang/modelmeta/internal/orm/metacache"
)

// EnvPrefix prefixes every environment override, e.g. MODELMETA_SERVER_PORT
const EnvPrefix = "MODELMETA"

// Config represents the modelmeta configuration
type Config struct {
	Models  ModelsConfig            `mapstructure:"models"`
	Sources map[string]SourceConfig `mapstructure:"sources"`
	Cache   CacheConfig             `mapstructure:"cache"`
	Log     LogConfig               `mapstructure:"log"`
	Server  ServerConfig            `mapstructure:"server"`
}

// ModelsConfig locates the annotated model sources
type ModelsConfig struct {
	Path string `mapstructure:"path"`
}

// SourceConfig represents one data source. Viper lowercases map keys, so
// identifiers reach the adapter catalog lowercased and are matched against
// @Source case-insensitively.
type SourceConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// CacheConfig represents the metadata cache configuration
type CacheConfig struct {
	Backend  string        `mapstructure:"backend"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// ServerConfig represents the introspection server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Address returns host:port
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Cache backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Load loads the configuration from path, or from modelmeta.yml or
// modelmeta.yaml in the working directory when path is empty. A missing
// default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("models.path", "models")
	v.SetDefault("cache.backend", BackendMemory)
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.prefix", metacache.DefaultConfig().Prefix)
	v.SetDefault("cache.ttl", metacache.DefaultConfig().DefaultTTL)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("modelmeta")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// AdapterSources converts the configured sources, sorted by identifier
func (c *Config) AdapterSources() []adapter.Source {
	ids := make([]string, 0, len(c.Sources))
	for id := range c.Sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	sources := make([]adapter.Source, 0, len(ids))
	for _, id := range ids {
		s := c.Sources[id]
		sources = append(sources, adapter.Source{
			ID:              id,
			Driver:          s.Driver,
			DSN:             s.DSN,
			MaxOpenConns:    s.MaxOpenConns,
			MaxIdleConns:    s.MaxIdleConns,
			ConnMaxLifetime: s.ConnMaxLifetime,
		})
	}
	return sources
}

// CacheSettings returns the key prefix and TTL shared by both backends
func (c *Config) CacheSettings() metacache.Config {
	return metacache.Config{DefaultTTL: c.Cache.TTL, Prefix: c.Cache.Prefix}
}

// RedisSettings returns the Redis connection settings of the cache
func (c *Config) RedisSettings() metacache.RedisConfig {
	rc := metacache.DefaultRedisConfig()
	rc.Addr = c.Cache.Addr
	rc.Password = c.Cache.Password
	rc.DB = c.Cache.DB
	rc.Config = c.CacheSettings()
	return rc
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	switch cfg.Cache.Backend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("cache.backend must be %q or %q, got: %s", BackendMemory, BackendRedis, cfg.Cache.Backend)
	}
	if cfg.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got: %s", cfg.Cache.TTL)
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got: %d", cfg.Server.Port)
	}

	for _, s := range cfg.AdapterSources() {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("invalid sources entry: %w", err)
		}
	}
	return nil
}
