// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	MercadoLibre MercadoLibreConfig `yaml:"mercadolibre"`
	Sync         SyncConfig         `yaml:"sync"`
	Schedule     ScheduleConfig     `yaml:"schedule"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig defines PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	PoolSize int    `yaml:"pool_size"`
}

// DSN returns a PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
}

// RedisConfig defines the session state cache settings. When Enabled is
// false the in-memory cache is used instead; fine for a single instance.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Addr returns the host:port address for the Redis client.
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// MercadoLibreConfig defines MercadoLibre application and endpoint settings.
type MercadoLibreConfig struct {
	ClientID     string          `yaml:"client_id"`
	ClientSecret string          `yaml:"client_secret"`
	RedirectURI  string          `yaml:"redirect_uri"`
	AuthURL      string          `yaml:"auth_url"`
	TokenURL     string          `yaml:"token_url"`
	APIURL       string          `yaml:"api_url"`
	RateLimit    RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig defines MercadoLibre API rate limiting settings.
type RateLimitConfig struct {
	PerSecond  float64 `yaml:"per_second"`
	Burst      int     `yaml:"burst"`
	DailyLimit int64   `yaml:"daily_limit"`
}

// SyncConfig defines sync engine settings.
type SyncConfig struct {
	PageSize       int           `yaml:"page_size"`
	OrderLookback  time.Duration `yaml:"order_lookback"`
	StateTTL       time.Duration `yaml:"state_ttl"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	TokenTimeout   time.Duration `yaml:"token_timeout"`
}

// ScheduleConfig defines cron intervals for background sync.
type ScheduleConfig struct {
	CatalogInterval time.Duration `yaml:"catalog_interval"`
	OrderInterval   time.Duration `yaml:"order_interval"`
	StaggerOffset   time.Duration `yaml:"stagger_offset"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyDatabaseDefaults(&cfg.Database)
	applyRedisDefaults(&cfg.Redis)
	applyMercadoLibreDefaults(&cfg.MercadoLibre)
	applySyncDefaults(&cfg.Sync)
	applyScheduleDefaults(&cfg.Schedule)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyDatabaseDefaults(d *DatabaseConfig) {
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.PoolSize == 0 {
		d.PoolSize = 10
	}
}

func applyRedisDefaults(r *RedisConfig) {
	if r.Host == "" {
		r.Host = "localhost"
	}
	if r.Port == 0 {
		r.Port = 6379
	}
}

func applyMercadoLibreDefaults(m *MercadoLibreConfig) {
	if m.AuthURL == "" {
		m.AuthURL = "https://auth.mercadolibre.com.ar/authorization"
	}
	if m.TokenURL == "" {
		m.TokenURL = "https://api.mercadolibre.com/oauth/token"
	}
	if m.APIURL == "" {
		m.APIURL = "https://api.mercadolibre.com"
	}
	applyRateLimitDefaults(&m.RateLimit)
}

func applyRateLimitDefaults(r *RateLimitConfig) {
	if r.PerSecond == 0 {
		r.PerSecond = 5.0
	}
	if r.Burst == 0 {
		r.Burst = 10
	}
	if r.DailyLimit == 0 {
		r.DailyLimit = 5000
	}
}

func applySyncDefaults(s *SyncConfig) {
	if s.PageSize == 0 {
		s.PageSize = 50
	}
	if s.OrderLookback == 0 {
		s.OrderLookback = 60 * 24 * time.Hour
	}
	if s.StateTTL == 0 {
		s.StateTTL = 15 * time.Minute
	}
	if s.RequestTimeout == 0 {
		s.RequestTimeout = 30 * time.Second
	}
	if s.TokenTimeout == 0 {
		s.TokenTimeout = 10 * time.Second
	}
}

func applyScheduleDefaults(s *ScheduleConfig) {
	if s.CatalogInterval == 0 {
		s.CatalogInterval = 30 * time.Minute
	}
	if s.OrderInterval == 0 {
		s.OrderInterval = 15 * time.Minute
	}
	if s.StaggerOffset == 0 {
		s.StaggerOffset = 5 * time.Second
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Database.Host == "" {
		errs = append(errs, fmt.Errorf("database.host is required"))
	}
	if cfg.Database.Name == "" {
		errs = append(errs, fmt.Errorf("database.name is required"))
	}
	if cfg.Database.User == "" {
		errs = append(errs, fmt.Errorf("database.user is required"))
	}

	if cfg.MercadoLibre.ClientID == "" {
		errs = append(errs, fmt.Errorf("mercadolibre.client_id is required"))
	}
	if cfg.MercadoLibre.ClientSecret == "" {
		errs = append(errs, fmt.Errorf("mercadolibre.client_secret is required"))
	}
	if cfg.MercadoLibre.RedirectURI == "" {
		errs = append(errs, fmt.Errorf("mercadolibre.redirect_uri is required"))
	}

	return errors.Join(errs...)
}
