// Package config loads the YAML configuration of the fleet service and CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Store      StoreConfig      `yaml:"store"`
	Shifts     ShiftsConfig     `yaml:"shifts"`
	Report     ReportConfig     `yaml:"report"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	RequestIPHeader string        `yaml:"request_ip_header"`
	RateLimitPerSec float64       `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int           `yaml:"rate_limit_burst"`
	CacheTTLSeconds int           `yaml:"cache_ttl_seconds"`
	CacheTTL        time.Duration `yaml:"-"`
	// SessionTTLMinutes is how long an unused login token stays valid.
	SessionTTLMinutes int           `yaml:"session_ttl_minutes"`
	SessionTTL        time.Duration `yaml:"-"`
}

// DatabaseConfig holds the database connection configuration. Driver
// "memory" keeps everything in process and needs no DSN.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogSQL                 bool   `yaml:"log_sql"`
}

// StoreConfig controls the entity store.
type StoreConfig struct {
	SeedFile        string        `yaml:"seed_file"`
	CacheTTLSeconds int           `yaml:"cache_ttl_seconds"`
	CacheTTL        time.Duration `yaml:"-"`
}

// ShiftsConfig controls shift closing.
type ShiftsConfig struct {
	// HourMeterGuard is last_write_wins or compare_and_set.
	HourMeterGuard string `yaml:"hour_meter_guard"`
}

// ReportConfig controls how days and months are cut.
type ReportConfig struct {
	Timezone string         `yaml:"timezone"`
	Location *time.Location `yaml:"-"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	Enabled    bool   `yaml:"enabled"`
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// LogConfig selects the zap level and encoder.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Environment variables that override the file, for secrets.
const (
	EnvDatabaseDSN     = "FLEET_DATABASE_DSN"
	EnvVAPIDPublicKey  = "FLEET_VAPID_PUBLIC_KEY"
	EnvVAPIDPrivateKey = "FLEET_VAPID_PRIVATE_KEY"
	EnvLogLevel        = "FLEET_LOG_LEVEL"
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	if err := cfg.finish(); err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// finish applies environment overrides and defaults, then validates.
func (cfg *Config) finish() error {
	if v := os.Getenv(EnvDatabaseDSN); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv(EnvVAPIDPublicKey); v != "" {
		cfg.Push.PublicKey = v
	}
	if v := os.Getenv(EnvVAPIDPrivateKey); v != "" {
		cfg.Push.PrivateKey = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 20
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}
	cfg.Server.CacheTTL = time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	if cfg.Server.SessionTTLMinutes <= 0 {
		cfg.Server.SessionTTLMinutes = 12 * 60
	}
	cfg.Server.SessionTTL = time.Duration(cfg.Server.SessionTTLMinutes) * time.Minute

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Driver == "sqlite" && cfg.Database.DSN == "" {
		cfg.Database.DSN = "fleet.db"
	}
	if cfg.Database.MaxOpenConns <= 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns <= 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetimeMinutes <= 0 {
		cfg.Database.ConnMaxLifetimeMinutes = 30
	}

	if cfg.Store.CacheTTLSeconds < 0 {
		cfg.Store.CacheTTLSeconds = 0
	}
	cfg.Store.CacheTTL = time.Duration(cfg.Store.CacheTTLSeconds) * time.Second

	if cfg.Shifts.HourMeterGuard == "" {
		cfg.Shifts.HourMeterGuard = "last_write_wins"
	}

	if cfg.Report.Timezone == "" {
		cfg.Report.Timezone = "UTC"
	}
	loc, err := time.LoadLocation(cfg.Report.Timezone)
	if err != nil {
		return fmt.Errorf("invalid report.timezone %q: %w", cfg.Report.Timezone, err)
	}
	cfg.Report.Location = loc

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}
	if cfg.WorkerPool.Size <= 0 {
		cfg.WorkerPool.Size = 1
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}

	return cfg.validate()
}

func (cfg *Config) validate() error {
	var errs []error
	switch cfg.Database.Driver {
	case "sqlite", "memory":
	case "postgres":
		if cfg.Database.DSN == "" {
			errs = append(errs, errors.New("database.dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database.driver %q", cfg.Database.Driver))
	}
	switch cfg.Shifts.HourMeterGuard {
	case "last_write_wins", "compare_and_set":
	default:
		errs = append(errs, fmt.Errorf("unknown shifts.hour_meter_guard %q", cfg.Shifts.HourMeterGuard))
	}
	if cfg.Push.Enabled {
		if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
			errs = append(errs, errors.New("push.enabled requires VAPID keys"))
		}
		if cfg.Database.Driver == "memory" {
			errs = append(errs, errors.New("push.enabled requires a sql database driver"))
		}
	}
	return errors.Join(errs...)
}
