// Package config loads service configuration from config.toml and SP_*
// environment variables with viper.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Lock backends for the rebuild lease
const (
	LockBackendMemory = "memory"
	LockBackendRedis  = "redis"
)

const envProduction = "production"

// Config is the full service configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Snapshot  SnapshotConfig  `mapstructure:"snapshot"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`
}

// IsProduction reports whether the production checks apply
func (a AppConfig) IsProduction() bool {
	return a.Env == envProduction
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	// AutoMigrate applies the embedded migrations when the server starts.
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// DSN returns a postgres:// URL with user and password escaped
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

type HTTPConfig struct {
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes    int           `mapstructure:"max_header_bytes"`
	MaxBodySize       int64         `mapstructure:"max_body_size"`
	RateLimitEnabled  bool          `mapstructure:"rate_limit_enabled"`
	RateLimitRequests int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow   time.Duration `mapstructure:"rate_limit_window"`
	// An empty origin list allows no cross-origin requests.
	CORSAllowOrigins []string `mapstructure:"cors_allow_origins"`
	CORSAllowMethods []string `mapstructure:"cors_allow_methods"`
	CORSAllowHeaders []string `mapstructure:"cors_allow_headers"`
	TrustedProxies   []string `mapstructure:"trusted_proxies"`
}

// SchedulerConfig drives the daily rebuild of every active organization.
type SchedulerConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	DailyCronSchedule string        `mapstructure:"daily_cron_schedule"`
	MaxConcurrentJobs int           `mapstructure:"max_concurrent_jobs"`
	JobTimeout        time.Duration `mapstructure:"job_timeout"`
	RetryAttempts     int           `mapstructure:"retry_attempts"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"`
}

type SnapshotConfig struct {
	DefaultWindowDays int           `mapstructure:"default_window_days"`
	PageSize          int           `mapstructure:"page_size"`         // raw collection page
	ItemBatchSize     int           `mapstructure:"item_batch_size"`   // order ids per order item query
	InsertBatchSize   int           `mapstructure:"insert_batch_size"` // rows per staging insert
	LeaseTTL          time.Duration `mapstructure:"lease_ttl"`
	LockBackend       string        `mapstructure:"lock_backend"`
}

type TelemetryConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	CollectorEndpoint string  `mapstructure:"collector_endpoint"`
	SamplingRatio     float64 `mapstructure:"sampling_ratio"`
	ServiceName       string  `mapstructure:"service_name"`
	Insecure          bool    `mapstructure:"insecure"`
	// ExportLogs also ships zap entries to the collector.
	ExportLogs bool `mapstructure:"export_logs"`

	DBTraceEnabled    bool          `mapstructure:"db_trace_enabled"`
	DBLogFullSQL      bool          `mapstructure:"db_log_full_sql"` // never in production
	DBSlowQueryThresh time.Duration `mapstructure:"db_slow_query_threshold"`
}

// defaults lists every key. Keys must be known to viper for SP_* variables
// to reach Unmarshal, so keys without a useful default are listed empty.
var defaults = map[string]any{
	"app.name": "storepulse-backend",
	"app.env":  "development",
	"app.port": "8080",

	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "",
	"database.dbname":             "storepulse",
	"database.sslmode":            "disable",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  time.Hour,
	"database.conn_max_idle_time": 30 * time.Minute,
	"database.auto_migrate":       false,

	"redis.host":     "localhost",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"http.read_timeout":        15 * time.Second,
	"http.write_timeout":       15 * time.Second,
	"http.idle_timeout":        60 * time.Second,
	"http.max_header_bytes":    1 << 20,
	"http.max_body_size":       1 << 20,
	"http.rate_limit_enabled":  false,
	"http.rate_limit_requests": 100,
	"http.rate_limit_window":   time.Minute,
	"http.cors_allow_origins":  []string{},
	"http.cors_allow_methods":  []string{"GET", "POST", "OPTIONS"},
	"http.cors_allow_headers":  []string{"Content-Type", "Authorization", "X-Request-ID"},
	"http.trusted_proxies":     []string{},

	"scheduler.enabled":             false,
	"scheduler.daily_cron_schedule": "0 3 * * *",
	"scheduler.max_concurrent_jobs": 3,
	"scheduler.job_timeout":         30 * time.Minute,
	"scheduler.retry_attempts":      3,
	"scheduler.retry_delay":         5 * time.Minute,

	"snapshot.default_window_days": 30,
	"snapshot.page_size":           500,
	"snapshot.item_batch_size":     500,
	"snapshot.insert_batch_size":   500,
	"snapshot.lease_ttl":           30 * time.Minute,
	"snapshot.lock_backend":        LockBackendMemory,

	"telemetry.enabled":                 false,
	"telemetry.collector_endpoint":      "localhost:4317",
	"telemetry.sampling_ratio":          1.0,
	"telemetry.service_name":            "storepulse-backend",
	"telemetry.insecure":                false,
	"telemetry.export_logs":             false,
	"telemetry.db_trace_enabled":        false,
	"telemetry.db_log_full_sql":         false,
	"telemetry.db_slow_query_threshold": 200 * time.Millisecond,
}

// Load reads ./config.toml or /app/config.toml when present. SP_ variables
// override the file (SP_DATABASE_PASSWORD sets database.password) and
// built-in defaults fill the rest.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return loadFrom(v)
}

func loadFrom(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix("SP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Database.MaxOpenConns <= 0 {
		fail("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		fail("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		fail("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Snapshot.DefaultWindowDays < 1 {
		fail("snapshot.default_window_days must be at least 1")
	}
	if c.Snapshot.PageSize < 1 || c.Snapshot.ItemBatchSize < 1 || c.Snapshot.InsertBatchSize < 1 {
		fail("snapshot page and batch sizes must be positive")
	}
	if c.Snapshot.LeaseTTL < time.Second {
		fail("snapshot.lease_ttl must be at least 1s, got %s", c.Snapshot.LeaseTTL)
	}
	// A rebuild is cut off when its lease runs out, so a job must not be allowed longer.
	if c.Scheduler.JobTimeout > c.Snapshot.LeaseTTL {
		fail("snapshot.lease_ttl (%s) cannot be shorter than scheduler.job_timeout (%s)",
			c.Snapshot.LeaseTTL, c.Scheduler.JobTimeout)
	}
	if c.Snapshot.LockBackend != LockBackendMemory && c.Snapshot.LockBackend != LockBackendRedis {
		fail("snapshot.lock_backend must be %q or %q, got %q",
			LockBackendMemory, LockBackendRedis, c.Snapshot.LockBackend)
	}
	if c.Scheduler.MaxConcurrentJobs < 1 {
		fail("scheduler.max_concurrent_jobs must be at least 1")
	}
	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		fail("telemetry.sampling_ratio must be between 0.0 and 1.0, got %g", c.Telemetry.SamplingRatio)
	}

	if c.App.IsProduction() {
		if c.Database.Password == "" {
			fail("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			fail("database.sslmode cannot be 'disable' in production")
		}
		// Replicas only share the lease through Redis.
		if c.Snapshot.LockBackend != LockBackendRedis {
			fail("snapshot.lock_backend must be %q in production", LockBackendRedis)
		}
		if slices.Contains(c.HTTP.CORSAllowOrigins, "*") {
			fail("http.cors_allow_origins cannot contain '*' in production")
		}
		if c.Telemetry.DBLogFullSQL {
			fail("telemetry.db_log_full_sql must be false in production")
		}
	}

	return errors.Join(errs...)
}
