// Package config defines the top-level configuration for ratiowatch and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by RATIOWATCH_* environment
// variables.
type Config struct {
	Binance    BinanceConfig    `toml:"binance"`
	Telegram   TelegramConfig   `toml:"telegram"`
	Discord    DiscordConfig    `toml:"discord"`
	Database   DatabaseConfig   `toml:"database"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Monitoring MonitoringConfig `toml:"monitoring"`
	Feed       FeedConfig       `toml:"feed"`
	Server     ServerConfig     `toml:"server"`
	Pairs      []PairConfig     `toml:"pairs"`
	LogLevel   string           `toml:"log_level"`
}

// BinanceConfig holds the market data API endpoints.
type BinanceConfig struct {
	BaseURL string `toml:"base_url"`
	WsURL   string `toml:"ws_url"`
}

// TelegramConfig holds the Telegram bot credentials.
type TelegramConfig struct {
	Token  string `toml:"token"`
	ChatID string `toml:"chat_id"`
}

// DiscordConfig holds the Discord webhook target.
type DiscordConfig struct {
	WebhookURL string `toml:"webhook_url"`
}

// DatabaseConfig holds PostgreSQL connection parameters. The stores are
// optional; with Enabled false the monitor keeps history in memory only.
type DatabaseConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
	RetentionDays int    `toml:"retention_days"`
}

// RedisConfig holds Redis connection parameters for the market data caches.
type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	PoolSize int    `toml:"pool_size"`
}

// S3Config holds S3-compatible object storage parameters for the archive.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// MonitoringConfig holds the check loop parameters.
type MonitoringConfig struct {
	CheckIntervalSecs        int       `toml:"check_interval_secs"`
	PeriodicNotificationSecs int       `toml:"periodic_notification_secs"`
	ChangeThresholds         []float64 `toml:"change_thresholds"`
	ChangeWindowSecs         int       `toml:"change_window_secs"`
	CacheTTLSecs             int       `toml:"cache_ttl_secs"`
}

// CheckInterval returns the check interval as a duration.
func (m MonitoringConfig) CheckInterval() time.Duration {
	return time.Duration(m.CheckIntervalSecs) * time.Second
}

// PeriodicEvery returns the digest period as a duration.
func (m MonitoringConfig) PeriodicEvery() time.Duration {
	return time.Duration(m.PeriodicNotificationSecs) * time.Second
}

// ChangeWindow returns the change detection window as a duration.
func (m MonitoringConfig) ChangeWindow() time.Duration {
	return time.Duration(m.ChangeWindowSecs) * time.Second
}

// CacheTTL returns the market data cache freshness bound as a duration.
func (m MonitoringConfig) CacheTTL() time.Duration {
	return time.Duration(m.CacheTTLSecs) * time.Second
}

// FeedConfig enables the live price websocket feed. It requires Redis.
type FeedConfig struct {
	Enabled bool `toml:"enabled"`
}

// ServerConfig holds HTTP API parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// PairConfig is one monitored ratio pair.
type PairConfig struct {
	Name           string  `toml:"name"`
	SymbolA        string  `toml:"symbol_a"`
	SymbolB        string  `toml:"symbol_b"`
	AnalysisVolume float64 `toml:"analysis_volume"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Binance: BinanceConfig{
			BaseURL: "https://api.binance.com",
			WsURL:   "wss://stream.binance.com:9443",
		},
		Database: DatabaseConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "ratiowatch",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
			RetentionDays: 90,
		},
		Redis: RedisConfig{
			Enabled:  false,
			Addr:     "localhost:6379",
			DB:       0,
			PoolSize: 20,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "ratiowatch-archive",
			ForcePathStyle: true,
		},
		Monitoring: MonitoringConfig{
			CheckIntervalSecs:        60,
			PeriodicNotificationSecs: 3600,
			ChangeThresholds:         []float64{5, 10, 15, 20},
			ChangeWindowSecs:         300,
			CacheTTLSecs:             30,
		},
		Server: ServerConfig{
			Enabled: false,
			Port:    8080,
		},
		LogLevel: "info",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Binance.BaseURL == "" {
		errs = append(errs, "binance: base_url must not be empty")
	}

	// Notification: at least one channel must be configured.
	hasTelegram := c.Telegram.Token != "" && c.Telegram.ChatID != ""
	hasDiscord := c.Discord.WebhookURL != ""
	if !hasTelegram && !hasDiscord {
		errs = append(errs, "notify: configure telegram (token and chat_id) or discord (webhook_url)")
	}
	if c.Telegram.Token != "" && c.Telegram.ChatID == "" {
		errs = append(errs, "telegram: chat_id is required when token is set")
	}

	// Pairs
	if len(c.Pairs) == 0 {
		errs = append(errs, "pairs: at least one ratio pair must be configured")
	}
	seen := make(map[string]bool, len(c.Pairs))
	for _, p := range c.Pairs {
		if p.Name == "" {
			errs = append(errs, "pairs: name must not be empty")
			continue
		}
		if seen[p.Name] {
			errs = append(errs, fmt.Sprintf("pairs: duplicate name %q", p.Name))
		}
		seen[p.Name] = true
		if p.SymbolA == "" || p.SymbolB == "" {
			errs = append(errs, fmt.Sprintf("pairs: symbols must not be empty in pair %q", p.Name))
		}
		if p.AnalysisVolume < 0 {
			errs = append(errs, fmt.Sprintf("pairs: analysis_volume must be >= 0 in pair %q", p.Name))
		}
	}

	// Monitoring
	if c.Monitoring.CheckIntervalSecs <= 0 {
		errs = append(errs, "monitoring: check_interval_secs must be > 0")
	}
	if c.Monitoring.PeriodicNotificationSecs <= 0 {
		errs = append(errs, "monitoring: periodic_notification_secs must be > 0")
	}
	if c.Monitoring.ChangeWindowSecs <= 0 {
		errs = append(errs, "monitoring: change_window_secs must be > 0")
	}
	if len(c.Monitoring.ChangeThresholds) == 0 {
		errs = append(errs, "monitoring: at least one change threshold must be configured")
	}
	for _, t := range c.Monitoring.ChangeThresholds {
		if t <= 0 {
			errs = append(errs, fmt.Sprintf("monitoring: change thresholds must be > 0, got %v", t))
		}
	}

	// Database
	if c.Database.Enabled {
		if strings.TrimSpace(c.Database.DSN) == "" {
			if c.Database.Host == "" {
				errs = append(errs, "database: host must not be empty (or set database.dsn)")
			}
			if c.Database.Port <= 0 || c.Database.Port > 65535 {
				errs = append(errs, fmt.Sprintf("database: port must be 1-65535, got %d", c.Database.Port))
			}
			if c.Database.Database == "" {
				errs = append(errs, "database: database must not be empty")
			}
		}
		if c.Database.PoolMaxConns < 1 {
			errs = append(errs, "database: pool_max_conns must be >= 1")
		}
		if c.Database.PoolMinConns < 0 || c.Database.PoolMinConns > c.Database.PoolMaxConns {
			errs = append(errs, "database: pool_min_conns must be between 0 and pool_max_conns")
		}
		if c.Database.RetentionDays < 0 {
			errs = append(errs, "database: retention_days must be >= 0")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if !c.Database.Enabled {
			errs = append(errs, "s3: archive requires database.enabled")
		}
	}

	// Feed
	if c.Feed.Enabled {
		if !c.Redis.Enabled {
			errs = append(errs, "feed: live feed requires redis.enabled")
		}
		if c.Binance.WsURL == "" {
			errs = append(errs, "feed: binance ws_url must not be empty")
		}
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Pair returns the configured pair with the given name.
func (c *Config) Pair(name string) (PairConfig, bool) {
	for _, p := range c.Pairs {
		if p.Name == name {
			return p, true
		}
	}
	return PairConfig{}, false
}
