package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies RATIOWATCH_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known RATIOWATCH_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e.
// not empty). This lets operators inject secrets at deploy time without
// touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Binance ──
	setStr(&cfg.Binance.BaseURL, "RATIOWATCH_BINANCE_BASE_URL")
	setStr(&cfg.Binance.WsURL, "RATIOWATCH_BINANCE_WS_URL")

	// ── Telegram / Discord ──
	setStr(&cfg.Telegram.Token, "RATIOWATCH_TELEGRAM_TOKEN")
	setStr(&cfg.Telegram.ChatID, "RATIOWATCH_TELEGRAM_CHAT_ID")
	setStr(&cfg.Discord.WebhookURL, "RATIOWATCH_DISCORD_WEBHOOK_URL")

	// ── Database ──
	setBool(&cfg.Database.Enabled, "RATIOWATCH_DATABASE_ENABLED")
	setStr(&cfg.Database.DSN, "RATIOWATCH_DATABASE_DSN")
	setStr(&cfg.Database.Host, "RATIOWATCH_DATABASE_HOST")
	setInt(&cfg.Database.Port, "RATIOWATCH_DATABASE_PORT")
	setStr(&cfg.Database.Database, "RATIOWATCH_DATABASE_NAME")
	setStr(&cfg.Database.User, "RATIOWATCH_DATABASE_USER")
	setStr(&cfg.Database.Password, "RATIOWATCH_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "RATIOWATCH_DATABASE_SSL_MODE")
	setInt(&cfg.Database.PoolMaxConns, "RATIOWATCH_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "RATIOWATCH_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "RATIOWATCH_DATABASE_RUN_MIGRATIONS")
	setInt(&cfg.Database.RetentionDays, "RATIOWATCH_DATABASE_RETENTION_DAYS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "RATIOWATCH_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "RATIOWATCH_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "RATIOWATCH_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "RATIOWATCH_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "RATIOWATCH_REDIS_POOL_SIZE")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "RATIOWATCH_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "RATIOWATCH_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "RATIOWATCH_S3_REGION")
	setStr(&cfg.S3.Bucket, "RATIOWATCH_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "RATIOWATCH_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "RATIOWATCH_S3_SECRET_KEY")
	setBool(&cfg.S3.ForcePathStyle, "RATIOWATCH_S3_FORCE_PATH_STYLE")

	// ── Monitoring ──
	setInt(&cfg.Monitoring.CheckIntervalSecs, "RATIOWATCH_MONITORING_CHECK_INTERVAL_SECS")
	setInt(&cfg.Monitoring.PeriodicNotificationSecs, "RATIOWATCH_MONITORING_PERIODIC_NOTIFICATION_SECS")
	setInt(&cfg.Monitoring.ChangeWindowSecs, "RATIOWATCH_MONITORING_CHANGE_WINDOW_SECS")
	setInt(&cfg.Monitoring.CacheTTLSecs, "RATIOWATCH_MONITORING_CACHE_TTL_SECS")
	setFloatSlice(&cfg.Monitoring.ChangeThresholds, "RATIOWATCH_MONITORING_CHANGE_THRESHOLDS")

	// ── Feed / Server ──
	setBool(&cfg.Feed.Enabled, "RATIOWATCH_FEED_ENABLED")
	setBool(&cfg.Server.Enabled, "RATIOWATCH_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "RATIOWATCH_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "RATIOWATCH_SERVER_CORS_ORIGINS")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "RATIOWATCH_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}

func setFloatSlice(dst *[]float64, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]float64, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			f, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return
			}
			cleaned = append(cleaned, f)
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
