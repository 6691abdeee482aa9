package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "ratiowatch/internal/blob/s3"
	"ratiowatch/internal/cache/redis"
	"ratiowatch/internal/config"
	"ratiowatch/internal/domain"
	"ratiowatch/internal/market"
	"ratiowatch/internal/market/binance"
	"ratiowatch/internal/monitor"
	"ratiowatch/internal/notify"
	"ratiowatch/internal/ratio"
	"ratiowatch/internal/store/postgres"
)

// Dependencies bundles every component the application modes need. It is
// constructed by Wire and torn down by the returned cleanup function. Stores,
// caches, and the archiver are nil when their backend is not enabled.
type Dependencies struct {
	// Market data
	Market     ratio.MarketData
	Calculator *ratio.Calculator

	// Stores
	Snapshots    domain.SnapshotStore
	Alerts       domain.AlertStore
	VolumeRatios domain.VolumeRatioStore

	// Caches
	PriceCache domain.PriceCache
	BookCache  domain.BookCache

	// Blob storage
	Archiver monitor.Archiver

	// Notifications
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that must
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Binance market data ---
	client := binance.NewClient(cfg.Binance.BaseURL)
	deps.Market = client

	// --- PostgreSQL ---
	if cfg.Database.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Database.DSN,
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			Database: cfg.Database.Database,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			SSLMode:  cfg.Database.SSLMode,
			MaxConns: cfg.Database.PoolMaxConns,
			MinConns: cfg.Database.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Database.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.Snapshots = postgres.NewSnapshotStore(pool)
		deps.Alerts = postgres.NewAlertStore(pool)
		deps.VolumeRatios = postgres.NewVolumeRatioStore(pool)
	}

	// --- Redis market data caches ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		ttl := cfg.Monitoring.CacheTTL()
		deps.PriceCache = redis.NewPriceCache(redisClient, ttl)
		deps.BookCache = redis.NewBookCache(redisClient, ttl)
		deps.Market = market.NewCached(client, deps.PriceCache, deps.BookCache, ttl, logger)
	}

	deps.Calculator = ratio.NewCalculator(deps.Market)

	// --- S3 archive ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client))
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Telegram.Token,
			cfg.Telegram.ChatID,
			"",
		))
	}
	if cfg.Discord.WebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Discord.WebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, logger)

	return deps, cleanup, nil
}
