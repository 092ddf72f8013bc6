package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/alanyoungcy/crossarb/internal/blob/s3"
	"github.com/alanyoungcy/crossarb/internal/cache/redis"
	"github.com/alanyoungcy/crossarb/internal/config"
	"github.com/alanyoungcy/crossarb/internal/domain"
	"github.com/alanyoungcy/crossarb/internal/metrics"
	"github.com/alanyoungcy/crossarb/internal/notify"
	"github.com/alanyoungcy/crossarb/internal/ratelimit"
	"github.com/alanyoungcy/crossarb/internal/store/postgres"
)

// Dependencies bundles the infrastructure the modes build on. Optional
// backends are nil when disabled.
type Dependencies struct {
	Metrics *metrics.Registry
	Limits  *ratelimit.Manager

	// Redis
	Lock  domain.LockManager
	Cache domain.SnapshotCache
	Bus   domain.SignalBus

	// Postgres
	Store domain.SnapshotStore

	// S3
	Blob *s3blob.Objects

	Notifier *notify.Notifier
}

// Wire connects every enabled backend and returns the dependencies together
// with a cleanup function that releases them in reverse order.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Metrics: metrics.New(),
		Limits:  ratelimit.NewManager(),
	}

	// --- Redis ---
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		c, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = c.Close() })
		redisClient = c

		deps.Lock = redis.NewLockManager(c)
		deps.Cache = redis.NewSnapshotCache(c, cfg.Redis.SnapshotTTL.Duration)
		deps.Bus = redis.NewSignalBus(c)
	}

	// --- Venue limiters ---
	// With redis the window is shared by every replica; without it each
	// process keeps its own.
	for venue, perMinute := range map[domain.Venue]int{
		domain.VenuePolymarket: cfg.Polymarket.RequestsPerMinute,
		domain.VenueKalshi:     cfg.Kalshi.RequestsPerMinute,
	} {
		if redisClient != nil {
			deps.Limits.Register(venue, redis.NewRateLimiter(redisClient, string(venue), perMinute, ratelimit.DefaultWindow,
				redis.WithRateLimiterLogger(logger)))
		} else {
			deps.Limits.Register(venue, ratelimit.NewSlidingWindow(perMinute, ratelimit.DefaultWindow))
		}
	}

	// --- PostgreSQL ---
	if cfg.Postgres.Enabled {
		pg, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.MaxConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pg.Close)

		if cfg.Postgres.RunMigrations {
			if err := pg.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}
		deps.Store = postgres.NewSnapshotStore(pg)
	}

	// --- S3 ---
	if cfg.S3.Enabled {
		c, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		if err := c.Health(ctx); err != nil {
			logger.Warn("s3 bucket not reachable, snapshot uploads may fail",
				slog.String("bucket", c.Bucket()),
				slog.String("error", err.Error()),
			)
		}
		deps.Blob = s3blob.NewObjects(c)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender("", cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, logger)

	return deps, cleanup, nil
}
