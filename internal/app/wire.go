package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mofulabs/mofumarket/internal/cache/redis"
	"github.com/mofulabs/mofumarket/internal/config"
	"github.com/mofulabs/mofumarket/internal/domain"
	"github.com/mofulabs/mofumarket/internal/notify"
	"github.com/mofulabs/mofumarket/internal/store/memory"
	"github.com/mofulabs/mofumarket/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency the application needs
// to operate. It is constructed by Wire and torn down by the returned
// cleanup function.
type Dependencies struct {
	// Stores
	PartyStore      domain.PartyStore
	MemberStore     domain.MemberStore
	EventStore      domain.EventStore
	BetStore        domain.BetStore
	CallStore       domain.CallStore
	PriceHistory    domain.PriceHistoryStore
	SettlementStore domain.SettlementStore

	// Caches and messaging
	PriceCache  domain.PriceCache
	RateLimiter domain.RateLimiter // nil in memory mode
	SignalBus   domain.SignalBus

	// Notifications
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
//
// Mode "server" backs the stores with PostgreSQL and the cache, rate
// limiter, and signal bus with Redis. Mode "memory" runs entirely
// in-process with no external services, which is handy for demos and local
// hacking.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	switch cfg.Mode {
	case "memory":
		wireMemory(deps)

	case "server":
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.PartyStore = postgres.NewPartyStore(pool)
		deps.MemberStore = postgres.NewMemberStore(pool)
		deps.EventStore = postgres.NewEventStore(pool)
		deps.BetStore = postgres.NewBetStore(pool)
		deps.CallStore = postgres.NewCallStore(pool)
		deps.PriceHistory = postgres.NewPriceHistoryStore(pool)
		deps.SettlementStore = postgres.NewSettlementStore(pool)

		redisClient, err := redis.New(ctx, redis.ClientConfig{
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
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.PriceCache = redis.NewPriceCache(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)

	default:
		cleanup()
		return nil, nil, fmt.Errorf("wire: unsupported mode %q", cfg.Mode)
	}

	// Notifications are mode-independent; senders are only attached when
	// credentials are configured.
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}

// wireMemory fills deps with in-process implementations. The settlement
// store needs the concrete event, member, and price history stores so it
// can apply settlements as a unit.
func wireMemory(deps *Dependencies) {
	parties := memory.NewPartyStore()
	members := memory.NewMemberStore()
	events := memory.NewEventStore()
	prices := memory.NewPriceHistoryStore()

	deps.PartyStore = parties
	deps.MemberStore = members
	deps.EventStore = events
	deps.BetStore = memory.NewBetStore(events)
	deps.CallStore = memory.NewCallStore()
	deps.PriceHistory = prices
	deps.SettlementStore = memory.NewSettlementStore(events, members, prices)

	deps.PriceCache = memory.NewPriceCache()
	deps.SignalBus = memory.NewSignalBus()
}
