package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/invoicekit/pkg/cache"
	"github.com/dmitrymomot/invoicekit/pkg/entitlement"
	"github.com/dmitrymomot/invoicekit/pkg/entitlement/pgstore"
	"github.com/dmitrymomot/invoicekit/pkg/entitlement/prommetrics"
	"github.com/dmitrymomot/invoicekit/pkg/entitlement/redisstore"
	"github.com/dmitrymomot/invoicekit/pkg/httpserver"
	"github.com/dmitrymomot/invoicekit/pkg/pg"
	"github.com/dmitrymomot/invoicekit/pkg/redis"
	"github.com/dmitrymomot/invoicekit/svc/invoice"
)

// backend holds the storage chosen by ENTITLEMENT_STORE.
type backend struct {
	store      entitlement.Store
	invoices   invoice.Repository
	transactor invoice.Transactor
	checks     map[string]httpserver.Check
	close      func()
}

func openBackend(ctx context.Context, cfg appConfig, log *slog.Logger) (*backend, error) {
	b := &backend{
		checks: map[string]httpserver.Check{},
		close:  func() {},
	}

	switch cfg.Entitlement.Store {
	case entitlement.StorePostgres:
		pool, err := pg.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		if err := migrate(ctx, pool, cfg.Postgres, log); err != nil {
			pool.Close()
			return nil, err
		}
		b.store = pgstore.New(pool)
		b.invoices = invoice.NewPostgresRepository(pool)
		b.transactor = pgstore.NewTransactor(pool)
		b.checks["postgres"] = pg.Healthcheck(pool)
		b.close = pool.Close

	case entitlement.StoreRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		b.store = redisstore.New(client, redisstore.WithKeyPrefix(cfg.Entitlement.RedisKeyPrefix))
		b.invoices = invoice.NewMemoryRepository()
		b.checks["redis"] = redis.Healthcheck(client)
		b.close = func() {
			if err := client.Close(); err != nil {
				log.Error("failed to close redis client", slog.Any("error", err))
			}
		}

	default:
		b.store = entitlement.NewMemoryStore()
		b.invoices = invoice.NewMemoryRepository()
	}

	return b, nil
}

// migrate applies the entitlement and invoice schemas, each tracked in its own goose table.
func migrate(ctx context.Context, pool *pgxpool.Pool, cfg pg.Config, log *slog.Logger) error {
	if err := pg.MigrateFS(ctx, pool, pgstore.Migrations, pgstore.MigrationsDir, cfg, log); err != nil {
		return fmt.Errorf("entitlement migrations: %w", err)
	}
	cfg.MigrationsTable = invoice.MigrationsTable
	if err := pg.MigrateFS(ctx, pool, invoice.Migrations, invoice.MigrationsDir, cfg, log); err != nil {
		return fmt.Errorf("invoice migrations: %w", err)
	}
	return nil
}

// withCache wraps store in the read-through cache when a size is configured.
func withCache(store entitlement.Store, cfg entitlement.Config, metrics *prommetrics.Metrics) entitlement.Store {
	if cfg.CacheSize <= 0 {
		return store
	}
	c := cache.NewLRUCache[uuid.UUID, *entitlement.UserSubscription](cfg.CacheSize, cache.WithTTL(cfg.CacheTTL))
	c.SetEvictCallback(metrics.CacheEvicted)
	return entitlement.NewCachedStore(store, c)
}
