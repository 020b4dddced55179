package pgstore_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/invoicekit/pkg/entitlement"
	"github.com/dmitrymomot/invoicekit/pkg/entitlement/pgstore"
	"github.com/dmitrymomot/invoicekit/pkg/pg"
)

// setupPool connects to PG_TEST_URL and applies the migrations.
// Tests are skipped when the variable is not set.
func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("PG_TEST_URL")
	if url == "" {
		t.Skip("PG_TEST_URL not set")
	}

	ctx := context.Background()
	cfg := pg.Config{ConnectionString: url, MaxOpenConns: 4, RetryAttempts: 1, MigrationsTable: "pgstore_test_migrations"}
	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pg.MigrateFS(ctx, pool, pgstore.Migrations, pgstore.MigrationsDir, cfg, slog.New(slog.DiscardHandler)))
	return pool
}

func TestStore(t *testing.T) {
	pool := setupPool(t)
	store := pgstore.New(pool)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("not found", func(t *testing.T) {
		_, err := store.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, entitlement.ErrSubscriptionNotFound)
	})

	t.Run("insert get swap", func(t *testing.T) {
		end := now.AddDate(0, 0, 30)
		sub := entitlement.NewUserSubscription(uuid.New(), entitlement.TierPremium, &end, now)
		require.NoError(t, store.Insert(ctx, sub))
		assert.ErrorIs(t, store.Insert(ctx, sub.Clone()), entitlement.ErrSubscriptionAlreadyExists)

		got, err := store.Get(ctx, sub.UserID)
		require.NoError(t, err)
		assert.Equal(t, entitlement.TierPremium, got.Tier)
		require.NotNil(t, got.SubscriptionEndDate)
		assert.True(t, end.Equal(*got.SubscriptionEndDate))
		assert.True(t, sub.BillingCycleStart.Equal(got.BillingCycleStart))

		got.CurrentPeriodCount = 4
		require.NoError(t, store.CompareAndSwap(ctx, got, 0))
		assert.Equal(t, int64(1), got.Version)

		stale := sub.Clone()
		stale.CurrentPeriodCount = 1
		assert.ErrorIs(t, store.CompareAndSwap(ctx, stale, 0), entitlement.ErrConcurrentUpdate)

		final, err := store.Get(ctx, sub.UserID)
		require.NoError(t, err)
		assert.Equal(t, int64(4), final.CurrentPeriodCount)
		assert.Equal(t, int64(1), final.Version)
	})

	t.Run("rolled back transaction leaves no trace", func(t *testing.T) {
		tx := pgstore.NewTransactor(pool)
		sub := entitlement.NewUserSubscription(uuid.New(), entitlement.TierFree, nil, now)
		rollback := errors.New("invoice insert failed")

		err := tx.WithinTx(ctx, func(ctx context.Context) error {
			require.NoError(t, store.Insert(ctx, sub))
			_, err := store.Get(ctx, sub.UserID)
			require.NoError(t, err, "record is visible inside the transaction")
			return rollback
		})
		assert.ErrorIs(t, err, rollback)

		_, err = store.Get(ctx, sub.UserID)
		assert.ErrorIs(t, err, entitlement.ErrSubscriptionNotFound)
	})

	t.Run("service over postgres", func(t *testing.T) {
		svc, err := entitlement.NewService(store)
		require.NoError(t, err)
		userID := uuid.New()

		for range 30 {
			require.NoError(t, svc.CommitCreation(ctx, userID))
		}
		assert.ErrorIs(t, svc.CommitCreation(ctx, userID), entitlement.ErrQuotaExceeded)
	})
}
