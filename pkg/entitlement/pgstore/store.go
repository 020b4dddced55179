// Package pgstore persists entitlement records in PostgreSQL.
//
// Every statement runs on the transaction carried by the context when there
// is one (see Transactor), so the usage counter and the caller's invoice row
// commit or roll back together.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/invoicekit/pkg/entitlement"
	"github.com/dmitrymomot/invoicekit/pkg/pg"
)

const (
	selectSubscription = `
		SELECT user_id, tier, subscription_end_date, billing_cycle_start, billing_cycle_end,
		       current_period_count, version, updated_at
		FROM user_subscriptions
		WHERE user_id = $1`

	insertSubscription = `
		INSERT INTO user_subscriptions (
			user_id, tier, subscription_end_date, billing_cycle_start, billing_cycle_end,
			current_period_count, version, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, 0, $7)
		ON CONFLICT (user_id) DO NOTHING`

	swapSubscription = `
		UPDATE user_subscriptions
		SET tier = $2,
		    subscription_end_date = $3,
		    billing_cycle_start = $4,
		    billing_cycle_end = $5,
		    current_period_count = $6,
		    updated_at = $7,
		    version = version + 1
		WHERE user_id = $1 AND version = $8`
)

// Store implements entitlement.Store on a pgx pool.
type Store struct {
	db pg.Querier
}

// New returns a Store backed by pool.
func New(pool *pgxpool.Pool) *Store {
	if pool == nil {
		panic("pgstore: pool is required")
	}
	return &Store{db: pool}
}

func (s *Store) Get(ctx context.Context, userID uuid.UUID) (*entitlement.UserSubscription, error) {
	var (
		sub  entitlement.UserSubscription
		tier string
		end  *time.Time
	)
	err := pg.QuerierFrom(ctx, s.db).QueryRow(ctx, selectSubscription, userID).Scan(
		&sub.UserID,
		&tier,
		&end,
		&sub.BillingCycleStart,
		&sub.BillingCycleEnd,
		&sub.CurrentPeriodCount,
		&sub.Version,
		&sub.UpdatedAt,
	)
	if pg.IsNotFoundError(err) {
		return nil, entitlement.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pgstore: select subscription: %w", err)
	}

	if sub.Tier, err = entitlement.ParseTier(tier); err != nil {
		return nil, err
	}
	if end != nil {
		utc := end.UTC()
		sub.SubscriptionEndDate = &utc
	}
	sub.BillingCycleStart = sub.BillingCycleStart.UTC()
	sub.BillingCycleEnd = sub.BillingCycleEnd.UTC()
	sub.UpdatedAt = sub.UpdatedAt.UTC()

	return &sub, nil
}

func (s *Store) Insert(ctx context.Context, sub *entitlement.UserSubscription) error {
	tag, err := pg.QuerierFrom(ctx, s.db).Exec(ctx, insertSubscription,
		sub.UserID,
		string(sub.Tier),
		sub.SubscriptionEndDate,
		sub.BillingCycleStart,
		sub.BillingCycleEnd,
		sub.CurrentPeriodCount,
		sub.UpdatedAt,
	)
	if err != nil {
		return wrapWriteErr("insert", err)
	}
	if tag.RowsAffected() == 0 {
		return entitlement.ErrSubscriptionAlreadyExists
	}
	sub.Version = 0
	return nil
}

func (s *Store) CompareAndSwap(ctx context.Context, sub *entitlement.UserSubscription, expectedVersion int64) error {
	tag, err := pg.QuerierFrom(ctx, s.db).Exec(ctx, swapSubscription,
		sub.UserID,
		string(sub.Tier),
		sub.SubscriptionEndDate,
		sub.BillingCycleStart,
		sub.BillingCycleEnd,
		sub.CurrentPeriodCount,
		sub.UpdatedAt,
		expectedVersion,
	)
	if err != nil {
		return wrapWriteErr("update", err)
	}
	if tag.RowsAffected() == 0 {
		return entitlement.ErrConcurrentUpdate
	}
	sub.Version = expectedVersion + 1
	return nil
}

func wrapWriteErr(op string, err error) error {
	switch {
	case pg.IsDuplicateKeyError(err):
		return entitlement.ErrSubscriptionAlreadyExists
	case pg.IsSerializationError(err):
		return errors.Join(entitlement.ErrConcurrentUpdate, err)
	}
	return fmt.Errorf("pgstore: %s subscription: %w", op, err)
}
