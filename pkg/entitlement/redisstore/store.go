// Package redisstore persists entitlement records in Redis as JSON values,
// one key per user. Version checks use WATCH/MULTI/EXEC.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/invoicekit/pkg/entitlement"
)

// DefaultKeyPrefix namespaces subscription keys.
const DefaultKeyPrefix = "entitlement:sub:"

type record struct {
	UserID              uuid.UUID  `json:"user_id"`
	Tier                string     `json:"tier"`
	SubscriptionEndDate *time.Time `json:"subscription_end_date,omitempty"`
	BillingCycleStart   time.Time  `json:"billing_cycle_start"`
	BillingCycleEnd     time.Time  `json:"billing_cycle_end"`
	CurrentPeriodCount  int64      `json:"current_period_count"`
	Version             int64      `json:"version"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Option configures a Store.
type Option func(*Store)

// WithKeyPrefix overrides DefaultKeyPrefix.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// Store implements entitlement.Store on Redis.
type Store struct {
	client redis.UniversalClient
	prefix string
}

func New(client redis.UniversalClient, opts ...Option) *Store {
	if client == nil {
		panic("redisstore: client is required")
	}
	s := &Store{client: client, prefix: DefaultKeyPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(userID uuid.UUID) string {
	return s.prefix + userID.String()
}

func (s *Store) Get(ctx context.Context, userID uuid.UUID) (*entitlement.UserSubscription, error) {
	raw, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, entitlement.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redisstore: get subscription: %w", err)
	}
	return decode(raw)
}

func (s *Store) Insert(ctx context.Context, sub *entitlement.UserSubscription) error {
	raw, err := encode(sub, 0)
	if err != nil {
		return err
	}
	ok, err := s.client.SetNX(ctx, s.key(sub.UserID), raw, 0).Result()
	if err != nil {
		return fmt.Errorf("redisstore: insert subscription: %w", err)
	}
	if !ok {
		return entitlement.ErrSubscriptionAlreadyExists
	}
	sub.Version = 0
	return nil
}

func (s *Store) CompareAndSwap(ctx context.Context, sub *entitlement.UserSubscription, expectedVersion int64) error {
	key := s.key(sub.UserID)
	raw, err := encode(sub, expectedVersion+1)
	if err != nil {
		return err
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return entitlement.ErrConcurrentUpdate
		}
		if err != nil {
			return err
		}
		stored, err := decode(current)
		if err != nil {
			return err
		}
		if stored.Version != expectedVersion {
			return entitlement.ErrConcurrentUpdate
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, 0)
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		sub.Version = expectedVersion + 1
		return nil
	case errors.Is(err, redis.TxFailedErr):
		return entitlement.ErrConcurrentUpdate
	case errors.Is(err, entitlement.ErrConcurrentUpdate):
		return err
	}
	return fmt.Errorf("redisstore: swap subscription: %w", err)
}

func encode(sub *entitlement.UserSubscription, version int64) ([]byte, error) {
	raw, err := json.Marshal(record{
		UserID:              sub.UserID,
		Tier:                string(sub.Tier),
		SubscriptionEndDate: sub.SubscriptionEndDate,
		BillingCycleStart:   sub.BillingCycleStart,
		BillingCycleEnd:     sub.BillingCycleEnd,
		CurrentPeriodCount:  sub.CurrentPeriodCount,
		Version:             version,
		UpdatedAt:           sub.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("redisstore: encode subscription: %w", err)
	}
	return raw, nil
}

func decode(raw []byte) (*entitlement.UserSubscription, error) {
	var r record
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("redisstore: decode subscription: %w", err)
	}
	tier, err := entitlement.ParseTier(r.Tier)
	if err != nil {
		return nil, err
	}
	if r.SubscriptionEndDate != nil {
		end := r.SubscriptionEndDate.UTC()
		r.SubscriptionEndDate = &end
	}
	return &entitlement.UserSubscription{
		UserID:              r.UserID,
		Tier:                tier,
		SubscriptionEndDate: r.SubscriptionEndDate,
		BillingCycleStart:   r.BillingCycleStart.UTC(),
		BillingCycleEnd:     r.BillingCycleEnd.UTC(),
		CurrentPeriodCount:  r.CurrentPeriodCount,
		Version:             r.Version,
		UpdatedAt:           r.UpdatedAt.UTC(),
	}, nil
}
