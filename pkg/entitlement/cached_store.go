package entitlement

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/invoicekit/pkg/cache"
)

type cachedStore struct {
	next  Store
	cache *cache.LRUCache[uuid.UUID, *UserSubscription]
	group singleflight.Group
}

// NewCachedStore wraps next with a read-through cache owned by the caller.
// Successful writes refresh the cached record and failed version checks
// evict it, so the retry after a conflict always reads from next.
// Concurrent misses for the same user share one load.
//
// Inside a unit of work (BeginUnitOfWork) reads go straight to next and
// writes only evict the entry, once now and again after commit, so neither
// uncommitted nor rolled-back records are ever served from the cache.
func NewCachedStore(next Store, c *cache.LRUCache[uuid.UUID, *UserSubscription]) Store {
	if next == nil {
		panic("entitlement: cached store requires a backing Store")
	}
	if c == nil {
		panic("entitlement: cached store requires a cache")
	}
	return &cachedStore{next: next, cache: c}
}

func (s *cachedStore) Get(ctx context.Context, userID uuid.UUID) (*UserSubscription, error) {
	if InUnitOfWork(ctx) {
		return s.next.Get(ctx, userID)
	}
	if sub, ok := s.cache.Get(userID); ok {
		return sub.Clone(), nil
	}

	v, err, _ := s.group.Do(userID.String(), func() (any, error) {
		sub, err := s.next.Get(ctx, userID)
		if err != nil {
			return nil, err
		}
		s.cache.Put(userID, sub.Clone())
		return sub, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*UserSubscription).Clone(), nil
}

func (s *cachedStore) Insert(ctx context.Context, sub *UserSubscription) error {
	if err := s.next.Insert(ctx, sub); err != nil {
		if errors.Is(err, ErrSubscriptionAlreadyExists) {
			s.cache.Remove(sub.UserID)
		}
		return err
	}
	s.written(ctx, sub)
	return nil
}

func (s *cachedStore) CompareAndSwap(ctx context.Context, sub *UserSubscription, expectedVersion int64) error {
	if err := s.next.CompareAndSwap(ctx, sub, expectedVersion); err != nil {
		s.cache.Remove(sub.UserID)
		return err
	}
	s.written(ctx, sub)
	return nil
}

func (s *cachedStore) written(ctx context.Context, sub *UserSubscription) {
	if !InUnitOfWork(ctx) {
		s.cache.Put(sub.UserID, sub.Clone())
		return
	}
	userID := sub.UserID
	s.cache.Remove(userID)
	AfterCommit(ctx, func() { s.cache.Remove(userID) })
}
