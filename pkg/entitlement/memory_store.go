package entitlement

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]*UserSubscription
}

// NewMemoryStore returns a Store that keeps records in process memory.
// Records are deep-copied on the way in and out.
func NewMemoryStore(subs ...*UserSubscription) Store {
	s := &memoryStore{subs: make(map[uuid.UUID]*UserSubscription, len(subs))}
	for _, sub := range subs {
		s.subs[sub.UserID] = sub.Clone()
	}
	return s
}

func (s *memoryStore) Get(ctx context.Context, userID uuid.UUID) (*UserSubscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[userID]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	return sub.Clone(), nil
}

func (s *memoryStore) Insert(ctx context.Context, sub *UserSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subs[sub.UserID]; exists {
		return ErrSubscriptionAlreadyExists
	}
	sub.Version = 0
	s.subs[sub.UserID] = sub.Clone()
	return nil
}

func (s *memoryStore) CompareAndSwap(ctx context.Context, sub *UserSubscription, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.subs[sub.UserID]
	if !ok || current.Version != expectedVersion {
		return ErrConcurrentUpdate
	}
	sub.Version = expectedVersion + 1
	s.subs[sub.UserID] = sub.Clone()
	return nil
}
