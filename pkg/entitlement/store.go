package entitlement

import (
	"context"

	"github.com/google/uuid"
)

// Store defines the persistence boundary for subscription records.
// Each user has at most one record, keyed by UserID.
type Store interface {
	// Get retrieves a record by user ID.
	// Returns ErrSubscriptionNotFound if no record exists.
	Get(ctx context.Context, userID uuid.UUID) (*UserSubscription, error)

	// Insert creates a record with version 0.
	// Returns ErrSubscriptionAlreadyExists if the user already has one.
	Insert(ctx context.Context, sub *UserSubscription) error

	// CompareAndSwap replaces the stored record iff its version equals expectedVersion.
	// On success the stored version becomes expectedVersion+1 and sub.Version is updated.
	// Returns ErrConcurrentUpdate when the version moved or the record is gone.
	CompareAndSwap(ctx context.Context, sub *UserSubscription, expectedVersion int64) error
}
