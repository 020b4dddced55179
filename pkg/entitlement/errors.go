package entitlement

import "errors"

var (
	ErrInvalidTier       = errors.New("entitlement: invalid tier")
	ErrInvalidFeatureKey = errors.New("entitlement: invalid feature key")
	ErrInvalidCatalog    = errors.New("entitlement: tier catalog violates monotonicity")

	ErrQuotaExceeded  = errors.New("entitlement: invoice quota exceeded")
	ErrMissingEndDate = errors.New("entitlement: premium subscription requires an end date")
	ErrMissingUserID  = errors.New("entitlement: user ID is required")

	ErrSubscriptionNotFound      = errors.New("entitlement: subscription not found")
	ErrSubscriptionAlreadyExists = errors.New("entitlement: subscription already exists")

	// ErrConcurrentUpdate is returned when the stored row changed between read and write.
	// Callers may retry with a fresh read.
	ErrConcurrentUpdate = errors.New("entitlement: concurrent update conflict")
)
