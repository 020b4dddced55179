package entitlement

import (
	"errors"
	"fmt"
	"time"
)

// IsActive reports whether the subscription's tier is currently granted.
// Free never expires; Premium requires an end date in the future.
func IsActive(sub *UserSubscription, now time.Time) bool {
	if sub.Tier != TierPremium {
		return true
	}
	return sub.SubscriptionEndDate != nil && sub.SubscriptionEndDate.After(now)
}

// EffectiveTier returns the tier that applies at now.
// An expired Premium grant behaves as Free.
func EffectiveTier(sub *UserSubscription, now time.Time) Tier {
	if sub.Tier == TierPremium && !IsActive(sub, now) {
		return TierFree
	}
	return sub.Tier
}

// CanAccessFeature evaluates a feature gate against the tier's catalog entry.
func CanAccessFeature(t Tier, key Feature) (bool, error) {
	v, ok := FeaturesOf(t).Value(key)
	if !ok {
		return false, errors.Join(ErrInvalidFeatureKey, fmt.Errorf("unknown feature %q", key))
	}
	return Accessible(v), nil
}
