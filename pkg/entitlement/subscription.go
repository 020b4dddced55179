package entitlement

import (
	"time"

	"github.com/google/uuid"
)

// UserSubscription is the per-user entitlement record.
// Exactly one record exists per user; UserID is the primary key.
type UserSubscription struct {
	UserID              uuid.UUID
	Tier                Tier
	SubscriptionEndDate *time.Time // meaningful only for Premium
	BillingCycleStart   time.Time
	BillingCycleEnd     time.Time // exclusive
	CurrentPeriodCount  int64     // invoices created in [BillingCycleStart, BillingCycleEnd)
	Version             int64     // optimistic concurrency token, bumped by every write
	UpdatedAt           time.Time
}

// NewUserSubscription builds a fresh record whose cycle starts at now.
func NewUserSubscription(userID uuid.UUID, tier Tier, endDate *time.Time, now time.Time) *UserSubscription {
	now = now.UTC()
	sub := &UserSubscription{
		UserID:            userID,
		Tier:              tier,
		BillingCycleStart: now,
		BillingCycleEnd:   CycleEnd(now, CycleLengthDays(tier)),
		UpdatedAt:         now,
	}
	if tier == TierPremium && endDate != nil {
		end := endDate.UTC()
		sub.SubscriptionEndDate = &end
	}
	return sub
}

// InCurrentCycle reports whether t falls inside the record's accounting window.
func (s *UserSubscription) InCurrentCycle(t time.Time) bool {
	return !t.Before(s.BillingCycleStart) && t.Before(s.BillingCycleEnd)
}

// Clone returns a deep copy.
func (s *UserSubscription) Clone() *UserSubscription {
	if s == nil {
		return nil
	}
	c := *s
	if s.SubscriptionEndDate != nil {
		end := *s.SubscriptionEndDate
		c.SubscriptionEndDate = &end
	}
	return &c
}
