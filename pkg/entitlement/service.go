package entitlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/invoicekit/pkg/logger"
)

// Service is the entitlement facade used by every external caller.
type Service interface {
	// RequestCreationSlot reports whether the user may create one more invoice.
	// Applies any pending cycle rollover but never changes the usage counter.
	RequestCreationSlot(ctx context.Context, userID uuid.UUID) (SlotDecision, error)

	// CommitCreation consumes one unit of quota. Call only after RequestCreationSlot
	// allowed the creation, in the same unit of work as the invoice insert.
	// Returns ErrQuotaExceeded if the quota was exhausted in the meantime.
	CommitCreation(ctx context.Context, userID uuid.UUID) error

	// CommitCreationAt works like CommitCreation for an invoice stamped at
	// resourceCreatedAt. When this call opens the cycle (first write for the
	// user or a rollover), the cycle starts no later than resourceCreatedAt, so
	// deleting the invoice later refunds the unit.
	CommitCreationAt(ctx context.Context, userID uuid.UUID, resourceCreatedAt time.Time) error

	// ReleaseCreationSlot refunds one unit of quota for a deleted invoice created at
	// resourceCreatedAt. Deletions outside the current cycle leave the counter unchanged.
	// Never call it for status changes.
	ReleaseCreationSlot(ctx context.Context, userID uuid.UUID, resourceCreatedAt time.Time) error

	// HasFeature evaluates a feature gate against the user's effective tier.
	// Unknown keys return ErrInvalidFeatureKey.
	HasFeature(ctx context.Context, userID uuid.UUID, feature Feature) (bool, error)

	// GetEffectiveTier returns the tier that applies right now.
	GetEffectiveTier(ctx context.Context, userID uuid.UUID) (Tier, error)

	// GetUsage returns a snapshot of quota usage for dashboards.
	GetUsage(ctx context.Context, userID uuid.UUID) (Usage, error)

	// ChangeTier replaces the user's record with a fresh one for the given tier.
	// Premium requires endDate.
	ChangeTier(ctx context.Context, userID uuid.UUID, tier Tier, endDate *time.Time) (*UserSubscription, error)
}

// SlotDecision is the result of an admission check. A denied slot is a normal
// outcome, not an error.
type SlotDecision struct {
	Allowed       bool  `json:"allowed"`
	Remaining     int64 `json:"remaining"` // Unlimited when the tier has no cap
	EffectiveTier Tier  `json:"effective_tier"`
}

// Usage is a point-in-time view of a user's entitlement record.
type Usage struct {
	Tier                Tier       `json:"tier"`
	EffectiveTier       Tier       `json:"effective_tier"`
	TierState           TierState  `json:"tier_state"`
	QuotaState          QuotaState `json:"quota_state"`
	Count               int64      `json:"count"`
	Limit               int64      `json:"limit"`
	Remaining           int64      `json:"remaining"`
	CycleStart          time.Time  `json:"cycle_start"`
	CycleEnd            time.Time  `json:"cycle_end"`
	SubscriptionEndDate *time.Time `json:"subscription_end_date,omitempty"`
}

// TierState describes a subscription with respect to its tier grant.
type TierState string

const (
	StateFreeActive     TierState = "free_active"
	StatePremiumActive  TierState = "premium_active"
	StatePremiumExpired TierState = "premium_expired"
)

// QuotaState describes a subscription with respect to quota admission.
type QuotaState string

const (
	StateWithinQuota    QuotaState = "within_quota"
	StateQuotaExhausted QuotaState = "quota_exhausted"
)

type service struct {
	store      Store
	clock      Clock
	log        *slog.Logger
	observer   Observer
	maxRetries int
}

// NewService creates the entitlement facade over the given store.
// Panics if store is nil to fail fast during initialization.
func NewService(store Store, opts ...ServiceOption) (Service, error) {
	if store == nil {
		panic("entitlement: Store is required")
	}

	if err := CheckMonotonicity(); err != nil {
		return nil, err
	}

	s := &service{
		store:      store,
		clock:      SystemClock(),
		log:        slog.Default(),
		observer:   noopObserver{},
		maxRetries: 3,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.log = s.log.With(logger.Component("entitlement"))

	return s, nil
}

func (s *service) RequestCreationSlot(ctx context.Context, userID uuid.UUID) (SlotDecision, error) {
	var decision SlotDecision
	_, _, err := s.apply(ctx, userID, func(sub *UserSubscription, now time.Time, _ bool) (bool, error) {
		eff := EffectiveTier(sub, now)
		limit := FeaturesOf(eff).InvoiceLimit
		decision = SlotDecision{
			Allowed:       CanCreate(limit, sub.CurrentPeriodCount),
			Remaining:     Remaining(limit, sub.CurrentPeriodCount),
			EffectiveTier: eff,
		}
		return false, nil
	})
	if err != nil {
		return SlotDecision{}, err
	}

	s.observer.SlotRequested(decision.EffectiveTier, decision.Allowed)
	if !decision.Allowed {
		s.log.InfoContext(ctx, "invoice quota exhausted",
			logger.UserID(userID),
			logger.Tier(decision.EffectiveTier),
		)
	}

	return decision, nil
}

func (s *service) CommitCreation(ctx context.Context, userID uuid.UUID) error {
	return s.CommitCreationAt(ctx, userID, time.Time{})
}

func (s *service) CommitCreationAt(ctx context.Context, userID uuid.UUID, resourceCreatedAt time.Time) error {
	var eff Tier
	sub, _, err := s.apply(ctx, userID, func(sub *UserSubscription, now time.Time, opened bool) (bool, error) {
		eff = EffectiveTier(sub, now)
		if !CanCreate(FeaturesOf(eff).InvoiceLimit, sub.CurrentPeriodCount) {
			return false, ErrQuotaExceeded
		}
		sub.CurrentPeriodCount = RecordCreation(sub.CurrentPeriodCount)
		if opened {
			backdateCycle(sub, resourceCreatedAt)
		}
		return true, nil
	})
	if err != nil {
		return err
	}

	s.observer.CreationCommitted(eff)
	s.log.DebugContext(ctx, "invoice creation committed",
		logger.UserID(userID),
		logger.Tier(eff),
		logger.Count(sub.CurrentPeriodCount),
	)

	return nil
}

func (s *service) ReleaseCreationSlot(ctx context.Context, userID uuid.UUID, resourceCreatedAt time.Time) error {
	var decremented bool
	_, _, err := s.apply(ctx, userID, func(sub *UserSubscription, now time.Time, _ bool) (bool, error) {
		next := RecordDeletion(sub.CurrentPeriodCount, resourceCreatedAt, sub.BillingCycleStart, sub.BillingCycleEnd)
		decremented = next != sub.CurrentPeriodCount
		sub.CurrentPeriodCount = next
		return decremented, nil
	})
	if err != nil {
		return err
	}

	s.observer.SlotReleased(decremented)
	return nil
}

func (s *service) HasFeature(ctx context.Context, userID uuid.UUID, feature Feature) (bool, error) {
	sub, now, err := s.apply(ctx, userID, nil)
	if err != nil {
		return false, err
	}

	eff := EffectiveTier(sub, now)
	ok, err := CanAccessFeature(eff, feature)
	if err != nil {
		s.log.ErrorContext(ctx, "feature gate evaluated with unknown key",
			logger.UserID(userID),
			logger.Feature(string(feature)),
			logger.Error(err),
		)
		return false, err
	}

	return ok, nil
}

func (s *service) GetEffectiveTier(ctx context.Context, userID uuid.UUID) (Tier, error) {
	sub, now, err := s.apply(ctx, userID, nil)
	if err != nil {
		return "", err
	}
	return EffectiveTier(sub, now), nil
}

func (s *service) GetUsage(ctx context.Context, userID uuid.UUID) (Usage, error) {
	sub, now, err := s.apply(ctx, userID, nil)
	if err != nil {
		return Usage{}, err
	}

	eff := EffectiveTier(sub, now)
	limit := FeaturesOf(eff).InvoiceLimit

	usage := Usage{
		Tier:                sub.Tier,
		EffectiveTier:       eff,
		TierState:           tierState(sub, now),
		QuotaState:          StateWithinQuota,
		Count:               sub.CurrentPeriodCount,
		Limit:               limit,
		Remaining:           Remaining(limit, sub.CurrentPeriodCount),
		CycleStart:          sub.BillingCycleStart,
		CycleEnd:            sub.BillingCycleEnd,
		SubscriptionEndDate: sub.SubscriptionEndDate,
	}
	if !CanCreate(limit, sub.CurrentPeriodCount) {
		usage.QuotaState = StateQuotaExhausted
	}

	return usage, nil
}

func (s *service) ChangeTier(ctx context.Context, userID uuid.UUID, tier Tier, endDate *time.Time) (*UserSubscription, error) {
	if !tier.Valid() {
		return nil, errors.Join(ErrInvalidTier, fmt.Errorf("unknown tier %q", string(tier)))
	}
	if tier == TierPremium && endDate == nil {
		return nil, ErrMissingEndDate
	}

	var previous Tier
	sub, _, err := s.apply(ctx, userID, func(sub *UserSubscription, now time.Time, _ bool) (bool, error) {
		previous = sub.Tier
		fresh := NewUserSubscription(userID, tier, endDate, now)
		fresh.Version = sub.Version
		*sub = *fresh
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	cmp := CompareTiers(previous, tier)
	s.log.InfoContext(ctx, "subscription tier changed",
		logger.UserID(userID),
		slog.String("from", string(previous)),
		logger.Tier(tier),
		slog.Bool("downgrade", cmp.IsDowngrade()),
		slog.Any("gained_features", cmp.GainedFeatures),
		slog.Any("lost_features", cmp.LostFeatures),
	)

	return sub.Clone(), nil
}

// mutation edits a loaded record in place and reports whether it must be written.
// opened is true when the current cycle starts with this call: the record is
// implicit or has just rolled over.
type mutation func(sub *UserSubscription, now time.Time, opened bool) (changed bool, err error)

// apply loads the user's record, applies any pending rollover, runs fn and
// persists the result behind the record's version guard. Lost races are
// retried with a fresh read up to maxRetries times.
func (s *service) apply(ctx context.Context, userID uuid.UUID, fn mutation) (*UserSubscription, time.Time, error) {
	if userID == uuid.Nil {
		return nil, time.Time{}, ErrMissingUserID
	}

	for attempt := 0; ; attempt++ {
		now := s.clock.Now().UTC()

		sub, persisted, err := s.load(ctx, userID, now)
		if err != nil {
			return nil, now, err
		}
		expected := sub.Version

		decision := EvaluateCycle(sub.BillingCycleStart, CycleLengthDays(sub.Tier), now)
		sub.BillingCycleStart, sub.BillingCycleEnd = decision.Start, decision.End
		if decision.RolledOver {
			sub.CurrentPeriodCount = 0
		}

		changed := false
		if fn != nil {
			opened := !persisted || decision.RolledOver
			if changed, err = fn(sub, now, opened); err != nil {
				return nil, now, err
			}
		}

		if !changed && (!decision.RolledOver || !persisted) {
			return sub, now, nil
		}

		sub.UpdatedAt = now
		if persisted {
			err = s.store.CompareAndSwap(ctx, sub, expected)
		} else {
			err = s.store.Insert(ctx, sub)
		}

		switch {
		case err == nil:
			if decision.RolledOver && persisted {
				s.observer.CycleRolledOver(sub.Tier)
				s.log.DebugContext(ctx, "billing cycle rolled over",
					logger.UserID(userID),
					logger.Tier(sub.Tier),
					slog.Time("cycle_start", sub.BillingCycleStart),
					slog.Time("cycle_end", sub.BillingCycleEnd),
				)
			}
			return sub, now, nil

		case errors.Is(err, ErrConcurrentUpdate), errors.Is(err, ErrSubscriptionAlreadyExists):
			s.observer.UpdateConflict()
			if attempt >= s.maxRetries {
				return nil, now, errors.Join(ErrConcurrentUpdate,
					fmt.Errorf("gave up after %d attempts for user %s", attempt+1, userID))
			}
			s.log.DebugContext(ctx, "retrying after concurrent update",
				logger.UserID(userID),
				logger.RetryCount(attempt+1),
			)

		default:
			return nil, now, err
		}
	}
}

// backdateCycle moves the start of a cycle opened at now back to createdAt
// when the resource was stamped just before the commit. Timestamps a full
// cycle or more in the past, or in the future, are ignored.
func backdateCycle(sub *UserSubscription, createdAt time.Time) {
	if createdAt.IsZero() {
		return
	}
	createdAt = createdAt.UTC()
	days := CycleLengthDays(sub.Tier)
	if !createdAt.Before(sub.BillingCycleStart) || !CycleEnd(createdAt, days).After(sub.BillingCycleStart) {
		return
	}
	sub.BillingCycleStart = createdAt
	sub.BillingCycleEnd = CycleEnd(createdAt, days)
}

// load returns the stored record, or an implicit Free record with zero usage
// when the user has none yet.
func (s *service) load(ctx context.Context, userID uuid.UUID, now time.Time) (*UserSubscription, bool, error) {
	sub, err := s.store.Get(ctx, userID)
	if errors.Is(err, ErrSubscriptionNotFound) {
		return NewUserSubscription(userID, TierFree, nil, now), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load subscription: %w", err)
	}
	return sub, true, nil
}

func tierState(sub *UserSubscription, now time.Time) TierState {
	switch {
	case sub.Tier == TierFree:
		return StateFreeActive
	case IsActive(sub, now):
		return StatePremiumActive
	default:
		return StatePremiumExpired
	}
}
