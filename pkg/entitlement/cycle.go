package entitlement

import "time"

// DefaultCycleDays is the quota cycle length for tiers whose access never expires.
const DefaultCycleDays = 30

// CycleDecision is the outcome of a billing cycle evaluation.
type CycleDecision struct {
	RolledOver bool
	Start      time.Time
	End        time.Time
}

// CycleLengthDays returns the quota cycle length used for a tier.
// Tiers without an expiring period reset their quota on the default rolling cycle.
func CycleLengthDays(t Tier) int {
	if days := FeaturesOf(t).PeriodLengthDays; days > 0 {
		return days
	}
	return DefaultCycleDays
}

// CycleEnd returns the exclusive end of a cycle that starts at start.
func CycleEnd(start time.Time, periodLengthDays int) time.Time {
	if periodLengthDays <= 0 {
		periodLengthDays = DefaultCycleDays
	}
	return start.UTC().AddDate(0, 0, periodLengthDays)
}

// EvaluateCycle decides whether the cycle starting at cycleStart has rolled over at now.
// The boundary is inclusive: at exactly the end instant a new cycle starts at now.
func EvaluateCycle(cycleStart time.Time, periodLengthDays int, now time.Time) CycleDecision {
	end := CycleEnd(cycleStart, periodLengthDays)
	if now.Before(end) {
		return CycleDecision{Start: cycleStart.UTC(), End: end}
	}
	return CycleDecision{
		RolledOver: true,
		Start:      now.UTC(),
		End:        CycleEnd(now, periodLengthDays),
	}
}
