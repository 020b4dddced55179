package entitlement_test

import (
	"slices"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/dmitrymomot/invoicekit/pkg/entitlement"
)

// TestCycleProperties checks that a cycle evaluation always yields a window
// containing now, and rolls over exactly when now reaches the old end.
func TestCycleProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("now is inside the evaluated cycle", prop.ForAll(
		func(startOffset, elapsed int64, days int) bool {
			start := epoch.Add(time.Duration(startOffset) * time.Second)
			now := start.Add(time.Duration(elapsed) * time.Second)

			d := entitlement.EvaluateCycle(start, days, now)
			end := start.AddDate(0, 0, days)

			if d.RolledOver != !now.Before(end) {
				return false
			}
			return !now.Before(d.Start) && now.Before(d.End)
		},
		gen.Int64Range(-1e8, 1e8),
		gen.Int64Range(0, 2e8),
		gen.IntRange(1, 400),
	))

	properties.Property("evaluation is idempotent", prop.ForAll(
		func(elapsed int64, days int) bool {
			now := epoch.Add(time.Duration(elapsed) * time.Second)
			first := entitlement.EvaluateCycle(epoch, days, now)
			second := entitlement.EvaluateCycle(first.Start, days, now)
			return !second.RolledOver && second.Start.Equal(first.Start) && second.End.Equal(first.End)
		},
		gen.Int64Range(0, 2e8),
		gen.IntRange(1, 400),
	))

	properties.TestingRun(t)
}

// TestCounterProperties replays random create/delete sequences through the
// usage functions and checks the counter stays within [0, limit].
func TestCounterProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	cycleStart := epoch
	cycleEnd := entitlement.CycleEnd(cycleStart, entitlement.DefaultCycleDays)
	limit := entitlement.FeaturesOf(entitlement.TierFree).InvoiceLimit

	properties.Property("counter is never negative and never exceeds the limit", prop.ForAll(
		func(ops []bool, offsets []int64) bool {
			var count int64
			for i, create := range ops {
				if create {
					if entitlement.CanCreate(limit, count) {
						count = entitlement.RecordCreation(count)
					}
				} else {
					createdAt := cycleStart
					if i < len(offsets) {
						createdAt = cycleStart.Add(time.Duration(offsets[i]) * time.Hour)
					}
					count = entitlement.RecordDeletion(count, createdAt, cycleStart, cycleEnd)
				}
				if count < 0 || count > limit {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Bool()),
		gen.SliceOf(gen.Int64Range(-1000, 1000)),
	))

	properties.Property("remaining plus count equals limit while under quota", prop.ForAll(
		func(count int64) bool {
			return entitlement.Remaining(limit, count)+count == limit
		},
		gen.Int64Range(0, 30),
	))

	properties.TestingRun(t)
}

// TestTierComparisonProperties checks that comparisons are mirror images.
func TestTierComparisonProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	tierGen := gen.OneConstOf(entitlement.TierFree, entitlement.TierPremium)

	properties.Property("gains one way are losses the other way", prop.ForAll(
		func(from, to entitlement.Tier) bool {
			forward := entitlement.CompareTiers(from, to)
			backward := entitlement.CompareTiers(to, from)
			if !slices.Equal(forward.GainedFeatures, backward.LostFeatures) {
				return false
			}
			if len(forward.IncreasedLimits) != len(backward.DecreasedLimits) {
				return false
			}
			for key, change := range forward.IncreasedLimits {
				back, ok := backward.DecreasedLimits[key]
				if !ok || back.From != change.To || back.To != change.From {
					return false
				}
			}
			return true
		},
		tierGen,
		tierGen,
	))

	properties.Property("higher tiers are at least as generous", prop.ForAll(
		func(key entitlement.Feature) bool {
			lower, _ := entitlement.FeaturesOf(entitlement.TierFree).Value(key)
			upper, _ := entitlement.FeaturesOf(entitlement.TierPremium).Value(key)
			return entitlement.AtLeastAsGenerous(upper, lower)
		},
		gen.OneConstOf(toAny(entitlement.Features())...),
	))

	properties.TestingRun(t)
}

func toAny[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
