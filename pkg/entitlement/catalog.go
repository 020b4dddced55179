package entitlement

import (
	"errors"
	"fmt"
)

// TierFeatures is the immutable feature and limit record of a tier.
type TierFeatures struct {
	InvoiceLimit       int64 // per billing cycle, Unlimited for no cap
	PeriodLengthDays   int   // 0 means access never expires
	TemplateCount      int64
	HistoryLimit       int64
	HistoryKind        HistoryKind
	HasLogo            bool
	HasSignature       bool
	HasCustomColors    bool
	HasDashboardTotals bool
	HasMonthlyReport   bool
	ExportQualities    Qualities
}

var (
	freeFeatures = TierFeatures{
		InvoiceLimit:     30,
		PeriodLengthDays: 0,
		TemplateCount:    3,
		HistoryLimit:     30,
		HistoryKind:      HistoryDays,
		ExportQualities:  NewQualities(QualityStandard),
	}

	premiumFeatures = TierFeatures{
		InvoiceLimit:       Unlimited,
		PeriodLengthDays:   30,
		TemplateCount:      Unlimited,
		HistoryLimit:       Unlimited,
		HistoryKind:        HistoryItems,
		HasLogo:            true,
		HasSignature:       true,
		HasCustomColors:    true,
		HasDashboardTotals: true,
		HasMonthlyReport:   true,
		ExportQualities:    NewQualities(QualityStandard, QualityHigh, QualityPrintReady),
	}
)

// FeaturesOf returns the feature record of a tier.
// Panics for values outside the Tier enumeration.
func FeaturesOf(t Tier) TierFeatures {
	switch t {
	case TierFree:
		return freeFeatures
	case TierPremium:
		return premiumFeatures
	}
	panic(fmt.Sprintf("entitlement: no catalog entry for tier %q", string(t)))
}

// Value returns the tagged value of a single feature.
func (f TierFeatures) Value(key Feature) (FeatureValue, bool) {
	switch key {
	case FeatureInvoiceLimit:
		return CountValue(f.InvoiceLimit), true
	case FeaturePeriodLengthDays:
		return CountValue(f.PeriodLengthDays), true
	case FeatureTemplateCount:
		return CountValue(f.TemplateCount), true
	case FeatureHistoryLimit:
		return CountValue(f.HistoryLimit), true
	case FeatureHistoryKind:
		return LabelValue(f.HistoryKind), true
	case FeatureLogo:
		return BoolValue(f.HasLogo), true
	case FeatureSignature:
		return BoolValue(f.HasSignature), true
	case FeatureCustomColors:
		return BoolValue(f.HasCustomColors), true
	case FeatureDashboardTotals:
		return BoolValue(f.HasDashboardTotals), true
	case FeatureMonthlyReport:
		return BoolValue(f.HasMonthlyReport), true
	case FeatureExportQualities:
		return QualitiesValue(f.ExportQualities), true
	}
	return nil, false
}

// CheckMonotonicity verifies that every tier is at least as generous as the
// tier before it for every feature.
func CheckMonotonicity() error {
	tiers := Tiers()
	for i := 1; i < len(tiers); i++ {
		lower, upper := FeaturesOf(tiers[i-1]), FeaturesOf(tiers[i])
		for _, key := range Features() {
			lv, lok := lower.Value(key)
			uv, uok := upper.Value(key)
			if !lok || !uok {
				return errors.Join(ErrInvalidCatalog, fmt.Errorf("feature %q missing from catalog", key))
			}
			if !AtLeastAsGenerous(uv, lv) {
				return errors.Join(ErrInvalidCatalog,
					fmt.Errorf("feature %q: %s (%v) grants less than %s (%v)", key, tiers[i], uv, tiers[i-1], lv))
			}
		}
	}
	return nil
}

// TierComparison contains the differences between two tiers.
// Used to communicate upgrade and downgrade effects.
type TierComparison struct {
	From            Tier                    `json:"from"`
	To              Tier                    `json:"to"`
	GainedFeatures  []Feature               `json:"gained_features"`
	LostFeatures    []Feature               `json:"lost_features"`
	IncreasedLimits map[Feature]LimitChange `json:"increased_limits"`
	DecreasedLimits map[Feature]LimitChange `json:"decreased_limits"`
}

// LimitChange represents a change in a numeric limit.
type LimitChange struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// IsDowngrade reports whether moving between the tiers loses anything.
func (c TierComparison) IsDowngrade() bool {
	return len(c.LostFeatures) > 0 || len(c.DecreasedLimits) > 0
}

// CompareTiers returns the differences between the current and target tiers.
func CompareTiers(from, to Tier) TierComparison {
	current, target := FeaturesOf(from), FeaturesOf(to)
	cmp := TierComparison{
		From:            from,
		To:              to,
		GainedFeatures:  make([]Feature, 0),
		LostFeatures:    make([]Feature, 0),
		IncreasedLimits: make(map[Feature]LimitChange),
		DecreasedLimits: make(map[Feature]LimitChange),
	}

	for _, key := range Features() {
		cv, _ := current.Value(key)
		tv, _ := target.Value(key)

		if c, ok := cv.(CountValue); ok {
			t := tv.(CountValue)
			if c == t {
				continue
			}
			change := LimitChange{From: int64(c), To: int64(t)}
			// Unlimited-to-limited counts as a decrease
			if AtLeastAsGenerous(t, c) {
				cmp.IncreasedLimits[key] = change
			} else {
				cmp.DecreasedLimits[key] = change
			}
			continue
		}

		had, has := Accessible(cv), Accessible(tv)
		switch {
		case has && !had:
			cmp.GainedFeatures = append(cmp.GainedFeatures, key)
		case had && !has:
			cmp.LostFeatures = append(cmp.LostFeatures, key)
		case had && has && !AtLeastAsGenerous(tv, cv):
			cmp.LostFeatures = append(cmp.LostFeatures, key)
		case had && has && !AtLeastAsGenerous(cv, tv):
			cmp.GainedFeatures = append(cmp.GainedFeatures, key)
		}
	}

	return cmp
}
