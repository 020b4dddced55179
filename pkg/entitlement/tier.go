package entitlement

import (
	"errors"
	"fmt"
)

// Tier is a subscription plan level. The set of tiers is closed.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// Tiers returns every tier ordered from least to most generous.
func Tiers() []Tier {
	return []Tier{TierFree, TierPremium}
}

// Valid reports whether t is a member of the tier enumeration.
func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierPremium:
		return true
	}
	return false
}

func (t Tier) String() string {
	return string(t)
}

// ParseTier converts a stored or user-supplied value into a Tier.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !t.Valid() {
		return "", errors.Join(ErrInvalidTier, fmt.Errorf("unknown tier %q", s))
	}
	return t, nil
}

// HistoryKind describes how a tier's history limit is measured.
type HistoryKind string

const (
	HistoryDays  HistoryKind = "days"
	HistoryItems HistoryKind = "items"
)

// ExportQuality is a render quality available for invoice export.
type ExportQuality string

const (
	QualityStandard   ExportQuality = "standard"
	QualityHigh       ExportQuality = "high"
	QualityPrintReady ExportQuality = "print_ready"
)

// Qualities is an immutable set of export qualities.
type Qualities uint8

const (
	qualityStandardBit Qualities = 1 << iota
	qualityHighBit
	qualityPrintReadyBit
)

var allQualities = []ExportQuality{QualityStandard, QualityHigh, QualityPrintReady}

func qualityBit(q ExportQuality) Qualities {
	switch q {
	case QualityStandard:
		return qualityStandardBit
	case QualityHigh:
		return qualityHighBit
	case QualityPrintReady:
		return qualityPrintReadyBit
	}
	return 0
}

// NewQualities builds a set from the given qualities. Unknown values are ignored.
func NewQualities(qs ...ExportQuality) Qualities {
	var set Qualities
	for _, q := range qs {
		set |= qualityBit(q)
	}
	return set
}

// Has reports whether q is in the set.
func (s Qualities) Has(q ExportQuality) bool {
	bit := qualityBit(q)
	return bit != 0 && s&bit == bit
}

// Contains reports whether s is a superset of other.
func (s Qualities) Contains(other Qualities) bool {
	return s&other == other
}

func (s Qualities) Empty() bool {
	return s == 0
}

func (s Qualities) Len() int {
	return len(s.List())
}

// List returns the members in a stable order.
func (s Qualities) List() []ExportQuality {
	out := make([]ExportQuality, 0, len(allQualities))
	for _, q := range allQualities {
		if s.Has(q) {
			out = append(out, q)
		}
	}
	return out
}
