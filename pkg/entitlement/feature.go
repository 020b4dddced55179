package entitlement

import "fmt"

// Unlimited marks a numeric limit with no upper bound (-1 chosen for SQL compatibility).
const Unlimited int64 = -1

// Feature names a single field of a tier's feature record.
type Feature string

const (
	FeatureInvoiceLimit     Feature = "invoiceLimit"
	FeaturePeriodLengthDays Feature = "periodLengthDays"
	FeatureTemplateCount    Feature = "templateCount"
	FeatureHistoryLimit     Feature = "historyLimit"
	FeatureHistoryKind      Feature = "historyKind"
	FeatureLogo             Feature = "hasLogo"
	FeatureSignature        Feature = "hasSignature"
	FeatureCustomColors     Feature = "hasCustomColors"
	FeatureDashboardTotals  Feature = "hasDashboardTotals"
	FeatureMonthlyReport    Feature = "hasMonthlyReport"
	FeatureExportQualities  Feature = "exportQualities"
)

// Features returns every feature key known to the catalog.
func Features() []Feature {
	return []Feature{
		FeatureInvoiceLimit,
		FeaturePeriodLengthDays,
		FeatureTemplateCount,
		FeatureHistoryLimit,
		FeatureHistoryKind,
		FeatureLogo,
		FeatureSignature,
		FeatureCustomColors,
		FeatureDashboardTotals,
		FeatureMonthlyReport,
		FeatureExportQualities,
	}
}

// FeatureValue is the value of one feature for one tier.
// It is one of BoolValue, CountValue, QualitiesValue or LabelValue.
type FeatureValue interface {
	featureValue()
}

type (
	BoolValue      bool
	CountValue     int64
	QualitiesValue Qualities
	LabelValue     string
)

func (BoolValue) featureValue()      {}
func (CountValue) featureValue()     {}
func (QualitiesValue) featureValue() {}
func (LabelValue) featureValue()     {}

// Accessible interprets a feature value as an access decision.
// The unlimited sentinel counts as accessible.
func Accessible(v FeatureValue) bool {
	switch v := v.(type) {
	case BoolValue:
		return bool(v)
	case CountValue:
		return int64(v) == Unlimited || v > 0
	case QualitiesValue:
		return !Qualities(v).Empty()
	case LabelValue:
		return true
	}
	panic(fmt.Sprintf("entitlement: unhandled feature value %T", v))
}

// AtLeastAsGenerous reports whether a grants no less than b.
// Values of different kinds are never comparable.
func AtLeastAsGenerous(a, b FeatureValue) bool {
	switch a := a.(type) {
	case BoolValue:
		b, ok := b.(BoolValue)
		return ok && (bool(a) || !bool(b))
	case CountValue:
		b, ok := b.(CountValue)
		if !ok {
			return false
		}
		if int64(a) == Unlimited {
			return true
		}
		if int64(b) == Unlimited {
			return false
		}
		return a >= b
	case QualitiesValue:
		b, ok := b.(QualitiesValue)
		return ok && Qualities(a).Contains(Qualities(b))
	case LabelValue:
		_, ok := b.(LabelValue)
		return ok
	}
	panic(fmt.Sprintf("entitlement: unhandled feature value %T", a))
}
