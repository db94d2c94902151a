package insight

import (
	"math"

	"github.com/lukman83/vinted-backoffice/internal/models"
)

// Thresholds tunes the rule table. Zero values are replaced by defaults.
type Thresholds struct {
	StaleAfterDays           int     `yaml:"stale_after_days" json:"stale_after_days"`
	MinPhotos                int     `yaml:"min_photos" json:"min_photos"`
	PhotoUpliftPercent       int     `yaml:"photo_uplift_percent" json:"photo_uplift_percent"`
	LowEngagementRatio       float64 `yaml:"low_engagement_ratio" json:"low_engagement_ratio"`
	OfferGapThreshold        float64 `yaml:"offer_gap_threshold" json:"offer_gap_threshold"`
	MinDescriptionLength     int     `yaml:"min_description_length" json:"min_description_length"`
	DescriptionUpliftPercent int     `yaml:"description_uplift_percent" json:"description_uplift_percent"`
}

// DefaultThresholds returns the stock rule parameters.
func DefaultThresholds() Thresholds {
	return Thresholds{
		StaleAfterDays:           14,
		MinPhotos:                5,
		PhotoUpliftPercent:       30,
		LowEngagementRatio:       0.05,
		OfferGapThreshold:        0.20,
		MinDescriptionLength:     50,
		DescriptionUpliftPercent: 20,
	}
}

func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t.StaleAfterDays <= 0 {
		t.StaleAfterDays = d.StaleAfterDays
	}
	if t.MinPhotos <= 0 {
		t.MinPhotos = d.MinPhotos
	}
	if t.PhotoUpliftPercent <= 0 {
		t.PhotoUpliftPercent = d.PhotoUpliftPercent
	}
	if t.LowEngagementRatio <= 0 || t.LowEngagementRatio > 1 {
		t.LowEngagementRatio = d.LowEngagementRatio
	}
	if t.OfferGapThreshold <= 0 || t.OfferGapThreshold >= 1 {
		t.OfferGapThreshold = d.OfferGapThreshold
	}
	if t.MinDescriptionLength <= 0 {
		t.MinDescriptionLength = d.MinDescriptionLength
	}
	if t.DescriptionUpliftPercent <= 0 {
		t.DescriptionUpliftPercent = d.DescriptionUpliftPercent
	}
	return t
}

// gapEpsilon absorbs float error so a gap of exactly the threshold fires.
const gapEpsilon = 1e-9

// rule is one row of the insight table.
type rule struct {
	Type     models.InsightType
	Severity models.Severity
	When     func(f facts, t Thresholds) bool
	Data     func(f facts, t Thresholds) map[string]any
}

// RuleInfo describes a rule without its predicate.
type RuleInfo struct {
	Type     models.InsightType `json:"type"`
	Severity models.Severity    `json:"severity"`
}

// defaultRules is evaluated top to bottom; the order is the on-screen order.
var defaultRules = []rule{
	{
		Type:     models.InsightPhotos,
		Severity: models.SeverityWarning,
		When:     func(f facts, t Thresholds) bool { return f.fewPhotos(t) },
		Data: func(f facts, t Thresholds) map[string]any {
			return map[string]any{"percent": t.PhotoUpliftPercent}
		},
	},
	{
		Type:     models.InsightOldListing,
		Severity: models.SeverityInfo,
		When:     func(f facts, t Thresholds) bool { return f.stale(t) },
		Data: func(f facts, t Thresholds) map[string]any {
			return map[string]any{"days": t.StaleAfterDays}
		},
	},
	{
		Type:     models.InsightLowEngagement,
		Severity: models.SeverityWarning,
		When: func(f facts, t Thresholds) bool {
			return !f.hidden && f.views > 0 && f.engagement() < t.LowEngagementRatio
		},
	},
	{
		Type:     models.InsightOffersLow,
		Severity: models.SeverityInfo,
		When: func(f facts, t Thresholds) bool {
			return f.offers > 0 && f.price > 0 && f.offerGap()+gapEpsilon >= t.OfferGapThreshold
		},
		Data: func(f facts, t Thresholds) map[string]any {
			return map[string]any{"percent": int(math.Round(f.offerGap() * 100))}
		},
	},
	{
		Type:     models.InsightMissingBrand,
		Severity: models.SeverityInfo,
		When:     func(f facts, t Thresholds) bool { return f.brand == "" },
	},
	{
		Type:     models.InsightShortDescription,
		Severity: models.SeverityInfo,
		When:     func(f facts, t Thresholds) bool { return f.descLen < t.MinDescriptionLength },
		Data: func(f facts, t Thresholds) map[string]any {
			return map[string]any{"percent": t.DescriptionUpliftPercent}
		},
	},
	{
		Type:     models.InsightHidden,
		Severity: models.SeverityCritical,
		When:     func(f facts, t Thresholds) bool { return f.hidden },
	},
	{
		Type:     models.InsightBoostActive,
		Severity: models.SeverityInfo,
		When:     func(f facts, t Thresholds) bool { return f.boosted },
		Data: func(f facts, t Thresholds) map[string]any {
			if f.boostExpiry == nil {
				return nil
			}
			return map[string]any{"date": f.boostExpiry.Format("2006-01-02")}
		},
	},
}
