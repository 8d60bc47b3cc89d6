package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RiskTier is a coarse severity classification
type RiskTier string

const (
	RiskLow      RiskTier = "low"
	RiskMedium   RiskTier = "medium"
	RiskHigh     RiskTier = "high"
	RiskCritical RiskTier = "critical"
)

// Rank orders tiers from 0 (low) to 3 (critical)
func (t RiskTier) Rank() int {
	switch t {
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	}
	return 0
}

// ParseRiskTier parses a tier name, ignoring case
func ParseRiskTier(s string) (RiskTier, error) {
	switch tier := RiskTier(strings.ToLower(strings.TrimSpace(s))); tier {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return tier, nil
	}
	return "", fmt.Errorf("unknown risk tier %q", s)
}

// Compatibility grades how well a substitution rule fits the requested context
type Compatibility string

const (
	CompatibilityExact   Compatibility = "exact"
	CompatibilityPartial Compatibility = "partial"
	CompatibilityNone    Compatibility = "none"
)

// Score maps compatibility to [0, 1]
func (c Compatibility) Score() float64 {
	switch c {
	case CompatibilityExact:
		return 1.0
	case CompatibilityPartial:
		return 0.5
	}
	return 0.0
}

// DishImpact is the before/after cost picture of one affected dish
type DishImpact struct {
	MenuItemID    string          `json:"menu_item_id"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Quantity      decimal.Decimal `json:"quantity"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	OldCost       decimal.Decimal `json:"old_cost"`
	NewCost       decimal.Decimal `json:"new_cost"`
	CostDelta     decimal.Decimal `json:"cost_delta"`
	OldMargin     decimal.Decimal `json:"old_margin"`
	NewMargin     decimal.Decimal `json:"new_margin"`
	OldMarginPct  decimal.Decimal `json:"old_margin_pct"`
	NewMarginPct  decimal.Decimal `json:"new_margin_pct"`
	MarginPctDrop decimal.Decimal `json:"margin_pct_drop"`
	MonthlyImpact decimal.Decimal `json:"monthly_impact"`
}

// Recommendation is one ranked substitution candidate
type Recommendation struct {
	Rank               int             `json:"rank"`
	OriginalID         string          `json:"original_ingredient_id"`
	SubstituteID       string          `json:"substitute_ingredient_id"`
	SubstituteName     string          `json:"substitute_name"`
	Rationale          string          `json:"rationale"`
	CompatibilityTag   string          `json:"compatibility_tag"`
	Compatibility      Compatibility   `json:"compatibility"`
	UnitCostDelta      decimal.Decimal `json:"unit_cost_delta"`
	LeadTimeDeltaDays  int             `json:"lead_time_delta_days"`
	ProjectedCostDelta decimal.Decimal `json:"projected_cost_delta"`
}

// RiskAssessment records the tier and the threshold row that produced it
type RiskAssessment struct {
	Tier         RiskTier `json:"tier"`
	Metric       string   `json:"metric,omitempty"`
	Value        float64  `json:"value"`
	Threshold    float64  `json:"threshold"`
	TableVersion string   `json:"table_version"`
}

// AnalysisResult is the full answer to one event
type AnalysisResult struct {
	Event              EventEnvelope    `json:"event"`
	CatalogFingerprint string           `json:"catalog_fingerprint"`
	AffectedDishes     []DishImpact     `json:"affected_dishes"`
	Risk               RiskAssessment   `json:"risk"`
	Recommendations    []Recommendation `json:"recommendations"`
	TotalMonthlyImpact decimal.Decimal  `json:"total_monthly_impact"`
	Rationale          []string         `json:"rationale"`
}
