// Package analysis runs an ingredient event through the cost model, the risk
// classifier and the substitution recommender, and explains the outcome.
package analysis

import (
	"errors"
	"fmt"
	"strings"

	"menushock/internal/catalog"
	"menushock/internal/costmodel"
	"menushock/internal/models"
	"menushock/internal/risk"
	"menushock/internal/substitution"

	"github.com/shopspring/decimal"
)

type Options struct {
	Limits      models.EventLimits
	Costs       costmodel.Options
	Classifier  *risk.Classifier
	Recommender *substitution.Recommender
	// Category narrows substitution compatibility; empty means any
	Category string
}

// DefaultOptions uses the built-in risk table and ranking
func DefaultOptions() Options {
	classifier, err := risk.NewClassifier(risk.DefaultTable())
	if err != nil {
		panic(err)
	}
	recommender, err := substitution.New(substitution.DefaultRanking())
	if err != nil {
		panic(err)
	}
	return Options{
		Limits:      models.DefaultEventLimits(),
		Costs:       costmodel.DefaultOptions(),
		Classifier:  classifier,
		Recommender: recommender,
	}
}

// Analyze validates the event and builds the full result. It only reads the
// catalog and may run concurrently.
func Analyze(c *catalog.Catalog, ev models.Event, opts Options) (*models.AnalysisResult, error) {
	if ev == nil {
		return nil, &AnalysisError{Event: "<nil>", Err: &models.MalformedEventError{Field: "type", Reason: "missing"}}
	}
	if opts.Classifier == nil || opts.Recommender == nil {
		return nil, &AnalysisError{Event: ev.Key(), Err: errors.New("classifier and recommender are required")}
	}
	if err := ev.Validate(opts.Limits); err != nil {
		return nil, &AnalysisError{Event: ev.Key(), Err: err}
	}
	costs, err := costmodel.ApplyEvent(c, ev, opts.Costs)
	if err != nil {
		return nil, &AnalysisError{Event: ev.Key(), Err: err}
	}

	signals := risk.Measure(ev, len(costs.Dishes), costs.MaxMarginPctDrop(), costs.Adjusted.LeadTimeDays)
	assessment := opts.Classifier.Classify(signals)

	keys := opts.Recommender.Ranking().KeysFor(ev)
	recs := []models.Recommendation{}
	for rec := range substitution.Recommend(costs.Scenario, ev.Ingredient(), opts.Category, keys) {
		recs = append(recs, rec)
	}

	dishes := costs.Dishes
	if dishes == nil {
		dishes = []models.DishImpact{}
	}
	result := &models.AnalysisResult{
		Event:              models.Envelope(ev),
		CatalogFingerprint: c.Fingerprint(),
		AffectedDishes:     dishes,
		Risk:               assessment,
		Recommendations:    recs,
		TotalMonthlyImpact: costs.TotalMonthlyImpact,
	}
	result.Rationale = rationale(ev, costs, assessment, recs, keys, opts.Costs.MonthlyUnitsPerDish)
	return result, nil
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func signedMoney(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "+$" + d.StringFixed(2)
}

func pct(d decimal.Decimal) string {
	return d.Shift(2).StringFixed(1) + "%"
}

func rationale(ev models.Event, costs *costmodel.ScenarioCosts, assessment models.RiskAssessment, recs []models.Recommendation, keys []substitution.SortKey, units int) []string {
	base, adjusted := costs.Base, costs.Adjusted
	trail := []string{"Event: " + models.Describe(ev)}

	switch ev.Kind() {
	case models.EventPriceChange:
		trail = append(trail, fmt.Sprintf("%s unit cost %s -> %s", base.ID, money(base.UnitCost), money(adjusted.UnitCost)))
	case models.EventSupplyDelay:
		trail = append(trail, fmt.Sprintf("%s lead time %d -> %d days", base.ID, base.LeadTimeDays, adjusted.LeadTimeDays))
	}

	if len(costs.Dishes) == 0 {
		trail = append(trail, fmt.Sprintf("No menu item uses %s", base.ID))
	}
	for _, d := range costs.Dishes {
		trail = append(trail, fmt.Sprintf("%s: cost %s -> %s (%s), margin %s -> %s",
			d.MenuItemID, money(d.OldCost), money(d.NewCost), signedMoney(d.CostDelta),
			pct(d.OldMarginPct), pct(d.NewMarginPct)))
	}
	if len(costs.Dishes) > 0 && !costs.TotalMonthlyImpact.IsZero() {
		trail = append(trail, fmt.Sprintf("Monthly impact at %d units per dish: %s", units, signedMoney(costs.TotalMonthlyImpact)))
	}

	switch {
	case len(costs.Dishes) == 0:
		trail = append(trail, fmt.Sprintf("Risk %s: no dish affected (table %s)", assessment.Tier, assessment.TableVersion))
	case assessment.Metric == "":
		trail = append(trail, fmt.Sprintf("Risk %s: no threshold reached (table %s)", assessment.Tier, assessment.TableVersion))
	default:
		trail = append(trail, fmt.Sprintf("Risk %s: %s %g >= %g (table %s)",
			assessment.Tier, assessment.Metric, assessment.Value, assessment.Threshold, assessment.TableVersion))
	}

	if len(recs) == 0 {
		trail = append(trail, fmt.Sprintf("No allowed substitution for %s", base.ID))
		return trail
	}
	order := make([]string, len(keys))
	for i, k := range keys {
		order[i] = string(k)
	}
	for _, r := range recs {
		trail = append(trail, fmt.Sprintf("#%d %s: unit cost %s, lead time %+d days, compatibility %s (ranked by %s, then id)",
			r.Rank, r.SubstituteID, signedMoney(r.UnitCostDelta), r.LeadTimeDeltaDays, r.Compatibility, strings.Join(order, ", ")))
	}
	return trail
}
