// Package substitution ranks the substitution rules of an ingredient under a
// cost scenario.
package substitution

import (
	"cmp"
	"iter"
	"slices"
	"strings"

	"menushock/internal/costmodel"
	"menushock/internal/models"

	"github.com/shopspring/decimal"
)

var wildcardTags = map[string]bool{"": true, "*": true, "all": true, "any": true, "general": true}

// Grade compares a rule's compatibility tag with the requested category
func Grade(tag, category string) models.Compatibility {
	tag = strings.ToLower(strings.TrimSpace(tag))
	category = strings.ToLower(strings.TrimSpace(category))
	switch {
	case category == "":
		return models.CompatibilityPartial
	case tag == category:
		return models.CompatibilityExact
	case wildcardTags[tag]:
		return models.CompatibilityPartial
	case strings.Contains(tag, category) || strings.Contains(category, tag):
		return models.CompatibilityPartial
	}
	return models.CompatibilityNone
}

// Recommender ranks substitutions with a validated Ranking
type Recommender struct {
	ranking Ranking
}

func New(ranking Ranking) (*Recommender, error) {
	if err := ranking.Validate(); err != nil {
		return nil, err
	}
	return &Recommender{ranking: ranking}, nil
}

func (r *Recommender) Ranking() Ranking { return r.ranking }

// Recommend ranks with the keys configured for the scenario's event
func (r *Recommender) Recommend(s *costmodel.Scenario, ingredientID, category string) iter.Seq[models.Recommendation] {
	return Recommend(s, ingredientID, category, r.ranking.KeysFor(s.Event()))
}

// Recommend yields the allowed substitutes of an ingredient, best first.
// Nothing is computed until the sequence is ranged, and each range starts
// over from the scenario.
//
// When category is set and some candidates fit it, the ones that do not
// are dropped. If none fit, every candidate is kept.
func Recommend(s *costmodel.Scenario, ingredientID, category string, keys []SortKey) iter.Seq[models.Recommendation] {
	return func(yield func(models.Recommendation) bool) {
		recs := candidates(s, ingredientID, category)
		slices.SortFunc(recs, compare(keys))
		for i := range recs {
			recs[i].Rank = i + 1
			if !yield(recs[i]) {
				return
			}
		}
	}
}

func candidates(s *costmodel.Scenario, ingredientID, category string) []models.Recommendation {
	c := s.Catalog()
	rules := c.Rules(ingredientID)
	if len(rules) == 0 {
		return nil
	}
	origCost := s.UnitCost(ingredientID)
	origLead := s.LeadTimeDays(ingredientID)
	usages := c.Usages(ingredientID)

	recs := make([]models.Recommendation, 0, len(rules))
	compatible := false
	for _, rule := range rules {
		if !rule.Allowed {
			continue
		}
		sub, _ := c.Ingredient(rule.SubstituteID)
		unitDelta := s.UnitCost(sub.ID).Sub(origCost)
		projected := decimal.Zero
		for _, u := range usages {
			projected = projected.Add(u.Quantity.Mul(unitDelta))
		}
		rec := models.Recommendation{
			OriginalID:         ingredientID,
			SubstituteID:       sub.ID,
			SubstituteName:     sub.DisplayName(),
			Rationale:          rule.Rationale,
			CompatibilityTag:   rule.CompatibilityTag,
			Compatibility:      Grade(rule.CompatibilityTag, category),
			UnitCostDelta:      unitDelta,
			LeadTimeDeltaDays:  s.LeadTimeDays(sub.ID) - origLead,
			ProjectedCostDelta: projected,
		}
		if rec.Compatibility != models.CompatibilityNone {
			compatible = true
		}
		recs = append(recs, rec)
	}
	if strings.TrimSpace(category) == "" || !compatible {
		return recs
	}
	return slices.DeleteFunc(recs, func(r models.Recommendation) bool {
		return r.Compatibility == models.CompatibilityNone
	})
}

func compare(keys []SortKey) func(a, b models.Recommendation) int {
	return func(a, b models.Recommendation) int {
		for _, k := range keys {
			var c int
			switch k {
			case KeyCostDelta:
				c = a.UnitCostDelta.Cmp(b.UnitCostDelta)
			case KeyLeadTimeDelta:
				c = cmp.Compare(a.LeadTimeDeltaDays, b.LeadTimeDeltaDays)
			case KeyCompatibility:
				c = cmp.Compare(b.Compatibility.Score(), a.Compatibility.Score())
			}
			if c != 0 {
				return c
			}
		}
		return cmp.Or(
			cmp.Compare(a.SubstituteID, b.SubstituteID),
			cmp.Compare(a.CompatibilityTag, b.CompatibilityTag),
		)
	}
}
