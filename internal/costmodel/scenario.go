// Package costmodel computes dish costs and margins on base data and under a
// hypothetical ingredient event.
package costmodel

import (
	"menushock/internal/catalog"
	"menushock/internal/models"

	"github.com/shopspring/decimal"
)

// Scenario is a read-through view of a catalog with at most one ingredient
// adjusted by an event. The catalog itself is never modified.
type Scenario struct {
	catalog *catalog.Catalog
	event   models.Event

	target   string
	unitCost decimal.Decimal
	leadTime int
}

// Base returns the unadjusted view
func Base(c *catalog.Catalog) *Scenario {
	return &Scenario{catalog: c}
}

// NewScenario applies the event to its ingredient. Range checks are the
// caller's job; only the ingredient's existence is checked here.
func NewScenario(c *catalog.Catalog, ev models.Event) (*Scenario, error) {
	ing, ok := c.Ingredient(ev.Ingredient())
	if !ok {
		return nil, &models.UnknownIngredientError{ID: ev.Ingredient()}
	}
	s := &Scenario{
		catalog:  c,
		event:    ev,
		target:   ing.ID,
		unitCost: ing.UnitCost,
		leadTime: ing.LeadTimeDays,
	}
	switch e := ev.(type) {
	case models.PriceChange:
		s.unitCost = ing.UnitCost.Mul(decimal.NewFromInt(1).Add(decimal.NewFromFloat(e.PercentDelta)))
	case models.SupplyDelay:
		s.leadTime = ing.LeadTimeDays + e.DaysDelta
	}
	return s, nil
}

// Catalog returns the underlying catalog
func (s *Scenario) Catalog() *catalog.Catalog { return s.catalog }

// Event returns the applied event, nil for the base view
func (s *Scenario) Event() models.Event { return s.event }

// UnitCost returns the scenario cost of an ingredient
func (s *Scenario) UnitCost(ingredientID string) decimal.Decimal {
	if s.event != nil && ingredientID == s.target {
		return s.unitCost
	}
	ing, _ := s.catalog.Ingredient(ingredientID)
	return ing.UnitCost
}

// LeadTimeDays returns the scenario lead time of an ingredient
func (s *Scenario) LeadTimeDays(ingredientID string) int {
	if s.event != nil && ingredientID == s.target {
		return s.leadTime
	}
	ing, _ := s.catalog.Ingredient(ingredientID)
	return ing.LeadTimeDays
}

// DishCost sums quantity times scenario unit cost over the full bill of
// materials of a dish.
func (s *Scenario) DishCost(menuItemID string) decimal.Decimal {
	total := decimal.Zero
	for _, e := range s.catalog.BOM(menuItemID) {
		total = total.Add(e.Quantity.Mul(s.UnitCost(e.IngredientID)))
	}
	return total
}
