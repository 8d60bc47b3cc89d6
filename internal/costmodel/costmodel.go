package costmodel

import (
	"cmp"
	"slices"

	"menushock/internal/catalog"
	"menushock/internal/models"

	"github.com/shopspring/decimal"
)

// DefaultMonthlyUnits is the assumed monthly sales volume of every dish
const DefaultMonthlyUnits = 100

type Options struct {
	// MonthlyUnitsPerDish scales cost deltas into monthly impact
	MonthlyUnitsPerDish int `yaml:"monthly_units_per_dish" json:"monthly_units_per_dish"`
}

func DefaultOptions() Options {
	return Options{MonthlyUnitsPerDish: DefaultMonthlyUnits}
}

// ScenarioCosts is the result of applying one event
type ScenarioCosts struct {
	Scenario *Scenario
	// Base and Adjusted are the targeted ingredient before and after the event
	Base     models.Ingredient
	Adjusted models.Ingredient
	// Dishes are the dishes that use the ingredient, largest cost delta first
	Dishes             []models.DishImpact
	TotalMonthlyImpact decimal.Decimal
}

// MaxMarginPctDrop is the largest margin percentage drop across dishes
func (sc *ScenarioCosts) MaxMarginPctDrop() decimal.Decimal {
	drop := decimal.Zero
	for _, d := range sc.Dishes {
		drop = decimal.Max(drop, d.MarginPctDrop)
	}
	return drop
}

// ApplyEvent recomputes every dish that uses the event's ingredient
func ApplyEvent(c *catalog.Catalog, ev models.Event, opts Options) (*ScenarioCosts, error) {
	scenario, err := NewScenario(c, ev)
	if err != nil {
		return nil, err
	}
	base, _ := c.Ingredient(ev.Ingredient())
	adjusted := base
	adjusted.UnitCost = scenario.UnitCost(base.ID)
	adjusted.LeadTimeDays = scenario.LeadTimeDays(base.ID)

	baseView := Base(c)
	units := decimal.NewFromInt(int64(opts.MonthlyUnitsPerDish))
	out := &ScenarioCosts{Scenario: scenario, Base: base, Adjusted: adjusted, TotalMonthlyImpact: decimal.Zero}

	for _, u := range c.Usages(base.ID) {
		item, _ := c.MenuItem(u.MenuItemID)
		oldCost := baseView.DishCost(item.ID)
		newCost := scenario.DishCost(item.ID)
		d := impact(item, oldCost, newCost)
		d.Quantity = u.Quantity
		d.MonthlyImpact = d.CostDelta.Mul(units)
		out.TotalMonthlyImpact = out.TotalMonthlyImpact.Add(d.MonthlyImpact)
		out.Dishes = append(out.Dishes, d)
	}
	slices.SortFunc(out.Dishes, func(a, b models.DishImpact) int {
		return cmp.Or(b.CostDelta.Cmp(a.CostDelta), cmp.Compare(a.MenuItemID, b.MenuItemID))
	})
	return out, nil
}

func impact(item models.MenuItem, oldCost, newCost decimal.Decimal) models.DishImpact {
	oldMargin := item.SalePrice.Sub(oldCost)
	newMargin := item.SalePrice.Sub(newCost)
	oldPct := oldMargin.Div(item.SalePrice)
	newPct := newMargin.Div(item.SalePrice)
	return models.DishImpact{
		MenuItemID:    item.ID,
		Name:          item.DisplayName(),
		Category:      item.Category,
		SalePrice:     item.SalePrice,
		OldCost:       oldCost,
		NewCost:       newCost,
		CostDelta:     newCost.Sub(oldCost),
		OldMargin:     oldMargin,
		NewMargin:     newMargin,
		OldMarginPct:  oldPct,
		NewMarginPct:  newPct,
		MarginPctDrop: oldPct.Sub(newPct),
	}
}
