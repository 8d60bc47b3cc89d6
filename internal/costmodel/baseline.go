package costmodel

import (
	"cmp"
	"slices"

	"menushock/internal/catalog"
	"menushock/internal/models"

	"github.com/shopspring/decimal"
)

// LineCost is one bill of materials line priced at base cost
type LineCost struct {
	IngredientID string          `json:"ingredient_id"`
	Name         string          `json:"name"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit,omitempty"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	Cost         decimal.Decimal `json:"cost"`
}

// DishCost is the base cost picture of one dish
type DishCost struct {
	MenuItemID string          `json:"menu_item_id"`
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	SalePrice  decimal.Decimal `json:"sale_price"`
	Cost       decimal.Decimal `json:"cost"`
	Margin     decimal.Decimal `json:"margin"`
	MarginPct  decimal.Decimal `json:"margin_pct"`
	// CostRatio is cost over sale price
	CostRatio decimal.Decimal `json:"cost_ratio"`
	Lines     []LineCost      `json:"lines"`
}

// Baseline prices every dish, sorted by id
func Baseline(c *catalog.Catalog) []DishCost {
	items := c.MenuItems()
	out := make([]DishCost, 0, len(items))
	for _, item := range items {
		out = append(out, dishCost(c, item))
	}
	return out
}

// CategoryBreakdown prices the dishes of one category, highest cost ratio
// first. The category match ignores case; an empty category selects all.
func CategoryBreakdown(c *catalog.Catalog, category string) []DishCost {
	var out []DishCost
	for _, item := range c.MenuItems() {
		if category != "" && !item.IsInCategory(category) {
			continue
		}
		out = append(out, dishCost(c, item))
	}
	slices.SortFunc(out, func(a, b DishCost) int {
		return cmp.Or(b.CostRatio.Cmp(a.CostRatio), cmp.Compare(a.MenuItemID, b.MenuItemID))
	})
	return out
}

func dishCost(c *catalog.Catalog, item models.MenuItem) DishCost {
	dc := DishCost{
		MenuItemID: item.ID,
		Name:       item.DisplayName(),
		Category:   item.Category,
		SalePrice:  item.SalePrice,
		Cost:       decimal.Zero,
	}
	for _, e := range c.BOM(item.ID) {
		ing, _ := c.Ingredient(e.IngredientID)
		line := LineCost{
			IngredientID: ing.ID,
			Name:         ing.DisplayName(),
			Quantity:     e.Quantity,
			Unit:         cmp.Or(e.Unit, ing.Unit),
			UnitCost:     ing.UnitCost,
			Cost:         e.Quantity.Mul(ing.UnitCost),
		}
		dc.Cost = dc.Cost.Add(line.Cost)
		dc.Lines = append(dc.Lines, line)
	}
	dc.Margin = item.SalePrice.Sub(dc.Cost)
	dc.MarginPct = dc.Margin.Div(item.SalePrice)
	dc.CostRatio = dc.Cost.Div(item.SalePrice)
	return dc
}
