package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MenuItem represents a dish on the menu
type MenuItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name,omitempty"`
	Category  string          `json:"category"`
	SalePrice decimal.Decimal `json:"sale_price"`
}

// BOMEntry is one line of a dish's bill of materials
type BOMEntry struct {
	MenuItemID   string          `json:"menu_item_id"`
	IngredientID string          `json:"ingredient_id"`
	Quantity     decimal.Decimal `json:"quantity_per_dish"`
	Unit         string          `json:"unit,omitempty"`
}

// SubstitutionRule is a directed "original may be replaced by substitute" edge
type SubstitutionRule struct {
	OriginalID       string `json:"original_ingredient_id"`
	SubstituteID     string `json:"substitute_ingredient_id"`
	Rationale        string `json:"rationale"`
	CompatibilityTag string `json:"compatibility_tag"`
	Allowed          bool   `json:"allowed"`
}

// DisplayName returns the dish name, or a readable form of its id
func (mi MenuItem) DisplayName() string {
	if mi.Name != "" {
		return mi.Name
	}
	return Humanize(mi.ID)
}

// IsInCategory checks if the item belongs to a category, ignoring case
func (mi MenuItem) IsInCategory(category string) bool {
	return strings.EqualFold(strings.TrimSpace(mi.Category), strings.TrimSpace(category))
}
