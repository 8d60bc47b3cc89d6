package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Ingredient represents a purchasable input with its base supplier terms
type Ingredient struct {
	ID           string          `json:"id"`
	Name         string          `json:"name,omitempty"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	SupplierID   string          `json:"supplier_id"`
	LeadTimeDays int             `json:"lead_time_days"`
	Unit         string          `json:"unit,omitempty"`
}

// DisplayName returns the ingredient name, or a readable form of its id
func (i Ingredient) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return Humanize(i.ID)
}

// Humanize turns a snake_case id into words
func Humanize(id string) string {
	return strings.ReplaceAll(id, "_", " ")
}
