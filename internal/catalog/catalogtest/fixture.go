// Package catalogtest provides a small pizzeria catalog for tests.
//
// Base costs per dish:
//
//	margherita  2.265 (price 12)
//	marinara    1.30  (price 10)
//	insalata    1.03  (price 9)
//
// truffle_oil is used by no dish and has no substitution rules.
package catalogtest

import (
	"testing"

	"menushock/internal/catalog"
	"menushock/internal/models"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func Ingredients() []models.Ingredient {
	return []models.Ingredient{
		{ID: "tomato_sauce", Name: "Tomato sauce", UnitCost: d("2.00"), SupplierID: "campania_foods", LeadTimeDays: 3, Unit: "kg"},
		{ID: "00_flour", Name: "00 flour", UnitCost: d("1.20"), SupplierID: "molino_rossi", LeadTimeDays: 4, Unit: "kg"},
		{ID: "semolina_flour", Name: "Semolina flour", UnitCost: d("1.35"), SupplierID: "molino_rossi", LeadTimeDays: 2, Unit: "kg"},
		{ID: "whole_wheat_flour", Name: "Whole wheat flour", UnitCost: d("1.10"), SupplierID: "grain_co", LeadTimeDays: 9, Unit: "kg"},
		{ID: "mozzarella", Name: "Mozzarella", UnitCost: d("8.50"), SupplierID: "caseificio_bianchi", LeadTimeDays: 2, Unit: "kg"},
		{ID: "vegan_mozzarella", Name: "Plant-based mozzarella", UnitCost: d("9.20"), SupplierID: "green_dairy", LeadTimeDays: 6, Unit: "kg"},
		{ID: "basil", Name: "Fresh basil", UnitCost: d("18.00"), SupplierID: "local_farm", LeadTimeDays: 1, Unit: "kg"},
		{ID: "truffle_oil", Name: "Truffle oil", UnitCost: d("120.00"), SupplierID: "oleificio_sud", LeadTimeDays: 14, Unit: "l"},
	}
}

func Menu() []models.MenuItem {
	return []models.MenuItem{
		{ID: "margherita", Name: "Pizza Margherita", Category: "pizza", SalePrice: d("12.00")},
		{ID: "marinara", Name: "Pizza Marinara", Category: "pizza", SalePrice: d("10.00")},
		{ID: "insalata", Name: "Insalata Caprese", Category: "salad", SalePrice: d("9.00")},
	}
}

func BOM() []models.BOMEntry {
	return []models.BOMEntry{
		{MenuItemID: "margherita", IngredientID: "00_flour", Quantity: d("0.25"), Unit: "kg"},
		{MenuItemID: "margherita", IngredientID: "tomato_sauce", Quantity: d("0.3"), Unit: "kg"},
		{MenuItemID: "margherita", IngredientID: "mozzarella", Quantity: d("0.15"), Unit: "kg"},
		{MenuItemID: "margherita", IngredientID: "basil", Quantity: d("0.005"), Unit: "kg"},
		{MenuItemID: "marinara", IngredientID: "00_flour", Quantity: d("0.25"), Unit: "kg"},
		{MenuItemID: "marinara", IngredientID: "tomato_sauce", Quantity: d("0.5"), Unit: "kg"},
		{MenuItemID: "insalata", IngredientID: "mozzarella", Quantity: d("0.1"), Unit: "kg"},
		{MenuItemID: "insalata", IngredientID: "basil", Quantity: d("0.01"), Unit: "kg"},
	}
}

func Rules() []models.SubstitutionRule {
	return []models.SubstitutionRule{
		{OriginalID: "00_flour", SubstituteID: "semolina_flour", CompatibilityTag: "pizza", Allowed: true, Rationale: "crisper crust, same mill"},
		{OriginalID: "00_flour", SubstituteID: "whole_wheat_flour", CompatibilityTag: "all", Allowed: true, Rationale: "works across the menu"},
		{OriginalID: "mozzarella", SubstituteID: "vegan_mozzarella", CompatibilityTag: "all", Allowed: true, Rationale: "melts well"},
		{OriginalID: "basil", SubstituteID: "truffle_oil", CompatibilityTag: "salad", Allowed: false, Rationale: "not a herb"},
	}
}

// Pizzeria builds the fixture catalog
func Pizzeria(t testing.TB) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Build(Ingredients(), Menu(), BOM(), Rules())
	if err != nil {
		t.Fatalf("build fixture catalog: %v", err)
	}
	return c
}
