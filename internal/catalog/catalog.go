// Package catalog loads, validates and indexes the reference datasets:
// ingredients, menu items, bills of materials and substitution rules.
package catalog

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"menushock/internal/models"

	"github.com/cespare/xxhash/v2"
	"github.com/shopspring/decimal"
)

// Usage is one dish that consumes an ingredient
type Usage struct {
	MenuItemID string          `json:"menu_item_id"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// Stats counts the records in a catalog
type Stats struct {
	Ingredients   int `json:"ingredients"`
	MenuItems     int `json:"menu_items"`
	BOMEntries    int `json:"bom_entries"`
	Substitutions int `json:"substitutions"`
}

// Catalog is an immutable, indexed view of the reference data. It is safe for
// concurrent readers; accessors return copies.
type Catalog struct {
	ingredients map[string]models.Ingredient
	menu        map[string]models.MenuItem
	bom         map[string][]models.BOMEntry         // by menu item, sorted by ingredient id
	usages      map[string][]Usage                   // by ingredient, sorted by menu item id
	rules       map[string][]models.SubstitutionRule // by original, sorted by substitute id
	stats       Stats
	fingerprint string
}

// Ingredient looks up an ingredient by id
func (c *Catalog) Ingredient(id string) (models.Ingredient, bool) {
	ing, ok := c.ingredients[id]
	return ing, ok
}

// MenuItem looks up a dish by id
func (c *Catalog) MenuItem(id string) (models.MenuItem, bool) {
	item, ok := c.menu[id]
	return item, ok
}

// BOM returns the bill of materials of a dish
func (c *Catalog) BOM(menuItemID string) []models.BOMEntry {
	return slices.Clone(c.bom[menuItemID])
}

// Usages returns every dish that uses the ingredient
func (c *Catalog) Usages(ingredientID string) []Usage {
	return slices.Clone(c.usages[ingredientID])
}

// Rules returns the substitution rules where the ingredient is the original
func (c *Catalog) Rules(ingredientID string) []models.SubstitutionRule {
	return slices.Clone(c.rules[ingredientID])
}

// Ingredients returns all ingredients sorted by id
func (c *Catalog) Ingredients() []models.Ingredient {
	out := make([]models.Ingredient, 0, len(c.ingredients))
	for _, ing := range c.ingredients {
		out = append(out, ing)
	}
	slices.SortFunc(out, func(a, b models.Ingredient) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// MenuItems returns all dishes sorted by id
func (c *Catalog) MenuItems() []models.MenuItem {
	out := make([]models.MenuItem, 0, len(c.menu))
	for _, item := range c.menu {
		out = append(out, item)
	}
	slices.SortFunc(out, func(a, b models.MenuItem) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Stats returns record counts
func (c *Catalog) Stats() Stats {
	return c.stats
}

// Fingerprint identifies the catalog contents. Two catalogs built from the
// same records share a fingerprint.
func (c *Catalog) Fingerprint() string {
	return c.fingerprint
}

// Build validates the records and returns an indexed catalog, or a
// *ValidationError listing every problem found.
func Build(ingredients []models.Ingredient, menu []models.MenuItem, bom []models.BOMEntry, rules []models.SubstitutionRule) (*Catalog, error) {
	b := newBuilder()
	for i, ing := range ingredients {
		b.addIngredient(TableIngredients, i+1, ing)
	}
	for i, item := range menu {
		b.addMenuItem(TableMenu, i+1, item)
	}
	for i, entry := range bom {
		b.addBOMEntry(TableBOM, i+1, entry)
	}
	for i, rule := range rules {
		b.addRule(TableSubstitutions, i+1, rule)
	}
	return b.build()
}

type located[T any] struct {
	file string
	row  int
	rec  T
}

// builder accumulates records and violations before indexing
type builder struct {
	violations  []Violation
	ingredients map[string]models.Ingredient
	menu        map[string]models.MenuItem
	bom         []located[models.BOMEntry]
	rules       []located[models.SubstitutionRule]
	// tables that failed to parse; foreign keys into them are not checked
	broken map[string]bool
}

func newBuilder() *builder {
	return &builder{
		ingredients: make(map[string]models.Ingredient),
		menu:        make(map[string]models.MenuItem),
		broken:      make(map[string]bool),
	}
}

func (b *builder) fail(file string, row int, format string, args ...any) {
	b.violations = append(b.violations, Violation{File: file, Row: row, Reason: fmt.Sprintf(format, args...)})
}

func (b *builder) addIngredient(file string, row int, ing models.Ingredient) {
	if strings.TrimSpace(ing.ID) == "" {
		b.fail(file, row, "ingredient id is blank")
		return
	}
	if ing.UnitCost.IsNegative() {
		b.fail(file, row, "ingredient %q has negative unit cost %s", ing.ID, ing.UnitCost)
	}
	if ing.LeadTimeDays < 0 {
		b.fail(file, row, "ingredient %q has negative lead time %d", ing.ID, ing.LeadTimeDays)
	}
	if _, dup := b.ingredients[ing.ID]; dup {
		b.fail(file, row, "duplicate ingredient id %q", ing.ID)
		return
	}
	b.ingredients[ing.ID] = ing
}

func (b *builder) addMenuItem(file string, row int, item models.MenuItem) {
	if strings.TrimSpace(item.ID) == "" {
		b.fail(file, row, "menu item id is blank")
		return
	}
	if !item.SalePrice.IsPositive() {
		b.fail(file, row, "menu item %q price must be greater than 0, got %s", item.ID, item.SalePrice)
	}
	if _, dup := b.menu[item.ID]; dup {
		b.fail(file, row, "duplicate menu item id %q", item.ID)
		return
	}
	b.menu[item.ID] = item
}

func (b *builder) addBOMEntry(file string, row int, entry models.BOMEntry) {
	b.bom = append(b.bom, located[models.BOMEntry]{file: file, row: row, rec: entry})
}

func (b *builder) addRule(file string, row int, rule models.SubstitutionRule) {
	b.rules = append(b.rules, located[models.SubstitutionRule]{file: file, row: row, rec: rule})
}

func (b *builder) build() (*Catalog, error) {
	c := &Catalog{
		ingredients: b.ingredients,
		menu:        b.menu,
		bom:         make(map[string][]models.BOMEntry),
		usages:      make(map[string][]Usage),
		rules:       make(map[string][]models.SubstitutionRule),
	}

	seenBOM := make(map[[2]string]bool)
	for _, l := range b.bom {
		e := l.rec
		ok := true
		if _, found := b.menu[e.MenuItemID]; !found && !b.broken[TableMenu] {
			b.fail(l.file, l.row, "menu item %q not found in %s", e.MenuItemID, TableMenu)
			ok = false
		}
		if _, found := b.ingredients[e.IngredientID]; !found && !b.broken[TableIngredients] {
			b.fail(l.file, l.row, "ingredient %q not found in %s", e.IngredientID, TableIngredients)
			ok = false
		}
		if e.Quantity.IsNegative() {
			b.fail(l.file, l.row, "quantity %s for %q in %q is negative", e.Quantity, e.IngredientID, e.MenuItemID)
			ok = false
		}
		key := [2]string{e.MenuItemID, e.IngredientID}
		if seenBOM[key] {
			b.fail(l.file, l.row, "duplicate bill of materials entry (%q, %q)", e.MenuItemID, e.IngredientID)
			ok = false
		}
		seenBOM[key] = true
		if !ok {
			continue
		}
		c.bom[e.MenuItemID] = append(c.bom[e.MenuItemID], e)
		c.usages[e.IngredientID] = append(c.usages[e.IngredientID], Usage{MenuItemID: e.MenuItemID, Quantity: e.Quantity})
		c.stats.BOMEntries++
	}

	seenRules := make(map[[3]string]bool)
	for _, l := range b.rules {
		r := l.rec
		ok := true
		if _, found := b.ingredients[r.OriginalID]; !found && !b.broken[TableIngredients] {
			b.fail(l.file, l.row, "original ingredient %q not found in %s", r.OriginalID, TableIngredients)
			ok = false
		}
		if _, found := b.ingredients[r.SubstituteID]; !found && !b.broken[TableIngredients] {
			b.fail(l.file, l.row, "substitute ingredient %q not found in %s", r.SubstituteID, TableIngredients)
			ok = false
		}
		if r.OriginalID == r.SubstituteID {
			b.fail(l.file, l.row, "ingredient %q cannot substitute itself", r.OriginalID)
			ok = false
		}
		key := [3]string{r.OriginalID, r.SubstituteID, strings.ToLower(r.CompatibilityTag)}
		if seenRules[key] {
			b.fail(l.file, l.row, "duplicate substitution rule %q -> %q (%s)", r.OriginalID, r.SubstituteID, r.CompatibilityTag)
			ok = false
		}
		seenRules[key] = true
		if !ok {
			continue
		}
		c.rules[r.OriginalID] = append(c.rules[r.OriginalID], r)
		c.stats.Substitutions++
	}

	if len(b.violations) > 0 {
		return nil, &ValidationError{Violations: b.violations}
	}

	for id := range c.bom {
		slices.SortFunc(c.bom[id], func(a, b models.BOMEntry) int { return cmp.Compare(a.IngredientID, b.IngredientID) })
	}
	for id := range c.usages {
		slices.SortFunc(c.usages[id], func(a, b Usage) int { return cmp.Compare(a.MenuItemID, b.MenuItemID) })
	}
	for id := range c.rules {
		slices.SortFunc(c.rules[id], func(a, b models.SubstitutionRule) int {
			return cmp.Or(cmp.Compare(a.SubstituteID, b.SubstituteID), cmp.Compare(a.CompatibilityTag, b.CompatibilityTag))
		})
	}
	c.stats.Ingredients = len(c.ingredients)
	c.stats.MenuItems = len(c.menu)
	c.fingerprint = fingerprint(c)
	return c, nil
}

// fingerprint hashes the canonical, sorted form of every record
func fingerprint(c *Catalog) string {
	d := xxhash.New()
	for _, ing := range c.Ingredients() {
		fmt.Fprintf(d, "i|%s|%s|%s|%s|%d|%s\n", ing.ID, ing.Name, ing.UnitCost, ing.SupplierID, ing.LeadTimeDays, ing.Unit)
	}
	for _, item := range c.MenuItems() {
		fmt.Fprintf(d, "m|%s|%s|%s|%s\n", item.ID, item.Name, item.Category, item.SalePrice)
		for _, e := range c.bom[item.ID] {
			fmt.Fprintf(d, "b|%s|%s|%s|%s\n", e.MenuItemID, e.IngredientID, e.Quantity, e.Unit)
		}
	}
	for _, ing := range c.Ingredients() {
		for _, r := range c.rules[ing.ID] {
			fmt.Fprintf(d, "s|%s|%s|%s|%t|%s\n", r.OriginalID, r.SubstituteID, r.CompatibilityTag, r.Allowed, r.Rationale)
		}
	}
	return fmt.Sprintf("%016x", d.Sum64())
}
