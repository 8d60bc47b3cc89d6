package catalog

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"menushock/internal/models"

	"github.com/shopspring/decimal"
)

// Table names, also the CSV base names
const (
	TableIngredients   = "ingredients"
	TableMenu          = "menu"
	TableBOM           = "menu_bom"
	TableSubstitutions = "substitutions"
)

// Tables lists every table a catalog is built from, in load order
var Tables = []string{TableIngredients, TableMenu, TableBOM, TableSubstitutions}

var requiredColumns = map[string][]string{
	TableIngredients:   {"ingredient", "base_cost_per_unit_usd", "supplier", "lead_time_days"},
	TableMenu:          {"menu_item", "category", "price_usd"},
	TableBOM:           {"menu_item", "ingredient", "qty"},
	TableSubstitutions: {"ingredient", "substitute", "context", "rationale"},
}

// Table is a raw, untyped table as read from a source
type Table struct {
	Name   string
	File   string // reported in violations
	Header []string
	Rows   [][]string
	// FirstRow is the row number of Rows[0] as the operator sees it
	FirstRow int
	// Lines, when set, holds the file line of each row and overrides FirstRow
	Lines []int
}

func (t *Table) rowNumber(i int) int {
	if i < len(t.Lines) {
		return t.Lines[i]
	}
	return t.FirstRow + i
}

// Source reads raw tables by name
type Source interface {
	ReadTable(ctx context.Context, name string) (*Table, error)
	Describe() string
}

// Load reads the four tables from the source, validates them and returns an
// immutable catalog. Every problem found is reported in one *ValidationError.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	b := newBuilder()
	for _, name := range Tables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, err := src.ReadTable(ctx, name)
		if err != nil {
			b.broken[name] = true
			b.fail(name, 0, "cannot read table: %v", err)
			continue
		}
		parseTable(b, t)
	}
	return b.build()
}

// row wraps one record with its header index
type row struct {
	b      *builder
	t      *Table
	num    int
	cols   map[string]int
	values []string
	ok     bool
}

func (r *row) str(col string) string {
	i, found := r.cols[col]
	if !found || i >= len(r.values) {
		return ""
	}
	return strings.TrimSpace(r.values[i])
}

func (r *row) decimal(col string) decimal.Decimal {
	raw := r.str(col)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		r.b.fail(r.t.File, r.num, "column %q: %q is not a number", col, raw)
		r.ok = false
	}
	return d
}

func (r *row) days(col string) int {
	raw := r.str(col)
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		r.b.fail(r.t.File, r.num, "column %q: %q is not a whole number of days", col, raw)
		r.ok = false
		return 0
	}
	return int(f)
}

func (r *row) boolean(col string, fallback bool) bool {
	raw := r.str(col)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		r.b.fail(r.t.File, r.num, "column %q: %q is not a boolean", col, raw)
		r.ok = false
	}
	return v
}

func parseTable(b *builder, t *Table) {
	cols := make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, c := range requiredColumns[t.Name] {
		if _, found := cols[c]; !found {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		b.broken[t.Name] = true
		headerRow := t.FirstRow - 1
		for _, c := range missing {
			b.fail(t.File, headerRow, "missing required column %q", c)
		}
		return
	}

	for i, values := range t.Rows {
		r := &row{b: b, t: t, num: t.rowNumber(i), cols: cols, values: values, ok: true}
		if isBlank(values) {
			continue
		}
		switch t.Name {
		case TableIngredients:
			ing := models.Ingredient{
				ID:           r.str("ingredient"),
				Name:         r.str("name"),
				UnitCost:     r.decimal("base_cost_per_unit_usd"),
				SupplierID:   r.str("supplier"),
				LeadTimeDays: r.days("lead_time_days"),
				Unit:         r.str("unit"),
			}
			if r.ok {
				b.addIngredient(t.File, r.num, ing)
			}
		case TableMenu:
			item := models.MenuItem{
				ID:        r.str("menu_item"),
				Name:      r.str("name"),
				Category:  r.str("category"),
				SalePrice: r.decimal("price_usd"),
			}
			if r.ok {
				b.addMenuItem(t.File, r.num, item)
			}
		case TableBOM:
			entry := models.BOMEntry{
				MenuItemID:   r.str("menu_item"),
				IngredientID: r.str("ingredient"),
				Quantity:     r.decimal("qty"),
				Unit:         r.str("unit"),
			}
			if r.ok {
				b.addBOMEntry(t.File, r.num, entry)
			}
		case TableSubstitutions:
			rule := models.SubstitutionRule{
				OriginalID:       r.str("ingredient"),
				SubstituteID:     r.str("substitute"),
				CompatibilityTag: r.str("context"),
				Rationale:        r.str("rationale"),
				Allowed:          r.boolean("allowed", true),
			}
			if r.ok {
				b.addRule(t.File, r.num, rule)
			}
		default:
			b.fail(t.File, 0, "unknown table %q", t.Name)
			return
		}
	}
}

func isBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// describeTable is used in source error messages
func describeTable(name string) string {
	return fmt.Sprintf("%s.csv", name)
}
