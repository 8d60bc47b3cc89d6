package costmodel

import (
	"testing"

	"menushock/internal/catalog/catalogtest"
	"menushock/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s %v", want, got, msgAndArgs)
}

func TestApplyEventPriceChange(t *testing.T) {
	c := catalogtest.Pizzeria(t)

	sc, err := ApplyEvent(c, models.PriceChange{IngredientID: "tomato_sauce", PercentDelta: 0.22}, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, sc.Dishes, 2)
	// marinara uses more sauce so it moves first
	assert.Equal(t, "marinara", sc.Dishes[0].MenuItemID)
	assertDecimal(t, "0.22", sc.Dishes[0].CostDelta)
	assert.Equal(t, "margherita", sc.Dishes[1].MenuItemID)
	assertDecimal(t, "0.132", sc.Dishes[1].CostDelta)

	margherita := sc.Dishes[1]
	assertDecimal(t, "2.265", margherita.OldCost)
	assertDecimal(t, "2.397", margherita.NewCost)
	assertDecimal(t, "9.735", margherita.OldMargin)
	assertDecimal(t, "9.603", margherita.NewMargin)
	assertDecimal(t, "0.011", margherita.MarginPctDrop)
	assertDecimal(t, "13.2", margherita.MonthlyImpact)

	assertDecimal(t, "35.2", sc.TotalMonthlyImpact)
	assertDecimal(t, "2.44", sc.Adjusted.UnitCost)
	assertDecimal(t, "2", sc.Base.UnitCost)
	assertDecimal(t, "0.022", sc.MaxMarginPctDrop())
}

func TestApplyEventIdentity(t *testing.T) {
	c := catalogtest.Pizzeria(t)

	sc, err := ApplyEvent(c, models.PriceChange{IngredientID: "mozzarella", PercentDelta: 0}, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, sc.Dishes, 2)
	for _, d := range sc.Dishes {
		assert.True(t, d.CostDelta.IsZero(), d.MenuItemID)
		assert.True(t, d.OldCost.Equal(d.NewCost), d.MenuItemID)
		assert.True(t, d.MarginPctDrop.IsZero(), d.MenuItemID)
	}
	// equal deltas fall back to id order
	assert.Equal(t, "insalata", sc.Dishes[0].MenuItemID)
	assert.Equal(t, "margherita", sc.Dishes[1].MenuItemID)
}

func TestApplyEventSupplyDelayKeepsCost(t *testing.T) {
	c := catalogtest.Pizzeria(t)

	sc, err := ApplyEvent(c, models.SupplyDelay{IngredientID: "00_flour", DaysDelta: 5}, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 9, sc.Adjusted.LeadTimeDays)
	assert.Equal(t, 9, sc.Scenario.LeadTimeDays("00_flour"))
	assert.Equal(t, 2, sc.Scenario.LeadTimeDays("semolina_flour"))
	require.Len(t, sc.Dishes, 2)
	for _, d := range sc.Dishes {
		assert.True(t, d.CostDelta.IsZero())
	}
	assert.True(t, sc.TotalMonthlyImpact.IsZero())
}

func TestApplyEventUnusedIngredient(t *testing.T) {
	c := catalogtest.Pizzeria(t)

	sc, err := ApplyEvent(c, models.PriceChange{IngredientID: "truffle_oil", PercentDelta: 0.5}, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, sc.Dishes)
	assert.True(t, sc.MaxMarginPctDrop().IsZero())
}

func TestApplyEventUnknownIngredient(t *testing.T) {
	c := catalogtest.Pizzeria(t)

	_, err := ApplyEvent(c, models.PriceChange{IngredientID: "saffron", PercentDelta: 0.1}, DefaultOptions())

	var unknown *models.UnknownIngredientError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "saffron", unknown.ID)
}

func TestScenarioDoesNotTouchCatalog(t *testing.T) {
	c := catalogtest.Pizzeria(t)
	before := c.Fingerprint()

	s, err := NewScenario(c, models.PriceChange{IngredientID: "basil", PercentDelta: 1.5})
	require.NoError(t, err)
	assertDecimal(t, "45", s.UnitCost("basil"))

	ing, _ := c.Ingredient("basil")
	assertDecimal(t, "18", ing.UnitCost)
	assertDecimal(t, "18", Base(c).UnitCost("basil"))
	assert.Equal(t, before, c.Fingerprint())
}

func TestBaseline(t *testing.T) {
	c := catalogtest.Pizzeria(t)

	dishes := Baseline(c)
	require.Len(t, dishes, 3)
	assert.Equal(t, []string{"insalata", "margherita", "marinara"}, []string{dishes[0].MenuItemID, dishes[1].MenuItemID, dishes[2].MenuItemID})

	marinara := dishes[2]
	assertDecimal(t, "1.3", marinara.Cost)
	assertDecimal(t, "0.13", marinara.CostRatio)
	assertDecimal(t, "0.87", marinara.MarginPct)
	require.Len(t, marinara.Lines, 2)
	assert.Equal(t, "00_flour", marinara.Lines[0].IngredientID)
	assertDecimal(t, "0.3", marinara.Lines[0].Cost)
}

func TestCategoryBreakdown(t *testing.T) {
	c := catalogtest.Pizzeria(t)

	pizzas := CategoryBreakdown(c, "PIZZA")
	require.Len(t, pizzas, 2)
	// margherita 2.265/12 = 0.189 beats marinara 1.30/10 = 0.13
	assert.Equal(t, "margherita", pizzas[0].MenuItemID)
	assert.Equal(t, "marinara", pizzas[1].MenuItemID)

	assert.Len(t, CategoryBreakdown(c, ""), 3)
	assert.Empty(t, CategoryBreakdown(c, "dessert"))
}
