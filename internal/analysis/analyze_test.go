package analysis

import (
	"encoding/json"
	"sync"
	"testing"

	"menushock/internal/catalog/catalogtest"
	"menushock/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzePriceShock(t *testing.T) {
	c := catalogtest.Pizzeria(t)

	result, err := Analyze(c, models.PriceChange{IngredientID: "tomato_sauce", PercentDelta: 0.22}, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, result.AffectedDishes, 2)
	assert.Equal(t, "marinara", result.AffectedDishes[0].MenuItemID)
	assert.True(t, decimal.RequireFromString("0.22").Equal(result.AffectedDishes[0].CostDelta))
	assert.Equal(t, "margherita", result.AffectedDishes[1].MenuItemID)
	assert.True(t, decimal.RequireFromString("0.132").Equal(result.AffectedDishes[1].CostDelta))

	assert.Equal(t, models.RiskHigh, result.Risk.Tier)
	assert.Equal(t, "price_change_pct", result.Risk.Metric)
	assert.Empty(t, result.Recommendations)
	assert.Equal(t, c.Fingerprint(), result.CatalogFingerprint)
	assert.Equal(t, models.EventPriceChange, result.Event.Type)

	assert.Equal(t, []string{
		"Event: price of tomato_sauce increases by 22%",
		"tomato_sauce unit cost $2.00 -> $2.44",
		"marinara: cost $1.30 -> $1.52 (+$0.22), margin 87.0% -> 84.8%",
		"margherita: cost $2.27 -> $2.40 (+$0.13), margin 81.1% -> 80.0%",
		"Monthly impact at 100 units per dish: +$35.20",
		"Risk high: price_change_pct 0.22 >= 0.2 (table v1)",
		"No allowed substitution for tomato_sauce",
	}, result.Rationale)
}

func TestAnalyzeSupplyDelay(t *testing.T) {
	c := catalogtest.Pizzeria(t)

	result, err := Analyze(c, models.SupplyDelay{IngredientID: "00_flour", DaysDelta: 5}, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, result.Recommendations, 2)
	assert.Equal(t, "semolina_flour", result.Recommendations[0].SubstituteID)
	assert.Equal(t, "whole_wheat_flour", result.Recommendations[1].SubstituteID)
	assert.Equal(t, models.RiskHigh, result.Risk.Tier)
	assert.Equal(t, "new_lead_time_days", result.Risk.Metric)
	assert.Contains(t, result.Rationale, "00_flour lead time 4 -> 9 days")
	assert.Contains(t, result.Rationale,
		"#1 semolina_flour: unit cost +$0.15, lead time -7 days, compatibility partial (ranked by lead_time_delta, cost_delta, then id)")
	assert.True(t, result.TotalMonthlyImpact.IsZero())
}

func TestAnalyzeUnusedIngredient(t *testing.T) {
	c := catalogtest.Pizzeria(t)

	result, err := Analyze(c, models.PriceChange{IngredientID: "truffle_oil", PercentDelta: 0.8}, DefaultOptions())
	require.NoError(t, err)

	assert.Empty(t, result.AffectedDishes)
	assert.Empty(t, result.Recommendations)
	assert.Equal(t, models.RiskLow, result.Risk.Tier)
	assert.Contains(t, result.Rationale, "No menu item uses truffle_oil")

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"affected_dishes":[]`)
	assert.Contains(t, string(data), `"recommendations":[]`)
}

func TestAnalyzeRejectsMalformedEvent(t *testing.T) {
	c := catalogtest.Pizzeria(t)
	opts := DefaultOptions()

	// one unit below the limit is accepted
	_, err := Analyze(c, models.PriceChange{IngredientID: "tomato_sauce", PercentDelta: 9.99}, opts)
	require.NoError(t, err)

	_, err = Analyze(c, models.PriceChange{IngredientID: "tomato_sauce", PercentDelta: 10.0}, opts)
	var analysisErr *AnalysisError
	require.ErrorAs(t, err, &analysisErr)
	var malformed *models.MalformedEventError
	assert.ErrorAs(t, err, &malformed)

	_, err = Analyze(c, nil, opts)
	assert.ErrorAs(t, err, &malformed)
}

func TestAnalyzeUnknownIngredient(t *testing.T) {
	c := catalogtest.Pizzeria(t)

	_, err := Analyze(c, models.SupplyDelay{IngredientID: "saffron", DaysDelta: 2}, DefaultOptions())

	var unknown *models.UnknownIngredientError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "saffron", unknown.ID)
	assert.Contains(t, err.Error(), "ingredient not recognized")
}

func TestAnalyzeIsDeterministicAcrossReloads(t *testing.T) {
	ev := models.SupplyDelay{IngredientID: "00_flour", DaysDelta: 5}

	first, err := Analyze(catalogtest.Pizzeria(t), ev, DefaultOptions())
	require.NoError(t, err)
	second, err := Analyze(catalogtest.Pizzeria(t), ev, DefaultOptions())
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestAnalyzeConcurrent(t *testing.T) {
	c := catalogtest.Pizzeria(t)
	opts := DefaultOptions()
	ev := models.PriceChange{IngredientID: "mozzarella", PercentDelta: 0.3}

	want, err := Analyze(c, ev, opts)
	require.NoError(t, err)
	wantJSON, err := json.Marshal(want)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := Analyze(c, ev, opts)
			if !assert.NoError(t, err) {
				return
			}
			gotJSON, err := json.Marshal(got)
			if assert.NoError(t, err) {
				assert.JSONEq(t, string(wantJSON), string(gotJSON))
			}
		}()
	}
	wg.Wait()
}
