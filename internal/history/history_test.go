package history

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"menushock/internal/analysis"
	"menushock/internal/catalog/catalogtest"
	"menushock/internal/database"
	"menushock/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(database.DialectSQLite, database.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := NewStore(db)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2024, 5, 17, 19, 30, 0, 0, time.UTC) }
	return s
}

func analyze(t *testing.T, ev models.Event) *models.AnalysisResult {
	t.Helper()
	result, err := analysis.Analyze(catalogtest.Pizzeria(t), ev, analysis.DefaultOptions())
	require.NoError(t, err)
	return result
}

func TestAppendAndList(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	session := NewSessionID()

	_, err := s.Append(ctx, session, "tomatoes up 22%", analyze(t, models.PriceChange{IngredientID: "tomato_sauce", PercentDelta: 0.22}))
	require.NoError(t, err)
	_, err = s.Append(ctx, session, "", analyze(t, models.SupplyDelay{IngredientID: "00_flour", DaysDelta: 5}))
	require.NoError(t, err)
	_, err = s.Append(ctx, NewSessionID(), "", analyze(t, models.SupplyDelay{IngredientID: "basil", DaysDelta: 1}))
	require.NoError(t, err)

	entries, err := s.List(ctx, session)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "tomato_sauce", entries[0].IngredientID)
	assert.Equal(t, "high", entries[0].RiskTier)
	assert.Equal(t, "35.20", entries[0].TotalMonthlyImpact)
	assert.Equal(t, "00_flour", entries[1].IngredientID)
	require.Len(t, entries[1].Result.Recommendations, 2)
	assert.Equal(t, "semolina_flour", entries[1].Result.Recommendations[0].SubstituteID)
}

func TestAppendRequiresSession(t *testing.T) {
	s := newStore(t)
	_, err := s.Append(context.Background(), " ", "", analyze(t, models.SupplyDelay{IngredientID: "basil", DaysDelta: 1}))
	assert.Error(t, err)
}

func TestClear(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	session := NewSessionID()
	for i := 0; i < 3; i++ {
		_, err := s.Append(ctx, session, "", analyze(t, models.SupplyDelay{IngredientID: "basil", DaysDelta: i}))
		require.NoError(t, err)
	}

	n, err := s.Clear(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	entries, err := s.List(ctx, session)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExportCSV(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	session := NewSessionID()
	_, err := s.Append(ctx, session, "flour is 5 days late", analyze(t, models.SupplyDelay{IngredientID: "00_flour", DaysDelta: 5}))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.ExportCSV(ctx, session, &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{
		"2024-05-17 19:30:00",
		"flour is 5 days late",
		"shipments of 00_flour are delayed by 5 days",
		"high",
		"2",
		"0.00",
		"semolina_flour",
	}, rows[1][:7])
	assert.Contains(t, rows[1][7], "Event: shipments of 00_flour are delayed by 5 days")
}
