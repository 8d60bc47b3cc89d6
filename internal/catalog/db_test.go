package catalog_test

import (
	"context"
	"testing"

	"menushock/internal/catalog"
	"menushock/internal/database"

	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, db *gorm.DB) {
	t.Helper()
	stmts := []string{
		`CREATE TABLE ingredients (ingredient TEXT, base_cost_per_unit_usd REAL, supplier TEXT, lead_time_days INTEGER)`,
		`CREATE TABLE menu (menu_item TEXT, category TEXT, price_usd REAL)`,
		`CREATE TABLE menu_bom (menu_item TEXT, ingredient TEXT, qty REAL)`,
		`CREATE TABLE substitutions (ingredient TEXT, substitute TEXT, context TEXT, rationale TEXT, allowed BOOLEAN)`,
		`INSERT INTO ingredients VALUES ('tomato_sauce', 2.0, 'campania_foods', 3), ('00_flour', 1.2, 'molino_rossi', 4), ('semolina_flour', 1.35, 'molino_rossi', 2)`,
		`INSERT INTO menu VALUES ('margherita', 'pizza', 12.0)`,
		`INSERT INTO menu_bom VALUES ('margherita', 'tomato_sauce', 0.3), ('margherita', '00_flour', 0.25)`,
		`INSERT INTO substitutions VALUES ('00_flour', 'semolina_flour', 'pizza', 'crisper crust', 0)`,
	}
	for _, stmt := range stmts {
		require.NoError(t, db.Exec(stmt).Error)
	}
}

func TestLoadDBSource(t *testing.T) {
	db, err := database.Open(database.DialectSQLite, database.MemoryDSN)
	require.NoError(t, err)
	defer db.Close()
	seed(t, db)

	c, err := catalog.Load(context.Background(), catalog.NewDBSource(db))
	require.NoError(t, err)

	assert.Equal(t, catalog.Stats{Ingredients: 3, MenuItems: 1, BOMEntries: 2, Substitutions: 1}, c.Stats())
	rules := c.Rules("00_flour")
	require.Len(t, rules, 1)
	assert.False(t, rules[0].Allowed)
}

func TestLoadDBSourceMissingTable(t *testing.T) {
	db, err := database.Open(database.DialectSQLite, database.MemoryDSN)
	require.NoError(t, err)
	defer db.Close()

	_, err = catalog.Load(context.Background(), catalog.NewDBSource(db))

	var verr *catalog.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Violations, len(catalog.Tables))
	assert.Equal(t, "db:sqlite3", catalog.NewDBSource(db).Describe())
}
