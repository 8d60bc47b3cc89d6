package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"menushock/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func copyDir(t *testing.T, from, to string) {
	t.Helper()
	entries, err := os.ReadDir(from)
	require.NoError(t, err)
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(from, e.Name()))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(to, e.Name()), data, 0o644))
	}
}

func TestStoreBeforeLoad(t *testing.T) {
	store := catalog.NewStore(catalog.NewDirSource("testdata/valid"))
	_, err := store.Current()
	assert.ErrorIs(t, err, catalog.ErrNotLoaded)
}

func TestStoreReloadKeepsPreviousOnFailure(t *testing.T) {
	dir := t.TempDir()
	copyDir(t, "testdata/valid", dir)
	store := catalog.NewStore(catalog.NewDirSource(dir))

	first, err := store.Reload(context.Background())
	require.NoError(t, err)

	copyDir(t, "testdata/broken", dir)
	_, err = store.Reload(context.Background())
	var verr *catalog.ValidationError
	require.ErrorAs(t, err, &verr)

	current, err := store.Current()
	require.NoError(t, err)
	assert.Same(t, first, current)
}

func TestStoreReloadRoundTrip(t *testing.T) {
	store := catalog.NewStore(catalog.NewDirSource("testdata/valid"))
	first, err := store.Reload(context.Background())
	require.NoError(t, err)
	second, err := store.Reload(context.Background())
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, first.Fingerprint(), second.Fingerprint())
	assert.Equal(t, first.Ingredients(), second.Ingredients())
	assert.Equal(t, first.MenuItems(), second.MenuItems())
}

func TestStoreConcurrentReaders(t *testing.T) {
	store := catalog.NewStore(catalog.NewDirSource("testdata/valid"))
	_, err := store.Reload(context.Background())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				c, err := store.Current()
				if assert.NoError(t, err) {
					assert.Equal(t, 4, c.Stats().Ingredients)
				}
			}
		}()
	}
	for i := 0; i < 5; i++ {
		_, err := store.Reload(context.Background())
		require.NoError(t, err)
	}
	wg.Wait()
}
