package cache_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lentoturva/report-etl/internal/cache"
	"github.com/lentoturva/report-etl/internal/domain"
)

func TestLocationCache(t *testing.T) {
	t.Run("load missing file is not an error", func(t *testing.T) {
		c := cache.NewLocationCache(filepath.Join(t.TempDir(), "locations.json"))
		require.NoError(t, c.Load())
		assert.Equal(t, 0, c.Len())
	})

	t.Run("corrupt file resets to empty and reports the error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "locations.json")
		require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

		c := cache.NewLocationCache(path)
		assert.Error(t, c.Load())
		assert.Equal(t, 0, c.Len())
	})

	t.Run("save and load round-trip including negative entries", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "locations.json")

		c := cache.NewLocationCache(path)
		c.Put("Kemi", &domain.Coordinates{Lat: 65.7788, Lon: 24.5821})
		c.Put("Atlantis", nil) // attempted, not found
		require.NoError(t, c.Save())

		reloaded := cache.NewLocationCache(path)
		require.NoError(t, reloaded.Load())
		assert.Equal(t, 2, reloaded.Len())

		coords, ok := reloaded.Get("Kemi")
		require.True(t, ok)
		require.NotNil(t, coords)
		assert.InDelta(t, 65.7788, coords.Lat, 0.0001)

		coords, ok = reloaded.Get("Atlantis")
		assert.True(t, ok, "negative entry must survive the round-trip")
		assert.Nil(t, coords)

		_, ok = reloaded.Get("Oulu")
		assert.False(t, ok, "never-attempted name reports no entry")
	})

	t.Run("save replaces the previous snapshot", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "locations.json")

		c := cache.NewLocationCache(path)
		c.Put("Kemi", nil)
		require.NoError(t, c.Save())
		require.NoError(t, c.Save())

		reloaded := cache.NewLocationCache(path)
		require.NoError(t, reloaded.Load())
		assert.Equal(t, 1, reloaded.Len())
	})
}

func TestClassificationCache(t *testing.T) {
	t.Run("round-trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "classifications.json")

		c := cache.NewClassificationCache(path)
		c.Put("L2022-01 Onnettomuus.pdf", "Cessna")
		require.NoError(t, c.Save())

		reloaded := cache.NewClassificationCache(path)
		require.NoError(t, reloaded.Load())

		label, ok := reloaded.Get("L2022-01 Onnettomuus.pdf")
		require.True(t, ok)
		assert.Equal(t, "Cessna", label)
	})

	t.Run("corrupt file resets to empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "classifications.json")
		require.NoError(t, os.WriteFile(path, []byte("[1,2,3]"), 0o644))

		c := cache.NewClassificationCache(path)
		assert.Error(t, c.Load())
		assert.Equal(t, 0, c.Len())
	})
}
