package gazetteer_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lentoturva/report-etl/internal/gazetteer"
)

func TestDefaultTable(t *testing.T) {
	table := gazetteer.Default()

	t.Run("coordinates lookup is case-insensitive", func(t *testing.T) {
		c, ok := table.Coordinates("kemi")
		require.True(t, ok)
		assert.InDelta(t, 65.7788, c.Lat, 0.0001)
		assert.InDelta(t, 24.5821, c.Lon, 0.0001)

		_, ok = table.Coordinates("Atlantis")
		assert.False(t, ok)
	})

	t.Run("canonical name restores display form", func(t *testing.T) {
		name, ok := table.CanonicalName("jyväskylä")
		require.True(t, ok)
		assert.Equal(t, "Jyväskylä", name)
	})

	t.Run("icao codes resolve to the served city", func(t *testing.T) {
		var canonical string
		for _, s := range table.Synonyms() {
			if s.Surface == "efhk" {
				canonical = s.Canonical
			}
		}
		assert.Equal(t, "Helsinki-Vantaa", canonical)
	})

	t.Run("synonyms ordered longest surface first", func(t *testing.T) {
		syns := table.Synonyms()
		require.NotEmpty(t, syns)
		for i := 1; i < len(syns); i++ {
			prev, cur := syns[i-1].Surface, syns[i].Surface
			ok := len(prev) > len(cur) || (len(prev) == len(cur) && prev < cur)
			assert.True(t, ok, "synonym order broken at %q before %q", prev, cur)
		}
	})

	t.Run("kemi is guarded against chemical compounds", func(t *testing.T) {
		assert.Contains(t, table.Guards("kemi"), "kemikaali")
		assert.Empty(t, table.Guards("oulu"))
	})
}

func TestStripSuffix(t *testing.T) {
	table := gazetteer.Default()

	tests := []struct {
		word string
		want string
	}{
		{"kemissä", "kemi"},
		{"muhoksella", "muhokse"}, // single strip only; synonym table covers the rest
		{"rovaniemellä", "rovanieme"},
		{"sodankylässä", "sodankylä"},
		{"oulusta", "oulu"},
		{"kemi", "kemi"}, // no suffix
		{"sen", "sen"},   // too short to strip "n"
		{"lle", "lle"},   // bare suffix stays
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, table.StripSuffix(tt.word))
		})
	}
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Kemi", gazetteer.Capitalize("kemi"))
	assert.Equal(t, "Äänekoski", gazetteer.Capitalize("äänekoski"))
	assert.Equal(t, "", gazetteer.Capitalize(""))
}

func TestLoadFile(t *testing.T) {
	t.Run("full override", func(t *testing.T) {
		path := writeFile(t, `
places:
  Testala:
    lat: 61.5
    lon: 24.5
synonyms:
  testal: Testala
guards:
  testal: ["testaus"]
suffixes: ["ssa"]
`)
		table, err := gazetteer.LoadFile(path)
		require.NoError(t, err)

		c, ok := table.Coordinates("testala")
		require.True(t, ok)
		assert.Equal(t, 61.5, c.Lat)

		_, ok = table.Coordinates("Kemi")
		assert.False(t, ok, "override replaces built-in places")

		assert.Equal(t, []string{"testaus"}, table.Guards("testal"))
		assert.Equal(t, "testala", table.StripSuffix("testalassa"))
	})

	t.Run("empty sections fall back to defaults", func(t *testing.T) {
		path := writeFile(t, `
synonyms:
  jämi: Tampere
`)
		table, err := gazetteer.LoadFile(path)
		require.NoError(t, err)

		_, ok := table.Coordinates("Kemi")
		assert.True(t, ok, "default places kept when file has none")

		syns := table.Synonyms()
		require.Len(t, syns, 1)
		assert.Equal(t, "jämi", syns[0].Surface)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := gazetteer.LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := gazetteer.LoadFile(writeFile(t, "places: [broken"))
		assert.Error(t, err)
	})
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gazetteer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
