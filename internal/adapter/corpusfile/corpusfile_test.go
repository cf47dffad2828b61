package corpusfile_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lentoturva/report-etl/internal/adapter/corpusfile"
	"github.com/lentoturva/report-etl/internal/domain"
)

func TestReader(t *testing.T) {
	t.Run("reads records in order", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "corpus.json")
		require.NoError(t, os.WriteFile(path, []byte(`[
			{"id": "L2022-01.pdf", "text": "ensimmäinen"},
			{"id": "L2022-02.pdf", "text": "toinen"}
		]`), 0o644))

		records, err := corpusfile.NewReader(path).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "L2022-01.pdf", records[0].ID)
		assert.Equal(t, "toinen", records[1].Text)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := corpusfile.NewReader(filepath.Join(t.TempDir(), "nope.json")).ReadAll()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read corpus")
	})

	t.Run("malformed json is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "corpus.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		_, err := corpusfile.NewReader(path).ReadAll()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse corpus")
	})
}

func TestWriter(t *testing.T) {
	t.Run("unresolved coordinates serialize as nulls", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.json")
		records := []domain.EnrichedRecord{{
			ID:           "L2022-01.pdf",
			Date:         "2022",
			AircraftType: domain.CategoryOther,
			Country:      domain.Country,
			LocationName: domain.LocationUnknown,
		}}

		require.NoError(t, corpusfile.NewWriter(path).WriteAll(records))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"lat": null`)
		assert.Contains(t, string(data), `"lon": null`)

		var out []domain.EnrichedRecord
		require.NoError(t, json.Unmarshal(data, &out))
		require.Len(t, out, 1)
		assert.Nil(t, out[0].Lat)
	})

	t.Run("nil slice writes an empty array", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.json")
		require.NoError(t, corpusfile.NewWriter(path).WriteAll(nil))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "[]", string(data))
	})
}
