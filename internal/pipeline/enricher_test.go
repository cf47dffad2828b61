package pipeline_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lentoturva/report-etl/internal/cache"
	"github.com/lentoturva/report-etl/internal/classify"
	"github.com/lentoturva/report-etl/internal/domain"
	"github.com/lentoturva/report-etl/internal/gazetteer"
	"github.com/lentoturva/report-etl/internal/locate"
	"github.com/lentoturva/report-etl/internal/observability"
	"github.com/lentoturva/report-etl/internal/pipeline"
)

type countingGeocoder struct {
	calls  atomic.Int64
	coords domain.Coordinates
	found  bool
}

func (g *countingGeocoder) Geocode(_ context.Context, _ string) (domain.Coordinates, bool, error) {
	g.calls.Add(1)
	return g.coords, g.found, nil
}

// newRealEnricher wires a classifier and resolver with real rule and
// gazetteer tables, no fallback classifier, and the given geocoder.
func newRealEnricher(t *testing.T, dir string, geocoder domain.Geocoder) (*pipeline.RecordEnricher, *cache.LocationCache, *cache.ClassificationCache) {
	t.Helper()
	metrics := observability.NewMetricsForTesting()
	lc := cache.NewLocationCache(filepath.Join(dir, "locations.json"))
	cc := cache.NewClassificationCache(filepath.Join(dir, "classifications.json"))

	classifier, err := classify.New(classify.DefaultRules, classify.Config{
		BodyWindow:      3000,
		ExclusionRadius: 30,
		RetryBudget:     1,
	}, nil, cc, nil, slog.Default(), metrics)
	require.NoError(t, err)

	resolver := locate.New(gazetteer.Default(), locate.Config{BodyWindow: 800}, lc, geocoder, slog.Default(), metrics)
	return pipeline.NewEnricher(classifier, resolver, 400), lc, cc
}

func TestEnrich_EndToEnd(t *testing.T) {
	enricher, _, _ := newRealEnricher(t, t.TempDir(), nil)
	ctx := context.Background()

	t.Run("location from title, no aircraft keyword", func(t *testing.T) {
		got := enricher.Enrich(ctx, domain.RawRecord{
			ID:   "L2022-01 Onnettomuus Kemissä",
			Text: "Kemin lentoasemalla tapahtui vaaratilanne laskeutumisen aikana.",
		})

		assert.Equal(t, domain.CategoryOther, got.AircraftType)
		assert.Equal(t, "Kemi", got.LocationName)
		require.NotNil(t, got.Lat)
		require.NotNil(t, got.Lon)
		assert.InDelta(t, 65.7788, *got.Lat, 0.0001)
		assert.Equal(t, "2022", got.Date)
		assert.Equal(t, domain.Country, got.Country)
		assert.Contains(t, got.URL, "L2022-01")
	})

	t.Run("aircraft keyword deep in the body", func(t *testing.T) {
		body := strings.Repeat("tapahtumien kulku ", 100) + "Koneena oli Cessna 172."
		got := enricher.Enrich(ctx, domain.RawRecord{ID: "C3/1999L Vaaratilanne", Text: body})

		assert.Equal(t, "Cessna", got.AircraftType)
		assert.Equal(t, "1999", got.Date)
	})

	t.Run("nothing resolvable degrades to sentinels", func(t *testing.T) {
		got := enricher.Enrich(ctx, domain.RawRecord{ID: "muistio", Text: "ei sisältöä"})

		assert.Equal(t, domain.CategoryOther, got.AircraftType)
		assert.Equal(t, domain.LocationUnknown, got.LocationName)
		assert.Nil(t, got.Lat)
		assert.Nil(t, got.Lon)
		assert.Equal(t, domain.YearUnknown, got.Date)
	})

	t.Run("summary is normalized and bounded", func(t *testing.T) {
		got := enricher.Enrich(ctx, domain.RawRecord{
			ID:   "L2020-05",
			Text: "rivi yksi\nrivi kaksi\n" + strings.Repeat("x", 600),
		})

		assert.NotContains(t, got.Summary, "\n")
		assert.True(t, strings.HasSuffix(got.Summary, "..."))
		assert.LessOrEqual(t, len([]rune(got.Summary)), 403)
	})
}

// A second run over the same corpus with warm caches must produce identical
// output and issue no new external calls.
func TestPipeline_Run_Idempotence(t *testing.T) {
	dir := t.TempDir()
	geo := &countingGeocoder{coords: domain.Coordinates{Lat: 67.4168, Lon: 26.5897}, found: true}
	enricher, lc, cc := newRealEnricher(t, dir, geo)

	reader := &mockReader{records: []domain.RawRecord{
		{ID: "L2018-03 Onnettomuus Sodankylässä", Text: "Kone vaurioitui."},
		{ID: "L2022-01 Onnettomuus Kemissä", Text: "Vaaratilanne kiitotiellä."},
	}}
	writer := &mockWriter{}

	p := pipeline.New(
		reader,
		enricher,
		writer,
		lc,
		cc,
		nil,
		slog.Default(),
		observability.NewMetricsForTesting(),
	)

	require.NoError(t, p.Run(context.Background()))
	firstOut := writer.written
	require.Len(t, firstOut, 2)
	assert.Equal(t, int64(1), geo.calls.Load(), "only the non-gazetteer place hits the geocoder")

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, int64(1), geo.calls.Load(), "warm cache must suppress all external calls")
	if diff := cmp.Diff(firstOut, writer.written); diff != "" {
		t.Errorf("second run output differs (-first +second):\n%s", diff)
	}
}
