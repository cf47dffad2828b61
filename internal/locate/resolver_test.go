package locate_test

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lentoturva/report-etl/internal/cache"
	"github.com/lentoturva/report-etl/internal/domain"
	"github.com/lentoturva/report-etl/internal/gazetteer"
	"github.com/lentoturva/report-etl/internal/locate"
	"github.com/lentoturva/report-etl/internal/observability"
)

type mockGeocoder struct {
	coords domain.Coordinates
	found  bool
	err    error
	calls  []string
}

func (m *mockGeocoder) Geocode(_ context.Context, place string) (domain.Coordinates, bool, error) {
	m.calls = append(m.calls, place)
	if m.err != nil {
		return domain.Coordinates{}, false, m.err
	}
	return m.coords, m.found, nil
}

func newResolver(t *testing.T, geocoder domain.Geocoder) (*locate.Resolver, *cache.LocationCache) {
	t.Helper()
	lc := cache.NewLocationCache(filepath.Join(t.TempDir(), "locations.json"))
	r := locate.New(gazetteer.Default(), locate.Config{BodyWindow: 800}, lc, geocoder, slog.Default(), observability.NewMetricsForTesting())
	return r, lc
}

func TestResolve_TitleScan(t *testing.T) {
	r, _ := newResolver(t, nil)
	ctx := context.Background()

	t.Run("inflected place name in title", func(t *testing.T) {
		got := r.Resolve(ctx, "L2022-01 Onnettomuus Kemissä", "")
		assert.Equal(t, "Kemi", got.Name)
		require.NotNil(t, got.Coords)
		assert.InDelta(t, 65.7788, got.Coords.Lat, 0.0001)
	})

	t.Run("title match wins over body mention", func(t *testing.T) {
		got := r.Resolve(ctx, "Vaaratilanne Kemissä", "Kone oli matkalla Helsinki-Vantaalle.")
		assert.Equal(t, "Kemi", got.Name)
	})

	t.Run("synonym maps region to its canonical place", func(t *testing.T) {
		got := r.Resolve(ctx, "Lentovaurio Ahvenanmaalla", "")
		assert.Equal(t, "Maarianhamina", got.Name)
		require.NotNil(t, got.Coords)
	})

	t.Run("icao code resolves", func(t *testing.T) {
		got := r.Resolve(ctx, "Vaaratilanne EFHK:n kiitotiellä", "")
		assert.Equal(t, "Helsinki-Vantaa", got.Name)
	})

	t.Run("guard word vetoes a false match", func(t *testing.T) {
		got := r.Resolve(ctx, "Kemikaalionnettomuus tehtaalla", "")
		assert.Equal(t, domain.LocationUnknown, got.Name)
		assert.Nil(t, got.Coords)
	})

	t.Run("guard does not veto the genuine place", func(t *testing.T) {
		got := r.Resolve(ctx, "Onnettomuus Kemin lentoasemalla", "")
		assert.Equal(t, "Kemi", got.Name)
	})
}

func TestResolve_BodyScan(t *testing.T) {
	r, _ := newResolver(t, nil)
	ctx := context.Background()

	t.Run("body scanned when title has no place", func(t *testing.T) {
		got := r.Resolve(ctx, "L2010-03 Vaaratilanne laskeutumisessa", "Kone laskeutui Rovaniemelle illalla.")
		assert.Equal(t, "Rovaniemi", got.Name)
	})

	t.Run("mention beyond the body window is ignored", func(t *testing.T) {
		body := strings.Repeat("x", 900) + " Rovaniemelle"
		got := r.Resolve(ctx, "Vaaratilanne laskeutumisessa", body)
		assert.Equal(t, domain.LocationUnknown, got.Name)
	})

	t.Run("no place anywhere", func(t *testing.T) {
		got := r.Resolve(ctx, "Vaaratilanne laskeutumisessa", "Tapahtumapaikkaa ei mainita.")
		assert.Equal(t, domain.LocationUnknown, got.Name)
		assert.Nil(t, got.Coords)
	})
}

func TestResolve_Stemmer(t *testing.T) {
	ctx := context.Background()

	t.Run("stemmed candidate goes to the geocoder", func(t *testing.T) {
		geo := &mockGeocoder{coords: domain.Coordinates{Lat: 67.4168, Lon: 26.5897}, found: true}
		r, _ := newResolver(t, geo)

		got := r.Resolve(ctx, "Onnettomuus Sodankylässä", "")
		assert.Equal(t, "Sodankylä", got.Name)
		require.NotNil(t, got.Coords)
		assert.InDelta(t, 67.4168, got.Coords.Lat, 0.0001)
		assert.Equal(t, []string{"Sodankylä"}, geo.calls)
	})

	t.Run("generic title words are never candidates", func(t *testing.T) {
		geo := &mockGeocoder{found: true}
		r, _ := newResolver(t, geo)

		got := r.Resolve(ctx, "Tutkintaselostus Vaaratilanne Onnettomuus", "")
		assert.Equal(t, domain.LocationUnknown, got.Name)
		assert.Empty(t, geo.calls)
	})

	t.Run("lowercase tokens are never candidates", func(t *testing.T) {
		geo := &mockGeocoder{found: true}
		r, _ := newResolver(t, geo)

		got := r.Resolve(ctx, "Vaaratilanne matalalla lennolla", "")
		assert.Equal(t, domain.LocationUnknown, got.Name)
		assert.Empty(t, geo.calls)
	})
}

func TestResolve_GeocodeCaching(t *testing.T) {
	ctx := context.Background()

	t.Run("not-found outcome is cached negatively", func(t *testing.T) {
		geo := &mockGeocoder{found: false}
		r, lc := newResolver(t, geo)

		got := r.Resolve(ctx, "Onnettomuus Tuntemattomala", "")
		assert.Equal(t, domain.LocationUnknown, got.Name)
		require.Len(t, geo.calls, 1)

		got = r.Resolve(ctx, "Onnettomuus Tuntemattomala", "")
		assert.Equal(t, domain.LocationUnknown, got.Name)
		assert.Len(t, geo.calls, 1, "cached not-found must not re-query")

		coords, ok := lc.Get(geo.calls[0])
		assert.True(t, ok)
		assert.Nil(t, coords)
	})

	t.Run("error outcome is cached negatively", func(t *testing.T) {
		geo := &mockGeocoder{err: errors.New("service down")}
		r, _ := newResolver(t, geo)

		r.Resolve(ctx, "Onnettomuus Sodankylässä", "")
		r.Resolve(ctx, "Onnettomuus Sodankylässä", "")
		assert.Len(t, geo.calls, 1)
	})

	t.Run("successful outcome is served from cache", func(t *testing.T) {
		geo := &mockGeocoder{coords: domain.Coordinates{Lat: 61.0, Lon: 25.0}, found: true}
		r, _ := newResolver(t, geo)

		first := r.Resolve(ctx, "Onnettomuus Sodankylässä", "")
		second := r.Resolve(ctx, "Onnettomuus Sodankylässä", "")
		assert.Equal(t, first, second)
		assert.Len(t, geo.calls, 1)
	})

	t.Run("nil geocoder leaves unknown names unresolved", func(t *testing.T) {
		r, _ := newResolver(t, nil)
		got := r.Resolve(ctx, "Onnettomuus Sodankylässä", "")
		assert.Equal(t, domain.LocationUnknown, got.Name)
	})
}

func TestResolve_Determinism(t *testing.T) {
	ctx := context.Background()

	// Two gazetteer places in one title must always resolve the same way:
	// the longer surface form wins regardless of map iteration order, so a
	// freshly built table gives the same answer every time.
	title := "Vaaratilanne reitillä Maarianhamina Kemi"
	for i := 0; i < 20; i++ {
		r, _ := newResolver(t, nil)
		got := r.Resolve(ctx, title, "")
		assert.Equal(t, "Maarianhamina", got.Name)
	}
}
