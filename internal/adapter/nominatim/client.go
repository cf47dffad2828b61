// Package nominatim implements domain.Geocoder against the OpenStreetMap
// Nominatim search API. Queries are scoped to Finland and the client enforces
// the service's usage policy: an identifying User-Agent and a minimum delay
// between successive requests.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/lentoturva/report-etl/internal/domain"
	"github.com/lentoturva/report-etl/internal/observability"
)

const userAgent = "report-etl/1.0 (accident report enrichment; batch)"

// Client queries the Nominatim search endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	delay      time.Duration
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a geocoding client. baseURL is the search endpoint
// (e.g. "https://nominatim.openstreetmap.org/search"); delay is the courtesy
// pause applied after every completed request. Pass a nil clock for real time.
func NewClient(baseURL string, timeout, delay time.Duration, clk clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Client {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		delay:      delay,
		clock:      clk,
		logger:     logger,
		metrics:    metrics,
	}
}

// result is the subset of a Nominatim response the client reads. Coordinates
// arrive as strings.
type result struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode resolves a place name within Finland. found is false when the
// service has no match; that is not an error.
func (c *Client) Geocode(ctx context.Context, place string) (domain.Coordinates, bool, error) {
	params := url.Values{
		"q":      {fmt.Sprintf("%s, %s", place, domain.Country)},
		"format": {"json"},
		"limit":  {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	start := c.clock.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.GeocodeDuration.Observe(c.clock.Since(start).Seconds())
	if err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.Coordinates{}, false, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	var results []result
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("decode response: %w", err)
	}

	// Courtesy pause after every completed request, success or empty.
	c.pause(ctx)

	if len(results) == 0 {
		return domain.Coordinates{}, false, nil
	}

	lat, errLat := strconv.ParseFloat(results[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(results[0].Lon, 64)
	if errLat != nil || errLon != nil {
		return domain.Coordinates{}, false, fmt.Errorf("malformed coordinates %q,%q", results[0].Lat, results[0].Lon)
	}

	c.logger.Debug("geocoded place", "place", place, "display_name", results[0].DisplayName)
	return domain.Coordinates{Lat: lat, Lon: lon}, true, nil
}

func (c *Client) pause(ctx context.Context) {
	if c.delay <= 0 {
		return
	}
	timer := c.clock.NewTimer(c.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.Chan():
	}
}
