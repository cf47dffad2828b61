package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// enrichment run. Every degradation the pipeline swallows per record is
// visible here for operators.
type Metrics struct {
	RecordsProcessed prometheus.Counter
	RecordsEmitted   prometheus.Counter
	RecordsSkipped   *prometheus.CounterVec // labels: reason={index,marker,duplicate}
	PipelineRunning  prometheus.Gauge
	RunDuration      prometheus.Histogram

	// Classification metrics.
	Classifications  *prometheus.CounterVec // labels: method={rule,fallback,cache,default}
	FallbackErrors   prometheus.Counter
	FallbackDuration prometheus.Histogram

	// Location resolution metrics.
	LocationMatches *prometheus.CounterVec // labels: phase={title,body,stem,none}
	GeocodeRequests *prometheus.CounterVec // labels: outcome={success,not_found,error}
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeDuration prometheus.Histogram
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "report_etl",
			Name:      "records_processed_total",
			Help:      "Total input corpus records considered.",
		}),
		RecordsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "report_etl",
			Name:      "records_emitted_total",
			Help:      "Total enriched records written to the output corpus.",
		}),
		RecordsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "report_etl",
			Name:      "records_skipped_total",
			Help:      "Records dropped before enrichment, by reason.",
		}, []string{"reason"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "report_etl",
			Name:      "pipeline_running",
			Help:      "1 while the enrichment run is active, 0 otherwise.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "report_etl",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete enrichment run.",
			Buckets:   []float64{1, 5, 15, 60, 300, 900, 3600, 14400},
		}),
		Classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "report_etl",
			Name:      "classifications_total",
			Help:      "Aircraft classifications by method.",
		}, []string{"method"}),
		FallbackErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "report_etl",
			Name:      "fallback_errors_total",
			Help:      "Failed fallback-classifier attempts, including quota errors.",
		}),
		FallbackDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "report_etl",
			Name:      "fallback_duration_seconds",
			Help:      "Fallback classifier request duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		LocationMatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "report_etl",
			Name:      "location_matches_total",
			Help:      "Location resolutions by matching phase.",
		}, []string{"phase"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "report_etl",
			Name:      "geocode_requests_total",
			Help:      "Geocoding fallback requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "report_etl",
			Name:      "geocode_cache_total",
			Help:      "Location cache lookups by result.",
		}, []string{"result"}),
		GeocodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "report_etl",
			Name:      "geocode_duration_seconds",
			Help:      "Geocoding API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// NewMetrics creates all run metrics and registers them with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RecordsProcessed,
		m.RecordsEmitted,
		m.RecordsSkipped,
		m.PipelineRunning,
		m.RunDuration,
		m.Classifications,
		m.FallbackErrors,
		m.FallbackDuration,
		m.LocationMatches,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
