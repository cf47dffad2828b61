// Command enrich runs one batch enrichment pass over the raw report corpus:
// classification, location resolution, year extraction, dedup, and link
// synthesis, with persistent caches keeping repeated runs cheap.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/lentoturva/report-etl/internal/adapter/corpusfile"
	"github.com/lentoturva/report-etl/internal/adapter/genai"
	"github.com/lentoturva/report-etl/internal/adapter/httpadapter"
	"github.com/lentoturva/report-etl/internal/adapter/nominatim"
	"github.com/lentoturva/report-etl/internal/cache"
	"github.com/lentoturva/report-etl/internal/classify"
	"github.com/lentoturva/report-etl/internal/config"
	"github.com/lentoturva/report-etl/internal/domain"
	"github.com/lentoturva/report-etl/internal/gazetteer"
	"github.com/lentoturva/report-etl/internal/locate"
	"github.com/lentoturva/report-etl/internal/observability"
	"github.com/lentoturva/report-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err := run(cfg, logger); err != nil {
		logger.Error("enrichment run failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	metrics := observability.NewMetrics()

	table := gazetteer.Default()
	if cfg.GazetteerPath != "" {
		var err error
		table, err = gazetteer.LoadFile(cfg.GazetteerPath)
		if err != nil {
			return fmt.Errorf("load gazetteer: %w", err)
		}
		logger.Info("gazetteer loaded from file", "path", cfg.GazetteerPath)
	}

	locations := cache.NewLocationCache(cfg.LocationCachePath)
	classifications := cache.NewClassificationCache(cfg.ClassificationCachePath)

	// Geocoding fallback (feature-flagged via GEOCODE_ENABLED).
	var geocoder domain.Geocoder
	if cfg.GeocodeEnabled {
		geocoder = nominatim.NewClient(cfg.NominatimURL, cfg.GeocodeTimeout, cfg.GeocodeDelay, nil, logger, metrics)
		logger.Info("geocoding fallback enabled", "url", cfg.NominatimURL, "delay", cfg.GeocodeDelay)
	} else {
		logger.Info("geocoding fallback disabled")
	}

	// Fallback classifier (feature-flagged via GENAI_API_KEY / FALLBACK_ENABLED).
	var fallback domain.FallbackClassifier
	if cfg.FallbackEnabled {
		fallback = genai.NewClient(cfg.GenAIKey, cfg.GenAIModel, "", cfg.GenAITimeout, logger)
		logger.Info("fallback classifier enabled", "model", cfg.GenAIModel)
	} else {
		logger.Info("fallback classifier disabled")
	}

	classifier, err := classify.New(classify.DefaultRules, classify.Config{
		BodyWindow:      cfg.ClassifierBodyWindow,
		ExclusionRadius: cfg.ExclusionRadius,
		Cooldown:        cfg.FallbackCooldown,
		RetryBudget:     cfg.FallbackRetries,
		InitialBackoff:  cfg.FallbackBackoff,
	}, fallback, classifications, nil, logger, metrics)
	if err != nil {
		return fmt.Errorf("compile rule table: %w", err)
	}

	resolver := locate.New(table, locate.Config{BodyWindow: cfg.ResolverBodyWindow}, locations, geocoder, logger, metrics)
	enricher := pipeline.NewEnricher(classifier, resolver, cfg.SummaryBudget)

	p := pipeline.New(
		corpusfile.NewReader(cfg.InputPath),
		enricher,
		corpusfile.NewWriter(cfg.OutputPath),
		locations,
		classifications,
		nil,
		logger,
		metrics,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Observability server (optional; long runs benefit from /progress and /metrics).
	if cfg.HTTPAddr != "" {
		srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	return p.Run(ctx)
}
