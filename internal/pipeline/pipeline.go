// Package pipeline orchestrates one enrichment run: load caches, read the
// corpus, skip index pages and duplicates, enrich each remaining record, and
// write the enriched corpus. A single record's failure never aborts the
// batch; the only fatal condition is a missing or unparsable input corpus.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/jonboulle/clockwork"

	"github.com/lentoturva/report-etl/internal/cache"
	"github.com/lentoturva/report-etl/internal/domain"
	"github.com/lentoturva/report-etl/internal/observability"
)

// defaultSkipMarkers flags record ids belonging to non-aviation sections of
// the archive.
var defaultSkipMarkers = []string{"raideliikenne", "vesiliikenne"}

// CorpusReader loads the whole input corpus.
type CorpusReader interface {
	ReadAll() ([]domain.RawRecord, error)
}

// CorpusWriter persists the enriched corpus.
type CorpusWriter interface {
	WriteAll(records []domain.EnrichedRecord) error
}

// Enricher produces the enriched form of one record.
type Enricher interface {
	Enrich(ctx context.Context, raw domain.RawRecord) domain.EnrichedRecord
}

// Pipeline runs the read-enrich-write batch with cache lifecycle bracketing.
type Pipeline struct {
	reader   CorpusReader
	enricher Enricher
	writer   CorpusWriter

	locations       *cache.LocationCache
	classifications *cache.ClassificationCache

	skipMarkers []string
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock

	processed atomic.Int64
	emitted   atomic.Int64
	skipped   atomic.Int64
	ready     atomic.Bool
}

// New creates a Pipeline. Pass a nil clock for real time.
func New(reader CorpusReader, enricher Enricher, writer CorpusWriter, locations *cache.LocationCache, classifications *cache.ClassificationCache, clk clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &Pipeline{
		reader:          reader,
		enricher:        enricher,
		writer:          writer,
		locations:       locations,
		classifications: classifications,
		skipMarkers:     defaultSkipMarkers,
		logger:          logger,
		metrics:         metrics,
		clock:           clk,
	}
}

// CheckReadiness returns nil once the run has started processing records.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any records yet")
	}
	return nil
}

// Progress returns processed, emitted, and skipped record counts so far.
func (p *Pipeline) Progress() (processed, emitted, skipped int) {
	return int(p.processed.Load()), int(p.emitted.Load()), int(p.skipped.Load())
}

// Run executes one enrichment batch. Cache saves are deferred so an early
// abort still flushes whatever was resolved before the failure.
func (p *Pipeline) Run(ctx context.Context) error {
	start := p.clock.Now()
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	p.loadCaches()
	defer p.saveCaches()

	records, err := p.reader.ReadAll()
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}
	p.logger.Info("corpus loaded", "records", len(records))

	seen := make(map[string]struct{}, len(records))
	out := make([]domain.EnrichedRecord, 0, len(records))

	for _, raw := range records {
		if ctx.Err() != nil {
			return fmt.Errorf("run interrupted: %w", ctx.Err())
		}

		p.processed.Add(1)
		p.metrics.RecordsProcessed.Inc()
		p.ready.Store(true)

		if reason := p.skipReason(raw.ID); reason != "" {
			p.skip(raw.ID, reason)
			continue
		}

		key := domain.DedupKey(raw.ID)
		if _, dup := seen[key]; dup {
			p.skip(raw.ID, "duplicate")
			continue
		}
		seen[key] = struct{}{}

		rec := p.enricher.Enrich(ctx, raw)
		out = append(out, rec)
		p.emitted.Add(1)
		p.metrics.RecordsEmitted.Inc()

		p.logger.Debug("record enriched",
			"id", truncate(raw.ID, 60),
			"aircraft_type", rec.AircraftType,
			"location", rec.LocationName,
			"date", rec.Date,
		)
	}

	if err := p.writer.WriteAll(out); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	elapsed := p.clock.Since(start)
	p.metrics.RunDuration.Observe(elapsed.Seconds())
	p.logger.Info("run complete",
		"processed", p.processed.Load(),
		"emitted", p.emitted.Load(),
		"skipped", p.skipped.Load(),
		"location_cache", p.locations.Len(),
		"classification_cache", p.classifications.Len(),
		"duration", elapsed,
	)
	return nil
}

// skipReason returns why a record id is excluded before enrichment, or "".
// Archive index pages list every report title without being reports
// themselves; the "otkes" exception keeps the authority's own summary pages.
func (p *Pipeline) skipReason(id string) string {
	lower := strings.ToLower(id)
	if strings.Contains(lower, "tutkintaselostukset") && !strings.Contains(lower, "otkes") {
		return "index"
	}
	for _, marker := range p.skipMarkers {
		if strings.Contains(lower, marker) {
			return "marker"
		}
	}
	return ""
}

func (p *Pipeline) skip(id, reason string) {
	p.skipped.Add(1)
	p.metrics.RecordsSkipped.WithLabelValues(reason).Inc()
	p.logger.Debug("record skipped", "id", truncate(id, 60), "reason", reason)
}

func (p *Pipeline) loadCaches() {
	if err := p.locations.Load(); err != nil {
		p.logger.Warn("location cache unreadable, starting empty", "error", err)
	}
	if err := p.classifications.Load(); err != nil {
		p.logger.Warn("classification cache unreadable, starting empty", "error", err)
	}
	p.logger.Info("caches loaded",
		"locations", p.locations.Len(),
		"classifications", p.classifications.Len(),
	)
}

func (p *Pipeline) saveCaches() {
	if err := p.locations.Save(); err != nil {
		p.logger.Error("location cache save failed", "error", err)
	}
	if err := p.classifications.Save(); err != nil {
		p.logger.Error("classification cache save failed", "error", err)
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
