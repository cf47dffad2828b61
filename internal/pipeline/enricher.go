package pipeline

import (
	"context"

	"github.com/lentoturva/report-etl/internal/classify"
	"github.com/lentoturva/report-etl/internal/domain"
	"github.com/lentoturva/report-etl/internal/locate"
)

// RecordEnricher turns one raw record into an enriched record. It never
// fails: classification and location failures degrade to sentinel values.
type RecordEnricher struct {
	classifier    *classify.Classifier
	resolver      *locate.Resolver
	summaryBudget int
}

// NewEnricher wires the classifier and resolver into a per-record enricher.
func NewEnricher(classifier *classify.Classifier, resolver *locate.Resolver, summaryBudget int) *RecordEnricher {
	return &RecordEnricher{
		classifier:    classifier,
		resolver:      resolver,
		summaryBudget: summaryBudget,
	}
}

// Enrich derives every structured field for a record. Classification and
// location resolution are independent of each other; both see normalized text.
func (e *RecordEnricher) Enrich(ctx context.Context, raw domain.RawRecord) domain.EnrichedRecord {
	title := domain.Normalize(raw.ID)
	body := domain.Normalize(raw.Text)

	category := e.classifier.Classify(ctx, raw.ID, title, body)
	loc := e.resolver.Resolve(ctx, title, body)

	var lat, lon *float64
	if loc.Coords != nil {
		lat, lon = &loc.Coords.Lat, &loc.Coords.Lon
	}

	return domain.EnrichedRecord{
		ID:           raw.ID,
		Date:         domain.ExtractYear(raw.ID),
		AircraftType: category,
		Country:      domain.Country,
		LocationName: loc.Name,
		Lat:          lat,
		Lon:          lon,
		URL:          domain.BuildLink(raw.ID),
		Summary:      domain.Summarize(body, e.summaryBudget),
	}
}
