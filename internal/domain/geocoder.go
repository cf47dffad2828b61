package domain

import (
	"context"
	"errors"
)

// ErrQuotaExhausted signals a rate-limit response from the text-generation
// service. Callers retry with exponential backoff up to a fixed budget.
var ErrQuotaExhausted = errors.New("quota exhausted")

// Geocoder resolves a free-text place name to coordinates. Implementations
// scope the query to Finland. found is false when the provider has no result
// for the name; that outcome is not an error.
type Geocoder interface {
	Geocode(ctx context.Context, place string) (coords Coordinates, found bool, err error)
}

// FallbackClassifier labels a report excerpt when no keyword rule matches.
// The returned label must be one of the given vocabulary entries; callers
// treat anything else as malformed and degrade to the default category.
type FallbackClassifier interface {
	ClassifyText(ctx context.Context, excerpt string, vocabulary []string) (string, error)
}
