// Package locate resolves the accident location of a report: a two-phase
// (title first, body second) scan of the gazetteer synonym table, a Finnish
// case-suffix stemmer as a last resort, and a cached external geocoding
// fallback for names the gazetteer does not know.
package locate

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/lentoturva/report-etl/internal/cache"
	"github.com/lentoturva/report-etl/internal/domain"
	"github.com/lentoturva/report-etl/internal/gazetteer"
	"github.com/lentoturva/report-etl/internal/observability"
)

var (
	// leadingCodeRe strips the report code from the front of a title before
	// place matching, e.g. "L2022-01 Onnettomuus Kemissä" -> "Onnettomuus Kemissä".
	leadingCodeRe = regexp.MustCompile(`^[A-Z]\d{4}-\d{2}\s*`)

	// dateRe removes embedded date substrings (dd.mm.yyyy and bare years) so
	// digits never take part in place matching.
	dateRe = regexp.MustCompile(`\d{1,2}\.\d{1,2}\.\d{4}|(19|20)\d{2}`)
)

// stemStopwords are generic report-title words the stemmer must never treat
// as place-name candidates.
var stemStopwords = map[string]struct{}{
	"onnettomuus":      {},
	"vaaratilanne":     {},
	"lentoonnettomuus": {},
	"lentovaurio":      {},
	"selvitys":         {},
	"tutkintaselostus": {},
	"tutkinta":         {},
	"raportti":         {},
	"ilmailu":          {},
	"lentokone":        {},
	"helikopteri":      {},
	"suomessa":         {},
	"lähellä":          {},
}

// Config carries the resolver's tuning knobs.
type Config struct {
	// BodyWindow bounds how many characters of the body the second phase scans.
	BodyWindow int
}

// Result is the outcome of location resolution. Coords is nil when the name
// could not be tied to coordinates; Name is then the Unknown sentinel.
type Result struct {
	Name   string
	Coords *domain.Coordinates
}

type synPattern struct {
	syn gazetteer.Synonym
	re  *regexp.Regexp
}

// Resolver matches report text against the gazetteer. It is deterministic for
// a fixed table: synonym order is fixed at construction (longest surface
// first) and no map iteration takes part in matching.
type Resolver struct {
	table    *gazetteer.Table
	cache    *cache.LocationCache
	geocoder domain.Geocoder
	cfg      Config
	logger   *slog.Logger
	metrics  *observability.Metrics
	patterns []synPattern
}

// New builds a resolver over the given table. Pass a nil geocoder to disable
// the external fallback; unknown names then stay unresolved.
func New(table *gazetteer.Table, cfg Config, lc *cache.LocationCache, geocoder domain.Geocoder, logger *slog.Logger, metrics *observability.Metrics) *Resolver {
	syns := table.Synonyms()
	patterns := make([]synPattern, 0, len(syns))
	for _, s := range syns {
		// Leading word boundary only: the surface form is a stem, so
		// "kemi" must match the inflected "kemissä" but not "alkemisti".
		patterns = append(patterns, synPattern{
			syn: s,
			re:  regexp.MustCompile(`\b` + regexp.QuoteMeta(s.Surface)),
		})
	}
	return &Resolver{
		table:    table,
		cache:    lc,
		geocoder: geocoder,
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
		patterns: patterns,
	}
}

// Resolve finds the accident location for a record. title and body must
// already be normalized. Never returns an error: every failure degrades to
// the Unknown sentinel with nil coordinates.
func (r *Resolver) Resolve(ctx context.Context, title, body string) Result {
	cleanTitle := dateRe.ReplaceAllString(leadingCodeRe.ReplaceAllString(title, ""), "")

	if canonical, ok := r.scan(strings.ToLower(cleanTitle)); ok {
		r.metrics.LocationMatches.WithLabelValues("title").Inc()
		return r.lookup(ctx, canonical)
	}

	bodyWindow := strings.ToLower(prefix(body, r.cfg.BodyWindow))
	if canonical, ok := r.scan(bodyWindow); ok {
		r.metrics.LocationMatches.WithLabelValues("body").Inc()
		return r.lookup(ctx, canonical)
	}

	if canonical, ok := r.stemCandidate(cleanTitle); ok {
		r.metrics.LocationMatches.WithLabelValues("stem").Inc()
		return r.lookup(ctx, canonical)
	}

	r.metrics.LocationMatches.WithLabelValues("none").Inc()
	return Result{Name: domain.LocationUnknown}
}

// scan walks the synonym patterns longest-first and returns the canonical
// name of the first unguarded whole-word match.
func (r *Resolver) scan(text string) (string, bool) {
	for _, p := range r.patterns {
		if !p.re.MatchString(text) {
			continue
		}
		if r.vetoed(p.syn.Surface, text) {
			continue
		}
		return p.syn.Canonical, true
	}
	return "", false
}

// vetoed applies the hand-coded disambiguation guards: a surface form that is
// also the root of an unrelated word must not fire when that word co-occurs.
func (r *Resolver) vetoed(surface, text string) bool {
	for _, veto := range r.table.Guards(surface) {
		if strings.Contains(text, veto) {
			return true
		}
	}
	return false
}

// stemCandidate is the morphological last resort: capitalized title tokens
// are stripped of locative case suffixes and checked against the gazetteer.
// A gazetteer hit wins immediately; otherwise the first candidate is handed
// to the coordinate lookup so the geocoding fallback can try it.
func (r *Resolver) stemCandidate(title string) (string, bool) {
	first := ""
	for _, token := range tokenize(title) {
		if !startsUpper(token) || len([]rune(token)) < 4 {
			continue
		}
		lower := strings.ToLower(token)
		if _, stop := stemStopwords[lower]; stop {
			continue
		}
		name := gazetteer.Capitalize(r.table.StripSuffix(lower))
		if display, ok := r.table.CanonicalName(name); ok {
			return display, true
		}
		if first == "" {
			first = name
		}
	}
	if first != "" {
		return first, true
	}
	return "", false
}

// lookup ties a canonical name to coordinates: gazetteer, then cache, then
// the geocoding fallback. Geocoding outcomes, including "not found" and
// errors, are cached so a name is queried at most once.
func (r *Resolver) lookup(ctx context.Context, canonical string) Result {
	if coords, ok := r.table.Coordinates(canonical); ok {
		if display, ok := r.table.CanonicalName(canonical); ok {
			canonical = display
		}
		return Result{Name: canonical, Coords: &coords}
	}

	if coords, ok := r.cache.Get(canonical); ok {
		r.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		if coords == nil {
			return Result{Name: domain.LocationUnknown}
		}
		return Result{Name: canonical, Coords: coords}
	}
	r.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	if r.geocoder == nil {
		return Result{Name: domain.LocationUnknown}
	}

	coords, found, err := r.geocoder.Geocode(ctx, canonical)
	if err != nil {
		r.logger.Warn("geocoding failed", "place", canonical, "error", err)
		r.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		r.cache.Put(canonical, nil)
		return Result{Name: domain.LocationUnknown}
	}
	if !found {
		r.metrics.GeocodeRequests.WithLabelValues("not_found").Inc()
		r.cache.Put(canonical, nil)
		return Result{Name: domain.LocationUnknown}
	}

	r.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	r.cache.Put(canonical, &coords)
	return Result{Name: canonical, Coords: &coords}
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '-'
	})
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
