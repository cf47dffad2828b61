// Package gazetteer holds the static place-name knowledge the location
// resolver matches against: canonical Finnish places with coordinates, a
// synonym table mapping raw surface forms (inflected stems, airport codes,
// alternate spellings) to canonical names, disambiguation guards, and the
// case-suffix list used by the stemmer.
package gazetteer

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/lentoturva/report-etl/internal/domain"
)

// Synonym maps one surface form to its canonical place name.
type Synonym struct {
	Surface   string
	Canonical string
}

// Table is an immutable bundle of place data. Synonyms are pre-sorted longest
// surface first (ties lexicographic) so scans are deterministic and a short
// stem never shadows a longer, more specific form.
type Table struct {
	coords   map[string]domain.Coordinates // key: lower-cased canonical name
	names    map[string]string             // lower-cased canonical -> display form
	synonyms []Synonym
	guards   map[string][]string // surface form -> words that veto a match
	suffixes []string
}

// defaultPlaces covers the airfields and municipalities appearing in the
// OTKES aviation corpus.
var defaultPlaces = map[string]domain.Coordinates{
	"Helsinki-Vantaa":  {Lat: 60.3172, Lon: 24.9633},
	"Malmi":            {Lat: 60.2546, Lon: 25.0428},
	"Ivalo":            {Lat: 68.6073, Lon: 27.4053},
	"Pori":             {Lat: 61.4617, Lon: 21.7910},
	"Selänpää":         {Lat: 61.0619, Lon: 26.7975},
	"Lahti-Vesivehmaa": {Lat: 61.1436, Lon: 25.6872},
	"Jyväskylä":        {Lat: 62.3994, Lon: 25.6783}, // Tikkakoski
	"Kemi":             {Lat: 65.7788, Lon: 24.5821},
	"Kuusamo":          {Lat: 65.9876, Lon: 29.2394},
	"Maarianhamina":    {Lat: 60.1222, Lon: 19.8982},
	"Hyvinkää":         {Lat: 60.6544, Lon: 24.8311},
	"Joensuu":          {Lat: 62.6629, Lon: 29.6075},
	"Muhos":            {Lat: 64.8071, Lon: 25.9915},
	"Turku":            {Lat: 60.5141, Lon: 22.2628},
	"Tampere":          {Lat: 61.4141, Lon: 23.6002},
	"Oulu":             {Lat: 64.9301, Lon: 25.3546},
	"Rovaniemi":        {Lat: 66.5648, Lon: 25.8304},
	"Vaasa":            {Lat: 63.0507, Lon: 21.7622},
	"Räyskälä":         {Lat: 60.7447, Lon: 24.1046},
}

// defaultSynonyms maps surface forms to canonical places. Keys are stems so a
// leading-word-boundary match also catches inflected forms ("kemissä").
// Airport ICAO codes resolve to the served city.
var defaultSynonyms = map[string]string{
	"muhoks":     "Muhos",
	"muhos":      "Muhos",
	"selänpää":   "Selänpää",
	"hyvinkää":   "Hyvinkää",
	"joensuu":    "Joensuu",
	"ahvenanmaa": "Maarianhamina",
	"maarianhamina": "Maarianhamina",
	"tikkakosk":  "Jyväskylä",
	"jyväskylä":  "Jyväskylä",
	"kemi":       "Kemi",
	"vesivehmaa": "Lahti-Vesivehmaa",
	"efhk":       "Helsinki-Vantaa",
	"helsinki":   "Helsinki-Vantaa",
	"malmi":      "Malmi",
	"efhf":       "Malmi",
	"ivalo":      "Ivalo",
	"pori":       "Pori",
	"kuusamo":    "Kuusamo",
	"turku":      "Turku",
	"tampere":    "Tampere",
	"pirkkala":   "Tampere",
	"oulu":       "Oulu",
	"rovaniem":   "Rovaniemi",
	"vaasa":      "Vaasa",
	"räyskälä":   "Räyskälä",
}

// defaultGuards vetoes surface forms that are substrings of unrelated words.
// "kemi" must not fire in chemical-accident reports ("kemikaalionnettomuus").
var defaultGuards = map[string][]string{
	"kemi": {"kemikaali"},
}

// defaultSuffixes is the ordered Finnish locative-case suffix list tried by
// the stemmer, longest first. Stripping is best effort; acceptance is gated
// on a gazetteer hit, so an over-strip only costs a failed lookup.
var defaultSuffixes = []string{
	"sta", "stä", "ssa", "ssä", "lla", "llä", "lta", "ltä", "lle",
	"seen", "aan", "een", "iin", "oon", "uun", "ään", "öön", "n",
}

// Default returns the built-in Finland table.
func Default() *Table {
	return build(defaultPlaces, defaultSynonyms, defaultGuards, defaultSuffixes)
}

// tableFile is the YAML override schema accepted by LoadFile.
type tableFile struct {
	Places map[string]struct {
		Lat float64 `yaml:"lat"`
		Lon float64 `yaml:"lon"`
	} `yaml:"places"`
	Synonyms map[string]string   `yaml:"synonyms"`
	Guards   map[string][]string `yaml:"guards"`
	Suffixes []string            `yaml:"suffixes"`
}

// LoadFile reads a full table from a YAML file, replacing the built-in data.
// Sections left empty in the file fall back to the defaults.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gazetteer: %w", err)
	}

	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse gazetteer: %w", err)
	}

	places := defaultPlaces
	if len(f.Places) > 0 {
		places = make(map[string]domain.Coordinates, len(f.Places))
		for name, c := range f.Places {
			places[name] = domain.Coordinates{Lat: c.Lat, Lon: c.Lon}
		}
	}
	synonyms := defaultSynonyms
	if len(f.Synonyms) > 0 {
		synonyms = f.Synonyms
	}
	guards := defaultGuards
	if len(f.Guards) > 0 {
		guards = f.Guards
	}
	suffixes := defaultSuffixes
	if len(f.Suffixes) > 0 {
		suffixes = f.Suffixes
	}

	return build(places, synonyms, guards, suffixes), nil
}

func build(places map[string]domain.Coordinates, synonyms map[string]string, guards map[string][]string, suffixes []string) *Table {
	t := &Table{
		coords:   make(map[string]domain.Coordinates, len(places)),
		names:    make(map[string]string, len(places)),
		guards:   make(map[string][]string, len(guards)),
		suffixes: suffixes,
	}
	for name, c := range places {
		key := strings.ToLower(name)
		t.coords[key] = c
		t.names[key] = name
	}
	for surface, canonical := range synonyms {
		t.synonyms = append(t.synonyms, Synonym{Surface: strings.ToLower(surface), Canonical: canonical})
	}
	sort.Slice(t.synonyms, func(i, j int) bool {
		a, b := t.synonyms[i].Surface, t.synonyms[j].Surface
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})
	for surface, vetoes := range guards {
		t.guards[strings.ToLower(surface)] = vetoes
	}
	return t
}

// Coordinates looks up a canonical name case-insensitively.
func (t *Table) Coordinates(name string) (domain.Coordinates, bool) {
	c, ok := t.coords[strings.ToLower(name)]
	return c, ok
}

// CanonicalName returns the display form of a place known to the table.
func (t *Table) CanonicalName(name string) (string, bool) {
	display, ok := t.names[strings.ToLower(name)]
	return display, ok
}

// Synonyms returns the synonym list, longest surface form first.
func (t *Table) Synonyms() []Synonym {
	return t.synonyms
}

// Guards returns the veto words for a surface form, or nil.
func (t *Table) Guards(surface string) []string {
	return t.guards[strings.ToLower(surface)]
}

// StripSuffix removes the first matching locative case suffix from a
// lower-cased word. The suffix list order is fixed; only one suffix is
// stripped per call.
func (t *Table) StripSuffix(word string) string {
	for _, suf := range t.suffixes {
		if strings.HasSuffix(word, suf) && len(word) > len(suf)+2 {
			return strings.TrimSuffix(word, suf)
		}
	}
	return word
}

// Capitalize upper-cases the first rune, producing a best-effort canonical
// spelling for stemmer candidates.
func Capitalize(word string) string {
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
