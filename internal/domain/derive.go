package domain

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	// yearRe matches the first plausible 4-digit year (19xx or 20xx) anywhere
	// in the id, including inside report codes like "L2022-01".
	yearRe = regexp.MustCompile(`(19|20)\d{2}`)

	// reportCodeRe matches OTKES investigation codes, e.g. "L2022-01".
	reportCodeRe = regexp.MustCompile(`[A-Z]\d{4}-\d{2}`)

	// boilerplateRe strips generic report-type words from titles before they
	// are turned into search queries.
	boilerplateRe = regexp.MustCompile(`(?i)Selvitys|Tutkintaselostus`)

	newlineRe = regexp.MustCompile(`[\r\n]+`)
)

const searchBase = "https://www.google.com/search?q="

// ExtractYear returns the first 19xx/20xx token found in the record id, or
// YearUnknown when the id carries no plausible year.
func ExtractYear(id string) string {
	if m := yearRe.FindString(id); m != "" {
		return m
	}
	return YearUnknown
}

// DedupKey derives the deduplication key for a record id: casing folded and
// the file extension dropped, so "A1234-01.pdf" and "a1234-01.TXT" collide.
func DedupKey(id string) string {
	key := strings.ToLower(strings.TrimSpace(id))
	key = strings.TrimSuffix(key, ".pdf")
	key = strings.TrimSuffix(key, ".txt")
	return key
}

// BuildLink synthesizes a search link for a report. Ids containing a report
// code get a site-scoped query for that exact code; the rest get a query built
// from the cleaned title.
func BuildLink(id string) string {
	if code := reportCodeRe.FindString(id); code != "" {
		return searchBase + url.QueryEscape("site:turvallisuustutkinta.fi "+code)
	}

	clean := strings.NewReplacer(".pdf", "", ".txt", "").Replace(id)
	clean = strings.TrimSpace(boilerplateRe.ReplaceAllString(clean, ""))
	return searchBase + url.QueryEscape("site:turvallisuustutkinta.fi "+clean)
}

// Summarize produces a bounded excerpt of normalized body text: newlines
// collapsed to spaces, truncated to budget runes, with a truncation marker.
func Summarize(text string, budget int) string {
	text = newlineRe.ReplaceAllString(text, " ")
	runes := []rune(text)
	if len(runes) > budget {
		runes = runes[:budget]
	}
	return string(runes) + "..."
}
