// Package domain models Finnish accident-investigation report records and the
// pure transformations applied to them during enrichment.
//
// # Data Source
//
// Records originate from the Safety Investigation Authority of Finland (OTKES,
// Onnettomuustutkintakeskus) report archive. An upstream scraper downloads the
// published investigation reports, extracts the document text, and stores the
// corpus as a JSON array of {id, text} objects, where id is the report title
// or filename (e.g. "L2022-01 Onnettomuus Kemissä.pdf") and text is the
// extracted body.
//
// # Corpus Conventions
//
// Report codes:
//
//	Aviation investigations carry a code of the form "L2022-01": a category
//	letter, a 4-digit year, a dash, and a 2-digit sequence number. Older and
//	informal entries (preliminary assessments, themed studies) have no code
//	and only a descriptive title.
//
// Text artifacts:
//
//	PDF extraction leaves soft hyphens (U+00AD) inside words wherever the
//	original layout hyphenated a line break. They are invisible in most
//	terminals but break substring matching, so every title and body is passed
//	through Normalize before any matching.
//
// Place names:
//
//	Finnish place names appear inflected (locative cases): "Kemissä" = in
//	Kemi, "Porissa" = in Pori, "Muhoksella" = at Muhos. Resolution therefore
//	matches surface forms at word-start boundaries and strips case suffixes;
//	see the locate package.
//
// Duplicates:
//
//	The archive lists many reports twice, once as PDF and once as extracted
//	text, with ids differing only by extension and casing. DedupKey collapses
//	these so each investigation is emitted once.
//
// Sentinels:
//
//	Enrichment never fails a record. Fields that cannot be determined get
//	explicit sentinel values: category "Other", place "Unknown" with nil
//	coordinates, date "unknown".
package domain
