package domain

import "strings"

const softHyphen = "\u00ad"

// Normalize strips PDF-extraction artifacts from raw text: soft hyphens
// (U+00AD) are removed and surrounding whitespace is trimmed. Casing and word
// content are left untouched. Idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(text string) string {
	text = strings.ReplaceAll(text, softHyphen, "")
	return strings.TrimSpace(text)
}
