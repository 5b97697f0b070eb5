// Package normalize turns raw spreadsheet cells into comparable text, numbers
// and dates.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Text folds a description for cross-source comparison: lower-case,
// canonical decomposition, combining marks removed, whitespace runs
// collapsed to one space, ends trimmed. Text(Text(s)) == Text(s).
func Text(s string) string {
	lowered := strings.ToLower(s)

	// transform.Chain keeps state, so a fresh chain is built per call.
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripper, lowered)
	if err != nil {
		folded = lowered
	}

	return strings.Join(strings.Fields(folded), " ")
}

// Key is the lookup form used against the reference tables: trimmed and
// lower-cased, matching LOWER(TRIM(col)) on the database side.
func Key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsBlank reports whether a cell carries no value. Spreadsheet exports write
// "nan" and "None" for empty cells, so those count as blank too.
func IsBlank(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "none", "null":
		return true
	}
	return false
}
