package matching

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var titleCaser = cases.Title(language.English)

// RemoveDiacritics strips combining marks so accented supplier spellings
// ("Paracétamol") compare equal to their plain forms.
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// NormalizeName produces the comparison form of a category name:
// diacritics stripped, lower-cased, inner whitespace collapsed.
func NormalizeName(s string) string {
	s = RemoveDiacritics(s)
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}

// TitleCase renders a normalized name in display form ("cardiovascular
// drugs" -> "Cardiovascular Drugs").
func TitleCase(s string) string {
	return titleCaser.String(strings.ToLower(strings.TrimSpace(s)))
}
