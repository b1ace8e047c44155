package classifications

import "strings"

// Default is the classification applied when an import row supplies none.
const Default = "Over-the-Counter (OTC)"

// Valid returns the recognized drug classification labels
func Valid() []string {
	return []string{
		"Over-the-Counter (OTC)",
		"Prescription (Rx)",
		"Controlled Substance",
		"Antibiotic (Rx)",
		"Herbal Supplement",
	}
}

// aliases maps normalized shorthand spellings to canonical labels
var aliases = map[string]string{
	"otc":                  "Over-the-Counter (OTC)",
	"over the counter":     "Over-the-Counter (OTC)",
	"over-the-counter":     "Over-the-Counter (OTC)",
	"rx":                   "Prescription (Rx)",
	"prescription":         "Prescription (Rx)",
	"prescription only":    "Prescription (Rx)",
	"controlled":           "Controlled Substance",
	"controlled substance": "Controlled Substance",
	"antibiotic":           "Antibiotic (Rx)",
	"herbal":               "Herbal Supplement",
	"supplement":           "Herbal Supplement",
}

// Canonical resolves a free-text classification to its canonical label.
// Unrecognized input is returned trimmed but otherwise untouched, since the
// classification list is advisory, not a validation constraint.
func Canonical(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Default
	}

	normalized := strings.ToLower(trimmed)
	if canonical, ok := aliases[normalized]; ok {
		return canonical
	}
	for _, v := range Valid() {
		if strings.EqualFold(v, trimmed) {
			return v
		}
	}
	return trimmed
}

// IsValid checks if a label is one of the recognized classifications
func IsValid(s string) bool {
	for _, v := range Valid() {
		if strings.EqualFold(v, strings.TrimSpace(s)) {
			return true
		}
	}
	return false
}
