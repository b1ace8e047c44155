package matching

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/pharmstock/inventory-service/internal/types"
	"github.com/rs/zerolog/log"
)

// DefaultThreshold is the similarity score at or above which a proposed
// category name binds silently to an existing one.
const DefaultThreshold = 0.70

// minFuzzyLength guards edit-distance scoring for very short names, where a
// single character difference can cross the threshold. Shorter names only
// bind on exact (case-insensitive) equality.
const minFuzzyLength = 4

// categorySynonyms maps normalized pharmaceutical-domain aliases to
// canonical category names.
var categorySynonyms = map[string]string{
	"analgesic":              "Pain Relief",
	"analgesics":             "Pain Relief",
	"painkiller":             "Pain Relief",
	"painkillers":            "Pain Relief",
	"pain killers":           "Pain Relief",
	"pain medication":        "Pain Relief",
	"antibiotic":             "Antibiotics",
	"antibiotics":            "Antibiotics",
	"antibacterial":          "Antibiotics",
	"antimicrobial":          "Antibiotics",
	"vitamin":                "Vitamins & Supplements",
	"vitamins":               "Vitamins & Supplements",
	"supplement":             "Vitamins & Supplements",
	"supplements":            "Vitamins & Supplements",
	"multivitamins":          "Vitamins & Supplements",
	"antihistamine":          "Allergy & Antihistamines",
	"antihistamines":         "Allergy & Antihistamines",
	"allergy":                "Allergy & Antihistamines",
	"cough and cold":         "Cough & Cold",
	"cold and flu":           "Cough & Cold",
	"cough medicine":         "Cough & Cold",
	"antacid":                "Digestive Health",
	"antacids":               "Digestive Health",
	"acid reducer":           "Digestive Health",
	"digestive":              "Digestive Health",
	"antidiabetic":           "Diabetes Care",
	"diabetes":               "Diabetes Care",
	"cardiac":                "Cardiovascular",
	"heart medication":       "Cardiovascular",
	"antihypertensive":       "Cardiovascular",
	"antihypertensives":      "Cardiovascular",
	"dermatological":         "Dermatology",
	"skin care":              "Dermatology",
	"topical":                "Dermatology",
	"first aid":              "First Aid",
	"wound care":             "First Aid",
	"over the counter":       "General",
	"otc":                    "General",
	"miscellaneous":          "General",
	"ophthalmic":             "Eye & Ear Care",
	"eye drops":              "Eye & Ear Care",
	"respiratory":            "Respiratory",
	"asthma":                 "Respiratory",
	"gastrointestinal":       "Digestive Health",
	"anti-inflammatory":      "Pain Relief",
	"nsaid":                  "Pain Relief",
	"nsaids":                 "Pain Relief",
	"contraceptive":          "Family Planning",
	"contraceptives":         "Family Planning",
	"prenatal":               "Maternal Care",
	"maternal":               "Maternal Care",
}

// CanonicalName normalizes a proposed category name: synonym-mapped aliases
// resolve to their canonical category, everything else is title-cased.
func CanonicalName(name string) string {
	normalized := NormalizeName(name)
	if canonical, ok := categorySynonyms[normalized]; ok {
		return canonical
	}
	return TitleCase(normalized)
}

// Similarity computes a normalized edit-distance score in [0,1].
// Symmetric, and Similarity(a, a) == 1.
func Similarity(a, b string) float64 {
	an := NormalizeName(a)
	bn := NormalizeName(b)
	if an == bn {
		return 1.0
	}
	maxLen := utf8.RuneCountInString(an)
	if l := utf8.RuneCountInString(bn); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(an, bn)
	score := 1.0 - float64(dist)/float64(maxLen)
	if score < 0 {
		return 0
	}
	return score
}

// Matcher reconciles free-text category names against an existing category
// set. Stateless apart from its threshold.
type Matcher struct {
	threshold float64
}

// NewMatcher creates a matcher. A zero threshold selects DefaultThreshold.
func NewMatcher(threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{threshold: threshold}
}

// Match finds the existing category for a proposed name, if any.
// Exact (case-insensitive) matches bind directly. Otherwise the best fuzzy
// score at or above the threshold binds silently (typo tolerance). Existing
// categories are scanned in alphabetical order so score ties break
// deterministically toward the first name.
func (m *Matcher) Match(name string, existing []types.CategoryRef) (*types.CategoryRef, float64) {
	canonical := CanonicalName(name)
	normalized := NormalizeName(canonical)

	ordered := make([]types.CategoryRef, len(existing))
	copy(ordered, existing)
	sort.Slice(ordered, func(i, j int) bool {
		return strings.ToLower(ordered[i].Name) < strings.ToLower(ordered[j].Name)
	})

	for i := range ordered {
		if NormalizeName(ordered[i].Name) == normalized {
			return &ordered[i], 1.0
		}
	}

	if utf8.RuneCountInString(normalized) < minFuzzyLength {
		return nil, 0
	}

	var best *types.CategoryRef
	bestScore := 0.0
	for i := range ordered {
		score := Similarity(canonical, ordered[i].Name)
		if score > bestScore {
			bestScore = score
			best = &ordered[i]
		}
	}

	if best != nil && bestScore >= m.threshold {
		log.Debug().
			Str("proposed", name).
			Str("matched", best.Name).
			Float64("score", bestScore).
			Msg("Fuzzy category match")
		return best, bestScore
	}

	return nil, bestScore
}

// Reconcile scans the records' category names against the existing set.
// It returns a record-index -> category binding for every resolvable name,
// and deduplicated candidates for names needing human approval. Candidates
// carry the best sub-threshold match (if any) for the approver's benefit.
func (m *Matcher) Reconcile(records []types.ImportRecord, existing []types.CategoryRef) (map[int]types.CategoryRef, []types.CategoryCandidate) {
	matched := make(map[int]types.CategoryRef)
	candidateIdx := make(map[string]int)
	candidates := make([]types.CategoryCandidate, 0)

	for i, rec := range records {
		ref, score := m.Match(rec.CategoryName, existing)
		if ref != nil {
			matched[i] = *ref
			continue
		}

		canonical := CanonicalName(rec.CategoryName)
		key := NormalizeName(canonical)
		if idx, ok := candidateIdx[key]; ok {
			candidates[idx].MemberRowCount++
			continue
		}

		cand := types.CategoryCandidate{
			ProposedName:   rec.CategoryName,
			NormalizedName: canonical,
			MemberRowCount: 1,
		}
		if score > 0 {
			if similar := m.bestBelowThreshold(canonical, existing); similar != nil {
				cand.SimilarTo = similar
				cand.SimilarityScore = score
			}
		}
		candidateIdx[key] = len(candidates)
		candidates = append(candidates, cand)
	}

	return matched, candidates
}

// bestBelowThreshold returns the closest existing category even when it did
// not reach the binding threshold, so the approver sees near-misses.
func (m *Matcher) bestBelowThreshold(name string, existing []types.CategoryRef) *types.CategoryRef {
	var best *types.CategoryRef
	bestScore := 0.0
	for i := range existing {
		score := Similarity(name, existing[i].Name)
		if score > bestScore {
			bestScore = score
			best = &existing[i]
		}
	}
	return best
}
