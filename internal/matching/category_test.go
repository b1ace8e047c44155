package matching

import (
	"testing"

	"github.com/pharmstock/inventory-service/internal/types"
)

func TestSimilarity(t *testing.T) {
	t.Run("identical strings score 1", func(t *testing.T) {
		if got := Similarity("Pain Relief", "Pain Relief"); got != 1.0 {
			t.Errorf("Similarity = %v, want 1.0", got)
		}
	})

	t.Run("case and accents do not reduce the score", func(t *testing.T) {
		if got := Similarity("PAIN RELIEF", "pain relief"); got != 1.0 {
			t.Errorf("Similarity = %v, want 1.0", got)
		}
		if got := Similarity("Paracétamol", "paracetamol"); got != 1.0 {
			t.Errorf("Similarity = %v, want 1.0", got)
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		a, b := "Antibiotics", "Antibiotic"
		if Similarity(a, b) != Similarity(b, a) {
			t.Errorf("Similarity(%q,%q) != Similarity(%q,%q)", a, b, b, a)
		}
	})

	t.Run("single typo scores above default threshold", func(t *testing.T) {
		got := Similarity("Pain Releif", "Pain Relief")
		if got < DefaultThreshold {
			t.Errorf("Similarity = %v, want >= %v", got, DefaultThreshold)
		}
	})

	t.Run("unrelated names score low", func(t *testing.T) {
		got := Similarity("Antibiotics", "First Aid")
		if got >= DefaultThreshold {
			t.Errorf("Similarity = %v, want < %v", got, DefaultThreshold)
		}
	})

	t.Run("never negative", func(t *testing.T) {
		if got := Similarity("ab", "wxyzwxyzwxyz"); got < 0 {
			t.Errorf("Similarity = %v, want >= 0", got)
		}
	})
}

func TestCanonicalName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"analgesics", "Pain Relief"},
		{"Analgesics", "Pain Relief"},
		{"NSAIDs", "Pain Relief"},
		{"OTC", "General"},
		{"antihypertensive", "Cardiovascular"},
		{"herbal remedies", "Herbal Remedies"},
		{"  cough   &  cold ", "Cough & Cold"},
	}

	for _, tt := range tests {
		got := CanonicalName(tt.input)
		if got != tt.expected {
			t.Errorf("CanonicalName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestMatcherMatch(t *testing.T) {
	existing := []types.CategoryRef{
		{ID: "cat_1", Name: "Pain Relief"},
		{ID: "cat_2", Name: "Antibiotics"},
		{ID: "cat_3", Name: "Vitamins & Supplements"},
	}
	m := NewMatcher(0)

	t.Run("exact match binds with score 1", func(t *testing.T) {
		ref, score := m.Match("pain relief", existing)
		if ref == nil || ref.ID != "cat_1" {
			t.Fatalf("Match = %+v, want cat_1", ref)
		}
		if score != 1.0 {
			t.Errorf("score = %v, want 1.0", score)
		}
	})

	t.Run("synonym resolves then binds exactly", func(t *testing.T) {
		ref, score := m.Match("Analgesics", existing)
		if ref == nil || ref.ID != "cat_1" {
			t.Fatalf("Match = %+v, want cat_1", ref)
		}
		if score != 1.0 {
			t.Errorf("score = %v, want 1.0", score)
		}
	})

	t.Run("typo binds at default threshold", func(t *testing.T) {
		ref, score := m.Match("Pain Releif", existing)
		if ref == nil || ref.ID != "cat_1" {
			t.Fatalf("Match = %+v, want cat_1", ref)
		}
		if score < DefaultThreshold || score >= 1.0 {
			t.Errorf("score = %v, want in [%v, 1)", score, DefaultThreshold)
		}
	})

	t.Run("short names never fuzzy-match", func(t *testing.T) {
		ref, score := m.Match("Eye", []types.CategoryRef{{ID: "cat_9", Name: "Eyes"}})
		if ref != nil {
			t.Errorf("Match = %+v, want nil for short name", ref)
		}
		if score != 0 {
			t.Errorf("score = %v, want 0", score)
		}
	})

	t.Run("stricter threshold rejects the typo", func(t *testing.T) {
		strict := NewMatcher(0.95)
		ref, score := strict.Match("Pain Releif", existing)
		if ref != nil {
			t.Errorf("Match = %+v, want nil under 0.95 threshold", ref)
		}
		if score <= 0 {
			t.Errorf("score = %v, want best sub-threshold score > 0", score)
		}
	})

	t.Run("no existing categories", func(t *testing.T) {
		ref, _ := m.Match("Herbal Remedies", nil)
		if ref != nil {
			t.Errorf("Match = %+v, want nil", ref)
		}
	})
}

func TestMatcherReconcile(t *testing.T) {
	existing := []types.CategoryRef{
		{ID: "cat_1", Name: "Pain Relief"},
	}
	m := NewMatcher(0)

	records := []types.ImportRecord{
		{CategoryName: "Pain Relief"},
		{CategoryName: "Herbal Remedies"},
		{CategoryName: "herbal  remedies"},
		{CategoryName: "Pain Releif"},
		{CategoryName: "Diagnostics"},
	}

	matched, candidates := m.Reconcile(records, existing)

	if len(matched) != 2 {
		t.Fatalf("matched %d records, want 2: %+v", len(matched), matched)
	}
	if matched[0].ID != "cat_1" || matched[3].ID != "cat_1" {
		t.Errorf("records 0 and 3 should bind to cat_1, got %+v", matched)
	}

	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2: %+v", len(candidates), candidates)
	}

	byName := make(map[string]types.CategoryCandidate)
	for _, c := range candidates {
		byName[c.NormalizedName] = c
	}

	herbal, ok := byName["Herbal Remedies"]
	if !ok {
		t.Fatalf("missing Herbal Remedies candidate: %+v", candidates)
	}
	if herbal.MemberRowCount != 2 {
		t.Errorf("Herbal Remedies MemberRowCount = %d, want 2", herbal.MemberRowCount)
	}

	if _, ok := byName["Diagnostics"]; !ok {
		t.Errorf("missing Diagnostics candidate: %+v", candidates)
	}
}

func TestReconcileNearMissAdvisory(t *testing.T) {
	existing := []types.CategoryRef{
		{ID: "cat_1", Name: "Pain Relief"},
	}
	m := NewMatcher(0.9)

	records := []types.ImportRecord{{CategoryName: "Pain Releif"}}
	matched, candidates := m.Reconcile(records, existing)

	if len(matched) != 0 {
		t.Fatalf("expected no binding under 0.9 threshold, got %+v", matched)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	cand := candidates[0]
	if cand.SimilarTo == nil || cand.SimilarTo.ID != "cat_1" {
		t.Fatalf("SimilarTo = %+v, want cat_1 advisory", cand.SimilarTo)
	}
	if cand.SimilarityScore <= 0 || cand.SimilarityScore >= 0.9 {
		t.Errorf("SimilarityScore = %v, want in (0, 0.9)", cand.SimilarityScore)
	}
}
