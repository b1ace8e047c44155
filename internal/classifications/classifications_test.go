package classifications

import "testing"

func TestCanonical(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Empty uses default", "", Default},
		{"Whitespace uses default", "   ", Default},
		{"OTC shorthand", "otc", "Over-the-Counter (OTC)"},
		{"OTC uppercase", "OTC", "Over-the-Counter (OTC)"},
		{"Spelled out", "over the counter", "Over-the-Counter (OTC)"},
		{"Rx shorthand", "rx", "Prescription (Rx)"},
		{"Prescription", "Prescription", "Prescription (Rx)"},
		{"Controlled", "controlled", "Controlled Substance"},
		{"Antibiotic", "antibiotic", "Antibiotic (Rx)"},
		{"Herbal", "herbal", "Herbal Supplement"},
		{"Canonical label passes through", "Prescription (Rx)", "Prescription (Rx)"},
		{"Canonical label case-insensitive", "prescription (rx)", "Prescription (Rx)"},
		{"Unrecognized kept trimmed", "  Veterinary  ", "Veterinary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Canonical(tt.input)
			if got != tt.expected {
				t.Errorf("Canonical(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestIsValid(t *testing.T) {
	for _, v := range Valid() {
		if !IsValid(v) {
			t.Errorf("IsValid(%q) = false, want true", v)
		}
	}
	if IsValid("Veterinary") {
		t.Error("IsValid(Veterinary) = true, want false")
	}
	if !IsValid("over-the-counter (otc)") {
		t.Error("IsValid should be case-insensitive")
	}
}
