package matching

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Lowercases", "Pain Relief", "pain relief"},
		{"Trims whitespace", "  Antibiotics  ", "antibiotics"},
		{"Collapses inner whitespace", "Cough   &   Cold", "cough & cold"},
		{"Strips diacritics", "Paracétamol", "paracetamol"},
		{"Mixed", "  VITAMINS   &  Supplémentos ", "vitamins & supplementos"},
		{"Empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeName(tt.input)
			if got != tt.expected {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRemoveDiacritics(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"café", "cafe"},
		{"Paracétamol", "Paracetamol"},
		{"niño", "nino"},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		got := RemoveDiacritics(tt.input)
		if got != tt.expected {
			t.Errorf("RemoveDiacritics(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"pain relief", "Pain Relief"},
		{"CARDIOVASCULAR DRUGS", "Cardiovascular Drugs"},
		{"  first aid ", "First Aid"},
	}

	for _, tt := range tests {
		got := TitleCase(tt.input)
		if got != tt.expected {
			t.Errorf("TitleCase(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
