package charset

import "testing"

func TestDetectEncoding(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected Encoding
	}{
		{"UTF-8 BOM", []byte{0xEF, 0xBB, 0xBF, 'a', 'b'}, EncodingUTF8},
		{"Plain ASCII", []byte("generic_name,price"), EncodingUTF8},
		{"Valid multibyte UTF-8", []byte("Pharmacié"), EncodingUTF8},
		{"Windows-1252 byte", []byte{'c', 'a', 'f', 0xE9}, EncodingWindows1252},
		{"Empty input", []byte{}, EncodingUTF8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectEncoding(tt.data)
			if got != tt.expected {
				t.Errorf("DetectEncoding(%v) = %q, want %q", tt.data, got, tt.expected)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	t.Run("BOM is stripped", func(t *testing.T) {
		got, err := Decode([]byte{0xEF, 0xBB, 0xBF, 'h', 'i'}, EncodingUTF8)
		if err != nil {
			t.Fatalf("Decode returned error: %v", err)
		}
		if got != "hi" {
			t.Errorf("Decode = %q, want %q", got, "hi")
		}
	})

	t.Run("windows-1252 decoded", func(t *testing.T) {
		got, err := Decode([]byte{'c', 'a', 'f', 0xE9}, EncodingWindows1252)
		if err != nil {
			t.Fatalf("Decode returned error: %v", err)
		}
		if got != "café" {
			t.Errorf("Decode = %q, want %q", got, "café")
		}
	})

	t.Run("valid UTF-8 passes through regardless of requested encoding", func(t *testing.T) {
		got, err := Decode([]byte("café"), EncodingWindows1252)
		if err != nil {
			t.Fatalf("Decode returned error: %v", err)
		}
		if got != "café" {
			t.Errorf("Decode = %q, want %q", got, "café")
		}
	})

	t.Run("iso-8859-1 decoded", func(t *testing.T) {
		got, err := Decode([]byte{0xF1}, EncodingISO88591)
		if err != nil {
			t.Fatalf("Decode returned error: %v", err)
		}
		if got != "ñ" {
			t.Errorf("Decode = %q, want %q", got, "ñ")
		}
	})
}
