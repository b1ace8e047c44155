package csv

import (
	"errors"
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	parser := NewParser(DefaultOptions())

	t.Run("header synonyms resolve to logical fields", func(t *testing.T) {
		content := []byte("Product Name,Brand,Category,Unit_Price,Stock\nParacetamol,Biogesic,Pain Relief,2.50,100\n")
		result, err := parser.Parse(content)
		if err != nil {
			t.Fatalf("Parse returned error: %v", err)
		}
		wantHeaders := []string{"generic_name", "brand_name", "category_name", "price_per_piece", "stock_in_pieces"}
		if !reflect.DeepEqual(result.Headers, wantHeaders) {
			t.Errorf("Headers = %v, want %v", result.Headers, wantHeaders)
		}
		if len(result.Rows) != 1 {
			t.Fatalf("expected 1 row, got %d", len(result.Rows))
		}
		row := result.Rows[0]
		if row.Get("generic_name") != "Paracetamol" {
			t.Errorf("generic_name = %q, want Paracetamol", row.Get("generic_name"))
		}
		if row.Get("price_per_piece") != "2.50" {
			t.Errorf("price_per_piece = %q, want 2.50", row.Get("price_per_piece"))
		}
	})

	t.Run("semicolon delimiter auto-detected", func(t *testing.T) {
		content := []byte("name;price\nAmoxicillin;1,25\nCetirizine;0,80\n")
		result, err := parser.Parse(content)
		if err != nil {
			t.Fatalf("Parse returned error: %v", err)
		}
		if len(result.Rows) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(result.Rows))
		}
		if result.Rows[0].Get("price_per_piece") != "1,25" {
			t.Errorf("price = %q, want 1,25", result.Rows[0].Get("price_per_piece"))
		}
	})

	t.Run("UTF-8 BOM stripped", func(t *testing.T) {
		content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("name,price\nIbuprofen,3.00\n")...)
		result, err := parser.Parse(content)
		if err != nil {
			t.Fatalf("Parse returned error: %v", err)
		}
		if len(result.Rows) != 1 || result.Rows[0].Get("generic_name") != "Ibuprofen" {
			t.Errorf("unexpected rows: %+v", result.Rows)
		}
	})

	t.Run("windows-1252 content decoded", func(t *testing.T) {
		// 0xE9 is é in windows-1252, invalid as standalone UTF-8
		content := []byte("name,supplier\nParacetamol,Pharmaci\xe9\n")
		result, err := parser.Parse(content)
		if err != nil {
			t.Fatalf("Parse returned error: %v", err)
		}
		if got := result.Rows[0].Get("supplier_name"); got != "Pharmacié" {
			t.Errorf("supplier_name = %q, want Pharmacié", got)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := parser.Parse([]byte(""))
		if !errors.Is(err, ErrEmptyInput) {
			t.Errorf("expected ErrEmptyInput, got %v", err)
		}
	})

	t.Run("no recognized columns", func(t *testing.T) {
		_, err := parser.Parse([]byte("foo,bar\n1,2\n"))
		if err == nil {
			t.Fatal("expected error for unrecognized header")
		}
	})
}

func TestMapRows(t *testing.T) {
	t.Run("blank and duplicate header rows skipped", func(t *testing.T) {
		rows := [][]string{
			{"", ""},
			{"Generic Name", "Price"},
			{"Paracetamol", "2.50"},
			{"", ""},
			{"Generic Name", "Price"},
			{"Ibuprofen", "3.00"},
		}
		result, err := MapRows(rows)
		if err != nil {
			t.Fatalf("MapRows returned error: %v", err)
		}
		if len(result.Rows) != 2 {
			t.Fatalf("expected 2 data rows, got %d", len(result.Rows))
		}
		if result.SkippedRows != 2 {
			t.Errorf("SkippedRows = %d, want 2", result.SkippedRows)
		}
	})

	t.Run("malformed row with extra fields skipped", func(t *testing.T) {
		rows := [][]string{
			{"name", "price"},
			{"Paracetamol", "2.50", "stray"},
			{"Ibuprofen", "3.00"},
		}
		result, err := MapRows(rows)
		if err != nil {
			t.Fatalf("MapRows returned error: %v", err)
		}
		if len(result.Rows) != 1 {
			t.Fatalf("expected 1 row, got %d", len(result.Rows))
		}
		if result.SkippedRows != 1 {
			t.Errorf("SkippedRows = %d, want 1", result.SkippedRows)
		}
		if result.Rows[0].Get("generic_name") != "Ibuprofen" {
			t.Errorf("surviving row = %q, want Ibuprofen", result.Rows[0].Get("generic_name"))
		}
	})

	t.Run("short row keeps available fields", func(t *testing.T) {
		rows := [][]string{
			{"name", "price", "stock"},
			{"Paracetamol", "2.50"},
		}
		result, err := MapRows(rows)
		if err != nil {
			t.Fatalf("MapRows returned error: %v", err)
		}
		row := result.Rows[0]
		if row.Has("stock_in_pieces") {
			t.Error("missing trailing cell should leave field absent")
		}
		if row.Get("price_per_piece") != "2.50" {
			t.Errorf("price_per_piece = %q, want 2.50", row.Get("price_per_piece"))
		}
	})

	t.Run("line numbers count the header as row 1", func(t *testing.T) {
		rows := [][]string{
			{"name"},
			{"Paracetamol"},
			{""},
			{"Ibuprofen"},
		}
		result, err := MapRows(rows)
		if err != nil {
			t.Fatalf("MapRows returned error: %v", err)
		}
		if result.Rows[0].LineNumber != 2 {
			t.Errorf("first data row LineNumber = %d, want 2", result.Rows[0].LineNumber)
		}
		if result.Rows[1].LineNumber != 4 {
			t.Errorf("second data row LineNumber = %d, want 4", result.Rows[1].LineNumber)
		}
	})

	t.Run("unrecognized columns ignored without error", func(t *testing.T) {
		rows := [][]string{
			{"name", "internal_code", "price"},
			{"Paracetamol", "X-99", "2.50"},
		}
		result, err := MapRows(rows)
		if err != nil {
			t.Fatalf("MapRows returned error: %v", err)
		}
		wantHeaders := []string{"generic_name", "price_per_piece"}
		if !reflect.DeepEqual(result.Headers, wantHeaders) {
			t.Errorf("Headers = %v, want %v", result.Headers, wantHeaders)
		}
		if result.Rows[0].Has("internal_code") {
			t.Error("unrecognized column should not appear in row fields")
		}
	})
}
