package csv

import "github.com/pharmstock/inventory-service/internal/parsers/charset"

// Delimiter represents supported CSV delimiters
type Delimiter string

const (
	DelimiterComma     Delimiter = ","
	DelimiterSemicolon Delimiter = ";"
	DelimiterTab       Delimiter = "\t"
)

// ParserOptions represents CSV tokenizer options
type ParserOptions struct {
	Delimiter Delimiter        `json:"delimiter,omitempty"`
	Encoding  charset.Encoding `json:"encoding,omitempty"`
	QuoteChar rune             `json:"quoteChar,omitempty"`
}

// DefaultOptions returns default tokenizer options. Delimiter and encoding
// are left empty so the parser auto-detects them.
func DefaultOptions() ParserOptions {
	return ParserOptions{
		QuoteChar: '"',
	}
}

// PrimaryField is the logical field used as the row identity for duplicate
// header detection and as the required product name downstream.
const PrimaryField = "generic_name"

// columnSynonyms maps normalized header spellings to logical field names.
// Unrecognized columns are ignored, not rejected.
var columnSynonyms = map[string]string{
	"generic_name":        "generic_name",
	"generic name":        "generic_name",
	"genericname":         "generic_name",
	"name":                "generic_name",
	"product_name":        "generic_name",
	"product name":        "generic_name",
	"brand_name":          "brand_name",
	"brand name":          "brand_name",
	"brandname":           "brand_name",
	"brand":               "brand_name",
	"category_name":       "category_name",
	"category name":       "category_name",
	"category":            "category_name",
	"description":         "description",
	"dosage_strength":     "dosage_strength",
	"dosage strength":     "dosage_strength",
	"strength":            "dosage_strength",
	"dosage_form":         "dosage_form",
	"dosage form":         "dosage_form",
	"form":                "dosage_form",
	"drug_classification": "drug_classification",
	"drug classification": "drug_classification",
	"classification":      "drug_classification",
	"price_per_piece":     "price_per_piece",
	"price per piece":     "price_per_piece",
	"price":               "price_per_piece",
	"unit_price":          "price_per_piece",
	"cost_price":          "cost_price",
	"cost price":          "cost_price",
	"cost":                "cost_price",
	"margin_percentage":   "margin_percentage",
	"margin percentage":   "margin_percentage",
	"margin":              "margin_percentage",
	"pieces_per_sheet":    "pieces_per_sheet",
	"pieces per sheet":    "pieces_per_sheet",
	"sheets_per_box":      "sheets_per_box",
	"sheets per box":      "sheets_per_box",
	"stock_in_pieces":     "stock_in_pieces",
	"stock in pieces":     "stock_in_pieces",
	"stock":               "stock_in_pieces",
	"quantity":            "stock_in_pieces",
	"reorder_level":       "reorder_level",
	"reorder level":       "reorder_level",
	"expiry_date":         "expiry_date",
	"expiry date":         "expiry_date",
	"expiry":              "expiry_date",
	"expiration_date":     "expiry_date",
	"batch_number":        "batch_number",
	"batch number":        "batch_number",
	"batch":               "batch_number",
	"lot_number":          "batch_number",
	"supplier_name":       "supplier_name",
	"supplier name":       "supplier_name",
	"supplier":            "supplier_name",
}

// RecognizedFields returns the logical field names the tokenizer can emit.
func RecognizedFields() []string {
	seen := make(map[string]bool)
	fields := make([]string, 0, len(columnSynonyms))
	for _, f := range columnSynonyms {
		if !seen[f] {
			seen[f] = true
			fields = append(fields, f)
		}
	}
	return fields
}
