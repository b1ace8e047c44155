package importer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pharmstock/inventory-service/internal/classifications"
	"github.com/pharmstock/inventory-service/internal/types"
	"github.com/rs/zerolog/log"
)

// Field defaults applied when a value is missing or unparseable.
// Explicit out-of-range input is NOT clamped to these; the validator
// rejects it instead.
const (
	DefaultCategory     = "General"
	DefaultPrice        = 1.00
	MinPrice            = 0.01
	DefaultPiecesSheet  = 1
	DefaultSheetsBox    = 1
	DefaultStock        = 0
	DefaultReorderLevel = 10
)

// expiryLayouts are tried in order: ISO first, then day-first, then
// US month-first. Two-format collisions therefore resolve toward ISO.
var expiryLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
	"02-01-2006",
}

// Normalizer converts raw rows into best-effort typed records.
// It never fails: unusable values fall back to documented defaults and
// validation happens in a separate stage.
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer creates a normalizer using the wall clock.
func NewNormalizer() *Normalizer {
	return &Normalizer{now: time.Now}
}

// NewNormalizerAt creates a normalizer with a fixed clock, for batch-stable
// batch numbers and deterministic tests.
func NewNormalizerAt(now time.Time) *Normalizer {
	return &Normalizer{now: func() time.Time { return now }}
}

// Normalize converts one raw row into an ImportRecord. rowIndex is the
// 1-based data row position within the batch, used for generated batch
// numbers.
func (n *Normalizer) Normalize(row types.RawRow, rowIndex int) types.ImportRecord {
	rec := types.ImportRecord{
		RowNumber: row.LineNumber,
		Raw:       row.Fields,
	}

	rec.GenericName = cleanString(row.Get("generic_name"))

	rec.BrandName = cleanString(row.Get("brand_name"))
	if rec.BrandName == "" {
		rec.BrandName = rec.GenericName
	}

	rec.CategoryName = cleanString(row.Get("category_name"))
	if rec.CategoryName == "" {
		rec.CategoryName = DefaultCategory
	}

	if v := cleanString(row.Get("dosage_strength")); v != "" {
		rec.DosageStrength = &v
	}
	if v := cleanString(row.Get("dosage_form")); v != "" {
		rec.DosageForm = &v
	}

	rec.Description = cleanString(row.Get("description"))
	if rec.Description == "" {
		rec.Description = synthesizeDescription(rec.GenericName, rec.DosageStrength, rec.DosageForm)
	}

	rec.DrugClassification = classifications.Canonical(cleanString(row.Get("drug_classification")))

	rec.PricePerPiece = DefaultPrice
	if parsed, err := parseDecimal(row.Get("price_per_piece")); err == nil {
		rec.PricePerPiece = math.Max(parsed, MinPrice)
	}

	if parsed, err := parseDecimal(row.Get("cost_price")); err == nil {
		cost := math.Max(parsed, 0)
		rec.CostPrice = &cost
	}

	if rec.CostPrice != nil && *rec.CostPrice > 0 {
		margin := round2((rec.PricePerPiece - *rec.CostPrice) / *rec.CostPrice * 100)
		rec.MarginPercentage = &margin
	}

	rec.PiecesPerSheet = parseIntDefault(row.Get("pieces_per_sheet"), DefaultPiecesSheet, 1)
	rec.SheetsPerBox = parseIntDefault(row.Get("sheets_per_box"), DefaultSheetsBox, 1)
	rec.StockInPieces = parseIntDefault(row.Get("stock_in_pieces"), DefaultStock, 0)
	rec.ReorderLevel = parseIntDefault(row.Get("reorder_level"), DefaultReorderLevel, 1)

	if raw := cleanString(row.Get("expiry_date")); raw != "" {
		if t := parseExpiryDate(raw); t != nil {
			rec.ExpiryDate = t
		} else {
			log.Warn().
				Int("row", row.LineNumber).
				Str("value", raw).
				Msg("Unparseable expiry date, importing without one")
		}
	}

	rec.BatchNumber = cleanString(row.Get("batch_number"))
	if rec.BatchNumber == "" {
		rec.BatchNumber = fmt.Sprintf("BT%s-%03d", n.now().Format("20060102"), rowIndex)
	}

	if v := cleanString(row.Get("supplier_name")); v != "" {
		rec.SupplierName = &v
	}

	return rec
}

// NormalizeAll converts every tokenized row, preserving order.
func (n *Normalizer) NormalizeAll(rows []types.RawRow) []types.ImportRecord {
	records := make([]types.ImportRecord, 0, len(rows))
	for i, row := range rows {
		records = append(records, n.Normalize(row, i+1))
	}
	return records
}

// cleanString strips one layer of wrapping quotes left by naive upstream
// splitting, then trims whitespace.
func cleanString(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

// synthesizeDescription builds "{generic} - {strength} {form}" omitting
// missing components, with whitespace collapsed.
func synthesizeDescription(generic string, strength, form *string) string {
	suffix := ""
	if strength != nil {
		suffix = *strength
	}
	if form != nil {
		suffix = strings.TrimSpace(suffix + " " + *form)
	}
	if suffix == "" {
		return generic
	}
	if generic == "" {
		return suffix
	}
	return strings.Join(strings.Fields(generic+" - "+suffix), " ")
}

// parseDecimal parses a price-like value. Currency symbols and
// thousands separators are tolerated ("₱1,299.50" -> 1299.50).
func parseDecimal(s string) (float64, error) {
	cleaned := cleanString(s)
	cleaned = strings.TrimLeft(cleaned, "₱$€£ ")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, fmt.Errorf("empty value")
	}

	lastDot := strings.LastIndex(cleaned, ".")
	lastComma := strings.LastIndex(cleaned, ",")
	if lastDot > lastComma {
		// US format: commas are thousands separators
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	} else if lastComma > lastDot {
		// European format: dots are thousands separators, comma is decimal
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	}

	return strconv.ParseFloat(cleaned, 64)
}

// parseIntDefault parses an integer field, substituting the default on
// empty or unparseable input and clamping the parsed value to min.
// The clamp applies to the parse result only so that defaults always
// satisfy the field's constraint; explicit invalid input is still visible
// to the validator via the record's Raw map.
func parseIntDefault(s string, def, min int) int {
	cleaned := cleanString(s)
	if cleaned == "" {
		return def
	}
	parsed, err := strconv.Atoi(cleaned)
	if err != nil {
		// Tolerate decimal notation for integer fields ("10.0")
		if f, ferr := strconv.ParseFloat(cleaned, 64); ferr == nil {
			parsed = int(f)
		} else {
			return def
		}
	}
	if parsed < min {
		return min
	}
	return parsed
}

// parseExpiryDate tries the accepted layouts in order, ISO first.
func parseExpiryDate(s string) *time.Time {
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// round2 rounds to two decimal places
func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
