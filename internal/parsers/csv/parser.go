package csv

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pharmstock/inventory-service/internal/parsers/charset"
	"github.com/pharmstock/inventory-service/internal/types"
	"github.com/rs/zerolog/log"
)

// ErrEmptyInput is returned when the input contains no header row at all.
// It is the tokenizer's only fatal error; everything else degrades row by row.
var ErrEmptyInput = errors.New("input contains no rows")

// Parser implements CSV tokenization with encoding detection and
// synonym-based header recognition
type Parser struct {
	options ParserOptions
}

// NewParser creates a new CSV parser with the given options
func NewParser(options ParserOptions) *Parser {
	if options.QuoteChar == 0 {
		options.QuoteChar = '"'
	}
	return &Parser{options: options}
}

// Parse tokenizes raw CSV content into header-keyed rows.
// The first row is the header; header names are case-folded, trimmed and
// resolved through the column synonym table. Unrecognized columns are
// ignored. Blank rows, re-inserted header rows and malformed rows are
// dropped (logged, not errors).
func (p *Parser) Parse(content []byte) (*types.TokenizeResult, error) {
	opts := p.options

	if opts.Encoding == "" {
		opts.Encoding = charset.DetectEncoding(content)
	}

	decoded, err := charset.Decode(content, opts.Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}

	if opts.Delimiter == "" {
		opts.Delimiter = DetectDelimiter(decoded)
	}

	delimRune := rune(opts.Delimiter[0])
	rawRows := SplitRows(decoded, delimRune, opts.QuoteChar)

	return MapRows(rawRows)
}

// MapRows applies header recognition and the row filtering policy to
// pre-split rows. The XLSX parser feeds its sheet rows through here so both
// intake formats share one column vocabulary.
func MapRows(rawRows [][]string) (*types.TokenizeResult, error) {
	// Strip leading blank rows before the header
	for len(rawRows) > 0 && isEmptyRow(rawRows[0]) {
		rawRows = rawRows[1:]
	}
	if len(rawRows) == 0 {
		return nil, ErrEmptyInput
	}

	header := rawRows[0]
	columns := resolveColumns(header)
	if len(columns) == 0 {
		return nil, fmt.Errorf("no recognized columns in header %v", header)
	}

	primaryIdx := -1
	for idx, field := range columns {
		if field == PrimaryField {
			primaryIdx = idx
		}
	}
	headerPrimary := ""
	if primaryIdx >= 0 && primaryIdx < len(header) {
		headerPrimary = normalizeHeader(header[primaryIdx])
	}

	result := &types.TokenizeResult{
		Rows:    make([]types.RawRow, 0, len(rawRows)-1),
		Headers: orderedFields(header, columns),
	}

	for i := 1; i < len(rawRows); i++ {
		row := rawRows[i]
		rowNumber := i + 1 // header is row 1

		if isEmptyRow(row) {
			result.SkippedRows++
			continue
		}

		// Duplicate header re-inserted mid-file
		if primaryIdx >= 0 && primaryIdx < len(row) &&
			headerPrimary != "" && normalizeHeader(row[primaryIdx]) == headerPrimary {
			log.Debug().Int("row", rowNumber).Msg("Dropping duplicate header row")
			result.SkippedRows++
			continue
		}

		// Malformed-row heuristic: more fields than declared columns means
		// an unquoted delimiter slipped into a value
		if len(row) > len(header) {
			log.Warn().
				Int("row", rowNumber).
				Int("fields", len(row)).
				Int("columns", len(header)).
				Msg("Dropping malformed row: field count exceeds header")
			result.SkippedRows++
			continue
		}

		fields := make(map[string]string, len(columns))
		for idx, field := range columns {
			if idx >= len(row) {
				continue
			}
			val := strings.TrimSpace(row[idx])
			if val == "" {
				continue
			}
			fields[field] = val
		}

		result.Rows = append(result.Rows, types.RawRow{
			LineNumber: rowNumber,
			Fields:     fields,
		})
	}

	return result, nil
}

// resolveColumns maps column indices to logical field names via the synonym
// table. Later duplicates of an already-seen field are ignored.
func resolveColumns(header []string) map[int]string {
	columns := make(map[int]string)
	seen := make(map[string]bool)

	for idx, h := range header {
		normalized := normalizeHeader(h)
		field, ok := columnSynonyms[normalized]
		if !ok {
			if normalized != "" {
				log.Debug().Str("header", h).Msg("Ignoring unrecognized column")
			}
			continue
		}
		if seen[field] {
			log.Warn().Str("header", h).Str("field", field).Msg("Ignoring duplicate column")
			continue
		}
		seen[field] = true
		columns[idx] = field
	}

	return columns
}

// orderedFields returns the logical field names in file column order.
func orderedFields(header []string, columns map[int]string) []string {
	fields := make([]string, 0, len(columns))
	for idx := range header {
		if field, ok := columns[idx]; ok {
			fields = append(fields, field)
		}
	}
	return fields
}

// normalizeHeader case-folds and trims a header cell for synonym lookup
func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.Trim(strings.TrimSpace(h), `"`)))
}

// isEmptyRow checks if a row is empty
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
