package xlsx

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/pharmstock/inventory-service/internal/parsers/csv"
	"github.com/pharmstock/inventory-service/internal/types"
	"github.com/xuri/excelize/v2"
)

// Parser is an XLSX tokenizer implementation. It reads one worksheet and
// feeds the cell grid through the same header recognition and row filtering
// the CSV tokenizer uses.
type Parser struct {
	options ParserOptions
}

// NewParser creates a new XLSX parser
func NewParser(options ParserOptions) *Parser {
	return &Parser{options: options}
}

// Parse parses XLSX content into header-keyed rows
func (p *Parser) Parse(content []byte) (*types.TokenizeResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName, err := p.selectSheet(f)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return nil, csv.ErrEmptyInput
	}

	return csv.MapRows(rows)
}

// selectSheet resolves the configured sheet name or index, defaulting to the
// first sheet in the workbook.
func (p *Parser) selectSheet(f *excelize.File) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}

	sel := p.options.SheetNameOrIndex
	if sel == "" {
		return sheets[0], nil
	}

	if idx, err := strconv.Atoi(sel); err == nil {
		if idx < 0 || idx >= len(sheets) {
			return "", fmt.Errorf("sheet index %d out of range (workbook has %d sheets)", idx, len(sheets))
		}
		return sheets[idx], nil
	}

	for _, name := range sheets {
		if name == sel {
			return name, nil
		}
	}
	return "", fmt.Errorf("sheet %q not found", sel)
}
