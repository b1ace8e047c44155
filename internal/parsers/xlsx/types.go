package xlsx

// ParserOptions represents XLSX parser options
type ParserOptions struct {
	// SheetNameOrIndex selects the worksheet: a sheet name, or a numeric
	// string index ("0" = first sheet). Empty selects the first sheet.
	SheetNameOrIndex string `json:"sheetNameOrIndex,omitempty"`
}

// DefaultOptions returns default XLSX parser options
func DefaultOptions() ParserOptions {
	return ParserOptions{}
}
