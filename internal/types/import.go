package types

import "time"

// FileType represents supported upload file types
type FileType string

const (
	FileTypeCSV  FileType = "csv"
	FileTypeXLSX FileType = "xlsx"
	FileTypeZIP  FileType = "zip"
)

// RawRow is a tokenized data row keyed by normalized header name.
// Values are raw strings exactly as they appeared in the file (trimmed).
type RawRow struct {
	// LineNumber is the 1-based position in the source file, header included,
	// used for error reporting ("Row 2" is the first data row).
	LineNumber int               `json:"lineNumber"`
	Fields     map[string]string `json:"fields"`
}

// Get returns the trimmed value for a logical field, empty string if absent.
func (r RawRow) Get(field string) string {
	return r.Fields[field]
}

// Has reports whether the row carries a non-empty value for the field.
func (r RawRow) Has(field string) bool {
	return r.Fields[field] != ""
}

// TokenizeResult is the output of the tokenizer stage.
type TokenizeResult struct {
	Rows []RawRow `json:"rows"`
	// Headers are the normalized header names in file order.
	Headers []string `json:"headers"`
	// SkippedRows counts rows dropped by the filtering policy
	// (blank lines, duplicate header rows, malformed rows).
	SkippedRows int `json:"skippedRows"`
}

// ImportRecord is the normalized, typed representation of one product row.
// Optional fields are pointers; absent means the source had no usable value.
type ImportRecord struct {
	GenericName        string     `json:"genericName"`
	BrandName          string     `json:"brandName"`
	CategoryName       string     `json:"categoryName"`
	CategoryID         *string    `json:"categoryId,omitempty"` // attached during Mapping
	Description        string     `json:"description"`
	DosageStrength     *string    `json:"dosageStrength,omitempty"`
	DosageForm         *string    `json:"dosageForm,omitempty"`
	DrugClassification string     `json:"drugClassification"`
	PricePerPiece      float64    `json:"pricePerPiece"`
	CostPrice          *float64   `json:"costPrice,omitempty"`
	MarginPercentage   *float64   `json:"marginPercentage,omitempty"`
	PiecesPerSheet     int        `json:"piecesPerSheet"`
	SheetsPerBox       int        `json:"sheetsPerBox"`
	StockInPieces      int        `json:"stockInPieces"`
	ReorderLevel       int        `json:"reorderLevel"`
	ExpiryDate         *time.Time `json:"expiryDate,omitempty"`
	BatchNumber        string     `json:"batchNumber"`
	SupplierName       *string    `json:"supplierName,omitempty"`

	// RowNumber is the 1-based data row number (header offset applied).
	RowNumber int `json:"rowNumber"`
	// Raw holds the trimmed source values keyed by logical field name. The
	// validator uses it to tell explicit bad input apart from applied defaults.
	Raw map[string]string `json:"-"`
}

// DisplayName returns the best available human-readable name for error
// messages: generic name, then brand name, then "Unknown".
func (r ImportRecord) DisplayName() string {
	if r.GenericName != "" {
		return r.GenericName
	}
	if r.BrandName != "" {
		return r.BrandName
	}
	return "Unknown"
}

// CategoryRef identifies an existing category.
type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CategoryCandidate is a category name from the import that did not match
// any existing category and is pending human approval.
type CategoryCandidate struct {
	ProposedName   string       `json:"proposedName"`
	NormalizedName string       `json:"normalizedName"`
	SimilarTo      *CategoryRef `json:"similarTo,omitempty"`
	// SimilarityScore is only meaningful when SimilarTo is set.
	SimilarityScore float64 `json:"similarityScore,omitempty"`
	MemberRowCount  int     `json:"memberRowCount"`
}

// DecisionKind is the approver's verdict for one candidate.
type DecisionKind string

const (
	DecisionApproveNew DecisionKind = "approve-new"
	DecisionMapTo      DecisionKind = "map-to"
	DecisionReject     DecisionKind = "reject"
)

// CandidateDecision is one approval decision, keyed by the candidate's
// normalized name in the decision map.
type CandidateDecision struct {
	Kind DecisionKind `json:"kind"`
	// MapTo names the existing category to bind to when Kind is "map-to".
	MapTo *CategoryRef `json:"mapTo,omitempty"`
}

// ImportWarning is a non-blocking, row-scoped notice (e.g. expired stock).
type ImportWarning struct {
	RowNumber int    `json:"rowNumber"`
	Field     string `json:"field,omitempty"`
	Message   string `json:"message"`
}

// ImportBatchResult is the aggregate outcome of one import run.
// It is constructed once per run and not mutated afterwards.
type ImportBatchResult struct {
	ValidRecords  []ImportRecord      `json:"validRecords"`
	Errors        []string            `json:"errors"`
	Warnings      []ImportWarning     `json:"warnings,omitempty"`
	NewCategories []CategoryCandidate `json:"newCategories,omitempty"`
	TotalRows     int                 `json:"totalRows"`
	ValidRowCount int                 `json:"validRowCount"`
	// CreatedCategories lists categories created during Mapping. On a
	// dependency failure this is the partial-creation report the caller
	// needs for an idempotent retry.
	CreatedCategories []CategoryRef `json:"createdCategories,omitempty"`
}

// RunState is the orchestrator's state machine position.
type RunState string

const (
	StateParsing                  RunState = "parsing"
	StateValidating               RunState = "validating"
	StateAwaitingCategoryApproval RunState = "awaiting_category_approval"
	StateMapping                  RunState = "mapping"
	StateComplete                 RunState = "complete"
	StateFailed                   RunState = "failed"
	StateCancelled                RunState = "cancelled"
)

// ImportSource records what triggered an import run.
type ImportSource string

const (
	SourceAPI ImportSource = "api"
	SourceCLI ImportSource = "cli"
)

// StringPtr returns a pointer to the given string
func StringPtr(s string) *string {
	return &s
}

// IntPtr returns a pointer to the given int
func IntPtr(i int) *int {
	return &i
}

// Float64Ptr returns a pointer to the given float64
func Float64Ptr(f float64) *float64 {
	return &f
}

// TimePtr returns a pointer to the given time
func TimePtr(t time.Time) *time.Time {
	return &t
}
