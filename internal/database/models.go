package database

import (
	"time"
)

// Category represents a product category
type Category struct {
	ID        string    `json:"id"`   // CUID2
	Name      string    `json:"name"` // Canonical display name, unique
	CreatedAt time.Time `json:"created_at"`
}

// Product represents an inventory product
type Product struct {
	ID                 string     `json:"id"`          // CUID2
	GenericName        string     `json:"generic_name"`
	BrandName          string     `json:"brand_name"`
	CategoryID         string     `json:"category_id"` // FK to categories.id
	Description        *string    `json:"description"`
	DosageStrength     *string    `json:"dosage_strength"`
	DosageForm         *string    `json:"dosage_form"`
	DrugClassification string     `json:"drug_classification"`
	PricePerPiece      float64    `json:"price_per_piece"`
	CostPrice          *float64   `json:"cost_price"`
	MarginPercentage   *float64   `json:"margin_percentage"`
	PiecesPerSheet     int        `json:"pieces_per_sheet"`
	SheetsPerBox       int        `json:"sheets_per_box"`
	StockInPieces      int        `json:"stock_in_pieces"`
	ReorderLevel       int        `json:"reorder_level"`
	ExpiryDate         *time.Time `json:"expiry_date"`
	BatchNumber        string     `json:"batch_number"`
	SupplierName       *string    `json:"supplier_name"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ImportRun represents a single import run
type ImportRun struct {
	ID          string     `json:"id"`       // CUID2
	Source      string     `json:"source"`   // 'api', 'cli'
	Filename    string     `json:"filename"`
	FileHash    *string    `json:"file_hash"` // For upload deduplication
	Status      string     `json:"status"`    // RunState values plus 'interrupted'
	TotalRows   *int       `json:"total_rows"`
	ValidRows   *int       `json:"valid_rows"`
	ErrorCount  *int       `json:"error_count"`
	WarningCount *int      `json:"warning_count"`
	// CreatedCategories is the partial-creation report (JSON array of
	// {id, name}) kept for idempotent retry after a dependency failure.
	CreatedCategories *string    `json:"created_categories"`
	Error             *string    `json:"error"`
	StartedAt         *time.Time `json:"started_at"`
	CompletedAt       *time.Time `json:"completed_at"`
	CreatedAt         time.Time  `json:"created_at"`
}
