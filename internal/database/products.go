package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pharmstock/inventory-service/internal/pkg/cuid2"
	"github.com/pharmstock/inventory-service/internal/types"
)

// ProductStore performs the bulk insert of resolved import records.
type ProductStore struct {
	pool *pgxpool.Pool
}

// NewProductStore creates a product store on the given pool.
func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

// BulkInsert inserts the records in one batched round trip. Every record
// must already carry a resolved CategoryID; records without one are a
// programming error upstream and are reported, not skipped silently.
func (s *ProductStore) BulkInsert(ctx context.Context, records []types.ImportRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for i, rec := range records {
		if rec.CategoryID == nil {
			return 0, fmt.Errorf("record %d (%s) has no resolved category id", i, rec.DisplayName())
		}

		id := cuid2.GeneratePrefixedId("prd", cuid2.PrefixedIdOptions{})
		batch.Queue(`
			INSERT INTO products (
				id, generic_name, brand_name, category_id, description,
				dosage_strength, dosage_form, drug_classification,
				price_per_piece, cost_price, margin_percentage,
				pieces_per_sheet, sheets_per_box, stock_in_pieces,
				reorder_level, expiry_date, batch_number, supplier_name,
				created_at, updated_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
				$11, $12, $13, $14, $15, $16, $17, $18, NOW(), NOW()
			)
		`,
			id, rec.GenericName, rec.BrandName, *rec.CategoryID, nullableString(rec.Description),
			rec.DosageStrength, rec.DosageForm, rec.DrugClassification,
			rec.PricePerPiece, rec.CostPrice, rec.MarginPercentage,
			rec.PiecesPerSheet, rec.SheetsPerBox, rec.StockInPieces,
			rec.ReorderLevel, rec.ExpiryDate, rec.BatchNumber, rec.SupplierName,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range records {
		if _, err := results.Exec(); err != nil {
			return inserted, fmt.Errorf("insert product %d of %d: %w", inserted+1, len(records), err)
		}
		inserted++
	}

	return inserted, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
