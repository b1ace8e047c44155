package integration

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pharmstock/inventory-service/internal/database"
	"github.com/pharmstock/inventory-service/internal/jobs"
	"github.com/pharmstock/inventory-service/internal/types"
)

func setupTestDatabase(ctx context.Context) (*postgres.PostgresContainer, error) {
	return postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForListeningPort("5432/tcp").
					WithStartupTimeout(60*time.Second),
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(1).
					WithStartupTimeout(60*time.Second),
			),
		),
	)
}

func setupTestSchema(ctx context.Context, t *testing.T) {
	t.Helper()
	pool := database.Pool()

	schema := `
		CREATE TABLE IF NOT EXISTS categories (
			id text PRIMARY KEY,
			name text NOT NULL UNIQUE,
			created_at timestamptz NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS products (
			id text PRIMARY KEY,
			generic_name text NOT NULL,
			brand_name text NOT NULL,
			category_id text NOT NULL REFERENCES categories(id),
			description text,
			dosage_strength text,
			dosage_form text,
			drug_classification text NOT NULL,
			price_per_piece numeric(12,2) NOT NULL,
			cost_price numeric(12,2),
			margin_percentage numeric(8,2),
			pieces_per_sheet int NOT NULL DEFAULT 1,
			sheets_per_box int NOT NULL DEFAULT 1,
			stock_in_pieces int NOT NULL DEFAULT 0,
			reorder_level int NOT NULL DEFAULT 10,
			expiry_date timestamptz,
			batch_number text NOT NULL,
			supplier_name text,
			created_at timestamptz NOT NULL DEFAULT NOW(),
			updated_at timestamptz NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS import_runs (
			id text PRIMARY KEY,
			source text NOT NULL,
			filename text NOT NULL,
			file_hash text,
			status text NOT NULL,
			total_rows int,
			valid_rows int,
			error_count int,
			warning_count int,
			created_categories text,
			error text,
			started_at timestamptz,
			completed_at timestamptz,
			created_at timestamptz NOT NULL DEFAULT NOW()
		);
	`

	_, err := pool.Exec(ctx, schema)
	require.NoError(t, err, "failed to create test schema")
}

func TestDatabaseStores(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	postgresContainer, err := setupTestDatabase(ctx)
	require.NoError(t, err)
	defer postgresContainer.Terminate(ctx)

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, database.Connect(ctx, connStr, 10, 2, 0, 0))
	defer database.Close()
	setupTestSchema(ctx, t)

	t.Run("LibPQConnectivity", func(t *testing.T) {
		// Independent driver check: the same DSN must work through
		// database/sql, which the CLI's connection probe relies on.
		db, err := sql.Open("postgres", connStr)
		require.NoError(t, err)
		defer db.Close()

		var one int
		require.NoError(t, db.QueryRowContext(ctx, "SELECT 1").Scan(&one))
		assert.Equal(t, 1, one)
	})

	t.Run("CategoryCreationIsIdempotent", func(t *testing.T) {
		store := database.NewCategoryStore(database.Pool())

		first, err := store.CreateCategories(ctx, []string{"Pain Relief", "Antibiotics"})
		require.NoError(t, err)
		require.Len(t, first, 2)
		assert.Contains(t, first["Pain Relief"].ID, "cat_")

		// Re-creating an existing name must return the same row, not error.
		second, err := store.CreateCategories(ctx, []string{"Pain Relief"})
		require.NoError(t, err)
		assert.Equal(t, first["Pain Relief"].ID, second["Pain Relief"].ID)

		refs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Len(t, refs, 2)
		// List is the matcher's tie-break order, so it must be alphabetical.
		assert.Equal(t, "Antibiotics", refs[0].Name)
		assert.Equal(t, "Pain Relief", refs[1].Name)
	})

	t.Run("ProductBulkInsert", func(t *testing.T) {
		catStore := database.NewCategoryStore(database.Pool())
		refs, err := catStore.CreateCategories(ctx, []string{"General"})
		require.NoError(t, err)
		catID := refs["General"].ID

		records := []types.ImportRecord{
			{
				GenericName:        "Paracetamol",
				BrandName:          "Biogesic",
				CategoryID:         types.StringPtr(catID),
				Description:        "Paracetamol - 500mg Tablet",
				DrugClassification: "Over-the-Counter (OTC)",
				PricePerPiece:      2.50,
				CostPrice:          types.Float64Ptr(2.00),
				MarginPercentage:   types.Float64Ptr(25.0),
				PiecesPerSheet:     10,
				SheetsPerBox:       10,
				StockInPieces:      100,
				ReorderLevel:       20,
				ExpiryDate:         types.TimePtr(time.Date(2027, 6, 30, 0, 0, 0, 0, time.UTC)),
				BatchNumber:        "BT20260829-001",
				SupplierName:       types.StringPtr("Unilab"),
			},
			{
				GenericName:        "Lagundi",
				BrandName:          "Lagundi",
				CategoryID:         types.StringPtr(catID),
				DrugClassification: "Herbal Supplement",
				PricePerPiece:      4.00,
				PiecesPerSheet:     1,
				SheetsPerBox:       1,
				ReorderLevel:       10,
				BatchNumber:        "BT20260829-002",
			},
		}

		inserted, err := database.NewProductStore(database.Pool()).BulkInsert(ctx, records)
		require.NoError(t, err)
		assert.Equal(t, 2, inserted)

		var count int
		require.NoError(t, database.Pool().QueryRow(ctx,
			"SELECT COUNT(*) FROM products WHERE category_id = $1", catID).Scan(&count))
		assert.Equal(t, 2, count)
	})

	t.Run("BulkInsertRejectsUnresolvedCategory", func(t *testing.T) {
		_, err := database.NewProductStore(database.Pool()).BulkInsert(ctx, []types.ImportRecord{
			{GenericName: "Orphan", BatchNumber: "BT-1"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no resolved category id")
	})
}

func TestImportRunLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	postgresContainer, err := setupTestDatabase(ctx)
	require.NoError(t, err)
	defer postgresContainer.Terminate(ctx)

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, database.Connect(ctx, connStr, 10, 2, 0, 0))
	defer database.Close()
	setupTestSchema(ctx, t)

	store := database.NewImportRunStore(database.Pool())

	t.Run("CreateAndComplete", func(t *testing.T) {
		runID, err := store.CreateRun(ctx, types.SourceAPI, "inventory.csv", "abc123")
		require.NoError(t, err)
		assert.Contains(t, runID, "imp_")

		run, err := store.GetRun(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, string(types.StateParsing), run.Status)
		assert.Equal(t, "api", run.Source)
		require.NotNil(t, run.FileHash)
		assert.Equal(t, "abc123", *run.FileHash)

		require.NoError(t, store.UpdateState(ctx, runID, types.StateAwaitingCategoryApproval))
		run, err = store.GetRun(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, string(types.StateAwaitingCategoryApproval), run.Status)

		result := &types.ImportBatchResult{
			TotalRows:     10,
			ValidRowCount: 8,
			Errors:        []string{"Row 3 (Unknown): generic_name is required"},
			Warnings:      []types.ImportWarning{{RowNumber: 5, Message: "expired"}},
		}
		require.NoError(t, store.MarkCompleted(ctx, runID, result))

		run, err = store.GetRun(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, string(types.StateComplete), run.Status)
		assert.Equal(t, 10, *run.TotalRows)
		assert.Equal(t, 8, *run.ValidRows)
		assert.Equal(t, 1, *run.ErrorCount)
		assert.Equal(t, 1, *run.WarningCount)
		assert.NotNil(t, run.CompletedAt)
	})

	t.Run("MarkFailedWithPartialCreation", func(t *testing.T) {
		runID, err := store.CreateRun(ctx, types.SourceCLI, "batch.csv", "")
		require.NoError(t, err)

		created := []types.CategoryRef{{ID: "cat_x", Name: "Herbal Remedies"}}
		require.NoError(t, store.MarkFailed(ctx, runID, "category store failure", created))

		run, err := store.GetRun(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, string(types.StateFailed), run.Status)
		require.NotNil(t, run.Error)
		assert.Equal(t, "category store failure", *run.Error)
		require.NotNil(t, run.CreatedCategories)
		assert.Contains(t, *run.CreatedCategories, "Herbal Remedies")
		assert.Nil(t, run.FileHash, "empty hash should be stored as NULL")
	})

	t.Run("MarkCancelled", func(t *testing.T) {
		runID, err := store.CreateRun(ctx, types.SourceAPI, "abandoned.csv", "")
		require.NoError(t, err)
		require.NoError(t, store.UpdateState(ctx, runID, types.StateAwaitingCategoryApproval))

		require.NoError(t, store.MarkCancelled(ctx, runID, "import cancelled"))

		run, err := store.GetRun(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, string(types.StateCancelled), run.Status)
		require.NotNil(t, run.Error)
		assert.Equal(t, "import cancelled", *run.Error)
		assert.NotNil(t, run.CompletedAt)
	})

	t.Run("ListRunsNewestFirst", func(t *testing.T) {
		runs, err := store.ListRuns(ctx, 50)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(runs), 2)
		for i := 1; i < len(runs); i++ {
			assert.False(t, runs[i].StartedAt.After(*runs[i-1].StartedAt),
				"runs should be ordered newest first")
		}
	})

	t.Run("MarkInterruptedRuns", func(t *testing.T) {
		runID, err := store.CreateRun(ctx, types.SourceAPI, "stuck.csv", "")
		require.NoError(t, err)
		require.NoError(t, store.UpdateState(ctx, runID, types.StateMapping))

		n, err := store.MarkInterruptedRuns(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 1)

		run, err := store.GetRun(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, "interrupted", run.Status)

		// Finished runs are left alone.
		n, err = store.MarkInterruptedRuns(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("ExpireStaleApprovals", func(t *testing.T) {
		runID, err := store.CreateRun(ctx, types.SourceAPI, "stale.csv", "")
		require.NoError(t, err)
		require.NoError(t, store.UpdateState(ctx, runID, types.StateAwaitingCategoryApproval))

		// Backdate the run past the approval timeout.
		_, err = database.Pool().Exec(ctx,
			"UPDATE import_runs SET started_at = NOW() - INTERVAL '25 hours' WHERE id = $1", runID)
		require.NoError(t, err)

		cfg := jobs.DefaultCleanupConfig()
		require.NoError(t, jobs.ExpireStaleApprovals(ctx, database.Pool(), cfg))

		run, err := store.GetRun(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, string(types.StateCancelled), run.Status)
		require.NotNil(t, run.Error)
		assert.Equal(t, "category approval timed out", *run.Error)
	})
}
