package e2e

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pharmstock/inventory-service/internal/database"
	"github.com/pharmstock/inventory-service/internal/importer"
	"github.com/pharmstock/inventory-service/internal/parsers/csv"
	"github.com/pharmstock/inventory-service/internal/storage"
	"github.com/pharmstock/inventory-service/internal/types"
)

// TestImportPipeline runs a complete import against a real database: upload
// archive, parse, validate, category reconciliation, approval, persistence
// and run tracking.
func TestImportPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
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

	// Seed an existing category so the batch exercises both match and create.
	catStore := database.NewCategoryStore(database.Pool())
	seeded, err := catStore.CreateCategories(ctx, []string{"Pain Relief"})
	require.NoError(t, err)
	painReliefID := seeded["Pain Relief"].ID

	content := []byte(strings.Join([]string{
		`Generic Name,Brand,Category,Price,Stock,Expiry Date`,
		`Paracetamol,Biogesic,Pain Relief,2.50,100,2027-06-30`,
		`Ibuprofen,Advil,Pain Releif,3.00,50,`, // typo binds to the seeded category
		`Lagundi,Ascof,Herbal Remedies,4.00,30,`,
		`,Anon,General,1.00,10,`, // rejected: no generic name
	}, "\n"))

	runStore := database.NewImportRunStore(database.Pool())
	runID, err := runStore.CreateRun(ctx, types.SourceAPI, "inventory.csv", storage.ComputeChecksum(content))
	require.NoError(t, err)

	t.Run("ArchiveUpload", func(t *testing.T) {
		store, err := storage.NewLocalStorage(filepath.Join(t.TempDir(), "archives"))
		require.NoError(t, err)

		key := storage.BuildUploadKey(runID, time.Now(), "inventory.csv")
		require.NoError(t, store.Put(ctx, key, content, &storage.Metadata{
			ContentType:  "text/csv",
			OriginalName: "inventory.csv",
			RunID:        runID,
			Source:       string(types.SourceAPI),
			UploadedAt:   time.Now(),
		}))

		info, err := store.GetInfo(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, storage.ComputeChecksum(content), info.Checksum)
	})

	var result *types.ImportBatchResult

	t.Run("OrchestratedRun", func(t *testing.T) {
		orch := importer.New(
			csv.NewParser(csv.DefaultOptions()),
			catStore,
			importer.AutoApprover{},
			importer.Options{},
		)

		result, err = orch.Run(ctx, content)
		require.NoError(t, err)
		assert.Equal(t, types.StateComplete, orch.State())

		assert.Equal(t, 4, result.TotalRows)
		assert.Equal(t, 3, result.ValidRowCount)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "generic_name is required")

		require.Len(t, result.CreatedCategories, 1)
		assert.Equal(t, "Herbal Remedies", result.CreatedCategories[0].Name)

		// The typo row bound to the seeded category, no new category for it.
		for _, rec := range result.ValidRecords {
			if rec.GenericName == "Ibuprofen" {
				require.NotNil(t, rec.CategoryID)
				assert.Equal(t, painReliefID, *rec.CategoryID)
				assert.Equal(t, "Pain Relief", rec.CategoryName)
			}
		}
	})

	t.Run("PersistProducts", func(t *testing.T) {
		inserted, err := database.NewProductStore(database.Pool()).BulkInsert(ctx, result.ValidRecords)
		require.NoError(t, err)
		assert.Equal(t, 3, inserted)

		var count int
		require.NoError(t, database.Pool().QueryRow(ctx,
			"SELECT COUNT(*) FROM products WHERE category_id = $1", painReliefID).Scan(&count))
		assert.Equal(t, 2, count, "Paracetamol and the typo-bound Ibuprofen")
	})

	t.Run("RunRecord", func(t *testing.T) {
		require.NoError(t, runStore.MarkCompleted(ctx, runID, result))

		run, err := runStore.GetRun(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, string(types.StateComplete), run.Status)
		assert.Equal(t, 4, *run.TotalRows)
		assert.Equal(t, 3, *run.ValidRows)
		assert.Equal(t, 1, *run.ErrorCount)
	})

	t.Run("RerunIsIdempotentForCategories", func(t *testing.T) {
		// Importing the same file again must not duplicate categories.
		orch := importer.New(csv.NewParser(csv.DefaultOptions()), catStore, importer.AutoApprover{}, importer.Options{})
		rerun, err := orch.Run(ctx, content)
		require.NoError(t, err)
		assert.Empty(t, rerun.NewCategories, "second run should match everything")

		var count int
		require.NoError(t, database.Pool().QueryRow(ctx,
			"SELECT COUNT(*) FROM categories").Scan(&count))
		assert.Equal(t, 2, count)
	})
}

// TestImportPipelineSuspendsForApproval verifies the suspension and resume
// flow against a real category store.
func TestImportPipelineSuspendsForApproval(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
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

	content := []byte(strings.Join([]string{
		`name,category,price`,
		`Gauze Pads,Medical Supplies,15.00`,
		`Band-Aid,Medical Supplies,1.50`,
		`Thermometer,Diagnostics,150.00`,
	}, "\n"))

	catStore := database.NewCategoryStore(database.Pool())
	approver := importer.NewChannelApprover()
	orch := importer.New(csv.NewParser(csv.DefaultOptions()), catStore, approver, importer.Options{})

	done := make(chan struct{})
	var result *types.ImportBatchResult
	var runErr error
	go func() {
		result, runErr = orch.Run(ctx, content)
		close(done)
	}()

	// Wait for suspension, then answer: approve one, reject the other.
	require.Eventually(t, func() bool {
		return orch.State() == types.StateAwaitingCategoryApproval
	}, 10*time.Second, 10*time.Millisecond)

	pending := approver.Pending()
	require.Len(t, pending, 2)

	decisions := make(map[string]types.CandidateDecision)
	for _, cand := range pending {
		switch cand.NormalizedName {
		case "Medical Supplies":
			decisions[importer.DecisionKey(cand)] = types.CandidateDecision{Kind: types.DecisionApproveNew}
		default:
			decisions[importer.DecisionKey(cand)] = types.CandidateDecision{Kind: types.DecisionReject}
		}
	}
	require.True(t, approver.Submit(decisions))

	<-done
	require.NoError(t, runErr)

	assert.Equal(t, 2, result.ValidRowCount, "both Medical Supplies rows survive")
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `category "Diagnostics" not approved`)

	refs, err := catStore.List(ctx)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "Medical Supplies", refs[0].Name)
}

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
