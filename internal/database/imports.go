package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pharmstock/inventory-service/internal/pkg/cuid2"
	"github.com/pharmstock/inventory-service/internal/types"
)

// ImportRunStore tracks import runs in the import_runs table.
type ImportRunStore struct {
	pool *pgxpool.Pool
}

// NewImportRunStore creates an import run store on the given pool.
func NewImportRunStore(pool *pgxpool.Pool) *ImportRunStore {
	return &ImportRunStore{pool: pool}
}

// CreateRun inserts a new run record in the parsing state and returns its id.
func (s *ImportRunStore) CreateRun(ctx context.Context, source types.ImportSource, filename string, fileHash string) (string, error) {
	runID := cuid2.GeneratePrefixedId("imp", cuid2.PrefixedIdOptions{})

	_, err := s.pool.Exec(ctx, `
		INSERT INTO import_runs (id, source, filename, file_hash, status, started_at, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, NOW(), NOW())
	`, runID, string(source), filename, fileHash, string(types.StateParsing))
	if err != nil {
		return "", fmt.Errorf("create import run: %w", err)
	}

	return runID, nil
}

// UpdateState records the orchestrator's current state for polling clients.
func (s *ImportRunStore) UpdateState(ctx context.Context, runID string, state types.RunState) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE import_runs SET status = $2 WHERE id = $1
	`, runID, string(state))
	if err != nil {
		return fmt.Errorf("update run state: %w", err)
	}
	return nil
}

// MarkCompleted stores the final counts for a finished run.
func (s *ImportRunStore) MarkCompleted(ctx context.Context, runID string, result *types.ImportBatchResult) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE import_runs
		SET status = $2, total_rows = $3, valid_rows = $4,
		    error_count = $5, warning_count = $6, completed_at = NOW()
		WHERE id = $1
	`, runID, string(types.StateComplete),
		result.TotalRows, result.ValidRowCount, len(result.Errors), len(result.Warnings))
	if err != nil {
		return fmt.Errorf("mark run completed: %w", err)
	}
	return nil
}

// MarkFailed stores the failure reason and, when a category-store failure
// interrupted the Mapping phase, the partial category-creation report so a
// retry does not re-prompt for already-created categories.
func (s *ImportRunStore) MarkFailed(ctx context.Context, runID string, reason string, created []types.CategoryRef) error {
	var createdJSON *string
	if len(created) > 0 {
		b, err := json.Marshal(created)
		if err != nil {
			return fmt.Errorf("marshal created categories: %w", err)
		}
		str := string(b)
		createdJSON = &str
	}

	_, err := s.pool.Exec(ctx, `
		UPDATE import_runs
		SET status = $2, error = $3, created_categories = $4, completed_at = NOW()
		WHERE id = $1
	`, runID, string(types.StateFailed), reason, createdJSON)
	if err != nil {
		return fmt.Errorf("mark run failed: %w", err)
	}
	return nil
}

// MarkCancelled stores the cancelled outcome for an aborted run.
func (s *ImportRunStore) MarkCancelled(ctx context.Context, runID string, reason string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE import_runs
		SET status = $2, error = $3, completed_at = NOW()
		WHERE id = $1
	`, runID, string(types.StateCancelled), reason)
	if err != nil {
		return fmt.Errorf("mark run cancelled: %w", err)
	}
	return nil
}

// GetRun fetches one run by id.
func (s *ImportRunStore) GetRun(ctx context.Context, runID string) (*ImportRun, error) {
	var run ImportRun
	err := s.pool.QueryRow(ctx, `
		SELECT id, source, filename, file_hash, status, total_rows, valid_rows,
		       error_count, warning_count, created_categories, error,
		       started_at, completed_at, created_at
		FROM import_runs WHERE id = $1
	`, runID).Scan(
		&run.ID, &run.Source, &run.Filename, &run.FileHash, &run.Status,
		&run.TotalRows, &run.ValidRows, &run.ErrorCount, &run.WarningCount,
		&run.CreatedCategories, &run.Error,
		&run.StartedAt, &run.CompletedAt, &run.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get import run %s: %w", runID, err)
	}
	return &run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *ImportRunStore) ListRuns(ctx context.Context, limit int) ([]ImportRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, source, filename, file_hash, status, total_rows, valid_rows,
		       error_count, warning_count, created_categories, error,
		       started_at, completed_at, created_at
		FROM import_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list import runs: %w", err)
	}
	defer rows.Close()

	runs := make([]ImportRun, 0, limit)
	for rows.Next() {
		var run ImportRun
		if err := rows.Scan(
			&run.ID, &run.Source, &run.Filename, &run.FileHash, &run.Status,
			&run.TotalRows, &run.ValidRows, &run.ErrorCount, &run.WarningCount,
			&run.CreatedCategories, &run.Error,
			&run.StartedAt, &run.CompletedAt, &run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan import run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// MarkInterruptedRuns flags runs left mid-flight by a service restart.
// In-memory orchestrator state is gone, so these cannot be resumed; the
// user retries the upload (category creation is idempotent, so nothing is
// duplicated).
func (s *ImportRunStore) MarkInterruptedRuns(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE import_runs
		SET status = 'interrupted',
		    error = 'service restarted during processing',
		    completed_at = NOW()
		WHERE status NOT IN ($1, $2, $3, 'interrupted')
	`, string(types.StateComplete), string(types.StateFailed), string(types.StateCancelled))
	if err != nil {
		return 0, fmt.Errorf("mark interrupted runs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
