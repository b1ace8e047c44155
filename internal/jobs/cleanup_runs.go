package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/pharmstock/inventory-service/internal/storage"
)

// CleanupConfig configures retention policies for cleanup jobs
type CleanupConfig struct {
	// RunRetentionDays is how long finished import run records are kept
	RunRetentionDays int
	// UploadRetentionDays is how long archived upload files are kept
	UploadRetentionDays int
	// ApprovalTimeout is how long a run may wait for category approval
	// before it is abandoned
	ApprovalTimeout time.Duration
}

// DefaultCleanupConfig returns sensible retention defaults
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		RunRetentionDays:    90,
		UploadRetentionDays: 30,
		ApprovalTimeout:     24 * time.Hour,
	}
}

// CleanupOldRuns removes finished import run records past retention.
// Runs still awaiting approval are never deleted here, however old.
func CleanupOldRuns(ctx context.Context, db *pgxpool.Pool, cfg CleanupConfig) error {
	cutoff := time.Now().AddDate(0, 0, -cfg.RunRetentionDays)

	result, err := db.Exec(ctx, `
		DELETE FROM import_runs
		WHERE completed_at IS NOT NULL
		AND completed_at < $1
	`, cutoff)
	if err != nil {
		return fmt.Errorf("cleanup old import runs: %w", err)
	}

	log.Info().
		Int64("rows_deleted", result.RowsAffected()).
		Time("cutoff", cutoff).
		Msg("Cleaned up old import runs")

	return nil
}

// ExpireStaleApprovals cancels run rows that have been waiting on category
// approval longer than the configured timeout. The sweeper cancels the
// in-memory sessions first; this catches rows whose session is already
// gone and any the cancelled orchestrator could not record itself.
func ExpireStaleApprovals(ctx context.Context, db *pgxpool.Pool, cfg CleanupConfig) error {
	cutoff := time.Now().Add(-cfg.ApprovalTimeout)

	result, err := db.Exec(ctx, `
		UPDATE import_runs
		SET status = 'cancelled',
		    error = 'category approval timed out',
		    completed_at = NOW()
		WHERE status = 'awaiting_category_approval'
		AND started_at < $1
	`, cutoff)
	if err != nil {
		return fmt.Errorf("expire stale approvals: %w", err)
	}

	if n := result.RowsAffected(); n > 0 {
		log.Info().
			Int64("rows_updated", n).
			Time("cutoff", cutoff).
			Msg("Cancelled runs with expired approval sessions")
	}

	return nil
}

// CleanupOldUploads deletes archived upload files past retention.
func CleanupOldUploads(ctx context.Context, store storage.Storage, cfg CleanupConfig) error {
	cutoff := time.Now().AddDate(0, 0, -cfg.UploadRetentionDays)
	deleted := 0

	for _, prefix := range []string{"uploads/", "expanded/"} {
		keys, err := store.List(ctx, prefix)
		if err != nil {
			return fmt.Errorf("list %s: %w", prefix, err)
		}

		for _, key := range keys {
			info, err := store.GetInfo(ctx, key)
			if err != nil {
				log.Warn().Str("key", key).Err(err).Msg("Failed to stat archived upload")
				continue
			}
			if info.ModifiedAt.After(cutoff) {
				continue
			}
			if err := store.Delete(ctx, key); err != nil {
				log.Warn().Str("key", key).Err(err).Msg("Failed to delete archived upload")
				continue
			}
			deleted++
		}
	}

	log.Info().
		Int("files_deleted", deleted).
		Time("cutoff", cutoff).
		Msg("Cleaned up archived uploads")

	return nil
}

// RunAllCleanupJobs runs all cleanup jobs in sequence. Individual job
// failures are logged but do not stop the remaining jobs.
func RunAllCleanupJobs(ctx context.Context, db *pgxpool.Pool, store storage.Storage, cfg CleanupConfig) error {
	log.Info().Msg("Starting cleanup jobs")

	if err := ExpireStaleApprovals(ctx, db, cfg); err != nil {
		log.Error().Err(err).Msg("Failed to expire stale approvals")
	}

	if err := CleanupOldRuns(ctx, db, cfg); err != nil {
		log.Error().Err(err).Msg("Failed to cleanup old import runs")
	}

	if store != nil {
		if err := CleanupOldUploads(ctx, store, cfg); err != nil {
			log.Error().Err(err).Msg("Failed to cleanup archived uploads")
		}
	}

	log.Info().Msg("Cleanup jobs completed")
	return nil
}

// GetCleanupStats returns counts of what the next cleanup pass would touch.
func GetCleanupStats(ctx context.Context, db *pgxpool.Pool, cfg CleanupConfig) (map[string]int64, error) {
	stats := make(map[string]int64)

	runCutoff := time.Now().AddDate(0, 0, -cfg.RunRetentionDays)
	var oldRuns int64
	err := db.QueryRow(ctx, `
		SELECT COUNT(*) FROM import_runs
		WHERE completed_at IS NOT NULL AND completed_at < $1
	`, runCutoff).Scan(&oldRuns)
	if err != nil {
		return nil, fmt.Errorf("count old runs: %w", err)
	}
	stats["old_runs"] = oldRuns

	approvalCutoff := time.Now().Add(-cfg.ApprovalTimeout)
	var staleApprovals int64
	err = db.QueryRow(ctx, `
		SELECT COUNT(*) FROM import_runs
		WHERE status = 'awaiting_category_approval' AND started_at < $1
	`, approvalCutoff).Scan(&staleApprovals)
	if err != nil {
		return nil, fmt.Errorf("count stale approvals: %w", err)
	}
	stats["stale_approvals"] = staleApprovals

	return stats, nil
}
