package sweepers

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/pharmstock/inventory-service/internal/handlers"
	"github.com/pharmstock/inventory-service/internal/jobs"
	"github.com/pharmstock/inventory-service/internal/storage"
)

// RunSweeper periodically expires stale approval sessions and prunes
// import run history past retention.
type RunSweeper struct {
	pool     *pgxpool.Pool
	store    storage.Storage
	logger   *zerolog.Logger
	config   jobs.CleanupConfig
	interval time.Duration
	stopChan chan struct{}
}

// NewRunSweeper creates a sweeper for import run maintenance
func NewRunSweeper(pool *pgxpool.Pool, store storage.Storage, logger *zerolog.Logger, config jobs.CleanupConfig, interval time.Duration) *RunSweeper {
	return &RunSweeper{
		pool:     pool,
		store:    store,
		logger:   logger,
		config:   config,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic maintenance sweep
func (s *RunSweeper) Start(ctx context.Context) {
	s.logger.Info().
		Dur("interval", s.interval).
		Msg("Starting import run sweeper")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Import run sweeper stopping (context cancelled)")
			return
		case <-s.stopChan:
			s.logger.Info().Msg("Import run sweeper stopping (stop signal)")
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Import run sweep failed")
			}
		}
	}
}

// Stop signals the sweeper to stop
func (s *RunSweeper) Stop() {
	close(s.stopChan)
}

// Sweep runs one maintenance pass. In-memory approval sessions past the
// timeout are cancelled first so their goroutines and semaphore slots are
// released before the database rows are expired.
func (s *RunSweeper) Sweep(ctx context.Context) error {
	s.logger.Debug().Msg("Running import run maintenance")

	if n := handlers.ExpireSessions(s.config.ApprovalTimeout); n > 0 {
		s.logger.Info().Int("sessions", n).Msg("Cancelled expired approval sessions")
	}

	return jobs.RunAllCleanupJobs(ctx, s.pool, s.store, s.config)
}
