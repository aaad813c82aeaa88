package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DevMandalia/direction-sky-ingest/pkg/config"
	"github.com/DevMandalia/direction-sky-ingest/pkg/database"
	"github.com/DevMandalia/direction-sky-ingest/pkg/logger"
)

// Store persists snapshot rows with at-most-one-row-per-(date, contract_id)
// semantics. The storage client is constructor-injected; nothing in this
// package holds global state.
type Store struct {
	pool   *pgxpool.Pool
	logger *logger.Logger

	workers       int
	bulkThreshold int
	chunkSize     int
}

// New creates a snapshot store on top of the shared connection pool.
func New(db *database.DB, cfg *config.Config, log *logger.Logger) *Store {
	return &Store{
		pool:          db.Pool,
		logger:        log.WithField("module", "store"),
		workers:       cfg.Ingest.UpsertWorkers,
		bulkThreshold: cfg.Ingest.BulkThreshold,
		chunkSize:     cfg.Ingest.ChunkSize,
	}
}

// Exists probes for an existing (date, contract_id) key. It is optional
// defense-in-depth for callers: a probe failure is logged and reported as
// "not a duplicate" so that a broken probe can never block ingestion.
func (s *Store) Exists(ctx context.Context, date time.Time, contractID string) bool {
	var exists bool
	err := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE date = $1 AND contract_id = $2)`, primaryTable),
		date, contractID,
	).Scan(&exists)
	if err != nil {
		s.logger.WithError(err).Warn("Duplicate probe failed, assuming new key")
		return false
	}
	return exists
}

// CountForDate returns the number of stored rows for one trading date.
func (s *Store) CountForDate(ctx context.Context, date time.Time) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE date = $1`, primaryTable),
		date,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("storage failed: count for date: %w", err)
	}
	return count, nil
}
