package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// EnsureTables creates the destination tables if they do not exist yet.
// It is idempotent and safe to call on every cold start.
//
// Creation is not transactional across concurrent callers: two cold-start
// instances may both attempt it, and the duplicate-object errors that race
// produces are treated as success.
func (s *Store) EnsureTables(ctx context.Context) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{
			name: "schema",
			sql:  `CREATE SCHEMA IF NOT EXISTS market`,
		},
		{
			name: "primary table",
			sql: fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					%s,
					PRIMARY KEY (date, contract_id)
				)
			`, primaryTable, columnDefs()),
		},
		{
			// BRIN keeps date-range scans cheap on an append-mostly table
			name: "primary date index",
			sql: fmt.Sprintf(`
				CREATE INDEX IF NOT EXISTS option_snapshots_date_brin
				ON %s USING BRIN (date)
			`, primaryTable),
		},
		{
			// Unlogged: staged rows have no lifecycle beyond one cycle
			name: "staging table",
			sql: fmt.Sprintf(`
				CREATE UNLOGGED TABLE IF NOT EXISTS %s (
					%s
				)
			`, stagingTable, columnDefs()),
		},
		{
			name: "staging merge index",
			sql: fmt.Sprintf(`
				CREATE INDEX IF NOT EXISTS option_snapshots_staging_merge
				ON %s (date, contract_id, last_updated DESC)
			`, stagingTable),
		},
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt.sql); err != nil {
			if isBenignCreateRace(err) {
				s.logger.WithField("object", stmt.name).Debug("Concurrent creation detected, treating as success")
				continue
			}
			return fmt.Errorf("storage failed: ensure %s: %w", stmt.name, err)
		}
	}

	s.logger.Debug("Destination tables ensured")
	return nil
}

// isBenignCreateRace reports whether the error is a duplicate-object error
// from two instances creating the same table at the same time.
func isBenignCreateRace(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	switch pgErr.Code {
	case "42P06", // duplicate_schema
		"42P07", // duplicate_table
		"42710", // duplicate_object
		"23505": // unique_violation on catalog rows during concurrent create
		return true
	}
	return false
}
