package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jackc/pgx/v5"

	"github.com/DevMandalia/direction-sky-ingest/internal/snapshot"
)

// progressInterval is how often the row-wise path logs progress.
const progressInterval = 200

// UpsertBatch persists a batch of rows and returns the number of rows
// written (inserted or updated). Small batches take the row-wise path;
// batches at or above the bulk threshold go through the staging table and a
// single set-based merge, which converts O(n) round trips into O(1).
//
// Both paths produce identical final state: exactly one row per
// (date, contract_id), holding the most recent values.
func (s *Store) UpsertBatch(ctx context.Context, rows []snapshot.Row) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	if len(rows) >= s.bulkThreshold {
		return s.upsertStaged(ctx, rows)
	}
	return s.upsertRowWise(ctx, rows)
}

// upsertRowWise issues one conditional write per row through a bounded
// worker pool. Workers pull the next row from a shared index counter, so a
// slow write never stalls the rest of the batch. A failed row is skipped
// and counted; it does not abort the other rows, and rows already committed
// stay committed.
func (s *Store) upsertRowWise(ctx context.Context, rows []snapshot.Row) (int, error) {
	query := upsertSQL()

	workers := s.workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(rows) {
		workers = len(rows)
	}

	var (
		next      atomic.Int64
		processed atomic.Int64
		failed    atomic.Int64

		errMu    sync.Mutex
		firstErr error
	)
	next.Store(-1)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := next.Add(1)
				if i >= int64(len(rows)) {
					return
				}

				if _, err := s.pool.Exec(ctx, query, rowArgs(&rows[i])...); err != nil {
					failed.Add(1)
					errMu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					errMu.Unlock()
					s.logger.WithError(err).WithField("contract_id", rows[i].ContractID).Error("Row upsert failed")
					continue
				}

				if n := processed.Add(1); n%progressInterval == 0 {
					s.logger.WithFields(map[string]interface{}{
						"processed": n,
						"total":     len(rows),
					}).Info("Upsert progress")
				}
			}
		}()
	}
	wg.Wait()

	if failed.Load() > 0 {
		return int(processed.Load()), fmt.Errorf("storage failed: %d/%d rows: %w", failed.Load(), len(rows), firstErr)
	}

	return int(processed.Load()), nil
}

// upsertStaged lands the whole batch in the staging table in chunks, then
// reconciles it into the primary table with exactly one merge statement.
// Staged duplicates for a key are resolved by recency at merge time, so
// interleaved writes from an overlapping cycle are safe.
func (s *Store) upsertStaged(ctx context.Context, rows []snapshot.Row) (int, error) {
	tradingDate := rows[0].Date
	insertSQL := stagingInsertSQL()

	chunkSize := s.chunkSize
	if chunkSize < 1 {
		chunkSize = len(rows)
	}

	for start := 0; start < len(rows); start += chunkSize {
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		batch := &pgx.Batch{}
		for i := range chunk {
			batch.Queue(insertSQL, rowArgs(&chunk[i])...)
		}

		results := s.pool.SendBatch(ctx, batch)
		var execErr error
		for range chunk {
			if _, err := results.Exec(); err != nil && execErr == nil {
				execErr = err
			}
		}
		if err := results.Close(); err != nil && execErr == nil {
			execErr = err
		}
		if execErr != nil {
			return 0, fmt.Errorf("storage failed: stage chunk %d-%d: %w", start, end, execErr)
		}

		s.logger.WithFields(map[string]interface{}{
			"staged": end,
			"total":  len(rows),
		}).Debug("Staging chunk written")
	}

	tag, err := s.pool.Exec(ctx, mergeSQL(), tradingDate)
	if err != nil {
		return 0, fmt.Errorf("storage failed: merge: %w", err)
	}
	merged := int(tag.RowsAffected())

	// Staged rows have served their purpose once merged. Cleanup failure is
	// not a cycle failure; leftover rows are re-deduplicated by the next
	// merge anyway.
	if _, err := s.pool.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE date = $1`, stagingTable), tradingDate); err != nil {
		s.logger.WithError(err).Warn("Staging cleanup failed")
	}

	s.logger.WithFields(map[string]interface{}{
		"rows":   len(rows),
		"merged": merged,
		"date":   tradingDate.Format("2006-01-02"),
	}).Info("Bulk upsert merged")

	return merged, nil
}
