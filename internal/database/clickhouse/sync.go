package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/listops/listops/internal/database/postgres"
)

// SyncResult contains the results of a sync operation
type SyncResult struct {
	SnapshotsSynced int
	RecordsSynced   int
	StartTime       time.Time
	EndTime         time.Time
	Errors          []string
}

// Syncer copies stored snapshots from PostgreSQL into ClickHouse price history
type Syncer struct {
	pgClient *postgres.Client
	chClient *Client
	defaults []string
}

// NewSyncer creates a new syncer. Defaults label the price columns of
// categories that carry no header of their own.
func NewSyncer(pgClient *postgres.Client, chClient *Client, defaults []string) *Syncer {
	return &Syncer{
		pgClient: pgClient,
		chClient: chClient,
		defaults: defaults,
	}
}

const syncBatchSize = 10000

// SyncSnapshots syncs every snapshot fetched after since
func (s *Syncer) SyncSnapshots(ctx context.Context, since time.Time) (*SyncResult, error) {
	result := &SyncResult{
		StartTime: time.Now(),
	}

	snapshots, err := postgres.NewSnapshotRepo(s.pgClient).Since(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query PostgreSQL: %w", err)
	}

	for _, snap := range snapshots {
		records := RecordsFromCatalog(snap.Catalog, Observation{
			ListKey:    snap.ListKey,
			Mode:       snap.Mode,
			SnapshotID: snap.ID.String(),
			ObservedAt: snap.FetchedAt,
			Source:     "sync",
		}, s.defaults)

		failed := false
		for i := 0; i < len(records); i += syncBatchSize {
			end := min(i+syncBatchSize, len(records))

			batch := records[i:end]
			if err := s.chClient.InsertPriceHistory(ctx, batch); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("snapshot %s: batch insert error: %v", snap.ID, err))
				failed = true
				continue
			}
			result.RecordsSynced += len(batch)
		}
		if !failed {
			result.SnapshotsSynced++
		}
	}

	result.EndTime = time.Now()
	return result, nil
}

// SyncAll syncs all stored snapshots
func (s *Syncer) SyncAll(ctx context.Context) (*SyncResult, error) {
	return s.SyncSnapshots(ctx, time.Time{})
}

// SyncRecent syncs snapshots from the last N days
func (s *Syncer) SyncRecent(ctx context.Context, days int) (*SyncResult, error) {
	since := time.Now().AddDate(0, 0, -days)
	return s.SyncSnapshots(ctx, since)
}

// GetLastSyncTime returns the observation time of the most recent synced record
func (s *Syncer) GetLastSyncTime(ctx context.Context) (time.Time, error) {
	var lastTime time.Time
	query := "SELECT max(observed_at) FROM price_history"
	if err := s.chClient.conn.QueryRow(ctx, query).Scan(&lastTime); err != nil {
		// Empty or missing table means nothing was synced yet
		return time.Time{}, nil
	}
	return lastTime, nil
}

// SyncIncremental syncs only snapshots newer than the last synced one.
// Observations carry the snapshot's fetch time, so the boundary is exact.
func (s *Syncer) SyncIncremental(ctx context.Context) (*SyncResult, error) {
	lastSync, err := s.GetLastSyncTime(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get last sync time: %w", err)
	}

	return s.SyncSnapshots(ctx, lastSync)
}

// SyncStats describes how far ClickHouse lags PostgreSQL
type SyncStats struct {
	TotalSnapshots int64
	TotalCHRecords uint64
	OldestSnapshot time.Time
	NewestSnapshot time.Time
	OldestCHRecord time.Time
	NewestCHRecord time.Time
}

// GetSyncStats returns sync statistics
func (s *Syncer) GetSyncStats(ctx context.Context) (*SyncStats, error) {
	stats := &SyncStats{}

	pgCount, err := postgres.NewSnapshotRepo(s.pgClient).Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count snapshots: %w", err)
	}
	stats.TotalSnapshots = pgCount

	var oldest, newest *time.Time
	err = s.pgClient.Pool().QueryRow(ctx, "SELECT MIN(fetched_at), MAX(fetched_at) FROM catalog_snapshots").Scan(&oldest, &newest)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot range: %w", err)
	}
	if oldest != nil {
		stats.OldestSnapshot = *oldest
	}
	if newest != nil {
		stats.NewestSnapshot = *newest
	}

	chCount, err := s.chClient.GetObservationCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count CH records: %w", err)
	}
	stats.TotalCHRecords = chCount

	if chCount > 0 {
		err := s.chClient.conn.QueryRow(ctx, "SELECT min(observed_at), max(observed_at) FROM price_history").
			Scan(&stats.OldestCHRecord, &stats.NewestCHRecord)
		if err != nil {
			return nil, fmt.Errorf("failed to get observation range: %w", err)
		}
	}

	return stats, nil
}
