package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/listops/listops/internal/database"
	"github.com/listops/listops/pkg/models"
)

// SnapshotRepo implements the SnapshotRepository interface for PostgreSQL
type SnapshotRepo struct {
	client *Client
}

var _ database.SnapshotRepository = (*SnapshotRepo)(nil)

// NewSnapshotRepo creates a new PostgreSQL snapshot repository
func NewSnapshotRepo(client *Client) *SnapshotRepo {
	return &SnapshotRepo{client: client}
}

var itemColumns = []string{
	"snapshot_id", "position", "category", "brand", "code", "description",
	"price1", "price2", "price3", "price4", "price5",
}

// Save stores the snapshot header, its catalog document and the flattened
// items in a single transaction
func (r *SnapshotRepo) Save(ctx context.Context, s *database.Snapshot) error {
	if s.Catalog == nil {
		return fmt.Errorf("snapshot %s has no catalog", s.ID)
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	doc, err := json.Marshal(s.Catalog)
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}

	tx, err := r.client.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO catalog_snapshots (
			id, list_key, mode, branch, updated_label, contact,
			category_count, item_count, catalog, fetched_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`,
		s.ID, s.ListKey, s.Mode, s.Branch, s.UpdatedAt, s.Contact,
		s.CategoryCount, s.ItemCount, doc, s.FetchedAt,
	).Scan(&s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	items := s.Items()
	rows := make([][]any, 0, len(items))
	for _, it := range items {
		rows = append(rows, []any{
			it.SnapshotID, it.Position, it.Category, it.Brand, it.Code, it.Description,
			it.Prices[0], it.Prices[1], it.Prices[2], it.Prices[3], it.Prices[4],
		})
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"catalog_items"}, itemColumns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("failed to copy items: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot for a list, catalog included
func (r *SnapshotRepo) Latest(ctx context.Context, listKey string) (*database.Snapshot, error) {
	query := `
		SELECT id, list_key, mode, branch, updated_label, contact,
		       category_count, item_count, catalog, fetched_at, created_at
		FROM catalog_snapshots
		WHERE list_key = $1
		ORDER BY fetched_at DESC
		LIMIT 1
	`

	s, err := scanSnapshot(r.client.pool.QueryRow(ctx, query, listKey))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("no snapshot for list %q: %w", listKey, database.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}

	return s, nil
}

// List returns snapshot headers without their catalogs, newest first
func (r *SnapshotRepo) List(ctx context.Context, listKey string, limit int) ([]*database.Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, list_key, mode, branch, updated_label, contact,
		       category_count, item_count, fetched_at, created_at
		FROM catalog_snapshots
		WHERE $1 = '' OR list_key = $1
		ORDER BY fetched_at DESC
		LIMIT $2
	`

	rows, err := r.client.pool.Query(ctx, query, listKey, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*database.Snapshot
	for rows.Next() {
		var s database.Snapshot
		err := rows.Scan(
			&s.ID, &s.ListKey, &s.Mode, &s.Branch, &s.UpdatedAt, &s.Contact,
			&s.CategoryCount, &s.ItemCount, &s.FetchedAt, &s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, &s)
	}

	return snapshots, rows.Err()
}

// Items returns the flattened items of a snapshot in catalog order
func (r *SnapshotRepo) Items(ctx context.Context, snapshotID uuid.UUID) ([]*database.SnapshotItem, error) {
	query := `
		SELECT snapshot_id, position, category, brand, code, description,
		       price1, price2, price3, price4, price5
		FROM catalog_items
		WHERE snapshot_id = $1
		ORDER BY position
	`

	rows, err := r.client.pool.Query(ctx, query, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// Since returns every snapshot fetched after the given time with its
// catalog, oldest first
func (r *SnapshotRepo) Since(ctx context.Context, since time.Time) ([]*database.Snapshot, error) {
	query := `
		SELECT id, list_key, mode, branch, updated_label, contact,
		       category_count, item_count, catalog, fetched_at, created_at
		FROM catalog_snapshots
		WHERE fetched_at > $1
		ORDER BY fetched_at
	`

	rows, err := r.client.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots since %s: %w", since.Format(time.RFC3339), err)
	}
	defer rows.Close()

	var snapshots []*database.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}

	return snapshots, rows.Err()
}

// Count returns the number of stored snapshots
func (r *SnapshotRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.client.pool.QueryRow(ctx, "SELECT count(*) FROM catalog_snapshots").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return n, nil
}

// scanSnapshot reads a full snapshot row, catalog document included
func scanSnapshot(row pgx.Row) (*database.Snapshot, error) {
	var s database.Snapshot
	var doc []byte
	err := row.Scan(
		&s.ID, &s.ListKey, &s.Mode, &s.Branch, &s.UpdatedAt, &s.Contact,
		&s.CategoryCount, &s.ItemCount, &doc, &s.FetchedAt, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	var catalog models.Catalog
	if err := json.Unmarshal(doc, &catalog); err != nil {
		return nil, fmt.Errorf("failed to decode catalog of snapshot %s: %w", s.ID, err)
	}
	s.Catalog = &catalog

	return &s, nil
}

func scanItems(rows pgx.Rows) ([]*database.SnapshotItem, error) {
	var items []*database.SnapshotItem
	for rows.Next() {
		var it database.SnapshotItem
		err := rows.Scan(
			&it.SnapshotID, &it.Position, &it.Category, &it.Brand, &it.Code, &it.Description,
			&it.Prices[0], &it.Prices[1], &it.Prices[2], &it.Prices[3], &it.Prices[4],
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}
