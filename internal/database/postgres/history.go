package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/listops/listops/internal/database"
)

// HistoryRepo implements the HistoryRepository interface for PostgreSQL
type HistoryRepo struct {
	client *Client
}

var _ database.HistoryRepository = (*HistoryRepo)(nil)

// NewHistoryRepo creates a new PostgreSQL history repository
func NewHistoryRepo(client *Client) *HistoryRepo {
	return &HistoryRepo{client: client}
}

// Add inserts a new operation history entry
func (r *HistoryRepo) Add(ctx context.Context, entry *database.OperationHistory) error {
	query := `
		INSERT INTO operation_history (action, source, count, details, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	if entry.StartedAt.IsZero() {
		entry.StartedAt = time.Now()
	}

	err := r.client.pool.QueryRow(ctx, query,
		entry.Action,
		entry.Source,
		entry.Count,
		entry.Details,
		entry.StartedAt,
		entry.CompletedAt,
	).Scan(&entry.ID)

	if err != nil {
		return fmt.Errorf("failed to add history entry: %w", err)
	}

	return nil
}

// GetRecent retrieves the most recent history entries
func (r *HistoryRepo) GetRecent(ctx context.Context, limit int) ([]*database.OperationHistory, error) {
	query := `
		SELECT id, action, source, count, details, started_at, completed_at
		FROM operation_history
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := r.client.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	return r.scanHistory(rows)
}

// GetByAction retrieves history entries for a specific action
func (r *HistoryRepo) GetByAction(ctx context.Context, action string, limit int) ([]*database.OperationHistory, error) {
	query := `
		SELECT id, action, source, count, details, started_at, completed_at
		FROM operation_history
		WHERE action = $1
		ORDER BY started_at DESC
		LIMIT $2
	`

	rows, err := r.client.pool.Query(ctx, query, action, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history by action: %w", err)
	}
	defer rows.Close()

	return r.scanHistory(rows)
}

func (r *HistoryRepo) scanHistory(rows pgx.Rows) ([]*database.OperationHistory, error) {
	var entries []*database.OperationHistory

	for rows.Next() {
		var entry database.OperationHistory
		err := rows.Scan(
			&entry.ID, &entry.Action, &entry.Source, &entry.Count,
			&entry.Details, &entry.StartedAt, &entry.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// MarkCompleted marks an operation as completed
func (r *HistoryRepo) MarkCompleted(ctx context.Context, id int64) error {
	now := time.Now()
	_, err := r.client.pool.Exec(ctx,
		"UPDATE operation_history SET completed_at = $1 WHERE id = $2",
		now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark history completed: %w", err)
	}
	return nil
}
