package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/listops/listops/pkg/models"
)

// ErrNotFound is returned when a lookup matches no rows
var ErrNotFound = errors.New("not found")

// SnapshotRepository defines the interface for stored catalog snapshots
type SnapshotRepository interface {
	// Save stores the snapshot and its flattened items in one transaction
	Save(ctx context.Context, snapshot *Snapshot) error

	// Latest returns the most recent snapshot for a list, with its catalog
	Latest(ctx context.Context, listKey string) (*Snapshot, error)

	// List returns snapshot headers, newest first. An empty key lists all.
	List(ctx context.Context, listKey string, limit int) ([]*Snapshot, error)

	// Items returns the flattened items of one snapshot in catalog order
	Items(ctx context.Context, snapshotID uuid.UUID) ([]*SnapshotItem, error)

	Count(ctx context.Context) (int64, error)
}

// HistoryRepository defines the interface for operation history
type HistoryRepository interface {
	Add(ctx context.Context, entry *OperationHistory) error
	GetRecent(ctx context.Context, limit int) ([]*OperationHistory, error)
	GetByAction(ctx context.Context, action string, limit int) ([]*OperationHistory, error)
}

// Snapshot is one fetched and parsed price list
type Snapshot struct {
	ID            uuid.UUID       `json:"id"`
	ListKey       string          `json:"list_key"`
	Mode          string          `json:"mode"`
	Branch        string          `json:"branch,omitempty"`
	UpdatedAt     string          `json:"updated_at"` // Free-form label from the sheet
	Contact       string          `json:"contact,omitempty"`
	CategoryCount int             `json:"category_count"`
	ItemCount     int             `json:"item_count"`
	Catalog       *models.Catalog `json:"catalog,omitempty"` // Nil when only headers were loaded
	FetchedAt     time.Time       `json:"fetched_at"`
	CreatedAt     time.Time       `json:"created_at"`
}

// SnapshotItem is one item of a snapshot, flattened for querying
type SnapshotItem struct {
	SnapshotID  uuid.UUID                        `json:"snapshot_id"`
	Position    int                              `json:"position"`
	Category    string                           `json:"category"`
	Brand       string                           `json:"brand"`
	Code        string                           `json:"code"`
	Description string                           `json:"description"`
	Prices      [models.MaxPriceColumns]*float64 `json:"prices"`
}

// NewSnapshot builds a snapshot with a fresh ID for a parsed catalog
func NewSnapshot(listKey, mode, branch string, catalog *models.Catalog, fetchedAt time.Time) *Snapshot {
	stats := catalog.Stats()
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}
	return &Snapshot{
		ID:            uuid.New(),
		ListKey:       listKey,
		Mode:          mode,
		Branch:        branch,
		UpdatedAt:     catalog.UpdatedAt,
		Contact:       catalog.Contact,
		CategoryCount: stats.Categories,
		ItemCount:     stats.Items,
		Catalog:       catalog,
		FetchedAt:     fetchedAt,
	}
}

// Items flattens the snapshot's catalog. Positions start at 1.
func (s *Snapshot) Items() []*SnapshotItem {
	if s.Catalog == nil {
		return nil
	}

	var items []*SnapshotItem
	s.Catalog.Walk(func(cat *models.Category, b *models.Brand, it *models.Item) {
		items = append(items, &SnapshotItem{
			SnapshotID:  s.ID,
			Position:    len(items) + 1,
			Category:    cat.Name,
			Brand:       b.Name,
			Code:        it.Code,
			Description: it.Description,
			Prices:      it.Prices(),
		})
	})
	return items
}

// OperationHistory represents an operation in the history log
type OperationHistory struct {
	ID          int64      `json:"id,omitempty"`
	Action      string     `json:"action"`
	Source      string     `json:"source"`
	Count       int        `json:"count"`
	Details     string     `json:"details,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
