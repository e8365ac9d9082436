package database

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/listops/listops/pkg/models"
)

func TestNewSnapshotAndItems(t *testing.T) {
	p := 1500.0
	catalog := &models.Catalog{
		UpdatedAt: "20/10/2026",
		Contact:   "tel:1",
		Categories: []*models.Category{
			{Name: "A", Brands: []*models.Brand{
				{Name: "A", Items: []*models.Item{{Code: "1", Description: "uno", Price2: &p}}},
				{Name: "M", Items: []*models.Item{{Code: "2", Description: "dos"}}},
			}},
		},
	}
	fetched := time.Date(2026, 10, 20, 10, 0, 0, 0, time.UTC)

	s := NewSnapshot("sc", "retail", "sc", catalog, fetched)
	if s.ID == uuid.Nil {
		t.Error("snapshot has no ID")
	}
	if s.ItemCount != 2 || s.CategoryCount != 1 || s.UpdatedAt != "20/10/2026" || !s.FetchedAt.Equal(fetched) {
		t.Errorf("unexpected snapshot header: %+v", s)
	}

	items := s.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Position != 1 || items[1].Position != 2 {
		t.Errorf("positions = %d, %d", items[0].Position, items[1].Position)
	}
	if items[0].SnapshotID != s.ID || items[1].Brand != "M" {
		t.Errorf("unexpected items: %+v %+v", items[0], items[1])
	}
	if items[0].Prices[0] != nil || *items[0].Prices[1] != 1500 {
		t.Errorf("prices not carried over: %v", items[0].Prices)
	}
}

func TestSnapshotItemsWithoutCatalog(t *testing.T) {
	s := &Snapshot{}
	if items := s.Items(); items != nil {
		t.Errorf("Items() = %v, want nil", items)
	}
}

func TestNewSnapshotDefaultsFetchedAt(t *testing.T) {
	s := NewSnapshot("sm", "retail", "sm", &models.Catalog{}, time.Time{})
	if s.FetchedAt.IsZero() {
		t.Error("FetchedAt not defaulted")
	}
}
