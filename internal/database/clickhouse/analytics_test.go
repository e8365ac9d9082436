package clickhouse

import (
	"testing"
	"time"

	"github.com/listops/listops/pkg/models"
)

func fp(v float64) *float64 { return &v }

func TestRecordsFromCatalog(t *testing.T) {
	catalog := &models.Catalog{
		UpdatedAt: "20/10/2026",
		Categories: []*models.Category{
			{
				Name:    "PERROS",
				Columns: []string{"BOLSA", "KILO"},
				Brands: []*models.Brand{
					{Name: "DOGUI", Items: []*models.Item{
						{Code: "10", Description: "DOGUI 20KG", Price1: fp(100), Price2: fp(6.5)},
						{Code: "11", Description: "DOGUI 8KG"},
					}},
				},
			},
			{
				Name: "ACCESORIOS",
				Brands: []*models.Brand{
					{Name: "ACCESORIOS", Items: []*models.Item{
						{Code: "20", Description: "CORREA", Price3: fp(50)},
					}},
				},
			},
		},
	}
	at := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)

	records := RecordsFromCatalog(catalog, Observation{ListKey: "sm", Mode: "retail", SnapshotID: "abc", ObservedAt: at}, []string{"PRECIO"})
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	tests := []struct {
		code   string
		column uint8
		label  string
		price  float64
	}{
		{"10", 1, "BOLSA", 100},
		{"10", 2, "KILO", 6.5},
		{"20", 3, "", 50},
	}

	for i, tt := range tests {
		r := records[i]
		if r.ItemCode != tt.code || r.PriceColumn != tt.column || r.ColumnLabel != tt.label || r.Price != tt.price {
			t.Errorf("record %d = %+v, want %+v", i, r, tt)
		}
		if r.ListKey != "sm" || r.SnapshotID != "abc" || r.ListUpdated != "20/10/2026" || !r.ObservedAt.Equal(at) {
			t.Errorf("record %d lost observation fields: %+v", i, r)
		}
	}
}

func TestRecordsFromNilCatalog(t *testing.T) {
	if got := RecordsFromCatalog(nil, Observation{}, nil); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestNewPriceChange(t *testing.T) {
	now := time.Now()

	pc := NewPriceChange("10", "DOGUI", 1, "BOLSA", 200, 250, now, now)
	if pc.Difference != 50 || pc.DiffPercent != 25 {
		t.Errorf("got diff %v (%v%%), want 50 (25%%)", pc.Difference, pc.DiffPercent)
	}

	pc = NewPriceChange("10", "DOGUI", 1, "BOLSA", 300, 200, now, now)
	if pc.DiffPercent != -33.33 {
		t.Errorf("DiffPercent = %v, want -33.33", pc.DiffPercent)
	}

	pc = NewPriceChange("10", "DOGUI", 1, "BOLSA", 0, 10, now, now)
	if pc.DiffPercent != 0 {
		t.Errorf("DiffPercent from zero = %v, want 0", pc.DiffPercent)
	}
}
