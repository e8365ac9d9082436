package output

import (
	"context"
	"errors"
	"testing"

	"github.com/listops/listops/pkg/models"
)

func TestPaletteColor(t *testing.T) {
	p := DefaultPalette()
	if got := p.Color("LIMPIEZA"); got != "#0288d1" {
		t.Errorf("Color(LIMPIEZA) = %q", got)
	}
	if got := p.Color("FERRETERIA"); got != DefaultCategoryColor {
		t.Errorf("Color(unknown) = %q, want default", got)
	}

	merged := p.Merge(map[string]string{"FERRETERIA": "#000000"})
	if merged.Color("FERRETERIA") != "#000000" || merged.Color("LIMPIEZA") != "#0288d1" {
		t.Error("Merge() lost an entry")
	}
	if _, ok := p["FERRETERIA"]; ok {
		t.Error("Merge() modified the receiver")
	}
}

func TestTextColor(t *testing.T) {
	if got := TextColor("#fbc02d"); got != "#212121" {
		t.Errorf("TextColor(light) = %q", got)
	}
	if got := TextColor("#d32f2f"); got != "#ffffff" {
		t.Errorf("TextColor(dark) = %q", got)
	}
}

func TestFilterAndFlatten(t *testing.T) {
	price := 10.0
	catalog := &models.Catalog{
		UpdatedAt: "hoy",
		Categories: []*models.Category{
			{Name: "A", Columns: []string{"X", "Y"}, Brands: []*models.Brand{
				{Name: "A", Items: []*models.Item{{Code: "1", Description: "uno", Price1: &price}}},
			}},
			{Name: "B", Brands: []*models.Brand{
				{Name: "M", Items: []*models.Item{{Code: "2", Description: "dos"}}},
			}},
		},
	}

	if got := FilterCategories(catalog, nil); got != catalog {
		t.Error("empty filter should return the catalog itself")
	}

	filtered := FilterCategories(catalog, []string{"B"})
	if len(filtered.Categories) != 1 || filtered.UpdatedAt != "hoy" {
		t.Fatalf("unexpected filtered catalog: %+v", filtered)
	}
	if len(catalog.Categories) != 2 {
		t.Error("filter modified the source catalog")
	}

	rows := Flatten(catalog, []string{"PRECIO"})
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Columns[1] != "Y" || *rows[0].Prices[0] != 10 {
		t.Errorf("unexpected row 0: %+v", rows[0])
	}
	if rows[1].Brand != "M" || rows[1].Columns[0] != "PRECIO" || rows[1].Prices[0] != nil {
		t.Errorf("unexpected row 1: %+v", rows[1])
	}
}

type stubAdapter struct {
	*BaseAdapter
}

func (s *stubAdapter) Connect(ctx context.Context) error { return nil }
func (s *stubAdapter) Close() error                      { return nil }
func (s *stubAdapter) Test(ctx context.Context) error    { return nil }
func (s *stubAdapter) ExportCatalog(ctx context.Context, c *models.Catalog, opts ExportOptions) (*ExportResult, error) {
	return &ExportResult{Success: true}, nil
}

func TestRegistryForFormat(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&stubAdapter{NewBaseAdapter("json", []Format{FormatJSON, FormatJSONL})})
	_ = r.Register(&stubAdapter{NewBaseAdapter("csv", []Format{FormatCSV})})

	a, err := r.ForFormat(FormatJSONL)
	if err != nil || a.Name() != "json" {
		t.Errorf("ForFormat(jsonl) = %v, %v", a, err)
	}
	if _, err := r.ForFormat(FormatXLSX); err == nil {
		t.Error("expected error for unsupported format")
	}
	if err := r.Register(&stubAdapter{NewBaseAdapter("csv", nil)}); err == nil {
		t.Error("expected duplicate registration error")
	}
}

type offlineAdapter struct {
	*stubAdapter
}

func (o *offlineAdapter) Test(ctx context.Context) error { return errors.New("offline") }

func TestRegistryTestAll(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&stubAdapter{NewBaseAdapter("json", []Format{FormatJSON})})
	_ = r.Register(&offlineAdapter{&stubAdapter{NewBaseAdapter("clickhouse", nil)}})

	results := r.TestAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("TestAll() = %v, want 2 results", results)
	}
	if results["json"] != nil {
		t.Errorf("json: %v, want nil", results["json"])
	}
	if results["clickhouse"] == nil {
		t.Error("clickhouse: expected error")
	}
}

func TestExportOptionsDefaultColumns(t *testing.T) {
	if got := (ExportOptions{}).DefaultColumns(); len(got) != 1 || got[0] != "PRECIO" {
		t.Errorf("DefaultColumns() = %v", got)
	}
	if got := (ExportOptions{Defaults: []string{"P"}}).DefaultColumns(); got[0] != "P" {
		t.Errorf("DefaultColumns() = %v", got)
	}
}
