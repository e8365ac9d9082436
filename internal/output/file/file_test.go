package file

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/listops/listops/internal/lists"
	"github.com/listops/listops/internal/output"
	"github.com/listops/listops/pkg/models"
	"github.com/xuri/excelize/v2"
)

func ptr(v float64) *float64 { return &v }

func testCatalog() *models.Catalog {
	return &models.Catalog{
		UpdatedAt: "20/10/2026",
		Contact:   "tel:3888000000",
		Categories: []*models.Category{
			{Name: "COMESTIBLES", Columns: []string{"PRECIO", "X BULTO"}, Brands: []*models.Brand{
				{Name: "COMESTIBLES", Items: []*models.Item{
					{Code: "0100", Description: "ACEITE 1L", Price1: ptr(3000), Price2: ptr(2850.5)},
				}},
				{Name: "MARCA B", Items: []*models.Item{
					{Code: "0101", Description: "AZUCAR 1KG", Price2: ptr(900)},
				}},
			}},
			{Name: "LIMPIEZA", Brands: []*models.Brand{
				{Name: "LIMPIEZA", Items: []*models.Item{
					{Code: "200", Description: "LAVANDINA", Price1: ptr(700)},
				}},
			}},
		},
	}
}

func TestJSONAdapterEnvelope(t *testing.T) {
	dir := t.TempDir()
	a := NewJSONAdapter(JSONConfig{OutputDir: dir, Envelope: true})
	path := filepath.Join(dir, "out.json")

	res, err := a.ExportCatalog(context.Background(), testCatalog(), output.ExportOptions{
		OutputPath: path,
		Selection:  lists.FromKey("sc"),
	})
	if err != nil {
		t.Fatalf("ExportCatalog() error = %v", err)
	}
	if !res.Success || res.ItemsExported != 3 {
		t.Errorf("unexpected result: %+v", res)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var env struct {
		Success  bool            `json:"success"`
		Tipo     string          `json:"tipo"`
		Sucursal *string         `json:"sucursal"`
		Data     *models.Catalog `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatal(err)
	}
	if !env.Success || env.Tipo != "minorista" || env.Sucursal == nil || *env.Sucursal != "sc" {
		t.Errorf("unexpected envelope: %+v", env)
	}
	if env.Data.UpdatedAt != "20/10/2026" || len(env.Data.Categories) != 2 {
		t.Errorf("unexpected data: %+v", env.Data)
	}
	if env.Data.Categories[0].Brands[1].Items[0].Price1 != nil {
		t.Error("absent price did not round trip as null")
	}
}

func TestJSONAdapterWholesaleSucursalIsNull(t *testing.T) {
	env := NewEnvelope(testCatalog(), lists.FromKey("mayorista"))
	data, err := json.Marshal(env)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"sucursal":null`) || !strings.Contains(string(data), `"tipo":"mayorista"`) {
		t.Errorf("unexpected wholesale envelope: %s", data)
	}
}

func TestJSONAdapterJSONLWithFilter(t *testing.T) {
	dir := t.TempDir()
	a := NewJSONAdapter(JSONConfig{OutputDir: dir})
	path := filepath.Join(dir, "out.jsonl")

	res, err := a.ExportCatalog(context.Background(), testCatalog(), output.ExportOptions{
		Format:     output.FormatJSONL,
		OutputPath: path,
		Categories: []string{"LIMPIEZA"},
	})
	if err != nil {
		t.Fatalf("ExportCatalog() error = %v", err)
	}
	if res.RowsWritten != 1 {
		t.Errorf("RowsWritten = %d, want 1", res.RowsWritten)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var row output.ItemRow
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &row); err != nil {
		t.Fatal(err)
	}
	if row.Code != "200" || len(row.Columns) != 1 || row.Columns[0] != "PRECIO" {
		t.Errorf("unexpected row: %+v", row)
	}
}

func TestJSONAdapterDryRun(t *testing.T) {
	dir := t.TempDir()
	a := NewJSONAdapter(JSONConfig{OutputDir: dir})
	path := filepath.Join(dir, "never.json")

	res, err := a.ExportCatalog(context.Background(), testCatalog(), output.ExportOptions{OutputPath: path, DryRun: true})
	if err != nil || res.ItemsExported != 3 {
		t.Fatalf("dry run = %+v, %v", res, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("dry run wrote a file")
	}
}

func TestCSVAdapter(t *testing.T) {
	dir := t.TempDir()
	a := NewCSVAdapter(CSVConfig{OutputDir: dir})
	path := filepath.Join(dir, "out.csv")

	if _, err := a.ExportCatalog(context.Background(), testCatalog(), output.ExportOptions{OutputPath: path}); err != nil {
		t.Fatalf("ExportCatalog() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	if len(records) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(records))
	}
	want := []string{"COMESTIBLES", "COMESTIBLES", "0100", "ACEITE 1L", "3000", "2850.5", "", "", "", "PRECIO | X BULTO"}
	for i := range want {
		if records[1][i] != want[i] {
			t.Errorf("row 1 col %d = %q, want %q", i, records[1][i], want[i])
		}
	}
	if records[2][1] != "MARCA B" || records[2][4] != "" || records[2][5] != "900" {
		t.Errorf("unexpected row 2: %q", records[2])
	}
}

func TestFormatPrice(t *testing.T) {
	if got := FormatPrice(nil); got != "" {
		t.Errorf("FormatPrice(nil) = %q", got)
	}
	if got := FormatPrice(ptr(12345.5)); got != "12345.5" {
		t.Errorf("FormatPrice(12345.5) = %q", got)
	}
}

func TestXLSXAdapter(t *testing.T) {
	dir := t.TempDir()
	a := NewXLSXAdapter(XLSXConfig{OutputDir: dir})
	path := filepath.Join(dir, "out.xlsx")
	opts := output.ExportOptions{OutputPath: path, Selection: lists.FromKey("jujuy")}

	res, err := a.ExportCatalog(context.Background(), testCatalog(), opts)
	if err != nil {
		t.Fatalf("ExportCatalog() error = %v", err)
	}
	if res.ItemsExported != 3 {
		t.Errorf("ItemsExported = %d", res.ItemsExported)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	sheet := SheetName(opts)
	if sheet != "JUJUY" {
		t.Fatalf("SheetName() = %q", sheet)
	}

	cells := map[string]string{
		"A1":  "LISTA DE PRECIOS",
		"B1":  "20/10/2026",
		"A2":  "tel:3888000000",
		"A4":  "COMESTIBLES",
		"A5":  "COD",
		"C5":  "PRECIO",
		"D5":  "X BULTO",
		"A6":  "0100",
		"B7":  "MARCA B",
		"A8":  "0101",
		"C8":  "-",
		"A10": "LIMPIEZA",
		"C11": "PRECIO",
		"A12": "200",
	}
	for cell, want := range cells {
		got, err := f.GetCellValue(sheet, cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s) error = %v", cell, err)
		}
		if got != want {
			t.Errorf("%s = %q, want %q", cell, got, want)
		}
	}
}
