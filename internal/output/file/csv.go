package file

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/listops/listops/internal/output"
	"github.com/listops/listops/pkg/models"
)

const CSVAdapterName = "csv"

// CSVConfig holds CSV file output configuration
type CSVConfig struct {
	OutputDir string // Directory for output files
}

// CSVAdapter implements the output.Adapter interface for CSV files
type CSVAdapter struct {
	*output.BaseAdapter
	config CSVConfig
}

// NewCSVAdapter creates a new CSV file adapter
func NewCSVAdapter(cfg CSVConfig) *CSVAdapter {
	if cfg.OutputDir == "" {
		cfg.OutputDir = "output"
	}

	return &CSVAdapter{
		BaseAdapter: output.NewBaseAdapter(
			CSVAdapterName,
			[]output.Format{output.FormatCSV},
		),
		config: cfg,
	}
}

// Connect creates the output directory
func (a *CSVAdapter) Connect(ctx context.Context) error {
	if err := os.MkdirAll(a.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	a.SetConnected(true)
	return nil
}

// Close cleans up resources
func (a *CSVAdapter) Close() error {
	a.SetConnected(false)
	return nil
}

// Test verifies the output directory is writable
func (a *CSVAdapter) Test(ctx context.Context) error {
	return testWritable(a.config.OutputDir)
}

// ExportCatalog writes one CSV row per item
func (a *CSVAdapter) ExportCatalog(ctx context.Context, catalog *models.Catalog, opts output.ExportOptions) (*output.ExportResult, error) {
	result := &output.ExportResult{
		StartedAt: time.Now(),
	}

	if !a.IsConnected() {
		if err := a.Connect(ctx); err != nil {
			result.Error = err
			return result, err
		}
	}

	rows := output.Flatten(output.FilterCategories(catalog, opts.Categories), opts.DefaultColumns())

	if opts.DryRun {
		result.ItemsExported = len(rows)
		result.Success = true
		result.Details = fmt.Sprintf("Dry run: would export %d items", len(rows))
		result.CompletedAt = time.Now()
		return result, nil
	}

	filename := exportFilename(a.config.OutputDir, opts, ".csv")

	f, err := os.Create(filename)
	if err != nil {
		result.Error = err
		return result, err
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writeItemRows(writer, rows); err != nil {
		result.Error = err
		return result, err
	}

	result.Destination = filename
	result.ItemsExported = len(rows)
	result.RowsWritten = len(rows) + 1
	result.Success = true
	result.Details = fmt.Sprintf("Exported %d items to %s", len(rows), filename)
	result.CompletedAt = time.Now()

	return result, nil
}

// csvHeaders are the column names of the item export
var csvHeaders = []string{
	"Categoria",
	"Marca",
	"Codigo",
	"Descripcion",
	"Precio 1",
	"Precio 2",
	"Precio 3",
	"Precio 4",
	"Precio 5",
	"Columnas",
}

func writeItemRows(w *csv.Writer, rows []output.ItemRow) error {
	if err := w.Write(csvHeaders); err != nil {
		return err
	}

	for _, r := range rows {
		record := []string{r.Category, r.Brand, r.Code, r.Description}
		for _, p := range r.Prices {
			record = append(record, FormatPrice(p))
		}
		record = append(record, strings.Join(r.Columns, " | "))

		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// FormatPrice renders a price without trailing zeros; absent prices are empty
func FormatPrice(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}
