package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/listops/listops/internal/lists"
	"github.com/listops/listops/internal/output"
	"github.com/listops/listops/internal/parser"
	"github.com/listops/listops/pkg/models"
)

const JSONAdapterName = "json"

// JSONConfig holds JSON file output configuration
type JSONConfig struct {
	OutputDir string // Directory for output files
	Pretty    bool   // Pretty-print JSON
	Envelope  bool   // Wrap the catalog like the price API response
}

// Envelope is the price API response shape
type Envelope struct {
	Success  bool            `json:"success"`
	Tipo     string          `json:"tipo"`
	Sucursal *string         `json:"sucursal"`
	Data     *models.Catalog `json:"data"`
}

// NewEnvelope wraps a catalog for the given list. Sucursal is null for the
// wholesale list.
func NewEnvelope(catalog *models.Catalog, sel lists.Selection) Envelope {
	env := Envelope{Success: true, Tipo: sel.Tipo(), Data: catalog}
	if sel.Mode != parser.Wholesale {
		branch := sel.Key()
		env.Sucursal = &branch
	}
	return env
}

// JSONAdapter implements the output.Adapter interface for JSON files
type JSONAdapter struct {
	*output.BaseAdapter
	config JSONConfig
}

// NewJSONAdapter creates a new JSON file adapter
func NewJSONAdapter(cfg JSONConfig) *JSONAdapter {
	if cfg.OutputDir == "" {
		cfg.OutputDir = "output"
	}

	return &JSONAdapter{
		BaseAdapter: output.NewBaseAdapter(
			JSONAdapterName,
			[]output.Format{output.FormatJSON, output.FormatJSONL},
		),
		config: cfg,
	}
}

// Connect creates the output directory
func (a *JSONAdapter) Connect(ctx context.Context) error {
	if err := os.MkdirAll(a.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	a.SetConnected(true)
	return nil
}

// Close cleans up resources
func (a *JSONAdapter) Close() error {
	a.SetConnected(false)
	return nil
}

// Test verifies the output directory is writable
func (a *JSONAdapter) Test(ctx context.Context) error {
	return testWritable(a.config.OutputDir)
}

// ExportCatalog writes the catalog to a JSON or JSON Lines file
func (a *JSONAdapter) ExportCatalog(ctx context.Context, catalog *models.Catalog, opts output.ExportOptions) (*output.ExportResult, error) {
	result := &output.ExportResult{
		StartedAt: time.Now(),
	}

	if !a.IsConnected() {
		if err := a.Connect(ctx); err != nil {
			result.Error = err
			return result, err
		}
	}

	catalog = output.FilterCategories(catalog, opts.Categories)
	stats := catalog.Stats()

	if opts.DryRun {
		result.ItemsExported = stats.Items
		result.Success = true
		result.Details = fmt.Sprintf("Dry run: would export %d items", stats.Items)
		result.CompletedAt = time.Now()
		return result, nil
	}

	format := opts.Format
	if format == "" {
		format = output.FormatJSON
	}

	ext := ".json"
	if format == output.FormatJSONL {
		ext = ".jsonl"
	}
	filename := exportFilename(a.config.OutputDir, opts, ext)

	var (
		rows int
		err  error
	)
	switch format {
	case output.FormatJSONL:
		rows, err = a.writeJSONL(filename, output.Flatten(catalog, opts.DefaultColumns()))
	default:
		rows, err = 1, a.writeJSON(filename, catalog, opts.Selection)
	}

	if err != nil {
		result.Error = err
		return result, err
	}

	result.Destination = filename
	result.ItemsExported = stats.Items
	result.RowsWritten = rows
	result.Success = true
	result.Details = fmt.Sprintf("Exported %d items to %s", stats.Items, filename)
	result.CompletedAt = time.Now()

	return result, nil
}

// writeJSON writes the catalog, wrapped in the API envelope when configured
func (a *JSONAdapter) writeJSON(filename string, catalog *models.Catalog, sel lists.Selection) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	if a.config.Pretty {
		encoder.SetIndent("", "  ")
	}

	if a.config.Envelope {
		return encoder.Encode(NewEnvelope(catalog, sel))
	}
	return encoder.Encode(catalog)
}

// writeJSONL writes items as JSON Lines (one object per line)
func (a *JSONAdapter) writeJSONL(filename string, rows []output.ItemRow) (int, error) {
	f, err := os.Create(filename)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	writer := bufio.NewWriter(f)
	defer writer.Flush()

	for _, r := range rows {
		data, err := json.Marshal(r)
		if err != nil {
			return 0, err
		}
		if _, err := writer.Write(data); err != nil {
			return 0, err
		}
		if _, err := writer.WriteString("\n"); err != nil {
			return 0, err
		}
	}

	return len(rows), nil
}

// exportFilename returns opts.OutputPath, or a timestamped name for the list
func exportFilename(dir string, opts output.ExportOptions, ext string) string {
	if opts.OutputPath != "" {
		return opts.OutputPath
	}
	timestamp := time.Now().Format("2006-01-02_150405")
	return filepath.Join(dir, fmt.Sprintf("lista_%s_%s%s", opts.Selection.Key(), timestamp, ext))
}

// testWritable verifies a directory accepts new files
func testWritable(dir string) error {
	testFile := filepath.Join(dir, ".test")
	f, err := os.Create(testFile)
	if err != nil {
		return fmt.Errorf("output directory not writable: %w", err)
	}
	f.Close()
	os.Remove(testFile)
	return nil
}
