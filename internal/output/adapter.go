package output

import (
	"context"
	"time"

	"github.com/listops/listops/internal/lists"
	"github.com/listops/listops/pkg/models"
)

// Format specifies the output format
type Format string

const (
	FormatJSON  Format = "json"  // Catalog JSON, optionally in the API envelope
	FormatJSONL Format = "jsonl" // One flattened item per line
	FormatCSV   Format = "csv"   // One row per item
	FormatXLSX  Format = "xlsx"  // Spreadsheet with coloured category sections
)

// ExportOptions configures export behavior
type ExportOptions struct {
	Format     Format          // Output format
	OutputPath string          // File path or destination
	Selection  lists.Selection // Which list the catalog came from
	Categories []string        // Only export these categories (exact names)
	FetchedAt  time.Time       // When the source was read
	Defaults   []string        // Price labels for categories without a header row
	DryRun     bool            // Preview without actually exporting
}

// DefaultColumns returns the fallback price labels
func (o ExportOptions) DefaultColumns() []string {
	if len(o.Defaults) > 0 {
		return o.Defaults
	}
	return []string{"PRECIO"}
}

// ExportResult represents the result of an export operation
type ExportResult struct {
	Destination   string // Where data was exported
	ItemsExported int    // Number of items exported
	RowsWritten   int    // Rows written to the destination
	Success       bool
	Error         error
	StartedAt     time.Time
	CompletedAt   time.Time
	Details       string // Human-readable details
}

// Adapter defines the interface for output adapters
type Adapter interface {
	// Name returns the adapter's unique identifier
	Name() string

	// Connect establishes connection to the output destination
	Connect(ctx context.Context) error

	// Close cleans up any resources
	Close() error

	// ExportCatalog exports a parsed catalog to the destination
	ExportCatalog(ctx context.Context, catalog *models.Catalog, opts ExportOptions) (*ExportResult, error)

	// Test verifies connectivity to the destination
	Test(ctx context.Context) error

	// SupportsFormat checks if the adapter supports a specific format
	SupportsFormat(format Format) bool
}

// BaseAdapter provides common functionality for adapters
type BaseAdapter struct {
	name      string
	connected bool
	formats   []Format
}

// NewBaseAdapter creates a new base adapter
func NewBaseAdapter(name string, formats []Format) *BaseAdapter {
	return &BaseAdapter{
		name:    name,
		formats: formats,
	}
}

func (b *BaseAdapter) Name() string {
	return b.name
}

func (b *BaseAdapter) IsConnected() bool {
	return b.connected
}

func (b *BaseAdapter) SetConnected(connected bool) {
	b.connected = connected
}

func (b *BaseAdapter) SupportsFormat(format Format) bool {
	for _, f := range b.formats {
		if f == format {
			return true
		}
	}
	return false
}

func (b *BaseAdapter) SupportedFormats() []Format {
	return b.formats
}
