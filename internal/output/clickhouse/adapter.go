package clickhouse

import (
	"context"
	"fmt"
	"time"

	chdb "github.com/listops/listops/internal/database/clickhouse"
	"github.com/listops/listops/internal/output"
	"github.com/listops/listops/pkg/models"
)

const AdapterName = "clickhouse"

// Config holds ClickHouse connection configuration
type Config struct {
	Host        string // ClickHouse host
	Port        int    // ClickHouse port (default: 9000)
	Database    string // Database name
	UsernameEnv string // Environment variable for username
	PasswordEnv string // Environment variable for password
	Secure      bool   // Use TLS
	Source      string // Tag written with every record (default: export)
}

// Adapter writes every offered price of a catalog to the price_history table
type Adapter struct {
	*output.BaseAdapter
	config Config
	client *chdb.Client
}

// NewAdapter creates a new ClickHouse output adapter
func NewAdapter(cfg Config) *Adapter {
	if cfg.Port == 0 {
		cfg.Port = 9000
	}
	if cfg.Database == "" {
		cfg.Database = "listops"
	}
	if cfg.Source == "" {
		cfg.Source = "export"
	}

	return &Adapter{
		BaseAdapter: output.NewBaseAdapter(
			AdapterName,
			[]output.Format{}, // ClickHouse uses its own format
		),
		config: cfg,
	}
}

// SupportsFormat - ClickHouse adapter doesn't use file formats
func (a *Adapter) SupportsFormat(format output.Format) bool {
	return false
}

// Connect opens the connection and makes sure the schema exists
func (a *Adapter) Connect(ctx context.Context) error {
	client := chdb.NewClient(chdb.ConfigFrom(
		a.config.Host, a.config.Port, a.config.Database, a.config.Secure,
		a.config.UsernameEnv, a.config.PasswordEnv,
	))
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	if err := client.InitSchema(ctx); err != nil {
		client.Close()
		return fmt.Errorf("failed to init ClickHouse schema: %w", err)
	}

	a.client = client
	a.SetConnected(true)
	return nil
}

// Close cleans up resources
func (a *Adapter) Close() error {
	var err error
	if a.client != nil {
		err = a.client.Close()
		a.client = nil
	}
	a.SetConnected(false)
	return err
}

// Test verifies connectivity to ClickHouse
func (a *Adapter) Test(ctx context.Context) error {
	if a.client == nil {
		return fmt.Errorf("not connected to ClickHouse")
	}
	if err := a.client.Ping(ctx); err != nil {
		return fmt.Errorf("ClickHouse ping failed: %w", err)
	}
	return nil
}

// ExportCatalog inserts one price_history row per offered price
func (a *Adapter) ExportCatalog(ctx context.Context, catalog *models.Catalog, opts output.ExportOptions) (*output.ExportResult, error) {
	result := &output.ExportResult{
		StartedAt:   time.Now(),
		Destination: fmt.Sprintf("%s:%d/%s.price_history", a.config.Host, a.config.Port, a.config.Database),
	}

	filtered := output.FilterCategories(catalog, opts.Categories)
	records := chdb.RecordsFromCatalog(filtered, a.observation(opts), opts.DefaultColumns())
	result.ItemsExported = filtered.Stats().Items

	if opts.DryRun {
		result.RowsWritten = len(records)
		result.Success = true
		result.Details = fmt.Sprintf("Dry run: would insert %d prices into ClickHouse", len(records))
		result.CompletedAt = time.Now()
		return result, nil
	}

	if !a.IsConnected() {
		if err := a.Connect(ctx); err != nil {
			result.Error = err
			return result, err
		}
	}

	if err := a.client.InsertPriceHistory(ctx, records); err != nil {
		result.Error = err
		result.CompletedAt = time.Now()
		return result, err
	}

	result.RowsWritten = len(records)
	result.Success = true
	result.Details = fmt.Sprintf("Inserted %d prices for %d items into ClickHouse", len(records), result.ItemsExported)
	result.CompletedAt = time.Now()

	return result, nil
}

func (a *Adapter) observation(opts output.ExportOptions) chdb.Observation {
	observedAt := opts.FetchedAt
	if observedAt.IsZero() {
		observedAt = time.Now()
	}
	return chdb.Observation{
		ListKey:    opts.Selection.Key(),
		Mode:       string(opts.Selection.Mode),
		ObservedAt: observedAt,
		Source:     a.config.Source,
	}
}
