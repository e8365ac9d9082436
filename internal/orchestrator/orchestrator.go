package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/listops/listops/internal/config"
	"github.com/listops/listops/internal/lists"
	"github.com/listops/listops/internal/output"
	chout "github.com/listops/listops/internal/output/clickhouse"
	"github.com/listops/listops/internal/output/file"
	"github.com/listops/listops/internal/parser"
	"github.com/listops/listops/internal/source"
	filesrc "github.com/listops/listops/internal/source/file"
	"github.com/listops/listops/internal/source/sheets"
	"github.com/listops/listops/internal/state"
	"github.com/listops/listops/pkg/models"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Orchestrator coordinates fetching, parsing, caching and exporting lists
type Orchestrator struct {
	config  *config.Config
	store   *state.Store
	builder *parser.Builder
	sources *source.Registry
	outputs *output.Registry
	logger  log.FieldLogger
}

// New creates an orchestrator. The parser is built from the config's
// vocabulary and layout overrides.
func New(cfg *config.Config, store *state.Store, logger log.FieldLogger) (*Orchestrator, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if store == nil {
		store = state.NewStore(cfg.State.File)
	}
	if logger == nil {
		logger = log.StandardLogger()
	}

	opts := append(cfg.ParserOptions(), parser.WithLogger(logger))
	builder, err := parser.NewBuilder(opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid parser configuration: %w", err)
	}

	return &Orchestrator{
		config:  cfg,
		store:   store,
		builder: builder,
		sources: source.NewRegistry(),
		outputs: output.NewRegistry(),
		logger:  logger,
	}, nil
}

// Initialize loads the state cache and registers connectors and adapters
func (o *Orchestrator) Initialize(ctx context.Context) error {
	if err := o.store.Load(); err != nil {
		// Not fatal, a broken cache is rebuilt on the next save
		o.logger.WithError(err).Warn("Ignoring unreadable state file")
	}

	sheetsCfg := o.config.Sources.Sheets
	connectors := []source.Connector{
		sheets.NewConnector(sheets.Config{
			URLs:      sheetsCfg.URLs,
			Timeout:   time.Duration(sheetsCfg.TimeoutSeconds) * time.Second,
			Retries:   sheetsCfg.Retries,
			UserAgent: sheetsCfg.UserAgent,
		}),
		filesrc.NewConnector(o.config.Sources.File.Dir),
	}
	for _, c := range connectors {
		if err := o.sources.Register(c); err != nil {
			return err
		}
	}

	fileCfg := o.config.Outputs.File
	palette := output.DefaultPalette().Merge(o.config.Outputs.XLSX.Palette)
	chCfg := o.config.Outputs.ClickHouse
	adapters := []output.Adapter{
		file.NewJSONAdapter(file.JSONConfig{
			OutputDir: fileCfg.OutputDir,
			Pretty:    fileCfg.Pretty,
			Envelope:  fileCfg.Envelope,
		}),
		file.NewCSVAdapter(file.CSVConfig{OutputDir: fileCfg.OutputDir}),
		file.NewXLSXAdapter(file.XLSXConfig{OutputDir: fileCfg.OutputDir, Palette: palette}),
		chout.NewAdapter(chout.Config{
			Host:        chCfg.Host,
			Port:        chCfg.Port,
			Database:    chCfg.Database,
			UsernameEnv: chCfg.UsernameEnv,
			PasswordEnv: chCfg.PasswordEnv,
			Secure:      chCfg.Secure,
		}),
	}
	for _, a := range adapters {
		if err := o.outputs.Register(a); err != nil {
			return err
		}
	}

	return nil
}

// Close cleans up all resources
func (o *Orchestrator) Close() error {
	return errors.Join(o.sources.CloseAll(), o.outputs.CloseAll())
}

// ListResult is the outcome of fetching and parsing one list
type ListResult struct {
	Selection lists.Selection
	Origin    string
	Bytes     int
	FetchedAt time.Time
	Catalog   *models.Catalog
	Report    *parser.Report
	Error     error
	Duration  time.Duration
}

// FetchOptions configures a multi-list fetch
type FetchOptions struct {
	Source      string            // Connector name, defaults to the configured source
	Selections  []lists.Selection // Lists to fetch, defaults to all known lists
	Concurrency int               // Parallel fetches, defaults to the configured value
	Remember    bool              // Cache successful catalogs in the state store
	Progress    func(*ListResult) // Called once per finished list, possibly concurrently
}

// FetchAll fetches and parses several lists concurrently. One list failing
// does not stop the others; the joined per-list errors are returned along
// with every result, in selection order.
func (o *Orchestrator) FetchAll(ctx context.Context, opts FetchOptions) ([]*ListResult, error) {
	srcName := opts.Source
	if srcName == "" {
		srcName = o.config.Defaults.Source
	}
	src, err := o.sources.Get(srcName)
	if err != nil {
		return nil, err
	}
	// Connect once up front; the fetch goroutines share the connector
	if err := src.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect %s: %w", src.Name(), err)
	}

	selections := opts.Selections
	if len(selections) == 0 {
		selections = lists.All()
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = o.config.Defaults.Concurrency
	}
	if limit <= 0 {
		limit = 1
	}

	results := make([]*ListResult, len(selections))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, sel := range selections {
		g.Go(func() error {
			res := o.fetchOne(gctx, src, sel)
			results[i] = res
			if opts.Progress != nil {
				opts.Progress(res)
			}
			// Per-list failures are reported in the result, not by cancelling
			// the group
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	var errs []error
	for _, res := range results {
		if res.Error != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.Selection.Key(), res.Error))
			continue
		}
		if opts.Remember {
			o.Remember("fetch", res)
		}
	}

	if opts.Remember {
		if err := o.store.Save(); err != nil {
			errs = append(errs, fmt.Errorf("failed to save state: %w", err))
		}
	}

	return results, errors.Join(errs...)
}

func (o *Orchestrator) fetchOne(ctx context.Context, src source.Connector, sel lists.Selection) *ListResult {
	start := time.Now()
	res := &ListResult{Selection: sel}

	fetched, err := src.Fetch(ctx, sel)
	if err != nil {
		res.Error = err
		res.Duration = time.Since(start)
		o.logger.WithFields(log.Fields{"list": sel.Key(), "source": src.Name()}).WithError(err).Warn("Fetch failed")
		return res
	}

	parsed := o.Parse(fetched)
	parsed.Duration = time.Since(start)
	return parsed
}

// Parse turns fetched text into a catalog using the selection's mode
func (o *Orchestrator) Parse(fetched *source.FetchResult) *ListResult {
	catalog, report := o.builder.ParseWithReport(fetched.Text, fetched.Selection.Mode)

	o.logger.WithFields(log.Fields{
		"list":   fetched.Selection.Key(),
		"lines":  report.Lines,
		"items":  catalog.Stats().Items,
		"faults": len(report.Faults),
	}).Debug("Parsed list")

	return &ListResult{
		Selection: fetched.Selection,
		Origin:    fetched.Origin,
		Bytes:     fetched.Bytes(),
		FetchedAt: fetched.FetchedAt,
		Catalog:   catalog,
		Report:    report,
	}
}

// Remember caches a parsed list and records it in the history. The caller
// saves the store.
func (o *Orchestrator) Remember(action string, res *ListResult) {
	faults := 0
	if res.Report != nil {
		faults = len(res.Report.Faults)
	}

	o.store.Put(&state.CachedList{
		Key:       res.Selection.Key(),
		Mode:      string(res.Selection.Mode),
		Branch:    res.Selection.Branch,
		Origin:    res.Origin,
		FetchedAt: res.FetchedAt,
		Faults:    faults,
		Catalog:   res.Catalog,
	})

	stats := res.Catalog.Stats()
	o.store.AddHistory(action, res.Selection.Key(), stats.Items,
		fmt.Sprintf("%d categories, %d items from %s", stats.Categories, stats.Items, res.Origin))
}

// Cached returns the last parsed catalog for a list key
func (o *Orchestrator) Cached(key string) (*state.CachedList, error) {
	entry, ok := o.store.Get(key)
	if !ok {
		return nil, fmt.Errorf("list %q is not cached; run fetch or parse first", key)
	}
	return entry, nil
}

// ExportOptions configures an export of a cached list
type ExportOptions struct {
	Destination string // Adapter name, or empty to pick by format
	Format      output.Format
	OutputPath  string
	Categories  []string
	DryRun      bool
}

// Export writes a cached list through an output adapter
func (o *Orchestrator) Export(ctx context.Context, key string, opts ExportOptions) (*output.ExportResult, error) {
	entry, err := o.Cached(key)
	if err != nil {
		return nil, err
	}

	adapter, err := o.adapterFor(opts)
	if err != nil {
		return nil, err
	}

	if !opts.DryRun {
		if err := adapter.Connect(ctx); err != nil {
			return nil, err
		}
	}

	result, err := adapter.ExportCatalog(ctx, entry.Catalog, output.ExportOptions{
		Format:     opts.Format,
		OutputPath: opts.OutputPath,
		Selection:  lists.FromKey(entry.Key),
		Categories: opts.Categories,
		FetchedAt:  entry.FetchedAt,
		Defaults:   o.builder.Vocabulary().DefaultColumns,
		DryRun:     opts.DryRun,
	})
	if err != nil {
		return result, err
	}

	if !opts.DryRun {
		o.store.AddHistory("export", key, result.ItemsExported, result.Details)
		if err := o.store.Save(); err != nil {
			return result, fmt.Errorf("failed to save state: %w", err)
		}
	}

	return result, nil
}

func (o *Orchestrator) adapterFor(opts ExportOptions) (output.Adapter, error) {
	if opts.Destination != "" {
		return o.outputs.Get(opts.Destination)
	}
	format := opts.Format
	if format == "" {
		format = output.Format(o.config.Defaults.ExportFormat)
	}
	return o.outputs.ForFormat(format)
}

// Builder returns the configured parser
func (o *Orchestrator) Builder() *parser.Builder {
	return o.builder
}

// Store returns the state store
func (o *Orchestrator) Store() *state.Store {
	return o.store
}

// Sources returns the source registry
func (o *Orchestrator) Sources() *source.Registry {
	return o.sources
}

// Outputs returns the output adapter registry
func (o *Orchestrator) Outputs() *output.Registry {
	return o.outputs
}
