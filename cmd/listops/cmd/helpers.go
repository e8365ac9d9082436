package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/listops/listops/internal/lists"
	"github.com/listops/listops/internal/orchestrator"
	"github.com/listops/listops/internal/output/file"
	"github.com/listops/listops/internal/state"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	infoColor    = color.New(color.FgYellow)
)

// selectionFlags are shared by every command that targets one list
type selectionFlags struct {
	list     string
	lista    string
	sucursal string
}

func (f *selectionFlags) register(flags interface {
	StringVar(p *string, name, value, usage string)
}) {
	flags.StringVar(&f.list, "list", "", "List key: mayorista, sm, sc, jujuy (default from config)")
	flags.StringVar(&f.lista, "lista", "", "List type as the storefront sends it (mayorista or minorista)")
	flags.StringVar(&f.sucursal, "sucursal", "", "Retail branch as the storefront sends it")
}

// selection resolves the flags into a list. An explicit key wins over the
// lista/sucursal pair, which wins over the configured default.
func (f *selectionFlags) selection() lists.Selection {
	switch {
	case f.list != "":
		return lists.FromKey(strings.ToLower(f.list))
	case f.lista != "" || f.sucursal != "":
		return lists.Select(f.lista, f.sucursal)
	default:
		return lists.FromKey(appConfig.Defaults.List)
	}
}

func newOrchestrator(ctx context.Context) (*orchestrator.Orchestrator, error) {
	o, err := orchestrator.New(appConfig, state.NewStore(appConfig.State.File), log.StandardLogger())
	if err != nil {
		return nil, err
	}
	if err := o.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return o, nil
}

// loadCached reads the state file and returns one cached list
func loadCached(key string) (*state.CachedList, error) {
	store := state.NewStore(appConfig.State.File)
	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	entry, ok := store.Get(key)
	if !ok {
		return nil, fmt.Errorf("list %q is not cached; run 'listops fetch %s' first", key, key)
	}
	return entry, nil
}

func printSection(title string) {
	headerColor.Println("\n  " + title)
	fmt.Println("  " + strings.Repeat("─", 40))
	fmt.Println()
}

func newTable(headers ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(headers)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	colors := make([]tablewriter.Colors, len(headers))
	for i := range colors {
		colors[i] = tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor}
	}
	table.SetHeaderColor(colors...)
	return table
}

func displayPrice(p *float64) string {
	if p == nil {
		return "-"
	}
	return "$ " + file.FormatPrice(p)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
