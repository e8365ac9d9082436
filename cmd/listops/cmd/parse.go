package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/listops/listops/internal/orchestrator"
	"github.com/listops/listops/internal/parser"
	"github.com/listops/listops/internal/source/file"
	"github.com/spf13/cobra"
)

var (
	parseSelection selectionFlags
	parseMode      string
	parseJSON      bool
	parseSave      bool
	parseFaults    bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [csv-file]",
	Short: "Parse a local price list export",
	Long: `Parse a price list CSV export into categories, brands and items.

The list flags decide the parsing mode: the mayorista list is parsed as
wholesale, every branch list as retail. --mode overrides that.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	parseSelection.register(parseCmd.Flags())
	parseCmd.Flags().StringVar(&parseMode, "mode", "", "Force the parsing mode: wholesale or retail")
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "Print the catalog as JSON instead of a summary")
	parseCmd.Flags().BoolVar(&parseSave, "save", false, "Cache the catalog in the state file under the list key")
	parseCmd.Flags().BoolVar(&parseFaults, "faults", false, "List every row that could not be classified")
}

func runParse(cmd *cobra.Command, args []string) error {
	path := args[0]
	sel := parseSelection.selection()

	if parseMode != "" {
		mode, err := parser.ParseMode(parseMode)
		if err != nil {
			return err
		}
		sel.Mode = mode
	}

	fetched, err := file.ReadPath(path, sel)
	if err != nil {
		return err
	}

	o, err := newOrchestrator(context.Background())
	if err != nil {
		return err
	}
	defer o.Close()

	res := o.Parse(fetched)

	if parseJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Catalog)
	}

	printSection("PARSING PRICE LIST")
	infoColor.Printf("  Source: %s\n", path)
	infoColor.Printf("  List:   %s (%s)\n\n", sel.Key(), sel.Mode)

	printParseSummary(res)

	if parseSave {
		o.Remember("parse", res)
		if err := o.Store().Save(); err != nil {
			return fmt.Errorf("failed to save state: %w", err)
		}
		successColor.Printf("\n  ✓ Cached as %s\n", sel.Key())
	}
	fmt.Println()

	return nil
}

func printParseSummary(res *orchestrator.ListResult) {
	catalog := res.Catalog
	stats := catalog.Stats()

	if catalog.UpdatedAt != "" {
		fmt.Printf("  Updated: %s\n", catalog.UpdatedAt)
	}
	if catalog.Contact != "" {
		fmt.Printf("  Contact: %s\n", catalog.Contact)
	}
	fmt.Println()

	table := newTable("Category", "Brands", "Items", "Columns")
	for _, cat := range catalog.Categories {
		table.Append([]string{
			cat.Name,
			fmt.Sprintf("%d", len(cat.Brands)),
			fmt.Sprintf("%d", cat.ItemCount()),
			strings.Join(cat.DisplayColumns(defaultColumns()), ", "),
		})
	}
	table.Render()

	fmt.Println()
	successColor.Printf("  ✓ %d categories, %d brands, %d items, %d prices\n",
		stats.Categories, stats.Brands, stats.Items, stats.Prices)

	if res.Report == nil {
		return
	}

	kinds := make([]parser.RowKind, 0, len(res.Report.Rows))
	for k := range res.Report.Rows {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		parts = append(parts, fmt.Sprintf("%s %d", k, res.Report.Rows[k]))
	}
	fmt.Printf("  Rows: %d (%s)\n", res.Report.Lines, strings.Join(parts, ", "))

	if n := len(res.Report.Faults); n > 0 {
		color.Yellow("  ⚠ %d rows skipped", n)
		if parseFaults {
			for _, f := range res.Report.Faults {
				fmt.Printf("    line %d: %s (%s)\n", f.Line, truncate(f.Content, 60), f.Error)
			}
		}
	}
}

// defaultColumns are the labels shown for categories without a header row
func defaultColumns() []string {
	if v := appConfig.Parser.Vocabulary; v != nil && len(v.DefaultColumns) > 0 {
		return v.DefaultColumns
	}
	return parser.DefaultVocabulary().DefaultColumns
}
