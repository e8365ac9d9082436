package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/listops/listops/internal/orchestrator"
	"github.com/listops/listops/internal/output"
	"github.com/spf13/cobra"
)

var (
	exportSelection  selectionFlags
	exportDest       string
	exportFormat     string
	exportOutputPath string
	exportCategories []string
	exportDryRun     bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export cached price lists",
	Long:  `Export cached catalogs to JSON, JSONL, CSV, XLSX or ClickHouse.`,
}

var exportRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run export to destination",
	Long: `Export a cached list. The destination is picked by --format unless
--dest names an adapter (clickhouse writes the price history table).`,
	RunE: runExport,
}

var exportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available export destinations",
	Long:  `Show all available export adapters.`,
	RunE:  runExportList,
}

var exportTestCmd = &cobra.Command{
	Use:   "test [adapter]",
	Short: "Test export destinations",
	Long:  `Check that export destinations are reachable. With no argument every adapter is tested.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExportTest,
}

func init() {
	exportSelection.register(exportRunCmd.Flags())
	exportRunCmd.Flags().StringVar(&exportDest, "dest", "", "Export adapter (json, csv, xlsx, clickhouse)")
	exportRunCmd.Flags().StringVar(&exportFormat, "format", "", "Output format: json, jsonl, csv, xlsx (default from config)")
	exportRunCmd.Flags().StringVarP(&exportOutputPath, "output", "o", "", "Output file path (for file exports)")
	exportRunCmd.Flags().StringSliceVar(&exportCategories, "category", nil, "Only export these categories (repeatable)")
	exportRunCmd.Flags().BoolVar(&exportDryRun, "dry-run", false, "Preview without exporting")

	exportCmd.AddCommand(exportRunCmd)
	exportCmd.AddCommand(exportListCmd)
	exportCmd.AddCommand(exportTestCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	sel := exportSelection.selection()

	printSection("EXPORTING " + strings.ToUpper(sel.Key()))

	o, err := newOrchestrator(ctx)
	if err != nil {
		return err
	}
	defer o.Close()

	result, err := o.Export(ctx, sel.Key(), orchestrator.ExportOptions{
		Destination: exportDest,
		Format:      output.Format(exportFormat),
		OutputPath:  exportOutputPath,
		Categories:  exportCategories,
		DryRun:      exportDryRun,
	})
	if err != nil {
		return err
	}

	if exportDryRun {
		color.Yellow("  %s", result.Details)
		fmt.Println()
		return nil
	}

	successColor.Printf("  ✓ Exported %d items (%d rows)\n", result.ItemsExported, result.RowsWritten)
	fmt.Printf("  Destination: %s\n", result.Destination)
	fmt.Printf("  Took:        %s\n\n", result.CompletedAt.Sub(result.StartedAt).Round(time.Millisecond))

	return nil
}

func runExportList(cmd *cobra.Command, args []string) error {
	o, err := newOrchestrator(context.Background())
	if err != nil {
		return err
	}
	defer o.Close()

	printSection("EXPORT DESTINATIONS")

	table := newTable("Adapter", "Formats")
	for _, a := range o.Outputs().List() {
		formats := "-"
		if b, ok := a.(interface{ SupportedFormats() []output.Format }); ok && len(b.SupportedFormats()) > 0 {
			names := make([]string, 0, len(b.SupportedFormats()))
			for _, f := range b.SupportedFormats() {
				names = append(names, string(f))
			}
			formats = strings.Join(names, ", ")
		}
		table.Append([]string{a.Name(), formats})
	}
	table.Render()
	fmt.Println()

	return nil
}

func runExportTest(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	o, err := newOrchestrator(ctx)
	if err != nil {
		return err
	}
	defer o.Close()

	printSection("TESTING EXPORT DESTINATIONS")

	var results map[string]error
	if len(args) == 1 {
		adapter, err := o.Outputs().Get(args[0])
		if err != nil {
			return err
		}
		results = map[string]error{adapter.Name(): adapter.Test(ctx)}
	} else {
		results = o.Outputs().TestAll(ctx)
	}

	return printTestResults(results)
}
