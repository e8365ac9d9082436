package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage price list sources",
	Long:  `List and test the sources price lists are read from.`,
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available sources",
	RunE:  runSourcesList,
}

var sourcesTestCmd = &cobra.Command{
	Use:   "test [source]",
	Short: "Test a source",
	Long: `Check that a source is reachable and serves CSV for every list it knows.
With no argument every source is tested.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSourcesTest,
}

func init() {
	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesTestCmd)
}

func runSourcesList(cmd *cobra.Command, args []string) error {
	o, err := newOrchestrator(context.Background())
	if err != nil {
		return err
	}
	defer o.Close()

	printSection("AVAILABLE SOURCES")

	table := newTable("Name", "Default")
	for _, c := range o.Sources().List() {
		def := ""
		if c.Name() == appConfig.Defaults.Source {
			def = color.GreenString("✓")
		}
		table.Append([]string{c.Name(), def})
	}
	table.Render()
	fmt.Println()
	return nil
}

func runSourcesTest(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	o, err := newOrchestrator(ctx)
	if err != nil {
		return err
	}
	defer o.Close()

	printSection("TESTING SOURCES")

	var results map[string]error
	if len(args) == 1 {
		src, err := o.Sources().Get(args[0])
		if err != nil {
			return err
		}
		results = map[string]error{src.Name(): src.Test(ctx)}
	} else {
		results = o.Sources().TestAll(ctx)
	}

	return printTestResults(results)
}

// printTestResults reports one line per tested connector or adapter and
// fails when any of them failed
func printTestResults(results map[string]error) error {
	failed := 0
	for _, name := range sortedKeys(results) {
		if err := results[name]; err != nil {
			failed++
			color.Red("  ✗ %s: %v", name, err)
			continue
		}
		successColor.Printf("  ✓ %s\n", name)
	}
	fmt.Println()

	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(results))
	}
	return nil
}
