package cmd

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/listops/listops/internal/lists"
	"github.com/listops/listops/internal/orchestrator"
	"github.com/listops/listops/internal/state"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	fetchSource      string
	fetchConcurrency int
	fetchTimeout     time.Duration
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [list...]",
	Short: "Fetch and parse published price lists",
	Long: `Download the published price lists, parse them and cache the catalogs.

With no arguments every known list is fetched: mayorista, sm, sc and jujuy.
Lists are fetched concurrently; one failing list does not stop the others.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchSource, "source", "", "Source to read from: sheets or file (default from config)")
	fetchCmd.Flags().IntVar(&fetchConcurrency, "concurrency", 0, "Lists fetched in parallel (default from config)")
	fetchCmd.Flags().DurationVar(&fetchTimeout, "timeout", 2*time.Minute, "Overall timeout")
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	var selections []lists.Selection
	for _, key := range args {
		selections = append(selections, lists.FromKey(strings.ToLower(key)))
	}
	if len(selections) == 0 {
		selections = lists.All()
	}

	o, err := newOrchestrator(ctx)
	if err != nil {
		return err
	}
	defer o.Close()

	printSection("FETCHING PRICE LISTS")

	bar := progressbar.NewOptions(len(selections),
		progressbar.OptionSetDescription("  Fetching lists"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.GreenString("█"),
			SaucerHead:    color.GreenString("█"),
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionShowCount(),
	)
	var barMu sync.Mutex

	results, fetchErr := o.FetchAll(ctx, orchestrator.FetchOptions{
		Source:      fetchSource,
		Selections:  selections,
		Concurrency: fetchConcurrency,
		Remember:    true,
		Progress: func(r *orchestrator.ListResult) {
			barMu.Lock()
			defer barMu.Unlock()
			bar.Describe("  Fetched " + r.Selection.Key())
			bar.Add(1)
		},
	})
	fmt.Println()
	fmt.Println()

	if results == nil {
		return fetchErr
	}

	table := newTable("List", "Mode", "Categories", "Items", "Faults", "Size", "Time", "Status")
	ok := 0
	for _, r := range results {
		if r.Error != nil {
			table.Append([]string{r.Selection.Key(), string(r.Selection.Mode), "-", "-", "-", "-",
				r.Duration.Round(time.Millisecond).String(), color.RedString(truncate(r.Error.Error(), 50))})
			continue
		}
		ok++
		stats := r.Catalog.Stats()
		table.Append([]string{
			r.Selection.Key(),
			string(r.Selection.Mode),
			fmt.Sprintf("%d", stats.Categories),
			fmt.Sprintf("%d", stats.Items),
			fmt.Sprintf("%d", len(r.Report.Faults)),
			fmt.Sprintf("%.1f KB", float64(r.Bytes)/1024),
			r.Duration.Round(time.Millisecond).String(),
			color.GreenString("ok"),
		})
	}
	table.Render()
	fmt.Println()

	if ok > 0 {
		successColor.Printf("  ✓ Cached %d/%d lists in %s\n\n", ok, len(results), o.Store().Path())
	}

	if appConfig.Database.UseDB && ok > 0 {
		if err := snapshotFetched(ctx, o, results); err != nil {
			color.Yellow("  Warning: %v\n", err)
		}
	}
	return fetchErr
}

// snapshotFetched saves every successfully fetched list to PostgreSQL
func snapshotFetched(ctx context.Context, o *orchestrator.Orchestrator, results []*orchestrator.ListResult) error {
	var entries []*state.CachedList
	for _, r := range results {
		if r.Error != nil {
			continue
		}
		if entry, found := o.Store().Get(r.Selection.Key()); found {
			entries = append(entries, entry)
		}
	}

	client, err := connectDB(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	saved, err := saveSnapshots(ctx, client, entries)
	if saved > 0 {
		successColor.Printf("  ✓ Saved %d snapshots to PostgreSQL\n\n", saved)
	}
	return err
}
