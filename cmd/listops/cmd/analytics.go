package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/listops/listops/internal/database/clickhouse"
	"github.com/listops/listops/internal/state"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Price history analytics",
	Long:  "Commands for tracking how list prices move over time in ClickHouse",
}

var analyticsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize analytics database",
	Long:  "Creates the ClickHouse price history table and daily materialized view",
	RunE:  runAnalyticsInit,
}

var analyticsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show analytics tables and sync lag",
	RunE:  runAnalyticsStatus,
}

var analyticsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync snapshots to ClickHouse",
	Long:  "Copies stored PostgreSQL snapshots into the ClickHouse price history",
	RunE:  runAnalyticsSync,
}

var analyticsChangesCmd = &cobra.Command{
	Use:   "changes [list]",
	Short: "Show price changes",
	Long:  "Lists the items of a list whose price moved during the period, biggest move first",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnalyticsChanges,
}

var analyticsTrendsCmd = &cobra.Command{
	Use:   "trends <code>",
	Short: "Show the daily price range of an item",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyticsTrends,
}

var (
	analyticsPeriod   string
	analyticsLimit    int
	analyticsList     string
	analyticsSyncDays int
	analyticsSyncAll  bool
)

func init() {
	analyticsCmd.AddCommand(analyticsInitCmd)
	analyticsCmd.AddCommand(analyticsStatusCmd)
	analyticsCmd.AddCommand(analyticsSyncCmd)
	analyticsCmd.AddCommand(analyticsChangesCmd)
	analyticsCmd.AddCommand(analyticsTrendsCmd)

	analyticsChangesCmd.Flags().StringVar(&analyticsPeriod, "period", "30d", "Time period (e.g., 7d, 30d, 12w)")
	analyticsChangesCmd.Flags().IntVar(&analyticsLimit, "limit", 50, "Maximum changes to show")

	analyticsTrendsCmd.Flags().StringVar(&analyticsPeriod, "period", "30d", "Time period (e.g., 7d, 30d, 12w)")
	analyticsTrendsCmd.Flags().StringVar(&analyticsList, "list", "", "List key (default from config)")

	analyticsSyncCmd.Flags().IntVar(&analyticsSyncDays, "days", 0, "Sync last N days (0 = incremental)")
	analyticsSyncCmd.Flags().BoolVar(&analyticsSyncAll, "all", false, "Sync all stored snapshots")
}

// getClickHouseClient creates a ClickHouse client from configuration
func getClickHouseClient() *clickhouse.Client {
	ch := appConfig.Database.ClickHouse
	return clickhouse.NewClient(clickhouse.ConfigFrom(ch.Host, ch.Port, ch.Database, ch.Secure, ch.UsernameEnv, ch.PasswordEnv))
}

func connectClickHouse(ctx context.Context) (*clickhouse.Client, error) {
	client := getClickHouseClient()
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	return client, nil
}

// parsePeriod turns "7d" or "4w" into days. Bare numbers are days; anything
// unparseable falls back to 30.
func parsePeriod(period string) int {
	period = strings.ToLower(strings.TrimSpace(period))
	mult := 1
	switch {
	case strings.HasSuffix(period, "w"):
		mult = 7
		period = strings.TrimSuffix(period, "w")
	case strings.HasSuffix(period, "d"):
		period = strings.TrimSuffix(period, "d")
	}

	n, err := strconv.Atoi(period)
	if err != nil || n <= 0 {
		return 30
	}
	return n * mult
}

func runAnalyticsInit(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	fmt.Println("Connecting to ClickHouse...")
	client, err := connectClickHouse(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	color.Green("✓ Connected")

	fmt.Println("Creating tables...")
	if err := client.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	tables, err := client.GetTableInfo(ctx)
	if err != nil {
		return fmt.Errorf("failed to get table info: %w", err)
	}

	fmt.Println("\nTables:")
	for _, t := range tables {
		fmt.Printf("  • %s (%s)\n", t.Name, t.Engine)
	}

	color.Green("\n✓ Analytics database ready")
	return nil
}

func runAnalyticsStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	chClient, err := connectClickHouse(ctx)
	if err != nil {
		color.Red("✗ %v", err)
		return nil
	}
	defer chClient.Close()

	color.Green("✓ Connected to ClickHouse")

	size, err := chClient.GetDatabaseSize(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("  Database size: %.1f MB\n", float64(size)/1024/1024)

	tables, err := chClient.GetTableInfo(ctx)
	if err != nil {
		return fmt.Errorf("failed to get table info: %w", err)
	}
	if len(tables) > 0 {
		fmt.Println("\n" + color.CyanString("Tables"))
		table := newTable("Table", "Engine", "Rows", "Size")
		for _, t := range tables {
			table.Append([]string{t.Name, t.Engine, fmt.Sprintf("%d", t.Rows), fmt.Sprintf("%.1f MB", float64(t.BytesSize)/1024/1024)})
		}
		table.Render()
	}

	pgClient, err := connectDB(ctx)
	if err != nil {
		color.Yellow("\nSync lag unavailable: %v", err)
		return nil
	}
	defer pgClient.Close()

	stats, err := clickhouse.NewSyncer(pgClient, chClient, defaultColumns()).GetSyncStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get sync stats: %w", err)
	}

	fmt.Println("\n" + color.CyanString("Sync"))
	fmt.Printf("  Snapshots:      %d (%s to %s)\n", stats.TotalSnapshots, formatTime(stats.OldestSnapshot), formatTime(stats.NewestSnapshot))
	fmt.Printf("  Observations:   %d (%s to %s)\n", stats.TotalCHRecords, formatTime(stats.OldestCHRecord), formatTime(stats.NewestCHRecord))
	if stats.NewestSnapshot.After(stats.NewestCHRecord) {
		color.Yellow("\n  ClickHouse is behind; run 'listops analytics sync'")
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func runAnalyticsSync(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	pgClient, err := connectDB(ctx)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	chClient, err := connectClickHouse(ctx)
	if err != nil {
		return err
	}
	defer chClient.Close()

	syncer := clickhouse.NewSyncer(pgClient, chClient, defaultColumns())

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("  Syncing snapshots"),
		progressbar.OptionSpinnerType(14),
	)

	var result *clickhouse.SyncResult
	switch {
	case analyticsSyncAll:
		result, err = syncer.SyncAll(ctx)
	case analyticsSyncDays > 0:
		result, err = syncer.SyncRecent(ctx, analyticsSyncDays)
	default:
		result, err = syncer.SyncIncremental(ctx)
	}
	bar.Finish()
	fmt.Println()

	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	color.Green("✓ Synced %d snapshots (%d observations) in %s",
		result.SnapshotsSynced, result.RecordsSynced, result.EndTime.Sub(result.StartTime).Round(time.Millisecond))

	for _, e := range result.Errors {
		color.Yellow("  %s", e)
	}

	store := state.NewStore(appConfig.State.File)
	if err := store.Load(); err == nil {
		store.AddHistory("sync", "clickhouse", result.RecordsSynced,
			fmt.Sprintf("%d snapshots synced", result.SnapshotsSynced))
		if err := store.Save(); err != nil {
			color.Yellow("  Warning: failed to save state: %v", err)
		}
	}

	if len(result.Errors) > 0 {
		return fmt.Errorf("%d batches failed", len(result.Errors))
	}
	return nil
}

func runAnalyticsChanges(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	key := appConfig.Defaults.List
	if len(args) == 1 {
		key = strings.ToLower(args[0])
	}
	days := parsePeriod(analyticsPeriod)

	client, err := connectClickHouse(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	changes, err := client.GetPriceChanges(ctx, key, days, analyticsLimit)
	if err != nil {
		return fmt.Errorf("failed to get price changes: %w", err)
	}

	if len(changes) == 0 {
		color.Yellow("No price changes in %s over the last %d days", key, days)
		fmt.Println("\nEnsure snapshots are synced to ClickHouse:")
		fmt.Println("  listops analytics sync --all")
		return nil
	}

	printSection(fmt.Sprintf("PRICE CHANGES: %s (last %d days)", strings.ToUpper(key), days))
	table := newTable("Code", "Description", "Column", "Before", "Now", "Change", "Since")
	for _, c := range changes {
		change := fmt.Sprintf("%.1f%%", c.DiffPercent)
		if c.DiffPercent > 0 {
			change = color.RedString("+%.1f%%", c.DiffPercent)
		} else if c.DiffPercent < 0 {
			change = color.GreenString("%.1f%%", c.DiffPercent)
		}

		first, last := c.FirstPrice, c.LastPrice
		table.Append([]string{
			c.ItemCode,
			truncate(c.Description, 36),
			truncate(c.ColumnLabel, 16),
			displayPrice(&first),
			displayPrice(&last),
			change,
			formatTime(c.FirstSeen),
		})
	}
	table.Render()
	return nil
}

func runAnalyticsTrends(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	key := strings.ToLower(analyticsList)
	if key == "" {
		key = appConfig.Defaults.List
	}
	code := strings.TrimSpace(args[0])
	days := parsePeriod(analyticsPeriod)

	client, err := connectClickHouse(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	trends, err := client.GetPriceTrends(ctx, key, code, days)
	if err != nil {
		return fmt.Errorf("failed to get trends: %w", err)
	}

	if len(trends) == 0 {
		color.Yellow("No observations of %s in %s over the last %d days", code, key, days)
		return nil
	}

	printSection(fmt.Sprintf("PRICE TREND: %s in %s (last %d days)", code, strings.ToUpper(key), days))
	table := newTable("Date", "Column", "Min", "Max", "Observations")
	for _, t := range trends {
		minPrice, maxPrice := t.MinPrice, t.MaxPrice
		table.Append([]string{
			t.Date.Format("2006-01-02"),
			fmt.Sprintf("%d", t.PriceColumn),
			displayPrice(&minPrice),
			displayPrice(&maxPrice),
			fmt.Sprintf("%d", t.Count),
		})
	}
	table.Render()
	return nil
}
