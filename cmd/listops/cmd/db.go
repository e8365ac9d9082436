package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/listops/listops/internal/database"
	"github.com/listops/listops/internal/database/postgres"
	"github.com/listops/listops/internal/state"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database management commands",
	Long:  "Commands for managing the PostgreSQL snapshot store",
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the database schema",
	Long:  "Creates the snapshot, item and history tables in the PostgreSQL database",
	RunE:  runDBInit,
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database status",
	Long:  "Shows connection status, table counts, and database health information",
	RunE:  runDBStatus,
}

var dbSaveCmd = &cobra.Command{
	Use:   "save [list...]",
	Short: "Save cached lists as snapshots",
	Long: `Stores the cached catalogs as PostgreSQL snapshots.

With no arguments every cached list is saved. Each snapshot keeps the full
catalog and one row per item so prices can be queried directly.`,
	RunE: runDBSave,
}

var dbSnapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List stored snapshots",
	RunE:  runDBSnapshots,
}

var dbItemsCmd = &cobra.Command{
	Use:   "items <snapshot-id>",
	Short: "Show the items of a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runDBItems,
}

var dbRestoreCmd = &cobra.Command{
	Use:   "restore <list>",
	Short: "Restore the latest snapshot of a list into the local cache",
	Args:  cobra.ExactArgs(1),
	RunE:  runDBRestore,
}

var dbRollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Roll back the last schema migration",
	Long:  "Reverts the most recent migration. Rolling back the first one drops every listops table.",
	RunE:  runDBRollback,
}

var dbHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the operation history stored in the database",
	RunE:  runDBHistory,
}

var (
	dbListFilter   string
	dbLimit        int
	dbActionFilter string
	dbRollbackYes  bool
)

func init() {
	dbCmd.AddCommand(dbInitCmd)
	dbCmd.AddCommand(dbStatusCmd)
	dbCmd.AddCommand(dbSaveCmd)
	dbCmd.AddCommand(dbSnapshotsCmd)
	dbCmd.AddCommand(dbItemsCmd)
	dbCmd.AddCommand(dbRestoreCmd)
	dbCmd.AddCommand(dbHistoryCmd)
	dbCmd.AddCommand(dbRollbackCmd)

	dbSnapshotsCmd.Flags().StringVar(&dbListFilter, "list", "", "Only snapshots of this list")
	dbSnapshotsCmd.Flags().IntVar(&dbLimit, "limit", 20, "Maximum snapshots to show")

	dbItemsCmd.Flags().IntVar(&dbLimit, "limit", 50, "Maximum items to show (0 = all)")

	dbHistoryCmd.Flags().IntVar(&dbLimit, "limit", 20, "Maximum entries to show")
	dbHistoryCmd.Flags().StringVar(&dbActionFilter, "action", "", "Only entries for this action (save, restore, sync)")

	dbRollbackCmd.Flags().BoolVar(&dbRollbackYes, "yes", false, "Confirm the rollback")
}

// getDBClient creates a PostgreSQL client from configuration
func getDBClient() (*postgres.Client, error) {
	pg := appConfig.Database.Postgres
	pgConfig := postgres.ConfigFrom(pg.Host, pg.Port, pg.Database, pg.SSLMode, pg.UsernameEnv, pg.PasswordEnv)

	if pgConfig.Username == "" {
		return nil, fmt.Errorf("PostgreSQL username not set. Set the %s environment variable", pg.UsernameEnv)
	}

	return postgres.NewClient(pgConfig), nil
}

// connectDB returns a connected client; the caller closes it
func connectDB(ctx context.Context) (*postgres.Client, error) {
	client, err := getDBClient()
	if err != nil {
		return nil, err
	}
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	return client, nil
}

func runDBInit(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	fmt.Println("Connecting to PostgreSQL...")
	client, err := connectDB(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	color.Green("✓ Connected to database")

	fmt.Println("Running migrations...")
	if err := client.RunMigrations(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	color.Green("✓ Database schema initialized")

	version, dirty, err := client.MigrationVersion()
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	fmt.Printf("\nMigration version: %d", version)
	if dirty {
		color.Yellow(" (dirty)")
	}
	fmt.Println()

	stats, err := client.GetTableStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get table stats: %w", err)
	}

	fmt.Println("\nTables:")
	for _, s := range stats {
		fmt.Printf("  • %s\n", s.TableName)
	}

	color.Green("\n✓ Database initialization complete")
	fmt.Println("\nTo save a snapshot on every fetch, run:")
	fmt.Println("  listops config set database.use_db true")
	return nil
}

func runDBStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Println("Checking database connection...")
	client, err := connectDB(ctx)
	if err != nil {
		color.Red("✗ %v", err)
		return nil
	}
	defer client.Close()

	color.Green("✓ Connected")

	info, err := client.GetDatabaseInfo(ctx)
	if err != nil {
		return fmt.Errorf("failed to get database info: %w", err)
	}

	fmt.Println("\n" + color.CyanString("Database Information"))
	fmt.Printf("  Database:    %s\n", info.DatabaseName)
	fmt.Printf("  Size:        %s\n", info.DatabaseSize)
	fmt.Printf("  Connections: %d/%d\n", info.ConnectionsNow, info.ConnectionsMax)

	version, dirty, err := client.MigrationVersion()
	if err != nil || version == 0 {
		fmt.Printf("  Migration:   %s\n", color.YellowString("not initialized"))
	} else {
		status := fmt.Sprintf("v%d", version)
		if dirty {
			status += color.YellowString(" (dirty)")
		}
		fmt.Printf("  Migration:   %s\n", status)
	}

	stats, err := client.GetTableStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get table stats: %w", err)
	}

	if len(stats) > 0 {
		fmt.Println("\n" + color.CyanString("Table Statistics"))
		table := newTable("Table", "Rows", "Size")
		for _, s := range stats {
			table.Append([]string{s.TableName, fmt.Sprintf("%d", s.RowCount), s.Size})
		}
		table.Render()
	}

	if poolStats := client.Stats(); poolStats != nil {
		fmt.Println("\n" + color.CyanString("Connection Pool"))
		fmt.Printf("  Total conns:      %d\n", poolStats.TotalConns())
		fmt.Printf("  Idle conns:       %d\n", poolStats.IdleConns())
		fmt.Printf("  Acquired conns:   %d\n", poolStats.AcquiredConns())
	}

	return nil
}

// saveSnapshots stores cached lists and logs one history entry per list.
// It keeps going after a failed list and returns the joined errors.
func saveSnapshots(ctx context.Context, client *postgres.Client, entries []*state.CachedList) (int, error) {
	snapshots := postgres.NewSnapshotRepo(client)
	history := postgres.NewHistoryRepo(client)

	var errs []error
	saved := 0
	for _, entry := range entries {
		snap := database.NewSnapshot(entry.Key, entry.Mode, entry.Branch, entry.Catalog, entry.FetchedAt)

		// Logged before the save so a failed save leaves an open entry
		op := &database.OperationHistory{
			Action:  "save",
			Source:  entry.Key,
			Count:   snap.ItemCount,
			Details: fmt.Sprintf("snapshot %s from %s", snap.ID, entry.Origin),
		}
		if err := history.Add(ctx, op); err != nil {
			errs = append(errs, fmt.Errorf("%s: failed to record history: %w", entry.Key, err))
			continue
		}

		if err := snapshots.Save(ctx, snap); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", entry.Key, err))
			continue
		}
		saved++

		if err := history.MarkCompleted(ctx, op.ID); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", entry.Key, err))
		}
	}
	return saved, errors.Join(errs...)
}

func runDBSave(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store := state.NewStore(appConfig.State.File)
	if err := store.Load(); err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	keys := args
	if len(keys) == 0 {
		keys = store.Keys()
	}
	if len(keys) == 0 {
		color.Yellow("No cached lists found; run 'listops fetch' first")
		return nil
	}

	var entries []*state.CachedList
	for _, key := range keys {
		entry, ok := store.Get(strings.ToLower(key))
		if !ok {
			return fmt.Errorf("list %q is not cached", key)
		}
		entries = append(entries, entry)
	}

	client, err := connectDB(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	saved, err := saveSnapshots(ctx, client, entries)
	if saved > 0 {
		color.Green("✓ Saved %d/%d snapshots", saved, len(entries))
	}
	return err
}

func runDBSnapshots(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := connectDB(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	repo := postgres.NewSnapshotRepo(client)
	snaps, err := repo.List(ctx, strings.ToLower(dbListFilter), dbLimit)
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	if len(snaps) == 0 {
		color.Yellow("No snapshots stored")
		return nil
	}

	total, err := repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count snapshots: %w", err)
	}

	printSection(fmt.Sprintf("SNAPSHOTS (%d of %d)", len(snaps), total))
	table := newTable("ID", "List", "Updated", "Categories", "Items", "Fetched")
	for _, s := range snaps {
		table.Append([]string{
			s.ID.String(),
			s.ListKey,
			truncate(s.UpdatedAt, 30),
			fmt.Sprintf("%d", s.CategoryCount),
			fmt.Sprintf("%d", s.ItemCount),
			s.FetchedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	table.Render()
	return nil
}

func runDBItems(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid snapshot id %q: %w", args[0], err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := connectDB(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	items, err := postgres.NewSnapshotRepo(client).Items(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load items: %w", err)
	}
	if len(items) == 0 {
		color.Yellow("Snapshot %s has no items", id)
		return nil
	}

	shown := items
	if dbLimit > 0 && len(shown) > dbLimit {
		shown = shown[:dbLimit]
	}

	table := newTable("#", "Category", "Brand", "Code", "Description", "P1", "P2", "P3", "P4", "P5")
	for _, it := range shown {
		row := []string{
			fmt.Sprintf("%d", it.Position),
			truncate(it.Category, 20),
			truncate(it.Brand, 16),
			it.Code,
			truncate(it.Description, 36),
		}
		for _, p := range it.Prices {
			row = append(row, displayPrice(p))
		}
		table.Append(row)
	}
	table.Render()

	if len(shown) < len(items) {
		infoColor.Printf("\n  Showing %d of %d items (use --limit 0 for all)\n", len(shown), len(items))
	}
	return nil
}

func runDBRestore(cmd *cobra.Command, args []string) error {
	key := strings.ToLower(args[0])

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := connectDB(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	snap, err := postgres.NewSnapshotRepo(client).Latest(ctx, key)
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("no snapshot stored for %q", key)
	}
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	store := state.NewStore(appConfig.State.File)
	if err := store.Load(); err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	store.Put(&state.CachedList{
		Key:       snap.ListKey,
		Mode:      snap.Mode,
		Branch:    snap.Branch,
		Origin:    "postgres:" + snap.ID.String(),
		FetchedAt: snap.FetchedAt,
		Catalog:   snap.Catalog,
	})
	store.AddHistory("restore", snap.ListKey, snap.ItemCount, "from snapshot "+snap.ID.String())
	if err := store.Save(); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	color.Green("✓ Restored %s (%d items, fetched %s)", snap.ListKey, snap.ItemCount,
		snap.FetchedAt.Local().Format("2006-01-02 15:04"))
	return nil
}

func runDBHistory(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := connectDB(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	repo := postgres.NewHistoryRepo(client)
	var entries []*database.OperationHistory
	if dbActionFilter != "" {
		entries, err = repo.GetByAction(ctx, dbActionFilter, dbLimit)
	} else {
		entries, err = repo.GetRecent(ctx, dbLimit)
	}
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	if len(entries) == 0 {
		color.Yellow("No history recorded")
		return nil
	}

	table := newTable("Started", "Action", "Source", "Count", "Done", "Details")
	for _, h := range entries {
		done := color.YellowString("open")
		if h.CompletedAt != nil {
			done = successColor.Sprint("✓")
		}
		table.Append([]string{
			h.StartedAt.Local().Format("2006-01-02 15:04"),
			h.Action,
			h.Source,
			fmt.Sprintf("%d", h.Count),
			done,
			truncate(h.Details, 50),
		})
	}
	table.Render()
	return nil
}

func runDBRollback(cmd *cobra.Command, args []string) error {
	if !dbRollbackYes {
		color.Yellow("This reverts the last migration and may drop stored snapshots.")
		fmt.Println("Run again with --yes to confirm.")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := connectDB(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	before, _, err := client.MigrationVersion()
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	if before == 0 {
		color.Yellow("No migrations applied")
		return nil
	}

	if err := client.RollbackMigration(); err != nil {
		return err
	}

	after, _, err := client.MigrationVersion()
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	color.Green("✓ Rolled back migration v%d (now v%d)", before, after)
	return nil
}
