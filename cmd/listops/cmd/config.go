package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/listops/listops/internal/config"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Initialize, view, and modify configuration settings.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	Long:  `Create a new configuration file with default settings.`,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display all configuration settings.`,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Set a specific configuration value.

Sheet URLs are set per list key, for example:
  listops config set sources.sheets.urls.sc https://docs.google.com/...`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get a configuration value",
	Long:  `Get a specific configuration value.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	printSection("INITIALIZING CONFIGURATION")

	if config.Exists() {
		configPath, _ := config.GetConfigPath()
		color.Yellow("  Configuration file already exists: %s", configPath)
		fmt.Println()
		return nil
	}

	if err := config.Init(); err != nil {
		return err
	}

	configPath, _ := config.GetConfigPath()
	successColor.Printf("  ✓ Created configuration file: %s\n", configPath)
	fmt.Println()

	color.Yellow("  Next steps:")
	fmt.Println("    1. Check the published sheet URLs:")
	fmt.Println("       listops config get sources.sheets.urls.sm")
	fmt.Println()
	fmt.Println("    2. Set database credentials (optional):")
	fmt.Println("       export POSTGRES_USER=your_username")
	fmt.Println("       export POSTGRES_PASSWORD=your_password")
	fmt.Println()
	fmt.Println("    3. Fetch every list:")
	fmt.Println("       listops fetch")
	fmt.Println()

	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	printSection("CURRENT CONFIGURATION")

	cfg := appConfig

	configPath, _ := config.GetConfigPath()
	if config.Exists() {
		color.Yellow("  Config file: %s\n\n", configPath)
	} else {
		color.Yellow("  Using default configuration (no config file)\n\n")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	fmt.Println("  " + strings.ReplaceAll(string(data), "\n", "\n  "))
	fmt.Println()

	printSection("SHEET URLS")
	keys := make([]string, 0, len(cfg.Sources.Sheets.URLs))
	for k := range cfg.Sources.Sheets.URLs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	urls := newTable("List", "URL")
	for _, k := range keys {
		urls.Append([]string{k, truncate(cfg.Sources.Sheets.URLs[k], 80)})
	}
	urls.Render()
	fmt.Println()

	printSection("ENVIRONMENT VARIABLES")

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Variable", "Status"})
	table.SetBorder(false)
	table.SetHeaderColor(
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
	)

	envVars := []struct {
		name    string
		envName string
	}{
		{"PostgreSQL Username", cfg.Database.Postgres.UsernameEnv},
		{"PostgreSQL Password", cfg.Database.Postgres.PasswordEnv},
		{"ClickHouse Username", cfg.Database.ClickHouse.UsernameEnv},
		{"ClickHouse Password", cfg.Database.ClickHouse.PasswordEnv},
	}

	for _, ev := range envVars {
		status := color.RedString("not set")
		if os.Getenv(ev.envName) != "" {
			status = color.GreenString("set")
		}
		table.Append([]string{ev.name + " (" + ev.envName + ")", status})
	}

	table.Render()
	fmt.Println()

	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	if err := config.Set(key, value); err != nil {
		return err
	}

	color.Green("  ✓ Set %s = %s", key, value)
	fmt.Println()
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	value, err := config.Get(key)
	if err != nil {
		return err
	}

	fmt.Printf("  %s = %s\n", key, value)
	fmt.Println()
	return nil
}
