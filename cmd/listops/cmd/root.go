package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/listops/listops/internal/config"
	"github.com/listops/listops/internal/logging"
	"github.com/spf13/cobra"
)

var (
	appConfig *config.Config
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "listops",
	Short: "Price list operations terminal",
	Long: color.New(color.FgCyan, color.Bold).Sprint(`
  _ _     _
 | (_)___| |_ ___  _ __  ___
 | | / __| __/ _ \| '_ \/ __|
 | | \__ \ || (_) | |_) \__ \
 |_|_|___/\__\___/| .__/|___/
                  |_|
`) + `
Price list operations terminal

Parse the published wholesale and retail price sheets into a catalog of
categories, brands and items, then search, export and track them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		appConfig = cfg

		level := cfg.Logging.Level
		if logLevel != "" {
			level = logLevel
		}
		format := cfg.Logging.Format
		if logFormat != "" {
			format = logFormat
		}
		logging.Setup(level, format)
		return nil
	},
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		color.Red("  Error: %v", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json (default from config)")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(analyticsCmd)
}
