package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/listops/listops/internal/parser"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigDir  = ".listops"
	DefaultConfigFile = "config.yaml"
)

// Config represents the application configuration
type Config struct {
	Sources  SourcesConfig  `yaml:"sources"`
	Outputs  OutputsConfig  `yaml:"outputs"`
	Database DatabaseConfig `yaml:"database,omitempty"`
	Parser   ParserConfig   `yaml:"parser"`
	Logging  LoggingConfig  `yaml:"logging"`
	State    StateConfig    `yaml:"state"`
	Defaults DefaultsConfig `yaml:"defaults,omitempty"`
}

// SourcesConfig contains configuration for all source connectors
type SourcesConfig struct {
	Sheets SheetsSourceConfig `yaml:"sheets"`
	File   FileSourceConfig   `yaml:"file"`
}

// SheetsSourceConfig holds the published spreadsheet CSV export URLs
type SheetsSourceConfig struct {
	URLs           map[string]string `yaml:"urls"`            // Keyed by list: mayorista, sm, sc, jujuy
	TimeoutSeconds int               `yaml:"timeout_seconds"` // Per request
	Retries        int               `yaml:"retries"`
	UserAgent      string            `yaml:"user_agent"`
}

// FileSourceConfig holds settings for reading local CSV exports
type FileSourceConfig struct {
	Dir string `yaml:"dir"` // Expects <dir>/<list key>.csv
}

// OutputsConfig contains configuration for all output adapters
type OutputsConfig struct {
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	File       FileOutputConfig `yaml:"file"`
	XLSX       XLSXOutputConfig `yaml:"xlsx"`
}

// ClickHouseConfig holds ClickHouse output settings
type ClickHouseConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Database    string `yaml:"database"`
	UsernameEnv string `yaml:"username_env"`
	PasswordEnv string `yaml:"password_env"`
	Secure      bool   `yaml:"secure"`
}

// FileOutputConfig holds file output settings
type FileOutputConfig struct {
	OutputDir string `yaml:"output_dir"`
	Pretty    bool   `yaml:"pretty"`
	Envelope  bool   `yaml:"envelope"` // Wrap JSON exports in the API response envelope
}

// XLSXOutputConfig holds spreadsheet export settings
type XLSXOutputConfig struct {
	Palette      map[string]string `yaml:"palette,omitempty"` // Category name -> hex colour
	DefaultColor string            `yaml:"default_color,omitempty"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Postgres   PostgresConfig     `yaml:"postgres"`
	ClickHouse ClickHouseDBConfig `yaml:"clickhouse"`
	UseDB      bool               `yaml:"use_db"` // Save every fetched catalog as a snapshot
}

// PostgresConfig holds PostgreSQL settings
type PostgresConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Database    string `yaml:"database"`
	UsernameEnv string `yaml:"username_env"`
	PasswordEnv string `yaml:"password_env"`
	SSLMode     string `yaml:"ssl_mode"`
}

// ClickHouseDBConfig holds ClickHouse database settings for analytics
type ClickHouseDBConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Database    string `yaml:"database"`
	UsernameEnv string `yaml:"username_env"`
	PasswordEnv string `yaml:"password_env"`
	Secure      bool   `yaml:"secure"`
}

// ParserConfig overrides the classifier vocabulary and column layout.
// A nil vocabulary or a zero layout means the built-in defaults.
type ParserConfig struct {
	Vocabulary *parser.Vocabulary `yaml:"vocabulary,omitempty"`
	Layout     *parser.Layout     `yaml:"layout,omitempty"`
}

// LoggingConfig holds diagnostic logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// StateConfig holds the local catalog cache location
type StateConfig struct {
	File string `yaml:"file"`
}

// DefaultsConfig holds default settings
type DefaultsConfig struct {
	Source       string `yaml:"source,omitempty"`        // sheets or file
	List         string `yaml:"list,omitempty"`          // Default list key
	ExportFormat string `yaml:"export_format,omitempty"` // json, csv, xlsx
	Concurrency  int    `yaml:"concurrency,omitempty"`   // Parallel list fetches
}

// DefaultSheetURLs are the published CSV exports for each list
func DefaultSheetURLs() map[string]string {
	return map[string]string{
		"mayorista": "https://docs.google.com/spreadsheets/d/17iVa59vBeEt3UF3mMdt1ztLXqDL5L2hNylnnJ8p4RQU/export?format=csv&gid=1909734028",
		"sm":        "https://docs.google.com/spreadsheets/d/1zQiK3ETwjhF3NYYqQ413JpPgOUbzr0mn5_tOy2SO92A/export?format=csv&gid=156663288",
		"sc":        "https://docs.google.com/spreadsheets/d/18VI6WJ3Q-howf2IPxGYt7I70BnRM-_msNoQpCiheZik/export?format=csv&gid=4376430",
		"jujuy":     "https://docs.google.com/spreadsheets/d/1NTApxbnNgv7ok9Z0upRhvD7u18WYKXfQLel29dVXqZ4/export?format=csv&gid=1147265019",
	}
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Sources: SourcesConfig{
			Sheets: SheetsSourceConfig{
				URLs:           DefaultSheetURLs(),
				TimeoutSeconds: 30,
				Retries:        2,
				UserAgent:      "listops/1.0",
			},
			File: FileSourceConfig{
				Dir: "./lists",
			},
		},
		Outputs: OutputsConfig{
			ClickHouse: ClickHouseConfig{
				Host:        "localhost",
				Port:        9000,
				Database:    "listops",
				UsernameEnv: "CLICKHOUSE_USERNAME",
				PasswordEnv: "CLICKHOUSE_PASSWORD",
			},
			File: FileOutputConfig{
				OutputDir: "./output",
				Pretty:    true,
				Envelope:  true,
			},
		},
		Database: DatabaseConfig{
			UseDB: false, // Disabled by default, use JSON state
			Postgres: PostgresConfig{
				Host:        "localhost",
				Port:        5432,
				Database:    "listops",
				UsernameEnv: "POSTGRES_USER",
				PasswordEnv: "POSTGRES_PASSWORD",
				SSLMode:     "prefer",
			},
			ClickHouse: ClickHouseDBConfig{
				Host:        "localhost",
				Port:        9000,
				Database:    "listops",
				UsernameEnv: "CLICKHOUSE_USERNAME",
				PasswordEnv: "CLICKHOUSE_PASSWORD",
				Secure:      false,
			},
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		State: StateConfig{
			File: "output/.listops-state.json",
		},
		Defaults: DefaultsConfig{
			Source:       "sheets",
			List:         "sm",
			ExportFormat: "json",
			Concurrency:  4,
		},
	}
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, DefaultConfigDir, DefaultConfigFile), nil
}

// Load reads the configuration from the config file
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	return LoadFrom(configPath)
}

// LoadFrom reads the configuration from a specific path
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return default config if file doesn't exist
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// A partial layout keeps the default index for every field it omits
	if config.Parser.Layout != nil {
		var overlay struct {
			Parser struct {
				Layout parser.Layout `yaml:"layout"`
			} `yaml:"parser"`
		}
		overlay.Parser.Layout = parser.DefaultLayout()
		if err := yaml.Unmarshal(data, &overlay); err != nil {
			return nil, fmt.Errorf("failed to parse parser layout: %w", err)
		}
		config.Parser.Layout = &overlay.Parser.Layout
	}

	// Apply defaults for missing values
	applyDefaults(&config)

	return &config, nil
}

// Save writes the configuration to the config file
func Save(config *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	return SaveTo(config, configPath)
}

// SaveTo writes the configuration to a specific path
func SaveTo(config *Config, path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Init creates a new config file with defaults
func Init() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}

	return Save(DefaultConfig())
}

// Exists checks if the config file exists
func Exists() bool {
	configPath, err := GetConfigPath()
	if err != nil {
		return false
	}

	_, err = os.Stat(configPath)
	return err == nil
}

// applyDefaults fills in missing values with defaults
func applyDefaults(config *Config) {
	defaults := DefaultConfig()

	// Sources
	if config.Sources.Sheets.URLs == nil {
		config.Sources.Sheets.URLs = map[string]string{}
	}
	for key, url := range defaults.Sources.Sheets.URLs {
		if config.Sources.Sheets.URLs[key] == "" {
			config.Sources.Sheets.URLs[key] = url
		}
	}
	if config.Sources.Sheets.TimeoutSeconds <= 0 {
		config.Sources.Sheets.TimeoutSeconds = defaults.Sources.Sheets.TimeoutSeconds
	}
	if config.Sources.Sheets.UserAgent == "" {
		config.Sources.Sheets.UserAgent = defaults.Sources.Sheets.UserAgent
	}
	if config.Sources.File.Dir == "" {
		config.Sources.File.Dir = defaults.Sources.File.Dir
	}

	// Outputs
	if config.Outputs.ClickHouse.Port == 0 {
		config.Outputs.ClickHouse.Port = defaults.Outputs.ClickHouse.Port
	}
	if config.Outputs.File.OutputDir == "" {
		config.Outputs.File.OutputDir = defaults.Outputs.File.OutputDir
	}

	// Database
	if config.Database.Postgres.Port == 0 {
		config.Database.Postgres.Port = defaults.Database.Postgres.Port
	}
	if config.Database.ClickHouse.Port == 0 {
		config.Database.ClickHouse.Port = defaults.Database.ClickHouse.Port
	}

	// Logging, state and defaults
	if config.Logging.Level == "" {
		config.Logging.Level = defaults.Logging.Level
	}
	if config.Logging.Format == "" {
		config.Logging.Format = defaults.Logging.Format
	}
	if config.State.File == "" {
		config.State.File = defaults.State.File
	}
	if config.Defaults.Source == "" {
		config.Defaults.Source = defaults.Defaults.Source
	}
	if config.Defaults.List == "" {
		config.Defaults.List = defaults.Defaults.List
	}
	if config.Defaults.ExportFormat == "" {
		config.Defaults.ExportFormat = defaults.Defaults.ExportFormat
	}
	if config.Defaults.Concurrency <= 0 {
		config.Defaults.Concurrency = defaults.Defaults.Concurrency
	}
}

// ParserOptions returns builder options for any configured overrides
func (c *Config) ParserOptions() []parser.Option {
	var opts []parser.Option
	if c.Parser.Vocabulary != nil {
		opts = append(opts, parser.WithVocabulary(mergeVocabulary(c.Parser.Vocabulary)))
	}
	if c.Parser.Layout != nil {
		opts = append(opts, parser.WithLayout(*c.Parser.Layout))
	}
	return opts
}

// mergeVocabulary fills the fields a partial override left empty
func mergeVocabulary(v *parser.Vocabulary) *parser.Vocabulary {
	out := parser.DefaultVocabulary()
	if len(v.Categories) > 0 {
		out.Categories = v.Categories
	}
	if v.Composite.Name != "" {
		out.Composite = v.Composite
	}
	if len(v.WholesaleColumns) > 0 {
		out.WholesaleColumns = v.WholesaleColumns
	}
	if len(v.DefaultColumns) > 0 {
		out.DefaultColumns = v.DefaultColumns
	}
	if v.InitialLabel != "" {
		out.InitialLabel = v.InitialLabel
	}
	if len(v.SkipTokens) > 0 {
		out.SkipTokens = v.SkipTokens
	}
	if v.DescriptionWord != "" {
		out.DescriptionWord = v.DescriptionWord
	}
	if v.ListMarker != "" {
		out.ListMarker = v.ListMarker
	}
	if v.ContactMarker != "" {
		out.ContactMarker = v.ContactMarker
	}
	if v.HeaderPattern != "" {
		out.HeaderPattern = v.HeaderPattern
	}
	return out
}

// Set updates a specific config value in the config file
func Set(key, value string) error {
	config, err := Load()
	if err != nil {
		return err
	}

	if err := config.SetValue(key, value); err != nil {
		return err
	}

	return Save(config)
}

// Get retrieves a specific config value from the config file
func Get(key string) (string, error) {
	config, err := Load()
	if err != nil {
		return "", err
	}

	return config.GetValue(key)
}

const sheetURLPrefix = "sources.sheets.urls."

// SetValue updates a value addressed by its dotted key
func (c *Config) SetValue(key, value string) error {
	if list, ok := strings.CutPrefix(key, sheetURLPrefix); ok && list != "" {
		if c.Sources.Sheets.URLs == nil {
			c.Sources.Sheets.URLs = map[string]string{}
		}
		c.Sources.Sheets.URLs[list] = value
		return nil
	}

	switch key {
	case "sources.sheets.timeout_seconds", "sources.sheets.retries", "defaults.concurrency":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		switch key {
		case "sources.sheets.timeout_seconds":
			c.Sources.Sheets.TimeoutSeconds = n
		case "sources.sheets.retries":
			c.Sources.Sheets.Retries = n
		default:
			c.Defaults.Concurrency = n
		}
	case "sources.sheets.user_agent":
		c.Sources.Sheets.UserAgent = value
	case "sources.file.dir":
		c.Sources.File.Dir = value
	case "outputs.file.output_dir":
		c.Outputs.File.OutputDir = value
	case "outputs.file.pretty":
		c.Outputs.File.Pretty = value == "true"
	case "outputs.file.envelope":
		c.Outputs.File.Envelope = value == "true"
	case "outputs.clickhouse.host":
		c.Outputs.ClickHouse.Host = value
	case "defaults.source":
		c.Defaults.Source = value
	case "defaults.list":
		c.Defaults.List = value
	case "defaults.export_format":
		c.Defaults.ExportFormat = value
	case "logging.level":
		c.Logging.Level = value
	case "logging.format":
		c.Logging.Format = value
	case "state.file":
		c.State.File = value
	case "database.use_db":
		c.Database.UseDB = value == "true"
	case "database.postgres.host":
		c.Database.Postgres.Host = value
	case "database.postgres.database":
		c.Database.Postgres.Database = value
	case "database.postgres.username_env":
		c.Database.Postgres.UsernameEnv = value
	case "database.postgres.password_env":
		c.Database.Postgres.PasswordEnv = value
	case "database.clickhouse.host":
		c.Database.ClickHouse.Host = value
	case "database.clickhouse.database":
		c.Database.ClickHouse.Database = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}

	return nil
}

// GetValue returns a value addressed by its dotted key
func (c *Config) GetValue(key string) (string, error) {
	if list, ok := strings.CutPrefix(key, sheetURLPrefix); ok && list != "" {
		url, exists := c.Sources.Sheets.URLs[list]
		if !exists {
			return "", fmt.Errorf("no sheet URL configured for list: %s", list)
		}
		return url, nil
	}

	switch key {
	case "sources.sheets.timeout_seconds":
		return strconv.Itoa(c.Sources.Sheets.TimeoutSeconds), nil
	case "sources.sheets.retries":
		return strconv.Itoa(c.Sources.Sheets.Retries), nil
	case "sources.sheets.user_agent":
		return c.Sources.Sheets.UserAgent, nil
	case "sources.file.dir":
		return c.Sources.File.Dir, nil
	case "outputs.file.output_dir":
		return c.Outputs.File.OutputDir, nil
	case "outputs.file.pretty":
		return strconv.FormatBool(c.Outputs.File.Pretty), nil
	case "outputs.file.envelope":
		return strconv.FormatBool(c.Outputs.File.Envelope), nil
	case "outputs.clickhouse.host":
		return c.Outputs.ClickHouse.Host, nil
	case "defaults.source":
		return c.Defaults.Source, nil
	case "defaults.list":
		return c.Defaults.List, nil
	case "defaults.export_format":
		return c.Defaults.ExportFormat, nil
	case "defaults.concurrency":
		return strconv.Itoa(c.Defaults.Concurrency), nil
	case "logging.level":
		return c.Logging.Level, nil
	case "logging.format":
		return c.Logging.Format, nil
	case "state.file":
		return c.State.File, nil
	case "database.use_db":
		return strconv.FormatBool(c.Database.UseDB), nil
	case "database.postgres.host":
		return c.Database.Postgres.Host, nil
	case "database.postgres.database":
		return c.Database.Postgres.Database, nil
	case "database.postgres.username_env":
		return c.Database.Postgres.UsernameEnv, nil
	case "database.postgres.password_env":
		return c.Database.Postgres.PasswordEnv, nil
	case "database.clickhouse.host":
		return c.Database.ClickHouse.Host, nil
	case "database.clickhouse.database":
		return c.Database.ClickHouse.Database, nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

// ListKeys returns the configured sheet list keys, sorted
func (c *Config) ListKeys() []string {
	keys := make([]string, 0, len(c.Sources.Sheets.URLs))
	for k := range c.Sources.Sheets.URLs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
