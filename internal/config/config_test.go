package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Defaults.List != "sm" {
		t.Errorf("Defaults.List = %q, want sm", cfg.Defaults.List)
	}
	if len(cfg.Sources.Sheets.URLs) != 4 {
		t.Errorf("expected 4 sheet URLs, got %d", len(cfg.Sources.Sheets.URLs))
	}
}

func TestSaveToLoadFromRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Sources.Sheets.URLs["sm"] = "http://localhost/sm.csv"
	cfg.Database.UseDB = true

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if loaded.Sources.Sheets.URLs["sm"] != "http://localhost/sm.csv" {
		t.Errorf("sm URL = %q", loaded.Sources.Sheets.URLs["sm"])
	}
	if !loaded.Database.UseDB {
		t.Error("UseDB not persisted")
	}
}

func TestLoadFromAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	partial := []byte("sources:\n  sheets:\n    urls:\n      sc: http://example/sc.csv\nlogging:\n  format: json\n")
	if err := os.WriteFile(path, partial, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Sources.Sheets.URLs["sc"] != "http://example/sc.csv" {
		t.Errorf("override lost: %q", cfg.Sources.Sheets.URLs["sc"])
	}
	if cfg.Sources.Sheets.URLs["mayorista"] == "" {
		t.Error("missing default URL for mayorista")
	}
	if cfg.Sources.Sheets.TimeoutSeconds != 30 {
		t.Errorf("TimeoutSeconds = %d, want 30", cfg.Sources.Sheets.TimeoutSeconds)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "warn" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Outputs.File.OutputDir != "./output" {
		t.Errorf("OutputDir = %q", cfg.Outputs.File.OutputDir)
	}
}

func TestLoadFromInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("sources: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestSetValueGetValue(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"sources.sheets.urls.jujuy", "http://example/jujuy.csv"},
		{"sources.sheets.urls.nueva", "http://example/nueva.csv"},
		{"sources.sheets.timeout_seconds", "5"},
		{"sources.file.dir", "/tmp/lists"},
		{"outputs.file.pretty", "false"},
		{"defaults.list", "sc"},
		{"defaults.concurrency", "2"},
		{"logging.level", "debug"},
		{"database.use_db", "true"},
		{"database.postgres.host", "db"},
	}

	cfg := DefaultConfig()
	for _, tt := range tests {
		if err := cfg.SetValue(tt.key, tt.value); err != nil {
			t.Fatalf("SetValue(%q) error = %v", tt.key, err)
		}
		got, err := cfg.GetValue(tt.key)
		if err != nil {
			t.Fatalf("GetValue(%q) error = %v", tt.key, err)
		}
		if got != tt.value {
			t.Errorf("GetValue(%q) = %q, want %q", tt.key, got, tt.value)
		}
	}
}

func TestSetValueErrors(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.SetValue("nope.key", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
	if err := cfg.SetValue("sources.sheets.timeout_seconds", "soon"); err == nil {
		t.Error("expected error for non-numeric timeout")
	}
	if _, err := cfg.GetValue("sources.sheets.urls.missing"); err == nil {
		t.Error("expected error for unconfigured list")
	}
}

func TestParserOptions(t *testing.T) {
	cfg := DefaultConfig()
	if n := len(cfg.ParserOptions()); n != 0 {
		t.Errorf("default config produced %d parser options", n)
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte("parser:\n  vocabulary:\n    categories: [FERRETERIA]\n  layout:\n    retail_price_start: 4\n")
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(cfg.ParserOptions()); n != 2 {
		t.Errorf("expected 2 parser options, got %d", n)
	}

	if cfg.Parser.Layout.RetailPriceStart != 4 || cfg.Parser.Layout.SecondaryCode != 5 {
		t.Errorf("partial layout not merged with defaults: %+v", *cfg.Parser.Layout)
	}

	merged := mergeVocabulary(cfg.Parser.Vocabulary)
	if len(merged.Categories) != 1 || merged.ContactMarker != "tel:" {
		t.Errorf("partial vocabulary not merged with defaults: %+v", merged)
	}
}
