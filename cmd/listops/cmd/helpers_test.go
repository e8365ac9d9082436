package cmd

import (
	"errors"
	"reflect"
	"testing"

	"github.com/listops/listops/internal/config"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"7d", 7},
		{"30d", 30},
		{"2w", 14},
		{"10", 10},
		{" 90D ", 90},
		{"", 30},
		{"abc", 30},
		{"-5d", 30},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parsePeriod(tt.in); got != tt.want {
				t.Errorf("parsePeriod(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"ALIMENTO", 20, "ALIMENTO"},
		{"ALIMENTO", 8, "ALIMENTO"},
		{"ALIMENTO", 5, "ALIM…"},
		{"AÑEJADO", 4, "AÑE…"},
	}

	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestSelectionFlags(t *testing.T) {
	appConfig = config.DefaultConfig()
	t.Cleanup(func() { appConfig = nil })

	tests := []struct {
		name  string
		flags selectionFlags
		want  string
	}{
		{"default from config", selectionFlags{}, "sm"},
		{"explicit key", selectionFlags{list: "JUJUY"}, "jujuy"},
		{"wholesale", selectionFlags{lista: "mayorista"}, "mayorista"},
		{"retail branch alias", selectionFlags{lista: "minorista", sucursal: "santo-cristo"}, "sc"},
		{"key wins over pair", selectionFlags{list: "sm", lista: "mayorista"}, "sm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.flags.selection().Key(); got != tt.want {
				t.Errorf("selection().Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDisplayPrice(t *testing.T) {
	if got := displayPrice(nil); got != "-" {
		t.Errorf("displayPrice(nil) = %q, want -", got)
	}
	p := 1250.0
	if got := displayPrice(&p); got == "-" || got[:2] != "$ " {
		t.Errorf("displayPrice(1250) = %q, want a $ prefixed price", got)
	}
}

func TestSortedKeys(t *testing.T) {
	got := sortedKeys(map[string]error{"sheets": nil, "file": nil, "clickhouse": nil})
	if want := []string{"clickhouse", "file", "sheets"}; !reflect.DeepEqual(got, want) {
		t.Errorf("sortedKeys() = %v, want %v", got, want)
	}
}

func TestPrintTestResults(t *testing.T) {
	if err := printTestResults(map[string]error{"file": nil, "sheets": nil}); err != nil {
		t.Errorf("all passing: error = %v", err)
	}
	if err := printTestResults(map[string]error{"file": nil, "sheets": errors.New("offline")}); err == nil {
		t.Error("one failing: expected error")
	}
}
