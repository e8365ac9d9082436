package logging

import (
	"bytes"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]log.Level{
		"debug":   log.DebugLevel,
		"INFO":    log.InfoLevel,
		"warn":    log.WarnLevel,
		"warning": log.WarnLevel,
		"error":   log.ErrorLevel,
		"":        log.WarnLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSetupWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "info", "json")
	defer SetupWriter(&bytes.Buffer{}, "warn", "text")

	WithList("sc").Info("fetched")

	out := buf.String()
	if !strings.Contains(out, `"list":"sc"`) || !strings.Contains(out, `"msg":"fetched"`) {
		t.Errorf("unexpected json log line: %s", out)
	}
}

func TestSetupWriterFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "error", "text")
	defer SetupWriter(&bytes.Buffer{}, "warn", "text")

	log.Warn("hidden")
	if buf.Len() != 0 {
		t.Errorf("warn line written at error level: %s", buf.String())
	}
}
