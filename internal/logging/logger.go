// Package logging configures the process-wide logrus logger used for
// diagnostics. User-facing CLI output goes through fatih/color instead.
package logging

import (
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Setup configures the standard logrus logger.
//
// Level values: "debug", "info", "warn", "error" (default: "warn")
// Format values: "text", "json" (default: "text")
//
// Diagnostics are written to stderr so command output on stdout stays clean.
func Setup(level, format string) {
	SetupWriter(os.Stderr, level, format)
}

// SetupWriter is Setup with an explicit destination
func SetupWriter(w io.Writer, level, format string) {
	log.SetOutput(w)
	log.SetLevel(ParseLevel(level))

	if strings.ToLower(format) == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{
			DisableTimestamp: true,
		})
	}
}

// ParseLevel converts a string log level to a logrus level
func ParseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.WarnLevel
	}
}

// WithList returns an entry that tags every line with the list key
func WithList(key string) *log.Entry {
	return log.WithField("list", key)
}
