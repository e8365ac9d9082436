package parser

import (
	"regexp"
	"strings"
)

var lineBreak = regexp.MustCompile(`\r?\n`)

// SplitLines splits raw export text on LF or CRLF terminators
func SplitLines(text string) []string {
	return lineBreak.Split(text, -1)
}

// SplitLine splits one line into trimmed field values.
//
// A double quote toggles quoted mode, so commas inside quotes stay literal.
// Quote characters never reach the output. An unclosed quote runs to the end
// of the line.
func SplitLine(line string) []string {
	fields := make([]string, 0, 8)
	var current strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	fields = append(fields, strings.TrimSpace(current.String()))

	return fields
}

// Fields is one tokenized row with bounds-safe accessors
type Fields []string

// At returns the field at index, or "" when the row is too short
func (f Fields) At(index int) string {
	if index < 0 || index >= len(f) {
		return ""
	}
	return f[index]
}

// AnyContains reports whether any field contains substr
func (f Fields) AnyContains(substr string) bool {
	for _, v := range f {
		if strings.Contains(v, substr) {
			return true
		}
	}
	return false
}

// isDigits reports whether s is a non-empty run of ASCII decimal digits
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
