package source

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNotCSV is returned when a source serves an HTML page instead of the
// export, which is what a private or unpublished sheet does
var ErrNotCSV = errors.New("source returned HTML instead of CSV")

// ErrUnknownList is returned when no origin is configured for a list key
var ErrUnknownList = errors.New("no source configured for list")

// CheckCSV rejects bodies that are HTML documents. The page title, if any,
// is included in the error to tell a login page from an error page.
func CheckCSV(body string) error {
	head := strings.ToLower(strings.TrimSpace(body))
	if len(head) > 512 {
		head = head[:512]
	}
	if !strings.HasPrefix(head, "<!doctype html") && !strings.HasPrefix(head, "<html") &&
		!strings.Contains(head, "<head") {
		return nil
	}

	title := ""
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(body)); err == nil {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if title == "" {
		return ErrNotCSV
	}
	return fmt.Errorf("%w (page title: %q)", ErrNotCSV, title)
}
