package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/listops/listops/internal/lists"
	"github.com/listops/listops/internal/source"
)

const ConnectorName = "file"

// Connector implements source.Connector for CSV exports saved on disk as
// <dir>/<list key>.csv
type Connector struct {
	*source.BaseConnector
	dir string
}

// NewConnector creates a new file connector rooted at dir
func NewConnector(dir string) *Connector {
	return &Connector{
		BaseConnector: source.NewBaseConnector(ConnectorName),
		dir:           dir,
	}
}

// Connect checks that the directory exists
func (c *Connector) Connect(ctx context.Context) error {
	info, err := os.Stat(c.dir)
	if err != nil {
		return fmt.Errorf("failed to open list directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", c.dir)
	}
	c.SetConnected(true)
	return nil
}

// Close is a no-op
func (c *Connector) Close() error {
	c.SetConnected(false)
	return nil
}

// Test verifies the directory is readable
func (c *Connector) Test(ctx context.Context) error {
	return c.Connect(ctx)
}

// Path returns the file a selection is read from
func (c *Connector) Path(sel lists.Selection) string {
	return filepath.Join(c.dir, sel.Key()+".csv")
}

// Fetch reads the export for the selected list
func (c *Connector) Fetch(ctx context.Context, sel lists.Selection) (*source.FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := c.Path(sel)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (expected %s)", source.ErrUnknownList, sel.Key(), path)
		}
		return nil, fmt.Errorf("failed to read list file: %w", err)
	}

	text := string(data)
	if err := source.CheckCSV(text); err != nil {
		return nil, err
	}

	return &source.FetchResult{
		Selection: sel,
		Text:      text,
		Origin:    path,
		FetchedAt: time.Now(),
	}, nil
}

// ReadPath reads an arbitrary export file, outside the list directory
func ReadPath(path string, sel lists.Selection) (*source.FetchResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return &source.FetchResult{
		Selection: sel,
		Text:      string(data),
		Origin:    path,
		FetchedAt: time.Now(),
	}, nil
}
