package source

import (
	"context"
	"sync"
	"time"

	"github.com/listops/listops/internal/lists"
)

// FetchResult is one raw price list export as read from its origin
type FetchResult struct {
	Selection lists.Selection
	Text      string    // Raw CSV export text
	Origin    string    // URL or file path the text came from
	FetchedAt time.Time
}

// Bytes returns the size of the fetched text
func (r *FetchResult) Bytes() int {
	return len(r.Text)
}

// Connector defines the interface for price list sources
type Connector interface {
	// Name returns the connector's unique identifier
	Name() string

	// Connect prepares the connector. It does not fetch anything.
	Connect(ctx context.Context) error

	// Close cleans up any resources
	Close() error

	// Test checks that the source is reachable and serves CSV
	Test(ctx context.Context) error

	// Fetch reads the export for a selected list
	Fetch(ctx context.Context, sel lists.Selection) (*FetchResult, error)
}

// BaseConnector provides common functionality for connectors
type BaseConnector struct {
	name      string
	mu        sync.RWMutex
	connected bool
}

// NewBaseConnector creates a new base connector with common fields
func NewBaseConnector(name string) *BaseConnector {
	return &BaseConnector{name: name}
}

func (b *BaseConnector) Name() string {
	return b.name
}

func (b *BaseConnector) IsConnected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.connected
}

func (b *BaseConnector) SetConnected(connected bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = connected
}
