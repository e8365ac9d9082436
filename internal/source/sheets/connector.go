package sheets

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/listops/listops/internal/lists"
	"github.com/listops/listops/internal/source"
	log "github.com/sirupsen/logrus"
	"resty.dev/v3"
)

const ConnectorName = "sheets"

// Config holds the published sheet export settings
type Config struct {
	URLs      map[string]string // CSV export URL per list key
	Timeout   time.Duration
	Retries   int
	UserAgent string
}

// Connector implements source.Connector for published spreadsheet CSV exports
type Connector struct {
	*source.BaseConnector
	config Config

	mu     sync.Mutex
	client *resty.Client
}

// NewConnector creates a new sheets connector
func NewConnector(cfg Config) *Connector {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "listops/1.0"
	}

	return &Connector{
		BaseConnector: source.NewBaseConnector(ConnectorName),
		config:        cfg,
	}
}

// Connect creates the HTTP client. It is safe to call from several
// goroutines; only the first call builds the client.
func (c *Connector) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return nil
	}

	c.client = resty.New().
		SetTimeout(c.config.Timeout).
		SetRetryCount(c.config.Retries).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("User-Agent", c.config.UserAgent).
		SetHeader("Accept", "text/csv,text/plain;q=0.9,*/*;q=0.5")

	c.SetConnected(true)
	return nil
}

// Close releases the HTTP client
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		if err := c.client.Close(); err != nil {
			return err
		}
		c.client = nil
	}
	c.SetConnected(false)
	return nil
}

// Test fetches every configured list once and checks that it is CSV
func (c *Connector) Test(ctx context.Context) error {
	if len(c.config.URLs) == 0 {
		return fmt.Errorf("no sheet URLs configured")
	}

	for key := range c.config.URLs {
		if _, err := c.Fetch(ctx, lists.FromKey(key)); err != nil {
			return fmt.Errorf("list %s: %w", key, err)
		}
	}
	return nil
}

func (c *Connector) httpClient(ctx context.Context) (*resty.Client, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil, fmt.Errorf("sheets connector closed")
	}
	return c.client, nil
}

// URL returns the export URL for a selection
func (c *Connector) URL(sel lists.Selection) (string, error) {
	url, ok := c.config.URLs[sel.Key()]
	if !ok || url == "" {
		return "", fmt.Errorf("%w: %s", source.ErrUnknownList, sel.Key())
	}
	return url, nil
}

// Fetch downloads the CSV export for the selected list
func (c *Connector) Fetch(ctx context.Context, sel lists.Selection) (*source.FetchResult, error) {
	url, err := c.URL(sel)
	if err != nil {
		return nil, err
	}

	client, err := c.httpClient(ctx)
	if err != nil {
		return nil, err
	}

	log.WithField("list", sel.Key()).Debugf("Fetching %s", url)

	resp, err := client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("failed to fetch sheet: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("failed to fetch sheet: HTTP %d %s", resp.StatusCode(), resp.Status())
	}

	body := resp.String()
	if err := source.CheckCSV(body); err != nil {
		return nil, err
	}

	return &source.FetchResult{
		Selection: sel,
		Text:      body,
		Origin:    url,
		FetchedAt: time.Now(),
	}, nil
}
