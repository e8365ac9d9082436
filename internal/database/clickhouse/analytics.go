package clickhouse

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/listops/listops/pkg/models"
)

// PriceHistoryRecord is one offered price of one catalog item at one
// observation
type PriceHistoryRecord struct {
	ListKey     string
	Mode        string
	Category    string
	Brand       string
	ItemCode    string
	Description string
	PriceColumn uint8 // 1-based
	ColumnLabel string
	Price       float64
	ListUpdated string
	SnapshotID  string
	ObservedAt  time.Time
	Source      string
}

// Observation identifies where and when a catalog was seen
type Observation struct {
	ListKey    string
	Mode       string
	SnapshotID string
	ObservedAt time.Time
	Source     string
}

// RecordsFromCatalog emits one record per offered price. Labels come from
// the category's column header, or defaults when the category has none.
func RecordsFromCatalog(catalog *models.Catalog, obs Observation, defaults []string) []PriceHistoryRecord {
	if catalog == nil {
		return nil
	}
	if obs.ObservedAt.IsZero() {
		obs.ObservedAt = time.Now()
	}

	var records []PriceHistoryRecord
	for _, cat := range catalog.Categories {
		labels := cat.DisplayColumns(defaults)
		for _, b := range cat.Brands {
			for _, it := range b.Items {
				for i, p := range it.Prices() {
					if p == nil {
						continue
					}
					var label string
					if i < len(labels) {
						label = labels[i]
					}
					records = append(records, PriceHistoryRecord{
						ListKey:     obs.ListKey,
						Mode:        obs.Mode,
						Category:    cat.Name,
						Brand:       b.Name,
						ItemCode:    it.Code,
						Description: it.Description,
						PriceColumn: uint8(i + 1),
						ColumnLabel: label,
						Price:       *p,
						ListUpdated: catalog.UpdatedAt,
						SnapshotID:  obs.SnapshotID,
						ObservedAt:  obs.ObservedAt,
						Source:      obs.Source,
					})
				}
			}
		}
	}
	return records
}

// InsertPriceHistory inserts price records into ClickHouse
func (c *Client) InsertPriceHistory(ctx context.Context, records []PriceHistoryRecord) error {
	if len(records) == 0 {
		return nil
	}
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}

	batch, err := c.conn.PrepareBatch(ctx, `
		INSERT INTO price_history (
			list_key, mode, category, brand, item_code, description,
			price_column, column_label, price, list_updated, snapshot_id,
			observed_at, observed_date, source
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, r := range records {
		source := r.Source
		if source == "" {
			source = "parse"
		}

		err := batch.Append(
			r.ListKey,
			r.Mode,
			r.Category,
			r.Brand,
			r.ItemCode,
			r.Description,
			r.PriceColumn,
			r.ColumnLabel,
			r.Price,
			r.ListUpdated,
			r.SnapshotID,
			r.ObservedAt,
			r.ObservedAt.Truncate(24*time.Hour),
			source,
		)
		if err != nil {
			return fmt.Errorf("failed to append to batch: %w", err)
		}
	}

	return batch.Send()
}

// PriceTrend is the daily price range of one item column
type PriceTrend struct {
	ListKey     string
	ItemCode    string
	PriceColumn uint8
	Date        time.Time
	MinPrice    float64
	MaxPrice    float64
	Count       uint64
}

// GetPriceTrends returns the daily price range of an item in a list
func (c *Client) GetPriceTrends(ctx context.Context, listKey, itemCode string, days int) ([]PriceTrend, error) {
	since := time.Now().AddDate(0, 0, -days)

	query := `
		SELECT
			list_key,
			item_code,
			price_column,
			toDate(observed_at) as date,
			min(price) as min_price,
			max(price) as max_price,
			count() as count
		FROM price_history
		WHERE list_key = ?
		  AND item_code = ?
		  AND observed_at >= ?
		GROUP BY list_key, item_code, price_column, date
		ORDER BY date, price_column
	`

	rows, err := c.conn.Query(ctx, query, listKey, itemCode, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query trends: %w", err)
	}
	defer rows.Close()

	var trends []PriceTrend
	for rows.Next() {
		var t PriceTrend
		if err := rows.Scan(&t.ListKey, &t.ItemCode, &t.PriceColumn, &t.Date, &t.MinPrice, &t.MaxPrice, &t.Count); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		trends = append(trends, t)
	}

	return trends, rows.Err()
}

// PriceChange compares the first and last observed price of an item column
type PriceChange struct {
	ItemCode    string
	Description string
	PriceColumn uint8
	ColumnLabel string
	FirstPrice  float64
	LastPrice   float64
	Difference  float64
	DiffPercent float64
	FirstSeen   time.Time
	LastSeen    time.Time
}

// NewPriceChange fills the derived fields. DiffPercent is zero when the
// first price was zero.
func NewPriceChange(code, description string, column uint8, label string, first, last float64, firstSeen, lastSeen time.Time) PriceChange {
	pc := PriceChange{
		ItemCode:    code,
		Description: description,
		PriceColumn: column,
		ColumnLabel: label,
		FirstPrice:  first,
		LastPrice:   last,
		Difference:  last - first,
		FirstSeen:   firstSeen,
		LastSeen:    lastSeen,
	}
	if first != 0 {
		pc.DiffPercent = math.Round(pc.Difference/first*10000) / 100
	}
	return pc
}

// GetPriceChanges returns the item columns of a list whose price moved in
// the last N days, biggest relative move first
func (c *Client) GetPriceChanges(ctx context.Context, listKey string, days, limit int) ([]PriceChange, error) {
	if limit <= 0 {
		limit = 50
	}
	since := time.Now().AddDate(0, 0, -days)

	query := `
		SELECT
			item_code,
			argMax(description, observed_at) as description,
			price_column,
			argMax(column_label, observed_at) as column_label,
			argMin(price, observed_at) as first_price,
			argMax(price, observed_at) as last_price,
			min(observed_at) as first_seen,
			max(observed_at) as last_seen
		FROM price_history
		WHERE list_key = ?
		  AND observed_at >= ?
		GROUP BY item_code, price_column
		HAVING first_price != last_price
		ORDER BY abs(last_price - first_price) / greatest(first_price, 1) DESC
		LIMIT ?
	`

	rows, err := c.conn.Query(ctx, query, listKey, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query price changes: %w", err)
	}
	defer rows.Close()

	var changes []PriceChange
	for rows.Next() {
		var (
			code, description, label string
			column                   uint8
			first, last              float64
			firstSeen, lastSeen      time.Time
		)
		if err := rows.Scan(&code, &description, &column, &label, &first, &last, &firstSeen, &lastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		changes = append(changes, NewPriceChange(code, description, column, label, first, last, firstSeen, lastSeen))
	}

	return changes, rows.Err()
}

// GetObservationCount returns the total number of price observations
func (c *Client) GetObservationCount(ctx context.Context) (uint64, error) {
	var count uint64
	if err := c.conn.QueryRow(ctx, "SELECT count() FROM price_history").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count observations: %w", err)
	}
	return count, nil
}
