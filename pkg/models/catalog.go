package models

import "fmt"

// Catalog is the parsed price list: categories -> brands -> items
type Catalog struct {
	UpdatedAt  string      `json:"updatedAt"`
	Contact    string      `json:"contact"`
	Categories []*Category `json:"categories"`
}

// Category is a top-level merchandise section of the price list
type Category struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"` // Price column labels, empty means use defaults
	Brands  []*Brand `json:"brands"`
}

// Brand groups items inside a category. Its name equals the category name
// when the sheet has no real brand rows.
type Brand struct {
	Name  string  `json:"name"`
	Items []*Item `json:"items"`
}

// Item is one priced product line. A nil price means the column is not offered.
type Item struct {
	Code        string   `json:"code"`
	Description string   `json:"description"`
	Price1      *float64 `json:"price1"`
	Price2      *float64 `json:"price2"`
	Price3      *float64 `json:"price3"`
	Price4      *float64 `json:"price4"`
	Price5      *float64 `json:"price5"`
}

// MaxPriceColumns is the widest price layout any sheet uses
const MaxPriceColumns = 5

// Price returns the price for a 1-based column index
func (i *Item) Price(col int) *float64 {
	switch col {
	case 1:
		return i.Price1
	case 2:
		return i.Price2
	case 3:
		return i.Price3
	case 4:
		return i.Price4
	case 5:
		return i.Price5
	}
	return nil
}

// Prices returns all five price slots in column order
func (i *Item) Prices() [MaxPriceColumns]*float64 {
	return [MaxPriceColumns]*float64{i.Price1, i.Price2, i.Price3, i.Price4, i.Price5}
}

// SetPrice assigns the price for a 1-based column index; out of range is ignored
func (i *Item) SetPrice(col int, v *float64) {
	switch col {
	case 1:
		i.Price1 = v
	case 2:
		i.Price2 = v
	case 3:
		i.Price3 = v
	case 4:
		i.Price4 = v
	case 5:
		i.Price5 = v
	}
}

// OfferedPrices counts the non-nil price slots
func (i *Item) OfferedPrices() int {
	n := 0
	for _, p := range i.Prices() {
		if p != nil {
			n++
		}
	}
	return n
}

// DisplayColumns returns the category's labels, or defaults when none were captured
func (c *Category) DisplayColumns(defaults []string) []string {
	if len(c.Columns) > 0 {
		return c.Columns
	}
	return defaults
}

// AddBrand appends a new empty brand and returns it
func (c *Category) AddBrand(name string) *Brand {
	b := &Brand{Name: name, Items: []*Item{}}
	c.Brands = append(c.Brands, b)
	return b
}

// ItemCount returns the number of items across all brands
func (c *Category) ItemCount() int {
	n := 0
	for _, b := range c.Brands {
		n += len(b.Items)
	}
	return n
}

// FindItem returns the first item with the given code, scanning categories
// and brands in catalog order
func (c *Catalog) FindItem(code string) (*Item, *Brand, *Category) {
	for _, cat := range c.Categories {
		for _, b := range cat.Brands {
			for _, it := range b.Items {
				if it.Code == code {
					return it, b, cat
				}
			}
		}
	}
	return nil, nil, nil
}

// CartKey identifies one cart line: an item code paired with a 1-based price column
func CartKey(code string, col int) string {
	return fmt.Sprintf("%s-%d", code, col)
}

// CatalogStats summarizes a catalog
type CatalogStats struct {
	Categories int `json:"categories"`
	Brands     int `json:"brands"`
	Items      int `json:"items"`
	Prices     int `json:"prices"`
}

// Stats counts categories, brands, items and offered prices
func (c *Catalog) Stats() CatalogStats {
	var s CatalogStats
	s.Categories = len(c.Categories)
	for _, cat := range c.Categories {
		s.Brands += len(cat.Brands)
		for _, b := range cat.Brands {
			s.Items += len(b.Items)
			for _, it := range b.Items {
				s.Prices += it.OfferedPrices()
			}
		}
	}
	return s
}

// Walk calls fn for every item in catalog order
func (c *Catalog) Walk(fn func(cat *Category, b *Brand, it *Item)) {
	for _, cat := range c.Categories {
		for _, b := range cat.Brands {
			for _, it := range b.Items {
				fn(cat, b, it)
			}
		}
	}
}
