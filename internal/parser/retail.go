package parser

import (
	"strings"

	"github.com/listops/listops/pkg/models"
)

// retailRules classifies the branch sheets, which key rows on fields 0 and 1
// and carry their own column header rows under each category
func retailRules(v *Vocabulary, l Layout) ruleSet {
	col0 := func(f Fields) string { return f.At(0) }
	col1 := func(f Fields) string { return f.At(1) }

	return ruleSet{
		{
			name:  "header",
			match: func(f Fields, _ *parseState) bool { return v.IsHeader(col0(f)) },
			build: func(f Fields, st *parseState) Row {
				labels := headerLabels(f, l, st.labels)
				return Row{Kind: RowHeader, Labels: labels, Columns: nonEmpty(labels[:])}
			},
		},
		{
			name: "legacy-or-blank",
			match: func(f Fields, _ *parseState) bool {
				return strings.Contains(col0(f), v.ListMarker) || (col0(f) == "" && col1(f) == "")
			},
			build: ignore,
		},
		{
			name:  "category",
			match: func(f Fields, _ *parseState) bool { return v.IsCategory(col0(f)) },
			build: func(f Fields, st *parseState) Row {
				row := Row{Kind: RowCategory, Name: col0(f), Columns: nonEmpty(st.labels[:])}
				if v.IsComposite(row.Name) {
					row.Siblings = [2]string{v.Composite.Dog, v.Composite.Cat}
				} else {
					row.DefaultBrand = true
				}
				return row
			},
		},
		{
			name:  "item",
			match: func(f Fields, _ *parseState) bool { return isDigits(col0(f)) },
			build: func(f Fields, _ *parseState) Row {
				secondary := secondaryItem(f, l)
				row := Row{Kind: RowItem, Secondary: secondary}
				if col1(f) != "" {
					row.Item = retailItem(f, l)
				} else if secondary != nil {
					row.Kind = RowSecondaryItem
				} else {
					row.Kind = RowIgnorable
				}
				return row
			},
		},
		{
			name: "brand",
			match: func(f Fields, _ *parseState) bool {
				name := col1(f)
				return col0(f) == "" && name != "" &&
					!strings.HasPrefix(name, v.ContactMarker) &&
					!f.AnyContains(CurrencyMarker)
			},
			build: func(f Fields, st *parseState) Row {
				name := col1(f)
				row := Row{Kind: RowBrand, Name: name}
				if st.split != nil {
					marker := strings.TrimSpace(name)
					switch {
					case strings.EqualFold(marker, v.Composite.DogMarker):
						row.Route = RouteDog
					case strings.EqualFold(marker, v.Composite.CatMarker):
						row.Route = RouteCat
					}
				}
				return row
			},
		},
		{
			name:  "fallthrough",
			match: always,
			build: func(f Fields, _ *parseState) Row {
				if secondary := secondaryItem(f, l); secondary != nil {
					return Row{Kind: RowSecondaryItem, Secondary: secondary}
				}
				return Row{Kind: RowIgnorable}
			},
		},
	}
}

// headerLabels applies a header row on top of the pending labels. The first
// two labels persist when their field is empty; the rest reset.
func headerLabels(f Fields, l Layout, pending [models.MaxPriceColumns]string) [models.MaxPriceColumns]string {
	labels := pending
	for k := range labels {
		value := f.At(l.RetailLabelStart + k)
		switch {
		case value != "":
			labels[k] = value
		case k >= 2:
			labels[k] = ""
		}
	}
	return labels
}

// retailItem reads price 1 with a one-column-left fallback and prices 2-5 from
// the following fields. A second item packed into the row does not change how
// the first one is read.
func retailItem(f Fields, l Layout) *models.Item {
	price1 := PricePtr(f.At(l.RetailPriceStart))
	if price1 == nil {
		price1 = PricePtr(f.At(l.RetailPriceFallback))
	}

	prices := []*float64{price1}
	for k := 1; k < models.MaxPriceColumns; k++ {
		prices = append(prices, PricePtr(f.At(l.RetailPriceStart+k)))
	}
	return newItem(f.At(0), f.At(1), prices...)
}

// secondaryItem extracts a second catalog entry packed into spare columns
func secondaryItem(f Fields, l Layout) *models.Item {
	code := f.At(l.SecondaryCode)
	description := f.At(l.SecondaryDescription)
	if !isDigits(code) || description == "" {
		return nil
	}

	price := PricePtr(f.At(l.SecondaryPrice))
	if price == nil {
		price = PricePtr(f.At(l.SecondaryPriceFallback))
	}
	return newItem(code, description, price)
}
