package parser

import (
	"strings"

	"github.com/listops/listops/pkg/models"
)

// wholesaleRules classifies the wholesale sheet, which keys rows on
// fields 1 and 2
func wholesaleRules(v *Vocabulary, l Layout) ruleSet {
	col1 := func(f Fields) string { return f.At(1) }
	col2 := func(f Fields) string { return f.At(2) }

	return ruleSet{
		{
			name:  "blank",
			match: func(f Fields, _ *parseState) bool { return col1(f) == "" && col2(f) == "" },
			build: ignore,
		},
		{
			name:  "boilerplate",
			match: func(f Fields, _ *parseState) bool { return v.IsSkipToken(col1(f)) },
			build: ignore,
		},
		{
			name:  "category",
			match: func(f Fields, _ *parseState) bool { return v.IsCategory(col1(f)) },
			build: func(f Fields, _ *parseState) Row {
				return Row{Kind: RowCategory, Name: col1(f), Columns: clone(v.WholesaleColumns)}
			},
		},
		{
			name:  "item",
			match: func(f Fields, _ *parseState) bool { return isDigits(col1(f)) },
			build: func(f Fields, _ *parseState) Row {
				if col2(f) == "" {
					return Row{Kind: RowIgnorable}
				}
				return Row{Kind: RowItem, Item: wholesaleItem(f, l)}
			},
		},
		{
			name: "brand",
			match: func(f Fields, _ *parseState) bool {
				c1, c2 := col1(f), col2(f)
				if c1 == "" {
					return c2 != "" && c2 != v.DescriptionWord
				}
				return c1 != v.DescriptionWord && !strings.Contains(c1, v.ListMarker)
			},
			build: func(f Fields, _ *parseState) Row {
				name := col1(f)
				if name == "" {
					name = col2(f)
				}
				return Row{Kind: RowBrand, Name: name}
			},
		},
	}
}

// wholesaleItem reads the price block, shifting one column right when the
// first price slot holds descriptive text such as a unit or packaging note
func wholesaleItem(f Fields, l Layout) *models.Item {
	start := l.WholesalePriceStart
	if !isPriceLike(f.At(start)) {
		start = l.WholesaleShiftedStart
	}

	count := min(l.WholesalePriceCount, models.MaxPriceColumns)
	prices := make([]*float64, count)
	for i := range prices {
		prices[i] = PricePtr(f.At(start + i))
	}
	return newItem(f.At(1), f.At(2), prices...)
}

func clone(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
