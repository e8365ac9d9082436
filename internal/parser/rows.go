package parser

import (
	"fmt"
	"strings"

	"github.com/listops/listops/pkg/models"
)

// Mode selects which sheet layout the classifier expects
type Mode string

const (
	Wholesale Mode = "wholesale"
	Retail    Mode = "retail"
)

// ParseMode accepts the English names and the sheet's own list names
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wholesale", "mayorista":
		return Wholesale, nil
	case "retail", "minorista", "":
		return Retail, nil
	}
	return "", fmt.Errorf("unknown mode: %s", s)
}

// RowKind tags what a single source line means
type RowKind int

const (
	RowIgnorable RowKind = iota
	RowMetadata
	RowContact
	RowHeader
	RowCategory
	RowBrand
	RowItem
	RowSecondaryItem
)

var rowKindNames = map[RowKind]string{
	RowIgnorable:     "ignorable",
	RowMetadata:      "metadata",
	RowContact:       "contact",
	RowHeader:        "header",
	RowCategory:      "category",
	RowBrand:         "brand",
	RowItem:          "item",
	RowSecondaryItem: "secondary_item",
}

func (k RowKind) String() string {
	if n, ok := rowKindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("RowKind(%d)", int(k))
}

// SplitRoute says which sibling a marker row switches to while a composite
// category is being split
type SplitRoute int

const (
	RouteNone SplitRoute = iota
	RouteDog
	RouteCat
)

// Row is the full effect of one line, computed before anything is committed
type Row struct {
	Kind      RowKind
	Rule      string // name of the rule that produced the row
	UpdatedAt string
	Contact   string

	// Category and brand rows
	Name         string
	Columns      []string
	DefaultBrand bool
	Siblings     [2]string // dog, cat; set only for the composite category
	Route        SplitRoute

	// Header rows
	Labels [models.MaxPriceColumns]string

	Item      *models.Item
	Secondary *models.Item
}

// Composite reports whether a category row opens split mode
func (r Row) Composite() bool {
	return r.Siblings[0] != "" && r.Siblings[1] != ""
}

// rule is one predicate -> row constructor pair. Rules are evaluated in
// order and the first match wins.
type rule struct {
	name  string
	match func(f Fields, st *parseState) bool
	build func(f Fields, st *parseState) Row
}

type ruleSet []rule

func (rs ruleSet) classify(f Fields, st *parseState) Row {
	for _, r := range rs {
		if r.match(f, st) {
			row := r.build(f, st)
			row.Rule = r.name
			return row
		}
	}
	return Row{Kind: RowIgnorable}
}

// classifier turns one tokenized line into a candidate Row. Implementations
// must not mutate the parse state.
type classifier interface {
	classify(f Fields, st *parseState) Row
}

func always(Fields, *parseState) bool { return true }

func ignore(Fields, *parseState) Row { return Row{Kind: RowIgnorable} }

func nonEmpty(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

func newItem(code, description string, prices ...*float64) *models.Item {
	it := &models.Item{Code: code, Description: description}
	for i, p := range prices {
		it.SetPrice(i+1, p)
	}
	return it
}
