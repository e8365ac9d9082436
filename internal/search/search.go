package search

import (
	"strings"
	"unicode"

	"github.com/listops/listops/pkg/models"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Result is one matching item with the brand and category it was found under
type Result struct {
	Category string       `json:"category"`
	Brand    string       `json:"brand"`
	Item     *models.Item `json:"item"`
}

// Normalize lower-cases s and strips diacritics, so "Alimento Balanceado" and
// "ALIMENTÓ BALANCEADO" compare equal
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// Matcher holds a normalized query
type Matcher struct {
	query string
	words []string
}

// NewMatcher prepares a query. An empty query matches nothing.
func NewMatcher(query string) *Matcher {
	q := Normalize(query)
	return &Matcher{query: q, words: strings.Fields(q)}
}

// Match reports whether the haystack contains the whole query, or every
// whitespace-separated word of it in any order
func (m *Matcher) Match(haystack string) bool {
	if m.query == "" {
		return false
	}
	h := Normalize(haystack)
	if strings.Contains(h, m.query) {
		return true
	}
	for _, w := range m.words {
		if !strings.Contains(h, w) {
			return false
		}
	}
	return len(m.words) > 0
}

// Search returns the items whose code, description, brand or category match
// the query, in catalog order
func Search(catalog *models.Catalog, query string) []Result {
	m := NewMatcher(query)
	results := []Result{}
	if catalog == nil {
		return results
	}

	catalog.Walk(func(cat *models.Category, b *models.Brand, it *models.Item) {
		haystack := strings.Join([]string{it.Code, it.Description, b.Name, cat.Name}, " ")
		if m.Match(haystack) {
			results = append(results, Result{Category: cat.Name, Brand: b.Name, Item: it})
		}
	})
	return results
}
