package lists

import (
	"strings"

	"github.com/listops/listops/internal/parser"
)

// List keys, as used in config and as the cache key for fetched catalogs
const (
	KeyWholesale = "mayorista"
	KeySanMartin = "sm"
	KeySanCristo = "sc"
	KeyJujuy     = "jujuy"
)

// DefaultBranch is used when the requested branch is unknown
const DefaultBranch = KeySanMartin

// Selection is a resolved list request: which sheet to read and how to parse it
type Selection struct {
	Mode   parser.Mode `json:"mode"`
	Branch string      `json:"branch,omitempty"` // empty for the wholesale list
}

// Select resolves the lista/sucursal pair the storefront sends.
// Only the exact lista "mayorista" selects the wholesale list; any other value,
// including "MAYORISTA", is a retail request for the normalized branch.
func Select(lista, sucursal string) Selection {
	if lista == KeyWholesale {
		return Selection{Mode: parser.Wholesale}
	}
	return Selection{Mode: parser.Retail, Branch: NormalizeBranch(sucursal)}
}

// NormalizeBranch maps branch aliases onto their list key
func NormalizeBranch(branch string) string {
	switch strings.ToLower(strings.TrimSpace(branch)) {
	case "sc", "santo-cristo":
		return KeySanCristo
	case "jujuy", "ju":
		return KeyJujuy
	default:
		return DefaultBranch
	}
}

// FromKey builds a selection from a list key such as "mayorista" or "sc"
func FromKey(key string) Selection {
	if key == KeyWholesale {
		return Select(KeyWholesale, "")
	}
	return Select("", key)
}

// Key returns the list key used to look up the sheet URL
func (s Selection) Key() string {
	if s.Mode == parser.Wholesale {
		return KeyWholesale
	}
	if s.Branch == "" {
		return DefaultBranch
	}
	return s.Branch
}

// Tipo returns the list type label used in API envelopes
func (s Selection) Tipo() string {
	if s.Mode == parser.Wholesale {
		return "mayorista"
	}
	return "minorista"
}

func (s Selection) String() string {
	if s.Mode == parser.Wholesale {
		return KeyWholesale
	}
	return "minorista/" + s.Key()
}

// All returns every known list in display order
func All() []Selection {
	return []Selection{
		FromKey(KeyWholesale),
		FromKey(KeySanMartin),
		FromKey(KeySanCristo),
		FromKey(KeyJujuy),
	}
}

// Keys returns every known list key in display order
func Keys() []string {
	return []string{KeyWholesale, KeySanMartin, KeySanCristo, KeyJujuy}
}
