package parser

import (
	"fmt"
	"regexp"
)

// Composite describes one sheet section that must become two catalog
// categories, switched by marker rows
type Composite struct {
	Name      string `yaml:"name"`
	Dog       string `yaml:"dog"`
	Cat       string `yaml:"cat"`
	DogMarker string `yaml:"dog_marker"`
	CatMarker string `yaml:"cat_marker"`
}

// Vocabulary is the fixed word list the classifier matches against.
// Category names match exactly; there is no fuzzy matching at this layer.
type Vocabulary struct {
	Categories       []string  `yaml:"categories"`
	Composite        Composite `yaml:"composite"`
	WholesaleColumns []string  `yaml:"wholesale_columns"`
	DefaultColumns   []string  `yaml:"default_columns"`
	InitialLabel     string    `yaml:"initial_label"`
	SkipTokens       []string  `yaml:"skip_tokens"`
	DescriptionWord  string    `yaml:"description_word"`
	ListMarker       string    `yaml:"list_marker"`
	ContactMarker    string    `yaml:"contact_marker"`
	HeaderPattern    string    `yaml:"header_pattern"`

	categorySet map[string]bool
	skipSet     map[string]bool
	headerRe    *regexp.Regexp
}

// DefaultVocabulary returns the word list used by the published price sheets
func DefaultVocabulary() *Vocabulary {
	return &Vocabulary{
		Categories: []string{
			// Wholesale sections
			"ALIMENTO BALANCEADO ANIMAL", "ALIMENTO PARA PERROS", "ALIMENTO PARA GATOS",
			"CEREALES PARA DESAYUNO", "CEREALES", "FORRAJES", "LEGUMBRES",
			"CONDIMENTOS", "FRUTOS SECOS", "SNACKS", "VENENOS", "ACCESORIOS",
			// Retail sections
			"BALANCEADOS", "ALIMENTO PERRO Y GATO", "CEREALES Y MEZCLAS",
			"COMESTIBLES", "ACCESORIOS Y VENENOS", "LIMPIEZA", "PILETA",
			"VARIOS", "ANIMALES DE GRANJA", "SECCIONES",
		},
		Composite: Composite{
			Name:      "ALIMENTO PERRO Y GATO",
			Dog:       "ALIMENTO PARA PERROS",
			Cat:       "ALIMENTO PARA GATOS",
			DogMarker: "PERRO:",
			CatMarker: "GATO:",
		},
		WholesaleColumns: []string{"LISTA 1", "LISTA 2", "LISTA 3", "LISTA 4"},
		DefaultColumns:   []string{"PRECIO"},
		InitialLabel:     "PRECIO",
		SkipTokens:       []string{"COD", "INDICE SECCIONES", "fecha"},
		DescriptionWord:  "DESCRIPCION",
		ListMarker:       "LISTA",
		ContactMarker:    "tel:",
		HeaderPattern:    `(?i)^\d*COD(IGO|S)?$`,
	}
}

// Compile builds the lookup sets. It must be called after editing fields by hand.
func (v *Vocabulary) Compile() error {
	re, err := regexp.Compile(v.HeaderPattern)
	if err != nil {
		return fmt.Errorf("invalid header pattern %q: %w", v.HeaderPattern, err)
	}
	v.headerRe = re

	v.categorySet = make(map[string]bool, len(v.Categories))
	for _, c := range v.Categories {
		v.categorySet[c] = true
	}
	v.skipSet = make(map[string]bool, len(v.SkipTokens))
	for _, t := range v.SkipTokens {
		v.skipSet[t] = true
	}
	return nil
}

// IsCategory reports an exact match against the category list
func (v *Vocabulary) IsCategory(name string) bool {
	return name != "" && v.categorySet[name]
}

// IsSkipToken reports whether a wholesale col1 value is boilerplate
func (v *Vocabulary) IsSkipToken(s string) bool {
	return v.skipSet[s]
}

// IsHeader reports whether a retail col0 value marks a column header row
func (v *Vocabulary) IsHeader(s string) bool {
	return s != "" && v.headerRe != nil && v.headerRe.MatchString(s)
}

// IsComposite reports whether name is the composite dog-and-cat section
func (v *Vocabulary) IsComposite(name string) bool {
	return v.Composite.Name != "" && name == v.Composite.Name
}

// Layout holds the column indices the heuristics read. They come from sample
// sheets, not from a documented contract, so they can be overridden in config.
type Layout struct {
	WholesalePriceStart   int `yaml:"wholesale_price_start"`
	WholesaleShiftedStart int `yaml:"wholesale_shifted_start"`
	WholesalePriceCount   int `yaml:"wholesale_price_count"`

	RetailPriceStart    int `yaml:"retail_price_start"`
	RetailPriceFallback int `yaml:"retail_price_fallback"`
	RetailLabelStart    int `yaml:"retail_label_start"`

	SecondaryCode          int `yaml:"secondary_code"`
	SecondaryDescription   int `yaml:"secondary_description"`
	SecondaryPrice         int `yaml:"secondary_price"`
	SecondaryPriceFallback int `yaml:"secondary_price_fallback"`
}

// DefaultLayout returns the indices observed in the published sheets
func DefaultLayout() Layout {
	return Layout{
		WholesalePriceStart:   3,
		WholesaleShiftedStart: 4,
		WholesalePriceCount:   4,

		RetailPriceStart:    3,
		RetailPriceFallback: 2,
		RetailLabelStart:    3,

		SecondaryCode:          5,
		SecondaryDescription:   6,
		SecondaryPrice:         7,
		SecondaryPriceFallback: 8,
	}
}
