package output

// DefaultCategoryColor is used for categories missing from the palette
const DefaultCategoryColor = "#333333"

// Palette maps category names to a hex display colour
type Palette map[string]string

// DefaultPalette returns the colours the storefront uses for each section
func DefaultPalette() Palette {
	return Palette{
		// Wholesale
		"ALIMENTO BALANCEADO ANIMAL": "#d32f2f",
		"ALIMENTO PARA PERROS":       "#f57c00",
		"ALIMENTO PARA GATOS":        "#fbc02d",
		"CEREALES PARA DESAYUNO":     "#aed581",
		"CEREALES":                   "#4caf50",
		"FORRAJES":                   "#00bcd4",
		"LEGUMBRES":                  "#1976d2",
		"CONDIMENTOS":                "#ec407a",
		"FRUTOS SECOS":               "#ab47bc",
		"SNACKS":                     "#8d6e63",
		"VENENOS":                    "#1b5e20",
		"ACCESORIOS":                 "#7b1fa2",
		// Retail
		"BALANCEADOS":           "#d32f2f",
		"ALIMENTO PERRO Y GATO": "#f57c00",
		"CEREALES Y MEZCLAS":    "#4caf50",
		"COMESTIBLES":           "#ff9800",
		"ACCESORIOS Y VENENOS":  "#7b1fa2",
		"LIMPIEZA":              "#0288d1",
		"PILETA":                "#00bcd4",
		"VARIOS":                "#607d8b",
		"ANIMALES DE GRANJA":    "#795548",
		"SECCIONES":             "#607d8b",
	}
}

// lightBackgrounds need dark text to stay readable
var lightBackgrounds = map[string]bool{
	"#fbc02d": true,
	"#aed581": true,
	"#4caf50": true,
	"#00bcd4": true,
}

// Color returns the colour for a category
func (p Palette) Color(category string) string {
	if c, ok := p[category]; ok && c != "" {
		return c
	}
	return DefaultCategoryColor
}

// TextColor returns the text colour to draw on top of a category colour
func TextColor(background string) string {
	if lightBackgrounds[background] {
		return "#212121"
	}
	return "#ffffff"
}

// Merge returns a copy of p with overrides applied
func (p Palette) Merge(overrides map[string]string) Palette {
	out := make(Palette, len(p)+len(overrides))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}
