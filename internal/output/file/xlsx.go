package file

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/listops/listops/internal/output"
	"github.com/listops/listops/pkg/models"
	"github.com/xuri/excelize/v2"
)

const XLSXAdapterName = "xlsx"

// XLSXConfig holds spreadsheet output configuration
type XLSXConfig struct {
	OutputDir string         // Directory for output files
	Palette   output.Palette // Category section colours
}

// XLSXAdapter implements the output.Adapter interface for Excel workbooks.
// Each category becomes a coloured section with its own price header.
type XLSXAdapter struct {
	*output.BaseAdapter
	config XLSXConfig
}

// NewXLSXAdapter creates a new spreadsheet adapter
func NewXLSXAdapter(cfg XLSXConfig) *XLSXAdapter {
	if cfg.OutputDir == "" {
		cfg.OutputDir = "output"
	}
	if cfg.Palette == nil {
		cfg.Palette = output.DefaultPalette()
	}

	return &XLSXAdapter{
		BaseAdapter: output.NewBaseAdapter(
			XLSXAdapterName,
			[]output.Format{output.FormatXLSX},
		),
		config: cfg,
	}
}

// Connect creates the output directory
func (a *XLSXAdapter) Connect(ctx context.Context) error {
	if err := os.MkdirAll(a.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	a.SetConnected(true)
	return nil
}

// Close cleans up resources
func (a *XLSXAdapter) Close() error {
	a.SetConnected(false)
	return nil
}

// Test verifies the output directory is writable
func (a *XLSXAdapter) Test(ctx context.Context) error {
	return testWritable(a.config.OutputDir)
}

// ExportCatalog writes the catalog as a single-sheet workbook
func (a *XLSXAdapter) ExportCatalog(ctx context.Context, catalog *models.Catalog, opts output.ExportOptions) (*output.ExportResult, error) {
	result := &output.ExportResult{
		StartedAt: time.Now(),
	}

	if !a.IsConnected() {
		if err := a.Connect(ctx); err != nil {
			result.Error = err
			return result, err
		}
	}

	catalog = output.FilterCategories(catalog, opts.Categories)
	stats := catalog.Stats()

	if opts.DryRun {
		result.ItemsExported = stats.Items
		result.Success = true
		result.Details = fmt.Sprintf("Dry run: would export %d items", stats.Items)
		result.CompletedAt = time.Now()
		return result, nil
	}

	filename := exportFilename(a.config.OutputDir, opts, ".xlsx")

	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetName(opts)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		result.Error = err
		return result, err
	}

	w := &sheetWriter{f: f, sheet: sheet, palette: a.config.Palette, styles: map[string]int{}}
	rows, err := w.writeCatalog(catalog, opts.DefaultColumns())
	if err != nil {
		result.Error = err
		return result, err
	}

	if err := f.SaveAs(filename); err != nil {
		result.Error = fmt.Errorf("failed to save workbook: %w", err)
		return result, result.Error
	}

	result.Destination = filename
	result.ItemsExported = stats.Items
	result.RowsWritten = rows
	result.Success = true
	result.Details = fmt.Sprintf("Exported %d items to %s", stats.Items, filename)
	result.CompletedAt = time.Now()

	return result, nil
}

// SheetName returns the worksheet name for a list
func SheetName(opts output.ExportOptions) string {
	return strings.ToUpper(opts.Selection.Key())
}

var thinBorder = []excelize.Border{
	{Type: "left", Color: "#000000", Style: 1},
	{Type: "top", Color: "#000000", Style: 1},
	{Type: "bottom", Color: "#000000", Style: 1},
	{Type: "right", Color: "#000000", Style: 1},
}

var priceFormat = `"$ "#,##0.00`

type sheetWriter struct {
	f       *excelize.File
	sheet   string
	palette output.Palette
	styles  map[string]int // Category colour -> style ID
	row     int
}

func (w *sheetWriter) set(col int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, w.row)
	if err != nil {
		return err
	}
	return w.f.SetCellValue(w.sheet, cell, value)
}

func (w *sheetWriter) style(fromCol, toCol, styleID int) error {
	from, err := excelize.CoordinatesToCellName(fromCol, w.row)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(toCol, w.row)
	if err != nil {
		return err
	}
	return w.f.SetCellStyle(w.sheet, from, to, styleID)
}

// sectionStyle returns a bold fill style in the category colour
func (w *sheetWriter) sectionStyle(color string) (int, error) {
	if id, ok := w.styles[color]; ok {
		return id, nil
	}
	id, err := w.f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:  true,
			Color: output.TextColor(color),
			Size:  12,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{color},
			Pattern: 1,
		},
		Border: thinBorder,
	})
	if err != nil {
		return 0, err
	}
	w.styles[color] = id
	return id, nil
}

func (w *sheetWriter) writeCatalog(catalog *models.Catalog, defaults []string) (int, error) {
	titleStyle, err := w.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return 0, err
	}
	headerStyle, err := w.f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "#212121"},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#eeeeee"}, Pattern: 1},
		Border: thinBorder,
	})
	if err != nil {
		return 0, err
	}
	brandStyle, err := w.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Italic: true}})
	if err != nil {
		return 0, err
	}
	itemStyle, err := w.f.NewStyle(&excelize.Style{Border: thinBorder})
	if err != nil {
		return 0, err
	}
	priceStyle, err := w.f.NewStyle(&excelize.Style{Border: thinBorder, CustomNumFmt: &priceFormat})
	if err != nil {
		return 0, err
	}

	w.row = 1
	if err := w.set(1, "LISTA DE PRECIOS"); err != nil {
		return 0, err
	}
	if err := w.set(2, catalog.UpdatedAt); err != nil {
		return 0, err
	}
	if err := w.style(1, 2, titleStyle); err != nil {
		return 0, err
	}
	if catalog.Contact != "" {
		w.row++
		if err := w.set(1, catalog.Contact); err != nil {
			return 0, err
		}
	}

	for _, cat := range catalog.Categories {
		columns := cat.DisplayColumns(defaults)
		width := 2 + min(len(columns), models.MaxPriceColumns)

		// Category banner
		w.row += 2
		section, err := w.sectionStyle(w.palette.Color(cat.Name))
		if err != nil {
			return 0, err
		}
		if err := w.set(1, cat.Name); err != nil {
			return 0, err
		}
		if err := w.style(1, width, section); err != nil {
			return 0, err
		}

		// Price header
		w.row++
		header := append([]string{"COD", "DESCRIPCION"}, columns...)
		for i := 0; i < width; i++ {
			if err := w.set(i+1, header[i]); err != nil {
				return 0, err
			}
		}
		if err := w.style(1, width, headerStyle); err != nil {
			return 0, err
		}

		for _, b := range cat.Brands {
			if b.Name != cat.Name {
				w.row++
				if err := w.set(2, b.Name); err != nil {
					return 0, err
				}
				if err := w.style(2, 2, brandStyle); err != nil {
					return 0, err
				}
			}

			for _, it := range b.Items {
				w.row++
				if err := w.set(1, it.Code); err != nil {
					return 0, err
				}
				if err := w.set(2, it.Description); err != nil {
					return 0, err
				}
				if err := w.style(1, 2, itemStyle); err != nil {
					return 0, err
				}
				for k := 1; k <= width-2; k++ {
					if p := it.Price(k); p != nil {
						if err := w.set(2+k, *p); err != nil {
							return 0, err
						}
					} else if err := w.set(2+k, "-"); err != nil {
						return 0, err
					}
				}
				if err := w.style(3, width, priceStyle); err != nil {
					return 0, err
				}
			}
		}
	}

	if err := w.f.SetColWidth(w.sheet, "A", "A", 10); err != nil {
		return 0, err
	}
	if err := w.f.SetColWidth(w.sheet, "B", "B", 48); err != nil {
		return 0, err
	}
	if err := w.f.SetColWidth(w.sheet, "C", "G", 16); err != nil {
		return 0, err
	}

	return w.row, nil
}
