package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/listops/listops/pkg/models"
	log "github.com/sirupsen/logrus"
)

func ptr(v float64) *float64 { return &v }

func quietLogger() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestBuilder(t *testing.T, opts ...Option) *Builder {
	t.Helper()
	b, err := NewBuilder(append([]Option{WithLogger(quietLogger())}, opts...)...)
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}
	return b
}

func lines(ls ...string) string {
	return strings.Join(ls, "\r\n")
}

var wholesaleSheet = lines(
	`,20/10/2026 10:00,`,
	`,tel:+5493880000000,`,
	`,INDICE SECCIONES,`,
	`,CEREALES,`,
	`,COD,DESCRIPCION,LISTA 1,LISTA 2,LISTA 3,LISTA 4`,
	`,,MARCA A,`,
	`,101,AVENA X 25KG,"$ 12.345,50","$ 11.000",-,"$ 9.500"`,
	`,102,MAIZ PARTIDO,BOLSA 25KG,"$ 8.000","$ 7.500","$ 7.000","$ 6.500"`,
	``,
	`,LEGUMBRES,`,
	`,LISTA DE PRECIOS,`,
	`,201,LENTEJAS,"$ 1.500",,,`,
	`,FORRAJES,`,
	`,,DESCRIPCION,`,
	`,,ALFALFA,`,
)

func TestParse_Wholesale(t *testing.T) {
	b := newTestBuilder(t)
	got := b.Parse(wholesaleSheet, Wholesale)

	want := &models.Catalog{
		UpdatedAt: "20/10/2026 10:00",
		Contact:   "tel:+5493880000000",
		Categories: []*models.Category{
			{
				Name:    "CEREALES",
				Columns: []string{"LISTA 1", "LISTA 2", "LISTA 3", "LISTA 4"},
				Brands: []*models.Brand{
					{Name: "MARCA A", Items: []*models.Item{
						{Code: "101", Description: "AVENA X 25KG", Price1: ptr(12345.5), Price2: ptr(11000), Price4: ptr(9500)},
						{Code: "102", Description: "MAIZ PARTIDO", Price1: ptr(8000), Price2: ptr(7500), Price3: ptr(7000), Price4: ptr(6500)},
					}},
				},
			},
			{
				Name:    "LEGUMBRES",
				Columns: []string{"LISTA 1", "LISTA 2", "LISTA 3", "LISTA 4"},
				Brands: []*models.Brand{
					{Name: "LEGUMBRES", Items: []*models.Item{
						{Code: "201", Description: "LENTEJAS", Price1: ptr(1500)},
					}},
				},
			},
		},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse() mismatch\n got: %s\nwant: %s", dump(got), dump(want))
	}
}

func TestParse_WholesaleOffsetShift(t *testing.T) {
	b := newTestBuilder(t)
	text := lines(
		`,CEREALES,`,
		`,1,SIN CORRIMIENTO,"$ 1","$ 2","$ 3","$ 4","$ 5"`,
		`,2,CON UNIDAD,X 25KG,"$ 1","$ 2","$ 3","$ 4"`,
		`,3,PLACEHOLDER,-,"$ 2","$ 3","$ 4"`,
	)

	got := b.Parse(text, Wholesale)
	items := got.Categories[0].Brands[0].Items
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	check := func(it *models.Item, want [4]*float64) {
		t.Helper()
		gotPrices := [4]*float64{it.Price1, it.Price2, it.Price3, it.Price4}
		if !reflect.DeepEqual(gotPrices, want) {
			t.Errorf("item %s prices = %s, want %s", it.Code, fmtPrices(gotPrices[:]), fmtPrices(want[:]))
		}
		if it.Price5 != nil {
			t.Errorf("item %s: wholesale rows never carry a fifth price", it.Code)
		}
	}

	check(items[0], [4]*float64{ptr(1), ptr(2), ptr(3), ptr(4)})
	check(items[1], [4]*float64{ptr(1), ptr(2), ptr(3), ptr(4)})
	check(items[2], [4]*float64{nil, ptr(2), ptr(3), ptr(4)})
}

var retailSheet = lines(
	`LISTA DE PRECIOS,20/10/2026`,
	`,tel:3888000000`,
	`BALANCEADOS,,,,`,
	`COD,DESCRIPCION,PRES,PRECIO KG,PRECIO BOLSA`,
	`100,BALANCEADO GALLINA,25KG,"$ 1.200","$ 25.000"`,
	`,MEZCLAS,,,`,
	`101,MEZCLA LORO,,"$ 900",`,
	`ALIMENTO PERRO Y GATO,,,`,
	`CODIGO,DESCRIPCION,,PRECIO,X BOLSA,X 3`,
	`,PERRO:,,`,
	`200,DOG CHOW 15KG,,"$ 30.000","$ 29.000","$ 28.000"`,
	`,gato: ,,`,
	`300,CAT CHOW 8KG,,"$ 20.000",,`,
	`,WHISKAS,,`,
	`301,WHISKAS 1KG,"$ 5.000",,`,
	`CEREALES Y MEZCLAS`,
	`400,ARROZ 1KG,,"$ 1.000",,401,FIDEOS 500G,"$ 800"`,
	`VARIOS,,`,
	`COD,DESCRIPCION,,PRECIO`,
	`,SIN ITEMS,,`,
)

func TestParse_Retail(t *testing.T) {
	b := newTestBuilder(t)
	got := b.Parse(retailSheet, Retail)

	splitCols := []string{"PRECIO", "X BOLSA", "X 3"}
	want := &models.Catalog{
		UpdatedAt: "20/10/2026",
		Contact:   "tel:3888000000",
		Categories: []*models.Category{
			{
				Name:    "BALANCEADOS",
				Columns: []string{"PRECIO KG", "PRECIO BOLSA"},
				Brands: []*models.Brand{
					{Name: "BALANCEADOS", Items: []*models.Item{
						{Code: "100", Description: "BALANCEADO GALLINA", Price1: ptr(1200), Price2: ptr(25000)},
					}},
					{Name: "MEZCLAS", Items: []*models.Item{
						{Code: "101", Description: "MEZCLA LORO", Price1: ptr(900)},
					}},
				},
			},
			{
				Name:    "ALIMENTO PARA PERROS",
				Columns: splitCols,
				Brands: []*models.Brand{
					{Name: "ALIMENTO PARA PERROS", Items: []*models.Item{
						{Code: "200", Description: "DOG CHOW 15KG", Price1: ptr(30000), Price2: ptr(29000), Price3: ptr(28000)},
					}},
				},
			},
			{
				Name:    "ALIMENTO PARA GATOS",
				Columns: splitCols,
				Brands: []*models.Brand{
					{Name: "ALIMENTO PARA GATOS", Items: []*models.Item{
						{Code: "300", Description: "CAT CHOW 8KG", Price1: ptr(20000)},
					}},
					{Name: "WHISKAS", Items: []*models.Item{
						{Code: "301", Description: "WHISKAS 1KG", Price1: ptr(5000)},
					}},
				},
			},
			{
				Name:    "CEREALES Y MEZCLAS",
				Columns: splitCols,
				Brands: []*models.Brand{
					{Name: "CEREALES Y MEZCLAS", Items: []*models.Item{
						{Code: "400", Description: "ARROZ 1KG", Price1: ptr(1000)},
						{Code: "401", Description: "FIDEOS 500G", Price1: ptr(800)},
					}},
				},
			},
		},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse() mismatch\n got: %s\nwant: %s", dump(got), dump(want))
	}
}

func TestParse_CompositeSplitInheritsLabels(t *testing.T) {
	b := newTestBuilder(t)
	text := lines(
		`BALANCEADOS`,
		`COD,DESCRIPCION,,MINORISTA,MAYORISTA`,
		`ALIMENTO PERRO Y GATO`,
		`1,ALGO,,"$ 1"`,
		`,GATO:`,
		`2,OTRO,,"$ 2"`,
	)

	got := b.Parse(text, Retail)
	if len(got.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d: %s", len(got.Categories), dump(got))
	}

	dog, cat := got.Categories[0], got.Categories[1]
	if dog.Name != "ALIMENTO PARA PERROS" || cat.Name != "ALIMENTO PARA GATOS" {
		t.Fatalf("unexpected split categories: %q, %q", dog.Name, cat.Name)
	}

	wantCols := []string{"MINORISTA", "MAYORISTA"}
	for _, c := range []*models.Category{dog, cat} {
		if !reflect.DeepEqual(c.Columns, wantCols) {
			t.Errorf("%s columns = %q, want %q", c.Name, c.Columns, wantCols)
		}
	}

	// Items before any marker row land in the dog category's default brand
	if dog.Brands[0].Name != "ALIMENTO PARA PERROS" || dog.Brands[0].Items[0].Code != "1" {
		t.Errorf("unexpected dog brands: %s", dump(dog))
	}
	if cat.Brands[0].Items[0].Code != "2" {
		t.Errorf("unexpected cat brands: %s", dump(cat))
	}

	// Siblings must not share the columns slice
	dog.Columns[0] = "CHANGED"
	if cat.Columns[0] == "CHANGED" {
		t.Error("split categories share their columns slice")
	}
}

func TestParse_CompositeHeaderMirrorsToCat(t *testing.T) {
	b := newTestBuilder(t)
	text := lines(
		`ALIMENTO PERRO Y GATO`,
		`,PERRO:`,
		`1,A,,"$ 1"`,
		`COD,DESCRIPCION,,P1,P2`,
		`,GATO:`,
		`2,B,,"$ 2","$ 3"`,
	)

	got := b.Parse(text, Retail)
	want := []string{"P1", "P2"}
	for _, c := range got.Categories {
		if !reflect.DeepEqual(c.Columns, want) {
			t.Errorf("%s columns = %q, want %q", c.Name, c.Columns, want)
		}
	}
}

func TestParse_SplitEndsAtNextCategory(t *testing.T) {
	b := newTestBuilder(t)
	text := lines(
		`ALIMENTO PERRO Y GATO`,
		`,GATO:`,
		`1,A,,"$ 1"`,
		`LIMPIEZA`,
		`,GATO:`,
		`2,B,,"$ 2"`,
	)

	got := b.Parse(text, Retail)
	limpieza := got.Categories[len(got.Categories)-1]
	if limpieza.Name != "LIMPIEZA" {
		t.Fatalf("last category = %q, want LIMPIEZA", limpieza.Name)
	}
	// Outside split mode a marker is an ordinary brand row
	if len(limpieza.Brands) != 1 || limpieza.Brands[0].Name != "GATO:" {
		t.Errorf("unexpected LIMPIEZA brands: %s", dump(limpieza))
	}
}

func TestParse_HeaderLabelPersistence(t *testing.T) {
	b := newTestBuilder(t)
	text := lines(
		`LIMPIEZA`,
		`COD,DESCRIPCION,,A,B,C,D,E`,
		`PILETA`,
		`2COD,DESCRIPCION,,,,X`,
		`1,CLORO,,"$ 1"`,
		`VARIOS`,
		`cods,DESCRIPCION`,
		`2,VARIO,,"$ 2"`,
	)

	got := b.Parse(text, Retail)
	if len(got.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(got.Categories))
	}

	// Labels 1-2 persist from the previous header, labels 3-5 reset
	if want := []string{"A", "B", "X"}; !reflect.DeepEqual(got.Categories[0].Columns, want) {
		t.Errorf("PILETA columns = %q, want %q", got.Categories[0].Columns, want)
	}
	if want := []string{"A", "B"}; !reflect.DeepEqual(got.Categories[1].Columns, want) {
		t.Errorf("VARIOS columns = %q, want %q", got.Categories[1].Columns, want)
	}
}

func TestParse_RetailPriceFallback(t *testing.T) {
	b := newTestBuilder(t)
	text := lines(
		`COMESTIBLES`,
		`1,ACEITE,"$ 3.000",,"$ 2.900"`,
		`2,AZUCAR,"$ 9","$ 1.000"`,
	)

	items := b.Parse(text, Retail).Categories[0].Brands[0].Items
	if items[0].Price1 == nil || *items[0].Price1 != 3000 {
		t.Errorf("ACEITE price1 = %v, want 3000 from the fallback column", items[0].Price1)
	}
	if items[0].Price2 == nil || *items[0].Price2 != 2900 {
		t.Errorf("ACEITE price2 = %v, want 2900", items[0].Price2)
	}
	if items[1].Price1 == nil || *items[1].Price1 != 1000 {
		t.Errorf("AZUCAR price1 = %v, want 1000 from the regular column", items[1].Price1)
	}
}

func TestParse_SecondaryItemOnFallthroughRow(t *testing.T) {
	b := newTestBuilder(t)
	text := lines(
		`SNACKS`,
		`,MANI SALADO,,"$ 500",,77,PAPAS,,"$ 650"`,
	)

	got := b.Parse(text, Retail)
	items := got.Categories[0].Brands[0].Items
	if len(items) != 1 {
		t.Fatalf("expected only the packed item, got %s", dump(got))
	}
	if items[0].Code != "77" || items[0].Price1 == nil || *items[0].Price1 != 650 {
		t.Errorf("unexpected packed item: %s", dump(items[0]))
	}
}

func TestParse_SecondaryItemKeepsPrimaryPrices(t *testing.T) {
	b := newTestBuilder(t)
	text := lines(
		`VARIOS`,
		`100,A,,"$ 1","$ 2",77,B,"$ 3"`,
	)

	items := b.Parse(text, Retail).Categories[0].Brands[0].Items
	if len(items) != 2 {
		t.Fatalf("expected primary and secondary items, got %d", len(items))
	}

	primary := &models.Item{Code: "100", Description: "A", Price1: ptr(1), Price2: ptr(2), Price5: ptr(3)}
	if !reflect.DeepEqual(items[0], primary) {
		t.Errorf("primary = %s, want %s", dump(items[0]), dump(primary))
	}

	secondary := &models.Item{Code: "77", Description: "B", Price1: ptr(3)}
	if !reflect.DeepEqual(items[1], secondary) {
		t.Errorf("secondary = %s, want %s", dump(items[1]), dump(secondary))
	}
}

func TestParse_CategoryExactMatchOnly(t *testing.T) {
	b := newTestBuilder(t)
	text := lines(
		`  COMESTIBLES  `,
		`1,A,,"$ 1"`,
		`Comestibles`,
		`2,B,,"$ 2"`,
		`COMESTIBLES.`,
		`3,C,,"$ 3"`,
		`CEREALES  Y MEZCLAS`,
		`4,D,,"$ 4"`,
	)

	got := b.Parse(text, Retail)
	if len(got.Categories) != 1 {
		t.Fatalf("expected 1 category, got %d: %s", len(got.Categories), dump(got))
	}
	if n := got.Categories[0].ItemCount(); n != 4 {
		t.Errorf("expected all 4 items under COMESTIBLES, got %d", n)
	}
}

func TestParse_PrunesEmptyScaffolding(t *testing.T) {
	b := newTestBuilder(t)
	text := lines(
		`LIMPIEZA`,
		`COD,DESCRIPCION,,PRECIO`,
		`,LAVANDINA,,`,
		`PILETA`,
		`,VACIA,,`,
		`,CLORO,,`,
		`1,CLORO 5L,,"$ 4.000"`,
	)

	got := b.Parse(text, Retail)
	if len(got.Categories) != 1 || got.Categories[0].Name != "PILETA" {
		t.Fatalf("expected only PILETA, got %s", dump(got))
	}
	brands := got.Categories[0].Brands
	if len(brands) != 1 || brands[0].Name != "CLORO" {
		t.Errorf("expected only the CLORO brand, got %s", dump(brands))
	}
}

func TestParse_Idempotent(t *testing.T) {
	b := newTestBuilder(t)

	first := b.Parse(retailSheet, Retail)
	second := b.Parse(retailSheet, Retail)

	if !reflect.DeepEqual(first, second) {
		t.Fatal("parsing the same text twice produced different catalogs")
	}
	if first.Categories[0] == second.Categories[0] {
		t.Error("catalogs from separate calls share category pointers")
	}
}

func TestParse_ItemsNeedCategoryAndDescription(t *testing.T) {
	b := newTestBuilder(t)
	text := lines(
		`1,HUERFANO,,"$ 1"`,
		`VARIOS`,
		`2,,,"$ 2"`,
	)

	got := b.Parse(text, Retail)
	if len(got.Categories) != 0 {
		t.Errorf("expected no categories, got %s", dump(got))
	}
}

func TestParse_EmptyInput(t *testing.T) {
	got := Parse("", Retail)
	if got == nil || got.Categories == nil || len(got.Categories) != 0 {
		t.Errorf("Parse(\"\") = %s, want empty catalog", dump(got))
	}
}

// panicky fails on rows whose second field is BOOM
type panicky struct {
	inner classifier
}

func (p panicky) classify(f Fields, st *parseState) Row {
	if f.At(1) == "BOOM" {
		panic("classifier exploded")
	}
	return p.inner.classify(f, st)
}

func TestParse_RowFaultIsolation(t *testing.T) {
	b := newTestBuilder(t)
	b.strategies[Retail] = panicky{inner: b.strategies[Retail]}

	text := lines(
		`LIMPIEZA`,
		`,MARCA`,
		`1,LAVANDINA,,"$ 100"`,
		`9,BOOM,,"$ 1"`,
		`2,DETERGENTE,,"$ 200"`,
	)

	got, report := b.ParseWithReport(text, Retail)

	if len(report.Faults) != 1 {
		t.Fatalf("expected 1 fault, got %d", len(report.Faults))
	}
	if report.Faults[0].Line != 4 || !strings.Contains(report.Faults[0].Content, "BOOM") {
		t.Errorf("unexpected fault: %+v", report.Faults[0])
	}

	brands := got.Categories[0].Brands
	if len(brands) != 1 || brands[0].Name != "MARCA" {
		t.Fatalf("fault reset the current brand: %s", dump(got))
	}
	codes := []string{}
	for _, it := range brands[0].Items {
		codes = append(codes, it.Code)
	}
	if !reflect.DeepEqual(codes, []string{"1", "2"}) {
		t.Errorf("items = %v, want [1 2]", codes)
	}
}

func TestParseWithReport_CountsRowKinds(t *testing.T) {
	b := newTestBuilder(t)
	_, report := b.ParseWithReport(retailSheet, Retail)

	if report.Rows[RowContact] != 1 {
		t.Errorf("contact rows = %d, want 1", report.Rows[RowContact])
	}
	if report.Rows[RowMetadata] != 1 {
		t.Errorf("metadata rows = %d, want 1", report.Rows[RowMetadata])
	}
	if report.Rows[RowCategory] != 4 {
		t.Errorf("category rows = %d, want 4", report.Rows[RowCategory])
	}
	if report.Rows[RowHeader] != 3 {
		t.Errorf("header rows = %d, want 3", report.Rows[RowHeader])
	}
}

func TestNewBuilder_CustomVocabulary(t *testing.T) {
	vocab := DefaultVocabulary()
	vocab.Categories = []string{"FERRETERIA"}

	b := newTestBuilder(t, WithVocabulary(vocab))
	got := b.Parse(lines(`FERRETERIA`, `1,TORNILLO,,"$ 5"`, `LIMPIEZA`, `2,ESCOBA,,"$ 9"`), Retail)

	if len(got.Categories) != 1 || got.Categories[0].ItemCount() != 2 {
		t.Errorf("custom vocabulary not applied: %s", dump(got))
	}
}

func TestNewBuilder_InvalidHeaderPattern(t *testing.T) {
	vocab := DefaultVocabulary()
	vocab.HeaderPattern = "("

	if _, err := NewBuilder(WithVocabulary(vocab)); err == nil {
		t.Error("expected error for invalid header pattern")
	}
}

func TestParse_PackageLevelOptions(t *testing.T) {
	text := lines(`FERRETERIA`, `1,TORNILLO,,"$ 5"`)

	if got := Parse(text, Retail); len(got.Categories) != 0 {
		t.Errorf("default vocabulary should not know FERRETERIA: %s", dump(got))
	}

	vocab := DefaultVocabulary()
	vocab.Categories = []string{"FERRETERIA"}
	got := Parse(text, Retail, WithVocabulary(vocab), WithLogger(quietLogger()))
	if len(got.Categories) != 1 || got.Categories[0].ItemCount() != 1 {
		t.Errorf("options not applied: %s", dump(got))
	}

	bad := DefaultVocabulary()
	bad.HeaderPattern = "("
	if got := Parse(lines(`VARIOS`, `1,A,,"$ 5"`), Retail, WithVocabulary(bad)); got == nil || len(got.Categories) != 1 {
		t.Errorf("invalid options should fall back to defaults: %s", dump(got))
	}
}

func TestMustBuilder(t *testing.T) {
	if defaultBuilder == nil {
		t.Fatal("default builder not initialized")
	}

	vocab := DefaultVocabulary()
	vocab.HeaderPattern = "("
	defer func() {
		if recover() == nil {
			t.Error("mustBuilder() with an invalid header pattern should panic")
		}
	}()
	mustBuilder(WithVocabulary(vocab))
}

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{
		"wholesale": Wholesale,
		"MAYORISTA": Wholesale,
		"retail":    Retail,
		"minorista": Retail,
		"":          Retail,
	}
	for in, want := range cases {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseMode("bulk"); err == nil {
		t.Error("ParseMode(\"bulk\") expected error")
	}
}

func dump(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(b)
}

func fmtPrices(prices []*float64) string {
	out := make([]string, len(prices))
	for i, p := range prices {
		if p == nil {
			out[i] = "nil"
			continue
		}
		out[i] = fmt.Sprintf("%g", *p)
	}
	return "[" + strings.Join(out, " ") + "]"
}
