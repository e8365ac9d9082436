package parser

import (
	"fmt"
	"strings"

	"github.com/listops/listops/pkg/models"
	log "github.com/sirupsen/logrus"
)

// split is the sub-context owned while a composite category is being
// materialized as two sibling categories
type split struct {
	active *models.Category
	dog    *models.Category
	cat    *models.Category
}

// parseState is the mutable context of a single parse call. It is created per
// call and never shared.
type parseState struct {
	catalog  *models.Catalog
	category *models.Category
	brand    *models.Brand
	labels   [models.MaxPriceColumns]string
	split    *split
}

func newParseState(v *Vocabulary) *parseState {
	st := &parseState{
		catalog: &models.Catalog{Categories: []*models.Category{}},
	}
	st.labels[0] = v.InitialLabel
	return st
}

// commit applies a classified row. It only assigns and appends, so a row is
// either fully applied or, if classification failed, not applied at all.
func (st *parseState) commit(row Row) {
	if row.UpdatedAt != "" && st.catalog.UpdatedAt == "" {
		st.catalog.UpdatedAt = row.UpdatedAt
	}

	switch row.Kind {
	case RowContact:
		st.catalog.Contact = row.Contact
	case RowHeader:
		st.labels = row.Labels
		if st.category != nil {
			st.category.Columns = clone(row.Columns)
		}
		if st.split != nil {
			st.split.cat.Columns = clone(row.Columns)
		}
	case RowCategory:
		st.openCategory(row)
	case RowBrand:
		st.openBrand(row)
	}

	if row.Item != nil {
		st.addItem(row.Item)
	}
	if row.Secondary != nil {
		st.addItem(row.Secondary)
	}
}

func (st *parseState) openCategory(row Row) {
	st.split = nil

	if row.Composite() {
		dog := &models.Category{Name: row.Siblings[0], Columns: clone(row.Columns), Brands: []*models.Brand{}}
		cat := &models.Category{Name: row.Siblings[1], Columns: clone(row.Columns), Brands: []*models.Brand{}}
		st.catalog.Categories = append(st.catalog.Categories, dog, cat)
		st.split = &split{active: dog, dog: dog, cat: cat}
		st.category = dog
		st.brand = nil
		return
	}

	category := &models.Category{Name: row.Name, Columns: clone(row.Columns), Brands: []*models.Brand{}}
	st.catalog.Categories = append(st.catalog.Categories, category)
	st.category = category
	st.brand = nil
	if row.DefaultBrand {
		st.brand = category.AddBrand(row.Name)
	}
}

func (st *parseState) openBrand(row Row) {
	if st.split != nil {
		switch row.Route {
		case RouteDog:
			st.split.active = st.split.dog
		case RouteCat:
			st.split.active = st.split.cat
		}
		st.category = st.split.active

		name := row.Name
		if row.Route != RouteNone {
			name = st.category.Name
		}
		st.brand = st.category.AddBrand(name)
		return
	}

	if st.category != nil {
		st.brand = st.category.AddBrand(row.Name)
	}
}

func (st *parseState) addItem(it *models.Item) {
	if st.category == nil {
		return
	}
	if st.brand == nil {
		st.brand = st.category.AddBrand(st.category.Name)
	}
	st.brand.Items = append(st.brand.Items, it)
}

// Fault records a line that could not be classified
type Fault struct {
	Line    int    `json:"line"`
	Content string `json:"content"`
	Error   string `json:"error"`
}

// Report describes what a parse saw, for summaries and diagnostics
type Report struct {
	Mode   Mode            `json:"mode"`
	Lines  int             `json:"lines"`
	Rows   map[RowKind]int `json:"-"`
	Faults []Fault         `json:"faults,omitempty"`
}

// Option configures a Builder
type Option func(*Builder)

// WithVocabulary replaces the category vocabulary and boilerplate tokens
func WithVocabulary(v *Vocabulary) Option {
	return func(b *Builder) {
		if v != nil {
			b.vocab = v
		}
	}
}

// WithLayout replaces the column indices used by the heuristics
func WithLayout(l Layout) Option {
	return func(b *Builder) {
		b.layout = l
	}
}

// WithLogger sets the logger used for row fault warnings
func WithLogger(logger log.FieldLogger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// Builder turns price list exports into catalogs. A Builder holds only
// read-only configuration and is safe for concurrent use.
type Builder struct {
	vocab      *Vocabulary
	layout     Layout
	logger     log.FieldLogger
	strategies map[Mode]classifier
}

// NewBuilder creates a Builder with the published sheets' vocabulary and layout
// unless overridden by options
func NewBuilder(opts ...Option) (*Builder, error) {
	b := &Builder{
		vocab:  DefaultVocabulary(),
		layout: DefaultLayout(),
		logger: log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}

	// Compile a private copy so callers may keep editing their vocabulary
	vocab := *b.vocab
	if err := vocab.Compile(); err != nil {
		return nil, err
	}
	b.vocab = &vocab

	b.strategies = map[Mode]classifier{
		Wholesale: wholesaleRules(b.vocab, b.layout),
		Retail:    retailRules(b.vocab, b.layout),
	}
	return b, nil
}

// Vocabulary returns the compiled vocabulary the builder matches against
func (b *Builder) Vocabulary() *Vocabulary {
	return b.vocab
}

// Parse builds a pruned catalog from raw export text. It never fails: rows
// that cannot be interpreted are logged and skipped.
func (b *Builder) Parse(text string, mode Mode) *models.Catalog {
	catalog, _ := b.ParseWithReport(text, mode)
	return catalog
}

// ParseWithReport is Parse that also returns per-kind row counts and faults
func (b *Builder) ParseWithReport(text string, mode Mode) (*models.Catalog, *Report) {
	strategy, ok := b.strategies[mode]
	if !ok {
		mode = Retail
		strategy = b.strategies[Retail]
	}

	st := newParseState(b.vocab)
	report := &Report{Mode: mode, Rows: make(map[RowKind]int)}

	for i, line := range SplitLines(text) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		report.Lines++

		row, err := b.classifyLine(strategy, st, i, line)
		if err != nil {
			b.logger.WithFields(log.Fields{
				"line":    i + 1,
				"content": line,
			}).Warnf("Skipping row: %v", err)
			report.Faults = append(report.Faults, Fault{Line: i + 1, Content: line, Error: err.Error()})
			continue
		}

		st.commit(row)
		report.Rows[row.Kind]++
	}

	return Prune(st.catalog), report
}

// classifyLine computes the candidate row for one line. Any panic raised while
// interpreting the line is turned into an error and the state is left as is.
func (b *Builder) classifyLine(strategy classifier, st *parseState, index int, line string) (row Row, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	f := Fields(SplitLine(line))

	var updatedAt string
	if index == 0 && f.At(1) != "" {
		updatedAt = f.At(1)
	}

	if strings.HasPrefix(f.At(1), b.vocab.ContactMarker) && b.vocab.ContactMarker != "" {
		return Row{Kind: RowContact, Rule: "contact", Contact: f.At(1), UpdatedAt: updatedAt}, nil
	}

	row = strategy.classify(f, st)
	row.UpdatedAt = updatedAt
	if row.Kind == RowIgnorable && updatedAt != "" {
		row.Kind = RowMetadata
	}
	return row, nil
}

var defaultBuilder = mustBuilder()

// mustBuilder is NewBuilder for configurations known to be valid
func mustBuilder(opts ...Option) *Builder {
	b, err := NewBuilder(opts...)
	if err != nil {
		panic(fmt.Sprintf("parser: %v", err))
	}
	return b
}

// Parse builds a catalog with the default vocabulary and layout, overridden by
// opts when given. Options that do not compile are logged and the defaults
// are used, so Parse always returns a catalog.
func Parse(text string, mode Mode, opts ...Option) *models.Catalog {
	if len(opts) == 0 {
		return defaultBuilder.Parse(text, mode)
	}
	b, err := NewBuilder(opts...)
	if err != nil {
		log.WithError(err).Warn("Invalid parser options, using defaults")
		return defaultBuilder.Parse(text, mode)
	}
	return b.Parse(text, mode)
}
