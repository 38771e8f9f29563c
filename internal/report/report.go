// Package report holds the read-only report tree: chapters, sections and
// typed content blocks, plus the glossary referenced by inline markers.
package report

// Kind identifies the variant of a content block.
type Kind string

const (
	KindTable   Kind = "table"
	KindStats   Kind = "stats"
	KindTrends  Kind = "trends"
	KindCards   Kind = "cards"
	KindNote    Kind = "note"
	KindDiagram Kind = "diagram"
	KindUnknown Kind = "unknown"
)

// Document is the root of a loaded report. It is treated as immutable once
// returned by a loader.
type Document struct {
	Title       string    `json:"title,omitempty" yaml:"title,omitempty"`
	Chapters    []Chapter `json:"chapters" yaml:"chapters"`
	Glossary    Glossary  `json:"glossary,omitempty" yaml:"glossary,omitempty"`
	Fingerprint string    `json:"-" yaml:"-"`
}

// Chapter is a top-level division of the report.
type Chapter struct {
	ID       string    `json:"id" yaml:"id"`
	Title    string    `json:"title" yaml:"title"`
	Sections []Section `json:"sections" yaml:"sections"`
}

// Section is an ordered run of content blocks under a heading.
type Section struct {
	Title   string  `json:"title" yaml:"title"`
	Content []Block `json:"content" yaml:"content"`
}

// Block is one typed unit of section content. The set of implementations is
// closed: only the types in this package satisfy it.
type Block interface {
	Kind() Kind
	block()
}

// Table is a header row plus data rows. Rows are expected to have one cell
// per header; see layout.Project for how mismatched rows are treated.
type Table struct {
	Subtitle string     `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Headers  []string   `json:"headers" yaml:"headers"`
	Rows     [][]string `json:"rows" yaml:"rows"`
}

// StatItem is a single headline figure.
type StatItem struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
}

// Stats is a grid of headline figures.
type Stats struct {
	Items []StatItem `json:"items" yaml:"items"`
}

// TrendItem is one numbered trend.
type TrendItem struct {
	Num         string `json:"num" yaml:"num"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// Trends is an ordered list of numbered trends.
type Trends struct {
	Items []TrendItem `json:"items" yaml:"items"`
}

// CardItem is a titled paragraph.
type CardItem struct {
	Title string `json:"title" yaml:"title"`
	Text  string `json:"text" yaml:"text"`
}

// Cards is a grid of titled paragraphs.
type Cards struct {
	Items []CardItem `json:"items" yaml:"items"`
}

// Note is a callout paragraph.
type Note struct {
	Text string `json:"text" yaml:"text"`
}

// Diagram is preformatted text.
type Diagram struct {
	Text string `json:"text" yaml:"text"`
}

// Unknown keeps a block whose type tag was not recognised at load time.
// It contributes no searchable text.
type Unknown struct {
	Type string `json:"type" yaml:"type"`
}

func (*Table) Kind() Kind   { return KindTable }
func (*Stats) Kind() Kind   { return KindStats }
func (*Trends) Kind() Kind  { return KindTrends }
func (*Cards) Kind() Kind   { return KindCards }
func (*Note) Kind() Kind    { return KindNote }
func (*Diagram) Kind() Kind { return KindDiagram }
func (*Unknown) Kind() Kind { return KindUnknown }

func (*Table) block()   {}
func (*Stats) block()   {}
func (*Trends) block()  {}
func (*Cards) block()   {}
func (*Note) block()    {}
func (*Diagram) block() {}
func (*Unknown) block() {}

// Glossary maps a term to its definition.
type Glossary map[string]string

// Lookup returns the definition for term. A missing term is not an error.
func (g Glossary) Lookup(term string) (string, bool) {
	def, ok := g[term]
	return def, ok
}

// Chapter returns the chapter with the given ID.
func (d *Document) Chapter(id string) (*Chapter, bool) {
	for i := range d.Chapters {
		if d.Chapters[i].ID == id {
			return &d.Chapters[i], true
		}
	}
	return nil, false
}

// Neighbors returns the IDs of the chapters before and after id, or empty
// strings at either end of the report.
func (d *Document) Neighbors(id string) (prev, next string) {
	for i := range d.Chapters {
		if d.Chapters[i].ID != id {
			continue
		}
		if i > 0 {
			prev = d.Chapters[i-1].ID
		}
		if i < len(d.Chapters)-1 {
			next = d.Chapters[i+1].ID
		}
		return prev, next
	}
	return "", ""
}
