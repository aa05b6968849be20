package catalog

// ColumnType is the declared type of a dataset column
type ColumnType int

const (
	String ColumnType = iota
	Numeric
	Boolean
	Categorical
)

func (t ColumnType) String() string {
	switch t {
	case Numeric:
		return "numeric"
	case Boolean:
		return "boolean"
	case Categorical:
		return "categorical"
	default:
		return "string"
	}
}

// Ordered reports whether <, <=, > and >= are meaningful for the type.
func (t ColumnType) Ordered() bool {
	return t == Numeric || t == String
}

// Column is one schema entry. Index is the column's position in every row.
type Column struct {
	Name  string
	Type  ColumnType
	Index int
}

// Schema is the immutable, ordered set of columns available for filtering,
// together with the manifest's labels and projection.
type Schema struct {
	version    int
	columns    []Column
	byName     map[string]int
	labels     map[string]string
	projection []Projection
}

// NewSchema types each header column using the manifest. When a header
// repeats a name, the first occurrence wins for lookups.
func NewSchema(m *Manifest, header []string) *Schema {
	s := &Schema{
		version:    m.Version,
		columns:    make([]Column, len(header)),
		byName:     make(map[string]int, len(header)),
		labels:     m.Labels,
		projection: m.Projection,
	}
	for i, name := range header {
		s.columns[i] = Column{Name: name, Type: m.TypeOf(name), Index: i}
		if _, dup := s.byName[name]; !dup {
			s.byName[name] = i
		}
	}
	return s
}

func (s *Schema) Version() int { return s.version }

func (s *Schema) Len() int { return len(s.columns) }

// Columns returns a copy of the ordered column list.
func (s *Schema) Columns() []Column {
	out := make([]Column, len(s.columns))
	copy(out, s.columns)
	return out
}

// Names returns the column identifiers in schema order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.columns))
	for i, c := range s.columns {
		out[i] = c.Name
	}
	return out
}

// Lookup finds a column by its exact identifier.
func (s *Schema) Lookup(name string) (Column, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Column{}, false
	}
	return s.columns[i], true
}

// Label returns the display label for a column identifier. Identifiers
// without a label fall back to themselves.
func (s *Schema) Label(name string) string {
	if label, ok := s.labels[name]; ok && label != "" {
		return label
	}
	return name
}

// Projection returns the public field list in wire order.
func (s *Schema) Projection() []Projection {
	out := make([]Projection, len(s.projection))
	copy(out, s.projection)
	return out
}
