package schema

// Metadata represents a complete abstract schema for one metadata file
type Metadata struct {
	// FileID identifies the source document or database the schema came from
	FileID string
	// Tables holds the tables in discovery order
	Tables []Table
}

// Table represents a database table
type Table struct {
	Name        string
	Description string
	Columns     []Column
}

// Column represents a table column in dialect-independent form
type Column struct {
	Name         string
	DataType     string // abstract type name, matched case-insensitively
	IsPrimaryKey bool
	IsForeignKey bool
	IsNullable   bool
	IsUnique     bool
	// DefaultValue is emitted verbatim; empty means no default
	DefaultValue string
	// ReferencesTable and ReferencesColumn describe the foreign key target.
	// Either may be empty when discovery could not resolve it.
	ReferencesTable  string
	ReferencesColumn string
	Description      string
}

// HasReference reports whether both halves of the foreign key target are known.
func (c *Column) HasReference() bool {
	return c.ReferencesTable != "" && c.ReferencesColumn != ""
}

// AddTable appends t, or replaces an existing table with the same name in
// place. Replacement keeps the original position so table order stays stable.
func (m *Metadata) AddTable(t Table) {
	for i := range m.Tables {
		if m.Tables[i].Name == t.Name {
			m.Tables[i] = t
			return
		}
	}
	m.Tables = append(m.Tables, t)
}

// TotalColumns returns the number of columns across all tables.
func (m *Metadata) TotalColumns() int {
	n := 0
	for i := range m.Tables {
		n += len(m.Tables[i].Columns)
	}
	return n
}

// PrimaryKeys returns the primary key columns in declaration order.
func (t *Table) PrimaryKeys() []Column {
	var cols []Column
	for _, c := range t.Columns {
		if c.IsPrimaryKey {
			cols = append(cols, c)
		}
	}
	return cols
}

// ForeignKeys returns the columns flagged as foreign keys in declaration
// order, whether or not their reference target is complete.
func (t *Table) ForeignKeys() []Column {
	var cols []Column
	for _, c := range t.Columns {
		if c.IsForeignKey {
			cols = append(cols, c)
		}
	}
	return cols
}
