package database

// Column is how the schema sidebar and the query builder palette see a column.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"` // full column type, e.g. varchar(255)
	Key  string `json:"key"`  // PRI, UNI, MUL or empty
}

// Table is one base table with its columns in ordinal order.
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// ForeignKey describes a relationship between two tables
type ForeignKey struct {
	Table     string `json:"table"`
	Column    string `json:"column"`
	RefTable  string `json:"refTable"`
	RefColumn string `json:"refColumn"`
}

// Schema is the full introspected database schema.
type Schema struct {
	Tables      []Table      `json:"tables"`
	ForeignKeys []ForeignKey `json:"foreignKeys"`
}

// Table looks a table up by name.
func (s *Schema) Table(name string) (*Table, bool) {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i], true
		}
	}
	return nil, false
}

// ColumnsByTable is the `{table: [columns]}` shape the browser consumes.
func (s *Schema) ColumnsByTable() map[string][]Column {
	out := make(map[string][]Column, len(s.Tables))
	for _, t := range s.Tables {
		out[t.Name] = t.Columns
	}
	return out
}
