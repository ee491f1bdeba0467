// Package catalog provides the database metadata that completion draws table
// and column names from.
//
// A Snapshot is an immutable view of databases, tables and columns. A Store
// holds the current Snapshot and swaps it atomically when the metadata source
// reloads, so readers never observe a partially updated catalog.
package catalog

// Database is a named collection of tables.
type Database struct {
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description,omitempty" json:"description,omitempty"`
	Tables      []Table `yaml:"tables,omitempty" json:"tables,omitempty"`
}

// Table is a named collection of columns.
type Table struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Columns     []Column `yaml:"columns,omitempty" json:"columns,omitempty"`
}

// Column is a single table column.
type Column struct {
	Name        string `yaml:"name" json:"name"`
	Type        string `yaml:"type,omitempty" json:"type,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Provider answers catalog queries. Lookups of unknown names return an empty
// list or nil rather than an error.
type Provider interface {
	ListDatabases() []Database
	ListTables(database string) []Table
	ListColumns(database, table string) []Column
	FindDatabase(name string) *Database
	FindTable(database, table string) *Table
	FindColumn(database, table, column string) *Column
}

// Empty is a Provider with no databases.
var Empty Provider = NewSnapshot(nil)

// Sample returns the catalog used in examples and tests: a school database
// with student and course tables and a library database with user and book.
func Sample() []Database {
	return []Database{
		{
			Name: "school",
			Tables: []Table{
				{Name: "student", Columns: columns("id", "sex", "age", "name")},
				{Name: "course", Columns: columns("id", "name", "hour", "score")},
			},
		},
		{
			Name: "library",
			Tables: []Table{
				{Name: "user", Columns: columns("userid", "password")},
				{Name: "book", Columns: columns("bookid", "bookname")},
			},
		},
	}
}

func columns(names ...string) []Column {
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = Column{Name: n}
	}

	return cols
}
