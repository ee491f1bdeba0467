package catalog

import "slices"

// Snapshot is an immutable catalog. It is safe for concurrent use.
type Snapshot struct {
	databases []Database
	index     map[string]int
}

var _ Provider = (*Snapshot)(nil)

// NewSnapshot builds a snapshot over a deep copy of dbs. When names repeat, the
// first occurrence wins for lookups.
func NewSnapshot(dbs []Database) *Snapshot {
	s := &Snapshot{
		databases: make([]Database, len(dbs)),
		index:     make(map[string]int, len(dbs)),
	}

	for i, db := range dbs {
		db.Tables = slices.Clone(db.Tables)
		for j := range db.Tables {
			db.Tables[j].Columns = slices.Clone(db.Tables[j].Columns)
		}

		s.databases[i] = db

		if _, ok := s.index[db.Name]; !ok {
			s.index[db.Name] = i
		}
	}

	return s
}

// ListDatabases returns every database in declaration order.
func (s *Snapshot) ListDatabases() []Database {
	return slices.Clone(s.databases)
}

// ListTables returns the tables of database, or nil if it is unknown.
func (s *Snapshot) ListTables(database string) []Table {
	db := s.FindDatabase(database)
	if db == nil {
		return nil
	}

	return slices.Clone(db.Tables)
}

// ListColumns returns the columns of database.table, or nil if either is unknown.
func (s *Snapshot) ListColumns(database, table string) []Column {
	t := s.FindTable(database, table)
	if t == nil {
		return nil
	}

	return slices.Clone(t.Columns)
}

// FindDatabase returns the named database or nil.
func (s *Snapshot) FindDatabase(name string) *Database {
	i, ok := s.index[name]
	if !ok {
		return nil
	}

	db := s.databases[i]

	return &db
}

// FindTable returns database.table or nil.
func (s *Snapshot) FindTable(database, table string) *Table {
	i, ok := s.index[database]
	if !ok {
		return nil
	}

	for _, t := range s.databases[i].Tables {
		if t.Name == table {
			return &t
		}
	}

	return nil
}

// FindColumn returns database.table.column or nil.
func (s *Snapshot) FindColumn(database, table, column string) *Column {
	t := s.FindTable(database, table)
	if t == nil {
		return nil
	}

	for _, c := range t.Columns {
		if c.Name == column {
			return &c
		}
	}

	return nil
}

// Databases returns a copy of the snapshot contents, suitable for re-serialising.
func (s *Snapshot) Databases() []Database {
	return s.ListDatabases()
}
