package catalog

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// Store is a Provider whose contents can be replaced wholesale at any time.
// Every lookup reads the snapshot current at the moment of the call.
type Store struct {
	current atomic.Pointer[Snapshot]
	logger  *zap.Logger
}

var _ Provider = (*Store)(nil)

// NewStore creates a store holding dbs. A nil logger disables logging.
func NewStore(logger *zap.Logger, dbs []Database) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{logger: logger}
	s.current.Store(NewSnapshot(dbs))

	return s
}

// Set replaces the catalog. Concurrent calls resolve last-write-wins.
func (s *Store) Set(dbs []Database) {
	s.current.Store(NewSnapshot(dbs))
	s.logger.Debug("catalog replaced", zap.Int("databases", len(dbs)))
}

// Snapshot returns the current snapshot.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

func (s *Store) ListDatabases() []Database {
	return s.Snapshot().ListDatabases()
}

func (s *Store) ListTables(database string) []Table {
	return s.Snapshot().ListTables(database)
}

func (s *Store) ListColumns(database, table string) []Column {
	return s.Snapshot().ListColumns(database, table)
}

func (s *Store) FindDatabase(name string) *Database {
	return s.Snapshot().FindDatabase(name)
}

func (s *Store) FindTable(database, table string) *Table {
	return s.Snapshot().FindTable(database, table)
}

func (s *Store) FindColumn(database, table, column string) *Column {
	return s.Snapshot().FindColumn(database, table, column)
}
