package catalog_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rlch/hiveql/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names[T any](items []T, name func(T) string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = name(item)
	}

	return out
}

func tableName(t catalog.Table) string   { return t.Name }
func columnName(c catalog.Column) string { return c.Name }
func dbName(d catalog.Database) string   { return d.Name }

func TestSnapshot_Lookups(t *testing.T) {
	t.Parallel()

	snap := catalog.NewSnapshot(catalog.Sample())

	tests := []struct {
		name     string
		got      []string
		expected []string
	}{
		{"databases", names(snap.ListDatabases(), dbName), []string{"school", "library"}},
		{"tables", names(snap.ListTables("school"), tableName), []string{"student", "course"}},
		{"columns", names(snap.ListColumns("school", "student"), columnName), []string{"id", "sex", "age", "name"}},
		{"unknown database", names(snap.ListTables("nope"), tableName), []string{}},
		{"unknown table", names(snap.ListColumns("school", "nope"), columnName), []string{}},
		{"empty database name", names(snap.ListTables(""), tableName), []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if diff := cmp.Diff(tt.expected, tt.got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}

	require.NotNil(t, snap.FindDatabase("library"))
	assert.Nil(t, snap.FindDatabase("nope"))
	require.NotNil(t, snap.FindTable("library", "book"))
	assert.Nil(t, snap.FindTable("school", "book"))

	col := snap.FindColumn("school", "course", "score")
	require.NotNil(t, col)
	assert.Equal(t, "score", col.Name)
	assert.Nil(t, snap.FindColumn("school", "course", "age"))
}

func TestSnapshot_IsolatedFromCallers(t *testing.T) {
	t.Parallel()

	dbs := catalog.Sample()
	snap := catalog.NewSnapshot(dbs)

	dbs[0].Tables[0].Columns[0].Name = "changed"

	tables := snap.ListTables("school")
	tables[0].Name = "changed"

	assert.Equal(t, "id", snap.ListColumns("school", "student")[0].Name)
	assert.Equal(t, "student", snap.ListTables("school")[0].Name)
}

func TestStore_Set(t *testing.T) {
	t.Parallel()

	store := catalog.NewStore(nil, catalog.Sample())
	assert.Len(t, store.ListDatabases(), 2)

	store.Set([]catalog.Database{{Name: "warehouse"}})

	assert.Equal(t, []string{"warehouse"}, names(store.ListDatabases(), dbName))
	assert.Nil(t, store.FindDatabase("school"))
	assert.Empty(t, store.ListTables("school"))
}

func TestStore_ConcurrentReaders(t *testing.T) {
	t.Parallel()

	store := catalog.NewStore(nil, catalog.Sample())

	var wg sync.WaitGroup

	for i := range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 100 {
				if i%2 == 0 {
					store.Set(catalog.Sample())
					continue
				}

				// Either the old or the new snapshot, never a mix.
				assert.Len(t, store.ListTables("school"), 2)
			}
		}()
	}

	wg.Wait()
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
databases:
  - name: school
    description: Teaching data.
    tables:
      - name: student
        columns:
          - name: id
            type: int
          - name: name
            type: string
`), 0o600))

	dbs, err := catalog.LoadFile(yamlPath)
	require.NoError(t, err)

	expected := []catalog.Database{{
		Name:        "school",
		Description: "Teaching data.",
		Tables: []catalog.Table{{
			Name: "student",
			Columns: []catalog.Column{
				{Name: "id", Type: "int"},
				{Name: "name", Type: "string"},
			},
		}},
	}}

	if diff := cmp.Diff(expected, dbs); diff != "" {
		t.Errorf("yaml catalog mismatch (-want +got):\n%s", diff)
	}

	jsonPath := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"databases": [{"name": "library", "tables": [{"name": "book"}]}]}`), 0o600))

	dbs, err = catalog.LoadFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"library"}, names(dbs, dbName))

	_, err = catalog.LoadFile(filepath.Join(dir, "catalog.toml"))
	require.ErrorIs(t, err, catalog.ErrUnknownFormat)

	_, err = catalog.LoadFile(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	_, err := catalog.Parse([]byte("databases:\n  - tables: []\n"))
	require.Error(t, err)

	_, err = catalog.Parse([]byte("databases: {"))
	require.Error(t, err)
}

func TestMarshal_RoundTrip(t *testing.T) {
	t.Parallel()

	data, err := catalog.Marshal(catalog.Sample())
	require.NoError(t, err)

	dbs, err := catalog.Parse(data)
	require.NoError(t, err)

	if diff := cmp.Diff(catalog.Sample(), dbs); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
