package catalog_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rlch/hiveql/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_Apply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		expr     string
		expected map[string][]string
	}{
		{
			name: "empty keeps everything",
			expr: "",
			expected: map[string][]string{
				"school":  {"student", "course"},
				"library": {"user", "book"},
			},
		},
		{
			name: "drop a database",
			expr: `database != "library"`,
			expected: map[string][]string{
				"school": {"student", "course"},
			},
		},
		{
			name: "drop a table",
			expr: `kind == "database" or table != "user"`,
			expected: map[string][]string{
				"school":  {"student", "course"},
				"library": {"book"},
			},
		},
		{
			name: "prefix match",
			expr: `not (table startsWith "c")`,
			expected: map[string][]string{
				"school":  {"student"},
				"library": {"user", "book"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, err := catalog.CompileFilter(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.expr, f.String())

			dbs, err := f.Apply(catalog.Sample())
			require.NoError(t, err)

			got := make(map[string][]string, len(dbs))
			for _, db := range dbs {
				got[db.Name] = names(db.Tables, tableName)
			}

			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("filtered catalog mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompileFilter_Errors(t *testing.T) {
	t.Parallel()

	_, err := catalog.CompileFilter(`database +`)
	require.Error(t, err)

	_, err = catalog.CompileFilter(`owner == "bob"`)
	require.Error(t, err, "unknown variable")

	_, err = catalog.CompileFilter(`database`)
	require.Error(t, err, "non-boolean result")
}
