package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ErrFilterNotBool is returned when a filter evaluates to a non-boolean value.
var ErrFilterNotBool = errors.New("filter did not return a boolean")

// Filter decides which databases and tables of a catalog are kept.
//
// The expression sees three variables: kind ("database" or "table"),
// database and table. It runs once per database with table set to "" and
// once per table of every database that was kept, for example:
//
//	not (database startsWith "tmp_") and table != "audit_log"
type Filter struct {
	source  string
	program *vm.Program
}

func filterEnv(kind, database, table string) map[string]any {
	return map[string]any{
		"kind":     kind,
		"database": database,
		"table":    table,
	}
}

// CompileFilter compiles a filter expression. An empty expression keeps everything
// and yields a nil Filter.
func CompileFilter(source string) (*Filter, error) {
	if strings.TrimSpace(source) == "" {
		return nil, nil //nolint:nilnil // nil filter is a valid no-op
	}

	program, err := expr.Compile(source, expr.Env(filterEnv("", "", "")), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", source, err)
	}

	return &Filter{source: source, program: program}, nil
}

// String returns the filter expression.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}

	return f.source
}

// Apply returns the databases and tables the filter keeps. A nil Filter keeps all.
func (f *Filter) Apply(dbs []Database) ([]Database, error) {
	if f == nil {
		return dbs, nil
	}

	kept := make([]Database, 0, len(dbs))

	for _, db := range dbs {
		ok, err := f.eval(filterEnv("database", db.Name, ""))
		if err != nil {
			return nil, err
		}

		if !ok {
			continue
		}

		tables := make([]Table, 0, len(db.Tables))

		for _, t := range db.Tables {
			ok, err := f.eval(filterEnv("table", db.Name, t.Name))
			if err != nil {
				return nil, err
			}

			if ok {
				tables = append(tables, t)
			}
		}

		db.Tables = tables
		kept = append(kept, db)
	}

	return kept, nil
}

func (f *Filter) eval(env map[string]any) (bool, error) {
	output, err := expr.Run(f.program, env)
	if err != nil {
		return false, fmt.Errorf("evaluate filter %q: %w", f.source, err)
	}

	passed, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q returned %T", ErrFilterNotBool, f.source, output)
	}

	return passed, nil
}
