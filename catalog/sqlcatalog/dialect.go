package sqlcatalog

import "strings"

// query is a statement plus the result column holding the wanted value.
type query struct {
	sql     string
	args    []any
	col     int // name column
	typeCol int // data type column, columns queries only
}

type dialect struct {
	name      string
	databases func() query
	tables    func(db string) query
	columns   func(db, table string) query
}

var dialects = map[string]dialect{
	"postgres": {
		name: "postgres",
		databases: func() query {
			return query{sql: `SELECT schema_name FROM information_schema.schemata
				WHERE schema_name NOT IN ('pg_catalog', 'information_schema')
				AND schema_name NOT LIKE 'pg_toast%' AND schema_name NOT LIKE 'pg_temp%'
				ORDER BY schema_name`}
		},
		tables: func(db string) query {
			return query{
				sql:  `SELECT table_name FROM information_schema.tables WHERE table_schema = $1 ORDER BY table_name`,
				args: []any{db},
			}
		},
		columns: func(db, table string) query {
			return query{
				sql: `SELECT column_name, data_type FROM information_schema.columns
					WHERE table_schema = $1 AND table_name = $2 ORDER BY ordinal_position`,
				args:    []any{db, table},
				typeCol: 1,
			}
		},
	},
	"mysql": {
		name: "mysql",
		databases: func() query {
			return query{sql: `SELECT schema_name FROM information_schema.schemata
				WHERE schema_name NOT IN ('mysql', 'information_schema', 'performance_schema', 'sys')
				ORDER BY schema_name`}
		},
		tables: func(db string) query {
			return query{
				sql:  `SELECT table_name FROM information_schema.tables WHERE table_schema = ? ORDER BY table_name`,
				args: []any{db},
			}
		},
		columns: func(db, table string) query {
			return query{
				sql: `SELECT column_name, data_type FROM information_schema.columns
					WHERE table_schema = ? AND table_name = ? ORDER BY ordinal_position`,
				args:    []any{db, table},
				typeCol: 1,
			}
		},
	},
	// SQLite has no information_schema; PRAGMAs take identifiers, not parameters.
	"sqlite": {
		name: "sqlite",
		databases: func() query {
			// seq, name, file
			return query{sql: `PRAGMA database_list`, col: 1}
		},
		tables: func(db string) query {
			return query{sql: `SELECT name FROM ` + quoteIdent(db) + `.sqlite_master
				WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%' ORDER BY name`}
		},
		columns: func(db, table string) query {
			// cid, name, type, notnull, dflt_value, pk
			return query{
				sql:     `PRAGMA ` + quoteIdent(db) + `.table_info(` + quoteIdent(table) + `)`,
				col:     1,
				typeCol: 2,
			}
		},
	},
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
