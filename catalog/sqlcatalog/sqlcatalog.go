// Package sqlcatalog builds catalogs by introspecting a live SQL database.
//
// PostgreSQL schemas, MySQL databases and SQLite attached databases all map
// to catalog databases.
package sqlcatalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rlch/hiveql/catalog"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// ErrUnsupportedEngine is returned for engines without an introspection dialect.
var ErrUnsupportedEngine = errors.New("unsupported engine")

var driverName = map[string]string{
	"postgres": "pgx",
	"mysql":    "mysql",
	"sqlite":   "sqlite",
}

// DefaultConcurrency bounds concurrent column queries.
const DefaultConcurrency = 4

// Loader reads catalog metadata from a database connection.
type Loader struct {
	db          *sql.DB
	dialect     dialect
	logger      *zap.Logger
	concurrency int
	ownsDB      bool
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// WithConcurrency bounds concurrent column queries. Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// Open connects to the database and returns a Loader that closes it on Close.
func Open(ctx context.Context, engine, dsn string, opts ...Option) (*Loader, error) {
	driver, ok := driverName[engine]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEngine, engine)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	err = db.PingContext(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	l, err := New(db, engine, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	l.ownsDB = true

	return l, nil
}

// New wraps an existing connection. The caller keeps ownership of db.
func New(db *sql.DB, engine string, opts ...Option) (*Loader, error) {
	d, ok := dialects[engine]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEngine, engine)
	}

	l := &Loader{
		db:          db,
		dialect:     d,
		logger:      zap.NewNop(),
		concurrency: DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// Load introspects every database, table and column.
func (l *Loader) Load(ctx context.Context) ([]catalog.Database, error) {
	names, err := l.strings(ctx, l.dialect.databases())
	if err != nil {
		return nil, fmt.Errorf("list databases: %w", err)
	}

	dbs := make([]catalog.Database, len(names))

	for i, name := range names {
		tables, err := l.strings(ctx, l.dialect.tables(name))
		if err != nil {
			return nil, fmt.Errorf("list tables of %s: %w", name, err)
		}

		dbs[i] = catalog.Database{Name: name, Tables: make([]catalog.Table, len(tables))}
		for j, t := range tables {
			dbs[i].Tables[j].Name = t
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	for i := range dbs {
		for j := range dbs[i].Tables {
			g.Go(func() error {
				db, table := dbs[i].Name, dbs[i].Tables[j].Name

				cols, err := l.columns(ctx, db, table)
				if err != nil {
					return fmt.Errorf("list columns of %s.%s: %w", db, table, err)
				}

				dbs[i].Tables[j].Columns = cols

				return nil
			})
		}
	}

	err = g.Wait()
	if err != nil {
		return nil, err
	}

	l.logger.Debug("introspected catalog", zap.String("engine", l.dialect.name), zap.Int("databases", len(dbs)))

	return dbs, nil
}

// Close closes the connection if the Loader opened it.
func (l *Loader) Close() error {
	if !l.ownsDB {
		return nil
	}

	return l.db.Close()
}

func (l *Loader) strings(ctx context.Context, q query) ([]string, error) {
	rows, err := l.db.QueryContext(ctx, q.sql, q.args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []string

	for rows.Next() {
		dest := make([]any, len(cols))
		for i := range dest {
			dest[i] = new(sql.RawBytes)
		}

		err := rows.Scan(dest...)
		if err != nil {
			return nil, err
		}

		out = append(out, string(*dest[q.col].(*sql.RawBytes)))
	}

	return out, rows.Err()
}

func (l *Loader) columns(ctx context.Context, db, table string) ([]catalog.Column, error) {
	q := l.dialect.columns(db, table)

	rows, err := l.db.QueryContext(ctx, q.sql, q.args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var cols []catalog.Column

	for rows.Next() {
		dest := make([]any, len(names))
		for i := range dest {
			dest[i] = new(sql.NullString)
		}

		err := rows.Scan(dest...)
		if err != nil {
			return nil, err
		}

		cols = append(cols, catalog.Column{
			Name: dest[q.col].(*sql.NullString).String,
			Type: strings.ToLower(dest[q.typeCol].(*sql.NullString).String),
		})
	}

	return cols, rows.Err()
}
