// Package source opens the catalog described by a config: the built-in
// sample, a catalog file (optionally watched for changes) or a live SQL
// database.
package source

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rlch/hiveql"
	"github.com/rlch/hiveql/catalog"
	"github.com/rlch/hiveql/catalog/sqlcatalog"
)

// ErrUnknownSource is returned for a source kind Open does not know.
var ErrUnknownSource = errors.New("unknown catalog source")

// Catalog is an open catalog. Store serves lookups for as long as the catalog
// is open; a watched file keeps replacing its contents.
type Catalog struct {
	Store *catalog.Store

	watcher *catalog.Watcher
	cancel  context.CancelFunc
	done    chan error
}

// Open loads the catalog cfg describes.
func Open(ctx context.Context, cfg hiveql.CatalogConfig, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	filter, err := catalog.CompileFilter(cfg.Filter)
	if err != nil {
		return nil, err
	}

	store := catalog.NewStore(logger.Named("catalog"), nil)
	c := &Catalog{Store: store}

	switch cfg.Source {
	case hiveql.SourceStatic, "":
		dbs, err := filter.Apply(catalog.Sample())
		if err != nil {
			return nil, err
		}

		store.Set(dbs)

	case hiveql.SourceFile:
		if err := c.openFile(ctx, cfg, filter, logger); err != nil {
			return nil, err
		}

	case hiveql.SourceSQL:
		dbs, err := loadSQL(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}

		if dbs, err = filter.Apply(dbs); err != nil {
			return nil, err
		}

		store.Set(dbs)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, cfg.Source)
	}

	logger.Info("catalog opened",
		zap.String("source", cfg.Source),
		zap.Int("databases", len(store.ListDatabases())),
		zap.Bool("watching", c.watcher != nil))

	return c, nil
}

func (c *Catalog) openFile(ctx context.Context, cfg hiveql.CatalogConfig, filter *catalog.Filter, logger *zap.Logger) error {
	w, err := catalog.NewWatcher(cfg.Path, c.Store, logger.Named("watch"), catalog.WithFilter(filter))
	if err != nil {
		return fmt.Errorf("watch catalog: %w", err)
	}

	if err := w.Reload(); err != nil {
		_ = w.Close()
		return fmt.Errorf("load catalog %s: %w", cfg.Path, err)
	}

	if !cfg.Watch {
		return w.Close()
	}

	ctx, cancel := context.WithCancel(ctx)

	c.watcher = w
	c.cancel = cancel
	c.done = make(chan error, 1)

	go func() {
		c.done <- w.Run(ctx)
	}()

	return nil
}

func loadSQL(ctx context.Context, cfg hiveql.CatalogConfig, logger *zap.Logger) ([]catalog.Database, error) {
	loader, err := sqlcatalog.Open(ctx, cfg.Engine, cfg.DSN, sqlcatalog.WithLogger(logger.Named("sql")))
	if err != nil {
		return nil, err
	}
	defer loader.Close()

	return loader.Load(ctx)
}

// Close stops watching. It is safe to call on any catalog.
func (c *Catalog) Close() error {
	if c.watcher == nil {
		return nil
	}

	c.cancel()
	err := <-c.done

	closeErr := c.watcher.Close()
	c.watcher = nil

	if errors.Is(err, context.Canceled) {
		err = nil
	}

	return errors.Join(err, closeErr)
}
