// Package app wires configuration, logging, the catalog and the completion
// engine for the hiveql binaries.
package app

import (
	"context"
	"errors"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rlch/hiveql"
	"github.com/rlch/hiveql/catalog/source"
	"github.com/rlch/hiveql/completion"
)

// LoadConfig reads the config file at path, or searches upwards from the
// working directory when path is empty. A missing config yields the defaults.
func LoadConfig(path string) (*hiveql.Config, error) {
	if path != "" {
		return hiveql.LoadConfigFile(path)
	}

	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	cfg, err := hiveql.LoadConfig(dir)
	if errors.Is(err, hiveql.ErrConfigNotFound) {
		return hiveql.DefaultConfig(), nil
	}

	return cfg, err
}

// NewLogger builds a development logger writing to stderr, since stdout may
// carry protocol traffic or command output.
func NewLogger(level string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, err
		}
	}

	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(lvl)

	return config.Build()
}

// NewEngine opens the configured catalog and builds an engine over it. Close
// the returned catalog when done.
func NewEngine(ctx context.Context, cfg *hiveql.Config, logger *zap.Logger) (*completion.Engine, *source.Catalog, error) {
	cat, err := source.Open(ctx, cfg.Catalog, logger)
	if err != nil {
		return nil, nil, err
	}

	engine := completion.NewEngine(cat.Store,
		completion.WithLogger(logger.Named("completion")),
		completion.WithQualifiedTablePolicy(completion.ParsePolicy(cfg.Completion.QualifiedTables)),
	)

	return engine, cat, nil
}
