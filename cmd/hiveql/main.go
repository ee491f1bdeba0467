// Package main provides the hiveql CLI tool.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rlch/hiveql"
	"github.com/rlch/hiveql/catalog/source"
	"github.com/rlch/hiveql/completion"
	"github.com/rlch/hiveql/internal/app"
)

var version = "dev"

func main() {
	root := &cli.Command{
		Name:    "hiveql",
		Version: version,
		Usage:   "Context-aware HiveQL completion",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to .hiveql.yaml (default: search upwards from the working directory)",
				Sources: cli.EnvVars("HIVEQL_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "override the configured log level (logs go to stderr)",
			},
		},
		Commands: []*cli.Command{
			completeCommand(),
			catalogCommand(),
			replCommand(),
		},
	}

	err := root.Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// env is what every command needs: the loaded config, a logger and an engine
// over the configured catalog.
type env struct {
	cfg     *hiveql.Config
	logger  *zap.Logger
	engine  *completion.Engine
	catalog *source.Catalog
}

func setup(ctx context.Context, cmd *cli.Command) (*env, error) {
	cfg, err := app.LoadConfig(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if l := cmd.String("log-level"); l != "" {
		level = l
	}

	logger, err := app.NewLogger(level)
	if err != nil {
		return nil, err
	}

	engine, cat, err := app.NewEngine(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	return &env{cfg: cfg, logger: logger, engine: engine, catalog: cat}, nil
}

func (e *env) Close() {
	_ = e.catalog.Close()
	_ = e.logger.Sync()
}
