package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/rlch/hiveql/catalog"
)

func catalogCommand() *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Print the configured catalog as a YAML catalog file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "write to a file instead of stdout",
			},
		},
		Action: runCatalog,
	}
}

func runCatalog(ctx context.Context, cmd *cli.Command) error {
	e, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	data, err := catalog.Marshal(e.catalog.Store.Snapshot().Databases())
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		return os.WriteFile(path, data, 0o600)
	}

	_, err = os.Stdout.Write(data)

	return err
}
