package main

import (
	"context"
	"flag"
	"io"
	"os"
	"path"

	"github.com/google/subcommands"

	"tcg-inventory-api/internal/app"
	"tcg-inventory-api/internal/cli"
	"tcg-inventory-api/internal/config"
	"tcg-inventory-api/internal/logging"
	"tcg-inventory-api/internal/service"
)

func main() {
	cfg := config.MustLoad()
	logging.Setup(cfg.Log)

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	cli.Register(commander, &cli.Env{
		Open: func(ctx context.Context) (*service.LedgerService, io.Closer, error) {
			// the CLI runs one command per process, no background audit
			cfg.Audit.Interval = 0
			a, err := app.New(ctx, cfg)
			if err != nil {
				return nil, nil, err
			}
			return a.Ledger, a, nil
		},
		In:  os.Stdin,
		Out: os.Stdout,
		Err: os.Stderr,
	})

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
