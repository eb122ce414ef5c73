package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"
)

var (
	configPath = flag.String("config", "", "path to the YAML config (defaults to $CONFIG_PATH, then configs/config.yaml)")
	dataPath   = flag.String("data", "", "ledger data file, overrides storage.data_file")
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	for _, c := range commands {
		commander.Register(c, "ledger")
	}
	commander.Register(&seedCmd{}, "maintenance")
	commander.Register(&exportCmd{}, "maintenance")
	commander.Register(&backupCmd{}, "maintenance")

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}
