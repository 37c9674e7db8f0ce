package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/orgviz/cmd/orgviz/internal/commands"
	"github.com/wolfeidau/orgviz/internal/config"
	"github.com/wolfeidau/orgviz/internal/logger"
)

var (
	version = "dev"
	cli     struct {
		Visualise commands.VisualiseCmd `cmd:"" default:"withargs" help:"Discover the AWS organization and write an HTML visualisation (default)"`
		Snapshot  commands.SnapshotCmd  `cmd:"" help:"Work with stored organization snapshots"`
		LogLevel  string                `help:"Log level." enum:"DEBUG,INFO,WARNING,ERROR,CRITICAL" default:"ERROR"`
		Debug     bool                  `help:"Enable debug mode."`
		Version   kong.VersionFlag
	}
)

func main() {
	cmd := kong.Parse(&cli,
		kong.Description("Generate AWS Account/Org structure visualizations"),
		kong.Vars{
			"version": version,
		})

	level, err := config.ParseLogLevel(cli.LogLevel)
	cmd.FatalIfErrorf(err)
	if cli.Debug {
		level = zerolog.DebugLevel
	}

	log.Logger = logger.Setup(level, cli.Debug)

	ctx, stop := signal.NotifyContext(log.Logger.WithContext(context.Background()), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.BindTo(ctx, (*context.Context)(nil))
	err = cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
