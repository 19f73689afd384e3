package main

import (
	"os"

	"github.com/alecthomas/kong"

	"github.com/bobarin/voiceclone/internal/logger"
)

var version = "dev"

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("voiceclone"),
		kong.Description("Zero-shot voice cloning text-to-speech: HTTP service, terminal studio and one-shot CLI."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	if err := ctx.Run(&cli.Globals); err != nil {
		logger.Errorf("%v", err)
		logger.Sync()
		os.Exit(1)
	}
}
