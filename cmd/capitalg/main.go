package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/robinvdvleuten/capitalg/cli"
	"github.com/robinvdvleuten/capitalg/config"
)

var (
	// Version contains the application version number. It's set via ldflags
	// when building.
	Version = ""

	// CommitSHA contains the SHA of the commit that this application was built
	// against. It's set via ldflags when building.
	CommitSHA = ""
)

type CLI struct {
	Version kong.VersionFlag `help:"Show version information"`
	cli.Commands
}

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	var app CLI
	ctx := kong.Parse(&app, options(&app)...)

	err := ctx.Run()
	var cmdErr *cli.CommandError
	if errors.As(err, &cmdErr) {
		os.Exit(cmdErr.ExitCode())
	}
	ctx.FatalIfErrorf(err)
}

func options(app *CLI) []kong.Option {
	return []kong.Option{
		kong.Vars{
			"version": buildVersion(),
		},
		kong.Name("capitalg"),
		kong.Description("A FIFO/LIFO capital gains calculator."),
		kong.Configuration(config.YAML, config.FileName),
		kong.UsageOnError(),
		kong.Bind(&app.Globals),
	}
}

func buildVersion() string {
	if Version == "" {
		Version = "dev"
	}
	if CommitSHA == "" {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, CommitSHA)
}
