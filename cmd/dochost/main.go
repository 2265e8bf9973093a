package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/dochost/cmd/dochost/commands"
	"git.home.luguber.info/inful/dochost/internal/config"
	"git.home.luguber.info/inful/dochost/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("dochost"),
		kong.Description("Update, build and serve generated documentation for a set of git projects."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)

	if err := ctx.Run(&cli); err != nil {
		var cfgErr *config.Error
		if errors.As(err, &cfgErr) {
			fmt.Fprintf(os.Stderr, "dochost: configuration error: %v\n", cfgErr)
		} else {
			fmt.Fprintf(os.Stderr, "dochost: %v\n", err)
		}
		os.Exit(1)
	}
}
