package commands

import (
	"fmt"

	"git.home.luguber.info/inful/dochost/internal/config"
)

// InitCmd writes a commented example configuration file.
type InitCmd struct {
	Force bool `short:"f" help:"Overwrite an existing configuration file"`
}

func (i *InitCmd) Run(cli *CLI) error {
	if err := config.Init(cli.Config, i.Force); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", cli.Config)
	return nil
}
