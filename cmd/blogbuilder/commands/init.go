package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/scaffold"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite an existing configuration file and starter files"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	return RunInit(root.Config, i.Force)
}

// RunInit writes the example configuration and the starter source tree next
// to it.
func RunInit(configPath string, force bool) error {
	fmt.Printf("Writing configuration to %s\n", configPath)
	if err := config.Init(configPath, force); err != nil {
		return err
	}
	src := filepath.Join(filepath.Dir(configPath), "src")
	written, err := scaffold.WriteSource(src, force)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %d starter files to %s\n", len(written), src)
	return nil
}
