package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/sitepipe/internal/config"
	foundationerrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/scaffold"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force    bool   `help:"Overwrite existing files"`
	Scaffold bool   `help:"Also write a starter src/ tree"`
	Output   string `short:"o" name:"output" help:"Directory for the generated project (defaults to the config file's directory)"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	cfgPath := root.Config
	if i.Output != "" {
		cfgPath = filepath.Join(i.Output, "sitepipe.yaml")
	}
	return RunInit(cfgPath, i.Force, i.Scaffold)
}

// RunInit writes the configuration and, when scaffold is set, the starter
// tree next to it.
func RunInit(configPath string, force, withScaffold bool) error {
	fmt.Println("Initializing sitepipe project")
	fmt.Printf("Writing configuration to %s\n", configPath)
	if err := config.Init(configPath, force); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to write configuration").
			WithContext("path", configPath).
			Build()
	}
	if withScaffold {
		written, err := scaffold.Write(filepath.Dir(configPath), force)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %d starter files\n", len(written))
	}
	fmt.Println("initialized successfully")
	return nil
}
