package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/sitepipe/internal/pack"
)

// PackageCmd implements the 'package' command.
type PackageCmd struct {
	Output string `short:"o" help:"Archive path (defaults to paths.archive)"`
}

func (p *PackageCmd) Run(ctx context.Context, _ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	dest := cfg.Paths.Archive
	if p.Output != "" {
		dest = p.Output
	}
	sum, err := pack.Archive(ctx, cfg.Paths.Prod, dest)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%d files, %s)\n", sum.Path, sum.Entries, sum.Comment)
	return nil
}
