package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/sitepipe/internal/orchestrator"
	"git.home.luguber.info/inful/sitepipe/internal/tasks"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	ModeFlag
	KeepGoing bool `name:"keep-going" help:"Exit 0 even when some files failed"`
}

func (b *BuildCmd) Run(ctx context.Context, _ *Global, root *CLI) error {
	mode, err := b.mode()
	if err != nil {
		return err
	}
	a, err := newApp(root)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.orch.Build(ctx, mode)
	printReport(report)
	if err != nil {
		return err
	}
	return failuresError(report.Failed(), b.KeepGoing)
}

func printReport(r orchestrator.BuildReport) {
	for _, res := range r.Results {
		printResult(res)
	}
	fmt.Printf("%s build: %d written, %d failed in %s\n", r.Mode, r.Written(), r.Failed(), r.Duration.Round(1e6))
}

func printResult(res tasks.Result) {
	fmt.Printf("  %-10s %3d written %3d skipped %3d failed\n", res.Task, len(res.Written), res.Skipped, len(res.Failures))
	for _, f := range res.Failures {
		fmt.Printf("    ! %s [%s]: %v\n", f.File, f.Stage, f.Err)
	}
}

// RunCmd implements the 'run' command.
type RunCmd struct {
	Task string `arg:"" help:"Task name" enum:"html,styles,images,svg-stack,svg-symbol,files,scripts,fonts"`
	ModeFlag
	KeepGoing bool `name:"keep-going" help:"Exit 0 even when some files failed"`
}

func (r *RunCmd) Run(ctx context.Context, _ *Global, root *CLI) error {
	mode, err := r.mode()
	if err != nil {
		return err
	}
	a, err := newApp(root)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.orch.RunTask(ctx, mode, r.Task)
	if err != nil {
		return err
	}
	printResult(res)
	return failuresError(len(res.Failures), r.KeepGoing)
}

// CleanCmd implements the 'clean' command.
type CleanCmd struct {
	ModeFlag
}

func (c *CleanCmd) Run(ctx context.Context, _ *Global, root *CLI) error {
	mode, err := c.mode()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	return orchestrator.Clean(ctx, cfg.OutputRoot(mode))
}

// FontsCmd implements the 'fonts' command.
type FontsCmd struct {
	ModeFlag
	KeepGoing bool `name:"keep-going" help:"Exit 0 even when some files failed"`
}

func (f *FontsCmd) Run(ctx context.Context, _ *Global, root *CLI) error {
	mode, err := f.mode()
	if err != nil {
		return err
	}
	a, err := newApp(root)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.orch.Fonts(ctx, mode)
	if err != nil {
		return err
	}
	printResult(res)
	return failuresError(len(res.Failures), f.KeepGoing)
}
