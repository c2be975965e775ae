package commands

import (
	"fmt"
	"log/slog"
	"os"

	foundationerrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/logfields"
	"git.home.luguber.info/inful/sitepipe/internal/orchestrator"
	"git.home.luguber.info/inful/sitepipe/internal/tasks"
)

// VisualizeCmd implements the 'visualize' command.
type VisualizeCmd struct {
	ModeFlag
	Format string `short:"f" help:"Output format: text, mermaid, dot, json" default:"text"`
	Output string `short:"o" help:"Output file path (optional, prints to stdout if not specified)"`
	List   bool   `short:"l" help:"List available formats and exit"`
}

func (cmd *VisualizeCmd) Run(_ *Global, root *CLI) error {
	if cmd.List {
		fmt.Println("Available visualization formats:")
		fmt.Println()
		for _, f := range tasks.SupportedFormats() {
			fmt.Printf("  %-10s %s\n", f, tasks.FormatDescription(f))
		}
		return nil
	}

	format, err := tasks.ParseFormat(cmd.Format)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryValidation, "unknown visualization format").Build()
	}

	mode, err := cmd.mode()
	if err != nil {
		return err
	}

	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	defs, err := orchestrator.New(cfg, tasks.Deps{}, nil).Table(mode)
	if err != nil {
		return err
	}
	output, err := tasks.Visualize(defs, mode, format)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryValidation, "failed to visualize task table").Build()
	}

	if cmd.Output != "" {
		if err := os.WriteFile(cmd.Output, []byte(output), 0o644); err != nil {
			return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to write output file").
				WithContext("path", cmd.Output).
				Build()
		}
		slog.Info("Task table written", logfields.File(cmd.Output), slog.String("format", cmd.Format))
		return nil
	}
	fmt.Print(output)
	return nil
}
