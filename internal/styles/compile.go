package styles

import (
	"context"
	"path/filepath"

	"git.home.luguber.info/inful/sitepipe/internal/tools"
)

// Compiler turns SASS source into CSS.
type Compiler interface {
	Compile(ctx context.Context, file string, src []byte) ([]byte, error)
}

// BinaryCompiler runs the dart-sass CLI reading the source from stdin.
type BinaryCompiler struct {
	Runner tools.Runner
	Binary string
	// LoadPaths are searched after the directory of the compiled file.
	LoadPaths []string
	// SourceMap embeds an inline source map in the output.
	SourceMap bool
}

func (c BinaryCompiler) Compile(ctx context.Context, file string, src []byte) ([]byte, error) {
	args := []string{"--stdin", "--style=expanded", "--load-path=" + filepath.Dir(file)}
	for _, p := range c.LoadPaths {
		args = append(args, "--load-path="+p)
	}
	if c.SourceMap {
		args = append(args, "--embed-source-map", "--embed-sources")
	} else {
		args = append(args, "--no-source-map")
	}
	return c.Runner.Run(ctx, tools.Invocation{Binary: c.Binary, Args: args, Stdin: src})
}
