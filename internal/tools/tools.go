// Package tools runs the external binaries the pipeline delegates to
// (sass, cwebp, otf2ttf, woff2_compress).
package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	foundationerrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/logfields"
)

// ErrBinaryNotFound is wrapped when a tool is not on PATH.
var ErrBinaryNotFound = errors.New("tool binary not found")

// Invocation describes one external command.
type Invocation struct {
	Binary string
	Args   []string
	Dir    string
	Stdin  []byte
}

// Runner abstracts how an external tool is executed so transforms can be
// tested without the binaries installed.
type Runner interface {
	Run(ctx context.Context, inv Invocation) ([]byte, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, inv Invocation) ([]byte, error)

func (f RunnerFunc) Run(ctx context.Context, inv Invocation) ([]byte, error) { return f(ctx, inv) }

// BinaryRunner invokes binaries with os/exec and returns their stdout.
type BinaryRunner struct {
	Logger *slog.Logger
}

func (b BinaryRunner) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

func (b BinaryRunner) Run(ctx context.Context, inv Invocation) ([]byte, error) {
	path, err := exec.LookPath(inv.Binary)
	if err != nil {
		return nil, foundationerrors.WrapError(fmt.Errorf("%w: %w", ErrBinaryNotFound, err), foundationerrors.CategoryTool,
			fmt.Sprintf("%s is not installed or not on PATH", inv.Binary)).
			WithContext("tool", inv.Binary).
			Build()
	}

	cmd := exec.CommandContext(ctx, path, inv.Args...)
	cmd.Dir = inv.Dir
	if inv.Stdin != nil {
		cmd.Stdin = bytes.NewReader(inv.Stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	b.logger().Debug("Invoking tool", logfields.Tool(inv.Binary), slog.Any("args", inv.Args))

	if err := cmd.Run(); err != nil {
		// Tools report errors on either stream
		output := strings.TrimSpace(stderr.String())
		if output == "" {
			output = strings.TrimSpace(stdout.String())
		}
		if output != "" {
			err = fmt.Errorf("%w: %s", err, output)
		}
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryTool, inv.Binary+" failed").
			WithContext("tool", inv.Binary).
			Build()
	}
	if s := strings.TrimSpace(stderr.String()); s != "" {
		b.logger().Debug("Tool stderr", logfields.Tool(inv.Binary), slog.String("output", s))
	}
	return stdout.Bytes(), nil
}

// Scratch is a temporary directory for tools that only work on files.
type Scratch struct {
	Dir string
}

// NewScratch creates a scratch directory.
func NewScratch(prefix string) (*Scratch, error) {
	dir, err := os.MkdirTemp("", "sitepipe-"+prefix+"-")
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "create scratch dir").Build()
	}
	return &Scratch{Dir: dir}, nil
}

// Put writes data under name and returns its path.
func (s *Scratch) Put(name string, data []byte) (string, error) {
	p := filepath.Join(s.Dir, filepath.Base(name))
	if err := os.WriteFile(p, data, 0o600); err != nil {
		return "", err
	}
	return p, nil
}

// Path returns the path of name inside the scratch directory.
func (s *Scratch) Path(name string) string { return filepath.Join(s.Dir, filepath.Base(name)) }

// Read returns the content of name.
func (s *Scratch) Read(name string) ([]byte, error) { return os.ReadFile(s.Path(name)) }

// Close removes the scratch directory.
func (s *Scratch) Close() error { return os.RemoveAll(s.Dir) }

// RunFile copies data into a scratch directory as inName, runs the
// invocation built by args (given the scratch input and output paths) and
// returns the content of outName.
func RunFile(ctx context.Context, r Runner, binary string, inName string, data []byte, outName string,
	args func(in, out string) []string,
) ([]byte, error) {
	scratch, err := NewScratch(filepath.Base(binary))
	if err != nil {
		return nil, err
	}
	defer func() { _ = scratch.Close() }()

	in, err := scratch.Put(inName, data)
	if err != nil {
		return nil, err
	}
	out := scratch.Path(outName)
	if _, err := r.Run(ctx, Invocation{Binary: binary, Args: args(in, out), Dir: scratch.Dir}); err != nil {
		return nil, err
	}
	result, err := os.ReadFile(out)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryTool,
			fmt.Sprintf("%s produced no %s", binary, outName)).Build()
	}
	return result, nil
}
