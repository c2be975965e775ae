// Package tasks defines the asset task table and the runner that executes
// any task definition.
//
// A task is a list of phases. Each phase selects source files, filters them
// through a pre-transform change detector, runs its stages on every file (or
// packs all files into a few outputs), filters the results through a
// post-transform detector and writes what is left. Stage failures are
// collected in the Result and never stop the run; failing to write output
// is fatal.
package tasks

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitepipe/internal/changed"
	"git.home.luguber.info/inful/sitepipe/internal/config"
	"git.home.luguber.info/inful/sitepipe/internal/glob"
	"git.home.luguber.info/inful/sitepipe/internal/metrics"
)

// Asset is one file moving through a phase.
type Asset struct {
	// Rel is the source path relative to the phase source root, slash separated.
	Rel string
	// Path is the source path on disk.
	Path    string
	Content []byte
	// Out is the output path relative to the phase output directory. Stages
	// may change it.
	Out string
}

// Stage transforms one asset in place.
type Stage interface {
	Name() string
	Apply(ctx context.Context, a *Asset) error
}

// Packer turns every selected asset of a phase into a fixed set of outputs.
type Packer interface {
	Name() string
	Pack(ctx context.Context, assets []*Asset) ([]*Asset, error)
}

type stageFunc struct {
	name string
	fn   func(context.Context, *Asset) error
}

func (s stageFunc) Name() string                              { return s.name }
func (s stageFunc) Apply(ctx context.Context, a *Asset) error { return s.fn(ctx, a) }

// StageFunc adapts a function to Stage.
func StageFunc(name string, fn func(ctx context.Context, a *Asset) error) Stage {
	return stageFunc{name: name, fn: fn}
}

// ContentStage adapts a byte transform to Stage.
func ContentStage(name string, fn func([]byte) ([]byte, error)) Stage {
	return StageFunc(name, func(_ context.Context, a *Asset) error {
		out, err := fn(a.Content)
		if err != nil {
			return err
		}
		a.Content = out
		return nil
	})
}

// TextStage adapts an infallible string transform to Stage.
func TextStage(name string, fn func(string) string) Stage {
	return StageFunc(name, func(_ context.Context, a *Asset) error {
		a.Content = []byte(fn(string(a.Content)))
		return nil
	})
}

type packFunc struct {
	name string
	fn   func(context.Context, []*Asset) ([]*Asset, error)
}

func (p packFunc) Name() string { return p.name }
func (p packFunc) Pack(ctx context.Context, assets []*Asset) ([]*Asset, error) {
	return p.fn(ctx, assets)
}

// PackFunc adapts a function to Packer.
func PackFunc(name string, fn func(ctx context.Context, assets []*Asset) ([]*Asset, error)) Packer {
	return packFunc{name: name, fn: fn}
}

// Phase is one select-transform-write pass of a task.
type Phase struct {
	Name   string
	Source glob.Selection
	OutDir string
	// OutName maps a source path to its output path; nil keeps the path.
	OutName func(rel string) string
	Pre     changed.Pre
	Post    changed.Post
	Stages  []Stage
	Pack    Packer
	// PackEmpty runs Pack even when no file is selected.
	PackEmpty bool
	// NamesOnly skips reading source content.
	NamesOnly bool
}

func (p *Phase) outName(rel string) string {
	if p.OutName == nil {
		return rel
	}
	return p.OutName(rel)
}

func (p *Phase) pre() changed.Pre {
	if p.Pre == nil {
		return changed.Always{}
	}
	return p.Pre
}

func (p *Phase) post() changed.Post {
	if p.Post == nil {
		return changed.Always{}
	}
	return p.Post
}

// TaskDef is one entry of the task table.
type TaskDef struct {
	Name string
	Mode config.Mode
	// Watch lists globs, relative to the source root, whose changes re-run the task.
	Watch  []string
	Phases []Phase
}

// Failure records a stage that failed on one file.
type Failure struct {
	Task  string
	File  string
	Stage string
	Err   error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %s [%s]: %v", f.Task, f.File, f.Stage, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Result summarizes one task run.
type Result struct {
	Task     string
	RunID    string
	Mode     config.Mode
	Written  []string
	Skipped  int
	Failures []Failure
	Duration time.Duration
}

// OK reports whether no file failed.
func (r Result) OK() bool { return len(r.Failures) == 0 }

// Outcome classifies a completed run for metrics.
func (r Result) Outcome() metrics.ResultLabel {
	if r.OK() {
		return metrics.ResultSuccess
	}
	return metrics.ResultPartial
}

// Changed reports whether the run wrote anything.
func (r Result) Changed() bool { return len(r.Written) > 0 }

// ReplaceExt returns an OutName that swaps the extension of rel for ext.
func ReplaceExt(ext string) func(string) string {
	return func(rel string) string {
		return strings.TrimSuffix(rel, path.Ext(rel)) + ext
	}
}
