package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	foundationerrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/logfields"
	"git.home.luguber.info/inful/sitepipe/internal/observability"
)

// Runner executes task definitions. It holds no per-run state and may run
// different tasks concurrently.
type Runner struct{}

// NewRunner returns a Runner.
func NewRunner() *Runner { return &Runner{} }

// Run executes every phase of def in order. The returned error is non-nil
// only for fatal conditions: an unreadable source root, a failed write or
// cancellation. Per-file stage failures are in Result.Failures.
func (r *Runner) Run(ctx context.Context, def TaskDef) (Result, error) {
	start := time.Now()
	res := Result{Task: def.Name, RunID: uuid.NewString(), Mode: def.Mode}
	ctx = observability.WithRunID(ctx, res.RunID)
	ctx = observability.WithTask(ctx, def.Name)
	ctx = observability.WithMode(ctx, def.Mode.String())

	observability.DebugContext(ctx, "Task started")
	for i := range def.Phases {
		if err := r.runPhase(ctx, def, &def.Phases[i], &res); err != nil {
			res.Duration = time.Since(start)
			return res, err
		}
	}
	res.Duration = time.Since(start)

	observability.InfoContext(ctx, "Task finished",
		logfields.Written(len(res.Written)),
		logfields.Skipped(res.Skipped),
		logfields.Failed(len(res.Failures)),
		logfields.DurationMS(float64(res.Duration)/float64(time.Millisecond)))
	return res, nil
}

func (r *Runner) runPhase(ctx context.Context, def TaskDef, p *Phase, res *Result) error {
	if p.Name != "" {
		ctx = observability.WithStage(ctx, p.Name)
	}
	files, err := p.Source.Files()
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "select sources").
			WithContext("task", def.Name).
			WithContext("path", p.Source.Root).
			Build()
	}
	pre := p.pre()
	if err := pre.Scan(); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "scan dependencies").
			WithContext("task", def.Name).
			Build()
	}
	if p.Pack != nil {
		return r.runPack(ctx, def, p, files, res)
	}

	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		a := &Asset{Rel: rel, Path: filepath.Join(p.Source.Root, filepath.FromSlash(rel)), Out: p.outName(rel)}
		need, err := pre.NeedsProcessing(a.Path, filepath.Join(p.OutDir, filepath.FromSlash(a.Out)))
		if err != nil {
			r.fail(ctx, def, res, rel, "changed", err)
			continue
		}
		if !need {
			res.Skipped++
			continue
		}
		if !r.load(ctx, def, p, a, res) || !r.applyStages(ctx, def, p, a, res) {
			continue
		}
		if err := r.emit(ctx, def, p, a, res); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runPack(ctx context.Context, def TaskDef, p *Phase, files []string, res *Result) error {
	if len(files) == 0 && !p.PackEmpty {
		return nil
	}
	assets := make([]*Asset, 0, len(files))
	for _, rel := range files {
		a := &Asset{Rel: rel, Path: filepath.Join(p.Source.Root, filepath.FromSlash(rel)), Out: p.outName(rel)}
		if !r.load(ctx, def, p, a, res) || !r.applyStages(ctx, def, p, a, res) {
			continue
		}
		assets = append(assets, a)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	outs, err := p.Pack.Pack(observability.WithStage(ctx, p.Pack.Name()), assets)
	if err != nil {
		r.fail(ctx, def, res, p.Source.Root, p.Pack.Name(), err)
		return nil
	}
	for _, a := range outs {
		if err := r.emit(ctx, def, p, a, res); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) load(ctx context.Context, def TaskDef, p *Phase, a *Asset, res *Result) bool {
	if p.NamesOnly {
		return true
	}
	data, err := os.ReadFile(a.Path)
	if err != nil {
		r.fail(ctx, def, res, a.Rel, "read", err)
		return false
	}
	a.Content = data
	return true
}

func (r *Runner) applyStages(ctx context.Context, def TaskDef, p *Phase, a *Asset, res *Result) bool {
	for _, s := range p.Stages {
		if err := s.Apply(observability.WithStage(ctx, s.Name()), a); err != nil {
			r.fail(ctx, def, res, a.Rel, s.Name(), err)
			return false
		}
	}
	return true
}

func (r *Runner) emit(ctx context.Context, def TaskDef, p *Phase, a *Asset, res *Result) error {
	dest := filepath.Join(p.OutDir, filepath.FromSlash(a.Out))
	post := p.post()
	need, err := post.NeedsWrite(dest, a.Content)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "inspect output").
			WithContext("task", def.Name).
			WithContext("path", dest).
			Build()
	}
	if !need {
		res.Skipped++
		return nil
	}
	if err := WriteFileAtomic(dest, a.Content); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "write output").
			WithContext("task", def.Name).
			WithContext("path", dest).
			Build()
	}
	post.Remember(dest, a.Content)
	res.Written = append(res.Written, dest)
	observability.DebugContext(ctx, "Wrote file", logfields.Dest(dest))
	return nil
}

func (r *Runner) fail(ctx context.Context, def TaskDef, res *Result, file, stage string, err error) {
	res.Failures = append(res.Failures, Failure{Task: def.Name, File: file, Stage: stage, Err: err})
	observability.WarnContext(ctx, "File failed",
		logfields.File(file),
		logfields.Stage(stage),
		logfields.Error(err))
}

// WriteFileAtomic writes data to a temporary file next to path and renames
// it into place, creating parent directories as needed.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".sitepipe-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	cleanup := func(cause error) error {
		_ = tmp.Close()
		_ = os.Remove(name)
		return cause
	}
	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}
