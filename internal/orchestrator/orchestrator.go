// Package orchestrator sequences asset tasks into the clean and build
// workflows.
package orchestrator

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitepipe/internal/config"
	foundationerrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/logfields"
	"git.home.luguber.info/inful/sitepipe/internal/metrics"
	"git.home.luguber.info/inful/sitepipe/internal/notify"
	"git.home.luguber.info/inful/sitepipe/internal/tasks"
)

// Orchestrator runs tasks and hands every result to the reporter.
type Orchestrator struct {
	cfg      *config.Config
	deps     tasks.Deps
	runner   *tasks.Runner
	reporter *notify.Reporter
}

// New returns an Orchestrator. A nil reporter logs failures only.
func New(cfg *config.Config, deps tasks.Deps, reporter *notify.Reporter) *Orchestrator {
	if reporter == nil {
		reporter = notify.NewReporter(nil, nil)
	}
	return &Orchestrator{cfg: cfg, deps: deps, runner: tasks.NewRunner(), reporter: reporter}
}

// Config returns the configuration the orchestrator was built with.
func (o *Orchestrator) Config() *config.Config { return o.cfg }

// Recorder returns the metrics sink results are reported to.
func (o *Orchestrator) Recorder() metrics.Recorder { return o.reporter.Recorder() }

// Table builds the task table for mode with the orchestrator's deps.
func (o *Orchestrator) Table(mode config.Mode) ([]tasks.TaskDef, error) {
	defs, err := tasks.Table(o.cfg, mode, o.deps)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "build task table").
			WithContext("mode", mode.String()).
			Build()
	}
	return defs, nil
}

// Run executes one task definition and reports its result.
func (o *Orchestrator) Run(ctx context.Context, def tasks.TaskDef) (tasks.Result, error) {
	res, err := o.runner.Run(ctx, def)
	if errors.Is(err, context.Canceled) {
		return res, err
	}
	o.reporter.Report(ctx, res, err)
	return res, err
}

// RunTask runs the task called name from mode's table.
func (o *Orchestrator) RunTask(ctx context.Context, mode config.Mode, name string) (tasks.Result, error) {
	defs, err := o.Table(mode)
	if err != nil {
		return tasks.Result{}, err
	}
	def, ok := tasks.Find(defs, name)
	if !ok {
		return tasks.Result{}, foundationerrors.NotFoundError("unknown task "+name).
			WithContext("task", name).
			Build()
	}
	return o.Run(ctx, def)
}

// Fonts runs the full font pipeline into mode's output root.
func (o *Orchestrator) Fonts(ctx context.Context, mode config.Mode) (tasks.Result, error) {
	def, err := tasks.FontPipeline(o.cfg, mode, o.deps)
	if err != nil {
		return tasks.Result{}, err
	}
	return o.Run(ctx, def)
}

// Clean removes mode's output root.
func (o *Orchestrator) Clean(ctx context.Context, mode config.Mode) error {
	return Clean(ctx, o.cfg.OutputRoot(mode))
}

// Clean removes root and everything below it. A missing root is not an error.
func Clean(ctx context.Context, root string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if root == "" || filepath.Clean(root) == "." || filepath.Clean(root) == string(filepath.Separator) {
		return foundationerrors.ValidationError("refusing to clean "+root).
			WithContext("path", root).
			Build()
	}
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := os.RemoveAll(root); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "clean output").
			WithContext("path", root).
			Build()
	}
	slog.Info("Cleaned output", logfields.Path(root))
	return nil
}

// BuildReport collects every task result of a build.
type BuildReport struct {
	Mode     config.Mode
	Results  []tasks.Result
	Duration time.Duration
}

// Failed counts failed files across all tasks.
func (r BuildReport) Failed() int {
	n := 0
	for _, res := range r.Results {
		n += len(res.Failures)
	}
	return n
}

// Written counts written files across all tasks.
func (r BuildReport) Written() int {
	n := 0
	for _, res := range r.Results {
		n += len(res.Written)
	}
	return n
}

// Build cleans mode's output root and runs every task. In prod the font
// pipeline runs first so the styles task sees the generated @font-face
// partial. The remaining tasks run concurrently; the SVG stack and symbol
// sprites run one after the other.
func (o *Orchestrator) Build(ctx context.Context, mode config.Mode) (BuildReport, error) {
	start := time.Now()
	report := BuildReport{Mode: mode}
	defs, err := o.Table(mode)
	if err != nil {
		return report, err
	}
	if err := o.Clean(ctx, mode); err != nil {
		return report, err
	}
	// serve and package expect the root even when no task wrote a file.
	root := o.cfg.OutputRoot(mode)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return report, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "create output root").
			WithContext("path", root).
			Build()
	}

	var (
		mu      sync.Mutex
		results []tasks.Result
	)
	run := func(ctx context.Context, def tasks.TaskDef) error {
		res, err := o.Run(ctx, def)
		mu.Lock()
		results = append(results, res)
		mu.Unlock()
		return err
	}

	if mode == config.ModeProd {
		if fontsDef, ok := tasks.Find(defs, tasks.TaskFonts); ok {
			if err := run(ctx, fontsDef); err != nil {
				report.Results = results
				return report, err
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, group := range Groups(defs, mode) {
		g.Go(func() error {
			for _, def := range group {
				if err := run(gctx, def); err != nil {
					return err
				}
			}
			return nil
		})
	}
	err = g.Wait()

	order := make(map[string]int, len(tasks.Names))
	for i, n := range tasks.Names {
		order[n] = i
	}
	sort.SliceStable(results, func(i, j int) bool { return order[results[i].Task] < order[results[j].Task] })
	report.Results = results
	report.Duration = time.Since(start)
	o.reporter.Recorder().ObserveBuildDuration(mode.String(), report.Duration)

	slog.Info("Build finished",
		logfields.Mode(mode.String()),
		logfields.Written(report.Written()),
		logfields.Failed(report.Failed()),
		logfields.DurationMS(float64(report.Duration)/float64(time.Millisecond)))
	return report, err
}

// Groups splits defs into units that run concurrently. Tasks inside a unit
// run in order. In prod the font task is excluded because Build runs it
// before everything else.
func Groups(defs []tasks.TaskDef, mode config.Mode) [][]tasks.TaskDef {
	var groups [][]tasks.TaskDef
	var svg []tasks.TaskDef
	for _, def := range defs {
		switch {
		case def.Name == tasks.TaskFonts && mode == config.ModeProd:
			// run first by Build
		case def.Name == tasks.TaskSVGStack || def.Name == tasks.TaskSVGSymbol:
			svg = append(svg, def)
		default:
			groups = append(groups, []tasks.TaskDef{def})
		}
	}
	if len(svg) > 0 {
		sort.SliceStable(svg, func(i, j int) bool { return svg[i].Name == tasks.TaskSVGStack && svg[j].Name != tasks.TaskSVGStack })
		groups = append(groups, svg)
	}
	return groups
}
