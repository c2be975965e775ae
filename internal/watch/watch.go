// Package watch maps filesystem changes under the source tree onto task
// runs.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/sitepipe/internal/logfields"
	"git.home.luguber.info/inful/sitepipe/internal/tasks"
)

// DefaultDebounce is the quiet period a rule waits for before running.
const DefaultDebounce = 300 * time.Millisecond

// TaskRunner executes one task definition.
type TaskRunner interface {
	Run(ctx context.Context, def tasks.TaskDef) (tasks.Result, error)
}

// Rule binds watch patterns to the tasks they trigger. Defs run in order.
type Rule struct {
	Name     string
	Patterns []string
	Defs     []tasks.TaskDef
}

// Matches reports whether rel, a slash separated path relative to the
// source root, falls under one of the rule's patterns.
func (r Rule) Matches(rel string) bool {
	for _, p := range r.Patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// Rules derives one rule per task. The two sprite tasks share the rule
// "svg" and run stack first.
func Rules(defs []tasks.TaskDef) []Rule {
	var rules []Rule
	svg := -1
	for _, def := range defs {
		if len(def.Watch) == 0 {
			continue
		}
		if def.Name == tasks.TaskSVGStack || def.Name == tasks.TaskSVGSymbol {
			if svg < 0 {
				svg = len(rules)
				rules = append(rules, Rule{Name: "svg", Patterns: def.Watch})
			}
			r := &rules[svg]
			if def.Name == tasks.TaskSVGStack {
				r.Defs = append([]tasks.TaskDef{def}, r.Defs...)
			} else {
				r.Defs = append(r.Defs, def)
			}
			continue
		}
		rules = append(rules, Rule{Name: def.Name, Patterns: def.Watch, Defs: []tasks.TaskDef{def}})
	}
	return rules
}

// Options tunes a Watcher.
type Options struct {
	Debounce time.Duration
	// Poll re-runs every rule on this interval. Zero disables polling.
	Poll time.Duration
	// OnRun is called after every rule run with the results of its tasks.
	OnRun func(rule string, results []tasks.Result)
}

// Watcher runs rules in response to filesystem events.
type Watcher struct {
	root   string
	runner TaskRunner
	opts   Options
	slots  []*slot
}

type slot struct {
	rule Rule

	mu      sync.Mutex
	timer   *time.Timer
	running bool
	pending bool
}

// New returns a Watcher for the source tree at root.
func New(root string, rules []Rule, runner TaskRunner, opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	w := &Watcher{root: root, runner: runner, opts: opts}
	for _, r := range rules {
		w.slots = append(w.slots, &slot{rule: r})
	}
	return w
}

// Run watches the source tree until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := addDirsRecursive(fw, w.root); err != nil {
		return err
	}

	if w.opts.Poll > 0 {
		s, err := w.schedulePoll(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = s.Shutdown() }()
	}

	slog.Info("Watching source tree", logfields.Path(w.root), logfields.Count(len(w.slots)))
	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create == fsnotify.Create {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					_ = addDirsRecursive(fw, ev.Name)
				}
			}
			w.Changed(ctx, ev.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

// Changed schedules every rule matching path, which may be absolute or
// relative to the source root.
func (w *Watcher) Changed(ctx context.Context, path string) {
	if shouldIgnore(path) {
		return
	}
	rel := path
	if filepath.IsAbs(path) {
		r, err := filepath.Rel(w.root, path)
		if err != nil || strings.HasPrefix(r, "..") {
			return
		}
		rel = r
	}
	rel = filepath.ToSlash(rel)
	for _, s := range w.slots {
		if s.rule.Matches(rel) {
			slog.Debug("Change detected", logfields.Path(rel), logfields.Rule(s.rule.Name))
			w.debounce(ctx, s)
		}
	}
}

func (w *Watcher) debounce(ctx context.Context, s *slot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(w.opts.Debounce, func() { w.fire(ctx, s) })
}

// fire runs the rule now, or marks it pending when a run is in flight.
// Any number of events during a run collapse into one follow-up.
func (w *Watcher) fire(ctx context.Context, s *slot) {
	s.mu.Lock()
	if s.running {
		s.pending = true
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	for {
		w.runRule(ctx, s.rule)

		s.mu.Lock()
		if !s.pending || ctx.Err() != nil {
			s.running = false
			s.pending = false
			s.mu.Unlock()
			return
		}
		s.pending = false
		s.mu.Unlock()
	}
}

func (w *Watcher) runRule(ctx context.Context, r Rule) {
	results := make([]tasks.Result, 0, len(r.Defs))
	for _, def := range r.Defs {
		res, err := w.runner.Run(ctx, def)
		results = append(results, res)
		if err != nil {
			slog.Warn("Task run failed", logfields.Rule(r.Name), logfields.Task(def.Name), logfields.Error(err))
			break
		}
	}
	if w.opts.OnRun != nil {
		w.opts.OnRun(r.Name, results)
	}
}

// RunAll fires every rule without debouncing.
func (w *Watcher) RunAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, s := range w.slots {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.fire(ctx, s)
		}()
	}
	wg.Wait()
}

func (w *Watcher) schedulePoll(ctx context.Context) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(w.opts.Poll),
		gocron.NewTask(func() { w.RunAll(ctx) }),
		gocron.WithName("watch-poll"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create poll job: %w", err)
	}
	s.Start()
	return s, nil
}

func (w *Watcher) stopTimers() {
	for _, s := range w.slots {
		s.mu.Lock()
		if s.timer != nil {
			s.timer.Stop()
		}
		s.mu.Unlock()
	}
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	if _, err := os.Stat(root); err != nil {
		return fmt.Errorf("watch root %s: %w", root, err)
	}
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.Add(path); err != nil {
				slog.Warn("watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// shouldIgnore filters hidden, editor swap and OS metadata files.
func shouldIgnore(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "Thumbs.db":
		return true
	}
	return false
}
