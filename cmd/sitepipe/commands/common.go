// Package commands implements the sitepipe subcommands.
package commands

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitepipe/internal/config"
	foundationerrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/logfields"
	"git.home.luguber.info/inful/sitepipe/internal/metrics"
	"git.home.luguber.info/inful/sitepipe/internal/notify"
	"git.home.luguber.info/inful/sitepipe/internal/orchestrator"
	"git.home.luguber.info/inful/sitepipe/internal/tasks"
)

// LogLevelEnv overrides the log level chosen by -v.
const LogLevelEnv = "SITEPIPE_LOG_LEVEL"

// Global is passed to every command's Run.
type Global struct {
	Logger *slog.Logger
}

// CLI is the root command line.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"sitepipe.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build     BuildCmd     `cmd:"" help:"Clean and build every asset task"`
	Run       RunCmd       `cmd:"" help:"Run a single asset task"`
	Clean     CleanCmd     `cmd:"" help:"Remove a mode's output root"`
	Watch     WatchCmd     `cmd:"" help:"Re-run tasks when source files change"`
	Serve     ServeCmd     `cmd:"" help:"Serve a mode's output root"`
	Dev       DevCmd       `cmd:"" default:"1" help:"Build for dev, then serve with live reload and watch"`
	Prod      ProdCmd      `cmd:"" help:"Build for prod, then serve the result"`
	Package   PackageCmd   `cmd:"" help:"Zip the prod output root"`
	Fonts     FontsCmd     `cmd:"" help:"Convert fonts and regenerate the @font-face partial"`
	Init      InitCmd      `cmd:"" help:"Write a starter configuration and source tree"`
	Visualize VisualizeCmd `cmd:"" help:"Print the task table (text, mermaid, dot, json)"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(c.Verbose, os.Getenv(LogLevelEnv))})))
	return nil
}

func logLevel(verbose bool, env string) slog.Level {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	if env = strings.TrimSpace(env); env != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(env)); err == nil {
			level = l
		}
	}
	return level
}

// ModeFlag selects the dev or prod pipeline.
type ModeFlag struct {
	Mode string `short:"m" help:"Pipeline mode: dev or prod (development and production are accepted)" default:"dev"`
}

func (m ModeFlag) mode() (config.Mode, error) {
	mode, err := config.ParseMode(m.Mode)
	if err != nil {
		return "", foundationerrors.WrapError(err, foundationerrors.CategoryValidation, "unknown mode").
			WithContext("mode", m.Mode).
			Build()
	}
	return mode, nil
}

// app holds everything a command needs once the config is loaded.
type app struct {
	cfg     *config.Config
	orch    *orchestrator.Orchestrator
	metrics http.Handler
	closers []func()
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if _, ok := foundationerrors.AsClassified(err); ok {
			return nil, err
		}
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to load configuration").
			WithContext("path", path).
			Build()
	}
	return cfg, nil
}

func newApp(root *CLI) (*app, error) {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg}

	var rec metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Metrics.Enabled {
		prom := metrics.NewPrometheusRecorder(prometheus.NewRegistry())
		rec = prom
		a.metrics = prom.Handler()
	}

	notifiers := notify.Multi{notify.LogNotifier{}}
	if cfg.Notify.NATSURL != "" {
		nn, err := notify.NewNATSNotifier(cfg.Notify.NATSURL, cfg.Notify.Subject)
		if err != nil {
			slog.Warn("NATS notifications disabled", logfields.URL(cfg.Notify.NATSURL), logfields.Error(err))
		} else {
			notifiers = append(notifiers, nn)
			a.closers = append(a.closers, nn.Close)
		}
	}

	a.orch = orchestrator.New(cfg, tasks.Deps{}, notify.NewReporter(notifiers, rec))
	return a, nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		c()
	}
}

// failuresError turns file failures into a task error unless keepGoing.
func failuresError(failed int, keepGoing bool) error {
	if failed == 0 || keepGoing {
		return nil
	}
	return foundationerrors.TaskError("some files failed to build").
		WithContext("failed", failed).
		Build()
}

func shutdownContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}
