package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/sitepipe/internal/config"
	"git.home.luguber.info/inful/sitepipe/internal/logfields"
	"git.home.luguber.info/inful/sitepipe/internal/server"
	"git.home.luguber.info/inful/sitepipe/internal/tasks"
	"git.home.luguber.info/inful/sitepipe/internal/watch"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	ModeFlag
	Port   int  `short:"p" help:"Port override (0 keeps the configured port)"`
	NoOpen bool `name:"no-open" help:"Do not open a browser tab"`
}

func (s *ServeCmd) Run(ctx context.Context, _ *Global, root *CLI) error {
	mode, err := s.mode()
	if err != nil {
		return err
	}
	a, err := newApp(root)
	if err != nil {
		return err
	}
	defer a.Close()
	if s.Port != 0 {
		a.cfg.Server.Port = s.Port
	}

	live := mode == config.ModeDev && a.cfg.Server.LiveReloadEnabled()
	srv, err := a.startServer(ctx, mode, live, !s.NoOpen && mode == config.ModeDev)
	if err != nil {
		return err
	}
	<-ctx.Done()
	return stopServer(srv)
}

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	ModeFlag
}

func (w *WatchCmd) Run(ctx context.Context, _ *Global, root *CLI) error {
	mode, err := w.mode()
	if err != nil {
		return err
	}
	a, err := newApp(root)
	if err != nil {
		return err
	}
	defer a.Close()

	wt, err := a.watcher(mode, nil)
	if err != nil {
		return err
	}
	return wt.Run(ctx)
}

// DevCmd implements the 'dev' command, the default workflow.
type DevCmd struct {
	NoOpen bool `name:"no-open" help:"Do not open a browser tab"`
}

func (d *DevCmd) Run(ctx context.Context, _ *Global, root *CLI) error {
	a, err := newApp(root)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.orch.Build(ctx, config.ModeDev)
	printReport(report)
	if err != nil {
		return err
	}

	srv, err := a.startServer(ctx, config.ModeDev, a.cfg.Server.LiveReloadEnabled(), !d.NoOpen)
	if err != nil {
		return err
	}
	wt, err := a.watcher(config.ModeDev, srv.ReloadAfter)
	if err != nil {
		_ = stopServer(srv)
		return err
	}
	werr := wt.Run(ctx)
	return errors.Join(werr, stopServer(srv))
}

// ProdCmd implements the 'prod' command.
type ProdCmd struct {
	NoOpen    bool `name:"no-open" help:"Do not open a browser tab"`
	KeepGoing bool `name:"keep-going" help:"Serve even when some files failed"`
}

func (p *ProdCmd) Run(ctx context.Context, _ *Global, root *CLI) error {
	a, err := newApp(root)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.orch.Build(ctx, config.ModeProd)
	printReport(report)
	if err != nil {
		return err
	}
	if err := failuresError(report.Failed(), p.KeepGoing); err != nil {
		return err
	}

	srv, err := a.startServer(ctx, config.ModeProd, false, !p.NoOpen)
	if err != nil {
		return err
	}
	<-ctx.Done()
	return stopServer(srv)
}

func (a *app) startServer(ctx context.Context, mode config.Mode, live, open bool) (*server.Server, error) {
	srv := server.New(server.Options{
		Root:        a.cfg.OutputRoot(mode),
		LiveReload:  live,
		Metrics:     a.metrics,
		MetricsPath: a.cfg.Metrics.Path,
		Recorder:    a.orch.Recorder(),
	})
	if err := srv.Start(ctx, a.cfg.Server.Addr()); err != nil {
		return nil, err
	}
	fmt.Printf("Serving %s at %s\n", a.cfg.OutputRoot(mode), srv.URL())
	if open && a.cfg.Server.ShouldOpen() {
		if err := srv.Open(); err != nil {
			slog.Warn("Could not open browser", logfields.Error(err))
		}
	}
	return srv, nil
}

func stopServer(srv *server.Server) error {
	ctx, cancel := shutdownContext()
	defer cancel()
	return srv.Stop(ctx)
}

func (a *app) watcher(mode config.Mode, onRun func(string, []tasks.Result)) (*watch.Watcher, error) {
	defs, err := a.orch.Table(mode)
	if err != nil {
		return nil, err
	}
	report := func(rule string, results []tasks.Result) {
		for _, res := range results {
			printResult(res)
		}
		if onRun != nil {
			onRun(rule, results)
		}
	}
	return watch.New(a.cfg.Paths.Source, watch.Rules(defs), a.orch, watch.Options{
		Debounce: a.cfg.Watch.DebounceDuration(),
		Poll:     a.cfg.Watch.PollDuration(),
		OnRun:    report,
	}), nil
}
