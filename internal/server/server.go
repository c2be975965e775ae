// Package server serves an output root over HTTP and pushes reloads to
// connected browsers.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/pkg/browser"

	foundationerrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/logfields"
	"git.home.luguber.info/inful/sitepipe/internal/metrics"
	smw "git.home.luguber.info/inful/sitepipe/internal/server/middleware"
	"git.home.luguber.info/inful/sitepipe/internal/tasks"
)

// Options configures a Server.
type Options struct {
	// Root is the directory served at "/".
	Root string
	// LiveReload mounts the reload endpoints and injects the client script.
	LiveReload bool
	// Metrics, when set, is mounted at MetricsPath.
	Metrics     http.Handler
	MetricsPath string
	Recorder    metrics.Recorder
}

// Server is the preview HTTP server.
type Server struct {
	opts Options
	hub  *Hub
	srv  *http.Server
	url  string
}

// New returns a Server. Nothing listens until Start.
func New(opts Options) *Server {
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	return &Server{opts: opts, hub: NewHub(opts.Recorder)}
}

// Hub returns the reload hub.
func (s *Server) Hub() *Hub { return s.hub }

// URL is the address the server listens on, valid after Start.
func (s *Server) URL() string { return s.url }

// Handler builds the request router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	var site http.Handler = http.FileServer(http.Dir(s.opts.Root))
	if s.opts.LiveReload {
		site = injectReloadScript(site)
		mux.HandleFunc(EventsPath, s.hub.ServeSSE)
		mux.HandleFunc(WebSocketPath, s.hub.ServeWebSocket)
		mux.HandleFunc(ScriptPath, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache")
			_, _ = w.Write([]byte(ReloadScript))
		})
	}
	if s.opts.Metrics != nil {
		mux.Handle(s.opts.MetricsPath, s.opts.Metrics)
	}
	mux.Handle("/", withCacheControl(site, s.opts.LiveReload))
	return smw.Chain(slog.Default())(mux)
}

// Start binds addr and serves in the background.
func (s *Server) Start(ctx context.Context, addr string) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryServer, "failed to bind preview server").
			WithContext("addr", addr).
			Build()
	}
	s.srv = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second, IdleTimeout: 300 * time.Second}
	s.url = "http://" + ln.Addr().String()
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("preview server error", logfields.Error(err))
		}
	}()
	slog.Info("Preview server started", logfields.URL(s.url), logfields.Path(s.opts.Root))
	return nil
}

// Stop disconnects reload clients and shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.hub.Shutdown()
	if s.srv == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("preview server shutdown: %w", err)
	}
	slog.Info("Preview server stopped")
	return nil
}

// ReloadAfter broadcasts a reload when any result wrote output. Its
// signature matches the watch loop's run callback.
func (s *Server) ReloadAfter(rule string, results []tasks.Result) {
	for _, r := range results {
		if r.Changed() {
			path := "/"
			if rule == tasks.TaskStyles {
				path = "/css/" + filepath.Base(r.Written[0])
			}
			s.hub.Broadcast(path)
			return
		}
	}
}

var openURL = browser.OpenURL

// Open opens the server's URL in the default browser.
func (s *Server) Open() error {
	if s.url == "" {
		return errors.New("server not started")
	}
	if err := openURL(s.url); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryServer, "failed to open browser").
			WithContext("url", s.url).
			Build()
	}
	return nil
}
