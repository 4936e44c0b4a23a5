package devserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/editor"
	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
)

const (
	// RouteMetrics serves Prometheus metrics when a registry is attached.
	RouteMetrics = "/metrics"

	notFoundPage    = "404.html"
	shutdownTimeout = 5 * time.Second
)

// Server is the development HTTP server.
type Server struct {
	cfg      *config.Config
	hub      *Hub
	editor   *editor.Handlers
	registry *prom.Registry
	logger   *slog.Logger
	errs     *ferrors.HTTPErrorAdapter
}

// New creates a server for cfg.
func New(cfg *config.Config) *Server {
	return &Server{
		cfg:    cfg,
		hub:    NewHub(),
		logger: slog.Default(),
		errs:   ferrors.NewHTTPErrorAdapter(nil),
	}
}

// WithEditor mounts the editor save and upload endpoints.
func (s *Server) WithEditor(h *editor.Handlers) *Server {
	s.editor = h
	return s
}

// WithMetrics exposes reg at /metrics.
func (s *Server) WithMetrics(reg *prom.Registry) *Server {
	s.registry = reg
	return s
}

// WithLogger replaces the request logger.
func (s *Server) WithLogger(logger *slog.Logger) *Server {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Hub returns the live-reload hub.
func (s *Server) Hub() *Hub { return s.hub }

// Broadcast tells every connected browser to reload.
func (s *Server) Broadcast(version string) { s.hub.Broadcast(version) }

// Handler builds the request router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(RouteLiveReload, s.hub)
	mux.HandleFunc(RouteLiveReloadScript, serveClientScript)
	if s.registry != nil {
		mux.Handle(RouteMetrics, metrics.HTTPHandler(s.registry))
	}
	if s.editor != nil {
		s.editor.Register(mux)
	}
	mux.Handle("GET /editor/", http.StripPrefix("/editor/", http.FileServer(http.Dir(s.cfg.Editor.Assets))))
	mux.Handle("GET "+editor.StagingRoute, http.StripPrefix(editor.StagingRoute, http.FileServer(http.Dir(s.cfg.Editor.Staging))))
	mux.Handle("/", injectLiveReload(http.HandlerFunc(s.serveSite)))
	return chain(s.logger, s.errs, mux)
}

// serveSite maps a request under the site path to a file in the output
// tree. Anything else gets the site's 404 page.
func (s *Server) serveSite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	sitePath := s.cfg.SitePath()
	if sitePath != "/" && r.URL.Path == strings.TrimSuffix(sitePath, "/") {
		http.Redirect(w, r, sitePath, http.StatusMovedPermanently)
		return
	}
	rel, ok := strings.CutPrefix(r.URL.Path, sitePath)
	if !ok {
		s.serveNotFound(w, r)
		return
	}
	rel = strings.TrimPrefix(path.Clean("/"+rel), "/")
	if rel == "" || strings.HasSuffix(r.URL.Path, "/") {
		rel = path.Join(rel, "index.html")
	}
	if !s.serveFile(w, r, rel, http.StatusOK) {
		s.serveNotFound(w, r)
	}
}

func (s *Server) serveNotFound(w http.ResponseWriter, r *http.Request) {
	if !s.serveFile(w, r, notFoundPage, http.StatusNotFound) {
		http.NotFound(w, r)
	}
}

// serveFile writes rel from the output tree and reports whether it existed.
// A non-200 status bypasses conditional and range handling.
func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, rel string, status int) bool {
	full := filepath.Join(s.cfg.Server.ServeFrom, filepath.FromSlash(rel))
	f, err := os.Open(full)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}
	if status == http.StatusOK {
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
		return true
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		_, _ = io.Copy(w, f)
	}
	return true
}

// Run serves until ctx is cancelled, then disconnects live-reload clients
// and shuts the listener down.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNetwork, "listen").WithContext("addr", addr).Build()
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       300 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	slog.Info("Dev server listening", logfields.URL(fmt.Sprintf("http://%s%s", ln.Addr(), s.cfg.SitePath())))

	select {
	case <-ctx.Done():
	case err := <-errCh:
		s.hub.Shutdown()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return ferrors.WrapError(err, ferrors.CategoryNetwork, "dev server stopped").Build()
	}

	s.hub.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNetwork, "dev server shutdown").Build()
	}
	return nil
}
