package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/gorilla/mux"
	"github.com/nao1215/httpsdash/internal/manifest"
	"github.com/nao1215/httpsdash/internal/model"
	"github.com/nao1215/httpsdash/internal/profile"
	"github.com/nao1215/httpsdash/internal/summary"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultAddr is the default listen address.
const DefaultAddr = ":8080"

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 5 * time.Second

// componentPattern matches one safe path component from a URL.
var componentPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._~=+,;@!()$-]*$`)

// Server serves a profile root.
type Server struct {
	root       string
	userAgents map[string]manifest.UserAgent
	metrics    *Metrics
	logger     *slog.Logger
	router     *mux.Router
}

// Option configures a Server.
type Option func(*Server)

// WithUserAgents sets display names used for crawl dates without a crawl
// manifest.
func WithUserAgents(agents map[string]manifest.UserAgent) Option {
	return func(s *Server) {
		s.userAgents = agents
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics sets the Prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// New creates a Server for root and registers its routes.
func New(root string, opts ...Option) *Server {
	s := &Server{root: root}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.metrics.middleware)
	r.Use(s.logging)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/dates", s.handleDates).Methods(http.MethodGet)
	api.HandleFunc("/crawls/{date}", s.handleCrawl).Methods(http.MethodGet)
	api.HandleFunc("/crawls/{date}/{agent}/summary", s.handleSummary).Methods(http.MethodGet)
	api.HandleFunc("/crawls/{date}/{agent}/sites/{site}", s.handleSite).Methods(http.MethodGet)

	r.PathPrefix("/files/").Handler(http.StripPrefix("/files/", http.FileServer(http.Dir(s.root)))).Methods(http.MethodGet)
	return r
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving dashboard data", "addr", addr, "root", s.root)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDates(w http.ResponseWriter, _ *http.Request) {
	m, err := manifest.LoadMain(s.root)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	dateDir, ok := s.resolve(w, mux.Vars(r)["date"])
	if !ok {
		return
	}
	c, err := manifest.LoadCrawl(dateDir)
	if errors.Is(err, model.ErrInputNotFound) && len(s.userAgents) > 0 {
		c, err = s.crawlFromDirs(dateDir)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// crawlFromDirs describes a crawl date without a manifest from the agent
// directories present and the configured display names.
func (s *Server) crawlFromDirs(dateDir string) (*manifest.Crawl, error) {
	entries, err := os.ReadDir(dateDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, model.ErrInputNotFound
	}
	if err != nil {
		return nil, err
	}
	c := &manifest.Crawl{UserAgents: map[string]manifest.UserAgent{}}
	for _, e := range entries {
		if agent, ok := s.userAgents[e.Name()]; ok && e.IsDir() {
			c.UserAgents[e.Name()] = agent
		}
	}
	return c, nil
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	dir, ok := s.resolve(w, vars["date"], vars["agent"])
	if !ok {
		return
	}
	s.serveDocument(w, r, filepath.Join(dir, summary.FileName))
}

func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	dir, ok := s.resolve(w, vars["date"], vars["agent"], vars["site"])
	if !ok {
		return
	}
	// dir ends in the site component; the document lives in site_profiles.
	agentDir, site := filepath.Split(dir)
	s.serveDocument(w, r, filepath.Join(agentDir, profile.DirName, site+".json"))
}

// resolve joins validated path components under the root. It writes a 400
// response and returns false when a component is unsafe.
func (s *Server) resolve(w http.ResponseWriter, components ...string) (string, bool) {
	for _, c := range components {
		if !ValidComponent(c) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid path component"})
			return "", false
		}
	}
	return filepath.Join(append([]string{s.root}, components...)...), true
}

func (s *Server) serveDocument(w http.ResponseWriter, r *http.Request, path string) {
	f, err := os.Open(path) //nolint:gosec // components are validated by resolve
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = model.ErrInputNotFound
		}
		s.writeError(w, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	http.ServeContent(w, r, "", info.ModTime(), f)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var perr *model.ParseError
	switch {
	case errors.Is(err, model.ErrInputNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.As(err, &perr):
		s.logger.Warn("malformed document", "path", perr.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "malformed document"})
	default:
		s.logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// ValidComponent reports whether c is safe to use as one path component.
func ValidComponent(c string) bool {
	return componentPattern.MatchString(c) && c != "." && c != ".."
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errchkjson // response already started
}
