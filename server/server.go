package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/iedon/talks-site-go/config"
	"github.com/iedon/talks-site-go/site"
)

// Server serves live-rendered pages and the static build output.
type Server struct {
	cfg          *config.Config
	svc          *site.Service
	logger       *slog.Logger
	mux          *http.ServeMux
	serverHeader string
}

// New constructs a server instance.
func New(cfg *config.Config, svc *site.Service, logger *slog.Logger, serverHeader string) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	srv := &Server{cfg: cfg, svc: svc, logger: logger, mux: http.NewServeMux(), serverHeader: strings.TrimSpace(serverHeader)}
	srv.routes()
	return srv
}

// Handler returns the full middleware chain.
func (s *Server) Handler() http.Handler {
	return s.withServerHeader(s.logRequests(s.mux))
}

// Start listens on the configured address until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := listen(s.cfg.Listen)
	if err != nil {
		return err
	}
	s.logger.Info("listening", "address", listener.Addr().String())

	server := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(ctxShutdown)
		close(shutdownDone)
	}()

	serveErr := server.Serve(listener)
	if errors.Is(serveErr, http.ErrServerClosed) {
		<-shutdownDone
		return nil
	}
	return serveErr
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/talks", s.handleTalks)
	s.mux.HandleFunc("/", s.handlePage)
}

func listen(address string) (net.Listener, error) {
	if after, ok := strings.CutPrefix(address, "unix:"); ok {
		_ = os.Remove(after)
		return net.Listen("unix", after)
	}
	return net.Listen("tcp", address)
}

func (s *Server) withServerHeader(next http.Handler) http.Handler {
	if s.serverHeader == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", s.serverHeader)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		s.logger.Info("http", "method", r.Method, "path", r.URL.Path, "status", rw.status, "duration", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTalks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	table := s.svc.Talks()
	if table == nil {
		writeError(w, http.StatusServiceUnavailable, "talks not loaded")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": table.Records(), "count": table.Len()})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.tryStatic(w, r) {
		return
	}

	html, err := s.svc.RenderFullPage(r.Context(), r.URL.Path)
	if err != nil {
		switch {
		case errors.Is(err, site.ErrInvalidPath), errors.Is(err, os.ErrNotExist):
			s.writeNotFound(w, r)
		default:
			s.logger.Error("render", "path", r.URL.Path, "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeHTML(w, r, http.StatusOK, html)
}

func (s *Server) writeNotFound(w http.ResponseWriter, r *http.Request) {
	notFound, err := s.svc.RenderNotFoundPage(r.Context(), r.URL.Path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeHTML(w, r, http.StatusNotFound, notFound)
}

// tryStatic serves non-HTML files (assets, theme) from the last static build.
func (s *Server) tryStatic(w http.ResponseWriter, r *http.Request) bool {
	clean := sanitizeRequestPath(r.URL.Path)
	if clean == "/" {
		return false
	}
	ext := strings.ToLower(filepath.Ext(clean))
	if ext == "" || ext == ".html" {
		return false
	}
	target := filepath.Join(s.cfg.OutputDir, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
	if !isWithin(s.cfg.OutputDir, target) {
		return false
	}
	fs := s.svc.FS()
	info, err := fs.Stat(target)
	if err != nil || info.IsDir() {
		return false
	}
	file, err := fs.Open(target)
	if err != nil {
		return false
	}
	defer file.Close()
	http.ServeContent(w, r, info.Name(), info.ModTime(), file)
	return true
}

func isWithin(base, target string) bool {
	baseAbs, err := filepath.Abs(base)
	if err != nil {
		return false
	}
	targetAbs, err := filepath.Abs(target)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(baseAbs, targetAbs)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	return rel != ".." && !strings.HasPrefix(rel, "../")
}

func sanitizeRequestPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	clean := path.Clean(p)
	if clean == "." {
		return "/"
	}
	return clean
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}
