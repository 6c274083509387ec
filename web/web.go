// Package web is the optional local HTTP surface: read-only JSON over
// the link bag, a natural-language query endpoint, and static serving of
// generated reports. It binds to localhost; there is no auth because
// there is no remote access.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/notactuallytreyanastasio/browser-mcp/linkstore"
	"github.com/notactuallytreyanastasio/browser-mcp/nlq"
)

// Server serves the local web UI and API.
type Server struct {
	store      *linkstore.Store
	reportsDir string
	log        *slog.Logger
	httpServer *http.Server
}

// NewServer creates the web server on addr.
func NewServer(addr string, store *linkstore.Store, reportsDir string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{store: store, reportsDir: reportsDir, log: logger}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Routes builds the router. Exposed for tests.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/api/links", s.handleLinks)
	r.Get("/api/tags", s.handleTags)
	r.Get("/api/query", s.handleQuery)
	r.Get("/api/stats", s.handleStats)

	if s.reportsDir != "" {
		fs := http.StripPrefix("/reports/", http.FileServer(http.Dir(s.reportsDir)))
		r.Get("/reports/*", fs.ServeHTTP)
	}
	return r
}

// ListenAndServe blocks until the context is canceled or the listener
// fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("web: listening", "addr", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLinks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := linkstore.Filter{
		Tag:     q.Get("tag"),
		Text:    q.Get("q"),
		Site:    q.Get("site"),
		Starred: q.Get("starred") == "1",
		Unread:  q.Get("unread") == "1",
		Limit:   intParam(q.Get("limit"), 100),
	}

	links, err := s.store.ListLinks(r.Context(), f)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.store.ListTags(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	input := r.URL.Query().Get("q")
	limit := intParam(r.URL.Query().Get("limit"), 50)

	links, err := nlq.Execute(r.Context(), s.store, input, limit)
	if errors.Is(err, nlq.ErrNoMapping) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetStats(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	s.log.Error("web: request failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func intParam(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
