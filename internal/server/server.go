package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/SmitUplenchwar2687/Rewind/internal/archive"
	"github.com/SmitUplenchwar2687/Rewind/internal/clock"
	"github.com/SmitUplenchwar2687/Rewind/internal/metrics"
)

// Server is the rewind monitor: health, prometheus metrics, a live event
// feed and, when an archive is configured, the archived session library.
type Server struct {
	httpServer *http.Server
	clock      clock.Clock
	log        zerolog.Logger
	hub        *Hub
	archive    *archive.Archive
	mux        *http.ServeMux
}

// Options wires optional collaborators into the server.
type Options struct {
	Hub     *Hub
	Archive *archive.Archive
	Logger  zerolog.Logger
	Clock   clock.Clock
}

// New creates a new monitor server.
func New(addr string, opts Options) *Server {
	metrics.Register()

	s := &Server{
		clock:   opts.Clock,
		log:     opts.Logger,
		hub:     opts.Hub,
		archive: opts.Archive,
		mux:     http.NewServeMux(),
	}
	if s.clock == nil {
		s.clock = clock.NewReal()
	}
	s.routes()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           LoggingMiddleware(s.mux, s.log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleRoot)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.Handler())
	if s.hub != nil {
		s.mux.HandleFunc("/ws", s.hub.HandleWebSocket)
		s.mux.HandleFunc("/dashboard/", s.handleDashboard)
	}
	if s.archive != nil {
		s.mux.HandleFunc("/api/sessions", s.handleListSessions)
		s.mux.HandleFunc("/api/sessions/", s.handleGetSession)
	}
}

// handleRoot serves a welcome message.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "rewind",
		"status":  "running",
		"time":    s.clock.Now().Format(time.RFC3339),
	})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}
	if s.hub != nil {
		body["ws_clients"] = s.hub.ClientCount()
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, DashboardHTML)
}

// handleListSessions lists archived sessions, newest first.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metas, err := s.archive.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if metas == nil {
		metas = []archive.Meta{}
	}
	writeJSON(w, http.StatusOK, metas)
}

// handleGetSession downloads one archived session file.
// Path: /api/sessions/{id or name}
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ref := r.URL.Path[len("/api/sessions/"):]
	if ref == "" {
		writeError(w, http.StatusBadRequest, "session id or name is required")
		return
	}
	meta, data, err := s.archive.Get(r.Context(), ref)
	if errors.Is(err, archive.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", meta.Name+".rwd"))
	w.Header().Set("X-Rewind-Session-Id", meta.ID)
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Start begins listening. It blocks until the server is shut down.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.StartOnListener(ln)
}

// StartOnListener begins serving on the provided listener.
// Useful for tests that need to pick an ephemeral port.
func (s *Server) StartOnListener(ln net.Listener) error {
	s.log.Info().Str("addr", ln.Addr().String()).Msg("monitor listening")
	err := s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.hub != nil {
		s.hub.CloseAll()
	}
	return s.httpServer.Shutdown(ctx)
}
