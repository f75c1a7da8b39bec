package adminapi

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rtsyn/rtsyn/internal/controlplane"
)

// Server is the HTTP surface wrapping one engine's control plane.
type Server struct {
	cfg    Config
	log    *zap.Logger
	state  *State
	server *http.Server
}

// NewServer wires a Server against an engine's inbound command channel
// and the workspace it was started with; call Run to begin draining
// snapshots and ListenAndServe to start the HTTP listener.
func NewServer(cfg Config, log *zap.Logger, state *State) *Server {
	return &Server{cfg: cfg, log: log, state: state}
}

func (s *Server) routes() http.Handler {
	router := mux.NewRouter()
	h := NewHandler(s.state, s.cfg.IntrospectRateHz, s.cfg.IntrospectBurst, s.cfg.IntrospectReplyTimeout)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	router.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if s.state.Workspace() == nil {
			http.Error(w, "not ready: no workspace loaded", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	}).Methods(http.MethodGet)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/workspace", h.GetWorkspace).Methods(http.MethodGet)
	api.HandleFunc("/workspace", h.PutWorkspace).Methods(http.MethodPut)
	api.HandleFunc("/snapshot", h.GetSnapshot).Methods(http.MethodGet)
	api.HandleFunc("/plugins/{id}/start", h.StartPlugin).Methods(http.MethodPost)
	api.HandleFunc("/plugins/{id}/stop", h.StopPlugin).Methods(http.MethodPost)
	api.HandleFunc("/plugins/{id}/restart", h.RestartPlugin).Methods(http.MethodPost)
	api.HandleFunc("/introspect/{kind}/metadata", h.GetIntrospectMetadata).Methods(http.MethodGet)
	api.HandleFunc("/introspect/{kind}/behavior", h.GetIntrospectBehavior).Methods(http.MethodGet)

	var handler http.Handler = router
	handler = recoveryMiddleware(s.log)(handler)
	handler = loggingMiddleware(s.log)(handler)
	handler = requestIDMiddleware()(handler)
	return handler
}

// Run drains the engine's snapshot channel until ctx is cancelled. Call
// this in its own goroutine alongside ListenAndServe.
func (s *Server) Run(ctx context.Context, snapshots <-chan *controlplane.Snapshot) {
	s.state.Run(ctx, snapshots)
}

// ListenAndServe starts the HTTP listener; it blocks until Shutdown is
// called or the listener errors.
func (s *Server) ListenAndServe() error {
	s.server = &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s.routes(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
	s.log.Info("starting admin HTTP surface", zap.String("addr", s.cfg.ListenAddr))
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
