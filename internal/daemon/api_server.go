package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"warden/internal/config"
	"warden/internal/logging"
)

// apiServer exposes read-only daemon state and Prometheus metrics over HTTP.
type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:   bind,
		logger: logging.NewComponentLogger(logger, "api"),
		daemon: d,
	}

	router := mux.NewRouter()
	router.HandleFunc("/api/status", srv.handleStatus).Methods(http.MethodGet)
	router.HandleFunc("/api/history", srv.handleHistory).Methods(http.MethodGet)
	router.HandleFunc("/healthz", srv.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(d.metrics.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	srv.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
}

func (s *apiServer) addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.bind
}

type statusPayload struct {
	Running         bool   `json:"running"`
	PID             int    `json:"pid"`
	Current         string `json:"current"`
	Staged          string `json:"staged,omitempty"`
	HelperConnected bool   `json:"helper_connected"`
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status()
	writeJSON(w, statusPayload{
		Running:         status.Running,
		PID:             status.PID,
		Current:         status.Current,
		Staged:          status.Staged,
		HelperConnected: status.HelperConnected,
	})
}

type historyPayload struct {
	Events []historyEvent `json:"events"`
}

type historyEvent struct {
	RecordedAt time.Time `json:"recorded_at"`
	Current    string    `json:"current"`
	Candidate  string    `json:"candidate"`
	Action     string    `json:"action"`
	Detail     string    `json:"detail,omitempty"`
}

func (s *apiServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	events, err := s.daemon.History(r.Context(), 50)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	payload := historyPayload{Events: make([]historyEvent, 0, len(events))}
	for _, ev := range events {
		payload.Events = append(payload.Events, historyEvent{
			RecordedAt: ev.RecordedAt,
			Current:    ev.Current,
			Candidate:  ev.Candidate,
			Action:     string(ev.Action),
			Detail:     ev.Detail,
		})
	}
	writeJSON(w, payload)
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
