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
	"sync"
	"time"

	"framebridge/internal/config"
	"framebridge/internal/logging"
)

// SocketInfo tells the UI process where to open its channel.
type SocketInfo struct {
	Path         string `json:"path"`
	SocketHost   string `json:"socketHost"`
	Reconnection bool   `json:"reconnection"`
}

// StatusResponse is the JSON body of /api/status.
type StatusResponse struct {
	Running         bool     `json:"running"`
	PID             int      `json:"pid"`
	Tasks           int      `json:"tasks"`
	PendingRequests int      `json:"pendingRequests"`
	Connections     int      `json:"connections"`
	Protocols       []string `json:"protocols"`
	Commands        []string `json:"commands"`
}

type apiServer struct {
	bind   string
	host   string
	wsPath string
	logger *slog.Logger
	daemon *Daemon
	mux    *http.ServeMux

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.Server.Bind),
		host:   cfg.Server.Host,
		wsPath: cfg.Server.WSPath,
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
		mux:    http.NewServeMux(),
	}

	srv.mux.HandleFunc("/framebridge_socket_info", srv.handleSocketInfo)
	srv.mux.HandleFunc("/server_shutdown", authMiddleware(cfg.Server.Token, srv.handleShutdown))
	srv.mux.HandleFunc("/api/status", authMiddleware(cfg.Server.Token, srv.handleStatus))
	srv.mux.Handle(srv.wsPath, socketAuth(cfg.Server.Token, d.bridge.Hub()))
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	server := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.mu.Lock()
	s.listener = listener
	s.server = server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "api server error", "api_server_failed", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	s.mu.Lock()
	server := s.server
	listener := s.listener
	s.server = nil
	s.listener = nil
	s.mu.Unlock()

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}
	if listener != nil {
		_ = listener.Close()
	}
}

func (s *apiServer) address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleSocketInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	prefix := strings.TrimRight(strings.TrimSpace(r.Header.Get("X-Forwarded-Prefix")), "/")
	s.writeJSON(w, http.StatusOK, SocketInfo{
		Path:         prefix + s.wsPath,
		SocketHost:   s.host,
		Reconnection: true,
	})
}

func (s *apiServer) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.daemon.RequestShutdown()
	s.writeJSON(w, http.StatusOK, map[string]int{"status": http.StatusOK})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	s.writeJSON(w, http.StatusOK, StatusResponse{
		Running:         status.Running,
		PID:             status.PID,
		Tasks:           status.Bridge.Tasks,
		PendingRequests: status.Bridge.PendingRequests,
		Connections:     status.Bridge.Connections,
		Protocols:       status.Bridge.Protocols,
		Commands:        status.Bridge.Commands,
	})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
