// Package status exposes a read-only HTTP view of a running timer service:
// a health check, a JSON snapshot and a websocket stream of status lines.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/christianlegge/waybar-timer/go/internal/service"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Config holds the websocket and shutdown settings of the status server.
type Config struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the default status server configuration.
func DefaultConfig() Config {
	return Config{
		WriteTimeout:    time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ShutdownTimeout: 5 * time.Second,
	}
}

// StateResponse is the body of GET /state.
type StateResponse struct {
	State    service.Snapshot         `json:"state"`
	Counters *service.CounterSnapshot `json:"counters,omitempty"`
}

type Server struct {
	config   Config
	state    *service.State
	counters *service.Counters
	upgrader websocket.Upgrader
}

// NewServer creates a status server over state. counters may be nil.
func NewServer(config Config, state *service.State, counters *service.Counters) *Server {
	return &Server{
		config:   config,
		state:    state,
		counters: counters,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Only reachable through a local unix socket.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the routes wrapped for HTTP/2 cleartext.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("GET /ws/updates", s.handleUpdates)
	return h2c.NewHandler(mux, &http2.Server{})
}

// Serve answers requests on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("status server started")
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("status server forced to shutdown")
		return err
	}
	log.Info().Msg("status server stopped")
	return <-errCh
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	resp := StateResponse{State: s.state.Snapshot()}
	if s.counters != nil {
		snap := s.counters.Snapshot()
		resp.Counters = &snap
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("failed to encode state response")
	}
}
