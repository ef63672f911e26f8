package fakeapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
)

// HTTPServer serves a fake backend on a TCP address.
type HTTPServer struct {
	logger     zerolog.Logger
	addr       string
	httpServer *http.Server

	mu         sync.RWMutex
	actualAddr string
}

// NewHTTPServer creates a server for s listening on addr. Use ":0" for a
// random port.
func NewHTTPServer(s *Server, addr string, logger zerolog.Logger) *HTTPServer {
	return &HTTPServer{
		logger: logger.With().Str("component", "FakeAPIServer").Logger(),
		addr:   addr,
		httpServer: &http.Server{
			Addr:    addr,
			Handler: s.Handler(),
		},
	}
}

// Start listens and serves in a background goroutine.
func (h *HTTPServer) Start() error {
	listener, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", h.addr, err)
	}

	h.mu.Lock()
	h.actualAddr = listener.Addr().String()
	h.mu.Unlock()

	h.logger.Info().Str("address", h.actualAddr).Msg("Fake API listening")

	go func() {
		if err := h.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error().Err(err).Msg("Fake API server failed")
		}
	}()
	return nil
}

// Shutdown stops the server, respecting ctx's deadline.
func (h *HTTPServer) Shutdown(ctx context.Context) error {
	h.logger.Info().Msg("Shutting down fake API...")
	if err := h.httpServer.Shutdown(ctx); err != nil {
		h.logger.Error().Err(err).Msg("Error during fake API shutdown.")
		return err
	}
	h.logger.Info().Msg("Fake API stopped.")
	return nil
}

// URL returns the base URL of the running server.
func (h *HTTPServer) URL() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	host, port, err := net.SplitHostPort(h.actualAddr)
	if err != nil {
		return "http://" + h.addr
	}
	if host == "" || host == "::" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
