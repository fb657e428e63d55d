// Package server accepts game client connections and hands each one to a
// session handler on its own goroutine.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/mcoot/tkserver/internal/services/clients"
	"github.com/mcoot/tkserver/internal/session"
)

// ErrNotListening is returned by Serve when Listen has not been called
var ErrNotListening = errors.New("server is not listening")

// Config holds configuration for the TCP listener
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// DefaultConfig returns sensible defaults for the listener
func DefaultConfig() Config {
	return Config{
		Addr:            ":5000",
		ShutdownTimeout: 10 * time.Second,
	}
}

// ConnHandler runs the protocol for one connection
type ConnHandler interface {
	Serve(ctx context.Context, conn net.Conn, client *clients.Client) session.State
}

// Registry hands out and tracks client handles
type Registry interface {
	NewClient(remoteAddr string) *clients.Client
	Add(c *clients.Client)
}

// Server is the TCP listener and dispatch loop
type Server struct {
	handler  ConnHandler
	registry Registry
	config   Config
	logger   *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	cancel   context.CancelFunc

	sessions sync.WaitGroup
}

// New creates a Server
func New(handler ConnHandler, registry Registry, config Config, logger *slog.Logger) *Server {
	return &Server{
		handler:  handler,
		registry: registry,
		config:   config,
		logger:   logger.With(slog.String("component", "server")),
	}
}

// Start listens and serves until ctx is done or Shutdown is called
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Listen binds the configured address
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.Addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("server started", slog.String("addr", ln.Addr().String()))
	return nil
}

// Serve runs the accept loop on the bound listener
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	sessionCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	if ln == nil {
		cancel()
		return ErrNotListening
	}

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	var tempDelay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				s.logger.Info("listener closed, exiting accept loop")
				return nil
			}

			// back off on transient accept failures such as fd exhaustion
			if tempDelay == 0 {
				tempDelay = 5 * time.Millisecond
			} else {
				tempDelay = min(tempDelay*2, time.Second)
			}
			s.logger.Error("accept failed", slog.String("error", err.Error()), slog.Duration("retry_in", tempDelay))
			time.Sleep(tempDelay)
			continue
		}
		tempDelay = 0

		client := s.registry.NewClient(conn.RemoteAddr().String())
		s.registry.Add(client)

		s.sessions.Add(1)
		go func() {
			defer s.sessions.Done()
			s.handler.Serve(sessionCtx, conn, client)
		}()
	}
}

// Shutdown stops accepting, waits for sessions to finish on their own and
// closes whatever is still open once the timeout expires
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	s.mu.Lock()
	ln := s.listener
	cancel := s.cancel
	s.mu.Unlock()

	if ln != nil {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Warn("closing listener", slog.String("error", err.Error()))
		}
	}

	shutdownCtx, stop := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer stop()

	done := make(chan struct{})
	go func() {
		s.sessions.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("server stopped")
		return nil
	case <-shutdownCtx.Done():
	}

	s.logger.Warn("sessions still open at shutdown, closing them")
	if cancel != nil {
		cancel()
	}
	<-done
	return fmt.Errorf("shutdown: %w", shutdownCtx.Err())
}

// Addr returns the bound address, or the configured one before Listen
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Addr
}
