// Package session implements the per-connection protocol state machine.
package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/mcoot/tkserver/internal/metrics"
	"github.com/mcoot/tkserver/internal/model"
	"github.com/mcoot/tkserver/internal/protocol"
	"github.com/mcoot/tkserver/internal/services/clients"
)

// Registrar applies registration lines
type Registrar interface {
	Register(ctx context.Context, id, secret, displayName string) (model.Outcome, error)
}

// ClientRegistry tracks live connections
type ClientRegistry interface {
	Count() int
	Remove(c *clients.Client)
}

// ContentSource serves the download link and mod list
type ContentSource interface {
	Link() (string, error)
	Mods() string
}

// ShellGateway authenticates and runs remote shell commands
type ShellGateway interface {
	Authenticate(provided string) bool
	Execute(ctx context.Context, commandText string) (string, error)
}

// Config holds protocol settings for sessions
type Config struct {
	ExpectedVersion  string
	MaxShellAttempts int
	ShellRetryDelay  time.Duration
}

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		ExpectedVersion:  "1.1.5",
		MaxShellAttempts: 3,
		ShellRetryDelay:  time.Second,
	}
}

// Handler serves client connections. One Handler is shared by all sessions.
type Handler struct {
	whitelist Registrar
	clients   ClientRegistry
	content   ContentSource
	shell     ShellGateway
	cfg       Config
	logger    *slog.Logger
}

// NewHandler creates a Handler
func NewHandler(
	whitelist Registrar,
	registry ClientRegistry,
	content ContentSource,
	shell ShellGateway,
	cfg Config,
	logger *slog.Logger,
) *Handler {
	if cfg.MaxShellAttempts <= 0 {
		cfg.MaxShellAttempts = DefaultConfig().MaxShellAttempts
	}
	return &Handler{
		whitelist: whitelist,
		clients:   registry,
		content:   content,
		shell:     shell,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "session")),
	}
}

// Serve runs the protocol on nc until a terminal transition, a transport
// error or ctx cancellation. The client is always removed from the registry
// and the connection closed on return.
func (h *Handler) Serve(ctx context.Context, nc net.Conn, client *clients.Client) State {
	conn := protocol.NewConn(nc)
	defer h.clients.Remove(client)
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	s := &session{
		Handler: h,
		conn:    conn,
		state:   AwaitingVersion,
		logger: h.logger.With(
			slog.String("session_id", client.ID),
			slog.String("remote_addr", client.RemoteAddr),
		),
	}
	started := time.Now()
	s.logger.Info("session started")
	s.run(ctx)
	s.logger.Info("session ended", slog.Duration("duration", time.Since(started)))
	return s.state
}

// session is the state of one connection
type session struct {
	*Handler
	conn     *protocol.Conn
	state    State
	attempts int
	logger   *slog.Logger
}

func (s *session) run(ctx context.Context) {
	for !s.state.Terminal() {
		if s.conn.HalfClosed() {
			s.logger.Info("connection lost, peer closed its side")
			s.transition(Closed)
			return
		}

		line, err := s.conn.ReadLine()
		if err != nil {
			s.readFailed(err)
			return
		}
		metrics.LinesReceived.Inc()

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if s.state != ShellAuthenticating {
			s.logger.Debug("received", slog.String("line", line), slog.String("state", s.state.String()))
		}

		if err := s.handle(ctx, line); err != nil {
			s.logger.Warn("write failed", slog.String("error", err.Error()))
			s.transition(Closed)
			return
		}
	}
}

func (s *session) readFailed(err error) {
	switch {
	case errors.Is(err, io.EOF):
		s.logger.Info("client disconnected")
	case errors.Is(err, net.ErrClosed), errors.Is(err, io.ErrClosedPipe):
		s.logger.Info("connection closed")
	default:
		s.logger.Error("read failed", slog.String("error", err.Error()))
		_ = s.conn.WriteLine(protocol.Errorf("%s", err.Error()))
	}
	s.transition(Closed)
}

func (s *session) transition(to State) {
	if s.state == to {
		return
	}
	s.logger.Debug("state transition",
		slog.String("from", s.state.String()),
		slog.String("to", to.String()))
	s.state = to
}

func (s *session) handle(ctx context.Context, line string) error {
	switch s.state {
	case AwaitingVersion:
		return s.handleVersion(line)
	case Authenticated:
		return s.handleCommand(ctx, line)
	case ShellAuthenticating:
		return s.handleShellPassword(ctx, line)
	case ShellActive:
		return s.handleShellCommand(ctx, line)
	default:
		return nil
	}
}

func (s *session) handleVersion(line string) error {
	version, ok := protocol.ParseVersion(line)
	if !ok {
		s.logger.Info("waiting for version")
		return s.conn.WriteLine(protocol.RespVersionRequired)
	}
	if version != s.cfg.ExpectedVersion {
		s.logger.Info("outdated client version",
			slog.String("version", version),
			slog.String("expected", s.cfg.ExpectedVersion))
		return s.conn.WriteLine(protocol.RespUpdateRequired)
	}

	s.logger.Info("version matched", slog.String("version", version))
	s.transition(Authenticated)
	return s.conn.WriteLine(protocol.RespVersionOK)
}

func (s *session) handleCommand(ctx context.Context, line string) error {
	switch line {
	case protocol.TokenLink:
		link, err := s.content.Link()
		if err != nil {
			s.logger.Warn("link file not found", slog.String("error", err.Error()))
			return s.conn.WriteLine(protocol.RespLinkNotFound)
		}
		return s.conn.WriteLine(protocol.LinkPrefix + link)

	case protocol.TokenShell:
		s.logger.Warn("remote shell requested")
		s.transition(ShellAuthenticating)
		return s.conn.WriteLine(protocol.ShellPasswordPrompt)

	case protocol.TokenCount:
		return s.conn.WriteLine(protocol.CountPrefix + strconv.Itoa(s.clients.Count()))

	case protocol.TokenMods:
		return s.conn.WriteLine(protocol.ModsPrefix + s.content.Mods())

	default:
		return s.handleRegistration(ctx, line)
	}
}

func (s *session) handleRegistration(ctx context.Context, line string) error {
	id, secret, name, err := protocol.ParseRegistration(line)
	if err != nil {
		return s.conn.WriteLine(protocol.RespInvalidFormat)
	}

	outcome, err := s.whitelist.Register(ctx, id, secret, name)
	switch {
	case errors.Is(err, model.ErrIDTaken):
		s.logger.Info("registration rejected, id taken", slog.String("id", id))
		return s.conn.WriteLine(protocol.RespIDTaken)
	case errors.Is(err, model.ErrSecretTaken):
		s.logger.Info("registration rejected, secret taken", slog.String("id", id))
		return s.conn.WriteLine(protocol.RespSecretTaken)
	case err != nil:
		s.logger.Error("registration not persisted",
			slog.String("id", id),
			slog.String("outcome", outcome.String()),
			slog.String("error", err.Error()))
		return s.conn.WriteLine(protocol.RespInternalError)
	}

	if outcome == model.OutcomeRegistered {
		return s.conn.WriteLine(protocol.RespRegistered)
	}
	return s.conn.WriteLine(protocol.RespGranted)
}

func (s *session) handleShellPassword(ctx context.Context, line string) error {
	if s.shell.Authenticate(line) {
		s.logger.Warn("remote shell authenticated")
		s.transition(ShellActive)
		if err := s.conn.WriteLine(protocol.ShellPasswordOK); err != nil {
			return err
		}
		if err := s.conn.WriteLine(protocol.ShellActive); err != nil {
			return err
		}
		return s.conn.WriteLine(protocol.ShellPrompt)
	}

	s.attempts++
	left := s.cfg.MaxShellAttempts - s.attempts
	s.logger.Warn("remote shell authentication failed", slog.Int("attempts_left", left))
	if err := s.conn.WriteLine(protocol.ShellAttemptsLeft(left)); err != nil {
		return err
	}
	if left <= 0 {
		s.transition(Closed)
		return s.conn.WriteLine(protocol.ShellAuthFailed)
	}

	select {
	case <-ctx.Done():
		s.transition(Closed)
		return nil
	case <-time.After(s.cfg.ShellRetryDelay):
	}
	return s.conn.WriteLine(protocol.ShellPasswordPrompt)
}

func (s *session) handleShellCommand(ctx context.Context, line string) error {
	if protocol.IsShellExit(line) {
		s.logger.Info("remote shell session ended")
		s.transition(Closed)
		return s.conn.WriteLine(protocol.ShellEnded)
	}

	output, err := s.shell.Execute(ctx, line)
	if err != nil {
		output = protocol.Errorf("%s", err.Error())
	}
	if err := s.conn.WriteLine(strings.TrimRight(output, "\r\n")); err != nil {
		return err
	}
	return s.conn.WriteLine(protocol.ShellPrompt)
}
