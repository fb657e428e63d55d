package shell

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/tkserver/internal/metrics"
)

// Errors
var (
	ErrExecFailed = errors.New("command could not be started")
	ErrDisabled   = errors.New("remote shell is disabled")
)

// Config holds configuration for the shell gateway
type Config struct {
	// Secret is the shared shell password. A value starting with "$2" is
	// treated as a bcrypt hash. Empty means nobody can authenticate.
	Secret string
}

// Gateway gates access to an Executor behind a single shared secret
type Gateway struct {
	secret   []byte
	hashed   bool
	executor Executor
	logger   *slog.Logger
}

// New creates a Gateway
func New(cfg Config, executor Executor, logger *slog.Logger) *Gateway {
	if executor == nil {
		executor = DisabledExecutor{}
	}
	return &Gateway{
		secret:   []byte(cfg.Secret),
		hashed:   strings.HasPrefix(cfg.Secret, "$2"),
		executor: executor,
		logger:   logger.With(slog.String("component", "shell")),
	}
}

// Authenticate reports whether provided matches the shared secret exactly
func (g *Gateway) Authenticate(provided string) bool {
	if len(g.secret) == 0 {
		return false
	}
	var ok bool
	if g.hashed {
		ok = bcrypt.CompareHashAndPassword(g.secret, []byte(provided)) == nil
	} else {
		ok = subtle.ConstantTimeCompare(g.secret, []byte(provided)) == 1
	}
	if !ok {
		metrics.ShellAuthFailures.Inc()
	}
	return ok
}

// Execute runs commandText and returns its standard output, or its
// standard error when nothing was written to standard output
func (g *Gateway) Execute(ctx context.Context, commandText string) (string, error) {
	metrics.ShellCommands.Inc()
	g.logger.Warn("executing remote shell command", slog.String("command", commandText))

	stdout, stderr, err := g.executor.Run(ctx, commandText)
	if err != nil {
		g.logger.Error("remote shell command failed", slog.String("error", err.Error()))
		return "", err
	}
	if strings.TrimSpace(stdout) != "" {
		return stdout, nil
	}
	return stderr, nil
}
