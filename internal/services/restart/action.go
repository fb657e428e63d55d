package restart

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
)

// Action is one external step of a restart (stopping or starting the
// hosted game server)
type Action interface {
	Run(ctx context.Context) error
}

// ActionFunc adapts a function to Action
type ActionFunc func(ctx context.Context) error

// Run calls f
func (f ActionFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// ScriptAction launches a control script and does not wait for it.
// Start scripts usually keep the game server in the foreground, so the
// process is reaped in the background and its exit status only logged.
type ScriptAction struct {
	Name   string
	Path   string
	logger *slog.Logger
}

// NewScriptAction creates a ScriptAction for the script at path
func NewScriptAction(name, path string, logger *slog.Logger) *ScriptAction {
	return &ScriptAction{
		Name:   name,
		Path:   path,
		logger: logger.With(slog.String("action", name), slog.String("script", path)),
	}
}

// Run starts the script with its own directory as working directory
func (a *ScriptAction) Run(ctx context.Context) error {
	// not bound to ctx: a started game server must outlive shutdown of this process
	cmd := exec.Command(a.Path)
	cmd.Dir = filepath.Dir(a.Path)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrActionFailed, a.Name, err)
	}
	a.logger.Info("script started", slog.Int("pid", cmd.Process.Pid))

	go func() {
		if err := cmd.Wait(); err != nil {
			a.logger.Warn("script exited with error", slog.String("error", err.Error()))
			return
		}
		a.logger.Info("script exited")
	}()
	return nil
}
