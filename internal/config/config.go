// Package config loads server settings from TKSERVER_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix for Settings
const Prefix = "TKSERVER"

// Storage backends
const (
	StorageFile  = "file"
	StorageRedis = "redis"
)

// Settings holds server configuration
type Settings struct {
	ListenAddr      string `envconfig:"LISTEN_ADDR" default:":5000"`
	AdminAddr       string `envconfig:"ADMIN_ADDR" default:":8090"`
	AdminToken      string `envconfig:"ADMIN_TOKEN" default:""`
	DataDir         string `envconfig:"DATA_DIR" default:"."`
	ExpectedVersion string `envconfig:"EXPECTED_VERSION" default:"1.1.5"`
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`

	// Remote shell
	ShellEnabled     bool          `envconfig:"SHELL_ENABLED" default:"true"`
	ShellSecret      string        `envconfig:"SHELL_SECRET" default:""`
	ShellMaxAttempts int           `envconfig:"SHELL_MAX_ATTEMPTS" default:"3"`
	ShellRetryDelay  time.Duration `envconfig:"SHELL_RETRY_DELAY" default:"1s"`

	// Restart scheduling
	StopScript   string        `envconfig:"STOP_SCRIPT" default:""`
	StartScript  string        `envconfig:"START_SCRIPT" default:""`
	RestartGrace time.Duration `envconfig:"RESTART_GRACE" default:"60s"`
	RestartTick  time.Duration `envconfig:"RESTART_TICK" default:"1s"`

	// Whitelist persistence
	StorageType           string `envconfig:"STORAGE_TYPE" default:"file"`
	RedisURL              string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	MembershipRetainLines int    `envconfig:"MEMBERSHIP_RETAIN_LINES" default:"6"`

	ConsoleEnabled  bool          `envconfig:"CONSOLE_ENABLED" default:"true"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load reads Settings from the environment and validates them
func Load() (Settings, error) {
	var s Settings
	if err := envconfig.Process(Prefix, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks values envconfig cannot
func (s Settings) Validate() error {
	switch s.StorageType {
	case StorageFile, StorageRedis:
	default:
		return fmt.Errorf("invalid %s_STORAGE_TYPE %q: want %s or %s", Prefix, s.StorageType, StorageFile, StorageRedis)
	}
	if s.ListenAddr == "" {
		return fmt.Errorf("%s_LISTEN_ADDR must not be empty", Prefix)
	}
	if s.ShellMaxAttempts <= 0 {
		return fmt.Errorf("%s_SHELL_MAX_ATTEMPTS must be positive", Prefix)
	}
	if s.RestartTick < time.Second {
		return fmt.Errorf("%s_RESTART_TICK must be at least 1s", Prefix)
	}
	if s.MembershipRetainLines < 0 {
		return fmt.Errorf("%s_MEMBERSHIP_RETAIN_LINES must not be negative", Prefix)
	}
	if _, err := parseLevel(s.LogLevel); err != nil {
		return err
	}
	return nil
}

// Level returns the slog level named by LogLevel
func (s Settings) Level() slog.Level {
	level, _ := parseLevel(s.LogLevel)
	return level
}

// StopScriptPath returns the stop script, defaulting to stopserver.bat or
// stopserver.sh inside DataDir
func (s Settings) StopScriptPath() string {
	return s.scriptPath(s.StopScript, "stopserver")
}

// StartScriptPath returns the start script, defaulting like StopScriptPath
func (s Settings) StartScriptPath() string {
	return s.scriptPath(s.StartScript, "startserver")
}

func (s Settings) scriptPath(configured, base string) string {
	if configured != "" {
		return configured
	}
	ext := ".sh"
	if runtime.GOOS == "windows" {
		ext = ".bat"
	}
	return filepath.Join(s.DataDir, base+ext)
}

func parseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid %s_LOG_LEVEL %q", Prefix, name)
	}
	return level, nil
}
