package config

import (
	"log/slog"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":5000", s.ListenAddr)
	assert.Equal(t, ":8090", s.AdminAddr)
	assert.Equal(t, ".", s.DataDir)
	assert.Equal(t, "1.1.5", s.ExpectedVersion)
	assert.Equal(t, 3, s.ShellMaxAttempts)
	assert.Equal(t, time.Second, s.ShellRetryDelay)
	assert.Equal(t, 60*time.Second, s.RestartGrace)
	assert.Equal(t, time.Second, s.RestartTick)
	assert.Equal(t, 6, s.MembershipRetainLines)
	assert.Equal(t, StorageFile, s.StorageType)
	assert.True(t, s.ShellEnabled)
	assert.True(t, s.ConsoleEnabled)
	assert.Empty(t, s.ShellSecret)
	assert.Equal(t, slog.LevelInfo, s.Level())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("TKSERVER_LISTEN_ADDR", "127.0.0.1:6000")
	t.Setenv("TKSERVER_DATA_DIR", "/srv/tk")
	t.Setenv("TKSERVER_EXPECTED_VERSION", "1.2.0")
	t.Setenv("TKSERVER_SHELL_RETRY_DELAY", "250ms")
	t.Setenv("TKSERVER_STORAGE_TYPE", "redis")
	t.Setenv("TKSERVER_LOG_LEVEL", "debug")
	t.Setenv("TKSERVER_CONSOLE_ENABLED", "false")

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:6000", s.ListenAddr)
	assert.Equal(t, "/srv/tk", s.DataDir)
	assert.Equal(t, "1.2.0", s.ExpectedVersion)
	assert.Equal(t, 250*time.Millisecond, s.ShellRetryDelay)
	assert.Equal(t, StorageRedis, s.StorageType)
	assert.Equal(t, slog.LevelDebug, s.Level())
	assert.False(t, s.ConsoleEnabled)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"storage type", "TKSERVER_STORAGE_TYPE", "sqlite"},
		{"log level", "TKSERVER_LOG_LEVEL", "chatty"},
		{"attempts", "TKSERVER_SHELL_MAX_ATTEMPTS", "0"},
		{"tick", "TKSERVER_RESTART_TICK", "100ms"},
		{"retain lines", "TKSERVER_MEMBERSHIP_RETAIN_LINES", "-1"},
		{"not a duration", "TKSERVER_RESTART_GRACE", "a minute"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestScriptPaths(t *testing.T) {
	s := Settings{DataDir: "/srv/tk"}
	ext := ".sh"
	if runtime.GOOS == "windows" {
		ext = ".bat"
	}
	assert.Equal(t, filepath.Join("/srv/tk", "stopserver"+ext), s.StopScriptPath())
	assert.Equal(t, filepath.Join("/srv/tk", "startserver"+ext), s.StartScriptPath())

	s.StopScript = "/opt/game/stop.sh"
	assert.Equal(t, "/opt/game/stop.sh", s.StopScriptPath())
}
