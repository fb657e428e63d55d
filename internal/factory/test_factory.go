package factory

import (
	"time"

	"github.com/mcoot/tkserver/internal/dependencies/mocks"
	"github.com/mcoot/tkserver/internal/services/restart"
	"github.com/mcoot/tkserver/internal/services/whitelist"
	"github.com/mcoot/tkserver/internal/session"
	"github.com/mcoot/tkserver/internal/storage/memory"
	"github.com/mcoot/tkserver/internal/testutil"
)

// TestShellSecret is the shell password of a TestApp
const TestShellSecret = "test-shell-secret"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock     *mocks.MockClock
	MemoryStorage *memory.Storage
	Executor      *mocks.MockExecutor
	StopAction    *mocks.MockAction
	StartAction   *mocks.MockAction
}

// NewTestApp creates an App configured for testing with mocked
// dependencies. dataDir receives the link and mod list files.
func NewTestApp(dataDir string) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	executor := mocks.NewMockExecutor("ok")
	stop := mocks.NewMockAction()
	start := mocks.NewMockAction()

	sessionCfg := session.DefaultConfig()
	sessionCfg.ShellRetryDelay = 0

	cfg := Config{
		DataDir: dataDir,
		Whitelist: whitelist.Config{
			MaxRetries:     1,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     time.Millisecond,
		},
		Session:     sessionCfg,
		Restart:     restart.Config{Tick: time.Second, Grace: time.Millisecond},
		ShellSecret: TestShellSecret,
	}

	app := newWithDependencies(store, mockClock, executor, stop, start, cfg, testutil.NopLogger())

	return &TestApp{
		App:           app,
		MockClock:     mockClock,
		MemoryStorage: store,
		Executor:      executor,
		StopAction:    stop,
		StartAction:   start,
	}
}
