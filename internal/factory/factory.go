package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/tkserver/internal/config"
	"github.com/mcoot/tkserver/internal/dependencies/clock"
	"github.com/mcoot/tkserver/internal/services/clients"
	"github.com/mcoot/tkserver/internal/services/content"
	"github.com/mcoot/tkserver/internal/services/restart"
	"github.com/mcoot/tkserver/internal/services/shell"
	"github.com/mcoot/tkserver/internal/services/whitelist"
	"github.com/mcoot/tkserver/internal/session"
	"github.com/mcoot/tkserver/internal/storage"
	filestorage "github.com/mcoot/tkserver/internal/storage/file"
	"github.com/mcoot/tkserver/internal/storage/memory"
	redisstorage "github.com/mcoot/tkserver/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeFile   = "file"
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock clock.Clock

	// Services
	Whitelist *whitelist.Service
	Clients   *clients.Registry
	Content   *content.Service
	Shell     *shell.Gateway
	Scheduler *restart.Scheduler
	Sessions  *session.Handler

	closers []io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// DataDir holds the whitelist, link and mod list files
	DataDir string
	// StorageType selects the whitelist backend ("file", "memory" or "redis")
	// If empty, defaults to "file"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config

	Whitelist whitelist.Config
	Session   session.Config
	Restart   restart.Config

	// ShellSecret is the remote shell password; empty disables login
	ShellSecret string
	// ShellEnabled selects the host executor; when false commands are refused
	ShellEnabled bool

	StopScript  string
	StartScript string
}

// ConfigFromSettings maps environment settings onto a factory Config
func ConfigFromSettings(s config.Settings, logger *slog.Logger) Config {
	redisCfg := redisstorage.DefaultConfig()
	redisCfg.URL = s.RedisURL

	return Config{
		Logger:      logger,
		DataDir:     s.DataDir,
		StorageType: s.StorageType,
		RedisConfig: &redisCfg,
		Whitelist:   whitelist.DefaultConfig(),
		Session: session.Config{
			ExpectedVersion:  s.ExpectedVersion,
			MaxShellAttempts: s.ShellMaxAttempts,
			ShellRetryDelay:  s.ShellRetryDelay,
		},
		Restart: restart.Config{
			Tick:  s.RestartTick,
			Grace: s.RestartGrace,
		},
		ShellSecret:  s.ShellSecret,
		ShellEnabled: s.ShellEnabled,
		StopScript:   s.StopScriptPath(),
		StartScript:  s.StartScriptPath(),
	}
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "."
	}

	// Create storage based on type
	var (
		store   storage.Storage
		closers []io.Closer
	)
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeFile
	}

	switch storageType {
	case StorageTypeFile:
		fileStore, err := filestorage.New(filestorage.DefaultConfig(dataDir))
		if err != nil {
			return nil, err
		}
		store = fileStore
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
		closers = append(closers, redisStore)
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'file', 'memory' or 'redis'", storageType)
	}

	var executor shell.Executor = shell.DisabledExecutor{}
	if cfg.ShellEnabled {
		executor = shell.HostExecutor{}
	}

	stop := restart.NewScriptAction("stop", cfg.StopScript, logger)
	start := restart.NewScriptAction("start", cfg.StartScript, logger)

	cfg.DataDir = dataDir
	app := newWithDependencies(store, clock.New(), executor, stop, start, cfg, logger)
	app.closers = closers
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	executor shell.Executor,
	stop, start restart.Action,
	cfg Config,
	logger *slog.Logger,
) *App {
	if cfg.Whitelist.MaxRetries == 0 && cfg.Whitelist.InitialBackoff == 0 {
		cfg.Whitelist = whitelist.DefaultConfig()
	}
	if cfg.Session.ExpectedVersion == "" {
		cfg.Session = session.DefaultConfig()
	}
	if cfg.Restart.Grace == 0 {
		cfg.Restart = restart.DefaultConfig()
	}

	whitelistService := whitelist.New(store, cfg.Whitelist, logger)
	clientRegistry := clients.New(clk, logger)
	contentService := content.New(content.DefaultConfig(cfg.DataDir), logger)
	shellGateway := shell.New(shell.Config{Secret: cfg.ShellSecret}, executor, logger)
	scheduler := restart.New(clk, stop, start, cfg.Restart, logger)
	sessions := session.NewHandler(whitelistService, clientRegistry, contentService, shellGateway, cfg.Session, logger)

	return &App{
		Storage:   store,
		Clock:     clk,
		Whitelist: whitelistService,
		Clients:   clientRegistry,
		Content:   contentService,
		Shell:     shellGateway,
		Scheduler: scheduler,
		Sessions:  sessions,
	}
}

// Close releases storage connections
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
