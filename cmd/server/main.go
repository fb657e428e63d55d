package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/mcoot/tkserver/internal/api"
	"github.com/mcoot/tkserver/internal/config"
	"github.com/mcoot/tkserver/internal/console"
	"github.com/mcoot/tkserver/internal/factory"
	"github.com/mcoot/tkserver/internal/server"
)

func main() {
	settings, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: settings.Level(),
	}))
	slog.SetDefault(logger)

	if err := run(settings, logger); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func run(settings config.Settings, logger *slog.Logger) error {
	app, err := factory.New(factory.ConfigFromSettings(settings, logger))
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("closing storage", slog.String("error", err.Error()))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app.Whitelist.Load(ctx)

	tcp := server.New(app.Sessions, app.Clients, server.Config{
		Addr:            settings.ListenAddr,
		ShutdownTimeout: settings.ShutdownTimeout,
	}, logger)
	if err := tcp.Listen(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return tcp.Serve(gctx) })
	g.Go(func() error { return app.Scheduler.Run(gctx) })

	if settings.AdminAddr != "" {
		router := api.NewRouter(api.RouterConfig{
			Logger:    logger,
			Clock:     app.Clock,
			Whitelist: app.Whitelist,
			Clients:   app.Clients,
			Scheduler: app.Scheduler,
			Token:     settings.AdminToken,
		})
		adminCfg := api.DefaultServerConfig()
		adminCfg.Addr = settings.AdminAddr
		admin := api.NewServer(router, adminCfg, logger)

		g.Go(admin.Start)
		g.Go(func() error {
			<-gctx.Done()
			return admin.Shutdown(context.Background())
		})
	}

	// the console truncates the membership file itself on exit
	consoleExited := false
	if settings.ConsoleEnabled {
		consoleCfg := console.DefaultConfig()
		consoleCfg.RetainLines = settings.MembershipRetainLines
		con := console.New(os.Stdin, os.Stdout, app.Whitelist, app.Clients, app.Content, app.Scheduler, consoleCfg, logger)
		g.Go(func() error {
			err := con.Run(gctx)
			if errors.Is(err, console.ErrExit) {
				consoleExited = true
				stop()
				return nil
			}
			return err
		})
	}

	logger.Info("tkserver started",
		slog.String("addr", tcp.Addr()),
		slog.String("admin_addr", settings.AdminAddr),
		slog.String("storage", settings.StorageType))

	err = g.Wait()

	if shutdownErr := tcp.Shutdown(context.Background()); shutdownErr != nil {
		logger.Warn("server shutdown", slog.String("error", shutdownErr.Error()))
	}

	if !consoleExited {
		app.Whitelist.TruncateMembershipFile(context.Background(), settings.MembershipRetainLines)
	}

	return err
}
