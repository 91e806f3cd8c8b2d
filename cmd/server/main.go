package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcoot/rpsmatch/internal/api"
	"github.com/mcoot/rpsmatch/internal/config"
	"github.com/mcoot/rpsmatch/internal/factory"
	"github.com/mcoot/rpsmatch/internal/transport"
)

const shutdownTimeout = 30 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(os.Getenv("RPS_CONFIG"))
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		return 1
	}
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		slog.Error("invalid log level", slog.String("error", err.Error()))
		return 1
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Create application factory
	app, err := factory.New(factory.FromConfig(cfg, logger))
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close application", slog.String("error", err.Error()))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Game listener
	gameServer := transport.NewServer(transport.ServerConfig{
		Host:         cfg.Game.Host,
		Port:         cfg.Game.Port,
		WriteTimeout: cfg.Game.WriteTimeout,
	}, app.Handler, app.Registry, logger)
	if err := gameServer.Listen(); err != nil {
		logger.Error("failed to bind game listener", slog.String("addr", gameServer.Addr()), slog.String("error", err.Error()))
		return 1
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- gameServer.Serve(ctx)
	}()
	logger.Info("game server started", slog.String("addr", gameServer.Addr()))

	// Admin API and WebSocket endpoint
	var httpServer *api.Server
	if cfg.HTTP.Enabled {
		router := api.NewRouter(api.RouterConfig{
			Logger:    logger,
			Ledger:    app.Ledger,
			Registry:  app.Registry,
			WebSocket: transport.NewWebSocketHandler(app.Handler, cfg.Game.WriteTimeout, logger),
		})

		serverConfig := api.DefaultServerConfig()
		serverConfig.Host = cfg.HTTP.Host
		serverConfig.Port = cfg.HTTP.Port
		httpServer = api.NewServer(router, serverConfig, logger)
		if err := httpServer.Listen(); err != nil {
			logger.Error("failed to bind HTTP listener", slog.String("addr", httpServer.Addr()), slog.String("error", err.Error()))
			shutdown(gameServer, nil, logger)
			return 1
		}

		go func() {
			errCh <- httpServer.Serve()
		}()
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			exitCode = 1
		}
	}

	cancel()
	if !shutdown(gameServer, httpServer, logger) {
		exitCode = 1
	}

	logger.Info("server stopped")
	return exitCode
}

// shutdown stops the HTTP server first so no new WebSocket sessions start,
// then the game listener along with every live session
func shutdown(gameServer *transport.Server, httpServer *api.Server, logger *slog.Logger) bool {
	ok := true
	if httpServer != nil {
		if err := httpServer.Shutdown(context.Background()); err != nil {
			logger.Error("HTTP shutdown error", slog.String("error", err.Error()))
			ok = false
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := gameServer.Shutdown(ctx); err != nil {
		logger.Error("game server shutdown error", slog.String("error", err.Error()))
		ok = false
	}
	return ok
}
