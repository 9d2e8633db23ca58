package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/udisondev/jeux/internal/config"
	"github.com/udisondev/jeux/internal/jeux"
	"github.com/udisondev/jeux/internal/model"
)

const DefaultConfigPath = "config/jeux.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	configPath := flag.String("config", DefaultConfigPath, "path to YAML config file")
	port := flag.Int("p", 0, "port to listen on (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))

	slog.Info("jeux server starting", "log_level", cfg.LogLevel)

	players := model.NewPlayerRegistry()
	clients := jeux.NewClientRegistry(cfg.MaxClients)
	srv := jeux.NewServer(players, clients)
	srv.ReadTimeout = cfg.ReadTimeout
	srv.WriteTimeout = cfg.WriteTimeout

	addr := fmt.Sprintf("%s:%d", cfg.BindAddress, cfg.Port)
	if err := srv.Run(ctx, addr); err != nil {
		return fmt.Errorf("running server: %w", err)
	}

	clients.WaitForEmpty()
	slog.Info("jeux server stopped")
	return nil
}

// parseLogLevel converts a string log level to slog.Level. Defaults to
// Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
