package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/avalon-core/worldnode/internal/bus"
	"github.com/avalon-core/worldnode/internal/config"
	"github.com/avalon-core/worldnode/internal/db"
	"github.com/avalon-core/worldnode/internal/itemcache"
	"github.com/avalon-core/worldnode/internal/metrics"
	"github.com/avalon-core/worldnode/internal/worldhandler"
	"github.com/avalon-core/worldnode/internal/worldnode"
)

const ConfigPath = "config/worldnode.yaml"

// busCapacity bounds the world-handler queue; pushes beyond it are dropped
// rather than blocking connection goroutines.
const busCapacity = 4096

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
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
	cfgPath := ConfigPath
	if p := os.Getenv("WORLDNODE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadWorldNode(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))

	slog.Info("world node starting",
		"bind", cfg.BindAddress,
		"port", cfg.Port,
		"log_level", cfg.LogLevel)

	database, err := db.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()
	slog.Info("database connected")

	if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database migrations applied")

	accountRepo := db.NewAccountRepository(database.Pool())
	charRepo := db.NewCharacterRepository(database.Pool())

	b := bus.New(busCapacity)
	m := metrics.Default()

	cache := itemcache.New(charRepo)
	handler := worldhandler.New(b, cache, slog.Default())

	server := worldnode.NewServer(cfg, accountRepo, charRepo, b, m, slog.Default())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting world handler")
		if err := handler.Run(gctx); err != nil && gctx.Err() == nil {
			return fmt.Errorf("world handler: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		slog.Info("starting world node server", "port", cfg.Port)
		if err := server.Run(gctx); err != nil {
			return fmt.Errorf("world node server: %w", err)
		}
		return nil
	})

	if cfg.MetricsAddress != "" {
		g.Go(func() error {
			return serveMetrics(gctx, cfg.MetricsAddress)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// serveMetrics exposes the Prometheus registry over HTTP until ctx is
// canceled.
func serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting metrics listener", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down metrics listener: %w", err)
		}
		return nil
	case err := <-errCh:
		return fmt.Errorf("metrics listener: %w", err)
	}
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
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
