package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/utakatalp/league-viewer/internal/api"
	"github.com/utakatalp/league-viewer/internal/betting"
	"github.com/utakatalp/league-viewer/internal/config"
	"github.com/utakatalp/league-viewer/internal/logging"
	"github.com/utakatalp/league-viewer/internal/session"
	"github.com/utakatalp/league-viewer/internal/store"
)

const serviceName = "league-viewer"

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "Path to config file (can be set via CONFIG_PATH env var)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if _, err := logging.SetupLogger(cfg.Logging, serviceName); err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A bad season file is fatal: nothing is served from a partial load.
	season, err := store.Load(ctx, cfg)
	if err != nil {
		slog.Error("failed to load season", "season", cfg.Season.Name, "error", err)
		os.Exit(1)
	}
	slog.Info("season loaded", "season", season.Name, "matches", season.Len(), "teams", len(season.Teams()))

	game, err := betting.NewGame(
		betting.NewRandSource(cfg.Game.Seed),
		betting.SeasonPricer(season.Matches()),
		betting.Settings{InitialBalance: cfg.Game.InitialBalance, BracketSize: cfg.Game.BracketSize},
	)
	if err != nil {
		slog.Error("invalid game settings", "error", err)
		os.Exit(1)
	}

	var sessions session.Store
	if cfg.Redis.URL != "" {
		rs, err := session.NewRedisStore(ctx, cfg.Redis.URL, cfg.Redis.SessionTTL)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer rs.Close()
		sessions = rs
		slog.Info("game sessions stored in redis", "ttl", cfg.Redis.SessionTTL)
	} else {
		sessions = session.NewMemoryStore(cfg.Redis.SessionTTL)
		slog.Info("game sessions stored in memory", "ttl", cfg.Redis.SessionTTL)
	}

	handler := api.NewHandler(season, cfg.Season.IncludeAwayOnly, game, sessions)
	server := api.NewServer(cfg.Server.Port, handler, cfg.Server.ReadHeaderTimeout)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("REST server error", "error", err)
			cancel()
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("REST API server shutdown error", "error", err)
	}
}
