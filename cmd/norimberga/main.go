// Command norimberga serves the medieval city builder over HTTP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GitRon/norimberga-sub001/internal/api"
	"github.com/GitRon/norimberga-sub001/internal/catalog"
	"github.com/GitRon/norimberga-sub001/internal/config"
	"github.com/GitRon/norimberga-sub001/internal/engine"
	"github.com/GitRon/norimberga-sub001/internal/persistence"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	slog.Info("Norimberga: medieval city builder")

	// ── Catalog ───────────────────────────────────────────────────────
	cat, err := loadCatalog(cfg)
	if err != nil {
		slog.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("catalog loaded",
		"source", catalogSource(cfg),
		"digest", cat.Digest[:12],
		"buildings", len(cat.Buildings),
		"milestones", len(cat.Milestones),
		"edicts", len(cat.Edicts),
		"threads", len(cat.Threads),
	)

	// ── Database ──────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := persistence.Open(ctx, cfg.DBDialect, cfg.DSN())
	if err != nil {
		slog.Error("failed to open database", "dialect", cfg.DBDialect, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// ── HTTP API ──────────────────────────────────────────────────────
	apiServer := &api.Server{
		Store:   db,
		Catalog: cat,
		Locks:   engine.NewLocks(),
		Port:    cfg.Port,
		NewGame: engine.NewGameOptions{
			Coins:      cfg.StartingCoins,
			Population: cfg.StartingPopulation,
			MapSize:    cfg.MapSize,
			Seed:       cfg.MapSeed,
		},
		RateLimit: cfg.RateLimitPerMinute,
	}
	srv := apiServer.Start()

	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.Port)

	<-ctx.Done()
	slog.Info("received signal, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown failed", "error", err)
	}
	slog.Info("stopped")
}

func loadCatalog(cfg config.Config) (*catalog.Catalog, error) {
	opts := catalog.Options{Strict: cfg.CatalogStrict}
	if cfg.CatalogPath == "" {
		return catalog.LoadDefault(opts)
	}
	return catalog.Load(cfg.CatalogPath, opts)
}

func catalogSource(cfg config.Config) string {
	if cfg.CatalogPath == "" {
		return "embedded"
	}
	return cfg.CatalogPath
}
