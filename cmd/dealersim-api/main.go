package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"dealersim/internal/api"
	"dealersim/internal/config"
	"dealersim/internal/game"
	"dealersim/internal/notify"
	"dealersim/internal/progression"
	"dealersim/internal/sim"
	"dealersim/internal/store"
	"dealersim/internal/telemetry"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("dealersim api failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.APIConfig, logger *slog.Logger) error {
	overrides, err := config.LoadTables(cfg.TablesFile)
	if err != nil {
		return err
	}
	state := game.NewState(game.NewGameConfig{
		Seed:         cfg.Game.Seed,
		StartingCash: cfg.Game.StartingCash,
		SeedVehicles: cfg.Game.SeedVehicles,
		Coefficients: overrides.Coefficients,
	}, overrides.Tables)

	var save sim.SaveFunc
	if cfg.Store != "" {
		snap, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer snap.Close()
		state = store.LoadState(ctx, snap, state, logger)
		save = func(ctx context.Context, s game.GameState) error {
			return store.SaveState(ctx, snap, s)
		}
	}

	engine := game.NewEngine(game.NewMemoryRepository(state),
		game.WithLogger(logger),
		game.WithTables(overrides.Tables),
		game.WithProgression(progression.Default()),
	)

	shutdownMetrics, err := telemetry.Init(ctx, cfg.OTLPEndpoint, "dealersim-api")
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMetrics(sctx); err != nil {
			logger.Warn("metrics shutdown failed", "err", err)
		}
	}()
	metrics, err := telemetry.NewInstruments(telemetry.Meter("dealersim"))
	if err != nil {
		return err
	}

	notifiers := notify.Multi{notify.NewLog(logger)}
	if cfg.Discord.Enabled() {
		d, err := notify.NewDiscord(cfg.Discord.Token, cfg.Discord.ChannelID)
		if err != nil {
			return err
		}
		notifiers = append(notifiers, d)
	}

	hub := api.NewHub(logger, cfg.AllowedOrigin)
	server := api.New(cfg, logger, engine, hub)

	opts := []sim.Option{
		sim.WithLogger(logger),
		sim.WithAutoClose(cfg.AutoClose),
		sim.WithNotifier(notifiers),
		sim.WithMetrics(metrics),
		sim.WithPublisher(hub, func(s game.GameState) any { return api.NewStateView(s) }),
	}
	if save != nil {
		opts = append(opts, sim.WithSnapshots(save, cfg.SaveEvery))
	}
	runner := sim.NewRunner(engine, cfg.TickEvery, opts...)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("dealersim api listening", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpServer.Shutdown(sctx)
	})
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return runner.Run(gctx)
	})
	return g.Wait()
}
