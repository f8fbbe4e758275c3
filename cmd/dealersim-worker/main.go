package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"dealersim/internal/config"
	"dealersim/internal/game"
	"dealersim/internal/notify"
	"dealersim/internal/progression"
	"dealersim/internal/sim"
	"dealersim/internal/store"
)

// The worker plays a batch of business days without a timer and prints the
// close-out summaries. With DEALERSIM_STORE set it continues from and saves
// back to the same snapshot the API uses.
func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadWorkerFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:           "dealersim-worker",
		Short:         "Simulate whole business days offline",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.Days <= 0 {
				return fmt.Errorf("--days must be positive")
			}
			logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
			return run(cmd.Context(), cfg, logger)
		},
	}
	root.Flags().IntVar(&cfg.Days, "days", cfg.Days, "business days to simulate")
	root.Flags().Int64Var(&cfg.Game.Seed, "seed", cfg.Game.Seed, "seed for a new game")
	root.Flags().StringVar(&cfg.Store, "store", cfg.Store, "snapshot store url (file path, sqlite:// or postgres://)")
	root.Flags().StringVar(&cfg.TablesFile, "tables", cfg.TablesFile, "YAML tables override file")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		slog.Error("worker failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.WorkerConfig, logger *slog.Logger) error {
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

	var snap store.Snapshotter
	if cfg.Store != "" {
		snap, err = store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer snap.Close()
		state = store.LoadState(ctx, snap, state, logger)
	}

	engine := game.NewEngine(game.NewMemoryRepository(state),
		game.WithLogger(logger),
		game.WithTables(overrides.Tables),
		game.WithProgression(progression.Default()),
	)

	var n notify.Notifier
	if cfg.Discord.Enabled() {
		d, err := notify.NewDiscord(cfg.Discord.Token, cfg.Discord.ChannelID)
		if err != nil {
			return err
		}
		n = d
	}

	logger.Info("worker started", "days", cfg.Days, "day", state.Day)
	reports, runErr := sim.RunDays(ctx, engine, cfg.Days, n, logger)
	for _, r := range reports {
		fmt.Println(notify.Summary(r))
		fmt.Println()
	}
	if snap != nil {
		if err := store.SaveState(context.WithoutCancel(ctx), snap, engine.State()); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
	}
	if runErr != nil {
		return runErr
	}
	logger.Info("worker completed", "days", len(reports), "cash", engine.State().Cash)
	return nil
}
