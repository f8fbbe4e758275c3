package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type APIConfig struct {
	Addr          string
	Game          GameConfig
	TickEvery     time.Duration
	AutoClose     bool
	SaveEvery     time.Duration
	Store         string
	TablesFile    string
	Discord       DiscordConfig
	OTLPEndpoint  string
	LogLevel      slog.Level
	AllowedOrigin string
}

type GameConfig struct {
	Seed         int64
	StartingCash float64
	SeedVehicles int
}

type DiscordConfig struct {
	Token     string
	ChannelID string
}

func (d DiscordConfig) Enabled() bool {
	return d.Token != "" && d.ChannelID != ""
}

type WorkerConfig struct {
	Game       GameConfig
	Days       int
	Store      string
	TablesFile string
	Discord    DiscordConfig
	LogLevel   slog.Level
}

type CLIConfig struct {
	APIBaseURL string
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("DEALERSIM_API_ADDR", ":8080")
	}

	cfg := APIConfig{
		Addr:          addr,
		Game:          loadGame(),
		TickEvery:     envDurationDefault("DEALERSIM_TICK_EVERY", 5*time.Second),
		AutoClose:     envBoolDefault("DEALERSIM_AUTO_CLOSE", false),
		SaveEvery:     envDurationDefault("DEALERSIM_SAVE_EVERY", time.Minute),
		Store:         strings.TrimSpace(os.Getenv("DEALERSIM_STORE")),
		TablesFile:    strings.TrimSpace(os.Getenv("DEALERSIM_TABLES_FILE")),
		Discord:       loadDiscord(),
		OTLPEndpoint:  strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		LogLevel:      envLevelDefault("DEALERSIM_LOG_LEVEL", slog.LevelInfo),
		AllowedOrigin: envDefault("DEALERSIM_ALLOWED_ORIGIN", "*"),
	}
	if cfg.TickEvery <= 0 {
		return cfg, fmt.Errorf("DEALERSIM_TICK_EVERY must be positive")
	}
	if cfg.Game.StartingCash < 0 {
		return cfg, fmt.Errorf("DEALERSIM_STARTING_CASH must be >= 0")
	}
	return cfg, nil
}

func LoadWorkerFromEnv() (WorkerConfig, error) {
	cfg := WorkerConfig{
		Game:       loadGame(),
		Days:       envIntDefault("DEALERSIM_DAYS", 30),
		Store:      strings.TrimSpace(os.Getenv("DEALERSIM_STORE")),
		TablesFile: strings.TrimSpace(os.Getenv("DEALERSIM_TABLES_FILE")),
		Discord:    loadDiscord(),
		LogLevel:   envLevelDefault("DEALERSIM_LOG_LEVEL", slog.LevelInfo),
	}
	if cfg.Days <= 0 {
		return cfg, fmt.Errorf("DEALERSIM_DAYS must be positive")
	}
	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("DLR_API_BASE_URL", "http://localhost:8080"), "/"),
	}
}

func loadGame() GameConfig {
	return GameConfig{
		Seed:         int64(envIntDefault("DEALERSIM_SEED", 42)),
		StartingCash: envFloatDefault("DEALERSIM_STARTING_CASH", 1_000_000),
		SeedVehicles: envIntDefault("DEALERSIM_SEED_VEHICLES", 40),
	}
}

func loadDiscord() DiscordConfig {
	return DiscordConfig{
		Token:     strings.TrimSpace(os.Getenv("DEALERSIM_DISCORD_TOKEN")),
		ChannelID: strings.TrimSpace(os.Getenv("DEALERSIM_DISCORD_CHANNEL")),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envFloatDefault(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envIntDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envLevelDefault(key string, fallback slog.Level) slog.Level {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		return fallback
	}
	return lvl
}
