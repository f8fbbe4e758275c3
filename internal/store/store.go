package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"dealersim/internal/game"
)

var ErrNoSnapshot = errors.New("no snapshot stored")

// Snapshotter persists the whole game as one JSON document.
type Snapshotter interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, raw []byte) error
	Close() error
}

// Open picks a backend from the URL scheme: file://, sqlite:// or
// postgres://. A bare path is treated as a file.
func Open(ctx context.Context, url string) (Snapshotter, error) {
	url = strings.TrimSpace(url)
	switch {
	case url == "":
		return nil, fmt.Errorf("snapshot store url is empty")
	case strings.HasPrefix(url, "sqlite://"):
		s, err := OpenSQLite(ctx, url)
		if err != nil {
			return nil, err
		}
		return s, nil
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		p, err := OpenPostgres(ctx, url)
		if err != nil {
			return nil, err
		}
		return p, nil
	case strings.HasPrefix(url, "file://"):
		return NewFile(strings.TrimPrefix(url, "file://")), nil
	default:
		return NewFile(url), nil
	}
}

// Decode reads a snapshot over base so fields missing from older saves keep
// base's values. Collections are always taken from the snapshot.
func Decode(raw []byte, base game.GameState) (game.GameState, error) {
	s := base.Clone()
	s.Inventory = nil
	s.SoldVehicles = nil
	s.Advisors = nil
	s.Technicians = nil
	s.SalesManager = nil
	s.ServiceQueue = nil
	s.CompletedROs = nil
	s.RecentDeals = nil
	s.LeadActivity = nil
	s.DailyHistory = nil
	s.MonthlyReports = nil
	s.Notifications = nil
	s.Unlocks = nil
	s.Today = game.DayLedger{}
	if err := json.Unmarshal(raw, &s); err != nil {
		return base, fmt.Errorf("decode snapshot: %w", err)
	}
	return game.Normalize(s), nil
}

func Encode(s game.GameState) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return raw, nil
}

// LoadState returns the stored game, or base when nothing usable is stored.
func LoadState(ctx context.Context, snap Snapshotter, base game.GameState, logger *slog.Logger) game.GameState {
	if logger == nil {
		logger = slog.Default()
	}
	raw, err := snap.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoSnapshot) {
			logger.Warn("snapshot load failed, starting fresh", "error", err)
		}
		return base
	}
	s, err := Decode(raw, base)
	if err != nil {
		logger.Warn("snapshot unreadable, starting fresh", "error", err)
		return base
	}
	logger.Info("snapshot restored", "date", s.DateKey(), "cash", s.Cash)
	return s
}

func SaveState(ctx context.Context, snap Snapshotter, s game.GameState) error {
	raw, err := Encode(s)
	if err != nil {
		return err
	}
	return snap.Save(ctx, raw)
}
