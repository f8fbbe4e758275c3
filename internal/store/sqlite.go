package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS game_snapshots (
	game_id    TEXT PRIMARY KEY,
	state      TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

type SQLite struct {
	db     *sql.DB
	gameID string
}

// OpenSQLite accepts sqlite://path or sqlite://:memory:.
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	path := strings.TrimPrefix(dsn, "sqlite://")
	if path == "" {
		return nil, fmt.Errorf("invalid sqlite DSN, expected sqlite://path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// :memory: databases are per connection.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite: %w", err)
	}
	for _, stmt := range []string{"PRAGMA busy_timeout = 30000;", "PRAGMA journal_mode = WAL;", sqliteSchema} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("preparing sqlite: %w", err)
		}
	}
	return &SQLite{db: db, gameID: defaultGameID}, nil
}

func (s *SQLite) Load(ctx context.Context) ([]byte, error) {
	var state string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM game_snapshots WHERE game_id = ?`, s.gameID).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	return []byte(state), nil
}

func (s *SQLite) Save(ctx context.Context, raw []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO game_snapshots (game_id, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(game_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		s.gameID, string(raw), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
