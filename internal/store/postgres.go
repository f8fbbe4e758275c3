package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dealersim/internal/db"
)

const defaultGameID = "default"

type Postgres struct {
	pool   *pgxpool.Pool
	gameID string
}

func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool, gameID: defaultGameID}, nil
}

func (p *Postgres) Load(ctx context.Context) ([]byte, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx, `SELECT state FROM game_snapshots WHERE game_id = $1`, p.gameID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	return raw, nil
}

func (p *Postgres) Save(ctx context.Context, raw []byte) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO game_snapshots (game_id, state, updated_at) VALUES ($1, $2::jsonb, now())
		ON CONFLICT (game_id) DO UPDATE SET state = EXCLUDED.state, updated_at = now()`,
		p.gameID, string(raw))
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
