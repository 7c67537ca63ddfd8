package backup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is a Remote backed by a PostgreSQL table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to dsn and creates the snapshots table if needed.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse backup dsn: %w", err)
	}

	// A single user saves a handful of times a day.
	config.MaxConns = 2
	config.MinConns = 0

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	p := &Postgres{pool: pool}
	if err := p.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate backup table: %w", err)
	}
	return p, nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			document JSONB NOT NULL,
			last_updated TIMESTAMPTZ NOT NULL
		)`)
	return err
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) Put(ctx context.Context, id string, doc []byte, lastUpdated time.Time) error {
	query := `
		INSERT INTO snapshots (id, document, last_updated) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, last_updated = EXCLUDED.last_updated`
	_, err := p.pool.Exec(ctx, query, id, doc, lastUpdated)
	return err
}

func (p *Postgres) Fetch(ctx context.Context, id string) ([]byte, error) {
	var doc []byte
	err := p.pool.QueryRow(ctx, `SELECT document FROM snapshots WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}
