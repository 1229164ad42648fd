package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/liamwears/kinocatalog/internal/store"
)

// PostgresBackend persists client state in the client_state table
type PostgresBackend struct {
	db *DB
}

func NewPostgresBackend(db *DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

func (b *PostgresBackend) Load(ctx context.Context, key string, dst any) (bool, error) {
	var raw []byte
	err := b.db.QueryRow(ctx, `SELECT value FROM client_state WHERE key = $1`, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("%w: %s: %v", store.ErrCorrupt, key, err)
	}
	return true, nil
}

func (b *PostgresBackend) Save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	query := `
		INSERT INTO client_state (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	if _, err := b.db.Exec(ctx, query, key, raw); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Health reports whether PostgreSQL is reachable
func (b *PostgresBackend) Health(ctx context.Context) error {
	return b.db.Health(ctx)
}
