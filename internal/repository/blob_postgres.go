package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionBlobRepository stores opaque serialized survey states by key.
// A missing key is reported through found, not as an error.
type SessionBlobRepository interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

var _ SessionBlobRepository = &SessionBlobPostgres{}

type SessionBlobPostgres struct {
	db *pgxpool.Pool
}

func NewSessionBlobPostgres(db *pgxpool.Pool) *SessionBlobPostgres {
	return &SessionBlobPostgres{db: db}
}

const (
	getSessionBlobQuery = `SELECT payload FROM survey_session_blobs WHERE session_key = $1`

	// Last writer wins, there is no version guard on the row
	putSessionBlobQuery = `INSERT INTO survey_session_blobs (session_key, payload, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (session_key) DO UPDATE
		SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`
)

func (r *SessionBlobPostgres) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := r.db.QueryRow(ctx, getSessionBlobQuery, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("query session blob: %w", err)
	}

	return payload, true, nil
}

func (r *SessionBlobPostgres) Put(ctx context.Context, key string, value []byte) error {
	if _, err := r.db.Exec(ctx, putSessionBlobQuery, key, value); err != nil {
		return fmt.Errorf("upsert session blob: %w", err)
	}

	return nil
}
