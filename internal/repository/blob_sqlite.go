package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteDirPermissions = 0755

const sqliteBlobSchema = `CREATE TABLE IF NOT EXISTS survey_session_blobs (
	session_key TEXT PRIMARY KEY,
	payload BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

var _ SessionBlobRepository = &SessionBlobSQLite{}

// SessionBlobSQLite keeps session blobs in a local SQLite file
type SessionBlobSQLite struct {
	db *sql.DB
}

// NewSessionBlobSQLite opens (and creates if needed) the database at path
func NewSessionBlobSQLite(path string) (*SessionBlobSQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path not set")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, sqliteDirPermissions); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	if _, err := db.Exec(sqliteBlobSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create session blob table: %w", err)
	}

	return &SessionBlobSQLite{db: db}, nil
}

func (r *SessionBlobSQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM survey_session_blobs WHERE session_key = ?`, key,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("query session blob: %w", err)
	}

	return payload, true, nil
}

func (r *SessionBlobSQLite) Put(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO survey_session_blobs (session_key, payload, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (session_key) DO UPDATE
		SET payload = excluded.payload, updated_at = excluded.updated_at`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("upsert session blob: %w", err)
	}

	return nil
}

func (r *SessionBlobSQLite) Close() error {
	return r.db.Close()
}
