package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGStore keeps the state blob in a single-row key/value table:
//
//	CREATE TABLE IF NOT EXISTS app_state (
//	    key        text PRIMARY KEY,
//	    blob       bytea NOT NULL,
//	    updated_at timestamptz NOT NULL DEFAULT now()
//	);
type PGStore struct {
	db  *sql.DB
	key string
}

func NewPGStore(db *sql.DB, key string) *PGStore {
	return &PGStore{db: db, key: key}
}

func (s *PGStore) Get(ctx context.Context) ([]byte, error) {
	stmt := `
		SELECT blob FROM app_state
		WHERE key = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var blob []byte
	err := s.db.QueryRowContext(ctx, stmt, s.key).Scan(&blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSavedState
		}
		return nil, err
	}

	return blob, nil
}

func (s *PGStore) Set(ctx context.Context, blob []byte) error {
	stmt := `
		INSERT INTO app_state (key, blob, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE
		SET blob = EXCLUDED.blob, updated_at = now()`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx, stmt, s.key, blob)
	return err
}
