package interview

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	state TEXT NOT NULL,
	created_at_unix_ms INTEGER NOT NULL,
	updated_at_unix_ms INTEGER NOT NULL
);
`

type sqliteRepo struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating if needed) a SQLite-backed session
// store at path. It is the zero-configuration store for single-machine
// deployments where no PostgreSQL is available. The connection pool is
// capped at one connection because the driver serialises writers anyway.
func NewSQLiteRepository(path string) (Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return &sqliteRepo{db: db}, nil
}

func (r *sqliteRepo) Create(ctx context.Context, s *Session) error {
	stateJSON, err := json.Marshal(s.State)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}
	query := `INSERT INTO sessions (id, state, created_at_unix_ms, updated_at_unix_ms) VALUES (?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		s.ID.String(), string(stateJSON), s.CreatedAt.UnixMilli(), s.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *sqliteRepo) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	query := `SELECT id, state, created_at_unix_ms, updated_at_unix_ms FROM sessions WHERE id = ?`

	var (
		idStr     string
		stateJSON string
		createdMS int64
		updatedMS int64
	)
	err := r.db.QueryRowContext(ctx, query, id.String()).Scan(&idStr, &stateJSON, &createdMS, &updatedMS)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return nil, err
	}

	s := Session{
		CreatedAt: time.UnixMilli(createdMS).UTC(),
		UpdatedAt: time.UnixMilli(updatedMS).UTC(),
	}
	if s.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("parse session id %q: %w", idStr, err)
	}
	if err := json.Unmarshal([]byte(stateJSON), &s.State); err != nil {
		return nil, fmt.Errorf("unmarshal session state: %w", err)
	}
	normalizeState(&s.State)

	return &s, nil
}

func (r *sqliteRepo) Save(ctx context.Context, s *Session) error {
	stateJSON, err := json.Marshal(s.State)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}
	query := `
		INSERT INTO sessions (id, state, created_at_unix_ms, updated_at_unix_ms)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			state = excluded.state,
			updated_at_unix_ms = excluded.updated_at_unix_ms
	`
	_, err = r.db.ExecContext(ctx, query,
		s.ID.String(), string(stateJSON), s.CreatedAt.UnixMilli(), s.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *sqliteRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

// Close releases the underlying database handle.
func (r *sqliteRepo) Close() error {
	return r.db.Close()
}
