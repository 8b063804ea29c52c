package interview

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Repository stores interview sessions. Implementations return
// ErrSessionNotFound for ids they do not hold.
type Repository interface {
	Create(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresRepo struct {
	db *sql.DB
}

// NewRepository returns a PostgreSQL-backed session store. The session
// state aggregate lives in a JSONB column; the schema comes from the
// migrations directory.
func NewRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) Create(ctx context.Context, s *Session) error {
	stateJSON, err := json.Marshal(s.State)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}

	query := `INSERT INTO sessions (id, state, created_at, updated_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query, s.ID, stateJSON, s.CreatedAt, s.UpdatedAt); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	query := `SELECT id, state, created_at, updated_at FROM sessions WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)

	var s Session
	var stateJSON []byte

	err := row.Scan(&s.ID, &stateJSON, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return nil, err
	}

	if len(stateJSON) > 0 {
		if err := json.Unmarshal(stateJSON, &s.State); err != nil {
			return nil, fmt.Errorf("unmarshal session state: %w", err)
		}
	}
	normalizeState(&s.State)

	return &s, nil
}

func (r *postgresRepo) Save(ctx context.Context, s *Session) error {
	stateJSON, err := json.Marshal(s.State)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}

	query := `
		INSERT INTO sessions (id, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			state = $2,
			updated_at = $4
	`
	if _, err := r.db.ExecContext(ctx, query, s.ID, stateJSON, s.CreatedAt, s.UpdatedAt); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// normalizeState replaces nil slices left by JSON round-trips so callers
// can range and append without nil checks.
func normalizeState(state *SessionState) {
	if state.History == nil {
		state.History = []RecordingEntry{}
	}
	if state.SymptomIDs == nil {
		state.SymptomIDs = []string{}
	}
}

func (r *postgresRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
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
