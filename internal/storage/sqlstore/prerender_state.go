package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"spacetraveling/internal/domain"
)

type PrerenderStateStore struct {
	db *sqlx.DB
}

// NewPrerenderStateStore creates a new prerender state store.
func NewPrerenderStateStore(db *sqlx.DB) *PrerenderStateStore {
	return &PrerenderStateStore{db: db}
}

func (s *PrerenderStateStore) Get(ctx context.Context, name string) (*domain.PrerenderState, error) {
	var state domain.PrerenderState
	query := s.db.Rebind(`
		SELECT id, name, last_run_at, last_paths, total_rendered
		FROM prerender_state
		WHERE name = ?`)

	err := s.db.GetContext(ctx, &state, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		// Return empty state before the first run
		return &domain.PrerenderState{
			Name:      name,
			LastRunAt: time.Time{},
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *PrerenderStateStore) Update(ctx context.Context, state *domain.PrerenderState) error {
	query := s.db.Rebind(`
		INSERT INTO prerender_state (name, last_run_at, last_paths, total_rendered)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			last_run_at = EXCLUDED.last_run_at,
			last_paths = EXCLUDED.last_paths,
			total_rendered = EXCLUDED.total_rendered`)

	_, err := s.db.ExecContext(ctx, query,
		state.Name,
		state.LastRunAt.UTC(),
		state.LastPaths,
		state.TotalRendered,
	)
	return err
}
