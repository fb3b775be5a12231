package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"spacetraveling/internal/cache"
)

// PageStore implements cache.Store on the rendered_pages table.
type PageStore struct {
	db *sqlx.DB
}

// NewPageStore creates a new page store.
func NewPageStore(db *sqlx.DB) *PageStore {
	return &PageStore{db: db}
}

type pageRow struct {
	Key         string    `db:"page_key"`
	Body        []byte    `db:"body"`
	GeneratedAt time.Time `db:"generated_at"`
}

func (s *PageStore) Get(ctx context.Context, key string) (*cache.Entry, error) {
	query := s.db.Rebind(`SELECT page_key, body, generated_at FROM rendered_pages WHERE page_key = ?`)

	var row pageRow
	err := s.db.GetContext(ctx, &row, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cache.ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("select page: %w", err)
	}

	return &cache.Entry{Key: row.Key, Body: row.Body, GeneratedAt: row.GeneratedAt}, nil
}

func (s *PageStore) Put(ctx context.Context, entry *cache.Entry) error {
	query := s.db.Rebind(`
		INSERT INTO rendered_pages (page_key, body, generated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (page_key) DO UPDATE SET
			body = EXCLUDED.body,
			generated_at = EXCLUDED.generated_at`)

	if _, err := s.db.ExecContext(ctx, query, entry.Key, entry.Body, entry.GeneratedAt.UTC()); err != nil {
		return fmt.Errorf("upsert page: %w", err)
	}
	return nil
}

func (s *PageStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`DELETE FROM rendered_pages WHERE page_key IN (?)`, keys)
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("delete pages: %w", err)
	}
	return nil
}

func (s *PageStore) Purge(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM rendered_pages`); err != nil {
		return fmt.Errorf("purge pages: %w", err)
	}
	return nil
}
