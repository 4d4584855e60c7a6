package media

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) CreateAsset(ctx context.Context, a Asset) error {
	const q = `INSERT INTO media_assets (id, title, type, file_url) VALUES ($1, $2, $3, $4)`
	if _, err := s.db.ExecContext(ctx, q, a.ID, a.Title, a.Type, a.FileURL); err != nil {
		return fmt.Errorf("insert media asset: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetAsset(ctx context.Context, id string) (Asset, error) {
	var a Asset
	const q = `SELECT id, title, type, file_url FROM media_assets WHERE id = $1`
	if err := s.db.QueryRowContext(ctx, q, id).Scan(&a.ID, &a.Title, &a.Type, &a.FileURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Asset{}, ErrNotFound
		}
		return Asset{}, fmt.Errorf("query media asset: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) AppendView(ctx context.Context, v View) error {
	const q = `INSERT INTO media_view_logs (id, media_id, viewed_by_ip, viewed_at) VALUES ($1, $2, $3, $4)`
	if _, err := s.db.ExecContext(ctx, q, v.ID, v.MediaID, v.ViewedByIP, v.Timestamp); err != nil {
		return fmt.Errorf("insert media view: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListViews(ctx context.Context, mediaID string) ([]View, error) {
	const q = `
SELECT id, media_id, viewed_by_ip, viewed_at
FROM media_view_logs
WHERE media_id = $1
ORDER BY viewed_at ASC`
	rows, err := s.db.QueryContext(ctx, q, mediaID)
	if err != nil {
		return nil, fmt.Errorf("query media views: %w", err)
	}
	defer rows.Close()

	var out []View
	for rows.Next() {
		var v View
		if err := rows.Scan(&v.ID, &v.MediaID, &v.ViewedByIP, &v.Timestamp); err != nil {
			return nil, fmt.Errorf("scan media view: %w", err)
		}
		v.Timestamp = v.Timestamp.UTC()
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate media views: %w", err)
	}
	return out, nil
}
