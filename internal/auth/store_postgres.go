package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const pqUniqueViolation = pq.ErrorCode("23505")

// PostgresUserStore reads and writes admin_users. The table itself is owned by
// the migrations package.
type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgresUserStore(db *sql.DB) (*PostgresUserStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	return &PostgresUserStore{db: db}, nil
}

func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (AdminUser, error) {
	const q = `SELECT id, email, hashed_password FROM admin_users WHERE email = $1`
	return s.queryOne(ctx, q, email)
}

func (s *PostgresUserStore) GetByID(ctx context.Context, id string) (AdminUser, error) {
	const q = `SELECT id, email, hashed_password FROM admin_users WHERE id = $1`
	return s.queryOne(ctx, q, id)
}

func (s *PostgresUserStore) queryOne(ctx context.Context, q string, arg string) (AdminUser, error) {
	var u AdminUser
	if err := s.db.QueryRowContext(ctx, q, arg).Scan(&u.ID, &u.Email, &u.HashedPassword); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AdminUser{}, ErrUserNotFound
		}
		return AdminUser{}, fmt.Errorf("query admin user: %w", err)
	}
	return u, nil
}

func (s *PostgresUserStore) Create(ctx context.Context, user AdminUser) error {
	if user.ID == "" || user.Email == "" || user.HashedPassword == "" {
		return fmt.Errorf("id, email, and hashed password are required")
	}

	const q = `INSERT INTO admin_users (id, email, hashed_password) VALUES ($1, $2, $3)`
	if _, err := s.db.ExecContext(ctx, q, user.ID, user.Email, user.HashedPassword); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert admin user: %w", err)
	}
	return nil
}
