package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tillbook/internal/user/models"
	"tillbook/pkg/platform/sentinel"
)

// Postgres persists users in PostgreSQL. Pure I/O; credential checks belong
// to the directory service.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Save(ctx context.Context, u models.User) error {
	query := `
		INSERT INTO users (id, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (username) DO UPDATE SET
			password_hash = EXCLUDED.password_hash
	`
	if _, err := s.db.ExecContext(ctx, query, u.ID, u.Username, u.PasswordHash, u.CreatedAt); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *Postgres) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE username = $1
	`
	var u models.User
	err := s.db.QueryRowContext(ctx, query, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return &u, nil
}
