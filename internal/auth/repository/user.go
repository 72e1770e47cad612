package repository

import (
	"context"
	"database/sql"

	"github.com/stocklot/stocklot-backend/internal/auth/domain"
	"github.com/stocklot/stocklot-backend/pkg/database"
	"github.com/stocklot/stocklot-backend/pkg/errors"
)

const usersDDL = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	username VARCHAR(100) NOT NULL,
	name VARCHAR(255) NOT NULL,
	password_hash VARCHAR(255) NOT NULL,
	role VARCHAR(20) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT users_role_valid CHECK (role IN ('admin', 'operator'))
);

CREATE UNIQUE INDEX IF NOT EXISTS users_username_lower_key ON users (LOWER(username));
`

// Migrations returns the auth DDL.
func Migrations() []string {
	return []string{usersDDL}
}

// Migrate applies the auth schema.
func Migrate(ctx context.Context, db *database.DB) error {
	for _, ddl := range Migrations() {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return err
		}
	}
	return nil
}

// UserRepository handles user persistence
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByUsername looks a user up case-insensitively
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `
		SELECT id, username, name, password_hash, role, created_at
		FROM users WHERE LOWER(username) = LOWER($1)
	`

	var u domain.User
	if err := r.db.GetContext(ctx, &u, query, username); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("user")
		}
		return nil, errors.Persistence(err)
	}
	return &u, nil
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, username, name, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Username, u.Name, u.PasswordHash, u.Role, u.CreatedAt,
	)
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		return errors.Persistence(err)
	}
	return nil
}

// Count returns the number of users
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, errors.Persistence(err)
	}
	return count, nil
}
