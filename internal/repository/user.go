package repository

import (
	"context"
	"database/sql"

	"invoicepad/internal/domain"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `
		SELECT id, username, email
		FROM users
		WHERE username = $1 AND deleted_at IS NULL
	`

	var u domain.User
	if err := r.db.QueryRowContext(ctx, query, username).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
	); err != nil {
		return nil, err
	}

	return &u, nil
}
