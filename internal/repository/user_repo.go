package repository

import (
	"context"
	"errors"

	"listkeeper/internal/apperr"
	"listkeeper/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user account.
func (r *UserRepository) Create(ctx context.Context, username, passwordHash string) (*model.User, error) {
	query := `
        INSERT INTO users (username, password_hash, created_at)
        VALUES ($1, $2, NOW())
        RETURNING id, created_at
    `
	u := model.User{Username: username, PasswordHash: passwordHash}
	err := r.db.QueryRow(ctx, query, username, passwordHash).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperr.Validationf("username already taken")
		}
		return nil, err
	}
	return &u, nil
}

// FindByUsername returns a user by username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `
        SELECT id, username, password_hash, created_at
        FROM users
        WHERE username = $1
    `
	var u model.User
	err := r.db.QueryRow(ctx, query, username).Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
