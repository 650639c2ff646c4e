package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"lume/internal/domain"
)

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByUsername(ctx context.Context, username string) (domain.User, error)
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (id, username, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	var email interface{}
	if user.Email != "" {
		email = user.Email
	}

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		email,
		user.PasswordHash,
		user.CreatedAt,
	)
	return translatePgError(err)
}

func (r *PgUserRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	const query = `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE username = $1
	`
	var u domain.User
	var email *string
	err := r.pool.QueryRow(ctx, query, username).Scan(
		&u.ID,
		&u.Username,
		&email,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	if err != nil {
		return domain.User{}, translatePgError(err)
	}
	if email != nil {
		u.Email = *email
	}
	return u, nil
}
