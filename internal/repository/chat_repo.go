package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"lume/internal/domain"
)

// ChatRepository persiste el transcript: solo agrega turnos, nunca los modifica.
type ChatRepository interface {
	Append(ctx context.Context, turn domain.Turn) error
	ListByUsername(ctx context.Context, username string) ([]domain.Turn, error)
	CountByUsername(ctx context.Context, username string) (int64, error)
}

type PgChatRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

func (r *PgChatRepository) Append(ctx context.Context, turn domain.Turn) error {
	if !domain.IsValidRole(turn.Role) {
		return ErrInvalidRole
	}
	const query = `
		INSERT INTO chats (id, username, role, content, timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		turn.ID,
		turn.Username,
		turn.Role,
		turn.Content,
		turn.Timestamp,
	)
	return translatePgError(err)
}

func (r *PgChatRepository) ListByUsername(ctx context.Context, username string) ([]domain.Turn, error) {
	const query = `
		SELECT id, username, role, content, timestamp
		FROM chats
		WHERE username = $1
		ORDER BY timestamp ASC, seq ASC
	`

	rows, err := r.pool.Query(ctx, query, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	turns := []domain.Turn{}
	for rows.Next() {
		var turn domain.Turn
		err = rows.Scan(
			&turn.ID,
			&turn.Username,
			&turn.Role,
			&turn.Content,
			&turn.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		turns = append(turns, turn)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return turns, nil
}

func (r *PgChatRepository) CountByUsername(ctx context.Context, username string) (int64, error) {
	const query = `SELECT count(*) FROM chats WHERE username = $1`

	var n int64
	if err := r.pool.QueryRow(ctx, query, username).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
