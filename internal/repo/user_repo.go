package repo

import (
	"context"

	dom "tasklist/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepo provides account persistence. Usernames are unique; Create
// surfaces the violation as a pg error the service maps to ErrUsernameTaken.
type UserRepo interface {
	GetByUsername(ctx context.Context, username string) (dom.User, error)
	Create(ctx context.Context, u dom.User) (dom.User, error)
}

type PGUserRepo struct {
	db *pgxpool.Pool
}

func NewPGUserRepo(db *pgxpool.Pool) *PGUserRepo {
	return &PGUserRepo{db: db}
}

func (r *PGUserRepo) GetByUsername(ctx context.Context, username string) (dom.User, error) {
	var u dom.User
	err := r.db.QueryRow(ctx, `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

func (r *PGUserRepo) Create(ctx context.Context, u dom.User) (dom.User, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING id, created_at`,
		u.Username, u.PasswordHash,
	).Scan(&u.ID, &u.CreatedAt)
	return u, err
}
