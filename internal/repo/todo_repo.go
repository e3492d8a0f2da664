package repo

import (
	"context"

	dom "tasklist/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoRows is re-exported so callers don't import pgx just for the sentinel.
var ErrNoRows = pgx.ErrNoRows

// TodoRepo persists todos keyed by (user_id, id). Every query filters by
// user_id: a todo is never visible outside its owner.
type TodoRepo interface {
	Create(ctx context.Context, t dom.Todo) (dom.Todo, error)
	GetByID(ctx context.Context, userID int64, id string) (dom.Todo, error)
	List(ctx context.Context, userID int64) ([]dom.Todo, error)
	Search(ctx context.Context, userID int64, q string) ([]dom.Todo, error)
	Update(ctx context.Context, userID int64, id string, patch dom.Todo) (dom.Todo, error)
	Delete(ctx context.Context, userID int64, id string) (bool, error)
}

type PGTodoRepo struct {
	db *pgxpool.Pool
}

func NewPGTodoRepo(db *pgxpool.Pool) *PGTodoRepo {
	return &PGTodoRepo{db: db}
}

func (r *PGTodoRepo) Create(ctx context.Context, t dom.Todo) (dom.Todo, error) {
	query := `
		INSERT INTO todos (id, user_id, name, due_date, done, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, name, due_date, done, created_at`
	var out dom.Todo
	err := r.db.QueryRow(ctx, query, t.ID, t.UserID, t.Name, t.DueDate, t.Done, t.CreatedAt).Scan(
		&out.ID, &out.UserID, &out.Name, &out.DueDate, &out.Done, &out.CreatedAt,
	)
	return out, err
}

func (r *PGTodoRepo) GetByID(ctx context.Context, userID int64, id string) (dom.Todo, error) {
	query := `
		SELECT id, user_id, name, due_date, done, created_at
		FROM todos WHERE user_id = $1 AND id = $2`
	var t dom.Todo
	err := r.db.QueryRow(ctx, query, userID, id).Scan(
		&t.ID, &t.UserID, &t.Name, &t.DueDate, &t.Done, &t.CreatedAt,
	)
	return t, err
}

func (r *PGTodoRepo) List(ctx context.Context, userID int64) ([]dom.Todo, error) {
	query := `
		SELECT id, user_id, name, due_date, done, created_at
		FROM todos WHERE user_id = $1 ORDER BY created_at ASC, id ASC`
	return r.queryList(ctx, query, userID)
}

func (r *PGTodoRepo) Search(ctx context.Context, userID int64, q string) ([]dom.Todo, error) {
	pattern := "%" + q + "%"
	query := `
		SELECT id, user_id, name, due_date, done, created_at
		FROM todos WHERE user_id = $1 AND name ILIKE $2
		ORDER BY created_at ASC, id ASC`
	return r.queryList(ctx, query, userID, pattern)
}

// Update replaces all mutable fields. Ownership is enforced by the WHERE
// clause: a foreign id updates zero rows and surfaces as ErrNoRows.
func (r *PGTodoRepo) Update(ctx context.Context, userID int64, id string, patch dom.Todo) (dom.Todo, error) {
	query := `
		UPDATE todos SET name = $3, due_date = $4, done = $5
		WHERE user_id = $1 AND id = $2
		RETURNING id, user_id, name, due_date, done, created_at`
	var t dom.Todo
	err := r.db.QueryRow(ctx, query, userID, id, patch.Name, patch.DueDate, patch.Done).Scan(
		&t.ID, &t.UserID, &t.Name, &t.DueDate, &t.Done, &t.CreatedAt,
	)
	return t, err
}

// Delete removes the row and reports whether anything was deleted, so the
// service can distinguish a successful delete from an unknown/foreign id.
func (r *PGTodoRepo) Delete(ctx context.Context, userID int64, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM todos WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PGTodoRepo) queryList(ctx context.Context, query string, args ...any) ([]dom.Todo, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []dom.Todo
	for rows.Next() {
		var t dom.Todo
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.DueDate, &t.Done, &t.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}
