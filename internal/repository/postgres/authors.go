package postgres

import (
	"context"

	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/Dhoini/publishing-platform/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
)

type authorRepo struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

const authorColumns = `id, name, email, password, status, role, created_at, updated_at`

func (r *authorRepo) Create(ctx context.Context, a *domain.Author) error {
	query := `
        INSERT INTO authors (name, email, password, status, role, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id`

	err := executor(ctx, r.pool).QueryRow(ctx, query,
		a.Name, a.Email, a.PasswordHash, a.Status, a.Role, a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
	if err != nil {
		r.log.Errorw("Failed to create author in DB", "error", err, "email", a.Email)
		return mapError(err, "author", a.Email)
	}

	r.log.Debugw("Successfully created author in DB", "authorID", a.ID)
	return nil
}

func (r *authorRepo) GetByID(ctx context.Context, id int64) (*domain.Author, error) {
	query := `SELECT ` + authorColumns + ` FROM authors WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

func (r *authorRepo) GetByEmail(ctx context.Context, email string) (*domain.Author, error) {
	query := `SELECT ` + authorColumns + ` FROM authors WHERE lower(email) = lower($1)`
	return r.scanOne(ctx, query, email)
}

func (r *authorRepo) LockForUpdate(ctx context.Context, id int64) error {
	if err := requireTx(ctx, "LockForUpdate"); err != nil {
		return err
	}
	var locked int64
	err := executor(ctx, r.pool).QueryRow(ctx, `SELECT id FROM authors WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	return mapError(err, "author", id)
}

func (r *authorRepo) scanOne(ctx context.Context, query string, arg any) (*domain.Author, error) {
	var a domain.Author
	err := executor(ctx, r.pool).QueryRow(ctx, query, arg).Scan(
		&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Status, &a.Role, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err, "author", arg)
	}
	return &a, nil
}
