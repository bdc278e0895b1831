package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/Dhoini/publishing-platform/pkg/logger"
	"github.com/jmoiron/sqlx"
)

// tagRepo работает через sqlx: метки не участвуют в транзакциях сервиса,
// а внешний ключ article_tag.tag_id ON DELETE RESTRICT закрывает гонку удаления.
type tagRepo struct {
	db  *sqlx.DB
	log *logger.Logger
}

func (r *tagRepo) Create(ctx context.Context, tag *domain.Tag) error {
	query := `
        INSERT INTO tags (name, created_at, updated_at)
        VALUES (:name, :created_at, :updated_at)
        RETURNING id`

	rows, err := sqlx.NamedQueryContext(ctx, r.db, query, tag)
	if err != nil {
		r.log.Errorw("Failed to create tag in DB", "error", err, "name", tag.Name)
		return mapError(err, "tag", tag.Name)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&tag.ID); err != nil {
			return fmt.Errorf("postgres: scan tag id: %w", err)
		}
	}
	return rows.Err()
}

func (r *tagRepo) Update(ctx context.Context, tag *domain.Tag) error {
	res, err := r.db.NamedExecContext(ctx,
		`UPDATE tags SET name = :name, updated_at = :updated_at WHERE id = :id`, tag)
	if err != nil {
		return mapError(err, "tag", tag.Name)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NewNotFoundError("tag", tag.ID)
	}
	return nil
}

func (r *tagRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrTagInUse
		}
		return mapError(err, "tag", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NewNotFoundError("tag", id)
	}
	return nil
}

func (r *tagRepo) GetByID(ctx context.Context, id int64) (*domain.Tag, error) {
	var tag domain.Tag
	err := r.db.GetContext(ctx, &tag, `SELECT id, name, created_at, updated_at FROM tags WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("tag", id)
	}
	if err != nil {
		return nil, mapError(err, "tag", id)
	}
	return &tag, nil
}

func (r *tagRepo) List(ctx context.Context) ([]domain.Tag, error) {
	tags := make([]domain.Tag, 0)
	if err := r.db.SelectContext(ctx, &tags, `SELECT id, name, created_at, updated_at FROM tags ORDER BY name`); err != nil {
		return nil, fmt.Errorf("postgres: list tags: %w", err)
	}
	return tags, nil
}

func (r *tagRepo) UsageCount(ctx context.Context, id int64) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT count(*) FROM article_tag WHERE tag_id = $1`, id); err != nil {
		return 0, fmt.Errorf("postgres: count tag usage: %w", err)
	}
	return count, nil
}

func (r *tagRepo) Missing(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var missing []int64
	err := r.db.SelectContext(ctx, &missing, `
        SELECT requested.id
        FROM unnest($1::bigint[]) AS requested(id)
        LEFT JOIN tags t ON t.id = requested.id
        WHERE t.id IS NULL
        ORDER BY requested.id`, ids)
	if err != nil {
		return nil, fmt.Errorf("postgres: find missing tags: %w", err)
	}
	return missing, nil
}
