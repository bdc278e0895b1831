package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/Dhoini/publishing-platform/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type articleRepo struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

const articleColumns = `a.id, a.author_id, a.title, a.content, a.status, a.published_at, a.boosted_at, a.boost_transaction_id, a.created_at, a.updated_at`

func scanArticle(row pgx.Row, extra ...any) (*domain.Article, error) {
	var a domain.Article
	dest := []any{&a.ID, &a.AuthorID, &a.Title, &a.Body, &a.Status, &a.PublishedAt, &a.BoostedAt, &a.BoostPaymentIntentID, &a.CreatedAt, &a.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &a, nil
}

// Create сохраняет материал и его метки
func (r *articleRepo) Create(ctx context.Context, article *domain.Article) error {
	query := `
        INSERT INTO articles (author_id, title, content, status, published_at, boosted_at, boost_transaction_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id`

	db := executor(ctx, r.pool)
	err := db.QueryRow(ctx, query,
		article.AuthorID, article.Title, article.Body, article.Status, article.PublishedAt,
		article.BoostedAt, article.BoostPaymentIntentID, article.CreatedAt, article.UpdatedAt,
	).Scan(&article.ID)
	if err != nil {
		r.log.Errorw("Failed to create article in DB", "error", err, "authorID", article.AuthorID)
		return mapError(err, "article", article.AuthorID)
	}

	if err := r.syncTags(ctx, db, article.ID, article.TagIDs); err != nil {
		return err
	}

	r.log.Debugw("Successfully created article in DB", "articleID", article.ID, "status", article.Status)
	return nil
}

// Update перезаписывает изменяемые поля и набор меток
func (r *articleRepo) Update(ctx context.Context, article *domain.Article) error {
	query := `
        UPDATE articles
        SET title = $2, content = $3, status = $4, published_at = $5,
            boosted_at = $6, boost_transaction_id = $7, updated_at = $8
        WHERE id = $1`

	db := executor(ctx, r.pool)
	tag, err := db.Exec(ctx, query,
		article.ID, article.Title, article.Body, article.Status, article.PublishedAt,
		article.BoostedAt, article.BoostPaymentIntentID, article.UpdatedAt,
	)
	if err != nil {
		r.log.Errorw("Failed to update article in DB", "error", err, "articleID", article.ID)
		return mapError(err, "article", article.ID)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("article", article.ID)
	}

	if _, err := db.Exec(ctx, `DELETE FROM article_tag WHERE article_id = $1`, article.ID); err != nil {
		return mapError(err, "article tags", article.ID)
	}
	return r.syncTags(ctx, db, article.ID, article.TagIDs)
}

func (r *articleRepo) syncTags(ctx context.Context, db DBExecutor, articleID int64, tagIDs []int64) error {
	if len(tagIDs) == 0 {
		return nil
	}
	_, err := db.Exec(ctx, `
        INSERT INTO article_tag (article_id, tag_id)
        SELECT $1, unnest($2::bigint[])
        ON CONFLICT DO NOTHING`, articleID, tagIDs)
	if err != nil {
		return mapError(err, "tag", tagIDs)
	}
	return nil
}

func (r *articleRepo) Delete(ctx context.Context, id int64) error {
	tag, err := executor(ctx, r.pool).Exec(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "article", id)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("article", id)
	}
	return nil
}

func (r *articleRepo) GetByID(ctx context.Context, id int64) (*domain.Article, error) {
	return r.get(ctx, id, "")
}

// GetByIDForUpdate блокирует строку материала до конца транзакции
func (r *articleRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Article, error) {
	if err := requireTx(ctx, "GetByIDForUpdate"); err != nil {
		return nil, err
	}
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *articleRepo) get(ctx context.Context, id int64, lock string) (*domain.Article, error) {
	db := executor(ctx, r.pool)
	query := `SELECT ` + articleColumns + ` FROM articles a WHERE a.id = $1` + lock

	article, err := scanArticle(db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "article", id)
	}

	tags, err := r.loadTags(ctx, db, []int64{id})
	if err != nil {
		return nil, err
	}
	article.TagIDs = tags[id]
	return article, nil
}

func (r *articleRepo) CountPublishedBetween(ctx context.Context, authorID int64, from, to time.Time) (int, error) {
	query := `
        SELECT count(*)
        FROM articles
        WHERE author_id = $1
          AND status = 'published'
          AND published_at >= $2
          AND published_at < $3`

	var count int
	if err := executor(ctx, r.pool).QueryRow(ctx, query, authorID, from, to).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count published articles: %w", err)
	}
	return count, nil
}

// List строит публичную выдачу. Приоритет вычисляется в запросе по
// продвижению и тарифу действующей на момент now подписки автора.
func (r *articleRepo) List(ctx context.Context, filter domain.ListingFilter, now time.Time) ([]domain.ListedArticle, error) {
	filter = filter.Normalize()

	args := []any{now}
	var where []string
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where = append(where, fmt.Sprintf("a.status = $%d", len(args)))
	}
	if filter.AuthorID != nil {
		args = append(args, *filter.AuthorID)
		where = append(where, fmt.Sprintf("a.author_id = $%d", len(args)))
	}
	if filter.Title != "" {
		args = append(args, "%"+filter.Title+"%")
		where = append(where, fmt.Sprintf("a.title ILIKE $%d", len(args)))
	}
	if filter.Boosted != nil {
		if *filter.Boosted {
			where = append(where, "a.boosted_at IS NOT NULL")
		} else {
			where = append(where, "a.boosted_at IS NULL")
		}
	}

	query := `
        SELECT ` + articleColumns + `, au.name,
            CASE
                WHEN a.boosted_at IS NOT NULL THEN 4
                WHEN s.plan = 'premium' THEN 3
                WHEN s.plan = 'medium' THEN 2
                WHEN s.plan = 'basic' THEN 1
                ELSE 0
            END AS priority
        FROM articles a
        JOIN authors au ON au.id = a.author_id
        LEFT JOIN LATERAL (
            SELECT plan
            FROM subscriptions
            WHERE author_id = a.author_id
              AND status = 'active'
              AND (valid_to IS NULL OR valid_to > $1)
            ORDER BY id DESC
            LIMIT 1
        ) s ON true`
	if len(where) > 0 {
		query += "\n        WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf("\n        ORDER BY priority DESC, a.created_at DESC, a.id DESC\n        LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	db := executor(ctx, r.pool)
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		r.log.Errorw("Failed to list articles", "error", err)
		return nil, fmt.Errorf("postgres: list articles: %w", err)
	}
	defer rows.Close()

	listed := make([]domain.ListedArticle, 0, filter.Limit)
	ids := make([]int64, 0, filter.Limit)
	for rows.Next() {
		var item domain.ListedArticle
		article, err := scanArticle(rows, &item.AuthorName, &item.Priority)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan article: %w", err)
		}
		item.Article = *article
		listed = append(listed, item)
		ids = append(ids, article.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list articles: %w", err)
	}
	rows.Close()

	tags, err := r.loadTags(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	for i := range listed {
		listed[i].TagIDs = tags[listed[i].ID]
	}
	return listed, nil
}

func (r *articleRepo) loadTags(ctx context.Context, db DBExecutor, articleIDs []int64) (map[int64][]int64, error) {
	result := make(map[int64][]int64, len(articleIDs))
	if len(articleIDs) == 0 {
		return result, nil
	}

	rows, err := db.Query(ctx, `
        SELECT article_id, tag_id
        FROM article_tag
        WHERE article_id = ANY($1)
        ORDER BY article_id, tag_id`, articleIDs)
	if err != nil {
		return nil, fmt.Errorf("postgres: load article tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var articleID, tagID int64
		if err := rows.Scan(&articleID, &tagID); err != nil {
			return nil, fmt.Errorf("postgres: scan article tag: %w", err)
		}
		result[articleID] = append(result[articleID], tagID)
	}
	return result, rows.Err()
}
