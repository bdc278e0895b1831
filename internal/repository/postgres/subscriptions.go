package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/Dhoini/publishing-platform/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type subscriptionRepo struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

const subscriptionColumns = `id, author_id, plan, status, valid_from, valid_to, stripe_payment_intent_id, created_at, updated_at`

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var s domain.Subscription
	err := row.Scan(&s.ID, &s.AuthorID, &s.Tier, &s.Status, &s.ValidFrom, &s.ValidTo, &s.PaymentIntentID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create сохраняет новую подписку в базе данных.
func (r *subscriptionRepo) Create(ctx context.Context, sub *domain.Subscription) error {
	query := `
        INSERT INTO subscriptions (author_id, plan, status, valid_from, valid_to, stripe_payment_intent_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id`

	err := executor(ctx, r.pool).QueryRow(ctx, query,
		sub.AuthorID, sub.Tier, sub.Status, sub.ValidFrom, sub.ValidTo, sub.PaymentIntentID, sub.CreatedAt, sub.UpdatedAt,
	).Scan(&sub.ID)
	if err != nil {
		r.log.Errorw("Failed to create subscription in DB", "error", err, "authorID", sub.AuthorID)
		return mapError(err, "subscription", sub.AuthorID)
	}

	r.log.Debugw("Successfully created subscription in DB", "subscriptionID", sub.ID, "authorID", sub.AuthorID, "status", sub.Status)
	return nil
}

// Update обновляет изменяемые поля: status, valid_from, valid_to, updated_at.
func (r *subscriptionRepo) Update(ctx context.Context, sub *domain.Subscription) error {
	query := `
        UPDATE subscriptions
        SET status = $2, valid_from = $3, valid_to = $4, updated_at = $5
        WHERE id = $1`

	tag, err := executor(ctx, r.pool).Exec(ctx, query, sub.ID, sub.Status, sub.ValidFrom, sub.ValidTo, sub.UpdatedAt)
	if err != nil {
		r.log.Errorw("Failed to update subscription in DB", "error", err, "subscriptionID", sub.ID)
		return mapError(err, "subscription", sub.ID)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("subscription", sub.ID)
	}
	return nil
}

func (r *subscriptionRepo) FindEffectiveByAuthor(ctx context.Context, authorID int64, now time.Time) (*domain.Subscription, error) {
	query := `
        SELECT ` + subscriptionColumns + `
        FROM subscriptions
        WHERE author_id = $1
          AND status = 'active'
          AND (valid_to IS NULL OR valid_to > $2)
        ORDER BY id DESC
        LIMIT 1`

	sub, err := scanSubscription(executor(ctx, r.pool).QueryRow(ctx, query, authorID, now))
	if err != nil {
		return nil, mapError(err, "active subscription for author", authorID)
	}
	return sub, nil
}

func (r *subscriptionRepo) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE stripe_payment_intent_id = $1`

	sub, err := scanSubscription(executor(ctx, r.pool).QueryRow(ctx, query, paymentIntentID))
	if err != nil {
		return nil, mapError(err, "subscription", paymentIntentID)
	}
	return sub, nil
}

func (r *subscriptionRepo) FindByPaymentIntentIDForUpdate(ctx context.Context, paymentIntentID string) (*domain.Subscription, error) {
	if err := requireTx(ctx, "FindByPaymentIntentIDForUpdate"); err != nil {
		return nil, err
	}
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE stripe_payment_intent_id = $1 FOR UPDATE`

	sub, err := scanSubscription(executor(ctx, r.pool).QueryRow(ctx, query, paymentIntentID))
	if err != nil {
		return nil, mapError(err, "subscription", paymentIntentID)
	}
	return sub, nil
}

// ExpireLapsed одной командой переводит просроченные подписки в expired
func (r *subscriptionRepo) ExpireLapsed(ctx context.Context, asOf time.Time) ([]domain.Subscription, error) {
	query := `
        UPDATE subscriptions
        SET status = 'expired', updated_at = $1
        WHERE status = 'active'
          AND valid_to IS NOT NULL
          AND valid_to < $1
        RETURNING ` + subscriptionColumns

	rows, err := executor(ctx, r.pool).Query(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("postgres: expire lapsed subscriptions: %w", err)
	}
	defer rows.Close()

	var expired []domain.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan expired subscription: %w", err)
		}
		expired = append(expired, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: expire lapsed subscriptions: %w", err)
	}

	r.log.Debugw("Expired lapsed subscriptions", "count", len(expired), "asOf", asOf)
	return expired, nil
}
