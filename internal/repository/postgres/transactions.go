package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/Dhoini/publishing-platform/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type transactionRepo struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

const transactionColumns = `id, author_id, subscription_id, article_id, stripe_payment_id, amount, currency, plan, status, metadata, created_at`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t    domain.Transaction
		meta []byte
	)
	err := row.Scan(&t.ID, &t.AuthorID, &t.SubscriptionID, &t.ArticleID, &t.StripePaymentID,
		&t.Amount, &t.Currency, &t.Tier, &t.Status, &meta, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &t.Metadata); err != nil {
			return nil, fmt.Errorf("decode transaction metadata: %w", err)
		}
	}
	return &t, nil
}

// Create записывает транзакцию. Повтор stripe_payment_id дает ErrDuplicate.
func (r *transactionRepo) Create(ctx context.Context, t *domain.Transaction) error {
	if t.Currency == "" {
		t.Currency = domain.DefaultCurrency
	}
	meta := t.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode transaction metadata: %w", err)
	}

	query := `
        INSERT INTO transactions (author_id, subscription_id, article_id, stripe_payment_id, amount, currency, plan, status, metadata, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id`

	err = executor(ctx, r.pool).QueryRow(ctx, query,
		t.AuthorID, t.SubscriptionID, t.ArticleID, t.StripePaymentID, t.Amount,
		t.Currency, t.Tier, t.Status, metaJSON, t.CreatedAt,
	).Scan(&t.ID)
	if err != nil {
		r.log.Errorw("Failed to create transaction in DB", "error", err, "stripePaymentID", t.StripePaymentID)
		return mapError(err, "transaction", t.StripePaymentID)
	}

	r.log.Debugw("Successfully created transaction in DB", "transactionID", t.ID, "stripePaymentID", t.StripePaymentID)
	return nil
}

func (r *transactionRepo) GetByStripePaymentID(ctx context.Context, paymentID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE stripe_payment_id = $1`

	t, err := scanTransaction(executor(ctx, r.pool).QueryRow(ctx, query, paymentID))
	if err != nil {
		return nil, mapError(err, "transaction", paymentID)
	}
	return t, nil
}

func (r *transactionRepo) ListByAuthor(ctx context.Context, authorID int64) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE author_id = $1 ORDER BY id`

	rows, err := executor(ctx, r.pool).Query(ctx, query, authorID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list transactions: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan transaction: %w", err)
		}
		result = append(result, *t)
	}
	return result, rows.Err()
}
