package domain

import "time"

// TransactionStatus статус платежной транзакции
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusRefunded  TransactionStatus = "refunded"
)

// Transaction неизменяемая запись о подтвержденном платеже
type Transaction struct {
	ID              int64             `json:"id"`
	AuthorID        int64             `json:"author_id"`
	SubscriptionID  *int64            `json:"subscription_id,omitempty"`
	ArticleID       *int64            `json:"article_id,omitempty"`
	StripePaymentID string            `json:"stripe_payment_id"`
	Amount          int64             `json:"amount"`
	Currency        string            `json:"currency"`
	Tier            *Tier             `json:"plan,omitempty"`
	Status          TransactionStatus `json:"status"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}
