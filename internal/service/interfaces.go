package service

import (
	"context"
	"time"

	"github.com/Dhoini/publishing-platform/internal/domain"
)

// PaymentGateway платежный провайдер
type PaymentGateway interface {
	// CreateSubscriptionIntent создает платежное намерение для платного тарифа
	CreateSubscriptionIntent(ctx context.Context, author *domain.Author, plan domain.Plan) (*domain.PaymentIntent, error)

	// CreateBoostIntent создает платежное намерение для продвижения материала
	CreateBoostIntent(ctx context.Context, item *domain.Article, amount int64) (*domain.PaymentIntent, error)

	// VerifySignature проверяет подпись вебхука
	VerifySignature(payload []byte, signature string) error

	// ConstructEvent проверяет подпись и разбирает событие
	ConstructEvent(payload []byte, signature string) (*domain.PaymentEvent, error)
}

// EventPublisher публикует доменные события (Kafka)
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, payload any) error
}

// SubscriptionCacheInvalidator сбрасывает кеш действующей подписки автора
type SubscriptionCacheInvalidator interface {
	InvalidateAuthor(ctx context.Context, authorID int64) error
}

// CurrentSubscriptionReader читает действующую подписку для GET /subscriptions/current
type CurrentSubscriptionReader interface {
	CurrentSubscription(ctx context.Context, authorID int64) (*domain.Subscription, error)
}

// PasswordHasher хеширует и проверяет пароли
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer выпускает токены доступа
type TokenIssuer interface {
	Issue(author *domain.Author) (token string, expiresAt time.Time, err error)
}
