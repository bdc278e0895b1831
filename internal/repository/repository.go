package repository

import (
	"context"
	"time"

	"github.com/Dhoini/publishing-platform/internal/domain"
)

// TxManager выполняет fn в одной транзакции хранилища.
// Репозитории, вызванные с ctx внутри fn, работают в этой транзакции.
// Вложенный вызов переиспользует внешнюю транзакцию.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// AuthorRepository хранилище авторов
type AuthorRepository interface {
	Create(ctx context.Context, author *domain.Author) error
	GetByID(ctx context.Context, id int64) (*domain.Author, error)
	GetByEmail(ctx context.Context, email string) (*domain.Author, error)

	// LockForUpdate блокирует строку автора до конца транзакции.
	// Используется для сериализации оформления подписок одного автора.
	LockForUpdate(ctx context.Context, id int64) error
}

// SubscriptionRepository хранилище подписок
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *domain.Subscription) error
	Update(ctx context.Context, sub *domain.Subscription) error

	// FindEffectiveByAuthor возвращает действующую активную подписку (с наибольшим id) или ErrNotFound
	FindEffectiveByAuthor(ctx context.Context, authorID int64, now time.Time) (*domain.Subscription, error)

	// FindByPaymentIntentID ищет подписку по идентификатору платежного намерения
	FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*domain.Subscription, error)

	// FindByPaymentIntentIDForUpdate то же, но с блокировкой строки
	FindByPaymentIntentIDForUpdate(ctx context.Context, paymentIntentID string) (*domain.Subscription, error)

	// ExpireLapsed переводит в expired активные подписки с valid_to < asOf и возвращает их
	ExpireLapsed(ctx context.Context, asOf time.Time) ([]domain.Subscription, error)
}

// ArticleRepository хранилище материалов
type ArticleRepository interface {
	Create(ctx context.Context, article *domain.Article) error
	Update(ctx context.Context, article *domain.Article) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Article, error)

	// GetByIDForUpdate читает материал с блокировкой строки
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Article, error)

	// CountPublishedBetween считает опубликованные материалы автора с published_at в [from, to)
	CountPublishedBetween(ctx context.Context, authorID int64, from, to time.Time) (int, error)

	// List возвращает публичную выдачу, упорядоченную по приоритету и дате создания
	List(ctx context.Context, filter domain.ListingFilter, now time.Time) ([]domain.ListedArticle, error)
}

// TransactionRepository хранилище платежных транзакций
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	GetByStripePaymentID(ctx context.Context, paymentID string) (*domain.Transaction, error)
	ListByAuthor(ctx context.Context, authorID int64) ([]domain.Transaction, error)
}

// TagRepository хранилище меток
type TagRepository interface {
	Create(ctx context.Context, tag *domain.Tag) error
	Update(ctx context.Context, tag *domain.Tag) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Tag, error)
	List(ctx context.Context) ([]domain.Tag, error)

	// UsageCount число материалов, ссылающихся на метку
	UsageCount(ctx context.Context, id int64) (int, error)

	// Missing возвращает идентификаторы из ids, которых нет в хранилище
	Missing(ctx context.Context, ids []int64) ([]int64, error)
}

// Store объединяет все репозитории одного хранилища
type Store interface {
	TxManager
	Authors() AuthorRepository
	Subscriptions() SubscriptionRepository
	Articles() ArticleRepository
	Transactions() TransactionRepository
	Tags() TagRepository
	Ping(ctx context.Context) error
}
