package postgres

import (
	"context"

	"github.com/Dhoini/publishing-platform/internal/repository"
	"github.com/Dhoini/publishing-platform/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// Store реализует repository.Store поверх PostgreSQL
type Store struct {
	pool *pgxpool.Pool
	db   *sqlx.DB
	log  *logger.Logger
}

var _ repository.Store = (*Store)(nil)

// NewStore создает хранилище. Метки обслуживаются через sqlx поверх того же пула.
func NewStore(pool *pgxpool.Pool, log *logger.Logger) *Store {
	return &Store{
		pool: pool,
		db:   sqlx.NewDb(stdlib.OpenDBFromPool(pool), "pgx"),
		log:  log,
	}
}

// Ping проверяет доступность базы
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close закрывает database/sql обертку; пул закрывает владелец
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Authors() repository.AuthorRepository {
	return &authorRepo{pool: s.pool, log: s.log}
}

func (s *Store) Subscriptions() repository.SubscriptionRepository {
	return &subscriptionRepo{pool: s.pool, log: s.log}
}

func (s *Store) Articles() repository.ArticleRepository {
	return &articleRepo{pool: s.pool, log: s.log}
}

func (s *Store) Transactions() repository.TransactionRepository {
	return &transactionRepo{pool: s.pool, log: s.log}
}

func (s *Store) Tags() repository.TagRepository {
	return &tagRepo{db: s.db, log: s.log}
}
