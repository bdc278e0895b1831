// Package memory реализация репозиториев в памяти процесса.
// Транзакции сериализуются общей блокировкой хранилища и откатываются из снимка.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/Dhoini/publishing-platform/internal/repository"
	"github.com/Dhoini/publishing-platform/pkg/logger"
)

type txKey struct{}

type state struct {
	authors       map[int64]domain.Author
	subscriptions map[int64]domain.Subscription
	articles      map[int64]domain.Article
	transactions  map[int64]domain.Transaction
	tags          map[int64]domain.Tag

	authorSeq, subscriptionSeq, articleSeq, transactionSeq, tagSeq int64
}

func newState() state {
	return state{
		authors:       make(map[int64]domain.Author),
		subscriptions: make(map[int64]domain.Subscription),
		articles:      make(map[int64]domain.Article),
		transactions:  make(map[int64]domain.Transaction),
		tags:          make(map[int64]domain.Tag),
	}
}

func (s state) clone() state {
	c := s
	c.authors = make(map[int64]domain.Author, len(s.authors))
	for k, v := range s.authors {
		c.authors[k] = v
	}
	c.subscriptions = make(map[int64]domain.Subscription, len(s.subscriptions))
	for k, v := range s.subscriptions {
		c.subscriptions[k] = v
	}
	c.articles = make(map[int64]domain.Article, len(s.articles))
	for k, v := range s.articles {
		c.articles[k] = cloneArticle(v)
	}
	c.transactions = make(map[int64]domain.Transaction, len(s.transactions))
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	c.tags = make(map[int64]domain.Tag, len(s.tags))
	for k, v := range s.tags {
		c.tags[k] = v
	}
	return c
}

// Store хранилище в памяти
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data state
	log  *logger.Logger
}

var _ repository.Store = (*Store)(nil)

// NewStore создает пустое хранилище
func NewStore(log *logger.Logger) *Store {
	return &Store{data: newState(), log: log}
}

// WithinTx выполняет fn эксклюзивно; при ошибке или панике состояние откатывается
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	defer func() {
		if p := recover(); p != nil {
			s.restore(snapshot)
			panic(p)
		}
		if err != nil {
			s.restore(snapshot)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, true))
}

func (s *Store) restore(snapshot state) {
	s.mu.Lock()
	s.data = snapshot
	s.mu.Unlock()
	s.log.Debugw("In-memory transaction rolled back")
}

// Ping всегда успешен
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Authors() repository.AuthorRepository             { return &authorRepo{s: s} }
func (s *Store) Subscriptions() repository.SubscriptionRepository { return &subscriptionRepo{s: s} }
func (s *Store) Articles() repository.ArticleRepository           { return &articleRepo{s: s} }
func (s *Store) Transactions() repository.TransactionRepository   { return &transactionRepo{s: s} }
func (s *Store) Tags() repository.TagRepository                   { return &tagRepo{s: s} }

func inTx(ctx context.Context) bool {
	return ctx.Value(txKey{}) != nil
}

func requireTx(ctx context.Context, op string) error {
	if !inTx(ctx) {
		return fmt.Errorf("memory: %s requires a transaction", op)
	}
	return nil
}

func cloneArticle(a domain.Article) domain.Article {
	if a.TagIDs != nil {
		a.TagIDs = append([]int64(nil), a.TagIDs...)
	}
	return a
}
