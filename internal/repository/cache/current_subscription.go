package cache

import (
	"context"

	"github.com/Dhoini/publishing-platform/internal/clock"
	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/Dhoini/publishing-platform/internal/repository"
	"github.com/Dhoini/publishing-platform/pkg/logger"
)

// CurrentSubscriptionReader отдает действующую подписку автора сначала из
// кеша, потом из хранилища. Закешированная запись перепроверяется по часам,
// поэтому истекшая подписка никогда не возвращается.
type CurrentSubscriptionReader struct {
	repo  repository.SubscriptionRepository
	cache *SubscriptionCache
	clock clock.Clock
	log   *logger.Logger
}

// NewCurrentSubscriptionReader создает читатель с кешированием
func NewCurrentSubscriptionReader(repo repository.SubscriptionRepository, cache *SubscriptionCache, clk clock.Clock, log *logger.Logger) *CurrentSubscriptionReader {
	return &CurrentSubscriptionReader{repo: repo, cache: cache, clock: clk, log: log}
}

// CurrentSubscription возвращает действующую подписку или domain.ErrNotFound
func (r *CurrentSubscriptionReader) CurrentSubscription(ctx context.Context, authorID int64) (*domain.Subscription, error) {
	now := r.clock.Now()

	cached, err := r.cache.Get(ctx, authorID)
	if err != nil {
		r.log.Warnw("Error getting subscription from cache", "error", err, "authorID", authorID)
	}
	if cached != nil {
		if cached.IsEffective(now) {
			r.log.Debugw("Subscription found in cache", "authorID", authorID)
			return cached, nil
		}
		_ = r.cache.InvalidateAuthor(ctx, authorID)
	}

	sub, err := r.repo.FindEffectiveByAuthor(ctx, authorID, now)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, sub, now); err != nil {
		r.log.Warnw("Failed to cache subscription after fetching", "error", err, "authorID", authorID)
	}
	return sub, nil
}
