package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Dhoini/publishing-platform/internal/kafka"
	"github.com/Dhoini/publishing-platform/internal/metrics"
	"github.com/Dhoini/publishing-platform/internal/repository"
	"github.com/Dhoini/publishing-platform/pkg/logger"
)

// SubscriptionsExpiredEvent сводка прогона истечения подписок
type SubscriptionsExpiredEvent struct {
	AsOf            time.Time `json:"as_of"`
	Count           int64     `json:"count"`
	SubscriptionIDs []int64   `json:"subscription_ids"`
}

// ExpiryService переводит просроченные подписки в expired
type ExpiryService struct {
	subs      repository.SubscriptionRepository
	publisher EventPublisher
	cache     SubscriptionCacheInvalidator
	metrics   metrics.PlatformMetrics
	log       *logger.Logger
}

// NewExpiryService создает сервис истечения подписок
func NewExpiryService(store repository.Store, publisher EventPublisher, cache SubscriptionCacheInvalidator, m metrics.PlatformMetrics, log *logger.Logger) *ExpiryService {
	return &ExpiryService{
		subs:      store.Subscriptions(),
		publisher: publisher,
		cache:     cache,
		metrics:   m,
		log:       log,
	}
}

// ExpireLapsedSubscriptions помечает истекшими активные подписки с valid_to < asOf.
// Повторный вызов с тем же asOf ничего не меняет и возвращает 0.
func (s *ExpiryService) ExpireLapsedSubscriptions(ctx context.Context, asOf time.Time) (int64, error) {
	expired, err := s.subs.ExpireLapsed(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("expire lapsed subscriptions: %w", err)
	}

	count := int64(len(expired))
	if count == 0 {
		return 0, nil
	}

	ids := make([]int64, 0, len(expired))
	authors := make(map[int64]struct{}, len(expired))
	for _, sub := range expired {
		ids = append(ids, sub.ID)
		authors[sub.AuthorID] = struct{}{}
	}
	for authorID := range authors {
		if err := s.cache.InvalidateAuthor(ctx, authorID); err != nil {
			s.log.Warnw("Failed to invalidate subscription cache", "authorID", authorID, "error", err)
		}
	}

	s.metrics.AddExpired(count)
	if err := s.publisher.Publish(ctx, kafka.TopicSubscriptionsExpired, asOf.UTC().Format(time.RFC3339), SubscriptionsExpiredEvent{
		AsOf:            asOf,
		Count:           count,
		SubscriptionIDs: ids,
	}); err != nil {
		s.log.Errorw("Failed to publish expiry summary", "error", err)
	}

	s.log.Infow("Lapsed subscriptions expired", "count", count, "asOf", asOf)
	return count, nil
}
