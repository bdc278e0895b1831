package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dhoini/publishing-platform/internal/clock"
	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/Dhoini/publishing-platform/internal/metrics"
	"github.com/Dhoini/publishing-platform/internal/repository"
	"github.com/Dhoini/publishing-platform/pkg/logger"
)

// PublishingGuard проверяет месячный лимит публикаций автора.
// Тариф и счетчик всегда читаются из хранилища, без кеша.
type PublishingGuard struct {
	subs     repository.SubscriptionRepository
	articles repository.ArticleRepository
	metrics  metrics.PlatformMetrics
	log      *logger.Logger
}

// NewPublishingGuard создает проверку лимита
func NewPublishingGuard(store repository.Store, m metrics.PlatformMetrics, log *logger.Logger) *PublishingGuard {
	return &PublishingGuard{
		subs:     store.Subscriptions(),
		articles: store.Articles(),
		metrics:  m,
		log:      log,
	}
}

// EffectiveTier тариф действующей подписки; без подписки или с истекшей - basic
func (g *PublishingGuard) EffectiveTier(ctx context.Context, authorID int64, asOf time.Time) (domain.Tier, error) {
	sub, err := g.subs.FindEffectiveByAuthor(ctx, authorID, asOf)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.TierBasic, nil
		}
		return "", fmt.Errorf("resolve effective tier: %w", err)
	}
	return sub.Tier, nil
}

// CheckCanPublish возвращает nil или *domain.LimitExceededError.
// Окно - календарный месяц asOf в UTC, а не скользящие 30 дней.
func (g *PublishingGuard) CheckCanPublish(ctx context.Context, authorID int64, asOf time.Time) error {
	tier, err := g.EffectiveTier(ctx, authorID, asOf)
	if err != nil {
		return err
	}

	limit, limited := tier.MonthlyLimit()
	if !limited {
		return nil
	}

	from, to := clock.MonthBounds(asOf)
	count, err := g.articles.CountPublishedBetween(ctx, authorID, from, to)
	if err != nil {
		return fmt.Errorf("count published articles: %w", err)
	}

	if count >= limit {
		g.metrics.IncPublishDenied(string(tier))
		g.log.Infow("Publishing limit reached", "authorID", authorID, "plan", tier, "limit", limit, "count", count)
		return &domain.LimitExceededError{Tier: tier, Limit: limit, CurrentCount: count}
	}
	return nil
}
