package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Dhoini/publishing-platform/internal/clock"
	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/Dhoini/publishing-platform/internal/kafka"
	"github.com/Dhoini/publishing-platform/internal/metrics"
	"github.com/Dhoini/publishing-platform/internal/repository"
	"github.com/Dhoini/publishing-platform/pkg/logger"
)

// CheckoutEvent сообщение о новом оформлении подписки
type CheckoutEvent struct {
	SubscriptionID  int64       `json:"subscription_id"`
	AuthorID        int64       `json:"author_id"`
	Plan            domain.Tier `json:"plan"`
	Status          string      `json:"status"`
	PaymentIntentID string      `json:"payment_intent_id,omitempty"`
}

// SubscriptionService оформление подписок
type SubscriptionService struct {
	store     repository.Store
	gateway   PaymentGateway
	catalog   domain.PlanCatalog
	publisher EventPublisher
	cache     SubscriptionCacheInvalidator
	current   CurrentSubscriptionReader
	metrics   metrics.PlatformMetrics
	clock     clock.Clock
	log       *logger.Logger
}

// SubscriptionDeps зависимости сервиса подписок
type SubscriptionDeps struct {
	Store     repository.Store
	Gateway   PaymentGateway
	Catalog   domain.PlanCatalog
	Publisher EventPublisher
	Cache     SubscriptionCacheInvalidator
	Current   CurrentSubscriptionReader // nil - читать напрямую из хранилища
	Metrics   metrics.PlatformMetrics
	Clock     clock.Clock
	Log       *logger.Logger
}

// NewSubscriptionService создает сервис подписок
func NewSubscriptionService(d SubscriptionDeps) *SubscriptionService {
	s := &SubscriptionService{
		store:     d.Store,
		gateway:   d.Gateway,
		catalog:   d.Catalog,
		publisher: d.Publisher,
		cache:     d.Cache,
		current:   d.Current,
		metrics:   d.Metrics,
		clock:     d.Clock,
		log:       d.Log,
	}
	if s.current == nil {
		s.current = storeReader{store: d.Store, clock: d.Clock}
	}
	return s
}

// Checkout оформляет подписку автора на тариф.
// Бесплатный тариф активируется сразу; платный создает pending-подписку
// и платежное намерение, активация придет вебхуком.
func (s *SubscriptionService) Checkout(ctx context.Context, authorID int64, tier domain.Tier) (*domain.CheckoutResult, error) {
	plan, err := s.catalog.Plan(tier)
	if err != nil {
		return nil, err
	}

	author, err := s.store.Authors().GetByID(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	if !author.CanAct() {
		return nil, domain.ErrAuthorInactive
	}

	// платежное намерение создается до транзакции: сбой провайдера не оставляет записей
	var intent *domain.PaymentIntent
	if tier.IsPaid() {
		intent, err = s.gateway.CreateSubscriptionIntent(ctx, author, plan)
		if err != nil {
			s.metrics.IncCheckout(string(tier), "failed")
			return nil, fmt.Errorf("checkout: create payment intent: %w", err)
		}
	}

	now := s.clock.Now()
	sub := &domain.Subscription{
		AuthorID:  authorID,
		Tier:      tier,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if intent == nil {
		from := now
		sub.Status = domain.SubscriptionStatusActive
		sub.ValidFrom = &from
	} else {
		ref := intent.ID
		sub.Status = domain.SubscriptionStatusPending
		sub.PaymentIntentID = &ref
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.store.Authors().LockForUpdate(ctx, authorID); err != nil {
			return err
		}
		if err := s.expireEffective(ctx, authorID, now); err != nil {
			return err
		}
		return s.store.Subscriptions().Create(ctx, sub)
	})
	if err != nil {
		s.metrics.IncCheckout(string(tier), "failed")
		return nil, fmt.Errorf("checkout: %w", err)
	}

	s.invalidate(ctx, authorID)
	s.metrics.IncCheckout(string(tier), string(sub.Status))

	result := &domain.CheckoutResult{
		SubscriptionID: sub.ID,
		Tier:           tier,
		Status:         string(sub.Status),
	}
	event := CheckoutEvent{SubscriptionID: sub.ID, AuthorID: authorID, Plan: tier, Status: result.Status}
	if intent != nil {
		result.ClientSecret = intent.ClientSecret
		event.PaymentIntentID = intent.ID
	}
	s.publish(ctx, kafka.TopicSubscriptionCheckout, authorID, event)

	s.log.Infow("Subscription checkout completed", "authorID", authorID, "plan", tier, "subscriptionID", sub.ID, "status", sub.Status)
	return result, nil
}

// Current действующая подписка автора или ErrNotFound
func (s *SubscriptionService) Current(ctx context.Context, authorID int64) (*domain.Subscription, error) {
	sub, err := s.current.CurrentSubscription(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("current subscription: %w", err)
	}
	return sub, nil
}

// expireEffective переводит действующую подписку в expired; вызывается в транзакции
func (s *SubscriptionService) expireEffective(ctx context.Context, authorID int64, now time.Time) error {
	existing, err := s.store.Subscriptions().FindEffectiveByAuthor(ctx, authorID, now)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	existing.Expire(now)
	return s.store.Subscriptions().Update(ctx, existing)
}

func (s *SubscriptionService) invalidate(ctx context.Context, authorID int64) {
	if err := s.cache.InvalidateAuthor(ctx, authorID); err != nil {
		s.log.Warnw("Failed to invalidate subscription cache", "authorID", authorID, "error", err)
	}
}

func (s *SubscriptionService) publish(ctx context.Context, topic string, authorID int64, payload any) {
	if err := s.publisher.Publish(ctx, topic, strconv.FormatInt(authorID, 10), payload); err != nil {
		s.log.Errorw("Failed to publish event", "topic", topic, "authorID", authorID, "error", err)
	}
}

// storeReader читает действующую подписку без кеша
type storeReader struct {
	store repository.Store
	clock clock.Clock
}

func (r storeReader) CurrentSubscription(ctx context.Context, authorID int64) (*domain.Subscription, error) {
	return r.store.Subscriptions().FindEffectiveByAuthor(ctx, authorID, r.clock.Now())
}
