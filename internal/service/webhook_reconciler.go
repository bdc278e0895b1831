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

// errAlreadyProcessed откатывает транзакцию повторного вебхука без ошибки для вызывающего
var errAlreadyProcessed = errors.New("payment already processed")

// SubscriptionActivatedEvent сообщение об оплаченной подписке
type SubscriptionActivatedEvent struct {
	SubscriptionID  int64       `json:"subscription_id"`
	AuthorID        int64       `json:"author_id"`
	Plan            domain.Tier `json:"plan"`
	ValidTo         *time.Time  `json:"valid_to,omitempty"`
	PaymentIntentID string      `json:"payment_intent_id"`
	Amount          int64       `json:"amount"`
	Currency        string      `json:"currency"`
}

// ContentBoostedEvent сообщение об оплаченном продвижении
type ContentBoostedEvent struct {
	ArticleID       int64     `json:"article_id"`
	AuthorID        int64     `json:"author_id"`
	BoostedAt       time.Time `json:"boosted_at"`
	PaymentIntentID string    `json:"payment_intent_id"`
	Amount          int64     `json:"amount"`
	Currency        string    `json:"currency"`
}

// WebhookReconciler применяет события платежного провайдера к хранилищу.
// Повторная доставка того же события не меняет состояние.
type WebhookReconciler struct {
	store     repository.Store
	gateway   PaymentGateway
	publisher EventPublisher
	cache     SubscriptionCacheInvalidator
	metrics   metrics.PlatformMetrics
	clock     clock.Clock
	log       *logger.Logger
}

// WebhookDeps зависимости обработчика вебхуков
type WebhookDeps struct {
	Store     repository.Store
	Gateway   PaymentGateway
	Publisher EventPublisher
	Cache     SubscriptionCacheInvalidator
	Metrics   metrics.PlatformMetrics
	Clock     clock.Clock
	Log       *logger.Logger
}

// NewWebhookReconciler создает обработчик вебхуков
func NewWebhookReconciler(d WebhookDeps) *WebhookReconciler {
	return &WebhookReconciler{
		store:     d.Store,
		gateway:   d.Gateway,
		publisher: d.Publisher,
		cache:     d.Cache,
		metrics:   d.Metrics,
		clock:     d.Clock,
		log:       d.Log,
	}
}

// Handle проверяет подпись и обрабатывает событие.
// Ошибка подписи оборачивает domain.ErrSignatureInvalid. Неполные метаданные
// и ссылки на несуществующие записи пропускаются с записью в лог.
func (r *WebhookReconciler) Handle(ctx context.Context, payload []byte, signature string) error {
	if err := r.gateway.VerifySignature(payload, signature); err != nil {
		r.metrics.IncWebhook("unknown", metrics.OutcomeFailed)
		r.log.Errorw("Invalid Stripe webhook signature", "error", err)
		return err
	}

	event, err := r.gateway.ConstructEvent(payload, signature)
	if err != nil {
		r.metrics.IncWebhook("unknown", metrics.OutcomeFailed)
		r.log.Errorw("Failed to parse Stripe webhook event", "error", err)
		return err
	}

	if event.Type != domain.EventPaymentIntentSucceeded || event.Intent == nil {
		r.metrics.IncWebhook(string(event.Type), metrics.OutcomeIgnored)
		r.log.Debugw("Webhook event ignored", "eventID", event.ID, "type", event.Type)
		return nil
	}

	intent := event.Intent
	kind := intent.Metadata.Kind()
	log := r.log.With("eventID", event.ID, "paymentIntentID", intent.ID, "kind", kind)

	var outcome string
	if kind == domain.MetaTypeBoost {
		outcome, err = r.handleBoost(ctx, intent, log)
	} else {
		outcome, err = r.handleSubscription(ctx, intent, log)
	}
	if err != nil {
		r.metrics.IncWebhook(kind, metrics.OutcomeFailed)
		return err
	}

	r.metrics.IncWebhook(kind, outcome)
	if outcome == metrics.OutcomeProcessed {
		r.metrics.ObservePaymentAmount(intent.Amount, intent.Currency, kind)
	}
	return nil
}

func (r *WebhookReconciler) handleBoost(ctx context.Context, intent *domain.PaymentIntent, log *logger.Logger) (string, error) {
	articleID, err := intent.Metadata.Int64(domain.MetaArticleID)
	if err != nil {
		log.Errorw("Missing article_id in boost payment intent metadata", "error", err)
		return metrics.OutcomeSkipped, nil
	}

	now := r.clock.Now()
	var boosted *domain.Article
	err = r.store.WithinTx(ctx, func(ctx context.Context) error {
		article, err := r.store.Articles().GetByIDForUpdate(ctx, articleID)
		if err != nil {
			return err
		}
		if article.BoostPaymentIntentID != nil && *article.BoostPaymentIntentID == intent.ID {
			return errAlreadyProcessed
		}
		if metaAuthor, err := intent.Metadata.Int64(domain.MetaAuthorID); err == nil && metaAuthor != article.AuthorID {
			log.Warnw("Boost payment author does not match article author",
				"articleID", article.ID, "articleAuthorID", article.AuthorID, "metadataAuthorID", metaAuthor)
		}

		article.MarkBoosted(intent.ID, now)
		if err := r.store.Articles().Update(ctx, article); err != nil {
			return err
		}

		articleRef := article.ID
		if err := r.store.Transactions().Create(ctx, &domain.Transaction{
			AuthorID:        article.AuthorID,
			ArticleID:       &articleRef,
			StripePaymentID: intent.ID,
			Amount:          intent.Amount,
			Currency:        intent.Currency,
			Status:          domain.TransactionStatusCompleted,
			Metadata:        transactionMetadata(intent, domain.MetaTypeBoost),
			CreatedAt:       now,
		}); err != nil {
			return err
		}
		boosted = article
		return nil
	})

	switch {
	case errors.Is(err, errAlreadyProcessed), errors.Is(err, domain.ErrDuplicate):
		log.Infow("Boost webhook already processed", "articleID", articleID)
		return metrics.OutcomeDuplicate, nil
	case errors.Is(err, domain.ErrNotFound):
		log.Errorw("Article not found for boost payment", "articleID", articleID)
		return metrics.OutcomeSkipped, nil
	case err != nil:
		return "", fmt.Errorf("apply boost payment %s: %w", intent.ID, err)
	}

	r.publish(ctx, kafka.TopicContentBoosted, boosted.ID, ContentBoostedEvent{
		ArticleID:       boosted.ID,
		AuthorID:        boosted.AuthorID,
		BoostedAt:       now,
		PaymentIntentID: intent.ID,
		Amount:          intent.Amount,
		Currency:        intent.Currency,
	})
	log.Infow("Article boosted", "articleID", boosted.ID)
	return metrics.OutcomeProcessed, nil
}

func (r *WebhookReconciler) handleSubscription(ctx context.Context, intent *domain.PaymentIntent, log *logger.Logger) (string, error) {
	existing, err := r.store.Subscriptions().FindByPaymentIntentID(ctx, intent.ID)
	switch {
	case err == nil && existing.Status == domain.SubscriptionStatusActive:
		log.Infow("Webhook already processed", "subscriptionID", existing.ID)
		return metrics.OutcomeDuplicate, nil
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return "", fmt.Errorf("find subscription by payment intent: %w", err)
	}

	rawAuthor, hasAuthor := intent.Metadata.Lookup(domain.MetaAuthorID)
	rawPlan, hasPlan := intent.Metadata.Lookup(domain.MetaPlan)
	if !hasAuthor || !hasPlan {
		log.Errorw("Missing metadata in payment intent")
		return metrics.OutcomeSkipped, nil
	}
	authorID, err := strconv.ParseInt(rawAuthor, 10, 64)
	if err != nil {
		log.Errorw("Malformed author_id in payment intent metadata", "authorID", rawAuthor)
		return metrics.OutcomeSkipped, nil
	}

	author, err := r.store.Authors().GetByID(ctx, authorID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Errorw("Author not found for payment intent", "authorID", authorID)
		return metrics.OutcomeSkipped, nil
	}
	if err != nil {
		return "", fmt.Errorf("load author %d: %w", authorID, err)
	}

	tier, err := domain.ParseTier(rawPlan)
	if err != nil {
		log.Errorw("Unknown plan in payment intent metadata", "plan", rawPlan)
		return "", fmt.Errorf("subscription payment %s: %w", intent.ID, err)
	}

	now := r.clock.Now()
	var activated *domain.Subscription
	err = r.store.WithinTx(ctx, func(ctx context.Context) error {
		if err := r.store.Authors().LockForUpdate(ctx, author.ID); err != nil {
			return err
		}
		sub, err := r.store.Subscriptions().FindByPaymentIntentIDForUpdate(ctx, intent.ID)
		switch {
		case err == nil:
			if sub.Status == domain.SubscriptionStatusActive {
				return errAlreadyProcessed
			}
			if err := r.expireOtherEffective(ctx, author.ID, sub.ID, now); err != nil {
				return err
			}
			sub.Activate(now)
			if err := r.store.Subscriptions().Update(ctx, sub); err != nil {
				return err
			}
		case errors.Is(err, domain.ErrNotFound):
			ref := intent.ID
			sub = &domain.Subscription{
				AuthorID:        author.ID,
				Tier:            tier,
				PaymentIntentID: &ref,
				CreatedAt:       now,
			}
			if err := r.expireOtherEffective(ctx, author.ID, 0, now); err != nil {
				return err
			}
			sub.Activate(now)
			if err := r.store.Subscriptions().Create(ctx, sub); err != nil {
				return err
			}
		default:
			return err
		}

		subRef := sub.ID
		if err := r.store.Transactions().Create(ctx, &domain.Transaction{
			AuthorID:        author.ID,
			SubscriptionID:  &subRef,
			StripePaymentID: intent.ID,
			Amount:          intent.Amount,
			Currency:        intent.Currency,
			Tier:            &tier,
			Status:          domain.TransactionStatusCompleted,
			Metadata:        transactionMetadata(intent, domain.MetaTypeSubscription),
			CreatedAt:       now,
		}); err != nil {
			return err
		}
		activated = sub
		return nil
	})

	switch {
	case errors.Is(err, errAlreadyProcessed), errors.Is(err, domain.ErrDuplicate):
		log.Infow("Webhook already processed")
		return metrics.OutcomeDuplicate, nil
	case err != nil:
		return "", fmt.Errorf("apply subscription payment %s: %w", intent.ID, err)
	}

	if err := r.cache.InvalidateAuthor(ctx, author.ID); err != nil {
		log.Warnw("Failed to invalidate subscription cache", "authorID", author.ID, "error", err)
	}
	r.publish(ctx, kafka.TopicSubscriptionActivated, author.ID, SubscriptionActivatedEvent{
		SubscriptionID:  activated.ID,
		AuthorID:        author.ID,
		Plan:            activated.Tier,
		ValidTo:         activated.ValidTo,
		PaymentIntentID: intent.ID,
		Amount:          intent.Amount,
		Currency:        intent.Currency,
	})
	log.Infow("Subscription activated", "subscriptionID", activated.ID, "authorID", author.ID, "plan", activated.Tier)
	return metrics.OutcomeProcessed, nil
}

// expireOtherEffective у автора остается одна действующая подписка; вызывается в транзакции
func (r *WebhookReconciler) expireOtherEffective(ctx context.Context, authorID, keepID int64, now time.Time) error {
	existing, err := r.store.Subscriptions().FindEffectiveByAuthor(ctx, authorID, now)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID == keepID {
		return nil
	}
	existing.Expire(now)
	return r.store.Subscriptions().Update(ctx, existing)
}

func (r *WebhookReconciler) publish(ctx context.Context, topic string, key int64, payload any) {
	if err := r.publisher.Publish(ctx, topic, strconv.FormatInt(key, 10), payload); err != nil {
		r.log.Errorw("Failed to publish event", "topic", topic, "key", key, "error", err)
	}
}

func transactionMetadata(intent *domain.PaymentIntent, kind string) map[string]string {
	md := map[string]string{
		"payment_intent": intent.ID,
		"type":           kind,
	}
	if intent.PaymentMethod != "" {
		md["payment_method"] = intent.PaymentMethod
	}
	return md
}
