package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/Dhoini/publishing-platform/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	currentSubscriptionKeyPrefix = "author_subscription:"

	DefaultSubscriptionTTL = 15 * time.Minute
)

// SubscriptionCache хранит действующую подписку автора в Redis
type SubscriptionCache struct {
	client redis.Cmdable
	ttl    time.Duration
	log    *logger.Logger
}

// NewSubscriptionCache создает кеш подписок
func NewSubscriptionCache(client redis.Cmdable, ttl time.Duration, log *logger.Logger) *SubscriptionCache {
	if ttl <= 0 {
		ttl = DefaultSubscriptionTTL
	}
	return &SubscriptionCache{client: client, ttl: ttl, log: log}
}

func authorKey(authorID int64) string {
	return fmt.Sprintf("%s%d", currentSubscriptionKeyPrefix, authorID)
}

// Get возвращает подписку из кеша; (nil, nil) если ключа нет
func (c *SubscriptionCache) Get(ctx context.Context, authorID int64) (*domain.Subscription, error) {
	data, err := c.client.Get(ctx, authorKey(authorID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.log.Debugw("Subscription not found in cache", "authorID", authorID)
			return nil, nil
		}
		c.log.Errorw("Error getting subscription from Redis", "error", err, "authorID", authorID)
		return nil, fmt.Errorf("failed to get subscription from cache: %w", err)
	}

	var sub domain.Subscription
	if err := json.Unmarshal(data, &sub); err != nil {
		c.log.Errorw("Failed to unmarshal cached subscription", "error", err, "authorID", authorID)
		return nil, fmt.Errorf("failed to unmarshal cached subscription: %w", err)
	}
	return &sub, nil
}

// Set кеширует подписку. TTL не превышает оставшийся срок действия.
func (c *SubscriptionCache) Set(ctx context.Context, sub *domain.Subscription, now time.Time) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription: %w", err)
	}

	ttl := c.ttl
	if sub.ValidTo != nil {
		if left := sub.ValidTo.Sub(now); left < ttl {
			ttl = left
		}
	}
	if ttl <= 0 {
		return nil
	}

	if err := c.client.Set(ctx, authorKey(sub.AuthorID), data, ttl).Err(); err != nil {
		c.log.Errorw("Failed to cache subscription in Redis", "error", err, "authorID", sub.AuthorID)
		return fmt.Errorf("failed to cache subscription: %w", err)
	}

	c.log.Debugw("Subscription cached successfully", "authorID", sub.AuthorID, "subscriptionID", sub.ID, "ttl", ttl)
	return nil
}

// InvalidateAuthor удаляет кешированную подписку автора
func (c *SubscriptionCache) InvalidateAuthor(ctx context.Context, authorID int64) error {
	if err := c.client.Del(ctx, authorKey(authorID)).Err(); err != nil {
		c.log.Errorw("Failed to invalidate subscription cache", "error", err, "authorID", authorID)
		return fmt.Errorf("failed to invalidate subscription cache: %w", err)
	}
	c.log.Debugw("Subscription cache invalidated", "authorID", authorID)
	return nil
}

// NopInvalidator используется, когда Redis не настроен
type NopInvalidator struct{}

func (NopInvalidator) InvalidateAuthor(context.Context, int64) error { return nil }
