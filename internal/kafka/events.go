package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Топики доменных событий платформы
const (
	TopicSubscriptionCheckout  = "subscription.checkout"
	TopicSubscriptionActivated = "subscription.activated"
	TopicContentBoosted        = "content.boosted"
	TopicSubscriptionsExpired  = "subscriptions.expired"
)

// AllTopics топики, которые создает EnsureKafkaTopics
var AllTopics = []string{
	TopicSubscriptionCheckout,
	TopicSubscriptionActivated,
	TopicContentBoosted,
	TopicSubscriptionsExpired,
}

// Envelope общая обертка сообщения
type Envelope struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

func encodeEnvelope(topic string, payload any) ([]byte, error) {
	data, err := json.Marshal(Envelope{
		ID:         uuid.NewString(),
		Type:       topic,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		return nil, fmt.Errorf("kafka: failed to marshal message data: %w", err)
	}
	return data, nil
}

// NopPublisher используется, когда брокеры не настроены
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, any) error { return nil }
func (NopPublisher) Close() error                                       { return nil }
