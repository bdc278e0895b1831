package stripe

import (
	"fmt"

	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/stripe/stripe-go/v78/webhook"
)

// VerifySignature проверяет подпись вебхука без разбора события
func (g *Gateway) VerifySignature(payload []byte, signature string) error {
	if signature == "" {
		return fmt.Errorf("%w: missing Stripe-Signature header", domain.ErrSignatureInvalid)
	}
	if err := webhook.ValidatePayload(payload, signature, g.webhookSecret); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSignatureInvalid, err)
	}
	return nil
}

// ConstructEvent проверяет подпись и переводит событие Stripe в доменное
func (g *Gateway) ConstructEvent(payload []byte, signature string) (*domain.PaymentEvent, error) {
	if signature == "" {
		return nil, fmt.Errorf("%w: missing Stripe-Signature header", domain.ErrSignatureInvalid)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		g.log.Warnw("Webhook signature verification failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrSignatureInvalid, err)
	}

	result, err := toDomainEvent(event)
	if err != nil {
		g.log.Errorw("Failed to parse Stripe event data", "error", err, "eventID", event.ID, "eventType", event.Type)
		return nil, err
	}

	g.log.Infow("Received verified Stripe event", "eventID", event.ID, "eventType", event.Type)
	return result, nil
}
